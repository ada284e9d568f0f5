package screen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/screen-relay/internal/repository"
	"github.com/google/uuid"
)

const maxIDAttempts = 5

// newCandidateID draws screen_<base36 millis>_<9 random chars>.
func newCandidateID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "screen_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + suffix
}

// allocateID draws candidates until one is unused in the store.
func (s *Service) allocateID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID(s.now())
		_, err := s.repo.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking screen id: %w", err)
		}
		s.logger.Warn("screen id collision", "id", id, "attempt", attempt+1)
	}
	return "", ErrIDExhausted
}
