// Package token mints the opaque credentials handed to screens and attachments.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Size is the number of random bytes behind every token.
const Size = 32

// Issuer produces unguessable opaque tokens.
type Issuer interface {
	Issue() string
}

// RandomIssuer draws tokens from crypto/rand.
type RandomIssuer struct{}

// NewIssuer returns the default issuer.
func NewIssuer() RandomIssuer {
	return RandomIssuer{}
}

// Issue returns 256 random bits as 64 lowercase hex characters.
// A failing randomness source is not recoverable, so it panics.
func (RandomIssuer) Issue() string {
	buf := make([]byte, Size)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("token: reading random source: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Equal reports whether two tokens match without leaking timing.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
