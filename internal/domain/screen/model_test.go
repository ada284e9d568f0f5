package screen_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/screen-relay/internal/domain/screen"
)

func TestScreen_MarshalJSONUsesMillis(t *testing.T) {
	scr := screen.Screen{
		ID:        "lobby-1",
		NameEn:    "Lobby",
		NameZh:    "大厅",
		Status:    screen.StatusPending,
		CreatedAt: time.UnixMilli(1700000000123),
		UpdatedAt: time.UnixMilli(1700000005000),
	}

	data, err := json.Marshal(scr)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.EqualValues(t, 1700000000123, got["created_at"])
	require.EqualValues(t, 1700000005000, got["updated_at"])
	require.Equal(t, "lobby-1", got["id"])
	require.Equal(t, "pending", got["status"])
	require.Nil(t, got["token"])
	require.Contains(t, got, "online")

	ptrData, err := json.Marshal(&scr)
	require.NoError(t, err)
	require.JSONEq(t, string(data), string(ptrData))
}
