package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/screen-relay/internal/domain/activity"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	base := time.UnixMilli(1700000000000)
	entries := []*activity.Entry{
		{ScreenID: "s1", Type: activity.TypeScreenConnected, Summary: "pending", CreatedAt: base},
		{ScreenID: "s1", Type: activity.TypeScreenConfirmed, Summary: "Lobby", CreatedAt: base.Add(time.Second)},
		{ScreenID: "s2", Type: activity.TypeScreenConnected, Summary: "pending", CreatedAt: base.Add(2 * time.Second)},
		{ScreenID: "s1", Type: activity.TypeContentProjected, Summary: "iframe", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Log(ctx, e))
		require.NotZero(t, e.ID)
	}

	all, err := repo.List(ctx, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Equal timestamps fall back to insertion order, newest first.
	require.Equal(t, activity.TypeContentProjected, all[0].Type)
	require.Equal(t, "s2", all[1].ScreenID)
	require.Equal(t, activity.TypeScreenConnected, all[3].Type)
	require.Equal(t, base.UnixMilli(), all[3].CreatedAt.UnixMilli())

	s1, err := repo.List(ctx, activity.ListOptions{ScreenID: "s1"})
	require.NoError(t, err)
	require.Len(t, s1, 3)

	typ := activity.TypeScreenConnected
	connected, err := repo.List(ctx, activity.ListOptions{Type: &typ})
	require.NoError(t, err)
	require.Len(t, connected, 2)

	page, err := repo.List(ctx, activity.ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "s2", page[0].ScreenID)

	tail, err := repo.List(ctx, activity.ListOptions{Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 1)
}

func TestActivityRepository_ListEmpty(t *testing.T) {
	repo := NewActivityRepository(NewTestDB(t))

	got, err := repo.List(context.Background(), activity.ListOptions{ScreenID: "nobody"})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}
