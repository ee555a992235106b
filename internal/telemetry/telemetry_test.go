package telemetry

import (
	"testing"
	"time"

	"catbattle/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func TestMemoryRepository(t *testing.T) {
	c := clock.NewFakeClock(t0)
	repo := NewMemoryRepository(c, 0)

	require.NoError(t, repo.RecordEvent(EventPackOpened, EventMetadata{"added": 3}))
	c.Advance(time.Hour)
	require.NoError(t, repo.RecordEvent(EventScreenChanged, EventMetadata{"screen": "battle"}))

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, t0, all[0].Timestamp)
	assert.JSONEq(t, `{"added":3}`, all[0].Metadata)

	recent, err := repo.GetEvents(t0.Add(time.Minute), nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, EventScreenChanged, recent[0].Type)

	packs, err := repo.GetEvents(time.Time{}, []EventType{EventPackOpened})
	require.NoError(t, err)
	assert.Len(t, packs, 1)

	require.NoError(t, repo.Clear())
	all, err = repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryRepositoryLimit(t *testing.T) {
	repo := NewMemoryRepository(clock.NewFakeClock(t0), 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordEvent(EventPackOpened, nil))
	}

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].ID)
	assert.Equal(t, 3, events[1].ID)
}

func TestCalculateStats(t *testing.T) {
	repo := NewMemoryRepository(clock.NewFakeClock(t0), 0)
	require.NoError(t, repo.RecordEvent(EventPackOpened, EventMetadata{"added": 5}))
	require.NoError(t, repo.RecordEvent(EventPackOpened, EventMetadata{"added": 0}))
	require.NoError(t, repo.RecordEvent(EventScreenChanged, EventMetadata{"screen": "tutorial"}))
	require.NoError(t, repo.RecordEvent(EventScreenChanged, EventMetadata{"screen": "tutorial"}))
	require.NoError(t, repo.RecordEvent(EventProgressReset, nil))

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)

	stats := CalculateStats(events, t0)
	assert.Equal(t, "2026-02-01", stats.Period)
	assert.Equal(t, 2, stats.PacksOpened)
	assert.Equal(t, 5, stats.CardsCollected)
	assert.Equal(t, 1, stats.DuplicatePacks)
	assert.Equal(t, 1, stats.Resets)
	assert.Equal(t, 2, stats.ScreenVisits["tutorial"])
	assert.Equal(t, 2, stats.EventCounts[EventScreenChanged])
}
