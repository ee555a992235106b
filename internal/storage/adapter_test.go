package storage

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catbattle/internal/card"
	"catbattle/internal/clock"
	"catbattle/internal/kv"
	"catbattle/internal/metrics"
	"catbattle/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	kv      *kv.MemoryStore
	clock   *clock.FakeClock
	logs    *bytes.Buffer
	adapter *Adapter
}

func newFixture(t *testing.T, quota int) fixture {
	t.Helper()
	f := fixture{
		kv:    kv.NewMemoryStore(quota),
		clock: clock.NewFakeClock(t0),
		logs:  &bytes.Buffer{},
	}
	f.adapter = New(f.kv, Options{
		Logger: slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Clock:  f.clock,
	})
	return f
}

func (f fixture) put(t *testing.T, v string) {
	t.Helper()
	require.NoError(t, f.kv.SetItem(DefaultKey, v))
}

func (f fixture) saved(t *testing.T) map[string]any {
	t.Helper()
	v, ok, err := f.kv.GetItem(DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "expected a saved envelope")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(v), &out))
	return out
}

func TestLoadStateMissingKeyIsDefault(t *testing.T) {
	f := newFixture(t, 0)
	assert.Equal(t, progress.DefaultState(t0), f.adapter.LoadState())
}

func TestLoadStateEmptyValueIsDefault(t *testing.T) {
	f := newFixture(t, 0)
	f.put(t, "")
	assert.Equal(t, progress.DefaultState(t0), f.adapter.LoadState())
}

func TestLoadStateUnparseableIsDefault(t *testing.T) {
	f := newFixture(t, 0)
	f.put(t, "{not json")
	assert.Equal(t, progress.DefaultState(t0), f.adapter.LoadState())
	assert.Contains(t, f.logs.String(), "failed to parse game state")
}

func TestLoadStateUnavailableIsDefault(t *testing.T) {
	f := newFixture(t, 0)
	f.kv.SetUnavailable(true)
	assert.Equal(t, progress.DefaultState(t0), f.adapter.LoadState())
	assert.Contains(t, f.logs.String(), "level=WARN")
}

func TestLoadStateBogusScreen(t *testing.T) {
	f := newFixture(t, 0)
	f.put(t, `{"gameProgress": {"currentScreen": "bogus"}}`)

	assert.Equal(t, progress.DefaultState(t0), f.adapter.LoadState())
}

func TestLoadStateCollectionNotArray(t *testing.T) {
	f := newFixture(t, 0)
	f.put(t, `{"gameProgress": {"userCollection": "not-an-array"}}`)

	got := f.adapter.LoadState()
	assert.NotNil(t, got.GameProgress.UserCollection)
	assert.Empty(t, got.GameProgress.UserCollection)
	assert.Equal(t, progress.DefaultState(t0), got)
}

func TestLoadStateKeepsValidFields(t *testing.T) {
	f := newFixture(t, 0)
	f.put(t, `{
		"gameProgress": {
			"hasSeenInstructions": true,
			"hasCompletedTutorial": "yes",
			"currentScreen": "battle",
			"hasOpenedFirstPack": true,
			"selectedPackId": 2,
			"userCollection": [
				{"id": 1, "rarity": "common", "name": "Tabby"},
				{"id": 1, "rarity": "rare"},
				{"rarity": "rare"},
				"junk",
				{"id": 5, "rarity": "rare"}
			],
			"totalPacksOpened": 4,
			"lastPlayedAt": "2025-12-24T18:30:00.000Z",
			"legacyField": 42
		},
		"version": "0.9.0"
	}`)

	got := f.adapter.LoadState()
	gp := got.GameProgress
	assert.Equal(t, "0.9.0", got.Version)
	assert.True(t, gp.HasSeenInstructions)
	assert.False(t, gp.HasCompletedTutorial, "wrong type falls back to default")
	assert.Equal(t, progress.ScreenBattle, gp.CurrentScreen)
	assert.True(t, gp.HasOpenedFirstPack)
	require.NotNil(t, gp.SelectedPackID)
	assert.Equal(t, 2, *gp.SelectedPackID)
	require.Len(t, gp.UserCollection, 2)
	assert.Equal(t, card.IntID(1), gp.UserCollection[0].ID)
	assert.Equal(t, card.RarityCommon, gp.UserCollection[0].Rarity)
	assert.Equal(t, card.IntID(5), gp.UserCollection[1].ID)
	assert.Equal(t, 4, gp.TotalPacksOpened)
	assert.Equal(t, time.Date(2025, 12, 24, 18, 30, 0, 0, time.UTC), gp.LastPlayedAt)
}

func TestValidateAndMigrateKeepsStringIDs(t *testing.T) {
	got, repaired := ValidateAndMigrate([]byte(`{
		"gameProgress": {
			"hasSeenInstructions": false,
			"hasCompletedTutorial": false,
			"currentScreen": "instructions",
			"hasOpenedFirstPack": true,
			"selectedPackId": null,
			"userCollection": [
				{"id": "tabby-01", "rarity": "rare"},
				{"id": 2, "rarity": "common"},
				{"id": "tabby-01", "rarity": "epic"},
				{"id": "2", "rarity": "epic"}
			],
			"totalPacksOpened": 1,
			"lastPlayedAt": "2026-01-01T09:00:00Z"
		},
		"version": "1.0.0"
	}`), t0)

	require.Len(t, got.GameProgress.UserCollection, 3)
	col := got.GameProgress.UserCollection
	assert.Equal(t, card.StringID("tabby-01"), col[0].ID)
	assert.Equal(t, card.RarityRare, col[0].Rarity)
	assert.Equal(t, card.IntID(2), col[1].ID)
	assert.Equal(t, card.StringID("2"), col[2].ID, "string and number ids are distinct")
	assert.True(t, repaired, "duplicate id was dropped")

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id":"tabby-01"`)
}

func TestValidateAndMigrate(t *testing.T) {
	pack := 7
	cases := []struct {
		name     string
		in       string
		want     func(s *progress.StorageState)
		repaired bool
	}{
		{name: "null", in: `null`, repaired: true},
		{name: "array", in: `[1,2]`, repaired: true},
		{name: "string", in: `"hello"`, repaired: true},
		{name: "no gameProgress", in: `{"version":"2.0.0"}`, repaired: true},
		{name: "gameProgress null", in: `{"gameProgress":null,"version":"2.0.0"}`, repaired: true},
		{name: "gameProgress scalar", in: `{"gameProgress":5,"version":"2.0.0"}`, repaired: true},
		{name: "gameProgress array", in: `{"gameProgress":[],"version":"2.0.0"}`, repaired: true},
		{
			name:     "empty progress back-fills and keeps version",
			in:       `{"gameProgress":{},"version":"2.0.0"}`,
			want:     func(s *progress.StorageState) { s.Version = "2.0.0" },
			repaired: true,
		},
		{
			name:     "numeric version falls back",
			in:       `{"gameProgress":{},"version":3}`,
			repaired: true,
		},
		{
			name:     "empty version falls back",
			in:       `{"gameProgress":{},"version":""}`,
			repaired: true,
		},
		{
			name:     "negative counter",
			in:       `{"gameProgress":{"totalPacksOpened":-3},"version":"1.0.0"}`,
			repaired: true,
		},
		{
			name:     "null collection",
			in:       `{"gameProgress":{"userCollection":null},"version":"1.0.0"}`,
			repaired: true,
		},
		{
			name:     "selected pack",
			in:       `{"gameProgress":{"selectedPackId":7},"version":"1.0.0"}`,
			want:     func(s *progress.StorageState) { s.GameProgress.SelectedPackID = &pack },
			repaired: true,
		},
		{
			name:     "bad timestamp keeps fresh default",
			in:       `{"gameProgress":{"lastPlayedAt":"yesterday"},"version":"1.0.0"}`,
			repaired: true,
		},
		{
			name: "complete save is not repaired",
			in: `{"gameProgress":{"hasSeenInstructions":false,"hasCompletedTutorial":false,
				"currentScreen":"instructions","hasOpenedFirstPack":false,"selectedPackId":null,
				"userCollection":[],"totalPacksOpened":0,"lastPlayedAt":"2026-01-01T09:00:00Z"},
				"version":"1.0.0"}`,
			repaired: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := progress.DefaultState(t0)
			if tc.want != nil {
				tc.want(&want)
			}
			got, repaired := ValidateAndMigrate([]byte(tc.in), t0)
			assert.Equal(t, want, got)
			assert.Equal(t, tc.repaired, repaired)
		})
	}
}

func TestSaveStateRoundTripIsIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	f.put(t, `{"gameProgress":{"currentScreen":"tutorial","userCollection":[
		{"id":3,"rarity":"legendary","name":"Grumpy","art":{"url":"grumpy.png"}}],
		"totalPacksOpened":1,"lastPlayedAt":"2025-06-01T10:00:00.123Z"},"version":"1.0.0"}`)

	first := f.adapter.LoadState()
	require.True(t, f.adapter.SaveState(first))
	second := f.adapter.LoadState()
	assert.Equal(t, first, second)

	require.True(t, f.adapter.SaveState(second))
	assert.Equal(t, second, f.adapter.LoadState())
}

func TestSaveStateFailures(t *testing.T) {
	t.Run("over quota", func(t *testing.T) {
		f := newFixture(t, 32)
		assert.False(t, f.adapter.SaveState(progress.DefaultState(t0)))
		assert.Contains(t, f.logs.String(), "failed to save game state")
	})

	t.Run("unavailable", func(t *testing.T) {
		f := newFixture(t, 0)
		f.kv.SetUnavailable(true)
		assert.False(t, f.adapter.SaveState(progress.DefaultState(t0)))
	})

	t.Run("unserializable card field", func(t *testing.T) {
		f := newFixture(t, 0)
		s := progress.DefaultState(t0)
		s.GameProgress.UserCollection = []card.Card{{
			ID:    card.IntID(1),
			Extra: map[string]json.RawMessage{"broken": json.RawMessage(`{`)},
		}}
		assert.False(t, f.adapter.SaveState(s))
		assert.Contains(t, f.logs.String(), "failed to serialize game state")
		assert.Zero(t, f.kv.Len())
	})
}

func TestUpdateGameProgressPreservesOtherFields(t *testing.T) {
	f := newFixture(t, 0)
	pack := 2
	initial := progress.DefaultState(t0)
	initial.Version = "1.2.0"
	initial.GameProgress.HasSeenInstructions = true
	initial.GameProgress.SelectedPackID = &pack
	initial.GameProgress.UserCollection = []card.Card{{ID: card.IntID(9), Rarity: card.RarityRare}}
	initial.GameProgress.TotalPacksOpened = 3
	require.True(t, f.adapter.SaveState(initial))

	f.clock.Advance(time.Minute)
	require.True(t, f.adapter.UpdateGameProgress(progress.Patch{
		CurrentScreen: progress.Set(progress.ScreenPackSelection),
	}))

	got := f.adapter.LoadState()
	want := initial
	want.GameProgress = initial.GameProgress.Clone()
	want.GameProgress.CurrentScreen = progress.ScreenPackSelection
	want.GameProgress.LastPlayedAt = t0.Add(time.Minute)
	assert.Equal(t, want, got)
}

func TestUpdateGameProgressStampsTime(t *testing.T) {
	f := newFixture(t, 0)
	ticking := clock.NewTickingClock(t0, time.Millisecond)
	f.adapter = New(f.kv, Options{Clock: ticking, Logger: slog.New(slog.NewTextHandler(f.logs, nil))})

	var last time.Time
	for i := 0; i < 3; i++ {
		require.True(t, f.adapter.UpdateGameProgress(progress.Patch{TotalPacksOpened: progress.Set(i)}))
		ts := f.adapter.LoadState().GameProgress.LastPlayedAt
		assert.True(t, ts.After(last), "lastPlayedAt must move forward")
		last = ts
	}
}

func TestUpdateGameProgressIgnoresCallerTimestamp(t *testing.T) {
	f := newFixture(t, 0)
	require.True(t, f.adapter.UpdateGameProgress(progress.Patch{
		LastPlayedAt: progress.Set(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)),
	}))
	assert.Equal(t, "2026-01-01T09:00:00Z", f.saved(t)["gameProgress"].(map[string]any)["lastPlayedAt"])
}

func TestUpdateGameProgressReportsSaveFailure(t *testing.T) {
	f := newFixture(t, 0)
	f.kv.SetUnavailable(true)
	assert.False(t, f.adapter.UpdateGameProgress(progress.Patch{HasSeenInstructions: progress.Set(true)}))
}

func TestClearState(t *testing.T) {
	f := newFixture(t, 0)
	require.True(t, f.adapter.SaveState(progress.DefaultState(t0)))

	assert.True(t, f.adapter.ClearState())
	assert.Zero(t, f.kv.Len())
	assert.True(t, f.adapter.ClearState(), "clearing twice is fine")

	f.kv.SetUnavailable(true)
	assert.False(t, f.adapter.ClearState())
}

func TestIsStorageAvailable(t *testing.T) {
	f := newFixture(t, 0)
	assert.True(t, f.adapter.IsStorageAvailable())
	assert.Zero(t, f.kv.Len(), "probe key is removed")

	f.kv.SetUnavailable(true)
	assert.False(t, f.adapter.IsStorageAvailable())

	full := newFixture(t, 4)
	assert.False(t, full.adapter.IsStorageAvailable())
}

func TestCustomKey(t *testing.T) {
	store := kv.NewMemoryStore(0)
	a := New(store, Options{Key: "slot-2", Clock: clock.NewFakeClock(t0)})
	assert.Equal(t, "slot-2", a.Key())

	require.True(t, a.SaveState(progress.DefaultState(t0)))
	_, ok, _ := store.GetItem("slot-2")
	assert.True(t, ok)

	raw, ok := a.Raw()
	assert.True(t, ok)
	assert.Contains(t, raw, `"version":"1.0.0"`)
}

func TestAdapterRecordsMetrics(t *testing.T) {
	pr := metrics.NewPrometheusRecorder(nil)
	store := kv.NewMemoryStore(0)
	a := New(store, Options{Clock: clock.NewFakeClock(t0), Metrics: pr})

	a.LoadState()
	require.True(t, a.SaveState(progress.DefaultState(t0)))
	a.LoadState()
	require.NoError(t, store.SetItem(DefaultKey, `{"gameProgress":{}}`))
	a.LoadState()

	body := scrape(t, pr)
	assert.Contains(t, body, `catbattle_storage_loads_total{outcome="missing"} 1`)
	assert.Contains(t, body, `catbattle_storage_loads_total{outcome="ok"} 1`)
	assert.Contains(t, body, `catbattle_storage_loads_total{outcome="recovered"} 1`)
	assert.Contains(t, body, `catbattle_storage_saves_total{result="success"} 1`)
}

func scrape(t *testing.T, pr *metrics.PrometheusRecorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
