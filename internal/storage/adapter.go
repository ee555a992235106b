// Package storage is the only code that reads or writes the saved progress
// envelope. Every operation reports failure as a boolean or falls back to
// defaults; nothing here returns an error to its caller.
package storage

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"catbattle/internal/clock"
	"catbattle/internal/kv"
	"catbattle/internal/metrics"
	"catbattle/internal/progress"

	"github.com/google/uuid"
)

// DefaultKey is the key the web client has always saved under.
const DefaultKey = "cat-card-battle-state"

const probePrefix = "__storage_test__"

type Options struct {
	Key     string
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics metrics.Recorder
}

type Adapter struct {
	mu    sync.Mutex
	kv    kv.Store
	key   string
	log   *slog.Logger
	clock clock.Clock
	rec   metrics.Recorder
}

func New(store kv.Store, opts Options) *Adapter {
	if strings.TrimSpace(opts.Key) == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	return &Adapter{
		kv:    store,
		key:   opts.Key,
		log:   opts.Logger.With("key", opts.Key),
		clock: opts.Clock,
		rec:   opts.Metrics,
	}
}

func (a *Adapter) Key() string { return a.key }

// DefaultProgress is fresh default progress stamped with the adapter's clock.
func (a *Adapter) DefaultProgress() progress.GameProgress {
	return progress.Default(a.clock.Now())
}

// SaveState writes the whole envelope. It reports false when the state
// cannot be serialized or the store refuses the write.
func (a *Adapter) SaveState(state progress.StorageState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saveLocked(state)
}

// LoadState reads the envelope, returning defaults when it is absent,
// unreadable or malformed.
func (a *Adapter) LoadState() progress.StorageState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked()
}

// UpdateGameProgress merges patch into the saved progress, stamps
// lastPlayedAt with the current time and saves the result. A caller-supplied
// lastPlayedAt is overwritten.
func (a *Adapter) UpdateGameProgress(patch progress.Patch) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.loadLocked()
	next := patch.Apply(current.GameProgress)
	next.LastPlayedAt = a.clock.Now()
	current.GameProgress = next

	ok := a.saveLocked(current)
	if ok {
		a.log.Debug("updated game progress", "fields", patch.Fields())
	}
	return ok
}

// ClearState removes the saved envelope. Clearing an absent key succeeds.
func (a *Adapter) ClearState() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.kv.RemoveItem(a.key); err != nil {
		a.log.Warn("failed to clear game state", "error", err)
		a.rec.IncClear(false)
		return false
	}
	a.rec.IncClear(true)
	return true
}

// IsStorageAvailable probes the store with a throwaway key.
func (a *Adapter) IsStorageAvailable() bool {
	probe := probePrefix + uuid.NewString()
	if err := a.kv.SetItem(probe, "test"); err != nil {
		a.log.Debug("storage probe write failed", "error", err)
		return false
	}
	if err := a.kv.RemoveItem(probe); err != nil {
		a.log.Debug("storage probe remove failed", "error", err)
		return false
	}
	return true
}

// Raw returns the stored text as-is, without validation.
func (a *Adapter) Raw() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, ok, err := a.kv.GetItem(a.key)
	if err != nil || !ok {
		return "", false
	}
	return v, true
}

func (a *Adapter) saveLocked(state progress.StorageState) bool {
	b, err := json.Marshal(state)
	if err != nil {
		a.log.Warn("failed to serialize game state", "error", err)
		a.rec.IncSave(false)
		return false
	}
	if err := a.kv.SetItem(a.key, string(b)); err != nil {
		a.log.Warn("failed to save game state", "error", err)
		a.rec.IncSave(false)
		return false
	}
	a.rec.IncSave(true)
	return true
}

func (a *Adapter) loadLocked() progress.StorageState {
	now := a.clock.Now()

	v, ok, err := a.kv.GetItem(a.key)
	if err != nil {
		a.log.Warn("failed to load game state", "error", err)
		a.rec.IncLoad(metrics.LoadFailed)
		return progress.DefaultState(now)
	}
	if !ok || v == "" {
		a.rec.IncLoad(metrics.LoadMissing)
		return progress.DefaultState(now)
	}

	if !json.Valid([]byte(v)) {
		a.log.Warn("failed to parse game state, using defaults")
		a.rec.IncLoad(metrics.LoadRecovered)
		return progress.DefaultState(now)
	}

	state, repaired := ValidateAndMigrate([]byte(v), now)
	if repaired {
		a.log.Debug("repaired saved game state", "version", state.Version)
		a.rec.IncLoad(metrics.LoadRecovered)
	} else {
		a.rec.IncLoad(metrics.LoadOK)
	}
	return state
}
