// Package game holds the in-memory player progress that UI code reads and
// mutates. Every mutation is written through to storage before it returns.
package game

import (
	"log/slog"
	"sync"
	"time"

	"catbattle/internal/card"
	"catbattle/internal/metrics"
	"catbattle/internal/progress"
	"catbattle/internal/telemetry"
)

// Persister is the storage the Store writes through to. *storage.Adapter
// implements it.
type Persister interface {
	LoadState() progress.StorageState
	UpdateGameProgress(patch progress.Patch) bool
	ClearState() bool
	DefaultProgress() progress.GameProgress
}

type Options struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// Events receives one event per mutation; nil disables recording.
	Events telemetry.Repository
}

// Store owns the canonical in-memory GameProgress.
//
// Storage failures never surface here: the in-memory value is updated even
// when the write-through fails, and the next start may load older data.
type Store struct {
	mu       sync.RWMutex
	storage  Persister
	progress progress.GameProgress
	log      *slog.Logger
	rec      metrics.Recorder
	events   telemetry.Repository
}

// New seeds the store from storage. It loads exactly once.
func New(p Persister, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	return &Store{
		storage:  p,
		progress: p.LoadState().GameProgress.Clone(),
		log:      opts.Logger,
		rec:      opts.Metrics,
		events:   opts.Events,
	}
}

// Progress returns a copy of the full snapshot.
func (s *Store) Progress() progress.GameProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.Clone()
}

func (s *Store) HasSeenInstructions() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.HasSeenInstructions
}

func (s *Store) HasCompletedTutorial() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.HasCompletedTutorial
}

func (s *Store) CurrentScreen() progress.Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.CurrentScreen
}

func (s *Store) HasOpenedFirstPack() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.HasOpenedFirstPack
}

// SelectedPackID returns the selected pack and whether one is selected.
func (s *Store) SelectedPackID() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.progress.SelectedPackID == nil {
		return 0, false
	}
	return *s.progress.SelectedPackID, true
}

// UserCollection returns a copy of the collection in insertion order.
func (s *Store) UserCollection() []card.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return card.CloneAll(s.progress.UserCollection)
}

func (s *Store) TotalPacksOpened() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.TotalPacksOpened
}

// LastPlayedAt is the timestamp of the snapshot as last loaded or reset.
// Writes stamp the saved copy; the in-memory value catches up on refresh.
func (s *Store) LastPlayedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.LastPlayedAt
}

func (s *Store) HasAnyCards() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.progress.UserCollection) > 0
}

// CardsByRarity returns the collected cards tagged r, in collection order.
func (s *Store) CardsByRarity(r card.Rarity) []card.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return card.FilterByRarity(s.progress.UserCollection, r)
}

func (s *Store) SetHasSeenInstructions(seen bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.HasSeenInstructions = seen
	s.persist("setHasSeenInstructions", progress.Patch{HasSeenInstructions: progress.Set(seen)})
	s.record(telemetry.EventInstructionsSeen, telemetry.EventMetadata{"seen": seen})
}

func (s *Store) SetHasCompletedTutorial(completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.HasCompletedTutorial = completed
	s.persist("setHasCompletedTutorial", progress.Patch{HasCompletedTutorial: progress.Set(completed)})
	s.record(telemetry.EventTutorialCompleted, telemetry.EventMetadata{"completed": completed})
}

// SetCurrentScreen moves to screen. An unrecognized screen is stored as
// progress.ScreenInstructions, the same value a load would coerce it to.
func (s *Store) SetCurrentScreen(screen progress.Screen) {
	if !screen.Valid() {
		s.log.Warn("unknown screen, using instructions", "screen", string(screen))
		screen = progress.ScreenInstructions
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.CurrentScreen = screen
	s.persist("setCurrentScreen", progress.Patch{CurrentScreen: progress.Set(screen)})
	s.record(telemetry.EventScreenChanged, telemetry.EventMetadata{"screen": string(screen)})
}

func (s *Store) SetHasOpenedFirstPack(opened bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.HasOpenedFirstPack = opened
	s.persist("setHasOpenedFirstPack", progress.Patch{HasOpenedFirstPack: progress.Set(opened)})
	s.record(telemetry.EventFirstPackOpened, telemetry.EventMetadata{"opened": opened})
}

// SetSelectedPackID selects a pack; nil clears the selection.
func (s *Store) SetSelectedPackID(packID *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var id *int
	if packID != nil {
		v := *packID
		id = &v
	}
	s.progress.SelectedPackID = id
	s.persist("setSelectedPackId", progress.Patch{SelectedPackID: progress.Set(id)})
	s.record(telemetry.EventPackSelected, telemetry.EventMetadata{"packId": id})
}

// AddCardsToCollection appends the cards whose id is not yet collected and
// counts one opened pack, even when every card was a duplicate. It returns
// how many cards were added.
func (s *Store) AddCardsToCollection(cards []card.Card) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.progress.UserCollection)
	s.progress.UserCollection = card.AppendUnique(s.progress.UserCollection, card.CloneAll(cards))
	s.progress.TotalPacksOpened++
	added := len(s.progress.UserCollection) - before

	s.persist("addCardsToCollection", progress.Patch{
		UserCollection:   progress.Set(s.progress.UserCollection),
		TotalPacksOpened: progress.Set(s.progress.TotalPacksOpened),
	})
	s.record(telemetry.EventPackOpened, telemetry.EventMetadata{
		"offered": len(cards),
		"added":   added,
		"total":   s.progress.TotalPacksOpened,
	})
	return added
}

// ClearCollection empties the collection. The pack counter is untouched.
func (s *Store) ClearCollection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.UserCollection = []card.Card{}
	s.persist("clearCollection", progress.Patch{UserCollection: progress.Set([]card.Card{})})
	s.record(telemetry.EventCollectionCleared, nil)
}

// ResetProgress restores defaults in memory and erases the saved envelope.
func (s *Store) ResetProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = s.storage.DefaultProgress()
	s.rec.IncAction("resetProgress")
	if !s.storage.ClearState() {
		s.log.Warn("progress reset in memory but saved state was not erased")
	}
	s.record(telemetry.EventProgressReset, nil)
}

// RefreshFromStorage replaces the in-memory snapshot with what storage holds.
func (s *Store) RefreshFromStorage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = s.storage.LoadState().GameProgress.Clone()
	s.rec.IncAction("refreshFromStorage")
	s.record(telemetry.EventProgressRefreshed, nil)
}

// persist writes patch through to storage. Failures are logged, never returned.
func (s *Store) persist(action string, patch progress.Patch) {
	s.rec.IncAction(action)
	if !s.storage.UpdateGameProgress(patch) {
		s.log.Warn("progress not saved", "action", action)
	}
}

func (s *Store) record(t telemetry.EventType, md telemetry.EventMetadata) {
	if s.events == nil {
		return
	}
	if err := s.events.RecordEvent(t, md); err != nil {
		s.log.Debug("telemetry event dropped", "type", t, "error", err)
	}
}
