package progress

import (
	"time"

	"catbattle/internal/card"
)

// DefaultVersion tags envelopes that carry no usable version.
const DefaultVersion = "1.0.0"

// Screen is the onboarding screen the player is on.
type Screen string

const (
	ScreenInstructions  Screen = "instructions"
	ScreenPackSelection Screen = "pack-selection"
	ScreenTutorial      Screen = "tutorial"
	ScreenBattle        Screen = "battle"
)

var Screens = []Screen{ScreenInstructions, ScreenPackSelection, ScreenTutorial, ScreenBattle}

func (s Screen) Valid() bool {
	switch s {
	case ScreenInstructions, ScreenPackSelection, ScreenTutorial, ScreenBattle:
		return true
	}
	return false
}

// GameProgress is the persisted player progress.
type GameProgress struct {
	HasSeenInstructions  bool        `json:"hasSeenInstructions"`
	HasCompletedTutorial bool        `json:"hasCompletedTutorial"`
	CurrentScreen        Screen      `json:"currentScreen"`
	HasOpenedFirstPack   bool        `json:"hasOpenedFirstPack"`
	SelectedPackID       *int        `json:"selectedPackId"`
	UserCollection       []card.Card `json:"userCollection"`
	TotalPacksOpened     int         `json:"totalPacksOpened"`
	LastPlayedAt         time.Time   `json:"lastPlayedAt"`
}

// StorageState is the envelope written under the storage key.
type StorageState struct {
	GameProgress GameProgress `json:"gameProgress"`
	Version      string       `json:"version"`
}

func Default(now time.Time) GameProgress {
	return GameProgress{
		CurrentScreen:  ScreenInstructions,
		UserCollection: []card.Card{},
		LastPlayedAt:   now,
	}
}

func DefaultState(now time.Time) StorageState {
	return StorageState{
		GameProgress: Default(now),
		Version:      DefaultVersion,
	}
}

// Clone returns a copy sharing no slices, maps or pointers with p.
func (p GameProgress) Clone() GameProgress {
	out := p
	if p.SelectedPackID != nil {
		id := *p.SelectedPackID
		out.SelectedPackID = &id
	}
	out.UserCollection = card.CloneAll(p.UserCollection)
	return out
}
