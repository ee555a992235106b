package telemetry

import "time"

type EventType string

const (
	EventInstructionsSeen  EventType = "instructions_seen"
	EventTutorialCompleted EventType = "tutorial_completed"
	EventScreenChanged     EventType = "screen_changed"
	EventFirstPackOpened   EventType = "first_pack_opened"
	EventPackSelected      EventType = "pack_selected"
	EventPackOpened        EventType = "pack_opened"
	EventCollectionCleared EventType = "collection_cleared"
	EventProgressReset     EventType = "progress_reset"
	EventProgressRefreshed EventType = "progress_refreshed"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]any
