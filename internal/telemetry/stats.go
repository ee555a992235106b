package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period         string            `json:"period"`
	EventCounts    map[EventType]int `json:"event_counts"`
	PacksOpened    int               `json:"packs_opened"`
	CardsCollected int               `json:"cards_collected"`
	DuplicatePacks int               `json:"duplicate_packs"`
	Resets         int               `json:"resets"`
	ScreenVisits   map[string]int    `json:"screen_visits"`
}

// CalculateStats summarizes events recorded since the given time.
func CalculateStats(events []Event, since time.Time) Stats {
	stats := Stats{
		Period:       since.Format("2006-01-02"),
		EventCounts:  make(map[EventType]int),
		ScreenVisits: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}

		switch event.Type {
		case EventPackOpened:
			stats.PacksOpened++
			// JSON numbers decode as float64.
			if added, ok := metadata["added"].(float64); ok {
				stats.CardsCollected += int(added)
				if added == 0 {
					stats.DuplicatePacks++
				}
			}
		case EventProgressReset:
			stats.Resets++
		case EventScreenChanged:
			if screen, ok := metadata["screen"].(string); ok {
				stats.ScreenVisits[screen]++
			}
		}
	}

	return stats
}
