package storage

import (
	"bytes"
	"encoding/json"
	"time"

	"catbattle/internal/card"
	"catbattle/internal/progress"
)

// ValidateAndMigrate turns arbitrary saved JSON into a usable envelope.
//
// Anything that is not an object with an object-valued "gameProgress" yields
// the default envelope. Otherwise each known field is read on its own and
// falls back to its default when absent or of the wrong type, so saves from
// older builds are back-filled and unknown fields are dropped. The second
// result reports whether anything had to be repaired.
func ValidateAndMigrate(raw []byte, now time.Time) (progress.StorageState, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		return progress.DefaultState(now), true
	}

	var fields map[string]json.RawMessage
	gp, ok := top["gameProgress"]
	if !ok {
		return progress.DefaultState(now), true
	}
	if err := json.Unmarshal(gp, &fields); err != nil || fields == nil {
		return progress.DefaultState(now), true
	}

	m := migrator{fields: fields}
	out := progress.Default(now)

	m.readBool("hasSeenInstructions", &out.HasSeenInstructions)
	m.readBool("hasCompletedTutorial", &out.HasCompletedTutorial)
	m.readBool("hasOpenedFirstPack", &out.HasOpenedFirstPack)
	m.readScreen(&out.CurrentScreen)
	m.readSelectedPack(&out.SelectedPackID)
	m.readCollection(&out.UserCollection)
	m.readCounter("totalPacksOpened", &out.TotalPacksOpened)
	m.readTime("lastPlayedAt", &out.LastPlayedAt)

	version := progress.DefaultVersion
	if rv, ok := top["version"]; ok {
		var v string
		if err := json.Unmarshal(rv, &v); err == nil && v != "" {
			version = v
		} else {
			m.repaired = true
		}
	} else {
		m.repaired = true
	}

	return progress.StorageState{GameProgress: out, Version: version}, m.repaired
}

type migrator struct {
	fields   map[string]json.RawMessage
	repaired bool
}

// lookup returns the raw field, marking the result repaired when it is absent.
func (m *migrator) lookup(name string) (json.RawMessage, bool) {
	raw, ok := m.fields[name]
	if !ok {
		m.repaired = true
		return nil, false
	}
	return raw, true
}

func (m *migrator) readBool(name string, dst *bool) {
	raw, ok := m.lookup(name)
	if !ok {
		return
	}
	var v bool
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		m.repaired = true
		return
	}
	*dst = v
}

func (m *migrator) readScreen(dst *progress.Screen) {
	raw, ok := m.lookup("currentScreen")
	if !ok {
		return
	}
	var s progress.Screen
	if json.Unmarshal(raw, &s) != nil || !s.Valid() {
		m.repaired = true
		*dst = progress.ScreenInstructions
		return
	}
	*dst = s
}

func (m *migrator) readSelectedPack(dst **int) {
	raw, ok := m.lookup("selectedPackId")
	if !ok || isNull(raw) {
		return
	}
	var id int
	if json.Unmarshal(raw, &id) != nil {
		m.repaired = true
		return
	}
	*dst = &id
}

func (m *migrator) readCollection(dst *[]card.Card) {
	raw, ok := m.lookup("userCollection")
	if !ok {
		return
	}
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		m.repaired = true
		*dst = []card.Card{}
		return
	}

	cards := make([]card.Card, 0, len(items))
	for _, item := range items {
		var c card.Card
		if err := json.Unmarshal(item, &c); err != nil {
			m.repaired = true
			continue
		}
		cards = append(cards, c)
	}
	unique := card.AppendUnique(nil, cards)
	if len(unique) != len(cards) {
		m.repaired = true
	}
	*dst = unique
}

func (m *migrator) readCounter(name string, dst *int) {
	raw, ok := m.lookup(name)
	if !ok {
		return
	}
	var n int
	if isNull(raw) || json.Unmarshal(raw, &n) != nil || n < 0 {
		m.repaired = true
		return
	}
	*dst = n
}

func (m *migrator) readTime(name string, dst *time.Time) {
	raw, ok := m.lookup(name)
	if !ok {
		return
	}
	var t time.Time
	if isNull(raw) || json.Unmarshal(raw, &t) != nil {
		m.repaired = true
		return
	}
	*dst = t.UTC()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
