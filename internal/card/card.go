package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Rarity is the catalog's rarity tag. The catalog owns the set of values;
// nothing here rejects an unknown tag.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Card is a collected card. Only ID and Rarity are interpreted; every other
// field the catalog sends is kept in Extra and written back unchanged.
type Card struct {
	ID     ID
	Rarity Rarity
	Extra  map[string]json.RawMessage
}

var ErrMissingID = errors.New("card id is required")

func (c Card) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.ID == "" {
		return nil, ErrMissingID
	}
	rarity, err := json.Marshal(string(c.Rarity))
	if err != nil {
		return nil, err
	}
	out["id"] = json.RawMessage(c.ID)
	out["rarity"] = rarity
	return json.Marshal(out)
}

func (c *Card) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("card must be an object")
	}

	rawID, ok := fields["id"]
	if !ok || isNull(rawID) {
		return ErrMissingID
	}
	id, err := ParseID(rawID)
	if err != nil {
		return fmt.Errorf("card id: %w", err)
	}

	var rarity string
	if raw, ok := fields["rarity"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &rarity); err != nil {
			return fmt.Errorf("card rarity: %w", err)
		}
	}

	delete(fields, "id")
	delete(fields, "rarity")

	var extra map[string]json.RawMessage
	if len(fields) > 0 {
		extra = make(map[string]json.RawMessage, len(fields))
		for k, v := range fields {
			var buf bytes.Buffer
			if err := json.Compact(&buf, v); err != nil {
				return fmt.Errorf("card field %q: %w", k, err)
			}
			extra[k] = json.RawMessage(buf.Bytes())
		}
	}

	*c = Card{ID: id, Rarity: Rarity(rarity), Extra: extra}
	return nil
}

// Clone returns a copy that shares no map with c.
func (c Card) Clone() Card {
	out := Card{ID: c.ID, Rarity: c.Rarity}
	if c.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func CloneAll(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = c.Clone()
	}
	return out
}

// FilterByRarity returns the cards tagged r, in their original order.
func FilterByRarity(cards []Card, r Rarity) []Card {
	out := make([]Card, 0)
	for _, c := range cards {
		if c.Rarity == r {
			out = append(out, c.Clone())
		}
	}
	return out
}

// AppendUnique appends the cards from add whose id is not already in have.
// The first occurrence of an id wins, including duplicates inside add.
func AppendUnique(have, add []Card) []Card {
	seen := make(map[ID]bool, len(have)+len(add))
	out := make([]Card, 0, len(have)+len(add))
	for _, c := range have {
		seen[c.ID] = true
		out = append(out, c)
	}
	for _, c := range add {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
