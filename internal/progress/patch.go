package progress

import (
	"time"

	"catbattle/internal/card"
)

// Field is one optional member of a Patch. The zero value leaves the
// target untouched.
type Field[T any] struct {
	Set   bool
	Value T
}

func Set[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f Field[T]) apply(dst *T) {
	if f.Set {
		*dst = f.Value
	}
}

// Patch is a partial GameProgress: only the fields marked Set are applied.
type Patch struct {
	HasSeenInstructions  Field[bool]
	HasCompletedTutorial Field[bool]
	CurrentScreen        Field[Screen]
	HasOpenedFirstPack   Field[bool]
	SelectedPackID       Field[*int]
	UserCollection       Field[[]card.Card]
	TotalPacksOpened     Field[int]
	LastPlayedAt         Field[time.Time]
}

// Apply overlays the set fields of p onto a copy of base.
func (p Patch) Apply(base GameProgress) GameProgress {
	out := base.Clone()
	p.HasSeenInstructions.apply(&out.HasSeenInstructions)
	p.HasCompletedTutorial.apply(&out.HasCompletedTutorial)
	p.CurrentScreen.apply(&out.CurrentScreen)
	p.HasOpenedFirstPack.apply(&out.HasOpenedFirstPack)
	if p.SelectedPackID.Set {
		out.SelectedPackID = nil
		if p.SelectedPackID.Value != nil {
			id := *p.SelectedPackID.Value
			out.SelectedPackID = &id
		}
	}
	if p.UserCollection.Set {
		out.UserCollection = card.CloneAll(p.UserCollection.Value)
	}
	p.TotalPacksOpened.apply(&out.TotalPacksOpened)
	p.LastPlayedAt.apply(&out.LastPlayedAt)
	return out
}

// Fields lists the JSON names of the set fields, for logging.
func (p Patch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.HasSeenInstructions.Set, "hasSeenInstructions")
	add(p.HasCompletedTutorial.Set, "hasCompletedTutorial")
	add(p.CurrentScreen.Set, "currentScreen")
	add(p.HasOpenedFirstPack.Set, "hasOpenedFirstPack")
	add(p.SelectedPackID.Set, "selectedPackId")
	add(p.UserCollection.Set, "userCollection")
	add(p.TotalPacksOpened.Set, "totalPacksOpened")
	add(p.LastPlayedAt.Set, "lastPlayedAt")
	return out
}
