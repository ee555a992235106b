package game

import (
	"catbattle/internal/progress"
	"catbattle/internal/telemetry"
)

// IsFirstPackClaimed reports whether the free starter pack was opened.
func (s *Store) IsFirstPackClaimed() bool {
	return s.HasOpenedFirstPack()
}

// ClaimFirstPack marks the starter pack as opened. It reports false when it
// was already claimed, leaving storage untouched.
func (s *Store) ClaimFirstPack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.HasOpenedFirstPack {
		return false
	}
	s.progress.HasOpenedFirstPack = true
	s.persist("claimFirstPack", progress.Patch{HasOpenedFirstPack: progress.Set(true)})
	s.record(telemetry.EventFirstPackOpened, telemetry.EventMetadata{"opened": true, "claimed": true})
	return true
}
