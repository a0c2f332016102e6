package engine

import (
	"strconv"
	"strings"

	"ledgerbot/internal/core"
)

// Session is the per-user scratch state for an in-progress multi-step flow.
// It is owned by exactly one conversation and never shared, so it carries no
// locking. It is never persisted.
type Session struct {
	State State

	// Pending fields of the add-operation flow, filled step by step and
	// cleared on completion or cancellation.
	PendingKind     core.Kind
	PendingCategory string
	PendingCurrency string

	// DisplayedIDs maps the 1-based ordinals of the most recently rendered
	// history listing to operation ids. Replaced wholesale on every render so
	// stale ordinals can never resolve against a newer listing.
	DisplayedIDs []int64

	// EditTargetID is the operation picked for an amount edit, valid only
	// inside the edit sub-flow.
	EditTargetID int64
}

// NewSession returns a session positioned at the main menu.
func NewSession() *Session {
	return &Session{State: StateMainMenu}
}

// Reset clears all in-progress data. The state itself is set by the caller.
func (s *Session) Reset() {
	s.PendingKind = ""
	s.PendingCategory = ""
	s.PendingCurrency = ""
	s.DisplayedIDs = nil
	s.EditTargetID = 0
}

// SetListing replaces the ordinal mapping with the ids of a freshly rendered
// listing, invalidating any previous one.
func (s *Session) SetListing(ids []int64) {
	s.DisplayedIDs = append([]int64(nil), ids...)
}

// ResolveOrdinal resolves user input as a 1-based position in the last
// rendered listing. Non-integer text and out-of-range positions are rejected.
func (s *Session) ResolveOrdinal(text string) (int64, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	if n < 1 || n > len(s.DisplayedIDs) {
		return 0, false
	}
	return s.DisplayedIDs[n-1], true
}
