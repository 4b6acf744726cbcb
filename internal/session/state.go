// Package session holds the only cross-question mutable state in the
// engine: per-session locked findings that keep answers consistent within a
// conversation.
package session

import "sync"

const maxDominantCauses = 5

// trivial values never take a lock.
var trivialValues = map[string]struct{}{
	"":        {},
	"OTHER":   {},
	"UNKNOWN": {},
	"Unknown": {},
	"N/A":     {},
}

// State is the session-scoped memory for one conversation. All lock fields
// follow set-if-absent semantics: the first non-trivial value persists until
// an explicit reset.
type State struct {
	mu sync.Mutex

	rootCause         string
	rootCauseByTarget map[string]string
	peakHour          int
	peakHourSet       bool
	highestRisk       string
	dominantCauses    []string
	questions         int
}

func newState() *State {
	return &State{rootCauseByTarget: make(map[string]string)}
}

// setIfAbsent is the single compare-and-set helper behind every lock field.
// It returns true when the value was installed.
func setIfAbsent(slot *string, value string) bool {
	if *slot != "" {
		return false
	}
	if _, trivial := trivialValues[value]; trivial {
		return false
	}
	*slot = value
	return true
}

// LockRootCause locks the session-wide root cause, and the per-target one
// when target is non-empty. Trivial values never lock.
func (s *State) LockRootCause(cause, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setIfAbsent(&s.rootCause, cause)
	if target != "" {
		existing := s.rootCauseByTarget[target]
		if setIfAbsent(&existing, cause) {
			s.rootCauseByTarget[target] = existing
		}
	}
}

// LockedRootCause returns the locked cause for the target when present,
// falling back to the session-wide lock.
func (s *State) LockedRootCause(target string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if target != "" {
		if cause, ok := s.rootCauseByTarget[target]; ok {
			return cause, true
		}
	}
	if s.rootCause != "" {
		return s.rootCause, true
	}
	return "", false
}

// LockPeakHour locks the session's peak alert hour.
func (s *State) LockPeakHour(hour int) {
	if hour < 0 || hour > 23 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.peakHourSet {
		s.peakHour = hour
		s.peakHourSet = true
	}
}

// LockedPeakHour returns the locked peak hour.
func (s *State) LockedPeakHour() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peakHour, s.peakHourSet
}

// LockHighestRisk locks the highest-risk target for the session.
func (s *State) LockHighestRisk(target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setIfAbsent(&s.highestRisk, target)
}

// LockedHighestRisk returns the locked highest-risk target.
func (s *State) LockedHighestRisk() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highestRisk, s.highestRisk != ""
}

// AddDominantCause tracks an abstract cause in MRU order, bounded at five.
// Unlike the lock fields this list may reorder, but never grows past its cap.
func (s *State) AddDominantCause(cause string) {
	if _, trivial := trivialValues[cause]; trivial {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]string, 0, maxDominantCauses)
	kept = append(kept, cause)
	for _, existing := range s.dominantCauses {
		if existing != cause && len(kept) < maxDominantCauses {
			kept = append(kept, existing)
		}
	}
	s.dominantCauses = kept
}

// DominantCauses returns the tracked causes, most recent first.
func (s *State) DominantCauses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dominantCauses...)
}

// RecordQuestion bumps the per-session question counter.
func (s *State) RecordQuestion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions++
	return s.questions
}

// Questions returns the number of questions seen this session.
func (s *State) Questions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

func (s *State) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTarget := make(map[string]string, len(s.rootCauseByTarget))
	for k, v := range s.rootCauseByTarget {
		byTarget[k] = v
	}
	return Snapshot{
		RootCause:         s.rootCause,
		RootCauseByTarget: byTarget,
		PeakHour:          s.peakHour,
		PeakHourSet:       s.peakHourSet,
		HighestRisk:       s.highestRisk,
		DominantCauses:    append([]string(nil), s.dominantCauses...),
		Questions:         s.questions,
	}
}

func (s *State) restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rootCause = snap.RootCause
	s.rootCauseByTarget = make(map[string]string, len(snap.RootCauseByTarget))
	for k, v := range snap.RootCauseByTarget {
		s.rootCauseByTarget[k] = v
	}
	s.peakHour = snap.PeakHour
	s.peakHourSet = snap.PeakHourSet
	s.highestRisk = snap.HighestRisk
	s.dominantCauses = append([]string(nil), snap.DominantCauses...)
	s.questions = snap.Questions
}
