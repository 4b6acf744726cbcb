package session

import (
	"context"
	"log/slog"
	"sync"
)

// Snapshot is the serializable form of a session State, used by the
// snapshotter backends.
type Snapshot struct {
	RootCause         string            `json:"root_cause"`
	RootCauseByTarget map[string]string `json:"root_cause_by_target"`
	PeakHour          int               `json:"peak_hour"`
	PeakHourSet       bool              `json:"peak_hour_set"`
	HighestRisk       string            `json:"highest_risk"`
	DominantCauses    []string          `json:"dominant_causes"`
	Questions         int               `json:"questions"`
}

// Snapshotter persists session snapshots across process restarts. Failures
// are non-fatal: sessions degrade to in-memory only.
type Snapshotter interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Store isolates State per session id. Concurrent sessions need no
// cross-session coordination; each State carries its own lock.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*State
	snapshotter Snapshotter
	logger      *slog.Logger
}

// NewStore constructs a Store. snapshotter may be nil for pure in-memory
// operation.
func NewStore(snapshotter Snapshotter, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions:    make(map[string]*State),
		snapshotter: snapshotter,
		logger:      logger,
	}
}

// Get returns the State for the session, creating it on first use. A
// persisted snapshot, when available, seeds the new State.
func (st *Store) Get(ctx context.Context, sessionID string) *State {
	st.mu.RLock()
	state, ok := st.sessions[sessionID]
	st.mu.RUnlock()
	if ok {
		return state
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if state, ok = st.sessions[sessionID]; ok {
		return state
	}

	state = newState()
	if st.snapshotter != nil {
		snap, found, err := st.snapshotter.Load(ctx, sessionID)
		if err != nil {
			st.logger.Warn("session snapshot load failed", slog.String("session_id", sessionID), slog.Any("error", err))
		} else if found {
			state.restore(snap)
		}
	}
	st.sessions[sessionID] = state
	return state
}

// Persist writes the session's snapshot through the snapshotter, swallowing
// failures.
func (st *Store) Persist(ctx context.Context, sessionID string) {
	if st.snapshotter == nil {
		return
	}
	st.mu.RLock()
	state, ok := st.sessions[sessionID]
	st.mu.RUnlock()
	if !ok {
		return
	}
	if err := st.snapshotter.Save(ctx, sessionID, state.snapshot()); err != nil {
		st.logger.Warn("session snapshot save failed", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

// Reset discards all locked state for the session. Used on the explicit
// new-conversation signal; sessions are never reset implicitly.
func (st *Store) Reset(ctx context.Context, sessionID string) {
	st.mu.Lock()
	delete(st.sessions, sessionID)
	st.mu.Unlock()

	if st.snapshotter != nil {
		if err := st.snapshotter.Delete(ctx, sessionID); err != nil {
			st.logger.Warn("session snapshot delete failed", slog.String("session_id", sessionID), slog.Any("error", err))
		}
	}
}

// Active returns the number of sessions currently held in memory.
func (st *Store) Active() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
