package session

import (
	"context"
	"testing"
)

func TestLockIfAbsent(t *testing.T) {
	state := newState()

	state.LockRootCause("Internal engine instability", "PRODDB01")
	state.LockRootCause("Memory pressure (SGA/PGA)", "PRODDB01")

	cause, ok := state.LockedRootCause("PRODDB01")
	if !ok || cause != "Internal engine instability" {
		t.Errorf("locked cause overwritten: got %q", cause)
	}
	cause, ok = state.LockedRootCause("")
	if !ok || cause != "Internal engine instability" {
		t.Errorf("session-wide lock lost: got %q", cause)
	}
}

func TestTrivialValuesNeverLock(t *testing.T) {
	state := newState()

	for _, trivial := range []string{"", "OTHER", "UNKNOWN", "Unknown", "N/A"} {
		state.LockRootCause(trivial, "DB1")
	}
	if _, ok := state.LockedRootCause("DB1"); ok {
		t.Error("trivial values must never take a lock")
	}

	state.LockRootCause("Storage / tablespace capacity exhaustion", "DB1")
	if cause, _ := state.LockedRootCause("DB1"); cause != "Storage / tablespace capacity exhaustion" {
		t.Errorf("real value should lock after trivial attempts, got %q", cause)
	}
}

func TestPerTargetLocks(t *testing.T) {
	state := newState()
	state.LockRootCause("Internal engine instability", "DB1")
	state.LockRootCause("Network / listener disruption", "DB2")

	if cause, _ := state.LockedRootCause("DB1"); cause != "Internal engine instability" {
		t.Errorf("DB1 lock = %q", cause)
	}
	if cause, _ := state.LockedRootCause("DB2"); cause != "Network / listener disruption" {
		t.Errorf("DB2 lock = %q", cause)
	}
	// Session-wide lock is the first one taken.
	if cause, _ := state.LockedRootCause("DB3"); cause != "Internal engine instability" {
		t.Errorf("fallback lock = %q", cause)
	}
}

func TestPeakHourAndHighestRisk(t *testing.T) {
	state := newState()

	state.LockPeakHour(19)
	state.LockPeakHour(3)
	if hour, ok := state.LockedPeakHour(); !ok || hour != 19 {
		t.Errorf("peak hour = %d, want 19", hour)
	}

	state.LockPeakHour(-1)
	state.LockPeakHour(24)
	if hour, _ := state.LockedPeakHour(); hour != 19 {
		t.Error("out-of-range hours must be ignored")
	}

	state.LockHighestRisk("PRODDB01")
	state.LockHighestRisk("OTHERDB")
	if target, _ := state.LockedHighestRisk(); target != "PRODDB01" {
		t.Errorf("highest risk = %q, want PRODDB01", target)
	}
}

func TestDominantCausesBounded(t *testing.T) {
	state := newState()
	for _, c := range []string{"a", "b", "c", "d", "e", "f", "b"} {
		state.AddDominantCause(c)
	}

	causes := state.DominantCauses()
	if len(causes) != 5 {
		t.Fatalf("dominant causes = %v, want 5 entries", causes)
	}
	if causes[0] != "b" {
		t.Errorf("most recent cause should lead, got %v", causes)
	}
}

func TestStoreIsolationAndReset(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, nil)

	a := store.Get(ctx, "session-a")
	b := store.Get(ctx, "session-b")
	a.LockRootCause("Internal engine instability", "")

	if _, ok := b.LockedRootCause(""); ok {
		t.Error("sessions must be isolated")
	}
	if store.Get(ctx, "session-a") != a {
		t.Error("Get must return the same State for a session")
	}

	store.Reset(ctx, "session-a")
	fresh := store.Get(ctx, "session-a")
	if _, ok := fresh.LockedRootCause(""); ok {
		t.Error("reset must clear locked state")
	}
}

type fakeSnapshotter struct {
	saved   map[string]Snapshot
	deleted []string
}

func (f *fakeSnapshotter) Save(_ context.Context, id string, snap Snapshot) error {
	if f.saved == nil {
		f.saved = make(map[string]Snapshot)
	}
	f.saved[id] = snap
	return nil
}

func (f *fakeSnapshotter) Load(_ context.Context, id string) (Snapshot, bool, error) {
	snap, ok := f.saved[id]
	return snap, ok, nil
}

func (f *fakeSnapshotter) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.saved, id)
	return nil
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnapshotter{}

	store := NewStore(snaps, nil)
	state := store.Get(ctx, "s1")
	state.LockRootCause("Internal engine instability", "DB1")
	state.LockPeakHour(19)
	state.AddDominantCause("Internal engine instability")
	store.Persist(ctx, "s1")

	// A second store (fresh process) sees the persisted locks.
	rehydrated := NewStore(snaps, nil).Get(ctx, "s1")
	if cause, _ := rehydrated.LockedRootCause("DB1"); cause != "Internal engine instability" {
		t.Errorf("rehydrated cause = %q", cause)
	}
	if hour, ok := rehydrated.LockedPeakHour(); !ok || hour != 19 {
		t.Errorf("rehydrated peak hour = %d", hour)
	}

	store.Reset(ctx, "s1")
	if len(snaps.deleted) != 1 {
		t.Error("reset must delete the persisted snapshot")
	}
}
