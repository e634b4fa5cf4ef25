package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/codeforces"
)

// fakeSource counts fetches per handle and can be told to fail.
type fakeSource struct {
	mu      sync.Mutex
	fetches map[string]int
	fail    bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{fetches: make(map[string]int)}
}

func (f *fakeSource) FetchProfile(ctx context.Context, handle string) (*codeforces.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("upstream down")
	}
	f.fetches[handle]++
	return &codeforces.Snapshot{
		Rating:         1500,
		MaxRating:      1600,
		Rank:           "expert",
		ProblemsSolved: 120,
	}, nil
}

func (f *fakeSource) count(handle string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[handle]
}

func (f *fakeSource) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

type fakeStore struct {
	mu      sync.Mutex
	upserts int
	last    *codeforces.Snapshot
}

func (f *fakeStore) UpsertSnapshot(ctx context.Context, userID int, handle string, snap *codeforces.Snapshot) (*codeforces.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.last = snap
	return &codeforces.Profile{
		UserID:         userID,
		Handle:         handle,
		Rating:         &snap.Rating,
		MaxRating:      &snap.MaxRating,
		Rank:           &snap.Rank,
		ProblemsSolved: &snap.ProblemsSolved,
	}, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (f *fakeBroadcaster) Broadcast(payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newTestScheduler(source *fakeSource, store *fakeStore, b *fakeBroadcaster) *Scheduler {
	return NewScheduler(source, store, b, 10*time.Millisecond, zap.NewNop().Sugar())
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSchedulerRefreshCycle(t *testing.T) {
	source := newFakeSource()
	store := &fakeStore{}
	b := &fakeBroadcaster{}
	s := newTestScheduler(source, store, b)
	defer s.Close()

	s.Start(1, "tourist")

	waitFor(t, func() bool { return source.count("tourist") >= 2 }, "expected repeated fetches")
	waitFor(t, func() bool { return store.count() >= 2 }, "expected snapshots stored")
	waitFor(t, func() bool { return b.count() >= 2 }, "expected broadcasts")

	// The stored snapshot is exactly what the source returned.
	store.mu.Lock()
	assert.Equal(t, &codeforces.Snapshot{
		Rating:         1500,
		MaxRating:      1600,
		Rank:           "expert",
		ProblemsSolved: 120,
	}, store.last)
	store.mu.Unlock()

	b.mu.Lock()
	update, ok := b.payloads[0].(ProfileUpdate)
	b.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, TypeProfileUpdate, update.Type)
	assert.Equal(t, 1, update.UserID)
	assert.Equal(t, "tourist", update.Handle)
	assert.NotEmpty(t, update.Timestamp)

	profile, ok := update.Data.(*codeforces.Profile)
	require.True(t, ok)
	require.NotNil(t, profile.Rating)
	assert.Equal(t, 1500, *profile.Rating)
}

func TestSchedulerStartReplacesExistingLoop(t *testing.T) {
	source := newFakeSource()
	s := newTestScheduler(source, &fakeStore{}, &fakeBroadcaster{})
	defer s.Close()

	s.Start(1, "alice")
	waitFor(t, func() bool { return source.count("alice") >= 1 }, "expected first loop to run")

	// Same user switches handles; the old loop must stop fetching.
	s.Start(1, "bob")
	waitFor(t, func() bool { return source.count("bob") >= 1 }, "expected second loop to run")

	frozen := source.count("alice")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, source.count("alice"), "old loop kept fetching after restart")
}

func TestSchedulerStop(t *testing.T) {
	source := newFakeSource()
	s := newTestScheduler(source, &fakeStore{}, &fakeBroadcaster{})
	defer s.Close()

	s.Start(1, "alice")
	waitFor(t, func() bool { return source.count("alice") >= 1 }, "expected loop to run")

	s.Stop(1)
	frozen := source.count("alice")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozen, source.count("alice"), "loop kept fetching after Stop")

	// Stopping again, or stopping an unknown user, is a no-op.
	s.Stop(1)
	s.Stop(99)
}

func TestSchedulerSurvivesFetchFailures(t *testing.T) {
	source := newFakeSource()
	store := &fakeStore{}
	b := &fakeBroadcaster{}
	s := newTestScheduler(source, store, b)
	defer s.Close()

	source.setFail(true)
	s.Start(1, "alice")

	// Failing ticks store and broadcast nothing.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.count())
	assert.Equal(t, 0, b.count())

	// Once the upstream recovers the same loop picks up again.
	source.setFail(false)
	waitFor(t, func() bool { return b.count() >= 1 }, "expected broadcasts after recovery")
}

// gatedSource blocks each fetch until released, so a test can hold a cycle
// in flight while it does something else.
type gatedSource struct {
	started     chan struct{}
	release     chan struct{}
	releaseOnce sync.Once
}

func newGatedSource() *gatedSource {
	return &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSource) FetchProfile(ctx context.Context, handle string) (*codeforces.Snapshot, error) {
	g.started <- struct{}{}
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &codeforces.Snapshot{
		Rating:         1500,
		MaxRating:      1600,
		Rank:           "expert",
		ProblemsSolved: 120,
	}, nil
}

func (g *gatedSource) unblock() {
	g.releaseOnce.Do(func() { close(g.release) })
}

func TestSchedulerStopLetsInFlightCycleFinish(t *testing.T) {
	source := newGatedSource()
	store := &fakeStore{}
	b := &fakeBroadcaster{}
	s := NewScheduler(source, store, b, 10*time.Millisecond, zap.NewNop().Sugar())
	defer s.Close()
	defer source.unblock()

	s.Start(1, "alice")
	<-source.started

	// Stop lands while the fetch is blocked. The cycle already under way must
	// still persist and broadcast once it completes.
	s.Stop(1)
	source.unblock()

	waitFor(t, func() bool { return store.count() == 1 }, "expected in-flight cycle to persist")
	waitFor(t, func() bool { return b.count() == 1 }, "expected in-flight cycle to broadcast")

	// The loop itself is gone; no new cycle starts.
	select {
	case <-source.started:
		t.Fatal("loop kept fetching after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerCloseStopsEverything(t *testing.T) {
	source := newFakeSource()
	s := newTestScheduler(source, &fakeStore{}, &fakeBroadcaster{})

	s.Start(1, "alice")
	s.Start(2, "bob")
	waitFor(t, func() bool { return source.count("alice") >= 1 && source.count("bob") >= 1 }, "expected both loops to run")

	s.Close()
	frozenA, frozenB := source.count("alice"), source.count("bob")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, frozenA, source.count("alice"))
	assert.Equal(t, frozenB, source.count("bob"))

	// Start after Close is ignored.
	s.Start(3, "carol")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, source.count("carol"))
}
