package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/cpassist-go/codeforces"
)

// ProfileSource fetches a live profile snapshot for a handle.
type ProfileSource interface {
	FetchProfile(ctx context.Context, handle string) (*codeforces.Snapshot, error)
}

// SnapshotStore persists fetched snapshots.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, userID int, handle string, snap *codeforces.Snapshot) (*codeforces.Profile, error)
}

// registration is one active refresh loop.
type registration struct {
	handle string
	cancel context.CancelFunc
}

// Scheduler runs one refresh loop per tracked user. Start for an already
// tracked user cancels the previous loop before starting the new one, so a
// user never has two loops at once. All state is guarded by mu.
type Scheduler struct {
	source      ProfileSource
	store       SnapshotStore
	broadcaster Broadcaster
	interval    time.Duration
	log         *zap.SugaredLogger

	mu      sync.Mutex
	tracked map[int]*registration
	wg      sync.WaitGroup
	closed  bool
}

// NewScheduler creates a scheduler. interval is the delay between refreshes
// for each tracked user.
func NewScheduler(source ProfileSource, store SnapshotStore, broadcaster Broadcaster, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		source:      source,
		store:       store,
		broadcaster: broadcaster,
		interval:    interval,
		log:         log,
		tracked:     make(map[int]*registration),
	}
}

// Start begins periodic refreshes for a user's handle. An existing loop for
// the same user is cancelled first.
func (s *Scheduler) Start(userID int, handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if existing, ok := s.tracked[userID]; ok {
		existing.cancel()
		delete(s.tracked, userID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.tracked[userID] = &registration{handle: handle, cancel: cancel}

	s.log.Infow("starting profile updates", "userId", userID, "handle", handle)

	s.wg.Add(1)
	go s.run(ctx, userID, handle)
}

// Stop cancels refreshes for a user. Stopping an untracked user is a no-op.
func (s *Scheduler) Stop(userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg, ok := s.tracked[userID]; ok {
		reg.cancel()
		delete(s.tracked, userID)
		s.log.Infow("stopped profile updates", "userId", userID)
	}
}

// Close cancels every loop and waits for them to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for userID, reg := range s.tracked {
		reg.cancel()
		delete(s.tracked, userID)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// run is the per-user refresh loop. The first refresh happens one interval
// after Start, matching the tick cadence. ctx only controls loop exit; each
// cycle runs on its own context so a Stop that lands mid-cycle lets the
// fetch, persist, and broadcast finish.
func (s *Scheduler) run(ctx context.Context, userID int, handle string) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(context.Background(), userID, handle)
		}
	}
}

// refresh performs one fetch, persist, broadcast cycle. Failures are logged
// and the loop keeps its cadence; a flaky upstream must not kill tracking.
func (s *Scheduler) refresh(ctx context.Context, userID int, handle string) {
	snapshot, err := s.source.FetchProfile(ctx, handle)
	if err != nil {
		s.log.Warnw("profile refresh failed", "userId", userID, "handle", handle, "error", err)
		return
	}

	profile, err := s.store.UpsertSnapshot(ctx, userID, handle, snapshot)
	if err != nil {
		s.log.Warnw("profile snapshot store failed", "userId", userID, "handle", handle, "error", err)
		return
	}

	s.broadcaster.Broadcast(NewProfileUpdate(userID, handle, profile))
}
