package gathering

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourneysync/internal/manager"
	"tourneysync/internal/model"
)

// fakePersister is an in-memory stand-in for MongoPersister, good enough to
// drive Hall's cold-load/idle-persist contract without a real database.
type fakePersister struct {
	mu    sync.Mutex
	saved map[model.TournamentID]*manager.Manager
}

func newFakePersister() *fakePersister {
	return &fakePersister{saved: make(map[model.TournamentID]*manager.Manager)}
}

func (f *fakePersister) Save(_ context.Context, id model.TournamentID, mgr *manager.Manager) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[id] = mgr
	return nil
}

func (f *fakePersister) Load(_ context.Context, id model.TournamentID) (*manager.Manager, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mgr, ok := f.saved[id]
	return mgr, ok, nil
}

func (f *fakePersister) List(context.Context, int, int) ([]Summary, error) {
	return nil, nil
}

func (f *fakePersister) Import(_ context.Context, id model.TournamentID, mgr *manager.Manager) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.saved[id]; exists {
		return false, nil
	}
	f.saved[id] = mgr
	return true, nil
}

func (f *fakePersister) get(id model.TournamentID) (*manager.Manager, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mgr, ok := f.saved[id]
	return mgr, ok
}

func newID() model.TournamentID  { return model.IDFrom[model.TournamentTag](uuid.New()) }
func newOwner() model.AccountID  { return model.IDFrom[model.AccountTag](uuid.New()) }

func createTournament(t *testing.T, g *Gathering, owner model.AccountID) {
	t.Helper()
	require.NoError(t, g.ProcessOp(owner, model.Operation{
		Kind: model.OpCreate,
		Seed: model.TournamentSeed{Name: "Actor Cup", Format: model.FormatSwiss},
	}))
}

func TestGetGatheringSpawnsThenReusesSameActor(t *testing.T) {
	persist := newFakePersister()
	hall := NewHall(persist, time.Hour)
	id := newID()
	owner := newOwner()

	g := hall.NewGathering(id, owner)
	createTournament(t, g, owner)

	got, ok := hall.GetGathering(context.Background(), id)
	require.True(t, ok)
	assert.Same(t, g, got, "a live actor must be returned as-is, not re-spawned")
}

func TestGetGatheringColdLoadsFromPersister(t *testing.T) {
	persist := newFakePersister()
	owner := newOwner()
	id := newID()
	mgr := manager.New(id, owner)
	persist.saved[id] = mgr

	hall := NewHall(persist, time.Hour)
	g, ok := hall.GetGathering(context.Background(), id)
	require.True(t, ok)
	assert.Equal(t, owner, g.GetManager().Log.Owner)
}

func TestGetGatheringUnknownIDNotFound(t *testing.T) {
	hall := NewHall(newFakePersister(), time.Hour)
	_, ok := hall.GetGathering(context.Background(), newID())
	assert.False(t, ok)
}

// An idle Gathering must persist its final manager through the Hall's
// Persister and remove itself from the registry, so a subsequent
// GetGathering cold-loads rather than reusing a stale pointer.
func TestIdleGatheringPersistsAndDeregisters(t *testing.T) {
	persist := newFakePersister()
	hall := NewHall(persist, 20*time.Millisecond)
	id := newID()
	owner := newOwner()

	g := hall.NewGathering(id, owner)
	createTournament(t, g, owner)

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("gathering did not idle out in time")
	}

	saved, ok := persist.get(id)
	require.True(t, ok)
	assert.Equal(t, "Actor Cup", saved.Tourn.Name)

	reloaded, ok := hall.GetGathering(context.Background(), id)
	require.True(t, ok)
	assert.NotSame(t, g, reloaded, "a dead actor must be replaced by a freshly spawned one")
}

// The idle-token race: GetGathering lookups keep landing while the actor's
// idle timer may expire. This only checks that concurrent touches racing
// the idle exit neither panic nor deadlock; it does not check which actor
// the Hall keeps.
func TestIdleTokenRaceConcurrentTouchesDoNotDeadlock(t *testing.T) {
	persist := newFakePersister()
	hall := NewHall(persist, 30*time.Millisecond)
	id := newID()
	owner := newOwner()

	g := hall.NewGathering(id, owner)
	createTournament(t, g, owner)

	// Repeatedly touch the entry to simulate concurrent access racing the
	// idle timer; as long as at least one touch lands after the run loop
	// reads the timer expiry but before onIdle's token comparison, the
	// entry survives its own exit. We simply assert the mechanism exists
	// and doesn't panic/deadlock under concurrent touch + idle exit.
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(200 * time.Millisecond)
		for time.Now().Before(deadline) {
			hall.GetGathering(context.Background(), id)
			time.Sleep(time.Millisecond)
		}
	}()
	<-done
}

func TestProcessOpBroadcastsOnSuccessOnly(t *testing.T) {
	persist := newFakePersister()
	hall := NewHall(persist, time.Hour)
	id := newID()
	owner := newOwner()
	g := hall.NewGathering(id, owner)

	sink := &recordingSink{}
	g.Subscribe(owner, sink)

	require.NoError(t, g.ProcessOp(owner, model.Operation{
		Kind: model.OpCreate,
		Seed: model.TournamentSeed{Name: "Broadcast Cup", Format: model.FormatSwiss},
	}))

	err := g.ProcessOp(newOwner(), model.Operation{Kind: model.OpStart})
	require.Error(t, err)

	require.NoError(t, g.ProcessOp(owner, model.Operation{Kind: model.OpStart}))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, 2, len(sink.received), "only the two successful ops should broadcast")
}

// A subscriber sink that errors must be logged and skipped, never allowed
// to block or crash the actor's broadcast loop.
func TestBroadcastSkipsFailingSink(t *testing.T) {
	persist := newFakePersister()
	hall := NewHall(persist, time.Hour)
	id := newID()
	owner := newOwner()
	g := hall.NewGathering(id, owner)

	failing := &erroringSink{}
	ok := &recordingSink{}
	g.Subscribe(owner, failing)
	g.Subscribe(owner, ok)

	require.NoError(t, g.ProcessOp(owner, model.Operation{
		Kind: model.OpCreate,
		Seed: model.TournamentSeed{Name: "Resilient Cup", Format: model.FormatSwiss},
	}))

	ok.mu.Lock()
	defer ok.mu.Unlock()
	assert.Len(t, ok.received, 1)
}

type recordingSink struct {
	mu       sync.Mutex
	received []interface{}
}

func (s *recordingSink) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, v)
	return nil
}

type erroringSink struct{}

func (s *erroringSink) Send(interface{}) error {
	return errors.New("sink unavailable")
}
