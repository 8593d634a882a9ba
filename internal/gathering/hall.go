package gathering

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tourneysync/internal/manager"
	"tourneysync/internal/model"
)

// defaultIdleWindow is used when NewHall is given a zero duration.
const defaultIdleWindow = 10 * time.Second

// entry pairs a live actor with the touch counter it shares, so the Hall
// can answer "has anyone reached for this gathering since it decided to
// die" without the actor itself holding the Hall's lock.
type entry struct {
	g       *Gathering
	touched *atomic.Uint64
}

// Hall is the registry of live Gatherings, grounded on the teacher's
// websocket.Hub — same sync.RWMutex-guarded map shape, generalized from
// "connections by tournament id" to "one actor per tournament id".
type Hall struct {
	mu         sync.RWMutex
	gathering  map[model.TournamentID]*entry
	persist    Persister
	idleWindow time.Duration
}

// NewHall builds a registry backed by persist. idleWindow governs how long
// each spawned Gathering waits without a message before persisting and
// terminating; a zero value falls back to defaultIdleWindow.
func NewHall(persist Persister, idleWindow time.Duration) *Hall {
	if idleWindow <= 0 {
		idleWindow = defaultIdleWindow
	}
	return &Hall{
		gathering:  make(map[model.TournamentID]*entry),
		persist:    persist,
		idleWindow: idleWindow,
	}
}

// NewGathering creates and registers a brand-new, blank actor for id,
// replacing any prior (necessarily dead, per GetGathering's liveness
// check) entry. The first op the caller submits MUST be OpCreate.
func (h *Hall) NewGathering(id model.TournamentID, owner model.AccountID) *Gathering {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spawnLocked(id, owner, nil)
}

// spawnLocked registers a fresh actor for id. When initial is non-nil
// (a cold GetGathering miss that found a persisted snapshot) the actor
// resumes from that manager instead of starting blank.
func (h *Hall) spawnLocked(id model.TournamentID, owner model.AccountID, initial *manager.Manager) *Gathering {
	touched := new(atomic.Uint64)
	g := New(id, owner, touched, h.idleWindow, initial, h.onIdle)
	h.gathering[id] = &entry{g: g, touched: touched}
	return g
}

// GetGathering returns the live actor for id, loading it from the
// Persister on a cold miss. Returns (nil, false) if neither a live actor
// nor a persisted snapshot exists.
func (h *Hall) GetGathering(ctx context.Context, id model.TournamentID) (*Gathering, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.gathering[id]; ok {
		select {
		case <-e.g.Done():
			// Stale: the actor already exited (idle fired) but a
			// concurrent destroy request hasn't cleaned up the map
			// entry yet. Fall through and reload.
		default:
			e.touched.Add(1)
			return e.g, true
		}
	}

	if h.persist == nil {
		return nil, false
	}
	mgr, ok, err := h.persist.Load(ctx, id)
	if err != nil || !ok {
		return nil, false
	}
	g := h.spawnLocked(id, mgr.Log.Owner, mgr)
	return g, true
}

// onIdle is the Gathering run loop's termination hook: persist the final
// snapshot, then ask to be removed from the map — but only if nobody
// touched this entry since the idle decision was made.
func (h *Hall) onIdle(id model.TournamentID, mgr *manager.Manager, tokenAtDecision uint64) {
	if h.persist != nil {
		h.persist.Save(context.Background(), id, mgr)
	}
	h.destroyGathering(id, tokenAtDecision)
}

// destroyGathering removes id's entry only if its touched counter still
// matches token — the idle-token race protection named in the design
// notes: a GetGathering that raced the idle decision bumps the counter,
// which aborts the removal here and leaves GetGathering's own
// Done()-based staleness check to reload it on the next access.
func (h *Hall) destroyGathering(id model.TournamentID, token uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.gathering[id]
	if !ok {
		return
	}
	if e.touched.Load() != token {
		return
	}
	delete(h.gathering, id)
}
