// Package gathering implements the per-tournament actor (Gathering) and its
// registry (GatheringHall). Each Gathering owns exactly one manager.Manager
// and serializes every message against it through a single goroutine and
// inbox channel — the same single-threaded-cooperative shape the teacher's
// websocket.Hub uses for its register/unregister/broadcast loop, scaled
// down to one actor per tournament instead of one process-wide hub.
package gathering

import (
	"log"
	"sync/atomic"
	"time"

	"tourneysync/internal/manager"
	"tourneysync/internal/model"
	"tourneysync/internal/syncproto"
)

// Sink is the minimal broadcast target a subscriber exposes; the websocket
// package's Client satisfies it.
type Sink interface {
	Send(v interface{}) error
}

type subscriber struct {
	user model.AccountID
	sink Sink
}

// Gathering is a single tournament's live actor: a Manager plus its
// subscriber list, driven entirely by messages arriving on inbox. The
// manager and subscribers live inside the run loop; from outside, only
// inbox is sent on, done is waited on, and touched is bumped by the Hall.
type Gathering struct {
	id    model.TournamentID
	inbox chan any
	done  chan struct{}

	// touched is shared with the GatheringHall entry that owns this
	// actor; the Hall bumps it on every GetGathering lookup so the
	// idle-exit path can detect "someone reached for me after I decided
	// to die" (the idle-token race called out in the design notes).
	touched *atomic.Uint64
}

type msgGetTournament struct {
	reply chan *model.Tournament
}

type msgGetManager struct {
	reply chan *manager.Manager
}

type msgSubscribe struct {
	user model.AccountID
	sink Sink
}

type msgProcessOp struct {
	user  model.AccountID
	op    model.Operation
	reply chan error
}

type msgSyncInit struct {
	sync  syncproto.OpSync
	reply chan syncInitResult
}

type syncInitResult struct {
	link *syncproto.ServerOpLink
	err  *syncproto.SyncError
}

type msgSyncDecision struct {
	decision syncproto.SyncDecision
	reply    chan syncproto.ServerOpLink
}

type msgTick struct{}

// New starts a Gathering's run loop in its own goroutine and returns it.
// touched is the counter the owning Hall bumps on every GetGathering
// lookup; idleWindow is how long the actor waits with no inbound message
// before persisting and terminating. initial, when non-nil, is a manager
// resumed from a persisted snapshot (a cold GetGathering miss); when nil
// the actor starts blank and the caller's first op must be OpCreate.
// onIdle is called with the final tournament snapshot and the touched
// value observed at idle-decision time, so the Hall can decide whether
// to actually drop its map entry.
func New(id model.TournamentID, owner model.AccountID, touched *atomic.Uint64, idleWindow time.Duration, initial *manager.Manager, onIdle func(model.TournamentID, *manager.Manager, uint64)) *Gathering {
	g := &Gathering{
		id:      id,
		inbox:   make(chan any, 64),
		done:    make(chan struct{}),
		touched: touched,
	}
	go g.run(owner, idleWindow, initial, onIdle)
	return g
}

func (g *Gathering) run(owner model.AccountID, idleWindow time.Duration, initial *manager.Manager, onIdle func(model.TournamentID, *manager.Manager, uint64)) {
	mgr := initial
	if mgr == nil {
		mgr = manager.New(g.id, owner)
	}
	var subs []subscriber
	idle := time.NewTimer(idleWindow)
	defer idle.Stop()

	for {
		select {
		case raw := <-g.inbox:
			idle.Reset(idleWindow)
			switch msg := raw.(type) {
			case msgGetTournament:
				msg.reply <- mgr.Tourn

			case msgGetManager:
				msg.reply <- mgr.Snapshot()

			case msgSubscribe:
				subs = append(subs, subscriber{user: msg.user, sink: msg.sink})

			case msgProcessOp:
				_, err := mgr.ApplyOp(time.Now(), msg.op)
				if err == nil {
					subs = g.broadcast(subs, msg.op)
				}
				msg.reply <- err

			case msgSyncInit:
				link, serr := mgr.InitSync(msg.sync)
				msg.reply <- syncInitResult{link: link, err: serr}

			case msgSyncDecision:
				msg.reply <- mgr.HandleDecision(msg.decision)

			case msgTick:
				mgr.Messages.Sweep(time.Now())
			}

		case <-idle.C:
			tok := uint64(0)
			if g.touched != nil {
				tok = g.touched.Load()
			}
			if onIdle != nil {
				onIdle(g.id, mgr, tok)
			}
			close(g.done)
			return
		}
	}
}

// broadcast fans an applied op out to every subscriber. A sink that can't
// keep up is dropped rather than allowed to block the actor (backpressure
// is the subscriber's problem, never the Gathering's). It returns the
// subscribers that are still attached.
func (g *Gathering) broadcast(subs []subscriber, op model.Operation) []subscriber {
	kept := subs[:0]
	for _, s := range subs {
		if err := s.sink.Send(op); err != nil {
			log.Printf("gathering %s: dropping unresponsive subscriber %s: %v", g.id, s.user, err)
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// GetTournament snapshots the live tournament.
func (g *Gathering) GetTournament() *model.Tournament {
	reply := make(chan *model.Tournament, 1)
	g.inbox <- msgGetTournament{reply: reply}
	return <-reply
}

// GetManager snapshots the full TournamentManager (tournament, log, and
// sync bookkeeping), independent of the live actor state — what `GET
// /tournaments/:id` serializes.
func (g *Gathering) GetManager() *manager.Manager {
	reply := make(chan *manager.Manager, 1)
	g.inbox <- msgGetManager{reply: reply}
	return <-reply
}

// Subscribe registers sink to receive every future broadcast for this
// tournament until the Gathering terminates.
func (g *Gathering) Subscribe(user model.AccountID, sink Sink) {
	g.inbox <- msgSubscribe{user: user, sink: sink}
}

// ProcessOp stamps and applies op, broadcasting on success.
func (g *Gathering) ProcessOp(user model.AccountID, op model.Operation) error {
	op.Principal = user
	reply := make(chan error, 1)
	g.inbox <- msgProcessOp{user: user, op: op, reply: reply}
	return <-reply
}

// SyncInit drives the server side of a fresh sync chain.
func (g *Gathering) SyncInit(sync syncproto.OpSync) (*syncproto.ServerOpLink, *syncproto.SyncError) {
	reply := make(chan syncInitResult, 1)
	g.inbox <- msgSyncInit{sync: sync, reply: reply}
	res := <-reply
	return res.link, res.err
}

// SyncDecision resumes a chain after a Conflict.
func (g *Gathering) SyncDecision(decision syncproto.SyncDecision) syncproto.ServerOpLink {
	reply := make(chan syncproto.ServerOpLink, 1)
	g.inbox <- msgSyncDecision{decision: decision, reply: reply}
	return <-reply
}

// Done reports whether this actor's run loop has already exited —
// consulted by the Hall before handing out a pointer it suspects is stale.
func (g *Gathering) Done() <-chan struct{} {
	return g.done
}

// Tick nudges the actor's idle housekeeping (MessageManager retention
// sweep) without otherwise resetting application state.
func (g *Gathering) Tick() {
	g.inbox <- msgTick{}
}
