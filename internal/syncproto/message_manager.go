package syncproto

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ChainID correlates every message exchanged within one sync attempt. It's
// a ULID rather than a plain UUID because the id must sort in submission
// order — useful for the retention sweep below, and for log correlation —
// the same property original_source's squire_sdk leans on its `ulid`
// crate for.
type ChainID = ulid.ULID

var ulidEntropy = ulid.Monotonic(nil, 0)

// NewChainID mints a fresh, time-ordered chain id. It must not be called
// from inside Tournament.ApplyOp or anything replayed deterministically —
// chain ids are pure transport bookkeeping, never part of the tournament
// state itself.
func NewChainID(now time.Time) ChainID {
	return ulid.MustNew(ulid.Timestamp(now), ulidEntropy)
}

// chainRecord is the last message exchanged on each side of one chain,
// kept so a retransmitted ClientOpLink gets the same reply instead of
// being reprocessed (and, for a Completed/Error terminal state, so a late
// retransmission after the chain closed still gets an answer).
type chainRecord struct {
	state     ChainState
	lastReply *ServerOpLink
	expiresAt time.Time
}

// MessageManager de-duplicates retransmissions within a sync chain's
// lifetime. One MessageManager belongs to exactly one Gathering; it mirrors
// squire_sdk's MessageManager (an in-memory map plus a retention queue),
// generalized here to a single TTL sweep over a map since Go's map
// iteration order doesn't need a side deque to stay correct.
type MessageManager struct {
	mu      sync.Mutex
	chains  map[ChainID]*chainRecord
	ttl     time.Duration
}

// NewMessageManager builds a MessageManager whose completed/errored chains
// are remembered for ttl before being forgotten; a ttl of zero or less
// means 10 minutes.
func NewMessageManager(ttl time.Duration) *MessageManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MessageManager{chains: make(map[ChainID]*chainRecord), ttl: ttl}
}

// Begin registers a freshly Init'd chain as Awaiting.
func (m *MessageManager) Begin(id ChainID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[id] = &chainRecord{state: ChainAwaiting}
}

// State reports a chain's current state; ChainIdle for one never seen.
func (m *MessageManager) State(id ChainID) ChainState {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.chains[id]
	if !ok {
		return ChainIdle
	}
	return rec.state
}

// Record stores the server's reply to a chain, closing it if the reply is
// terminal (Completed, Error, or TerminatedSeen).
func (m *MessageManager) Record(id ChainID, reply ServerOpLink, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.chains[id]
	if !ok {
		rec = &chainRecord{}
		m.chains[id] = rec
	}
	rec.lastReply = &reply
	switch reply.Kind {
	case ServerCompleted, ServerError, ServerTerminatedSeen:
		rec.state = ChainClosed
		rec.expiresAt = now.Add(m.ttl)
	default:
		rec.state = ChainAwaiting
	}
}

// LastReply returns the last reply recorded for a chain, for answering a
// retransmitted ClientOpLink without reprocessing it.
func (m *MessageManager) LastReply(id ChainID) (ServerOpLink, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.chains[id]
	if !ok || rec.lastReply == nil {
		return ServerOpLink{}, false
	}
	return *rec.lastReply, true
}

// Sweep forgets closed chains whose retention window has elapsed. Call
// periodically (e.g. from the Gathering's idle Tick) rather than on every
// message.
func (m *MessageManager) Sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.chains {
		if rec.state == ChainClosed && now.After(rec.expiresAt) {
			delete(m.chains, id)
		}
	}
}
