package syncproto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageManagerBeginStartsAwaiting(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	id := NewChainID(time.Now())
	mm.Begin(id)
	assert.Equal(t, ChainAwaiting, mm.State(id))
}

func TestMessageManagerStateUnknownChainIsIdle(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	assert.Equal(t, ChainIdle, mm.State(NewChainID(time.Now())))
}

func TestMessageManagerRecordClosesOnTerminalReply(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	id := NewChainID(time.Now())
	mm.Begin(id)

	now := time.Now()
	reply := ServerOpLink{Kind: ServerCompleted}
	mm.Record(id, reply, now)

	assert.Equal(t, ChainClosed, mm.State(id))
	last, ok := mm.LastReply(id)
	assert.True(t, ok)
	assert.Equal(t, ServerCompleted, last.Kind)
}

func TestMessageManagerRecordStaysAwaitingOnConflict(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	id := NewChainID(time.Now())
	mm.Begin(id)
	mm.Record(id, ServerOpLink{Kind: ServerConflict}, time.Now())
	assert.Equal(t, ChainAwaiting, mm.State(id))
}

func TestMessageManagerLastReplyUnknownChain(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	_, ok := mm.LastReply(NewChainID(time.Now()))
	assert.False(t, ok)
}

func TestMessageManagerSweepForgetsExpiredClosedChains(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	id := NewChainID(time.Now())
	mm.Begin(id)

	start := time.Now()
	mm.Record(id, ServerOpLink{Kind: ServerCompleted}, start)

	mm.Sweep(start.Add(30 * time.Second))
	assert.Equal(t, ChainClosed, mm.State(id), "not yet past ttl")

	mm.Sweep(start.Add(2 * time.Minute))
	assert.Equal(t, ChainIdle, mm.State(id), "swept chains revert to the unseen default")
}

func TestMessageManagerSweepLeavesOpenChainsAlone(t *testing.T) {
	mm := NewMessageManager(time.Minute)
	id := NewChainID(time.Now())
	mm.Begin(id)

	mm.Sweep(time.Now().Add(time.Hour))
	assert.Equal(t, ChainAwaiting, mm.State(id))
}
