// Package wsproto defines the wire envelope carried over a tournament's
// subscribe websocket: a generic, correlation-id-tagged message plus the
// handshake frame that authenticates the connection before anything else
// is accepted.
package wsproto

import (
	"time"

	"github.com/oklog/ulid/v2"
)

var entropy = ulid.Monotonic(nil, 0)

// Envelope is the outer frame for every message exchanged on a subscribe
// connection, generic over the payload kind so the same struct carries a
// handshake ack, a ProcessOp result, a broadcasted op, or a sync message —
// grounded on the teacher's websocket.Message (internal/websocket/
// client.go's Message/ClientMessage pair), collapsed into one generic
// envelope since Go 1.24 generics make a typed body cleaner than the
// teacher's Type-string-plus-json.RawMessage dispatch.
type Envelope[B any] struct {
	ID   ulid.ULID `json:"id"`
	Kind string    `json:"kind"`
	Body B         `json:"body"`
}

// NewEnvelope stamps a fresh correlation id for an outbound message.
func NewEnvelope[B any](kind string, body B, now time.Time) Envelope[B] {
	return Envelope[B]{ID: ulid.MustNew(ulid.Timestamp(now), entropy), Kind: kind, Body: body}
}

// Handshake is the mandatory first client frame: a previously-issued
// session token. The server must receive and validate this within the
// configured handshake deadline or the connection is dropped, per the
// concurrency/resource model's websocket handshake rule.
type Handshake struct {
	SessionToken string `json:"session_token"`
}

// HandshakeAck is the server's reply: whether the token was accepted and,
// if so, the account it resolved to.
type HandshakeAck struct {
	Accepted  bool   `json:"accepted"`
	AccountID string `json:"account_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

const (
	KindHandshake    = "handshake"
	KindHandshakeAck = "handshake_ack"
	KindOp           = "op"
	KindOpResult     = "op_result"
	KindBroadcast    = "broadcast"
	KindSyncInit     = "sync_init"
	KindSyncDecision = "sync_decision"
	KindServerLink   = "server_link"
)
