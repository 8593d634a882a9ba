// internal/websocket/client.go
// WebSocket client connection: one connection per subscribed tournament.

package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tourneysync/internal/gathering"
	"tourneysync/internal/model"
	"tourneysync/internal/syncproto"
	"tourneysync/internal/utils"
	"tourneysync/internal/wsproto"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

// Client represents one subscribe connection, bound to exactly one
// tournament for its whole lifetime (the route is /tournaments/subscribe/
// :id; there is no dynamic subscribe/unsubscribe like a general-purpose
// hub would offer).
type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	accountID    model.AccountID
	tournamentID model.TournamentID
	gathering    *gathering.Gathering

	closeOnce sync.Once
}

// Send implements gathering.Sink: marshal v as a broadcast envelope and
// queue it, dropping the connection if the send buffer is full rather than
// blocking the Gathering's run loop (the backpressure rule in the
// concurrency/resource model).
func (c *Client) Send(v interface{}) error {
	env := wsproto.NewEnvelope(wsproto.KindBroadcast, v, time.Now())
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.close()
		return errClientBackedUp
	}
}

var errClientBackedUp = &backpressureError{}

type backpressureError struct{}

func (*backpressureError) Error() string { return "subscriber send buffer full" }

// readPump pumps inbound client frames — submitted ops and sync messages —
// to the tournament's Gathering.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env wsproto.Envelope[json.RawMessage]
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error (tournament %s): %v", c.tournamentID, err)
			}
			break
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env wsproto.Envelope[json.RawMessage]) {
	switch env.Kind {
	case wsproto.KindOp:
		var op model.Operation
		if err := json.Unmarshal(env.Body, &op); err != nil {
			c.reply(wsproto.KindOpResult, map[string]string{"error": err.Error()})
			return
		}
		if op.Kind == model.OpCreate {
			op.Seed.Name = utils.SanitizeString(op.Seed.Name)
			if err := utils.ValidateTournamentName(op.Seed.Name); err != nil {
				c.reply(wsproto.KindOpResult, map[string]string{"error": err.Error()})
				return
			}
		}
		err := c.gathering.ProcessOp(c.accountID, op)
		result := map[string]string{}
		if err != nil {
			result["error"] = err.Error()
		}
		c.reply(wsproto.KindOpResult, result)

	case wsproto.KindSyncInit:
		var sync syncproto.OpSync
		if err := json.Unmarshal(env.Body, &sync); err != nil {
			c.reply(wsproto.KindServerLink, syncproto.ServerOpLink{
				Kind:  syncproto.ServerError,
				Error: syncproto.NewSyncError(syncproto.NotInitialized),
			})
			return
		}
		link, serr := c.gathering.SyncInit(sync)
		if serr != nil {
			c.reply(wsproto.KindServerLink, syncproto.ServerOpLink{Kind: syncproto.ServerError, Error: serr})
			return
		}
		c.reply(wsproto.KindServerLink, link)

	case wsproto.KindSyncDecision:
		var decision syncproto.SyncDecision
		if err := json.Unmarshal(env.Body, &decision); err != nil {
			return
		}
		link := c.gathering.SyncDecision(decision)
		c.reply(wsproto.KindServerLink, link)

	default:
		log.Printf("unknown envelope kind: %s", env.Kind)
	}
}

func (c *Client) reply(kind string, body interface{}) {
	env := wsproto.NewEnvelope(kind, body, time.Now())
	data, err := json.Marshal(env)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.close()
	}
}

// writePump pumps queued outbound frames to the connection, interleaved
// with keepalive pings — unchanged from the process-wide hub's shape.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close cleanly closes the client's outbound queue; safe to call more than
// once (a backpressure drop and a read-error teardown can race).
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}
