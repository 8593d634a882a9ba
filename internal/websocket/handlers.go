// internal/websocket/handlers.go
// WebSocket connection handler: upgrades, authenticates, and binds a
// connection to exactly one tournament's Gathering.

package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/google/uuid"

	"tourneysync/internal/accounts"
	"tourneysync/internal/gathering"
	"tourneysync/internal/model"
	"tourneysync/internal/wsproto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// HandleSubscribe upgrades GET /tournaments/subscribe/:id. The first frame
// must arrive within handshakeTimeout and be a valid session token
// (wsproto.Handshake); anything else and the connection is dropped, per
// the concurrency/resource model's websocket handshake rule.
func HandleSubscribe(hall *gathering.Hall, sessions *accounts.SessionStore, handshakeTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		tournamentIDStr := c.Param("id")
		tid, err := uuid.Parse(tournamentIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tournament id"})
			return
		}
		tournamentID := model.IDFrom[model.TournamentTag](tid)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		accountID, ok := authenticateHandshake(conn, sessions, handshakeTimeout)
		if !ok {
			ackFailed(conn, "invalid or expired session token")
			conn.Close()
			return
		}

		// A subscribe to an id with neither a live actor nor a persisted
		// snapshot is the creation path: the subscriber becomes the
		// fresh tournament's owner, and its first submitted op must be
		// OpCreate (model.Tournament.ApplyOp rejects a second one).
		g, ok := hall.GetGathering(context.Background(), tournamentID)
		if !ok {
			g = hall.NewGathering(tournamentID, accountID)
		}

		client := &Client{
			conn:         conn,
			send:         make(chan []byte, 256),
			accountID:    accountID,
			tournamentID: tournamentID,
			gathering:    g,
		}
		g.Subscribe(accountID, client)
		ackOK(conn, accountID)

		go client.writePump()
		client.readPump()
	}
}

func authenticateHandshake(conn *websocket.Conn, sessions *accounts.SessionStore, timeout time.Duration) (model.AccountID, bool) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	defer conn.SetReadDeadline(time.Time{})

	var env wsproto.Envelope[wsproto.Handshake]
	if err := conn.ReadJSON(&env); err != nil || env.Kind != wsproto.KindHandshake {
		return model.AccountID{}, false
	}
	session, err := sessions.Lookup(context.Background(), env.Body.SessionToken)
	if err != nil {
		return model.AccountID{}, false
	}
	return session.AccountID, true
}

func ackOK(conn *websocket.Conn, accountID model.AccountID) {
	env := wsproto.NewEnvelope(wsproto.KindHandshakeAck, wsproto.HandshakeAck{
		Accepted:  true,
		AccountID: accountID.String(),
	}, time.Now())
	if data, err := json.Marshal(env); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

func ackFailed(conn *websocket.Conn, reason string) {
	env := wsproto.NewEnvelope(wsproto.KindHandshakeAck, wsproto.HandshakeAck{
		Accepted: false,
		Reason:   reason,
	}, time.Now())
	if data, err := json.Marshal(env); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
