// Package accounts provides the MySQL-backed account store: the
// durable identity behind a model.AccountID, and the session tokens
// issued against it. Tournament state itself never lives here — only
// who is allowed to submit ops as which principal.
package accounts

import (
	"time"

	"tourneysync/internal/model"
)

// Account is a durable login identity. DisplayName/UserName feed
// model.AccountRef when a principal registers as a player.
type Account struct {
	ID            model.AccountID
	UserName      string
	Email         string
	PasswordHash  string
	DisplayName   string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session is an issued, revocable login session. SessionLifetime (config)
// bounds ActiveUntil; past that point SessionStore.Lookup refuses the
// token, so an expired session can neither submit ops nor be used to
// reauth (there is no path that accepts an expired session).
type Session struct {
	Token       string
	AccountID   model.AccountID
	IssuedAt    time.Time
	ActiveUntil time.Time
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ActiveUntil)
}
