package accounts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tourneysync/internal/model"
	"tourneysync/internal/utils"
)

// sessionKeyPrefix namespaces session tokens in the shared Redis keyspace.
const sessionKeyPrefix = "session:"

// SessionStore issues and looks up session tokens, grounded on the
// teacher's CacheService (internal/services/cache_service.go) — same
// client.Set/Get-with-TTL idiom, applied here to session tokens instead of
// generic response caching. Redis' own TTL does the expiry bookkeeping;
// SessionStore only refuses tokens whose recorded ActiveUntil has passed,
// for the window between TTL rounding and the session-lifetime rule.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Issue mints a fresh opaque hex token for accountID, valid until now+ttl,
// and stores it in Redis with a matching expiration.
func (s *SessionStore) Issue(accountID model.AccountID, now time.Time, ttl time.Duration) *Session {
	session := &Session{
		Token:       utils.GenerateSecureToken(),
		AccountID:   accountID,
		IssuedAt:    now,
		ActiveUntil: now.Add(ttl),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return session
	}
	s.client.Set(context.Background(), sessionKeyPrefix+session.Token, data, ttl)
	return session
}

// Lookup resolves a session token, rejecting it if Redis has already
// expired the key or if it's past its recorded ActiveUntil.
func (s *SessionStore) Lookup(ctx context.Context, token string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		return nil, fmt.Errorf("session expired")
	}
	return &session, nil
}

// Revoke deletes a session token immediately (logout).
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}
