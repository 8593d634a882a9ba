package accounts

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tourneysync/internal/model"
)

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService authenticates accounts and mints session tokens, grounded on
// the teacher's AuthService (internal/services/auth_service.go) —
// bcrypt-hashed passwords and the same register/login shape — generalized
// from a JWT-access/refresh pair to a single opaque session token (the
// sync protocol's principal just needs a stable AccountID, not scopes).
type AuthService struct {
	store      *Store
	sessions   *SessionStore
	bcryptCost int
	sessionTTL time.Duration
}

func NewAuthService(store *Store, sessions *SessionStore, bcryptCost int, sessionTTL time.Duration) *AuthService {
	return &AuthService{store: store, sessions: sessions, bcryptCost: bcryptCost, sessionTTL: sessionTTL}
}

// Register hashes password, persists a new Account, and returns a fresh
// session for it.
func (s *AuthService) Register(ctx context.Context, userName, email, password, displayName string) (*Account, *Session, error) {
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	account := &Account{
		ID:          model.IDFromItem[model.AccountTag](now, email),
		UserName:    userName,
		Email:       email,
		PasswordHash: string(hash),
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, nil, err
	}

	session := s.sessions.Issue(account.ID, now, s.sessionTTL)
	return account, session, nil
}

// Login verifies password and issues a fresh session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Account, *Session, error) {
	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	session := s.sessions.Issue(account.ID, time.Now(), s.sessionTTL)
	return account, session, nil
}

// AccountRef projects an Account down to the minimal payload a
// RegisterPlayer/RegisterGuest op carries.
func (a *Account) AccountRef() *model.AccountRef {
	return &model.AccountRef{ID: a.ID, UserName: a.UserName, DisplayName: a.DisplayName}
}
