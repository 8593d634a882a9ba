package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tourneysync/internal/model"
)

// Store is the MySQL-backed account repository — same query/scan idiom as
// the teacher's UserRepository (internal/repositories/user_repository.go),
// generalized from a `users` table keyed by a plain string id to one keyed
// by a model.AccountID (stored as its canonical UUID string form).
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new account.
func (s *Store) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (
			id, user_name, email, password_hash, display_name,
			email_verified, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID.String(), a.UserName, a.Email, a.PasswordHash, a.DisplayName,
		a.EmailVerified, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// GetByEmail retrieves an account by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, user_name, email, password_hash, display_name,
			email_verified, created_at, updated_at
		FROM accounts WHERE email = ?
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves an account by id.
func (s *Store) GetByID(ctx context.Context, id model.AccountID) (*Account, error) {
	query := `
		SELECT id, user_name, email, password_hash, display_name,
			email_verified, created_at, updated_at
		FROM accounts WHERE id = ?
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id.String()))
}

func (s *Store) scanOne(row *sql.Row) (*Account, error) {
	var a Account
	var idStr string
	err := row.Scan(
		&idStr, &a.UserName, &a.Email, &a.PasswordHash, &a.DisplayName,
		&a.EmailVerified, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account not found")
	}
	if err != nil {
		return nil, err
	}
	u, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt account id %q: %w", idStr, err)
	}
	a.ID = model.IDFrom[model.AccountTag](u)
	return &a, nil
}

// Update persists display-name/email changes; password changes go through
// a dedicated UpdatePassword to keep the hash write path auditable.
func (s *Store) Update(ctx context.Context, a *Account) error {
	query := `
		UPDATE accounts SET display_name = ?, email = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query, a.DisplayName, a.Email, time.Now(), a.ID.String())
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, id model.AccountID, hash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now(), id.String(),
	)
	return err
}
