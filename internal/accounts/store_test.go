package accounts

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourneysync/internal/model"
)

var accountColumns = []string{
	"id", "user_name", "email", "password_hash", "display_name",
	"email_verified", "created_at", "updated_at",
}

func TestStoreCreateInsertsAllColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	account := &Account{
		ID:           model.IDFrom[model.AccountTag](uuid.New()),
		UserName:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "hashed",
		DisplayName:  "Ada Lovelace",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(account.ID.String(), account.UserName, account.Email, account.PasswordHash,
			account.DisplayName, account.EmailVerified, account.CreatedAt, account.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Create(context.Background(), account))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByEmailScansRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.|\n)+FROM accounts WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id.String(), "ada", "ada@example.com", "hashed", "Ada Lovelace", true, now, now))

	account, err := store.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.IDFrom[model.AccountTag](id), account.ID)
	assert.Equal(t, "ada@example.com", account.Email)
	assert.True(t, account.EmailVerified)
}

func TestStoreGetByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	mock.ExpectQuery("SELECT (.|\n)+FROM accounts WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err = store.GetByEmail(context.Background(), "nobody@example.com")
	assert.Error(t, err)
}

func TestStoreGetByIDRejectsCorruptUUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	id := model.IDFrom[model.AccountTag](uuid.New())
	now := time.Now()

	mock.ExpectQuery("SELECT (.|\n)+FROM accounts WHERE id").
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("not-a-uuid", "ada", "ada@example.com", "hashed", "Ada Lovelace", false, now, now))

	_, err = store.GetByID(context.Background(), id)
	assert.Error(t, err)
}

func TestStoreUpdatePasswordExecutesWithNewHash(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	id := model.IDFrom[model.AccountTag](uuid.New())

	mock.ExpectExec("UPDATE accounts SET password_hash").
		WithArgs("new-hash", anyTime{}, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdatePassword(context.Background(), id, "new-hash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// anyTime satisfies sqlmock.Argument for the time.Now() call baked into
// UpdatePassword/Update, which the caller can't control precisely.
type anyTime struct{}

func (anyTime) Match(v driver.Value) bool {
	_, ok := v.(time.Time)
	return ok
}
