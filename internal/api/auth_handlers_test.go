package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tourneysync/internal/accounts"
)

var accountColumns = []string{
	"id", "user_name", "email", "password_hash", "display_name",
	"email_verified", "created_at", "updated_at",
}

func TestHandleRegisterRejectsMalformedBody(t *testing.T) {
	router := gin.New()
	router.POST("/auth/register", HandleRegister(nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte(`{"email":`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegisterRejectsMissingFields(t *testing.T) {
	router := gin.New()
	router.POST("/auth/register", HandleRegister(nil))

	body, _ := json.Marshal(map[string]string{"email": "not-an-email"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegisterRejectsWeakPassword(t *testing.T) {
	router := gin.New()
	router.POST("/auth/register", HandleRegister(nil))

	body, _ := json.Marshal(map[string]string{
		"user_name": "ada", "email": "ada@example.com", "password": "alllowercase1", "display_name": "Ada",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Register's duplicate-email branch returns before touching SessionStore,
// so a SessionStore wrapping a nil redis client is safe to construct here.
func TestHandleRegisterConflictsOnDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("SELECT (.|\n)+FROM accounts WHERE email").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id.String(), "ada", "ada@example.com", "hashed", "Ada Lovelace", true, now, now))

	auth := accounts.NewAuthService(accounts.NewStore(db), accounts.NewSessionStore(nil), bcrypt.MinCost, time.Hour)

	router := gin.New()
	router.POST("/auth/register", HandleRegister(auth))

	body, _ := json.Marshal(map[string]string{
		"user_name": "ada2", "email": "ada@example.com", "password": "Password1", "display_name": "Ada",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleLoginRejectsWrongCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.|\n)+FROM accounts WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(accountColumns))

	auth := accounts.NewAuthService(accounts.NewStore(db), accounts.NewSessionStore(nil), bcrypt.MinCost, time.Hour)

	router := gin.New()
	router.POST("/auth/login", HandleLogin(auth))

	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com", "password": "whatever"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleLoginRejectsMalformedBody(t *testing.T) {
	router := gin.New()
	router.POST("/auth/login", HandleLogin(nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogoutWithoutHeaderStillReportsLoggedOut(t *testing.T) {
	router := gin.New()
	router.POST("/auth/logout", HandleLogout(accounts.NewSessionStore(nil)))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
