package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/jointbank/internal/common"
	"github.com/dmitrijs2005/jointbank/internal/server/auth"
	"github.com/dmitrijs2005/jointbank/internal/server/config"
	"github.com/dmitrijs2005/jointbank/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(db *sql.DB, rm *fakeRepoManager) *UserService {
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func TestRegister(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := newUserService(db, rm)

	u, err := s.Register(context.Background(), " Alice@Example.com ", "Alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEmpty(t, u.ID)
	assert.True(t, auth.CheckPassword(u.PasswordHash, "password1"))

	_, err = s.Register(context.Background(), "alice@example.com", "Alice 2", "password2")
	assert.ErrorIs(t, err, common.ErrorInvalid)
}

func TestRegister_Invalid(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newUserService(db, newFakeRepoManager())

	for _, tc := range []struct{ email, name, password string }{
		{"alice.example.com", "Alice", "password1"},
		{"alice@example.com", "", "password1"},
		{"alice@example.com", "Alice", "short"},
	} {
		_, err := s.Register(context.Background(), tc.email, tc.name, tc.password)
		assert.ErrorIs(t, err, common.ErrorInvalid, "%+v", tc)
	}
}

func TestRegister_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.users.createErr = errBoom{}
	s := newUserService(db, rm)

	_, err := s.Register(context.Background(), "a@b.c", "A", "password1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoom{}))
	assert.Contains(t, err.Error(), "error creating user")
}

func TestLogin(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	s := newUserService(db, rm)

	u, err := s.Register(context.Background(), "alice@example.com", "Alice", "password1")
	require.NoError(t, err)

	pair, err := s.Login(context.Background(), "ALICE@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Len(t, pair.RefreshToken, 64)

	userID, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	_, err = s.Login(context.Background(), "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	_, err = s.Login(context.Background(), "nobody@example.com", "password1")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestLogin_RepoError(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.users.getErr = errBoom{}
	s := newUserService(db, rm)

	_, err := s.Login(context.Background(), "a@b.c", "password1")
	assert.ErrorIs(t, err, errBoom{})
}

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	rm.refresh.tokens["old"] = &models.RefreshToken{UserID: aliceID, Token: "old", ExpiresAt: time.Now().Add(10 * time.Minute)}
	s := newUserService(db, rm)

	pair, err := s.RefreshToken(context.Background(), "old")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, "old", pair.RefreshToken)

	_, found := rm.refresh.tokens["old"]
	assert.False(t, found, "old refresh token must be deleted")
	assert.Contains(t, rm.refresh.tokens, pair.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_Unknown(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newUserService(db, newFakeRepoManager())

	_, err := s.RefreshToken(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.refresh.tokens["r"] = &models.RefreshToken{UserID: aliceID, ExpiresAt: time.Now().Add(-time.Minute)}
	s := newUserService(db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefreshToken_FindErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.refresh.findErr = errBoom{}
	s := newUserService(db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error searching refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped find error, got %v", err)
	}
}

func TestRefreshToken_DeleteErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeRepoManager()
	rm.refresh.tokens["r"] = &models.RefreshToken{UserID: aliceID, ExpiresAt: time.Now().Add(time.Minute)}
	rm.refresh.delErr = errBoom{}
	s := newUserService(db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	if err == nil || !regexp.MustCompile(`error deleting refresh token: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped delete error, got %v", err)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_CreateErr(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	rm := newFakeRepoManager()
	rm.refresh.tokens["r"] = &models.RefreshToken{UserID: aliceID, ExpiresAt: time.Now().Add(time.Minute)}
	rm.refresh.createErr = errBoom{}
	s := newUserService(db, rm)

	_, err := s.RefreshToken(context.Background(), "r")
	require.ErrorIs(t, err, errBoom{})
	assert.Contains(t, err.Error(), "error storing refresh token")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser(t *testing.T) {
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	rm.users.byID[aliceID] = &models.User{ID: aliceID, Email: "alice@example.com"}
	s := newUserService(db, rm)

	u, err := s.GetUser(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = s.GetUser(context.Background(), bobID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = s.GetUser(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
