package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"livecart/internal/database"
	"livecart/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a named in-memory sqlite database shared across the
// pool's connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestService(t *testing.T, idleTTL time.Duration) *Service {
	t.Helper()
	db := newTestDB(t)
	return NewService(store.NewCredentialStore(db), db, "test-secret", idleTTL)
}

func TestRegisterDuplicateUser(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	first, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Username)

	_, err = svc.Register(ctx, "alice", "other", "b@x.com")
	require.ErrorIs(t, err, ErrDuplicateUser)

	// the first registration's record is unaffected
	_, token, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginWrongPasswordCreatesNoSession(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	var count int64
	require.NoError(t, svc.db.Table("sessions").Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoginUnknownUserSameError(t *testing.T) {
	svc := newTestService(t, time.Minute)

	_, _, err := svc.Login(context.Background(), "nobody", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionLifecycleScenario(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.ErrorIs(t, err, ErrDuplicateUser)

	_, _, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, token, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, 0, session.Counter)

	// a gate pass followed by a protected page visit bumps the counter
	gated, err := svc.SessionFromToken(ctx, token)
	require.NoError(t, err)
	require.NoError(t, svc.VisitProtectedPage(ctx, gated))
	assert.Equal(t, 1, gated.Counter)

	// the API read reports the counter without incrementing it
	again, err := svc.SessionFromToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Counter)
}

func TestSessionIdleTimeout(t *testing.T) {
	svc := newTestService(t, 50*time.Millisecond)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)

	_, token, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	// within the idle window the gate passes and renews
	_, err = svc.SessionFromToken(ctx, token)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	_, err = svc.SessionFromToken(ctx, token)
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogoutDestroysSession(t *testing.T) {
	svc := newTestService(t, time.Minute)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)

	session, token, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.ID))

	_, err = svc.SessionFromToken(ctx, token)
	require.ErrorIs(t, err, ErrNotAuthenticated)

	// logging out twice is harmless
	require.NoError(t, svc.Logout(ctx, session.ID))
}

func TestGarbageTokenIsNotAuthenticated(t *testing.T) {
	svc := newTestService(t, time.Minute)

	_, err := svc.SessionFromToken(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
