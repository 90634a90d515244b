package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionRoundTripWithFlashAndJSON(t *testing.T) {
	_, client := newTestRedis(t)
	manager := NewSessionManager(client, "test_session", "secret", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: FlashSuccess, Message: "saved"})
	require.NoError(t, sess.SetJSON("draft:new", map[string]string{"businessName": "Acme"}))

	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	loaded, err := manager.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)

	var draft map[string]string
	require.True(t, loaded.GetJSON("draft:new", &draft))
	assert.Equal(t, "Acme", draft["businessName"])

	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "saved", flash.Message)
	assert.Nil(t, loaded.PopFlash())

	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), next, loaded))
	again, err := manager.Load(ctx, next)
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash(), "flash is shown once")
}

func TestSessionDestroyClearsStore(t *testing.T) {
	mr, client := newTestRedis(t)
	manager := NewSessionManager(client, "test_session", "secret", time.Hour, false)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(ctx, req)
	require.NoError(t, err)
	require.NoError(t, manager.Commit(ctx, httptest.NewRecorder(), req, sess))
	assert.True(t, mr.Exists("synapse:session:"+sess.ID))

	manager.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, manager.Commit(ctx, res, req, sess))
	assert.False(t, mr.Exists("synapse:session:"+sess.ID))
	assert.Equal(t, -1, res.Result().Cookies()[0].MaxAge)
}

func TestCSRFTokenLifecycle(t *testing.T) {
	_, client := newTestRedis(t)
	manager := NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := NewCSRFManager("csrf-secret")
	ctx := context.Background()

	sess, err := manager.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "anything"), ErrCSRFTokenMissing)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, token+"x"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
}

func TestRedisGuard(t *testing.T) {
	mr, client := newTestRedis(t)
	guard := NewRedisGuard(client, time.Minute)
	ctx := context.Background()

	token, ok, err := guard.Acquire(ctx, "approval:42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = guard.Acquire(ctx, "approval:42")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = guard.Acquire(ctx, "approval:43")
	require.NoError(t, err)
	assert.True(t, ok)

	held, err := guard.Held(ctx, "approval:42")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, guard.Release(ctx, "approval:42", token))
	held, err = guard.Held(ctx, "approval:42")
	require.NoError(t, err)
	assert.False(t, held)

	mr.FastForward(2 * time.Minute)
	held, err = guard.Held(ctx, "approval:43")
	require.NoError(t, err)
	assert.False(t, held, "abandoned keys expire")
}

func TestRedisGuardLateReleaseKeepsNewerHold(t *testing.T) {
	mr, client := newTestRedis(t)
	guard := NewRedisGuard(client, time.Minute)
	ctx := context.Background()

	stale, ok, err := guard.Acquire(ctx, "submit:7")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	current, ok, err := guard.Acquire(ctx, "submit:7")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, stale, current)

	require.NoError(t, guard.Release(ctx, "submit:7", stale))
	held, err := guard.Held(ctx, "submit:7")
	require.NoError(t, err)
	assert.True(t, held, "expired holder must not free the newer hold")

	require.NoError(t, guard.Release(ctx, "submit:7", current))
	held, err = guard.Held(ctx, "submit:7")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestUserSafeMessage(t *testing.T) {
	assert.Equal(t, "", UserSafeMessage(nil))
	assert.Equal(t, "The request took too long. Please try again.", UserSafeMessage(context.DeadlineExceeded))
	assert.Equal(t, "Something went wrong. Please try again.", UserSafeMessage(assert.AnError))
}
