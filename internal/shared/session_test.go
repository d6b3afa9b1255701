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

func roundTrip(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionAuthenticatedSurvivesCommit(t *testing.T) {
	stores := map[string]SessionStore{
		"memory": NewMemorySessionStore(),
		"redis": func() SessionStore {
			mr := miniredis.RunT(t)
			return NewRedisSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
		}(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			sm := NewSessionManager(store, "tablero_session", "secret", time.Hour, false)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			sess, err := sm.Load(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, sess.Authenticated())

			sess.SetAuthenticated(true)
			sess.Set("next", "/juridica")
			cookie := roundTrip(t, sm, sess)

			req = httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(cookie)
			loaded, err := sm.Load(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, sess.ID, loaded.ID)
			assert.True(t, loaded.Authenticated())
			assert.Equal(t, "/juridica", loaded.Get("next"))
		})
	}
}

func TestSessionDestroyClearsCookie(t *testing.T) {
	store := NewMemorySessionStore()
	sm := NewSessionManager(store, "tablero_session", "secret", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetAuthenticated(true)
	cookie := roundTrip(t, sm, sess)

	sm.Destroy(sess)
	cleared := roundTrip(t, sm, sess)
	assert.Equal(t, -1, cleared.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	fresh, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, fresh.ID)
	assert.False(t, fresh.Authenticated())
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(context.Background(), "a", []byte("{}"), time.Minute))

	_, err := store.Load(context.Background(), "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(context.Background(), "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFlashPopOrder(t *testing.T) {
	sess := &Session{}
	sess.AddFlash(FlashMessage{Kind: "danger", Message: "uno"})
	sess.AddFlash(FlashMessage{Kind: "info", Message: "dos"})
	assert.Equal(t, "uno", sess.PopFlash().Message)
	assert.Equal(t, "dos", sess.PopFlash().Message)
	assert.Nil(t, sess.PopFlash())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	m := NewCSRFManager("csrfsecret")
	sess := &Session{ID: "abc"}
	ctx := context.Background()

	token, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := m.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, m.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, "bogus"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)

	m.Rotate(sess)
	assert.ErrorIs(t, m.VerifyToken(ctx, sess, token), ErrCSRFTokenMissing)
}
