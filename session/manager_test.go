package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (*Identity, error) { return nil, f.err }
func (f failingStore) Save(context.Context, string, *Identity, time.Duration) error {
	return f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }

func newTestManager(t *testing.T, store Store) *Manager {
	m, err := NewManager(store, "test-secret", ManagerConfig{CookieName: "sid", Secure: true}, zap.NewNop())
	require.NoError(t, err)
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager(NewMemoryStore(), "", ManagerConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestManager_SaveThenLoad(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	ident := NewIdentity(testClaims("admin-group"), "admin-group")

	rec := httptest.NewRecorder()
	id, err := m.Save(context.Background(), rec, "", ident)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "sid", c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.NotEqual(t, id, c.Value, "cookie carries a signed value, not the raw id")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	gotID, got := m.Load(req)

	assert.Equal(t, id, gotID)
	require.NotNil(t, got)
	assert.Equal(t, ident.UPN, got.UPN)
}

func TestManager_SaveExistingSessionKeepsCookie(t *testing.T) {
	m := newTestManager(t, NewMemoryStore())
	rec := httptest.NewRecorder()

	id, err := m.Save(context.Background(), rec, "existing-id", NewIdentity(testClaims(), "g"))

	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
	assert.Empty(t, rec.Result().Cookies())
}

func TestManager_Load(t *testing.T) {
	t.Run("no cookie", func(t *testing.T) {
		m := newTestManager(t, NewMemoryStore())
		id, ident := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, id)
		assert.Nil(t, ident)
	})

	t.Run("tampered cookie", func(t *testing.T) {
		m := newTestManager(t, NewMemoryStore())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})

		id, ident := m.Load(req)
		assert.Empty(t, id)
		assert.Nil(t, ident)
	})

	t.Run("cookie signed with another secret", func(t *testing.T) {
		other, err := NewManager(NewMemoryStore(), "other-secret", ManagerConfig{CookieName: "sid"}, zap.NewNop())
		require.NoError(t, err)
		rec := httptest.NewRecorder()
		_, err = other.Save(context.Background(), rec, "", NewIdentity(testClaims(), "g"))
		require.NoError(t, err)

		m := newTestManager(t, NewMemoryStore())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(rec.Result().Cookies()[0])

		id, ident := m.Load(req)
		assert.Empty(t, id)
		assert.Nil(t, ident)
	})

	t.Run("store failure is an empty session", func(t *testing.T) {
		good := newTestManager(t, NewMemoryStore())
		rec := httptest.NewRecorder()
		id, err := good.Save(context.Background(), rec, "", NewIdentity(testClaims(), "g"))
		require.NoError(t, err)

		m := newTestManager(t, failingStore{err: errors.New("connection refused")})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(rec.Result().Cookies()[0])

		gotID, ident := m.Load(req)
		assert.Equal(t, id, gotID)
		assert.Nil(t, ident)
	})
}

func TestManager_SaveStoreFailure(t *testing.T) {
	m := newTestManager(t, failingStore{err: errors.New("connection refused")})

	_, err := m.Save(context.Background(), httptest.NewRecorder(), "", NewIdentity(testClaims(), "g"))

	assert.Error(t, err)
}

func TestManager_Clear(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(t, store)
	require.NoError(t, store.Save(context.Background(), "abc", NewIdentity(testClaims(), "g"), time.Minute))

	require.NoError(t, m.Clear(context.Background(), "abc"))
	require.NoError(t, m.Clear(context.Background(), ""))
	assert.Equal(t, 0, store.Len())
}
