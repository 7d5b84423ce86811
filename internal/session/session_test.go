package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	result *backend.LoginResult
	err    error
	emails []string
}

func (f *fakeAuth) Login(ctx context.Context, email string) (*backend.LoginResult, error) {
	f.emails = append(f.emails, email)
	return f.result, f.err
}

type fakeIdentity struct {
	session   *Session
	err       error
	signedOut bool
}

func (f *fakeIdentity) Current(ctx context.Context) (*Session, error) {
	return f.session, f.err
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signedOut = true
	return nil
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileStore(path)

	_, err := store.Load()
	assert.True(t, errors.Is(err, core.ErrNoSession))

	require.NoError(t, store.Save(Session{Email: "a@example.com", Token: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	s, err := store.Load()
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "a@example.com", s.Email)
	assert.Equal(t, "tok", s.Token)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.True(t, errors.Is(err, core.ErrNoSession))

	// Clearing twice is fine.
	assert.NoError(t, store.Clear())
}

func TestFileStore_EmptyTokenIsNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("email: a@example.com\n"), 0600))

	_, err := NewFileStore(path).Load()
	assert.True(t, errors.Is(err, core.ErrNoSession))
}

func TestManager_RestoreFromStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	require.NoError(t, store.Save(Session{Email: "a@example.com", Token: "tok"}))

	m := NewManager(store, nil, &fakeAuth{}, nil)
	s := m.Restore(context.Background())

	assert.True(t, s.Authenticated)
	assert.Equal(t, "tok", m.Token())
}

func TestManager_RestoreFailureLeavesEmptySession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	id := &fakeIdentity{err: errors.New("identity provider offline")}

	m := NewManager(store, id, &fakeAuth{}, nil)
	s := m.Restore(context.Background())

	assert.False(t, s.Authenticated)
	assert.Empty(t, m.Token())
}

func TestManager_LoginPersists(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	auth := &fakeAuth{result: &backend.LoginResult{Email: "a@example.com", Token: "granted"}}

	m := NewManager(store, nil, auth, nil)
	s, err := m.Login(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, []string{"a@example.com"}, auth.emails)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "granted", stored.Token)
}

func TestManager_LoginFailureKeepsSession(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	auth := &fakeAuth{err: core.WithMessage(core.ErrLoginFailed, "Email is required")}

	m := NewManager(store, nil, auth, nil)
	_, err := m.Login(context.Background(), "")
	assert.True(t, errors.Is(err, core.ErrLoginFailed))
	assert.False(t, m.Current().Authenticated)

	_, err = store.Load()
	assert.True(t, errors.Is(err, core.ErrNoSession))
}

func TestManager_LogoutClearsEverything(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.yaml"))
	id := &fakeIdentity{session: &Session{Email: "a@example.com", Token: "tok"}}

	m := NewManager(store, id, &fakeAuth{result: &backend.LoginResult{Email: "a@example.com", Token: "tok"}}, nil)
	_, err := m.Login(context.Background(), "a@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, Session{}, m.Current())
	assert.True(t, id.signedOut)

	_, err = store.Load()
	assert.True(t, errors.Is(err, core.ErrNoSession))
}
