package session

import (
	"context"
	"errors"
	"sync"

	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/core"
	"go.uber.org/zap"
)

// Identity recovers an existing session from outside the client.
type Identity interface {
	Current(ctx context.Context) (*Session, error)
}

// SignOuter is implemented by identity collaborators that hold their own
// sign-in state.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// Authenticator exchanges an email for a token.
type Authenticator interface {
	Login(ctx context.Context, email string) (*backend.LoginResult, error)
}

// Manager owns the in-memory session.
type Manager struct {
	mu       sync.RWMutex
	current  Session
	store    Store
	identity Identity
	auth     Authenticator
	logger   *zap.Logger
}

// NewManager creates a manager with an empty session. identity may be nil,
// in which case Restore falls back to the store when it can act as one.
func NewManager(store Store, identity Identity, auth Authenticator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if identity == nil {
		if id, ok := store.(Identity); ok {
			identity = id
		}
	}
	return &Manager{
		store:    store,
		identity: identity,
		auth:     auth,
		logger:   logger,
	}
}

// Restore tries to recover an existing session. Absence or failure leaves
// the session empty; the app runs regardless.
func (m *Manager) Restore(ctx context.Context) Session {
	if m.identity == nil {
		return m.Current()
	}
	s, err := m.identity.Current(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrNoSession) {
			m.logger.Warn("session restore failed", zap.Error(err))
		}
		return m.Current()
	}

	m.mu.Lock()
	m.current = Session{Authenticated: true, Email: s.Email, Token: s.Token}
	m.mu.Unlock()

	m.logger.Debug("session restored", zap.String("email", s.Email))
	return m.Current()
}

// Login authenticates email and persists the granted pair.
func (m *Manager) Login(ctx context.Context, email string) (Session, error) {
	res, err := m.auth.Login(ctx, email)
	if err != nil {
		return m.Current(), err
	}

	s := Session{Authenticated: true, Email: res.Email, Token: res.Token}
	if s.Email == "" {
		s.Email = email
	}
	if err := m.store.Save(s); err != nil {
		// The session still works for this run.
		m.logger.Warn("failed to persist session", zap.Error(err))
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Info("logged in", zap.String("email", s.Email))
	return s, nil
}

// Logout clears the session, the persisted pair and, when supported, the
// identity collaborator's own state.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.current = Session{}
	m.mu.Unlock()

	var errs []error
	if err := m.store.Clear(); err != nil {
		errs = append(errs, err)
	}
	if so, ok := m.identity.(SignOuter); ok {
		if err := so.SignOut(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Current returns a copy of the session.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Token returns the bearer token, empty when logged out.
func (m *Manager) Token() string {
	return m.Current().Token
}
