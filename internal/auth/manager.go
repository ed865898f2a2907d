package auth

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bluesky-social/indigo/xrpc"
	"go.uber.org/zap"

	"github.com/oyin-bo/autothread/pkg/errors"
)

// Manager keeps the active session current and persists it to the keyring
type Manager struct {
	sessions *SessionManager
	store    *CredentialStore // nil disables persistence
	logger   *zap.Logger

	mu      sync.Mutex
	current *Credentials
}

// NewManager creates a session manager facade. store may be nil.
func NewManager(sessions *SessionManager, store *CredentialStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: sessions,
		store:    store,
		logger:   logger,
	}
}

// Login creates a new session from an app password and makes it the default
func (m *Manager) Login(ctx context.Context, identifier, password string) (*Credentials, error) {
	if identifier == "" || password == "" {
		return nil, errors.NewMCPError(errors.InvalidInput, "identifier and app password are required")
	}

	creds, err := m.sessions.CreateSession(ctx, identifier, password)
	if err != nil {
		return nil, errors.Classify(err)
	}

	m.setCurrent(creds)
	if m.store != nil {
		if err := m.store.Save(creds); err != nil {
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
		if err := m.store.SetDefault(creds.Handle); err != nil {
			return nil, err
		}
	}

	m.logger.Info("logged in", zap.String("handle", creds.Handle), zap.String("did", creds.DID))
	return creds, nil
}

// Resume refreshes the stored session for handle, or for the default handle
// when handle is empty
func (m *Manager) Resume(ctx context.Context, handle string) (*Credentials, error) {
	if m.store == nil {
		return nil, errors.NewMCPError(errors.Unauthorized, "No credential store available")
	}

	if handle == "" {
		var err error
		if handle, err = m.store.GetDefault(); err != nil {
			return nil, errors.Wrap(err, errors.Unauthorized,
				"Not logged in. Run `autothread login` or set BLUESKY_APP_PASSWORD")
		}
	}

	saved, err := m.store.Load(handle)
	if err != nil {
		return nil, errors.Wrap(err, errors.Unauthorized, "Not logged in")
	}

	creds, err := m.sessions.RefreshSession(ctx, saved)
	if err != nil {
		return nil, errors.Classify(err)
	}

	m.setCurrent(creds)
	if err := m.store.Save(creds); err != nil {
		m.logger.Warn("failed to persist refreshed session", zap.Error(err))
	}

	m.logger.Info("session resumed", zap.String("handle", creds.Handle))
	return creds, nil
}

// Refresh exchanges the current refresh token for a new session. It is used
// by the posting client when an access token expires.
func (m *Manager) Refresh(ctx context.Context) (*xrpc.AuthInfo, error) {
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()

	if current == nil {
		return nil, errors.NewMCPError(errors.Unauthorized, "No active session")
	}

	creds, err := m.sessions.RefreshSession(ctx, current)
	if err != nil {
		return nil, err
	}

	m.setCurrent(creds)
	if m.store != nil {
		if err := m.store.Save(creds); err != nil {
			m.logger.Warn("failed to persist refreshed session", zap.Error(err))
		}
	}
	return creds.AuthInfo(), nil
}

// Logout removes the saved session for handle, or for the default handle
// when handle is empty. It returns the handle that was removed.
func (m *Manager) Logout(handle string) (string, error) {
	if m.store == nil {
		return "", errors.NewMCPError(errors.InternalError, "No credential store available")
	}

	defaultHandle, _ := m.store.GetDefault()
	if handle == "" {
		if defaultHandle == "" {
			return "", errors.NewMCPError(errors.NotFound, "No default account to log out")
		}
		handle = defaultHandle
	}

	if err := m.store.Delete(handle); err != nil {
		return "", errors.Wrap(err, errors.NotFound, fmt.Sprintf("No saved session for @%s", handle))
	}
	if handle == defaultHandle {
		if err := m.store.ClearDefault(); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	if m.current != nil && m.current.Handle == handle {
		m.current = nil
	}
	m.mu.Unlock()

	m.logger.Info("logged out", zap.String("handle", handle))
	return handle, nil
}

// Accounts lists saved handles in alphabetical order along with the default
func (m *Manager) Accounts() ([]string, string, error) {
	if m.store == nil {
		return nil, "", nil
	}

	handles, err := m.store.ListHandles()
	if err != nil {
		return nil, "", err
	}
	sort.Strings(handles)

	defaultHandle, _ := m.store.GetDefault()
	return handles, defaultHandle, nil
}

// UseAccount makes a saved handle the default account
func (m *Manager) UseAccount(handle string) error {
	if m.store == nil {
		return errors.NewMCPError(errors.InternalError, "No credential store available")
	}
	if _, err := m.store.Load(handle); err != nil {
		return errors.Wrap(err, errors.NotFound, fmt.Sprintf("No saved session for @%s", handle))
	}
	return m.store.SetDefault(handle)
}

// Current returns the active session, or nil
func (m *Manager) Current() *Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) setCurrent(creds *Credentials) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = creds
}
