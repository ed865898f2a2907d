// Package auth provides authentication and credential management
package auth

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"github.com/bluesky-social/indigo/xrpc"
)

const (
	ServiceName = "autothread"

	userKeyPrefix = "user:"
	defaultKey    = "default_handle"
)

// Credentials stores an app-password session for one account
type Credentials struct {
	Handle       string    `json:"handle"`
	DID          string    `json:"did"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Service      string    `json:"service,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// AuthInfo converts the credentials into the xrpc session form
func (c *Credentials) AuthInfo() *xrpc.AuthInfo {
	return &xrpc.AuthInfo{
		AccessJwt:  c.AccessToken,
		RefreshJwt: c.RefreshToken,
		Handle:     c.Handle,
		Did:        c.DID,
	}
}

// CredentialStore manages secure credential storage
type CredentialStore struct {
	ring keyring.Keyring
}

// DefaultKeyringConfig prefers the OS keyring and falls back to an
// encrypted file under ~/.autothread
func DefaultKeyringConfig() keyring.Config {
	return keyring.Config{
		ServiceName:              ServiceName,
		KeychainName:             ServiceName,
		FileDir:                  filepath.Join(os.Getenv("HOME"), "."+ServiceName),
		FilePasswordFunc:         keyring.FixedStringPrompt(ServiceName + "-default-key"),
		AllowedBackends:          []keyring.BackendType{keyring.KeychainBackend, keyring.SecretServiceBackend, keyring.WinCredBackend, keyring.FileBackend},
		KeychainTrustApplication: true,
	}
}

// NewCredentialStore opens the default keyring
func NewCredentialStore() (*CredentialStore, error) {
	return NewCredentialStoreWithConfig(DefaultKeyringConfig())
}

// NewCredentialStoreWithConfig opens a keyring with an explicit configuration
func NewCredentialStoreWithConfig(cfg keyring.Config) (*CredentialStore, error) {
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return &CredentialStore{ring: ring}, nil
}

// Save stores credentials for a handle
func (s *CredentialStore) Save(creds *Credentials) error {
	if creds.Handle == "" {
		return fmt.Errorf("credentials have no handle")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := s.ring.Set(keyring.Item{
		Key:   userKeyPrefix + creds.Handle,
		Data:  data,
		Label: fmt.Sprintf("%s session for %s", ServiceName, creds.Handle),
	}); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	return nil
}

// Load retrieves credentials for a handle
func (s *CredentialStore) Load(handle string) (*Credentials, error) {
	item, err := s.ring.Get(userKeyPrefix + handle)
	if err != nil {
		if stderrors.Is(err, keyring.ErrKeyNotFound) {
			return nil, fmt.Errorf("no credentials found for handle: %s", handle)
		}
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(item.Data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return &creds, nil
}

// Delete removes credentials for a handle
func (s *CredentialStore) Delete(handle string) error {
	if err := s.ring.Remove(userKeyPrefix + handle); err != nil {
		if stderrors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("no credentials found for handle: %s", handle)
		}
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

// SetDefault sets the default handle
func (s *CredentialStore) SetDefault(handle string) error {
	if err := s.ring.Set(keyring.Item{
		Key:  defaultKey,
		Data: []byte(handle),
	}); err != nil {
		return fmt.Errorf("failed to set default handle: %w", err)
	}
	return nil
}

// GetDefault retrieves the default handle
func (s *CredentialStore) GetDefault() (string, error) {
	item, err := s.ring.Get(defaultKey)
	if err != nil {
		if stderrors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("no default handle set")
		}
		return "", fmt.Errorf("failed to get default handle: %w", err)
	}
	return string(item.Data), nil
}

// ClearDefault removes the default handle, if any
func (s *CredentialStore) ClearDefault() error {
	if err := s.ring.Remove(defaultKey); err != nil && !stderrors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear default handle: %w", err)
	}
	return nil
}

// ListHandles returns all stored handles
func (s *CredentialStore) ListHandles() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var handles []string
	for _, key := range keys {
		if handle, ok := strings.CutPrefix(key, userKeyPrefix); ok {
			handles = append(handles, handle)
		}
	}

	return handles, nil
}
