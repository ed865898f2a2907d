package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	comatproto "github.com/bluesky-social/indigo/api/atproto"
	"github.com/bluesky-social/indigo/xrpc"
)

// SessionManager handles AT Protocol app-password sessions
type SessionManager struct {
	client *http.Client
	host   string
}

// NewSessionManager creates a session manager for the given PDS host
func NewSessionManager(host string, timeout time.Duration) *SessionManager {
	return &SessionManager{
		client: &http.Client{Timeout: timeout},
		host:   strings.TrimRight(host, "/"),
	}
}

// CreateSession authenticates with identifier and password (app password)
func (m *SessionManager) CreateSession(ctx context.Context, identifier, password string) (*Credentials, error) {
	xc := &xrpc.Client{Client: m.client, Host: m.host}

	out, err := comatproto.ServerCreateSession(ctx, xc, &comatproto.ServerCreateSession_Input{
		Identifier: strings.TrimPrefix(strings.TrimSpace(identifier), "@"),
		Password:   password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Credentials{
		Handle:       out.Handle,
		DID:          out.Did,
		AccessToken:  out.AccessJwt,
		RefreshToken: out.RefreshJwt,
		Service:      m.host,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

// RefreshSession exchanges the refresh token for a new session
func (m *SessionManager) RefreshSession(ctx context.Context, creds *Credentials) (*Credentials, error) {
	if creds == nil || creds.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	xc := &xrpc.Client{Client: m.client, Host: m.host, Auth: creds.AuthInfo()}

	out, err := comatproto.ServerRefreshSession(ctx, xc)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	return &Credentials{
		Handle:       out.Handle,
		DID:          out.Did,
		AccessToken:  out.AccessJwt,
		RefreshToken: out.RefreshJwt,
		Service:      m.host,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}
