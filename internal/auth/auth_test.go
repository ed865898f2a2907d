package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/keyring"

	"github.com/oyin-bo/autothread/pkg/errors"
)

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()
	store, err := NewCredentialStoreWithConfig(keyring.Config{
		ServiceName:      ServiceName,
		FileDir:          t.TempDir(),
		FilePasswordFunc: keyring.FixedStringPrompt("test-key"),
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
	})
	if err != nil {
		t.Fatalf("Failed to create credential store: %v", err)
	}
	return store
}

func TestCredentialStore(t *testing.T) {
	store := newTestStore(t)

	testCreds := &Credentials{
		Handle:       "alice.bsky.social",
		AccessToken:  "test-access-token",
		RefreshToken: "test-refresh-token",
		DID:          "did:plc:test123",
	}

	if err := store.Save(testCreds); err != nil {
		t.Fatalf("Failed to save credentials: %v", err)
	}

	loaded, err := store.Load("alice.bsky.social")
	if err != nil {
		t.Fatalf("Failed to load credentials: %v", err)
	}

	if loaded.Handle != testCreds.Handle {
		t.Errorf("Expected handle %s, got %s", testCreds.Handle, loaded.Handle)
	}
	if loaded.AccessToken != testCreds.AccessToken {
		t.Errorf("Expected access token %s, got %s", testCreds.AccessToken, loaded.AccessToken)
	}
	if loaded.RefreshToken != testCreds.RefreshToken {
		t.Errorf("Expected refresh token %s, got %s", testCreds.RefreshToken, loaded.RefreshToken)
	}
	if loaded.DID != testCreds.DID {
		t.Errorf("Expected DID %s, got %s", testCreds.DID, loaded.DID)
	}

	handles, err := store.ListHandles()
	if err != nil {
		t.Fatalf("Failed to list handles: %v", err)
	}
	if len(handles) != 1 || handles[0] != "alice.bsky.social" {
		t.Errorf("Expected [alice.bsky.social], got %v", handles)
	}

	if err := store.Delete("alice.bsky.social"); err != nil {
		t.Fatalf("Failed to delete credentials: %v", err)
	}
	if _, err := store.Load("alice.bsky.social"); err == nil {
		t.Error("Expected error loading deleted credentials")
	}
}

func TestDefaultHandle(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetDefault(); err == nil {
		t.Error("Expected error when no default is set")
	}

	if err := store.SetDefault("bob.bsky.social"); err != nil {
		t.Fatalf("Failed to set default: %v", err)
	}
	handle, err := store.GetDefault()
	if err != nil {
		t.Fatalf("Failed to get default: %v", err)
	}
	if handle != "bob.bsky.social" {
		t.Errorf("Expected bob.bsky.social, got %s", handle)
	}
}

func TestCredentials_AuthInfo(t *testing.T) {
	creds := &Credentials{Handle: "a.test", DID: "did:plc:a", AccessToken: "acc", RefreshToken: "ref"}
	info := creds.AuthInfo()
	if info.AccessJwt != "acc" || info.RefreshJwt != "ref" || info.Did != "did:plc:a" || info.Handle != "a.test" {
		t.Errorf("Unexpected auth info %+v", info)
	}
}

// fakeSessionPDS answers createSession and refreshSession
func fakeSessionPDS(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "app-pass" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"AuthenticationRequired","message":"Invalid identifier or password"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"accessJwt":  "access-1",
				"refreshJwt": "refresh-1",
				"handle":     body["identifier"],
				"did":        "did:plc:alice",
			})
		case "/xrpc/com.atproto.server.refreshSession":
			if r.Header.Get("Authorization") != "Bearer refresh-1" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"ExpiredToken","message":"Token has been revoked"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"accessJwt":  "access-2",
				"refreshJwt": "refresh-2",
				"handle":     "alice.bsky.social",
				"did":        "did:plc:alice",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestManager_LoginAndResume(t *testing.T) {
	server := fakeSessionPDS(t)
	store := newTestStore(t)
	manager := NewManager(NewSessionManager(server.URL, 5*time.Second), store, nil)
	ctx := context.Background()

	creds, err := manager.Login(ctx, "@alice.bsky.social", "app-pass")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if creds.Handle != "alice.bsky.social" || creds.AccessToken != "access-1" {
		t.Errorf("Unexpected credentials %+v", creds)
	}
	if def, _ := store.GetDefault(); def != "alice.bsky.social" {
		t.Errorf("Expected default handle to be set, got %q", def)
	}

	resumed, err := manager.Resume(ctx, "")
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.AccessToken != "access-2" {
		t.Errorf("Expected refreshed access token, got %s", resumed.AccessToken)
	}
	if saved, _ := store.Load("alice.bsky.social"); saved.RefreshToken != "refresh-2" {
		t.Errorf("Expected refreshed session to be persisted, got %s", saved.RefreshToken)
	}
	if manager.Current().AccessToken != "access-2" {
		t.Error("Expected current session to be the refreshed one")
	}
}

func TestManager_LoginRejected(t *testing.T) {
	server := fakeSessionPDS(t)
	manager := NewManager(NewSessionManager(server.URL, 5*time.Second), nil, nil)

	_, err := manager.Login(context.Background(), "alice.bsky.social", "wrong")
	if !errors.HasCode(err, errors.Unauthorized) {
		t.Errorf("Expected unauthorized, got %v", err)
	}

	_, err = manager.Login(context.Background(), "", "")
	if !errors.HasCode(err, errors.InvalidInput) {
		t.Errorf("Expected invalid_input, got %v", err)
	}
}

func TestManager_ResumeWithoutLogin(t *testing.T) {
	server := fakeSessionPDS(t)
	manager := NewManager(NewSessionManager(server.URL, 5*time.Second), newTestStore(t), nil)

	_, err := manager.Resume(context.Background(), "")
	if !errors.HasCode(err, errors.Unauthorized) {
		t.Errorf("Expected unauthorized, got %v", err)
	}
}

func TestManager_Refresh(t *testing.T) {
	server := fakeSessionPDS(t)
	manager := NewManager(NewSessionManager(server.URL, 5*time.Second), nil, nil)
	ctx := context.Background()

	if _, err := manager.Refresh(ctx); !errors.HasCode(err, errors.Unauthorized) {
		t.Errorf("Expected unauthorized without a session, got %v", err)
	}

	if _, err := manager.Login(ctx, "alice.bsky.social", "app-pass"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	info, err := manager.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if info.AccessJwt != "access-2" || info.Did != "did:plc:alice" {
		t.Errorf("Unexpected auth info %+v", info)
	}
}

func TestManager_AccountsAndLogout(t *testing.T) {
	server := fakeSessionPDS(t)
	store := newTestStore(t)
	manager := NewManager(NewSessionManager(server.URL, 5*time.Second), store, nil)
	ctx := context.Background()

	for _, handle := range []string{"bob.bsky.social", "alice.bsky.social"} {
		if _, err := manager.Login(ctx, handle, "app-pass"); err != nil {
			t.Fatalf("Login %s failed: %v", handle, err)
		}
	}

	handles, def, err := manager.Accounts()
	if err != nil {
		t.Fatalf("Accounts failed: %v", err)
	}
	if len(handles) != 2 || handles[0] != "alice.bsky.social" || handles[1] != "bob.bsky.social" {
		t.Errorf("Expected sorted handles, got %v", handles)
	}
	if def != "alice.bsky.social" {
		t.Errorf("Expected last login to be the default, got %q", def)
	}

	if err := manager.UseAccount("bob.bsky.social"); err != nil {
		t.Fatalf("UseAccount failed: %v", err)
	}
	if err := manager.UseAccount("carol.bsky.social"); !errors.HasCode(err, errors.NotFound) {
		t.Errorf("Expected not_found for unknown handle, got %v", err)
	}
	if err := manager.UseAccount("alice.bsky.social"); err != nil {
		t.Fatalf("UseAccount failed: %v", err)
	}

	removed, err := manager.Logout("")
	if err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if removed != "alice.bsky.social" {
		t.Errorf("Expected default account to be logged out, got %s", removed)
	}
	if manager.Current() != nil {
		t.Error("Expected current session to be cleared")
	}
	if _, err := store.GetDefault(); err == nil {
		t.Error("Expected default handle to be cleared")
	}

	if _, err := manager.Logout("carol.bsky.social"); !errors.HasCode(err, errors.NotFound) {
		t.Errorf("Expected not_found for unknown handle, got %v", err)
	}
	if _, err := manager.Logout(""); !errors.HasCode(err, errors.NotFound) {
		t.Errorf("Expected not_found without a default, got %v", err)
	}
}
