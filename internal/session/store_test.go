package session

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := Open(path, nil)
	if s.LoggedIn() {
		t.Fatal("fresh store should be logged out")
	}
	s.SetCredentials("tok-123", Profile{"email": "a@b.example"})

	reopened := Open(path, nil)
	if got := reopened.Token(); got != "tok-123" {
		t.Errorf("Token() after reopen = %q, want %q", got, "tok-123")
	}
	if got := reopened.Profile()["email"]; got != "a@b.example" {
		t.Errorf("Profile() after reopen = %v", got)
	}
}

func TestStoreClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := Open(path, nil)
	s.SetCredentials("tok", nil)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("session file not written: %v", err)
	}

	s.Clear()
	if s.LoggedIn() {
		t.Error("store still logged in after Clear")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file still present after Clear: %v", err)
	}

	if Open(path, nil).LoggedIn() {
		t.Error("reopened store logged in after Clear")
	}
}

func TestStoreCorruptFileIsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := Open(path, nil)
	if s.LoggedIn() {
		t.Error("corrupt session file must yield a logged-out store")
	}
}

func TestProfileIgnoredWithoutCredential(t *testing.T) {
	s := Open("", nil)
	s.SetCredentials("tok", Profile{"name": "x"})
	s.Clear()
	if got := s.Profile(); got != nil {
		t.Errorf("Profile() without credential = %v, want nil", got)
	}
}

func TestExpiresAt(t *testing.T) {
	s := Open("", nil)

	if _, ok := s.ExpiresAt(); ok {
		t.Error("ExpiresAt() = ok without a token")
	}

	s.SetCredentials("opaque-token", nil)
	if _, ok := s.ExpiresAt(); ok {
		t.Error("ExpiresAt() = ok for an opaque token")
	}

	exp := time.Now().Add(time.Hour).Unix()
	s.SetCredentials(unsignedJWT(t, exp), nil)
	got, ok := s.ExpiresAt()
	if !ok {
		t.Fatal("ExpiresAt() not ok for a JWT with exp claim")
	}
	if got.Unix() != exp {
		t.Errorf("ExpiresAt() = %v, want unix %d", got, exp)
	}
}

// unsignedJWT builds a minimal JWT-shaped token; ParseUnverified only needs
// the structure, not a valid signature.
func unsignedJWT(t *testing.T, exp int64) string {
	t.Helper()
	enc := func(v any) string {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		return base64.RawURLEncoding.EncodeToString(data)
	}
	header := enc(map[string]string{"alg": "HS256", "typ": "JWT"})
	claims := enc(map[string]int64{"exp": exp})
	return header + "." + claims + ".x"
}
