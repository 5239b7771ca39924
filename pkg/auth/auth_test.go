package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-go/vai-speak/pkg/core"
)

func TestFileStore_RoundTripAndClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "token.json")
	store := NewFileStore(path)

	tok, err := store.Token(context.Background())
	if err != nil {
		t.Fatalf("Token on missing file error: %v", err)
	}
	if tok != "" {
		t.Fatalf("Token=%q, want empty", tok)
	}

	if err := store.Save("  abc.def  "); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm=%v, want 0600", perm)
	}

	tok, err = store.Load()
	if err != nil || tok != "abc.def" {
		t.Fatalf("Load=%q,%v, want abc.def", tok, err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear error: %v", err)
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatalf("token after clear=%q", tok)
	}
}

func TestFileStore_SaveRejectsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "token.json"))
	if err := store.Save("  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestChain_FirstNonEmptyWins(t *testing.T) {
	t.Parallel()

	env := EnvToken{Name: "SPEAK_TOKEN", Getenv: func(string) string { return "" }}
	chain := Chain{env, nil, StaticToken("fallback"), StaticToken("ignored")}
	tok, err := chain.Token(context.Background())
	if err != nil || tok != "fallback" {
		t.Fatalf("Token=%q,%v, want fallback", tok, err)
	}

	env.Getenv = func(string) string { return " from-env " }
	tok, _ = Chain{env, StaticToken("fallback")}.Token(context.Background())
	if tok != "from-env" {
		t.Fatalf("Token=%q, want from-env", tok)
	}

	if tok, _ := (Chain{}).Token(context.Background()); tok != "" {
		t.Fatalf("empty chain Token=%q", tok)
	}
}

func TestChain_PropagatesErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := (Chain{NewFileStore(path), StaticToken("x")}).Token(context.Background()); err == nil {
		t.Fatalf("expected error from corrupt file store")
	}
}

func TestClient_Login(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path=%q", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ana@example.com" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok_123","token_type":"bearer"}`))
	}))
	defer server.Close()

	c := &Client{BaseURL: server.URL, HTTPClient: server.Client()}
	resp, err := c.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if resp.AccessToken != "tok_123" {
		t.Fatalf("AccessToken=%q", resp.AccessToken)
	}

	_, err = c.Login(context.Background(), "ana@example.com", "wrong")
	var apiErr *core.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *core.Error, got %T %v", err, err)
	}
	if apiErr.Type != core.ErrAuthentication || apiErr.Message != "Incorrect email or password" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}

	if _, err := c.Login(context.Background(), " ", "x"); err == nil {
		t.Fatalf("expected validation error for empty email")
	}
}

func TestClient_MeAndRegister(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/me":
			if r.Method != http.MethodGet {
				t.Errorf("me method=%s", r.Method)
			}
			if r.Header.Get("Authorization") != "Bearer tok_123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"u1","email":"ana@example.com","full_name":"Ana Lima"}`))
		case "/auth/register":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["full_name"] != "Ana Lima" || body["password"] != "secret" {
				t.Errorf("register body=%v", body)
			}
			_, _ = w.Write([]byte(`{"id":"u1","email":"` + body["email"] + `","full_name":"` + body["full_name"] + `"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	c := &Client{BaseURL: server.URL, HTTPClient: server.Client()}

	user, err := c.Me(context.Background(), "tok_123")
	if err != nil {
		t.Fatalf("Me error: %v", err)
	}
	if *user != (User{ID: "u1", Email: "ana@example.com", FullName: "Ana Lima"}) {
		t.Fatalf("user=%+v", user)
	}

	_, err = c.Me(context.Background(), "expired")
	if !IsUnauthorized(err) {
		t.Fatalf("Me with rejected token err=%v, want authentication error", err)
	}
	if _, err := c.Me(context.Background(), ""); !IsUnauthorized(err) {
		t.Fatalf("Me without token err=%v, want authentication error", err)
	}

	created, err := c.Register(context.Background(), "ana@example.com", "secret", "Ana Lima")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if created.Email != "ana@example.com" || created.FullName != "Ana Lima" {
		t.Fatalf("created=%+v", created)
	}
	if _, err := c.Register(context.Background(), "", "secret", "Ana"); err == nil {
		t.Fatalf("expected validation error for empty email")
	}
}
