package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testWindow() DateWindow {
	lower := time.Date(2001, time.November, 15, 0, 0, 0, 0, time.UTC)
	return DateWindow{Lower: lower, Upper: lower.Add(windowSpan)}
}

func newCatalogServer(t *testing.T, games http.HandlerFunc) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	tokenCalls := &atomic.Int64{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":400,"message":"invalid grant"}`))
			return
		}
		if r.Form.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"status":403,"message":"invalid client secret"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"app-token","expires_in":5000000,"token_type":"bearer"}`))
	})
	mux.HandleFunc("/v4/games", games)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	origToken, origBase := tokenEndpoint, apiBaseURL
	tokenEndpoint = srv.URL + "/oauth2/token"
	apiBaseURL = srv.URL + "/v4"
	t.Cleanup(func() {
		tokenEndpoint = origToken
		apiBaseURL = origBase
	})
	return srv, tokenCalls
}

func TestGamesSendsQuery(t *testing.T) {
	var gotBody, gotAuth, gotClient string
	srv, tokenCalls := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotAuth = r.Header.Get("Authorization")
		gotClient = r.Header.Get("Client-ID")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Halo"},{"id":2,"name":"Oops","genres":"not-a-list"}]`))
	})

	c, err := NewClient(context.Background(), Options{ClientID: "cid", ClientSecret: "secret", HTTP: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	records, err := c.Games(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Games: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 raw records, got %d", len(records))
	}
	if gotAuth != "Bearer app-token" || gotClient != "cid" {
		t.Fatalf("unexpected auth headers %q %q", gotAuth, gotClient)
	}
	if gotBody != QueryBody(testWindow()) {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if tokenCalls.Load() != 1 {
		t.Fatalf("expected one token request, got %d", tokenCalls.Load())
	}
}

func TestGamesEmptyResult(t *testing.T) {
	srv, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	c, err := NewClient(context.Background(), Options{ClientID: "cid", Token: "static", HTTP: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	records, err := c.Games(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestGamesServerErrorObject(t *testing.T) {
	srv, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"title":"Internal Server Error","status":500,"cause":"try again later"}]`))
	})
	c, err := NewClient(context.Background(), Options{ClientID: "cid", Token: "static", HTTP: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Games(context.Background(), testWindow())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestGamesHTTPStatus(t *testing.T) {
	srv, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Authorization Failure"}`))
	})
	c, err := NewClient(context.Background(), Options{ClientID: "cid", Token: "static", HTTP: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Games(context.Background(), testWindow())
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNewClientStaticTokenSkipsTokenRequest(t *testing.T) {
	srv, tokenCalls := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer static" {
			t.Errorf("unexpected authorization %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	c, err := NewClient(context.Background(), Options{ClientID: "cid", Token: "static", HTTP: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Games(context.Background(), testWindow()); err != nil {
		t.Fatalf("Games: %v", err)
	}
	if tokenCalls.Load() != 0 {
		t.Fatalf("static token should not request a new one")
	}
}

func TestNewClientBadCredentials(t *testing.T) {
	srv, _ := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("games should not be queried")
	})
	_, err := NewClient(context.Background(), Options{ClientID: "cid", ClientSecret: "wrong", HTTP: srv.Client()})
	if err == nil || !strings.Contains(err.Error(), "invalid client secret") {
		t.Fatalf("expected credential error, got %v", err)
	}

	if _, err := NewClient(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error for missing client id")
	}
}

func TestTokenFileReusedAcrossRuns(t *testing.T) {
	srv, tokenCalls := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {})
	path := filepath.Join(t.TempDir(), "igdb", "token.json")

	src := &TokenSource{ClientID: "cid", ClientSecret: "secret", TokenFile: path, HTTP: srv.Client()}
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "app-token" {
		t.Fatalf("unexpected token %q", tok)
	}

	cached, err := readTokenFile(path)
	if err != nil {
		t.Fatalf("readTokenFile: %v", err)
	}
	if cached.AccessToken != "app-token" || cached.ExpiresAt.IsZero() {
		t.Fatalf("unexpected cached token %+v", cached)
	}

	next := &TokenSource{ClientID: "cid", ClientSecret: "secret", TokenFile: path, HTTP: srv.Client()}
	if _, err := next.Token(context.Background()); err != nil {
		t.Fatalf("second Token: %v", err)
	}
	if tokenCalls.Load() != 1 {
		t.Fatalf("expected token file reuse, got %d requests", tokenCalls.Load())
	}
}

func TestTokenFileExpiredIsRefreshed(t *testing.T) {
	srv, tokenCalls := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {})
	path := filepath.Join(t.TempDir(), "token.json")

	stale := AppToken{AccessToken: "old", ExpiresAt: time.Now().Add(time.Minute)}
	data, _ := json.Marshal(stale)
	if err := atomicWrite(path, data, 0o600); err != nil {
		t.Fatalf("seed token file: %v", err)
	}

	src := &TokenSource{ClientID: "cid", ClientSecret: "secret", TokenFile: path, HTTP: srv.Client()}
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "app-token" {
		t.Fatalf("expected a fresh token, got %q", tok)
	}
	if tokenCalls.Load() != 1 {
		t.Fatalf("expected one token request, got %d", tokenCalls.Load())
	}
}

func TestTokenInMemoryCache(t *testing.T) {
	srv, tokenCalls := newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {})
	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	src := &TokenSource{ClientID: "cid", ClientSecret: "secret", HTTP: srv.Client(), now: func() time.Time { return now }}

	for i := 0; i < 3; i++ {
		if _, err := src.Token(context.Background()); err != nil {
			t.Fatalf("Token: %v", err)
		}
	}
	if tokenCalls.Load() != 1 {
		t.Fatalf("expected the token to be cached, got %d requests", tokenCalls.Load())
	}
}
