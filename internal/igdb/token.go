package igdb

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var tokenEndpoint = "https://id.twitch.tv/oauth2/token"

const (
	defaultTokenTimeout = 15 * time.Second
	// expirySkew retires a cached token a little before the server does.
	expirySkew = 5 * time.Minute
)

// AppToken is a client-credentials bearer and the moment it stops working.
// It is also the token file format.
type AppToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (t AppToken) validAt(now time.Time) bool {
	return strings.TrimSpace(t.AccessToken) != "" && now.Add(expirySkew).Before(t.ExpiresAt)
}

// TokenSource hands out Twitch app access tokens for IGDB. When TokenFile
// is set, tokens are cached there across runs.
type TokenSource struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	HTTP         *http.Client

	now func() time.Time

	mu     sync.Mutex
	cached AppToken
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Status      int    `json:"status"`
	Message     string `json:"message"`
}

// Token returns a usable bearer, requesting a new one only when neither the
// in-memory copy nor the token file holds a live token.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.cached.validAt(now) {
		return s.cached.AccessToken, nil
	}

	if path := strings.TrimSpace(s.TokenFile); path != "" {
		if tok, err := readTokenFile(path); err == nil && tok.validAt(now) {
			s.cached = tok
			return tok.AccessToken, nil
		} else if err != nil && !os.IsNotExist(errors.Cause(err)) {
			log.Printf("igdb: ignoring token file %s: %v", path, err)
		}
	}

	tok, err := s.request(ctx, now)
	if err != nil {
		return "", err
	}
	s.cached = tok

	if path := strings.TrimSpace(s.TokenFile); path != "" {
		if err := writeTokenFile(path, tok); err != nil {
			log.Printf("igdb: cache token: %v", err)
		}
	}
	log.Printf("igdb: obtained app token; expires at %s", tok.ExpiresAt.Format(time.RFC3339))
	return tok.AccessToken, nil
}

func (s *TokenSource) request(ctx context.Context, now time.Time) (AppToken, error) {
	clientID := strings.TrimSpace(s.ClientID)
	clientSecret := strings.TrimSpace(s.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return AppToken{}, errors.New("igdb: token request requires client id and secret")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTokenTimeout)
		defer cancel()
	}

	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return AppToken{}, errors.Wrap(err, "igdb: build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient(s.HTTP).Do(req)
	if err != nil {
		return AppToken{}, errors.Wrap(err, "igdb: token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return AppToken{}, errors.Wrap(err, "igdb: read token response")
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return AppToken{}, errors.Wrapf(err, "igdb: decode token response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(parsed.Message)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return AppToken{}, errors.Errorf("igdb: token status %d: %s", resp.StatusCode, msg)
	}

	token := strings.TrimSpace(parsed.AccessToken)
	if token == "" {
		return AppToken{}, errors.New("igdb: empty access_token")
	}

	expiresIn := time.Duration(parsed.ExpiresIn) * time.Second
	if parsed.ExpiresIn <= 0 {
		expiresIn = time.Hour
	}
	return AppToken{AccessToken: token, ExpiresAt: now.Add(expiresIn).UTC()}, nil
}

func (s *TokenSource) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func readTokenFile(path string) (AppToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppToken{}, errors.Wrap(err, "read token file")
	}
	var tok AppToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return AppToken{}, errors.Wrap(err, "decode token file")
	}
	return tok, nil
}

func writeTokenFile(path string, tok AppToken) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrap(err, "encode token")
	}
	if err := atomicWrite(path, append(data, '\n'), 0o600); err != nil {
		return errors.Wrapf(err, "write token file %s", path)
	}
	return nil
}

func atomicWrite(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Chmod(path, mode)
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}
