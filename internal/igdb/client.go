// Package igdb queries the IGDB game catalog for titles released on a
// given calendar day.
package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var apiBaseURL = "https://api.igdb.com/v4"

// DefaultRequestsPerSecond is IGDB's documented per-client limit.
const DefaultRequestsPerSecond = 4

// ErrServer is returned when IGDB answers with an error object in place of
// a result list.
var ErrServer = errors.New("igdb: server error, try again later")

type Options struct {
	ClientID     string
	ClientSecret string
	// Token is a static bearer. When set no token request is made.
	Token string
	// TokenFile caches requested tokens between runs.
	TokenFile         string
	RequestsPerSecond float64
	HTTP              *http.Client
}

type Client struct {
	clientID string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
}

type errorObject struct {
	ID     int64  `json:"id"`
	Status int    `json:"status"`
	Title  string `json:"title"`
	Cause  string `json:"cause"`
}

// NewClient resolves a bearer token and returns a client ready to query.
// Credential failures surface here so the daily run fails before any
// window is queried.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	clientID := strings.TrimSpace(opts.ClientID)
	if clientID == "" {
		return nil, errors.New("igdb: client id is required")
	}

	token := strings.TrimSpace(opts.Token)
	if token == "" {
		src := &TokenSource{
			ClientID:     clientID,
			ClientSecret: opts.ClientSecret,
			TokenFile:    opts.TokenFile,
			HTTP:         opts.HTTP,
		}
		var err error
		if token, err = src.Token(ctx); err != nil {
			return nil, errors.Wrap(err, "igdb: authenticate")
		}
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	return &Client{
		clientID: clientID,
		token:    token,
		http:     httpClient(opts.HTTP),
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Games returns the raw records released inside w. Records are left
// undecoded so one malformed entry cannot spoil the rest of the window.
func (c *Client) Games(ctx context.Context, w DateWindow) ([]json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "igdb: rate limit wait")
	}

	endpoint := strings.TrimSuffix(apiBaseURL, "/") + "/games"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(QueryBody(w)))
	if err != nil {
		return nil, errors.Wrap(err, "igdb: build games request")
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "igdb: games %s", w)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "igdb: read games %s", w)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := body
		if len(snippet) > 2048 {
			snippet = snippet[:2048]
		}
		return nil, errors.Errorf("igdb: games %s: status %d: %s", w, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errors.Wrapf(err, "igdb: decode games %s", w)
	}
	if len(records) == 1 {
		var obj errorObject
		if json.Unmarshal(records[0], &obj) == nil && obj.ID == 0 && obj.Status >= 500 {
			return nil, errors.Wrapf(ErrServer, "games %s: status %d %s", w, obj.Status, strings.TrimSpace(obj.Title+" "+obj.Cause))
		}
	}

	log.Printf("igdb: %s returned %d records", w, len(records))
	return records, nil
}
