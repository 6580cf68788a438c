// Package social uploads images and publishes posts on Twitter.
package social

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/dghubble/oauth1"
	"github.com/pkg/errors"
)

var (
	uploadEndpoint = "https://upload.twitter.com/1.1/media/upload.json"
	postEndpoint   = "https://api.twitter.com/2/tweets"
)

const (
	// maxImageBytes is the platform's upload cap for still images.
	maxImageBytes = 5 << 20
	mediaCategory = "tweet_image"
)

// Credentials are the app keys plus the posting account's user tokens.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
	// UserID is added as an additional owner of uploaded media.
	UserID string
}

func (c Credentials) validate() error {
	fields := []struct{ name, value string }{
		{"api key", c.APIKey},
		{"api secret", c.APISecret},
		{"access token", c.AccessToken},
		{"access token secret", c.AccessTokenSecret},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("social: missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

type Client struct {
	signed *http.Client
	fetch  *http.Client
	userID string
}

type uploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// PostResponse is the created post as returned by the API.
type PostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// New returns a client signing requests with creds. base, when non-nil,
// carries both signed and image fetch traffic.
func New(ctx context.Context, creds Credentials, base *http.Client) (*Client, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}
	if base == nil {
		base = http.DefaultClient
	}
	cfg := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	ctx = context.WithValue(ctx, oauth1.HTTPClient, base)

	return &Client{
		signed: cfg.Client(ctx, token),
		fetch:  base,
		userID: strings.TrimSpace(creds.UserID),
	}, nil
}

// FetchAndEncode downloads url and returns its body base64 encoded.
func (c *Client) FetchAndEncode(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrapf(err, "social: build fetch %s", url)
	}
	resp, err := c.fetch.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "social: fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("social: fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", errors.Wrapf(err, "social: read %s", url)
	}
	if len(data) > maxImageBytes {
		return "", errors.Errorf("social: %s exceeds %d bytes", url, maxImageBytes)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Upload sends each base64 image and returns the media ids in input order.
func (c *Client) Upload(ctx context.Context, images []string) ([]string, error) {
	ids := make([]string, 0, len(images))
	for i, img := range images {
		id, err := c.uploadOne(ctx, img)
		if err != nil {
			return nil, errors.Wrapf(err, "social: upload image %d", i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Client) uploadOne(ctx context.Context, encoded string) (string, error) {
	form := url.Values{}
	form.Set("media_data", encoded)
	form.Set("media_category", mediaCategory)
	if c.userID != "" {
		form.Set("additional_owners", c.userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var parsed uploadResponse
	if err := c.do(req, &parsed); err != nil {
		return "", err
	}
	if parsed.MediaIDString == "" {
		return "", errors.New("response has no media_id_string")
	}
	return parsed.MediaIDString, nil
}

// Post publishes text with the given media attached.
func (c *Client) Post(ctx context.Context, text string, mediaIDs []string) (*PostResponse, error) {
	payload := map[string]any{"text": text}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]any{"media_ids": mediaIDs}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "social: encode post")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "social: build post")
	}
	req.Header.Set("Content-Type", "application/json")

	var parsed PostResponse
	if err := c.do(req, &parsed); err != nil {
		return nil, errors.Wrap(err, "social: post")
	}
	log.Printf("social: posted id=%s media=%d", parsed.Data.ID, len(mediaIDs))
	return &parsed, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.signed.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode/100 != 2 {
		snippet := body
		if len(snippet) > 2048 {
			snippet = snippet[:2048]
		}
		return errors.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
