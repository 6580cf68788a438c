package pipeline

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/you/onthisday/internal/announce"
	"github.com/you/onthisday/internal/game"
	"github.com/you/onthisday/internal/metrics"
	"github.com/you/onthisday/internal/social"
	"github.com/you/onthisday/internal/store"
)

// DefaultMaxMedia is the most images one post can carry.
const DefaultMaxMedia = 4

// Publisher fetches images, uploads them and posts text with them.
type Publisher interface {
	FetchAndEncode(ctx context.Context, url string) (string, error)
	Upload(ctx context.Context, images []string) ([]string, error)
	Post(ctx context.Context, text string, mediaIDs []string) (*social.PostResponse, error)
}

type Hourly struct {
	Store     store.Store
	Publisher Publisher
	Renderer  *announce.Renderer
	MaxMedia  int
	// DryRun renders and logs without uploading or posting. The record is
	// still consumed.
	DryRun  bool
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Result describes a finished hourly run.
type Result struct {
	Empty    bool
	Name     string
	Text     string
	Images   []string
	MediaIDs []string
	PostID   string
}

// Run takes one record out of the store and announces it. An empty store is
// not an error. The record is removed before posting, so a failed post
// loses it rather than risking a duplicate.
func (h *Hourly) Run(ctx context.Context) (Result, error) {
	started := time.Now()
	res, err := h.run(ctx)
	h.Metrics.ObserveRun("hourly", started, err)
	switch {
	case err != nil:
		h.Metrics.IncPost("failed")
	case res.Empty:
		h.Metrics.IncPost("empty")
	case h.DryRun:
		h.Metrics.IncPost("dry_run")
	default:
		h.Metrics.IncPost("posted")
	}
	return res, err
}

func (h *Hourly) run(ctx context.Context) (Result, error) {
	logger := h.logger()

	rec, err := h.Store.TakeOneArbitrary(ctx)
	if err != nil {
		return Result{}, errors.Wrap(err, "hourly: take record")
	}
	if rec == nil {
		log.Printf("pipeline: hourly: store is empty; nothing to post")
		return Result{Empty: true}, nil
	}

	res := Result{Name: rec.Name, Text: h.Renderer.Render(*rec)}

	urls, err := game.ImageURLs(*rec)
	if err != nil {
		return res, errors.Wrap(err, "hourly: select images")
	}
	if limit := h.maxMedia(); len(urls) > limit {
		urls = urls[:limit]
	}
	res.Images = urls

	logger.Info("announcement ready", "name", rec.Name, "images", len(urls), "text", res.Text)
	if h.DryRun {
		log.Printf("pipeline: hourly: dry run; not posting %q", rec.Name)
		return res, nil
	}

	encoded := make([]string, 0, len(urls))
	for _, u := range urls {
		img, err := h.Publisher.FetchAndEncode(ctx, u)
		if err != nil {
			return res, errors.Wrapf(err, "hourly: fetch image for %q", rec.Name)
		}
		encoded = append(encoded, img)
	}

	if len(encoded) > 0 {
		ids, err := h.Publisher.Upload(ctx, encoded)
		if err != nil {
			return res, errors.Wrapf(err, "hourly: upload images for %q", rec.Name)
		}
		res.MediaIDs = ids
	}

	resp, err := h.Publisher.Post(ctx, res.Text, res.MediaIDs)
	if err != nil {
		return res, errors.Wrapf(err, "hourly: post %q", rec.Name)
	}
	if resp != nil {
		res.PostID = resp.Data.ID
	}
	logger.Info("announcement posted", "name", rec.Name, "post_id", res.PostID, "media_ids", res.MediaIDs)
	return res, nil
}

func (h *Hourly) maxMedia() int {
	if h.MaxMedia > 0 {
		return h.MaxMedia
	}
	return DefaultMaxMedia
}

func (h *Hourly) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
