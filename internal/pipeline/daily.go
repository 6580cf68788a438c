// Package pipeline runs the daily catalog refresh and the hourly post.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"log/slog"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/you/onthisday/internal/game"
	"github.com/you/onthisday/internal/igdb"
	"github.com/you/onthisday/internal/metrics"
	"github.com/you/onthisday/internal/recordtrace"
	"github.com/you/onthisday/internal/store"
)

// LevelCritical marks failures that abort a run.
const LevelCritical = slog.LevelError + 4

const (
	reasonDecode    = "decode"
	reasonNotParent = "not_parent"
	reasonSports    = "sports"
	reasonMalformed = "malformed"
	reasonOther     = "other"
)

// Catalog returns the raw records released inside a window.
type Catalog interface {
	Games(ctx context.Context, w igdb.DateWindow) ([]json.RawMessage, error)
}

type Daily struct {
	Catalog   Catalog
	Store     store.Store
	Windows   []igdb.DateWindow
	BatchSize int
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Summary describes a finished daily run.
type Summary struct {
	RunID   string
	Windows int
	Seen    int
	Stored  int
	Dropped map[string]int
	Names   []string
	// Stages is the trace counter snapshot taken when the run ended.
	Stages  map[recordtrace.Stage]int64
}

// Run queries every window, keeps the admitted and normalized records, then
// replaces the store contents with them. A query failure aborts the run
// before the store is touched.
func (d *Daily) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	trace := recordtrace.NewRunTrace("daily")
	logger := d.logger().With("run_id", trace.RunID)
	summary := Summary{RunID: trace.RunID, Dropped: map[string]int{}}

	fail := func(err error) (Summary, error) {
		d.Metrics.ObserveRun("daily", started, err)
		summary.Stages = trace.Snapshot()
		trace.LogTrace(logger, "daily run failed")
		return summary, err
	}

	log.Printf("pipeline: daily: querying %d windows", len(d.Windows))

	var (
		order   []string
		records = map[string]game.CleanRecord{}
	)
	for _, w := range d.Windows {
		raws, err := d.Catalog.Games(ctx, w)
		if err != nil {
			return fail(pkgerrors.Wrapf(err, "daily: query window %s", w))
		}
		summary.Windows++
		summary.Seen += len(raws)
		d.Metrics.IncWindowsQueried()
		d.Metrics.AddRecordsSeen(len(raws))

		for _, raw := range raws {
			trace.IncCounter(recordtrace.StageSeenFromCatalog)
			rec, reason, err := processRecord(raw, w.Year(), trace)
			if err != nil {
				trace.IncCounter(recordtrace.StageDropped(reason))
				summary.Dropped[reason]++
				d.Metrics.IncRecordsDropped(reason)
				logger.Info("record skipped",
					"window", w.String(),
					"reason", reason,
					"record", recordtrace.Fingerprint(raw),
					"err", err,
				)
				continue
			}
			if _, dup := records[rec.Name]; !dup {
				order = append(order, rec.Name)
			}
			records[rec.Name] = rec
		}
	}

	if err := d.Store.ClearAll(ctx); err != nil {
		return fail(pkgerrors.Wrap(err, "daily: clear store"))
	}

	writer := store.NewBatchWriter(d.Store, d.BatchSize)
	for _, name := range order {
		if err := writer.Add(ctx, records[name]); err != nil {
			return fail(pkgerrors.Wrap(err, "daily: store records"))
		}
	}
	if err := writer.Close(ctx); err != nil {
		return fail(pkgerrors.Wrap(err, "daily: store records"))
	}

	for range order {
		trace.IncCounter(recordtrace.StageStored)
	}
	summary.Stored = writer.Written()
	summary.Names = order
	summary.Stages = trace.Snapshot()
	d.Metrics.AddRecordsStored(summary.Stored)
	d.Metrics.ObserveRun("daily", started, nil)

	trace.LogTrace(logger, "daily run finished")
	log.Printf("pipeline: daily: stored %d records: %v", summary.Stored, summary.Names)
	return summary, nil
}

func processRecord(raw json.RawMessage, year int, trace *recordtrace.RunTrace) (game.CleanRecord, string, error) {
	var rec game.RawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return game.CleanRecord{}, reasonDecode, pkgerrors.Wrap(err, "decode record")
	}

	admitted, err := game.Admit(rec, year)
	if err != nil {
		return game.CleanRecord{}, dropReason(err), err
	}
	trace.IncCounter(recordtrace.StageAdmitted)

	clean, err := game.Normalize(admitted)
	if err != nil {
		return game.CleanRecord{}, dropReason(err), err
	}
	trace.IncCounter(recordtrace.StageNormalizedOK)
	return clean, "", nil
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, game.ErrNotParent):
		return reasonNotParent
	case errors.Is(err, game.ErrSports):
		return reasonSports
	case errors.Is(err, game.ErrMissingField):
		return reasonMalformed
	default:
		return reasonOther
	}
}

func (d *Daily) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
