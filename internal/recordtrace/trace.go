// Package recordtrace counts what happens to catalog records during a run.
package recordtrace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Stage is one step a record can reach.
type Stage string

const (
	StageSeenFromCatalog Stage = "seen_from_catalog"
	StageAdmitted        Stage = "admitted"
	StageNormalizedOK    Stage = "normalized_ok"
	StageStored          Stage = "stored"

	StageDroppedPrefix = "dropped_"
)

// StageDropped is the stage for a record skipped for reason.
func StageDropped(reason string) Stage {
	return Stage(fmt.Sprintf("%s%s", StageDroppedPrefix, reason))
}

// RunTrace holds the stage counters of one run.
type RunTrace struct {
	RunID string
	Kind  string

	mu       sync.Mutex
	counters map[Stage]int64
}

func NewRunTrace(kind string) *RunTrace {
	return &RunTrace{
		RunID:    uuid.NewString(),
		Kind:     kind,
		counters: make(map[Stage]int64),
	}
}

// IncCounter increments stage and returns the new value.
func (t *RunTrace) IncCounter(stage Stage) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counters[stage]++
	return t.counters[stage]
}

func (t *RunTrace) Count(stage Stage) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters[stage]
}

// Dropped sums every dropped_* counter.
func (t *RunTrace) Dropped() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for stage, count := range t.counters {
		if strings.HasPrefix(string(stage), StageDroppedPrefix) {
			n += count
		}
	}
	return n
}

// LogTrace writes the run id and a snapshot of the counters.
func (t *RunTrace) LogTrace(logger *slog.Logger, msg string) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info(msg,
		"run_id", t.RunID,
		"run", t.Kind,
		"counters", t.Snapshot(),
	)
}

func (t *RunTrace) Snapshot() map[Stage]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[Stage]int64, len(t.counters))
	for stage, count := range t.counters {
		out[stage] = count
	}
	return out
}

// Fingerprint identifies a raw catalog record in logs, including records
// too broken to have a name.
func Fingerprint(raw []byte) string {
	digest := sha256.Sum256(raw)
	return hex.EncodeToString(digest[:6])
}
