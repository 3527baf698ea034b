package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mfenderov/taryag/internal/events"
	"github.com/mfenderov/taryag/internal/index"
	"github.com/mfenderov/taryag/internal/store"
	"github.com/mfenderov/taryag/pkg/models"
)

// DefaultCount is the number of mitzvot in the corpus.
const DefaultCount = 613

// DefaultDelay is the pause between two consecutive requests.
const DefaultDelay = time.Second

var (
	// ErrNoFetcher is the only run-level failure: there is no way to reach the source.
	ErrNoFetcher = errors.New("no fetcher available")
	// ErrMalformedPayload means the response body is not a JSON object.
	ErrMalformedPayload = errors.New("malformed payload")
)

// NotAttempted is the failure reason of ids a cancelled run never reached.
const NotAttempted = "not attempted: run cancelled"

// Fetcher retrieves the raw payload of one corpus item.
type Fetcher interface {
	Fetch(ctx context.Context, id int) ([]byte, error)
}

// Config holds pipeline configuration.
type Config struct {
	Count int           // ids 1..Count are acquired
	Delay time.Duration // pause after each request except the last
}

// Result holds the outcome of an acquisition or retry run.
type Result struct {
	RunID    string
	Records  models.Collection
	Failures models.Failures
	Duration time.Duration
}

// Summary condenses the result into a completion event.
func (r *Result) Summary() events.RunCompleteEvent {
	return events.RunCompleteEvent{
		RunID:    r.RunID,
		Acquired: len(r.Records),
		Failed:   len(r.Failures),
		Duration: r.Duration,
	}
}

// Pipeline fetches the corpus item by item, strictly in order, and persists
// what it gets.
type Pipeline struct {
	config   Config
	fetcher  Fetcher
	store    *store.Store
	sleep    func(ctx context.Context, d time.Duration) error
	progress chan<- events.ItemEvent
}

// New creates a Pipeline. A nil fetcher is accepted here and reported by
// Run and RetryFailed as ErrNoFetcher.
func New(config Config, fetcher Fetcher, st *store.Store) *Pipeline {
	if config.Count <= 0 {
		config.Count = DefaultCount
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	return &Pipeline{
		config:  config,
		fetcher: fetcher,
		store:   st,
		sleep:   sleep,
	}
}

func newResult() *Result {
	return &Result{
		RunID:    uuid.NewString(),
		Records:  models.Collection{},
		Failures: models.Failures{},
	}
}

// WithProgress makes the pipeline send one ItemEvent per handled item on ch.
// The caller owns ch and must keep draining it while a run is in progress.
func (p *Pipeline) WithProgress(ch chan<- events.ItemEvent) *Pipeline {
	p.progress = ch
	return p
}

// Run acquires ids 1..Count. Per-item failures are recorded in the result
// and never abort the run. Afterwards the collection, the index and the
// failure set are persisted on a best-effort basis.
//
// Cancelling ctx stops the run between items. Acquired records are merged
// into the stored collection and every id not reached is added to the
// failure set, so a later retry picks up where the run stopped.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.fetcher == nil {
		return &Result{}, ErrNoFetcher
	}

	start := time.Now()
	result := newResult()
	slog.Info("starting acquisition", "run_id", result.RunID, "count", p.config.Count, "delay", p.config.Delay)

	next := 1
	for ; next <= p.config.Count; next++ {
		if ctx.Err() != nil {
			break
		}

		p.step(ctx, next, result)

		if next < p.config.Count {
			if err := p.sleep(ctx, p.config.Delay); err != nil {
				next++
				break
			}
		}
	}

	persistCtx := context.WithoutCancel(ctx)
	if next <= p.config.Count {
		slog.Warn("acquisition cancelled", "run_id", result.RunID, "next_id", next)
		p.finishPartial(persistCtx, result, next)
	} else {
		p.finish(persistCtx, result)
	}

	result.Duration = time.Since(start)
	slog.Info("acquisition complete",
		"run_id", result.RunID,
		"acquired", len(result.Records),
		"failed", len(result.Failures),
		"duration", result.Duration)
	return result, nil
}

// RetryFailed re-fetches the ids listed in the persisted failure set.
// Recovered records are returned separately and are not merged into the
// stored collection; see Consolidate. The failure artifact is rewritten with
// the ids that still fail, or removed when none do.
func (p *Pipeline) RetryFailed(ctx context.Context) (*Result, error) {
	if p.fetcher == nil {
		return &Result{}, ErrNoFetcher
	}

	start := time.Now()
	result := newResult()

	failures, err := p.store.LoadFailures(ctx)
	if err != nil {
		slog.Warn("cannot read failure set, nothing to retry", "error", err)
		return result, nil
	}
	if len(failures) == 0 {
		slog.Info("no failed items to retry")
		if err := p.store.RemoveFailures(ctx); err != nil {
			slog.Warn("failed to remove empty failure set", "error", err)
		}
		return result, nil
	}

	slog.Info("retrying failed items", "run_id", result.RunID, "count", len(failures))
	for i, f := range failures {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, failures[i:]...)
			break
		}

		p.step(ctx, f.ID, result)

		if i < len(failures)-1 {
			if err := p.sleep(ctx, p.config.Delay); err != nil {
				result.Failures = append(result.Failures, failures[i+1:]...)
				break
			}
		}
	}

	persistCtx := context.WithoutCancel(ctx)
	if len(result.Failures) == 0 {
		if err := p.store.RemoveFailures(persistCtx); err != nil {
			slog.Warn("failed to remove failure set", "error", err)
		}
	} else if err := p.store.PersistFailures(persistCtx, result.Failures); err != nil {
		slog.Warn("failed to persist failure set", "error", err)
	}

	result.Duration = time.Since(start)
	slog.Info("retry complete",
		"run_id", result.RunID,
		"recovered", len(result.Records),
		"still_failing", len(result.Failures),
		"duration", result.Duration)
	return result, nil
}

// Consolidate rebuilds the collection from every per-record artifact,
// persists it and regenerates the index. It is how records recovered by
// RetryFailed reach the collection.
func (p *Pipeline) Consolidate(ctx context.Context) (models.Collection, error) {
	records, err := p.store.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	records = records.Normalize(p.config.Count)

	if err := p.store.PersistCollection(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist collection: %w", err)
	}
	if err := p.store.PersistIndex(ctx, index.Build(records)); err != nil {
		slog.Warn("failed to persist index", "error", err)
	}

	slog.Info("collection consolidated", "records", len(records))
	return records, nil
}

// step acquires one id and files the outcome into result.
func (p *Pipeline) step(ctx context.Context, id int, result *Result) {
	record, err := p.acquire(ctx, id)
	if err != nil {
		slog.Warn("failed to acquire item", "id", id, "error", err)
		result.Failures = append(result.Failures, models.FailureRecord{ID: id, Error: err.Error()})
		p.notify(ctx, events.ItemEvent{RunID: result.RunID, ID: id, Err: err.Error()})
		return
	}

	result.Records = append(result.Records, record)
	p.notify(ctx, events.ItemEvent{RunID: result.RunID, ID: id, Title: record.DisplayTitle()})

	if err := p.store.PersistRecord(ctx, record); err != nil {
		slog.Warn("failed to persist record", "id", id, "error", err)
		return
	}
	slog.Debug("acquired item", "id", id, "title", record.DisplayTitle())
}

func (p *Pipeline) notify(ctx context.Context, event events.ItemEvent) {
	if p.progress == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case p.progress <- event:
	case <-ctx.Done():
	}
}

func (p *Pipeline) acquire(ctx context.Context, id int) (models.Record, error) {
	body, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		return models.Record{}, err
	}

	record, err := decodeRecord(body)
	if err != nil {
		return models.Record{}, err
	}
	record.ID = id
	return record, nil
}

// decodeRecord accepts only a JSON object. The texts API answers unknown
// references with a 200 and an object carrying an "error" field; that is
// treated as a failed item too.
func decodeRecord(body []byte) (models.Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return models.Record{}, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return models.Record{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope.Error != "" {
		return models.Record{}, fmt.Errorf("%w: source error: %s", ErrMalformedPayload, envelope.Error)
	}

	var record models.Record
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return models.Record{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return record, nil
}

// finish persists run-level artifacts. Every step is best-effort.
func (p *Pipeline) finish(ctx context.Context, result *Result) {
	if err := p.store.PersistCollection(ctx, result.Records); err != nil {
		slog.Warn("failed to persist collection", "error", err)
	}

	if err := p.store.PersistIndex(ctx, index.Build(result.Records)); err != nil {
		slog.Warn("failed to persist index", "error", err)
	}

	if len(result.Failures) > 0 {
		if err := p.store.PersistFailures(ctx, result.Failures); err != nil {
			slog.Warn("failed to persist failure set", "error", err)
		}
		return
	}
	if err := p.store.RemoveFailures(ctx); err != nil {
		slog.Warn("failed to remove stale failure set", "error", err)
	}
}

// finishPartial persists a cancelled run without losing earlier progress.
// Records from this run replace their stored counterparts, the rest of the
// stored collection is kept, and ids from next on join the failure set with
// their previous reason when one is known.
func (p *Pipeline) finishPartial(ctx context.Context, result *Result, next int) {
	previous, err := p.store.LoadFailures(ctx)
	if err != nil {
		slog.Warn("failed to read previous failure set", "error", err)
	}
	reasons := make(map[int]string, len(previous))
	for _, f := range previous {
		reasons[f.ID] = f.Error
	}
	for id := next; id <= p.config.Count; id++ {
		reason, ok := reasons[id]
		if !ok {
			reason = NotAttempted
		}
		result.Failures = append(result.Failures, models.FailureRecord{ID: id, Error: reason})
	}

	stored, _, err := p.store.LoadCollection(ctx)
	if err != nil {
		slog.Warn("failed to read stored collection, keeping it untouched", "error", err)
	} else {
		merged := mergeRecords(stored, result.Records)
		if err := p.store.PersistCollection(ctx, merged); err != nil {
			slog.Warn("failed to persist collection", "error", err)
		}
		if err := p.store.PersistIndex(ctx, index.Build(merged)); err != nil {
			slog.Warn("failed to persist index", "error", err)
		}
	}

	if err := p.store.PersistFailures(ctx, result.Failures); err != nil {
		slog.Warn("failed to persist failure set", "error", err)
	}
}

// mergeRecords overlays fresh onto stored by ID and sorts the result.
func mergeRecords(stored, fresh models.Collection) models.Collection {
	replaced := make(map[int]bool, len(fresh))
	merged := make(models.Collection, 0, len(stored)+len(fresh))
	for _, r := range fresh {
		replaced[r.ID] = true
		merged = append(merged, r)
	}
	for _, r := range stored {
		if !replaced[r.ID] {
			merged = append(merged, r)
		}
	}
	merged.SortByID()
	return merged
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
