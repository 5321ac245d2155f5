// Package sweep runs a batch of records through one validated graph with a
// bounded worker pool, persisting outcomes and publishing events as it goes.
package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/espalier/internal/idgen"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Event topics.
const (
	TopicRecordResolved = "record.resolved"
	TopicRecordFailed   = "record.failed"
	TopicSweepFinished  = "sweep.finished"
)

// DefaultWorkers bounds concurrency when no worker count is set.
const DefaultWorkers = 4

// lockTTL bounds how long a crashed sweep can hold its run id.
const lockTTL = 10 * time.Minute

// Resolver executes one record and merges its direct parameters.
// *espalier.Engine implements it.
type Resolver interface {
	Resolve(rec domain.Record, direct domain.Assignments) (*domain.Resolution, error)
}

// RecordResult is the outcome of one record. Resolution may be set even when
// Err is, e.g. when the merged parameters are incomplete.
type RecordResult struct {
	RecordID   string
	Resolution *domain.Resolution
	Err        error
}

// Summary describes a finished sweep.
type Summary struct {
	RunID      string         `json:"run_id"`
	Total      int            `json:"total"`
	Processed  int            `json:"processed"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Unresolved map[string]int `json:"unresolved"`
	Duration   time.Duration  `json:"duration"`

	// Results holds one entry per processed record, in input order.
	Results []RecordResult `json:"-"`
}

// Runner executes sweeps. A Runner may be reused; each Run gets its own run
// id unless WithRunID fixes one.
type Runner struct {
	resolver  Resolver
	workers   int
	store     ports.ResultStore
	publisher ports.Publisher
	sink      ports.ReportSink
	locker    ports.Locker
	metrics   *Metrics
	logger    *slog.Logger
	runID     string
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent resolutions.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithStore persists every outcome.
func WithStore(s ports.ResultStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithPublisher publishes one event per record and one per sweep.
func WithPublisher(p ports.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithReportSink uploads the summary as JSON and Markdown when the sweep ends.
func WithReportSink(s ports.ReportSink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithLocker holds a lock on the run id for the duration of the sweep.
func WithLocker(l ports.Locker) Option {
	return func(r *Runner) { r.locker = l }
}

// WithMetrics updates the given collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets a custom structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// New creates a Runner for resolver.
func New(resolver Resolver, opts ...Option) *Runner {
	r := &Runner{
		resolver: resolver,
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	return r
}

// Run resolves every row. Record failures are counted, not returned.
// Cancelling ctx stops issuing new records; records already running finish.
// Store failures abort the sweep and are returned together with the partial
// summary.
func (r *Runner) Run(ctx context.Context, rows []domain.Row) (*Summary, error) {
	runID := r.runID
	if runID == "" {
		id, err := idgen.RunID()
		if err != nil {
			return nil, err
		}
		runID = id
	}
	logger := r.logger.With("run_id", runID)

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, "sweep:"+runID, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to lock run %s: %w", runID, err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release run lock", "err", err)
			}
		}()
	}

	start := time.Now()
	results := make([]*RecordResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, row := range rows {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := r.process(gctx, runID, row)
			results[i] = res
			return err
		})
	}
	runErr := g.Wait()

	summary := &Summary{
		RunID:      runID,
		Total:      len(rows),
		Unresolved: map[string]int{},
		Duration:   time.Since(start),
	}
	for _, res := range results {
		if res == nil {
			summary.Skipped++
			continue
		}
		summary.Processed++
		summary.Results = append(summary.Results, *res)
		if res.Err != nil {
			summary.Failed++
		}
		if res.Resolution != nil && res.Resolution.Result != nil {
			for _, name := range res.Resolution.Result.Trace.Unresolved {
				summary.Unresolved[name]++
			}
		}
	}

	logger.Info("sweep finished",
		"processed", summary.Processed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"duration", summary.Duration)

	// Use a detached context so reporting still happens after cancellation.
	finish := context.WithoutCancel(ctx)
	r.publish(finish, logger, TopicSweepFinished, domain.SweepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now().UTC(), Type: domain.EventSweepFinished, RunID: runID},
		Processed: summary.Processed,
		Failed:    summary.Failed,
		Duration:  summary.Duration,
	})
	if r.sink != nil {
		if err := r.upload(finish, summary); err != nil {
			logger.Error("failed to upload sweep report", "err", err)
		}
	}

	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	return summary, runErr
}

func (r *Runner) process(ctx context.Context, runID string, row domain.Row) (*RecordResult, error) {
	if r.metrics != nil {
		r.metrics.InFlight.Inc()
		defer r.metrics.InFlight.Dec()
	}

	start := time.Now()
	resolution, err := r.resolver.Resolve(row.Record, row.Direct)
	if r.metrics != nil {
		r.metrics.Duration.Observe(time.Since(start).Seconds())
	}
	res := &RecordResult{RecordID: row.ID, Resolution: resolution, Err: err}

	status, topic, eventType := "resolved", TopicRecordResolved, domain.EventRecordResolved
	if err != nil {
		status, topic, eventType = "failed", TopicRecordFailed, domain.EventRecordFailed
		r.logger.Debug("record failed", "run_id", runID, "record_id", row.ID, "err", err)
	}

	event := domain.RecordEvent{
		EventBase: domain.EventBase{Timestamp: time.Now().UTC(), Type: eventType, RunID: runID},
		RecordID:  row.ID,
	}
	outcome := &domain.Outcome{RunID: runID, RecordID: row.ID, CreatedAt: time.Now().UTC()}
	if err != nil {
		event.Error = err.Error()
		outcome.Error = err.Error()
	}
	if resolution != nil {
		outcome.Result = resolution.Result
		outcome.Resolved = resolution.Resolved
		if resolution.Result != nil {
			event.Visited = len(resolution.Result.Trace.Visited)
			event.Unresolved = resolution.Result.Trace.Unresolved
		}
	}

	if r.metrics != nil {
		r.metrics.Records.WithLabelValues(status).Inc()
		for _, name := range event.Unresolved {
			r.metrics.Unresolved.WithLabelValues(name).Inc()
		}
	}

	if r.store != nil {
		if err := r.store.Save(ctx, outcome); err != nil {
			return res, fmt.Errorf("failed to save outcome for record %s: %w", row.ID, err)
		}
	}
	r.publish(ctx, r.logger, topic, event)
	return res, nil
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, topic string, event any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, topic, event); err != nil {
		logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

func (r *Runner) upload(ctx context.Context, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	var errs []error
	if err := r.sink.Put(ctx, s.RunID+"/summary.json", "application/json", data); err != nil {
		errs = append(errs, err)
	}
	if err := r.sink.Put(ctx, s.RunID+"/summary.md", "text/markdown", []byte(s.Markdown())); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Markdown renders the summary as a short report.
func (s *Summary) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Sweep %s\n\n", s.RunID)
	fmt.Fprintf(&sb, "- **Records**: %d\n", s.Total)
	fmt.Fprintf(&sb, "- **Processed**: %d\n", s.Processed)
	fmt.Fprintf(&sb, "- **Failed**: %d\n", s.Failed)
	if s.Skipped > 0 {
		fmt.Fprintf(&sb, "- **Skipped**: %d\n", s.Skipped)
	}
	fmt.Fprintf(&sb, "- **Duration**: %s\n", s.Duration.Round(time.Millisecond))

	if len(s.Unresolved) > 0 {
		names := make([]string, 0, len(s.Unresolved))
		for name := range s.Unresolved {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if s.Unresolved[names[i]] != s.Unresolved[names[j]] {
				return s.Unresolved[names[i]] > s.Unresolved[names[j]]
			}
			return names[i] < names[j]
		})
		sb.WriteString("\n## Unresolved Parameters\n\n| Parameter | Records |\n|---|---|\n")
		for _, name := range names {
			fmt.Fprintf(&sb, "| `%s` | %d |\n", name, s.Unresolved[name])
		}
	}

	var failed []RecordResult
	for _, res := range s.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("\n## Failed Records\n\n")
		for _, res := range failed {
			fmt.Fprintf(&sb, "- `%s`: %s\n", res.RecordID, strings.ReplaceAll(res.Err.Error(), "\n", " "))
		}
	}
	return sb.String()
}
