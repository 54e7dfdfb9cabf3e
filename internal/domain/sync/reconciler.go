// Package sync implements the incremental reconciliation of the remote
// transaction feed against the local store.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"akasync/internal/domain/transaction"
	"akasync/internal/infrastructure/akahu"
)

var syncTracer = otel.Tracer("akasync/sync")

// Result describes one sync run. Failures never escape the reconciler;
// they are recorded here for the caller (scheduler or HTTP handler) to
// log, alert on or surface.
type Result struct {
	ColdStart bool
	Pages     int
	Fetched   int
	Persisted int
	Errors    []string
}

// OK reports whether the run completed without any recorded error.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

func (r *Result) recordError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Reconciler decides which pages to fetch from the remote feed, which
// records are new relative to the store, and submits them for persistence.
type Reconciler struct {
	feed   akahu.FeedClient
	repo   transaction.Repository
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler fetching at most window of history
// per run.
func NewReconciler(feed akahu.FeedClient, repo transaction.Repository, window time.Duration, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		feed:   feed,
		repo:   repo,
		window: window,
		log:    log.With().Str("component", "sync").Logger(),
		now:    time.Now,
	}
}

// Sync runs one reconciliation pass and never returns an error: remote or
// store failures abort the run and are recorded in the Result. Partial
// progress is not rolled back; the upsert is idempotent, so the next run
// re-derives anything this one missed.
func (r *Reconciler) Sync(ctx context.Context) *Result {
	ctx, span := syncTracer.Start(ctx, "sync.run")
	defer span.End()

	result := &Result{}

	watermark, err := r.repo.Latest(ctx)
	if err != nil {
		r.fail(span, result, "failed to read watermark: %v", err)
		return result
	}
	result.ColdStart = watermark == nil

	var watermarkTime time.Time
	if watermark != nil {
		watermarkTime, err = watermark.Time()
		if err != nil {
			r.fail(span, result, "stored watermark %s has unusable date: %v", watermark.ID, err)
			return result
		}
		r.log.Debug().Str("watermark_id", watermark.ID).Str("watermark_date", watermark.Date).Msg("starting warm sync")
	} else {
		r.log.Info().Msg("no local transactions, starting cold sync")
	}

	now := r.now()
	query := akahu.TransactionQuery{Start: now.Add(-r.window), End: now}

	var pending []transaction.Transaction
	for {
		page, err := r.feed.ListTransactions(ctx, query)
		if err != nil {
			r.fail(span, result, "failed to fetch page %d: %v", result.Pages+1, err)
			return result
		}
		result.Pages++
		result.Fetched += len(page.Items)

		if len(page.Items) == 0 {
			break
		}

		if result.ColdStart {
			pending = append(pending, page.Items...)
			if page.Cursor == "" {
				break
			}
			query.Cursor = page.Cursor
			continue
		}

		// Warm start: keep items strictly newer than the watermark, plus
		// same-date items with a different identifier (day-precision ties).
		pageHasNewer := false
		for _, item := range page.Items {
			itemTime, err := item.Time()
			if err != nil {
				result.recordError("skipping %s: %v", item.ID, err)
				continue
			}
			if itemTime.After(watermarkTime) {
				pageHasNewer = true
				pending = append(pending, item)
			} else if itemTime.Equal(watermarkTime) && item.ID != watermark.ID {
				pending = append(pending, item)
			}
		}

		// Fetching past the first page with nothing newer than the
		// watermark would only walk already-synced history.
		if page.Cursor == "" || !pageHasNewer {
			break
		}
		query.Cursor = page.Cursor
	}

	span.SetAttributes(
		attribute.Bool("sync.cold_start", result.ColdStart),
		attribute.Int("sync.pages", result.Pages),
		attribute.Int("sync.fetched", result.Fetched),
	)

	if len(pending) == 0 {
		r.log.Info().Int("pages", result.Pages).Msg("no new transactions")
		return result
	}

	persisted, err := r.repo.UpsertBatch(ctx, pending)
	if err != nil {
		r.fail(span, result, "failed to upsert %d transactions: %v", len(pending), err)
		return result
	}
	result.Persisted = persisted
	span.SetAttributes(attribute.Int("sync.persisted", persisted))

	r.log.Info().
		Int("pages", result.Pages).
		Int("fetched", result.Fetched).
		Int("persisted", result.Persisted).
		Bool("cold_start", result.ColdStart).
		Msg("sync completed")

	return result
}

func (r *Reconciler) fail(span trace.Span, result *Result, format string, args ...any) {
	result.recordError(format, args...)
	msg := result.Errors[len(result.Errors)-1]
	span.SetStatus(codes.Error, msg)
	r.log.Error().Msg(msg)
}
