package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"

	"akasync/internal/infrastructure/akahu"
)

var errNotSettled = errors.New("refresh not yet reflected by aggregator")

// Orchestrator triggers an aggregator refresh for one account, waits for
// the refresh to settle, then runs the reconciler.
type Orchestrator struct {
	feed         akahu.FeedClient
	reconciler   *Reconciler
	pollInterval time.Duration
	pollAttempts uint
	log          zerolog.Logger
	now          func() time.Time
}

func NewOrchestrator(feed akahu.FeedClient, reconciler *Reconciler, pollInterval time.Duration, pollAttempts uint, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		feed:         feed,
		reconciler:   reconciler,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
		log:          log.With().Str("component", "refresh").Logger(),
		now:          time.Now,
	}
}

// Refresh triggers a remote refresh for the account, waits until the
// aggregator reports fresh transactions (bounded by the configured poll
// budget), then runs exactly one sync. A trigger failure aborts without
// syncing; the periodic sync picks the data up later.
func (o *Orchestrator) Refresh(ctx context.Context, accountID string) *Result {
	start := o.now()

	if err := o.feed.RefreshAccount(ctx, accountID); err != nil {
		o.log.Error().Err(err).Str("account", accountID).Msg("failed to trigger refresh")
		return &Result{Errors: []string{fmt.Sprintf("failed to trigger refresh for %s: %v", accountID, err)}}
	}

	o.log.Info().Str("account", accountID).Msg("refresh triggered, waiting for aggregator")
	o.waitForSettle(ctx, accountID, start)

	return o.reconciler.Sync(ctx)
}

// waitForSettle polls the account's transactions-refreshed timestamp until
// it advances past the trigger time. If the budget runs out the sync
// proceeds anyway; whatever the aggregator hasn't pulled yet is caught by
// the next periodic run.
func (o *Orchestrator) waitForSettle(ctx context.Context, accountID string, since time.Time) {
	err := retry.Do(
		func() error {
			acct, err := o.feed.GetAccount(ctx, accountID)
			if err != nil {
				return err
			}
			if acct == nil {
				return retry.Unrecoverable(fmt.Errorf("account %s not found", accountID))
			}
			refreshed, err := acct.Refreshed.TransactionsTime()
			if err != nil {
				return err
			}
			if refreshed != nil && refreshed.After(since) {
				return nil
			}
			return errNotSettled
		},
		retry.Attempts(o.pollAttempts),
		retry.Delay(o.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		o.log.Warn().Err(err).Str("account", accountID).Msg("refresh settle not confirmed, syncing anyway")
	}
}
