package scheduler

import (
	"context"
	"fmt"
	"strings"

	"akasync/internal/domain/sync"
)

// SyncJob runs one reconciliation pass.
type SyncJob struct {
	reconciler *sync.Reconciler
}

func NewSyncJob(reconciler *sync.Reconciler) *SyncJob {
	return &SyncJob{reconciler: reconciler}
}

func (j *SyncJob) Execute(ctx context.Context) error {
	result := j.reconciler.Sync(ctx)
	if !result.OK() {
		return fmt.Errorf("sync finished with %d errors: %s", len(result.Errors), strings.Join(result.Errors, "; "))
	}
	return nil
}

func (j *SyncJob) Description() string {
	return "transaction sync"
}

// RefreshJob triggers an aggregator refresh for one account and follows
// it with a sync.
type RefreshJob struct {
	accountID    string
	orchestrator *sync.Orchestrator
}

func NewRefreshJob(accountID string, orchestrator *sync.Orchestrator) *RefreshJob {
	return &RefreshJob{accountID: accountID, orchestrator: orchestrator}
}

func (j *RefreshJob) Execute(ctx context.Context) error {
	result := j.orchestrator.Refresh(ctx, j.accountID)
	if !result.OK() {
		return fmt.Errorf("refresh finished with %d errors: %s", len(result.Errors), strings.Join(result.Errors, "; "))
	}
	return nil
}

func (j *RefreshJob) Description() string {
	return fmt.Sprintf("refresh for account %s", j.accountID)
}
