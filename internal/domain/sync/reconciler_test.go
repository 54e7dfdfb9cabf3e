package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"akasync/internal/domain/transaction"
	"akasync/internal/infrastructure/akahu"
)

type mockFeed struct {
	ListAccountsFunc     func(ctx context.Context) ([]akahu.Account, error)
	GetAccountFunc       func(ctx context.Context, accountID string) (*akahu.Account, error)
	ListTransactionsFunc func(ctx context.Context, query akahu.TransactionQuery) (*akahu.TransactionPage, error)
	RefreshAccountFunc   func(ctx context.Context, accountID string) error
}

func (m *mockFeed) ListAccounts(ctx context.Context) ([]akahu.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return nil, nil
}

func (m *mockFeed) GetAccount(ctx context.Context, accountID string) (*akahu.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, accountID)
	}
	return nil, nil
}

func (m *mockFeed) ListTransactions(ctx context.Context, query akahu.TransactionQuery) (*akahu.TransactionPage, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, query)
	}
	return &akahu.TransactionPage{}, nil
}

func (m *mockFeed) RefreshAccount(ctx context.Context, accountID string) error {
	if m.RefreshAccountFunc != nil {
		return m.RefreshAccountFunc(ctx, accountID)
	}
	return nil
}

type mockRepo struct {
	LatestFunc        func(ctx context.Context) (*transaction.Transaction, error)
	UpsertBatchFunc   func(ctx context.Context, txs []transaction.Transaction) (int, error)
	ListByAccountFunc func(ctx context.Context, accountID string) ([]transaction.Transaction, error)
}

func (m *mockRepo) Latest(ctx context.Context) (*transaction.Transaction, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx)
	}
	return nil, nil
}

func (m *mockRepo) UpsertBatch(ctx context.Context, txs []transaction.Transaction) (int, error) {
	if m.UpsertBatchFunc != nil {
		return m.UpsertBatchFunc(ctx, txs)
	}
	return len(txs), nil
}

func (m *mockRepo) ListByAccount(ctx context.Context, accountID string) ([]transaction.Transaction, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID)
	}
	return nil, nil
}

// pagedFeed serves a fixed page sequence and records the cursors requested.
func pagedFeed(t *testing.T, pages []*akahu.TransactionPage) (*mockFeed, *[]string) {
	t.Helper()
	var cursors []string
	call := 0
	feed := &mockFeed{
		ListTransactionsFunc: func(ctx context.Context, query akahu.TransactionQuery) (*akahu.TransactionPage, error) {
			cursors = append(cursors, query.Cursor)
			if call >= len(pages) {
				t.Fatalf("unexpected page request %d (cursor %q)", call+1, query.Cursor)
			}
			page := pages[call]
			call++
			return page, nil
		},
	}
	return feed, &cursors
}

func tx(id, date string) transaction.Transaction {
	return transaction.Transaction{ID: id, Account: "acc_1", Date: date, Type: "EFTPOS"}
}

func newTestReconciler(feed akahu.FeedClient, repo transaction.Repository) *Reconciler {
	r := NewReconciler(feed, repo, 365*24*time.Hour, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func txIDs(txs []transaction.Transaction) []string {
	ids := make([]string, 0, len(txs))
	for _, t := range txs {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestSyncColdStart(t *testing.T) {
	feed, cursors := pagedFeed(t, []*akahu.TransactionPage{
		{Items: []transaction.Transaction{tx("trans_3", "2024-01-03"), tx("trans_2", "2024-01-02")}, Cursor: "page2"},
		{Items: []transaction.Transaction{tx("trans_1", "2024-01-01")}},
	})

	var upserted []transaction.Transaction
	repo := &mockRepo{
		UpsertBatchFunc: func(ctx context.Context, txs []transaction.Transaction) (int, error) {
			upserted = txs
			return len(txs), nil
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !result.ColdStart {
		t.Error("expected cold start")
	}
	if result.Pages != 2 || result.Fetched != 3 || result.Persisted != 3 {
		t.Errorf("got pages=%d fetched=%d persisted=%d, want 2/3/3", result.Pages, result.Fetched, result.Persisted)
	}
	if got := txIDs(upserted); len(got) != 3 {
		t.Errorf("upserted %v, want all 3 transactions", got)
	}
	if got, want := (*cursors)[1], "page2"; got != want {
		t.Errorf("second request cursor = %q, want %q", got, want)
	}
}

func TestSyncColdStartSinglePage(t *testing.T) {
	feed, _ := pagedFeed(t, []*akahu.TransactionPage{
		{Items: []transaction.Transaction{
			tx("trans_3", "2024-01-03"),
			tx("trans_2", "2024-01-02"),
			tx("trans_1", "2024-01-01"),
		}},
	})

	result := newTestReconciler(feed, &mockRepo{}).Sync(context.Background())

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Pages != 1 || result.Persisted != 3 {
		t.Errorf("got pages=%d persisted=%d, want 1/3", result.Pages, result.Persisted)
	}
}

func TestSyncColdStartStopsOnEmptyPage(t *testing.T) {
	feed, _ := pagedFeed(t, []*akahu.TransactionPage{
		{Items: []transaction.Transaction{tx("trans_1", "2024-01-01")}, Cursor: "page2"},
		{Items: nil, Cursor: "page3"},
	})

	result := newTestReconciler(feed, &mockRepo{}).Sync(context.Background())

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Pages != 2 {
		t.Errorf("pages = %d, want 2", result.Pages)
	}
}

func TestSyncWarmStart(t *testing.T) {
	watermark := tx("trans_5", "2024-01-10")
	feed, _ := pagedFeed(t, []*akahu.TransactionPage{
		{
			Items: []transaction.Transaction{
				tx("trans_9", "2024-01-15"),
				tx("trans_8", "2024-01-12"),
				tx("trans_7", "2024-01-10"),
			},
			Cursor: "page2",
		},
		{
			Items: []transaction.Transaction{
				tx("trans_6", "2024-01-09"),
				tx("trans_5", "2024-01-10"),
			},
			Cursor: "page3",
		},
	})

	var upserted []transaction.Transaction
	repo := &mockRepo{
		LatestFunc: func(ctx context.Context) (*transaction.Transaction, error) {
			return &watermark, nil
		},
		UpsertBatchFunc: func(ctx context.Context, txs []transaction.Transaction) (int, error) {
			upserted = txs
			return len(txs), nil
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.ColdStart {
		t.Error("expected warm start")
	}

	// trans_9 and trans_8 are newer, trans_7 ties the watermark date with a
	// different id. trans_6 is older and trans_5 is the watermark itself, so
	// the second page yields nothing newer and pagination stops there.
	want := []string{"trans_9", "trans_8", "trans_7"}
	got := txIDs(upserted)
	if len(got) != len(want) {
		t.Fatalf("upserted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("upserted[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if result.Pages != 2 || result.Persisted != 3 {
		t.Errorf("got pages=%d persisted=%d, want 2/3", result.Pages, result.Persisted)
	}
}

func TestSyncWarmStartNoNewTransactions(t *testing.T) {
	watermark := tx("trans_5", "2024-01-10")
	feed, _ := pagedFeed(t, []*akahu.TransactionPage{
		{
			Items: []transaction.Transaction{
				tx("trans_5", "2024-01-10"),
				tx("trans_4", "2024-01-08"),
			},
			Cursor: "page2",
		},
	})

	upsertCalled := false
	repo := &mockRepo{
		LatestFunc: func(ctx context.Context) (*transaction.Transaction, error) {
			return &watermark, nil
		},
		UpsertBatchFunc: func(ctx context.Context, txs []transaction.Transaction) (int, error) {
			upsertCalled = true
			return len(txs), nil
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if !result.OK() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if upsertCalled {
		t.Error("upsert should not be called when nothing is new")
	}
	// The first page had a cursor but nothing newer than the watermark, so
	// no second page is fetched.
	if result.Pages != 1 {
		t.Errorf("pages = %d, want 1", result.Pages)
	}
}

func TestSyncFeedErrorAbortsWithoutWrite(t *testing.T) {
	feed := &mockFeed{
		ListTransactionsFunc: func(ctx context.Context, query akahu.TransactionQuery) (*akahu.TransactionPage, error) {
			return nil, errors.New("feed unavailable")
		},
	}
	upsertCalled := false
	repo := &mockRepo{
		UpsertBatchFunc: func(ctx context.Context, txs []transaction.Transaction) (int, error) {
			upsertCalled = true
			return len(txs), nil
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if result.OK() {
		t.Fatal("expected a recorded error")
	}
	if upsertCalled {
		t.Error("upsert must not run after a fetch failure")
	}
}

func TestSyncWatermarkReadError(t *testing.T) {
	repo := &mockRepo{
		LatestFunc: func(ctx context.Context) (*transaction.Transaction, error) {
			return nil, errors.New("connection refused")
		},
	}
	feedCalled := false
	feed := &mockFeed{
		ListTransactionsFunc: func(ctx context.Context, query akahu.TransactionQuery) (*akahu.TransactionPage, error) {
			feedCalled = true
			return &akahu.TransactionPage{}, nil
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if result.OK() {
		t.Fatal("expected a recorded error")
	}
	if feedCalled {
		t.Error("feed must not be queried when the watermark read fails")
	}
}

func TestSyncSkipsUnparseableItemDates(t *testing.T) {
	watermark := tx("trans_1", "2024-01-01")
	bad := tx("trans_bad", "not-a-date")
	feed, _ := pagedFeed(t, []*akahu.TransactionPage{
		{Items: []transaction.Transaction{tx("trans_2", "2024-01-02"), bad}},
	})

	var upserted []transaction.Transaction
	repo := &mockRepo{
		LatestFunc: func(ctx context.Context) (*transaction.Transaction, error) {
			return &watermark, nil
		},
		UpsertBatchFunc: func(ctx context.Context, txs []transaction.Transaction) (int, error) {
			upserted = txs
			return len(txs), nil
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}
	if got := txIDs(upserted); len(got) != 1 || got[0] != "trans_2" {
		t.Errorf("upserted %v, want [trans_2]", got)
	}
}

func TestSyncUpsertError(t *testing.T) {
	feed, _ := pagedFeed(t, []*akahu.TransactionPage{
		{Items: []transaction.Transaction{tx("trans_1", "2024-01-01")}},
	})
	repo := &mockRepo{
		UpsertBatchFunc: func(ctx context.Context, txs []transaction.Transaction) (int, error) {
			return 0, errors.New("deadlock detected")
		},
	}

	result := newTestReconciler(feed, repo).Sync(context.Background())

	if result.OK() {
		t.Fatal("expected a recorded error")
	}
	if result.Persisted != 0 {
		t.Errorf("persisted = %d, want 0", result.Persisted)
	}
}

func TestSyncQueryWindow(t *testing.T) {
	var query akahu.TransactionQuery
	feed := &mockFeed{
		ListTransactionsFunc: func(ctx context.Context, q akahu.TransactionQuery) (*akahu.TransactionPage, error) {
			query = q
			return &akahu.TransactionPage{}, nil
		},
	}

	r := newTestReconciler(feed, &mockRepo{})
	r.Sync(context.Background())

	now := r.now()
	if !query.End.Equal(now) {
		t.Errorf("query end = %v, want %v", query.End, now)
	}
	if !query.Start.Equal(now.Add(-365 * 24 * time.Hour)) {
		t.Errorf("query start = %v, want one year before now", query.Start)
	}
}
