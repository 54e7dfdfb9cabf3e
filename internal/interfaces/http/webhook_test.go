package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"akasync/internal/domain/notification"
	"akasync/internal/domain/transaction"
)

var dummyInsertEvent = `{"type":"INSERT","table":"akahu_transactions","record":{"_id":"` + transaction.DummyID + `"}}`

type mockMessenger struct {
	SendFunc func(ctx context.Context, text string) error
}

func (m *mockMessenger) Send(ctx context.Context, text string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, text)
	}
	return nil
}

func newWebhookHandler(t *testing.T, messenger notification.Messenger) *WebhookHandler {
	t.Helper()
	notifier, err := notification.NewService(&mockFeed{}, messenger, "UTC", zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWebhookHandler(notifier, zerolog.Nop())
}

func postWebhook(h *WebhookHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestWebhookNotifiesOnInsert(t *testing.T) {
	var sent string
	h := newWebhookHandler(t, &mockMessenger{
		SendFunc: func(ctx context.Context, text string) error {
			sent = text
			return nil
		},
	})

	body := `{"type":"INSERT","table":"akahu_transactions","record":{"_id":"trans_1","_account":"acc_1","date":"2024-03-15T10:30:00Z","description":"Coffee","amount":-13.37,"balance":100,"type":"EFTPOS"}}`
	rec := postWebhook(h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(sent, "Coffee") {
		t.Errorf("notification missing detail: %s", sent)
	}
}

func TestWebhookIgnoresIrrelevantEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"update event", `{"type":"UPDATE","table":"akahu_transactions","record":{"_id":"trans_1"}}`},
		{"other table", `{"type":"INSERT","table":"users","record":{"_id":"trans_1"}}`},
		{"verification dummy", dummyInsertEvent},
		{"bad record", `{"type":"INSERT","table":"akahu_transactions","record":"not-an-object"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newWebhookHandler(t, &mockMessenger{
				SendFunc: func(ctx context.Context, text string) error {
					t.Error("no notification expected")
					return nil
				},
			})
			if rec := postWebhook(h, tt.body); rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}

func TestWebhookInvalidPayload(t *testing.T) {
	h := newWebhookHandler(t, &mockMessenger{})
	if rec := postWebhook(h, "{"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookSwallowsNotificationFailure(t *testing.T) {
	h := newWebhookHandler(t, &mockMessenger{
		SendFunc: func(ctx context.Context, text string) error {
			return errors.New("chat unreachable")
		},
	})

	body := `{"type":"INSERT","table":"akahu_transactions","record":{"_id":"trans_1","_account":"acc_1","date":"2024-03-15T10:30:00Z","amount":-5}}`
	if rec := postWebhook(h, body); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
