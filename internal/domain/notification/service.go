package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"akasync/internal/domain/account"
	"akasync/internal/domain/transaction"
	"akasync/internal/infrastructure/akahu"
)

// Service turns persisted transactions into chat notifications. Delivery
// failure is non-fatal everywhere: the record stays persisted and nothing
// is retried.
type Service struct {
	feed      akahu.FeedClient
	messenger Messenger
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a notification service. messenger may be nil, in
// which case notifications are silently skipped.
func NewService(feed akahu.FeedClient, messenger Messenger, timezone string, log zerolog.Logger) (*Service, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid notification timezone %q: %w", timezone, err)
	}
	return &Service{
		feed:      feed,
		messenger: messenger,
		loc:       loc,
		log:       log.With().Str("component", "notification").Logger(),
		now:       time.Now,
	}, nil
}

// NotifyTransaction formats and sends a notification for one transaction.
// The verification dummy is never notified.
func (s *Service) NotifyTransaction(ctx context.Context, tx transaction.Transaction) error {
	if tx.ID == transaction.DummyID {
		return nil
	}
	if s.messenger == nil {
		s.log.Debug().Str("transaction", tx.ID).Msg("notification skipped: no messenger configured")
		return nil
	}

	var view *account.View
	acct, err := s.feed.GetAccount(ctx, tx.Account)
	if err != nil {
		// The message is still worth sending without account detail.
		s.log.Warn().Err(err).Str("account", tx.Account).Msg("failed to resolve account for notification")
	} else if acct != nil {
		v := account.FromFeed(*acct)
		view = &v
	}

	text := FormatTransaction(tx, view, s.now(), s.loc)
	if err := s.messenger.Send(ctx, text); err != nil {
		return fmt.Errorf("failed to send notification for %s: %w", tx.ID, err)
	}

	s.log.Info().Str("transaction", tx.ID).Msg("notification sent")
	return nil
}
