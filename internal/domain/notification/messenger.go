package notification

import "context"

// Messenger delivers a formatted chat message. Implemented by the
// Telegram client in the infrastructure layer.
type Messenger interface {
	Send(ctx context.Context, text string) error
}
