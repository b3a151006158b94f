package dispatch

import (
	"context"

	"github.com/parleybot/parley/internal/telegram"
)

//go:generate mockgen -destination=mocks/mock_sender.go -package=mocks github.com/parleybot/parley/internal/dispatch Sender

// Sender is the outbound delivery interface plugin responses are forwarded
// through. telegram.Client implements it.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMedia(ctx context.Context, chatID int64, kind telegram.MediaKind, caption, path string) error
	SendLocation(ctx context.Context, chatID int64, lat, lon float64) error
	SendPoll(ctx context.Context, chatID int64, question string, options []string) error
}

// Platform is the inbound long-poll call the poller drives.
type Platform interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
}
