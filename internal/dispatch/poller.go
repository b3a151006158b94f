package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/log"
	"github.com/parleybot/parley/internal/metrics"
)

const (
	// DefaultPollTimeout is the server-side long-poll hold time in seconds.
	DefaultPollTimeout = 30

	// DefaultRetryDelay is the pause before retrying after a failed poll.
	DefaultRetryDelay = 3 * time.Second
)

// Poller drives the inbound long-poll loop. It is the only component that
// blocks on the platform; every received message is handed to the dispatcher
// on its own goroutine so the loop is never held up by slow handlers.
//
// The offset cursor is the highest seen update id plus one, held in process
// memory only. A restart resumes from whatever the platform considers
// unconfirmed; already-processed ids are not replayed.
type Poller struct {
	platform   Platform
	dispatcher *Dispatcher
	hub        *events.Hub
	logger     *slog.Logger

	timeout    int
	retryDelay time.Duration
}

// NewPoller creates a Poller. timeout is the long-poll hold in seconds;
// zero picks DefaultPollTimeout.
func NewPoller(platform Platform, dispatcher *Dispatcher, hub *events.Hub, timeout int) *Poller {
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Poller{
		platform:   platform,
		dispatcher: dispatcher,
		hub:        hub,
		logger:     log.WithComponent("poller"),
		timeout:    timeout,
		retryDelay: DefaultRetryDelay,
	}
}

// Run polls until ctx is cancelled. A failed poll is logged and retried with
// the same cursor after a short delay; the cursor only advances past updates
// that were actually handed off.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poll loop started", "timeout", p.timeout)
	defer p.logger.Info("poll loop stopped")

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.platform.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("poll failed, retrying with same cursor", "offset", offset, "error", err)
			metrics.PollFailures.Inc()
			if !sleepCtx(ctx, p.retryDelay) {
				return ctx.Err()
			}
			continue
		}

		if len(updates) == 0 {
			continue
		}

		metrics.UpdatesPolled.Add(float64(len(updates)))
		if p.hub != nil {
			p.hub.Publish(events.Event{Type: events.TypePollBatch, Detail: time.Now().UTC().Format(time.RFC3339)})
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil {
				// Edits, channel posts and other update kinds are not
				// dispatched.
				continue
			}
			p.dispatcher.Go(ctx, u.Message)
		}
	}
}

// sleepCtx sleeps for d unless ctx is cancelled first. Returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
