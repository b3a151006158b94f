package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/parleybot/parley/internal/command"
	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/log"
	"github.com/parleybot/parley/internal/metrics"
	"github.com/parleybot/parley/internal/plugin"
	"github.com/parleybot/parley/internal/telegram"
)

// Dispatcher routes one inbound message at a time: command messages to the
// single plugin owning the command, free-text messages to every enabled
// listener concurrently. Handler faults never cross the dispatch boundary.
type Dispatcher struct {
	registry *plugin.Registry
	sender   Sender
	hub      *events.Hub
	prefix   byte
	logger   *slog.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// New creates a Dispatcher routing through the given registry and delivering
// responses via sender. hub may be nil.
func New(registry *plugin.Registry, sender Sender, hub *events.Hub, prefix byte) *Dispatcher {
	if prefix == 0 {
		prefix = command.DefaultPrefix
	}
	return &Dispatcher{
		registry: registry,
		sender:   sender,
		hub:      hub,
		prefix:   prefix,
		logger:   log.WithComponent("dispatch"),
	}
}

// Go hands msg off to its own goroutine and returns immediately. There is no
// cap on concurrently active dispatches; the ledger and plugin-internal locks
// are the serialization points for shared state.
func (d *Dispatcher) Go(ctx context.Context, msg *telegram.Message) {
	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)
		d.Dispatch(ctx, msg)
	}()
}

// InFlight returns the number of dispatches currently running.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Drain waits for outstanding dispatches, giving up after timeout. It returns
// true when everything finished in time.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		d.logger.Warn("drain timed out with dispatches still in flight", "in_flight", d.InFlight())
		return false
	}
}

// Dispatch classifies and routes a single message synchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *telegram.Message) {
	dispatchID := uuid.NewString()
	logger := log.WithDispatch(dispatchID).With("message_id", msg.MessageID, "chat_id", msg.ChatID())

	cmd, isCommand := command.FromMessage(msg, d.prefix)
	if !isCommand {
		d.invokeListeners(ctx, dispatchID, msg, logger)
		return
	}

	// A bare prefix parses with an empty name; treat it as a no-op.
	if cmd.Name == "" {
		return
	}

	p, ok := d.registry.Resolve(cmd.Name)
	if !ok {
		// No plugin owns this command. Dropped silently: the sender gets
		// no reply from the core.
		logger.Debug("unknown command dropped", "command", cmd.Name)
		metrics.Dispatches.WithLabelValues("drop").Inc()
		d.publish(events.Event{
			Type:       events.TypeDispatchDrop,
			DispatchID: dispatchID,
			ChatID:     msg.ChatID(),
			Detail:     cmd.Name,
		})
		return
	}

	logger.Info("dispatching command", "command", cmd.Name, "plugin", p.Name(), "from", msg.SenderName())
	metrics.Dispatches.WithLabelValues("command").Inc()
	d.publish(events.Event{
		Type:       events.TypeDispatchCommand,
		DispatchID: dispatchID,
		Plugin:     p.Name(),
		ChatID:     msg.ChatID(),
		Detail:     cmd.Name,
	})

	resp := d.invokeCommand(ctx, dispatchID, p, &cmd, logger)
	d.deliver(ctx, dispatchID, msg.ChatID(), p.Name(), resp, logger)
}

// invokeCommand runs the plugin's command handler with panic containment.
func (d *Dispatcher) invokeCommand(ctx context.Context, dispatchID string, p plugin.Plugin, cmd *command.Command, logger *slog.Logger) (resp *plugin.Response) {
	defer d.recoverHandler(dispatchID, p.Name(), logger)

	resp, err := p.OnCommand(ctx, cmd)
	if err != nil {
		d.handlerFailed(dispatchID, p.Name(), logger, err)
		return nil
	}
	return resp
}

// invokeListeners fans the message out to every enabled listener, each in its
// own goroutine. A failing listener never affects its siblings.
func (d *Dispatcher) invokeListeners(ctx context.Context, dispatchID string, msg *telegram.Message, logger *slog.Logger) {
	listeners := d.registry.Listeners()
	if len(listeners) == 0 {
		return
	}

	metrics.Dispatches.WithLabelValues("listener").Inc()
	d.publish(events.Event{
		Type:       events.TypeDispatchListen,
		DispatchID: dispatchID,
		ChatID:     msg.ChatID(),
	})

	var wg sync.WaitGroup
	for _, p := range listeners {
		wg.Add(1)
		go func(p plugin.Plugin) {
			defer wg.Done()
			resp := d.invokeListener(ctx, dispatchID, p, msg, logger)
			d.deliver(ctx, dispatchID, msg.ChatID(), p.Name(), resp, logger)
		}(p)
	}
	wg.Wait()
}

func (d *Dispatcher) invokeListener(ctx context.Context, dispatchID string, p plugin.Plugin, msg *telegram.Message, logger *slog.Logger) (resp *plugin.Response) {
	defer d.recoverHandler(dispatchID, p.Name(), logger)

	resp, err := p.OnMessage(ctx, msg)
	if err != nil {
		d.handlerFailed(dispatchID, p.Name(), logger, err)
		return nil
	}
	return resp
}

// recoverHandler converts a handler panic into "no response".
func (d *Dispatcher) recoverHandler(dispatchID, pluginName string, logger *slog.Logger) {
	if r := recover(); r != nil {
		logger.Error("handler panicked", "plugin", pluginName, "panic", r)
		metrics.HandlerFailures.WithLabelValues(pluginName).Inc()
		d.publish(events.Event{
			Type:       events.TypeHandlerFailure,
			DispatchID: dispatchID,
			Plugin:     pluginName,
		})
	}
}

func (d *Dispatcher) handlerFailed(dispatchID, pluginName string, logger *slog.Logger, err error) {
	logger.Error("handler failed", "plugin", pluginName, "error", err)
	metrics.HandlerFailures.WithLabelValues(pluginName).Inc()
	d.publish(events.Event{
		Type:       events.TypeHandlerFailure,
		DispatchID: dispatchID,
		Plugin:     pluginName,
		Detail:     err.Error(),
	})
}

// deliver forwards a handler response to the platform. Delivery failures are
// logged and dropped, never retried.
func (d *Dispatcher) deliver(ctx context.Context, dispatchID string, chatID int64, pluginName string, resp *plugin.Response, logger *slog.Logger) {
	if resp == nil {
		return
	}

	var err error
	switch resp.Kind {
	case plugin.KindText:
		err = d.sender.SendText(ctx, chatID, resp.Text)
	case plugin.KindMedia:
		err = d.sender.SendMedia(ctx, chatID, resp.Media, resp.Caption, resp.Path)
	case plugin.KindLocation:
		err = d.sender.SendLocation(ctx, chatID, resp.Latitude, resp.Longitude)
	case plugin.KindPoll:
		err = d.sender.SendPoll(ctx, chatID, resp.Question, resp.Options)
	default:
		logger.Warn("ignoring response with unknown kind", "plugin", pluginName, "kind", resp.Kind)
		return
	}

	if err != nil {
		logger.Error("delivery failed", "plugin", pluginName, "kind", resp.Kind, "error", err)
		metrics.DeliveryFailures.Inc()
		return
	}

	metrics.ResponsesSent.WithLabelValues(string(resp.Kind)).Inc()
	d.publish(events.Event{
		Type:       events.TypeResponseSent,
		DispatchID: dispatchID,
		Plugin:     pluginName,
		ChatID:     chatID,
		Detail:     string(resp.Kind),
	})
}

func (d *Dispatcher) publish(ev events.Event) {
	if d.hub != nil {
		d.hub.Publish(ev)
	}
}
