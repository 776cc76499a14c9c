package workers

import (
	"context"
	"log/slog"
	"time"

	"baatchit/contract"
	"baatchit/domain/event"
)

// ChangeFanout broadcasts store change events to in-process consumers:
// the permanent sinks (recent-contacts aggregator) and whichever timeline
// subscriptions currently watch the event's conversation.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. ChangeFanout is not a message broker.
//
// ChangeFanout is safe for concurrent use by multiple goroutines.
type ChangeFanout struct {
	log            *slog.Logger
	changes        chan event.ChangeEvent
	permanentSinks []contract.EventSink
	registry       contract.IRegistry
	sinkTimeout    time.Duration
}

func NewChangeFanout(
	log *slog.Logger,
	changes chan event.ChangeEvent,
	permanentSinks []contract.EventSink,
	registry contract.IRegistry,
	sinkTimeout time.Duration,
) *ChangeFanout {
	return &ChangeFanout{
		log:            log,
		changes:        changes,
		permanentSinks: permanentSinks,
		registry:       registry,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *ChangeFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.changes:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping change fanout")
			return nil
		}
	}
}

// Fanout delivers one event to every interested sink. A failing sink is
// logged and skipped: the last good state of its projection stays in
// place, and the other sinks still receive the event.
func (w *ChangeFanout) Fanout(ctx context.Context, evt event.ChangeEvent) {
	sinks := append([]contract.EventSink(nil), w.permanentSinks...)
	sinks = append(sinks, w.registry.GetSinksForChat(evt.ChatID())...)

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Error("Sink failed to consume change event",
				"chatId", evt.ChatID(), "err", err)
		}
		cancel()
	}
}
