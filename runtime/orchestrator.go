package runtime

import (
	"context"
	"sync"
	"time"

	"baatchit/contract"
	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/runtime/workers"

	"log/slog"
)

// Orchestrator owns the change-event pipeline: writers publish store
// changes, the supervised fanout worker delivers them to the permanent
// sinks and to the live timeline subscriptions.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	supervisor     contract.ISupervisor
	registry       *Registry
	permanentSinks []contract.EventSink
	changes        chan event.ChangeEvent
	sinkTimeout    time.Duration
	metricInterval time.Duration
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor contract.ISupervisor,
	registry *Registry,
	bufferSize int,
	sinkTimeout time.Duration,
	metricInterval time.Duration,
) *Orchestrator {
	return &Orchestrator{
		log:            log,
		supervisor:     supervisor,
		registry:       registry,
		changes:        make(chan event.ChangeEvent, bufferSize),
		sinkTimeout:    sinkTimeout,
		metricInterval: metricInterval,
	}
}

// Add registers permanent sinks, delivered every change event regardless
// of conversation. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Publish enqueues a change event without blocking the writer. The store
// is the source of truth: a dropped notification only delays a projection
// until the next rebuild, it never loses data.
func (o *Orchestrator) Publish(e event.ChangeEvent) {
	select {
	case o.changes <- e:
	default:
		o.log.Warn("Change channel full, dropping notification", "chatId", e.ChatID())
	}
}

// Watch opens a live subscription for one viewer on one conversation and
// returns its cancel handle. The registry cancels any previous
// subscription of the same viewer first.
func (o *Orchestrator) Watch(viewerID domain.UserID, chatID domain.ChatID, sink contract.EventSink) contract.Cancel {
	return o.registry.Subscribe(viewerID, chatID, sink)
}

// Unwatch drops the viewer's current subscription, if any.
func (o *Orchestrator) Unwatch(viewerID domain.UserID) {
	o.registry.Unsubscribe(viewerID)
}

// Start registers the workers with the supervisor and launches the
// supervision loop. It returns once the pipeline is running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	fanout := workers.NewChangeFanout(o.log, o.changes, o.permanentSinks, o.registry, o.sinkTimeout)
	o.supervisor.Add(fanout)
	o.supervisor.Add(workers.NewHealthWorker(o.log, o.metricInterval))
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown of the orchestrator by cancelling
// the supervision context, which signals all workers to stop.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
