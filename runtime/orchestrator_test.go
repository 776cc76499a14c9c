package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/runtime/workers"

	"github.com/stretchr/testify/require"
)

type safeSink struct {
	mu     sync.Mutex
	events []event.ChangeEvent
}

func (s *safeSink) Consume(_ context.Context, e event.ChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *safeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestOrchestrator(bufferSize int) *Orchestrator {
	log := slog.Default()
	supervisor := workers.NewSupervisor(log, time.Millisecond)
	return NewOrchestrator(log, supervisor, NewRegistry(), bufferSize, time.Second, time.Minute)
}

func TestOrchestrator_PublishNeverBlocksWriters(t *testing.T) {
	orchestrator := newTestOrchestrator(2)

	// No consumer is running, so anything past the buffer is dropped.
	// The writer must still return immediately.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			orchestrator.Publish(added("a_b"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Publish blocked on a full change channel")
	}
}

func TestOrchestrator_DeliversToPermanentAndWatchingSinks(t *testing.T) {
	req := require.New(t)
	orchestrator := newTestOrchestrator(64)

	permanent := &safeSink{}
	orchestrator.Add(permanent)

	watching := &safeSink{}
	bystander := &safeSink{}
	orchestrator.Watch(domain.UserID("bob"), domain.ChatID("alice_bob"), watching)
	orchestrator.Watch(domain.UserID("eve"), domain.ChatID("eve_mallory"), bystander)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req.NoError(orchestrator.Start(ctx))
	defer orchestrator.Stop()

	orchestrator.Publish(added("alice_bob"))

	req.Eventually(func() bool { return permanent.count() == 1 }, time.Second, 10*time.Millisecond)
	req.Eventually(func() bool { return watching.count() == 1 }, time.Second, 10*time.Millisecond)
	req.Zero(bystander.count())
}

func TestOrchestrator_UnwatchStopsDelivery(t *testing.T) {
	req := require.New(t)
	orchestrator := newTestOrchestrator(64)

	watching := &safeSink{}
	orchestrator.Watch(domain.UserID("bob"), domain.ChatID("alice_bob"), watching)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req.NoError(orchestrator.Start(ctx))
	defer orchestrator.Stop()

	orchestrator.Publish(added("alice_bob"))
	req.Eventually(func() bool { return watching.count() == 1 }, time.Second, 10*time.Millisecond)

	orchestrator.Unwatch(domain.UserID("bob"))
	orchestrator.Publish(added("alice_bob"))

	// Give the fanout a chance to misbehave before asserting
	time.Sleep(50 * time.Millisecond)
	req.Equal(1, watching.count())
}
