package workers_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"baatchit/contract"
	"baatchit/domain"
	"baatchit/domain/event"
	"baatchit/runtime"
	"baatchit/runtime/workers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []event.ChangeEvent
	err    error
}

func (s *captureSink) Consume(_ context.Context, e event.ChangeEvent) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func messageAdded(chatID domain.ChatID) event.MessageAdded {
	return event.MessageAdded{Message: domain.Message{ID: uuid.New(), ChatID: chatID}}
}

func TestChangeFanout_DeliversToPermanentAndWatchingSinks(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	permanent := &captureSink{}
	watcher := &captureSink{}
	bystander := &captureSink{}

	registry := runtime.NewRegistry()
	registry.Subscribe("u1", "u1_u2", watcher)
	registry.Subscribe("u3", "u3_u4", bystander)

	fanout := workers.NewChangeFanout(slog.Default(), nil,
		[]contract.EventSink{permanent}, registry, time.Second)

	fanout.Fanout(ctx, messageAdded("u1_u2"))

	req.Equal(1, permanent.count())
	req.Equal(1, watcher.count())
	req.Zero(bystander.count(), "sinks of other conversations stay untouched")
}

func TestChangeFanout_FailingSinkDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	broken := &captureSink{err: fmt.Errorf("projection rebuild failed")}
	healthy := &captureSink{}

	fanout := workers.NewChangeFanout(slog.Default(), nil,
		[]contract.EventSink{broken, healthy}, runtime.NewRegistry(), time.Second)

	fanout.Fanout(ctx, messageAdded("u1_u2"))

	req.Equal(1, healthy.count())
}

func TestChangeFanout_RunStopsOnContextCancel(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	changes := make(chan event.ChangeEvent, 1)
	permanent := &captureSink{}
	fanout := workers.NewChangeFanout(slog.Default(), changes,
		[]contract.EventSink{permanent}, runtime.NewRegistry(), time.Second)

	done := make(chan struct{})
	go func() {
		req.NoError(fanout.Run(ctx))
		close(done)
	}()

	changes <- messageAdded("u1_u2")

	req.Eventually(func() bool { return permanent.count() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fanout did not stop")
	}
}
