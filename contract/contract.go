//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"baatchit/domain"
	"baatchit/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes store change events. Sinks materialize projections
// (timelines, recent contacts) and must never block the fanout for long.
type EventSink interface {
	Consume(ctx context.Context, e event.ChangeEvent) error
}

// IRegistry tracks which sink is watching which conversation.
// One viewer has at most one live subscription at a time.
type IRegistry interface {
	GetSinksForChat(chatID domain.ChatID) []EventSink
	Subscribe(viewerID domain.UserID, chatID domain.ChatID, sink EventSink) Cancel
	Unsubscribe(viewerID domain.UserID)
}

// Cancel stops delivery for one subscription. Safe to call several times.
type Cancel func()

type IOrchestrator interface {
	Add(sinks ...EventSink)
	Publish(e event.ChangeEvent)
	Watch(viewerID domain.UserID, chatID domain.ChatID, sink EventSink) Cancel
	Start(ctx context.Context) error
	Stop()
}
