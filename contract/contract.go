//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"devconnect/domain/chat"
	"devconnect/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

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

type ConnectionID string

// Connection is one live transport session as seen by the registry.
// Once Close has been called, Consume must return errors.ErrConnectionClosed.
type Connection interface {
	ID() ConnectionID
	Consume(ctx context.Context, e event.DomainEvent) error
	Close() error
}

type IRegistry interface {
	Join(address chat.Address, conn Connection)
	Leave(address chat.Address, conn Connection)
	LeaveAll(conn Connection) []chat.Address
	Members(address chat.Address) []Connection
	Stats() (rooms, connections int)
}

type IRouter interface {
	RouteMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	RouteEvent(ctx context.Context, cmd chat.CreateNotificationCommand) (chat.Notification, error)
}
