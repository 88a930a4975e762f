package runtime

import (
	"context"
	"devconnect/contract"
	"devconnect/domain/chat"
	"devconnect/domain/event"
	"devconnect/errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recordingConnection keeps what it receives until it is closed.
type recordingConnection struct {
	mu     sync.Mutex
	id     contract.ConnectionID
	events []event.DomainEvent
	closed bool
	err    error
}

func newRecordingConnection() *recordingConnection {
	return &recordingConnection{id: contract.ConnectionID(uuid.NewString())}
}

func (c *recordingConnection) ID() contract.ConnectionID { return c.id }

func (c *recordingConnection) Consume(_ context.Context, e event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *recordingConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConnection) received() []event.DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.DomainEvent(nil), c.events...)
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelError)
}

var (
	developer    = chat.NewAddress(chat.Developer, "7")
	entrepreneur = chat.NewAddress(chat.Entrepreneur, "3")
)

func TestRegistry_Join_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	conn := newRecordingConnection()

	// Given no room exists
	rooms, connections := registry.Stats()
	req.Zero(rooms)
	req.Zero(connections)

	// When the same connection joins the same address twice
	registry.Join(developer, conn)
	registry.Join(developer, conn)

	// Then it is a single member of a single room
	req.Len(registry.Members(developer), 1)
	rooms, connections = registry.Stats()
	req.Equal(1, rooms)
	req.Equal(1, connections)
}

func TestRegistry_Members_Of_Several_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	laptop := newRecordingConnection()
	phone := newRecordingConnection()

	registry.Join(developer, laptop)
	registry.Join(developer, phone)

	members := registry.Members(developer)
	req.Len(members, 2)
	req.ElementsMatch([]contract.ConnectionID{laptop.ID(), phone.ID()},
		[]contract.ConnectionID{members[0].ID(), members[1].ID()})
	req.Empty(registry.Members(entrepreneur))
}

func TestRegistry_Leave_Removes_Empty_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	conn := newRecordingConnection()

	// Given a connection in two rooms
	registry.Join(developer, conn)
	registry.Join(entrepreneur, conn)

	// When it leaves one of them
	registry.Leave(developer, conn)

	// Then the empty room is gone and the connection stays open
	req.Empty(registry.Members(developer))
	req.Len(registry.Members(entrepreneur), 1)
	rooms, connections := registry.Stats()
	req.Equal(1, rooms)
	req.Equal(1, connections)
	req.NoError(conn.Consume(context.Background(), event.MessageSent{}))
}

func TestRegistry_LeaveAll(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	conn := newRecordingConnection()
	other := newRecordingConnection()

	// Given a connection in two rooms, sharing one of them
	registry.Join(developer, conn)
	registry.Join(entrepreneur, conn)
	registry.Join(entrepreneur, other)

	// When it disconnects
	left := registry.LeaveAll(conn)

	// Then it was removed from every room at once
	req.ElementsMatch([]chat.Address{developer, entrepreneur}, left)
	req.Empty(registry.Members(developer))
	req.Len(registry.Members(entrepreneur), 1)
	req.Equal(other.ID(), registry.Members(entrepreneur)[0].ID())

	// And a stale snapshot can no longer deliver to it
	req.ErrorIs(conn.Consume(context.Background(), event.MessageSent{}), errors.ErrConnectionClosed)

	// And leaving again is harmless
	req.Empty(registry.LeaveAll(conn))
}

func TestRegistry_CloseAll(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())
	first := newRecordingConnection()
	second := newRecordingConnection()
	registry.Join(developer, first)
	registry.Join(entrepreneur, first)
	registry.Join(entrepreneur, second)

	req.Equal(2, registry.CloseAll())

	rooms, connections := registry.Stats()
	req.Zero(rooms)
	req.Zero(connections)
	req.True(first.closed)
	req.True(second.closed)
}

func TestRegistry_Concurrent_Join_And_Leave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := newRecordingConnection()
			registry.Join(developer, conn)
			_ = registry.Members(developer)
			registry.LeaveAll(conn)
		}()
	}
	wg.Wait()

	rooms, connections := registry.Stats()
	req.Zero(rooms)
	req.Zero(connections)
}
