package runtime

import (
	"devconnect/contract"
	"devconnect/domain/chat"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

type room map[contract.ConnectionID]contract.Connection

// Registry maps every Address to the live connections that joined it.
// A connection may sit in several rooms; the reverse index lets a disconnect
// remove it from all of them at once.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	rooms       map[chat.Address]room
	memberships map[contract.ConnectionID]map[chat.Address]struct{}
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:         log,
		rooms:       make(map[chat.Address]room),
		memberships: make(map[contract.ConnectionID]map[chat.Address]struct{}),
	}
}

// Join adds conn to the room of address, creating the room on first join.
// Joining twice is a no-op.
func (r *Registry) Join(address chat.Address, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[address]
	if !ok {
		members = make(room)
		r.rooms[address] = members
	}
	members[conn.ID()] = conn

	joined, ok := r.memberships[conn.ID()]
	if !ok {
		joined = make(map[chat.Address]struct{})
		r.memberships[conn.ID()] = joined
	}
	joined[address] = struct{}{}
}

// Leave removes conn from a single room. The connection stays open.
func (r *Registry) Leave(address chat.Address, conn contract.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(address, conn.ID())
}

// LeaveAll closes conn, then drops it from every room it joined and returns
// those addresses. Closing first means a broadcast holding an older Members
// snapshot gets ErrConnectionClosed instead of delivering.
func (r *Registry) LeaveAll(conn contract.Connection) []chat.Address {
	if err := conn.Close(); err != nil {
		r.log.Debug("Connection close failed", "connection_id", conn.ID(), "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	addresses := lo.Keys(r.memberships[conn.ID()])
	for _, address := range addresses {
		r.remove(address, conn.ID())
	}
	delete(r.memberships, conn.ID())
	return addresses
}

// remove must be called with the write lock held.
func (r *Registry) remove(address chat.Address, id contract.ConnectionID) {
	if members, ok := r.rooms[address]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, address)
		}
	}
	if joined, ok := r.memberships[id]; ok {
		delete(joined, address)
		if len(joined) == 0 {
			delete(r.memberships, id)
		}
	}
}

// Members returns a snapshot of the connections in the room of address.
// The caller delivers outside the lock.
func (r *Registry) Members(address chat.Address) []contract.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.rooms[address])
}

func (r *Registry) Stats() (rooms, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.memberships)
}

// CloseAll disconnects every registered connection and returns how many
// there were.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	conns := make([]contract.Connection, 0, len(r.memberships))
	for _, members := range r.rooms {
		conns = append(conns, lo.Values(members)...)
	}
	r.mu.RUnlock()

	conns = lo.UniqBy(conns, func(conn contract.Connection) contract.ConnectionID { return conn.ID() })
	for _, conn := range conns {
		r.LeaveAll(conn)
	}
	return len(conns)
}
