// Package chat contains the core concepts of the marketplace messaging system.
// This file defines actor addresses and the conversation key built from them.
// No runtime, network, or storage logic should be added here.
package chat

import (
	"fmt"
	"strings"
)

type ActorKind string

const (
	Developer    ActorKind = "developer"
	Entrepreneur ActorKind = "entrepreneur"
)

// Valid reports whether k is one of the two marketplace actor kinds.
func (k ActorKind) Valid() bool {
	return k == Developer || k == Entrepreneur
}

// Counterpart returns the other side of the marketplace.
func (k ActorKind) Counterpart() ActorKind {
	if k == Developer {
		return Entrepreneur
	}
	return Developer
}

// Address identifies a message endpoint, a notification target and a room.
// IDs never contain '/', ':' or '|' so that rendered keys cannot collide.
type Address struct {
	Kind ActorKind `validate:"required,oneof=developer entrepreneur"`
	ID   string    `validate:"required,max=64,printascii,excludesall=/:0x7C"`
}

func NewAddress(kind ActorKind, id string) Address {
	return Address{Kind: kind, ID: id}
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%s", a.Kind, a.ID)
}

// ConversationKey identifies a two-party thread regardless of who sends.
type ConversationKey string

// KeyOf returns the same key for (a, b) and (b, a).
func KeyOf(a, b Address) ConversationKey {
	first, second := a.String(), b.String()
	if strings.Compare(first, second) > 0 {
		first, second = second, first
	}
	return ConversationKey(first + "|" + second)
}
