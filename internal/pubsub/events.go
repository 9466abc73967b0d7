// Package pubsub fans hierarchy notifications and log lines out to
// asynchronous consumers such as the interactive stepper.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	ChildrenAddedEvent   EventType = "children-added"
	ChildrenRemovedEvent EventType = "children-removed"
	ParentChangedEvent   EventType = "parent-changed"
	LogLineEvent         EventType = "log"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
