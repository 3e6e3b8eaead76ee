// Package events publishes registry lifecycle notifications. Publishing is
// fire-and-forget: a lost event must never fail the operation it describes.
package events

import (
	"context"
	"time"
)

// Event is one lifecycle notification.
type Event struct {
	// Entity names the kind of object the event is about: service,
	// capability, route or artifact.
	Entity string `json:"entity"`
	// Action is what happened: registered, updated, unregistered, created,
	// status_changed, promoted.
	Action string `json:"action"`
	// Subject is the identity key of the affected entity.
	Subject string    `json:"subject"`
	Tenant  string    `json:"tenant,omitempty"`
	At      time.Time `json:"at"`

	Detail map[string]any `json:"detail,omitempty"`
}

// Publisher delivers lifecycle events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	// Close releases the underlying transport. Safe to call more than once.
	Close()
}

// NopPublisher discards every event. It is the default when no event
// transport is configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() {}
