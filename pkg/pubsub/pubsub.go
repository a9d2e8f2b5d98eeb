// Package pubsub fans project lifecycle events out to subscribers, e.g. the
// server-sent event stream of the web surface.
package pubsub

import (
	"context"
	"encoding/json"
)

// TopicProjectStatus carries snapshot load and reload events
const TopicProjectStatus = "project_status"

// Project states published on TopicProjectStatus
const (
	StateLoading   = "loading"
	StateReady     = "ready"
	StateReloading = "reloading"
	StateFailed    = "failed"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // One of the State constants for project_status
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // Per-topic, increasing
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// ProjectStatus is the payload of project_status events
type ProjectStatus struct {
	State      string `json:"state"`
	Message    string `json:"message"`
	Root       string `json:"root"`
	Generation int    `json:"generation"` // Bumped on every successful load
	Types      int    `json:"types"`
	Sources    int    `json:"sources"`
	Scenes     int    `json:"scenes"`
	Error      string `json:"error,omitempty"`
}
