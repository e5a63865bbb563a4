package bus

import "time"

// Event is a discrete control or telemetry notification. UI surfaces and
// the inspector publish property changes and commands into the controller;
// the controller publishes lifecycle and telemetry events back out.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

// EventHandler consumes one delivered event. Handlers run synchronously on
// the publisher's goroutine.
type EventHandler func(Event) error

// EventFilter decides whether a publish proceeds.
type EventFilter func(Event) bool

// Subscription is a live registration of a handler for an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// EventBus routes events by type, optionally namespaced by topic.
type EventBus interface {
	Publish(event Event) error
	PublishToTopic(topic string, event Event) error
	PublishWithFilters(event Event, filters ...EventFilter) error

	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	Unsubscribe(sub Subscription) error

	Metrics() Metrics
}

// Metrics counts bus traffic.
type Metrics struct {
	Published        uint64
	Delivered        uint64
	HandlerErrors    uint64
	DroppedByFilters uint64
}

// Well-known event types used across the lab.
const (
	TypeConfigChanged   = "physics.config_changed"
	TypeGlobalMode      = "physics.global_mode"
	TypeObjectSpawned   = "object.spawned"
	TypeObjectDeleted   = "object.deleted"
	TypeObjectReleased  = "object.released"
	TypeSceneReset      = "scene.reset"
	TypeEnvironmentMode = "environment.mode"
	TypeTelemetryFrame  = "telemetry.frame"
)
