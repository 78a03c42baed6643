package domain

import (
	"context"
)

// EventBus carries shop events to interested subscribers, such as an activity
// log UI. Supports Go channels (default) or NATS.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Payload   []byte `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings
	ChannelBufferSize int

	// NATS settings
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Standard topic names for shop events.
const (
	TopicPetCreated   = "petshop.pet.created"
	TopicPetFed       = "petshop.pet.fed"
	TopicPetPlayed    = "petshop.pet.played"
	TopicPetSold      = "petshop.pet.sold"
	TopicPetDeleted   = "petshop.pet.deleted"
	TopicPetAttention = "petshop.pet.attention"
)

// PetEvent is the payload published on pet topics.
type PetEvent struct {
	PetID     int64   `json:"petId"`
	Name      string  `json:"name"`
	Species   Species `json:"type"`
	Happiness float64 `json:"happiness"`
	Hunger    float64 `json:"hunger"`
	Price     float64 `json:"price,omitempty"`
	Rule      string  `json:"rule,omitempty"`
}
