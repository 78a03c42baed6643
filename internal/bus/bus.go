package bus

import (
	"fmt"

	"github.com/happy-paws/petshop/internal/domain"
)

// New creates a new event bus based on configuration.
// In-process deployments use the channel bus; NATS is for deployments where
// the activity log or other consumers run out of process.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
