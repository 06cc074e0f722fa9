package channel

import (
	"context"

	"github.com/stellarlinkco/planit/internal/bus"
)

// Channel is a chat surface that feeds user messages into the bus and
// delivers replies back to the user.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

type BaseChannel struct {
	name      string
	bus       *bus.MessageBus
	allowFrom map[string]struct{}
}

func NewBaseChannel(name string, b *bus.MessageBus, allowFrom []string) BaseChannel {
	allowed := make(map[string]struct{}, len(allowFrom))
	for _, id := range allowFrom {
		if id != "" {
			allowed[id] = struct{}{}
		}
	}
	return BaseChannel{name: name, bus: b, allowFrom: allowed}
}

func (c *BaseChannel) Name() string { return c.name }

// IsAllowed reports whether senderID may talk to the assistant. An empty
// allow-list admits everyone.
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowFrom) == 0 {
		return true
	}
	_, ok := c.allowFrom[senderID]
	return ok
}
