// Package bus connects chat channels to the gateway through two buffered
// queues. Channels write to Inbound; the gateway writes replies to Outbound
// and DispatchOutbound fans them out to the subscriber registered for the
// message's channel.
package bus

import (
	"context"
	"log"
	"sync"
)

type OutboundHandler func(msg OutboundMessage)

type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu          sync.RWMutex
	subscribers map[string][]OutboundHandler
}

func NewMessageBus(bufSize int) *MessageBus {
	if bufSize < 0 {
		bufSize = 0
	}
	return &MessageBus{
		Inbound:     make(chan InboundMessage, bufSize),
		Outbound:    make(chan OutboundMessage, bufSize),
		subscribers: make(map[string][]OutboundHandler),
	}
}

// SubscribeOutbound registers fn for replies addressed to channel.
func (b *MessageBus) SubscribeOutbound(channel string, fn OutboundHandler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[channel] = append(b.subscribers[channel], fn)
	b.mu.Unlock()
}

// PublishInbound enqueues msg, giving up when ctx is done.
func (b *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) error {
	select {
	case b.Inbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishOutbound enqueues msg, giving up when ctx is done.
func (b *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) error {
	select {
	case b.Outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchOutbound delivers outbound messages until ctx is cancelled.
// Messages for a channel nobody subscribed to are dropped with a log line.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.dispatch(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (b *MessageBus) dispatch(msg OutboundMessage) {
	b.mu.RLock()
	handlers := b.subscribers[msg.Channel]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		log.Printf("[bus] no subscriber for channel %q, dropping message", msg.Channel)
		return
	}
	for _, fn := range handlers {
		fn(msg)
	}
}
