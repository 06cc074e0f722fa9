package channel

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/stellarlinkco/planit/internal/bus"
	"github.com/stellarlinkco/planit/internal/config"
)

type ChannelManager struct {
	channels map[string]Channel
	bus      *bus.MessageBus
}

func NewChannelManager(cfg config.ChannelsConfig, b *bus.MessageBus) (*ChannelManager, error) {
	m := &ChannelManager{
		channels: make(map[string]Channel),
		bus:      b,
	}

	if cfg.Telegram.Enabled {
		ch, err := NewTelegramChannel(cfg.Telegram, b)
		if err != nil {
			return nil, fmt.Errorf("init telegram channel: %w", err)
		}
		m.add(ch)
	}

	return m, nil
}

// NewChannelManagerWithGateway also builds the web UI, which needs the
// gateway address and the synchronous API backends.
func NewChannelManagerWithGateway(cfg config.ChannelsConfig, gwCfg config.GatewayConfig, b *bus.MessageBus, api WebAPI) (*ChannelManager, error) {
	m, err := NewChannelManager(cfg, b)
	if err != nil {
		return nil, err
	}

	if cfg.WebUI.Enabled {
		ch, err := NewWebUIChannel(cfg.WebUI, gwCfg, b, api)
		if err != nil {
			return nil, fmt.Errorf("init webui channel: %w", err)
		}
		m.add(ch)
	}

	return m, nil
}

func (m *ChannelManager) add(ch Channel) {
	m.channels[ch.Name()] = ch
	m.bus.SubscribeOutbound(ch.Name(), func(msg bus.OutboundMessage) {
		if err := ch.Send(msg); err != nil {
			log.Printf("[channel-mgr] send to %s failed: %v", ch.Name(), err)
		}
	})
}

// StartAll starts every channel concurrently and returns the first failure.
// ctx is handed to the channels as is, so it must outlive the call.
func (m *ChannelManager) StartAll(ctx context.Context) error {
	var g errgroup.Group
	for name, ch := range m.channels {
		g.Go(func() error {
			log.Printf("[channel-mgr] starting %s", name)
			if err := ch.Start(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (m *ChannelManager) StopAll() error {
	for name, ch := range m.channels {
		log.Printf("[channel-mgr] stopping %s", name)
		if err := ch.Stop(); err != nil {
			log.Printf("[channel-mgr] error stopping %s: %v", name, err)
		}
	}
	return nil
}

func (m *ChannelManager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
