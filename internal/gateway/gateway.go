package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stellarlinkco/planit/internal/bus"
	"github.com/stellarlinkco/planit/internal/channel"
	"github.com/stellarlinkco/planit/internal/config"
	"github.com/stellarlinkco/planit/internal/cron"
)

const (
	reindexJobName = "__internal_knowledge_reindex"
	reindexJobMsg  = "__internal:knowledge:reindex"
	reindexJobExpr = "0 0 */6 * * *"

	// maxConcurrentChats bounds how many inbound messages are answered at once.
	maxConcurrentChats = 4

	errorReply = "Sorry, I encountered an error processing your message."
)

// Chatter answers one chat message within a session; the planner routes it
// to a plan or the agent.
type Chatter interface {
	Converse(ctx context.Context, session, msg string) (string, error)
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	services   *Services
	assistant  Chatter
	channels   *channel.ChannelManager
	cron       *cron.Service
	signalChan chan os.Signal // for testing
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{cfg: cfg, signalChan: opts.SignalChan}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	services, err := NewServices(cfg, opts)
	if err != nil {
		return nil, err
	}
	g.services = services
	g.assistant = services.Planner

	cronStorePath := filepath.Join(config.ConfigDir(), "data", "cron", "jobs.json")
	g.cron = cron.NewService(services.fs, cronStorePath)
	g.cron.OnJob = g.runJob

	api := channel.WebAPI{
		Assistant: services.Planner,
		Tools:     services.Registry,
		Timeout:   g.chatTimeout(),
	}
	if services.Metrics != nil {
		api.Metrics = services.Metrics.Handler()
	}
	chMgr, err := channel.NewChannelManagerWithGateway(cfg.Channels, cfg.Gateway, g.bus, api)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	return g, nil
}

func (g *Gateway) chatTimeout() time.Duration {
	if g.cfg.Agent.TimeoutSeconds <= 0 {
		return time.Duration(config.DefaultTimeoutSeconds) * time.Second
	}
	return time.Duration(g.cfg.Agent.TimeoutSeconds) * time.Second
}

func (g *Gateway) runJob(ctx context.Context, job cron.CronJob) (string, error) {
	if job.Payload.Message == reindexJobMsg {
		return g.services.Reindex()
	}

	ctx, cancel := context.WithTimeout(ctx, g.chatTimeout())
	defer cancel()

	// scheduled runs are independent of each other
	result, err := g.assistant.Converse(ctx, "", job.Payload.Message)
	if err != nil {
		return "", err
	}
	if job.Payload.Deliver && job.Payload.Channel != "" {
		err := g.bus.PublishOutbound(ctx, bus.OutboundMessage{
			Channel: job.Payload.Channel,
			ChatID:  job.Payload.To,
			Content: result,
		})
		if err != nil {
			return result, fmt.Errorf("deliver result: %w", err)
		}
	}
	return result, nil
}

func (g *Gateway) ensureInternalJobs() error {
	for _, job := range g.cron.ListJobs() {
		if job.Payload.Message == reindexJobMsg || job.Name == reindexJobName {
			return nil
		}
	}
	_, err := g.cron.AddJob(reindexJobName,
		cron.Schedule{Kind: cron.KindCron, Expr: reindexJobExpr},
		cron.Payload{Message: reindexJobMsg},
	)
	return err
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		_ = g.Shutdown()
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	if err := g.cron.Start(ctx); err != nil {
		log.Printf("[gateway] cron start warning: %v", err)
	}
	if err := g.ensureInternalJobs(); err != nil {
		log.Printf("[gateway] ensure internal jobs warning: %v", err)
	}

	go g.processLoop(ctx)

	log.Printf("[gateway] running on %s:%d", g.cfg.Gateway.Host, g.cfg.Gateway.Port)

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	var eg errgroup.Group
	eg.SetLimit(maxConcurrentChats)
	defer eg.Wait()

	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound from %s/%s: %s", msg.Channel, msg.SenderID, truncate(msg.Content, 80))
			eg.Go(func() error {
				g.answer(ctx, msg)
				return nil
			})
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gateway) answer(ctx context.Context, msg bus.InboundMessage) {
	chatCtx, cancel := context.WithTimeout(ctx, g.chatTimeout())
	defer cancel()

	result, err := g.assistant.Converse(chatCtx, msg.SessionKey(), msg.Content)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("[gateway] assistant error for %s: %v", msg.SessionKey(), err)
		result = errorReply
	}
	if result == "" {
		return
	}

	err = g.bus.PublishOutbound(ctx, bus.OutboundMessage{
		Channel: msg.Channel,
		ChatID:  msg.ChatID,
		Content: result,
	})
	if err != nil {
		log.Printf("[gateway] drop reply for %s: %v", msg.SessionKey(), err)
	}
}

func (g *Gateway) Shutdown() error {
	g.cron.Stop()
	_ = g.channels.StopAll()
	if err := g.services.Close(); err != nil {
		log.Printf("[gateway] close knowledge index warning: %v", err)
	}
	log.Printf("[gateway] shutdown complete")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
