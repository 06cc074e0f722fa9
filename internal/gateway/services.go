package gateway

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/stellarlinkco/planit/internal/config"
	"github.com/stellarlinkco/planit/internal/knowledge"
	"github.com/stellarlinkco/planit/internal/llm"
	"github.com/stellarlinkco/planit/internal/metrics"
	"github.com/stellarlinkco/planit/internal/planner"
	"github.com/stellarlinkco/planit/internal/react"
	"github.com/stellarlinkco/planit/internal/session"
	"github.com/stellarlinkco/planit/internal/tools"
	"github.com/stellarlinkco/planit/internal/travel"
)

var ErrKnowledgeUnavailable = errors.New("knowledge base unavailable")

// BackendFactory creates the completion backend (allows injection in tests).
type BackendFactory func(cfg *config.Config) (llm.Backend, error)

// DefaultBackendFactory selects the backend from cfg.Provider.
func DefaultBackendFactory(cfg *config.Config) (llm.Backend, error) {
	return llm.NewBackend(cfg)
}

type Options struct {
	BackendFactory BackendFactory
	Fs             afero.Fs     // defaults to the OS filesystem
	HTTPClient     *http.Client // shared by the network tools
	SignalChan     chan os.Signal
}

// Services is the assistant stack shared by the gateway and the CLI: the
// completion backend, tool registry and executor, reasoning loop, planner,
// conversation history, knowledge index and metrics.
type Services struct {
	Backend   llm.Backend
	Registry  *tools.Registry
	Executor  *tools.Executor
	Agent     *react.Agent
	Planner   *planner.Planner
	Sessions  *session.Store
	Knowledge *knowledge.Engine // nil when the index could not be opened
	Metrics   *metrics.Metrics  // nil when metrics are disabled

	fs           afero.Fs
	knowledgeDir string
}

func NewServices(cfg *config.Config, opts Options) (*Services, error) {
	factory := opts.BackendFactory
	if factory == nil {
		factory = DefaultBackendFactory
	}
	backend, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Backend:      backend,
		fs:           opts.Fs,
		knowledgeDir: cfg.KnowledgeDir(),
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if cfg.Metrics.Enabled {
		s.Metrics = metrics.New(prometheus.NewRegistry())
	}

	// The knowledge index is optional: without it search_knowledge reports
	// an error result and everything else keeps working.
	engine, err := knowledge.NewEngine(cfg.KnowledgeDBPath())
	if err != nil {
		log.Printf("[knowledge] open index warning: %v", err)
	} else {
		s.Knowledge = engine
		if summary, err := s.Reindex(); err != nil {
			log.Printf("[knowledge] index warning: %v", err)
		} else {
			log.Printf("[knowledge] %s", summary)
		}
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.Tools.TimeoutSeconds) * time.Second}
	}
	geo, err := travel.NewGeocoder(cfg.Tools.GeocodeURL, cfg.Tools.UserAgent, client)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create geocoder: %w", err)
	}

	deps := travel.Deps{
		Weather: travel.NewWeatherService(cfg.Tools.WeatherURL, geo, cfg.Tools.UserAgent, client),
		Web:     travel.NewWebSearcher(cfg.Tools.SearchURL, cfg.Tools.SearchResults, cfg.Tools.UserAgent, client),
	}
	if s.Knowledge != nil {
		deps.Knowledge = s.Knowledge
	}

	s.Registry = tools.NewRegistry()
	if err := travel.Register(s.Registry, deps); err != nil {
		s.Close()
		return nil, fmt.Errorf("register tools: %w", err)
	}

	s.Executor = tools.NewExecutor(s.Registry,
		tools.WithTimeout(time.Duration(cfg.Tools.TimeoutSeconds)*time.Second),
		tools.WithObserver(s.Metrics),
	)

	s.Agent, err = react.New(backend, s.Registry, s.Executor,
		react.WithMaxIterations(cfg.Agent.MaxIterations),
		react.WithTemperature(cfg.Agent.Temperature),
		react.WithObserver(s.Metrics),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create agent: %w", err)
	}

	s.Sessions, err = session.NewStore(session.DefaultMaxSessions, session.DefaultMaxTurns, session.DefaultTTL)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Planner, err = planner.New(backend,
		planner.WithGeocoder(geo),
		planner.WithAgent(s.Agent),
		planner.WithHistory(s.Sessions),
		planner.WithTemperature(cfg.Agent.Temperature),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create planner: %w", err)
	}

	return s, nil
}

// Reindex refreshes the built-in travel notes and the documents in the
// knowledge directory, dropping entries whose source is gone.
func (s *Services) Reindex() (string, error) {
	if s.Knowledge == nil {
		return "", ErrKnowledgeUnavailable
	}

	seed := travel.SeedDocuments()
	seeded, err := s.Knowledge.Seed(seed)
	if err != nil {
		return "", fmt.Errorf("seed built-in notes: %w", err)
	}
	keep := make([]string, 0, len(seed))
	for _, d := range seed {
		keep = append(keep, d.Source)
	}
	if _, err := s.Knowledge.Prune(travel.BuiltinSourcePrefix, keep); err != nil {
		return "", fmt.Errorf("prune built-in notes: %w", err)
	}

	written, removed, err := s.Knowledge.Reindex(s.fs, s.knowledgeDir)
	if err != nil {
		return "", fmt.Errorf("reindex %s: %w", s.knowledgeDir, err)
	}
	return fmt.Sprintf("indexed %d built-in notes, %d documents (%d removed)", seeded, written, removed), nil
}

func (s *Services) Close() error {
	if s.Sessions != nil {
		s.Sessions.Close()
		s.Sessions = nil
	}
	if s.Knowledge == nil {
		return nil
	}
	err := s.Knowledge.Close()
	s.Knowledge = nil
	return err
}
