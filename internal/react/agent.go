// Package react runs the bounded reason/act loop: the model either names one
// tool to call or answers, tool results are fed back as context, and a forced
// final answer is requested once the iteration budget is spent.
package react

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/stellarlinkco/planit/internal/config"
	"github.com/stellarlinkco/planit/internal/llm"
)

var (
	ErrMissingBackend  = errors.New("react: completion backend is required")
	ErrMissingExecutor = errors.New("react: tool executor is required")
	ErrMissingCatalog  = errors.New("react: tool catalog is required")
)

// Run outcomes reported to an Observer.
const (
	OutcomeDone         = "done"
	OutcomeForcedFinish = "forced_finish"
	OutcomeError        = "error"
)

type State int

const (
	StateThinking State = iota
	StateActing
	StateDone
	StateForcedFinish
)

func (s State) String() string {
	switch s {
	case StateThinking:
		return "thinking"
	case StateActing:
		return "acting"
	case StateDone:
		return "done"
	case StateForcedFinish:
		return "forced_finish"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ToolExecutor dispatches a tool call and always returns a result map.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) map[string]any
}

// ToolCatalog renders the tools available to the model.
type ToolCatalog interface {
	Catalog() string
}

type Observer interface {
	ObserveRun(outcome string, iterations int)
}

type ToolCallRecord struct {
	Position int            `json:"position"`
	Tool     string         `json:"tool"`
	Args     map[string]any `json:"arguments"`
	Result   map[string]any `json:"result"`
}

type Result struct {
	Answer          string           `json:"response"`
	ToolCalls       []ToolCallRecord `json:"tool_calls"`
	Iterations      int              `json:"iterations"`
	BudgetExhausted bool             `json:"max_iterations_reached"`
	State           State            `json:"-"`
}

type Agent struct {
	backend       llm.Backend
	executor      ToolExecutor
	systemPrompt  string
	maxIterations int
	temperature   float64
	observer      Observer
}

type Option func(*Agent)

func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(a *Agent) {
		if t >= 0 && t <= 1 {
			a.temperature = t
		}
	}
}

func WithObserver(o Observer) Option {
	return func(a *Agent) { a.observer = o }
}

// New builds an agent. The system prompt is rendered once from the catalog,
// so the catalog must be fully populated before New is called.
func New(backend llm.Backend, catalog ToolCatalog, executor ToolExecutor, opts ...Option) (*Agent, error) {
	if backend == nil {
		return nil, ErrMissingBackend
	}
	if catalog == nil {
		return nil, ErrMissingCatalog
	}
	if executor == nil {
		return nil, ErrMissingExecutor
	}

	a := &Agent{
		backend:       backend,
		executor:      executor,
		systemPrompt:  SystemPrompt(catalog.Catalog()),
		maxIterations: config.DefaultMaxIterations,
		temperature:   config.DefaultTemperature,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Agent) SystemPrompt() string { return a.systemPrompt }

func (a *Agent) MaxIterations() int { return a.maxIterations }

// Run processes one user message. A completion failure aborts the whole run
// and no partial result is returned; tool failures arrive as ordinary
// observations. Cancelling ctx stops the loop before the next iteration.
func (a *Agent) Run(ctx context.Context, message string) (*Result, error) {
	return a.RunWithHistory(ctx, nil, message)
}

// RunWithHistory is Run with earlier conversation turns sent ahead of every
// prompt of the loop.
func (a *Agent) RunWithHistory(ctx context.Context, history []llm.Turn, message string) (*Result, error) {
	runID := uuid.NewString()[:8]
	st := newLoopState(message, a.maxIterations)

	for st.iteration < st.bound {
		if err := ctx.Err(); err != nil {
			a.observe(OutcomeError, st.iteration)
			return nil, err
		}
		st.iteration++
		st.state = StateThinking

		text, err := a.complete(ctx, history, st.prompt())
		if err != nil {
			a.observe(OutcomeError, st.iteration)
			return nil, fmt.Errorf("react: completion failed on iteration %d: %w", st.iteration, err)
		}

		call, ok := ParseToolCall(text)
		if !ok {
			st.state = StateDone
			a.observe(OutcomeDone, st.iteration)
			log.Printf("[react] run %s done after %d iteration(s), %d tool call(s)", runID, st.iteration, len(st.records))
			return &Result{
				Answer:     CleanResponse(text),
				ToolCalls:  st.records,
				Iterations: st.iteration,
				State:      StateDone,
			}, nil
		}

		st.state = StateActing
		log.Printf("[react] run %s iteration %d: calling %s", runID, st.iteration, call.Name)
		result := a.executor.Execute(ctx, call.Name, call.Args)
		st.record(call, result)
	}

	if err := ctx.Err(); err != nil {
		a.observe(OutcomeError, st.iteration)
		return nil, err
	}

	log.Printf("[react] run %s reached %d iterations, forcing final answer", runID, st.bound)
	text, err := a.complete(ctx, history, st.forcedPrompt())
	if err != nil {
		a.observe(OutcomeError, st.iteration)
		return nil, fmt.Errorf("react: forced final answer failed: %w", err)
	}

	st.state = StateForcedFinish
	a.observe(OutcomeForcedFinish, st.iteration)
	return &Result{
		Answer:          CleanResponse(text),
		ToolCalls:       st.records,
		Iterations:      st.iteration,
		BudgetExhausted: true,
		State:           StateForcedFinish,
	}, nil
}

func (a *Agent) complete(ctx context.Context, history []llm.Turn, prompt string) (string, error) {
	turns := make([]llm.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Content: prompt})
	return a.backend.Complete(ctx, turns, a.systemPrompt, a.temperature)
}

func (a *Agent) observe(outcome string, iterations int) {
	if a.observer != nil {
		a.observer.ObserveRun(outcome, iterations)
	}
}
