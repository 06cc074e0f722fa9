// Package llmtest provides a deterministic llm.Backend for tests.
package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/stellarlinkco/planit/internal/llm"
)

// Call records one Complete invocation.
type Call struct {
	Turns        []llm.Turn
	SystemPrompt string
	Temperature  float64
}

// Step is the scripted outcome of one call: either Text or Err.
type Step struct {
	Text string
	Err  error
}

// Scripted returns scripted steps by call index. Once the script is exhausted the
// last step repeats, so a one-step script answers every call the same way.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

func New(responses ...string) *Scripted {
	steps := make([]Step, 0, len(responses))
	for _, r := range responses {
		steps = append(steps, Step{Text: r})
	}
	return &Scripted{steps: steps}
}

func NewSteps(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

func (s *Scripted) Complete(ctx context.Context, turns []llm.Turn, systemPrompt string, temperature float64) (string, error) {
	s.mu.Lock()
	idx := len(s.calls)
	s.calls = append(s.calls, Call{
		Turns:        append([]llm.Turn(nil), turns...),
		SystemPrompt: systemPrompt,
		Temperature:  temperature,
	})
	var step Step
	switch {
	case len(s.steps) == 0:
		step = Step{Err: fmt.Errorf("scripted backend: no steps")}
	case idx < len(s.steps):
		step = s.steps[idx]
	default:
		step = s.steps[len(s.steps)-1]
	}
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return step.Text, step.Err
}

func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// LastPrompt returns the content of the final turn of the most recent call.
func (s *Scripted) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return ""
	}
	turns := s.calls[len(s.calls)-1].Turns
	if len(turns) == 0 {
		return ""
	}
	return turns[len(turns)-1].Content
}
