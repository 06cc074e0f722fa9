package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const DefaultTimeout = 15 * time.Second

// Observer is notified after every dispatched call. Implemented by metrics.Metrics.
type Observer interface {
	ObserveToolCall(tool string, failed bool)
}

// Executor dispatches tool calls by name and turns every failure into a
// structured {"error": ...} result. It never returns an error to its caller.
type Executor struct {
	registry *Registry
	timeout  time.Duration
	observer Observer
}

type ExecutorOption func(*Executor)

func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = o
	}
}

func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{registry: registry, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ErrorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// IsError reports whether result is a structured error and returns its message.
func IsError(result map[string]any) (string, bool) {
	msg, ok := result["error"].(string)
	return msg, ok
}

func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	result := e.execute(ctx, name, args)
	if e.observer != nil {
		_, failed := IsError(result)
		e.observer.ObserveToolCall(name, failed)
	}
	return result
}

func (e *Executor) execute(ctx context.Context, name string, args map[string]any) map[string]any {
	if e.registry == nil {
		return ErrorResult("unknown tool: " + name)
	}
	fn, spec, err := e.registry.Lookup(name)
	if err != nil {
		return ErrorResult("unknown tool: " + name)
	}

	if args == nil {
		args = map[string]any{}
	}
	args = coerceArgs(spec, args)
	for _, req := range spec.Required() {
		v, ok := args[req]
		if !ok || v == nil {
			return ErrorResult("missing required argument: " + req)
		}
		if s, isStr := v.(string); isStr && s == "" {
			return ErrorResult("missing required argument: " + req)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result map[string]any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", name, r)}
			}
		}()
		res, err := fn(callCtx, args)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(out.err, context.DeadlineExceeded) && callCtx.Err() != nil && ctx.Err() == nil {
				return ErrorResult(fmt.Sprintf("tool %s timed out after %s", name, e.timeout))
			}
			log.Printf("[tools] %s failed: %v", name, out.err)
			return ErrorResult(out.err.Error())
		}
		if out.result == nil {
			return map[string]any{}
		}
		return out.result
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return ErrorResult(fmt.Sprintf("tool %s cancelled: %v", name, ctx.Err()))
		}
		log.Printf("[tools] %s timed out after %s", name, e.timeout)
		return ErrorResult(fmt.Sprintf("tool %s timed out after %s", name, e.timeout))
	}
}
