package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Parameter types understood by the executor's argument coercion.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

var ErrNotFound = errors.New("tool not found")

// DuplicateToolError is returned by Register when a tool name is already taken.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// Func runs one tool call. Arguments have already been coerced to the declared types.
type Func func(ctx context.Context, args map[string]any) (map[string]any, error)

type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []string
}

type Spec struct {
	Name        string
	Description string
	Params      []Param
}

// Required returns the names of required parameters in declaration order.
func (s Spec) Required() []string {
	var names []string
	for _, p := range s.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

func (s Spec) param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

type entry struct {
	spec Spec
	fn   Func
}

// Registry is the catalog of callable tools.
//
// It is filled once during startup and treated as read-only afterwards, so reads
// take no lock. Calling Register after the registry has been handed to an
// Executor or Agent is not supported.
type Registry struct {
	order   []string
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

func (r *Registry) Register(spec Spec, fn Func) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return fmt.Errorf("register tool: empty name")
	}
	if fn == nil {
		return fmt.Errorf("register tool %q: nil func", name)
	}
	if _, ok := r.entries[name]; ok {
		return &DuplicateToolError{Name: name}
	}
	spec.Name = name
	spec.Params = append([]Param(nil), spec.Params...)
	r.entries[name] = entry{spec: spec, fn: fn}
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on error. Meant for static tool tables wired at startup.
func (r *Registry) MustRegister(spec Spec, fn Func) {
	if err := r.Register(spec, fn); err != nil {
		panic(err)
	}
}

// Describe returns every tool spec in registration order.
func (r *Registry) Describe() []Spec {
	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		spec := r.entries[name].spec
		spec.Params = append([]Param(nil), spec.Params...)
		specs = append(specs, spec)
	}
	return specs
}

func (r *Registry) Lookup(name string) (Func, Spec, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, Spec{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e.fn, e.spec, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Catalog renders the tool list for a system prompt.
func (r *Registry) Catalog() string {
	lines := make([]string, 0, len(r.order))
	for _, spec := range r.Describe() {
		params := make([]string, 0, len(spec.Params))
		for _, p := range spec.Params {
			params = append(params, fmt.Sprintf("%s: %s", p.Name, p.Description))
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s\n  Parameters: %s", spec.Name, spec.Description, strings.Join(params, ", ")))
	}
	return strings.Join(lines, "\n")
}
