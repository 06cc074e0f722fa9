// Package planner runs the fixed planning pipeline: extract preferences,
// look up the destination, estimate a budget and have the backend write the
// itinerary. General questions go to the reasoning agent instead.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stellarlinkco/planit/internal/llm"
	"github.com/stellarlinkco/planit/internal/react"
	"github.com/stellarlinkco/planit/internal/travel"
)

const SystemPrompt = `You are the Trip Planner orchestrator for PlanIT, an AI travel planning system.

Your role is to:
1. Understand user requests and coordinate with specialized agents
2. Synthesize information from Budget, Geo, and Preference agents
3. Create comprehensive, actionable travel itineraries
4. Ensure plans respect user constraints (budget, time, preferences)

When creating plans:
- Break trips into logical day-by-day itineraries
- Include practical details: times, costs, transport between locations
- Balance activities with rest time
- Consider local factors (weather, opening hours, local customs)

Always be helpful, specific, and provide alternatives when constraints are tight.
Format your itineraries clearly with days, times, and activities.
`

const synthesisTemplate = `
Based on the following information, create a detailed travel itinerary:

USER REQUEST: %s

EXTRACTED PREFERENCES:
%s

BUDGET ESTIMATE:
- Daily cost per person: $%.0f-$%.0f
- Total for group: $%.0f-$%.0f

Please create a day-by-day itinerary that:
1. Fits within the budget constraints
2. Matches the user's interests
3. Is logistically practical
4. Includes specific recommendations with estimated costs
`

var planningKeywords = []string{"plan", "trip", "travel", "itinerary", "vacation", "visit", "go to"}

var ErrMissingBackend = errors.New("planner: backend is required")

// Geocoder resolves a destination name. *travel.Geocoder satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (*travel.Place, error)
}

// Agent answers free-form questions. *react.Agent satisfies it.
type Agent interface {
	RunWithHistory(ctx context.Context, history []llm.Turn, message string) (*react.Result, error)
}

// History keeps earlier turns per session. *session.Store satisfies it.
type History interface {
	History(key string) []llm.Turn
	Append(key string, turns ...llm.Turn)
}

type Location struct {
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name,omitempty"`
	Coordinates *travel.Coordinates `json:"coordinates,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type Plan struct {
	Preferences    *Preferences      `json:"preferences"`
	BudgetAnalysis travel.TripBudget `json:"budget_analysis"`
	Locations      []Location        `json:"locations"`
	Itinerary      string            `json:"itinerary"`
}

type Planner struct {
	backend     llm.Backend
	geo         Geocoder
	agent       Agent
	history     History
	temperature float64
}

type Option func(*Planner)

func WithGeocoder(g Geocoder) Option {
	return func(p *Planner) { p.geo = g }
}

func WithAgent(a Agent) Option {
	return func(p *Planner) { p.agent = a }
}

func WithHistory(h History) Option {
	return func(p *Planner) { p.history = h }
}

func WithTemperature(t float64) Option {
	return func(p *Planner) {
		if t >= 0 && t <= 1 {
			p.temperature = t
		}
	}
}

func New(backend llm.Backend, opts ...Option) (*Planner, error) {
	if backend == nil {
		return nil, ErrMissingBackend
	}
	p := &Planner{backend: backend, temperature: 0.7}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IsPlanningRequest reports whether msg mentions any planning keyword.
func IsPlanningRequest(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range planningKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CreatePlan runs the pipeline for msg. When existing is non-nil the
// extraction step is skipped.
func (p *Planner) CreatePlan(ctx context.Context, msg string, existing *Preferences) (*Plan, error) {
	return p.createPlan(ctx, nil, msg, existing)
}

func (p *Planner) createPlan(ctx context.Context, history []llm.Turn, msg string, existing *Preferences) (*Plan, error) {
	prefs := existing
	if prefs == nil {
		var err error
		prefs, err = ExtractPreferences(ctx, p.backend, msg)
		if err != nil {
			return nil, err
		}
	}
	plan := &Plan{Preferences: prefs, Locations: []Location{}}

	if dest := strings.TrimSpace(prefs.Destination); dest != "" && p.geo != nil {
		plan.Locations = append(plan.Locations, p.locate(ctx, dest))
	}

	plan.BudgetAnalysis = travel.EstimateTripBudget(prefs.TripDays(), prefs.TravelStyle, prefs.GroupSize, 1.0)

	prefsJSON, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	b := plan.BudgetAnalysis
	prompt := fmt.Sprintf(synthesisTemplate, msg, prefsJSON,
		b.DailyPerPerson["total"].Min, b.DailyPerPerson["total"].Max,
		b.TotalGroup.Min, b.TotalGroup.Max)

	itinerary, err := p.backend.Complete(ctx, withTurn(history, prompt), SystemPrompt, p.temperature)
	if err != nil {
		return nil, fmt.Errorf("synthesize itinerary: %w", err)
	}
	plan.Itinerary = itinerary
	return plan, nil
}

// locate never fails the plan; lookup problems are reported on the location.
func (p *Planner) locate(ctx context.Context, name string) Location {
	place, err := p.geo.Geocode(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[planner] geocode %q: %v", name, err)
		}
		return Location{Name: name, Error: err.Error()}
	}
	coords := place.Coordinates
	return Location{Name: name, DisplayName: place.DisplayName, Coordinates: &coords}
}

// Chat answers msg without any conversation history.
func (p *Planner) Chat(ctx context.Context, msg string) (string, error) {
	return p.Converse(ctx, "", msg)
}

// Converse routes planning requests through the plan pipeline and everything
// else through the agent, or straight to the backend when there is no agent.
// Earlier turns of session are sent along, and the exchange is recorded once
// it succeeds. An empty session has no history.
func (p *Planner) Converse(ctx context.Context, session, msg string) (string, error) {
	var history []llm.Turn
	if p.history != nil {
		history = p.history.History(session)
	}

	reply, err := p.reply(ctx, history, msg)
	if err != nil {
		return "", err
	}
	if p.history != nil {
		p.history.Append(session,
			llm.Turn{Role: llm.RoleUser, Content: msg},
			llm.Turn{Role: llm.RoleAssistant, Content: reply},
		)
	}
	return reply, nil
}

func (p *Planner) reply(ctx context.Context, history []llm.Turn, msg string) (string, error) {
	if IsPlanningRequest(msg) {
		plan, err := p.createPlan(ctx, history, msg, nil)
		if err != nil {
			return "", err
		}
		return plan.Itinerary, nil
	}
	if p.agent != nil {
		res, err := p.agent.RunWithHistory(ctx, history, msg)
		if err != nil {
			return "", err
		}
		return res.Answer, nil
	}
	return p.backend.Complete(ctx, withTurn(history, msg), SystemPrompt, p.temperature)
}

// withTurn returns history followed by a user turn carrying content.
func withTurn(history []llm.Turn, content string) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	return append(turns, llm.Turn{Role: llm.RoleUser, Content: content})
}
