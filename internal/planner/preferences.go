package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stellarlinkco/planit/internal/llm"
)

const (
	extractionTemperature = 0.3
	extractionSystem      = "You are a JSON extraction assistant. Only output valid JSON."
	defaultTripDays       = 7
)

const extractionTemplate = `Analyze this message and extract travel preferences.
Return a JSON object with these fields (use null for unknown):
{
    "destination": "specific place or null",
    "dates": {"start": "YYYY-MM-DD or null", "end": "YYYY-MM-DD or null", "flexible": true/false},
    "budget": {"amount": number or null, "currency": "USD", "per_day": true/false},
    "interests": ["list", "of", "interests"],
    "constraints": ["list", "of", "constraints"],
    "group_size": number or null,
    "accommodation_type": "hotel/hostel/airbnb/camping or null",
    "travel_style": "budget/moderate/luxury or null"
}

User message: %s

Respond ONLY with the JSON object, no other text.`

type Dates struct {
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Flexible bool   `json:"flexible"`
}

type Budget struct {
	Amount   float64 `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty"`
	PerDay   bool    `json:"per_day"`
}

// Preferences is what the extractor could read out of a request. Unknown
// fields stay at their zero value.
type Preferences struct {
	Destination       string   `json:"destination,omitempty"`
	Dates             *Dates   `json:"dates,omitempty"`
	Budget            *Budget  `json:"budget,omitempty"`
	Interests         []string `json:"interests"`
	Constraints       []string `json:"constraints"`
	GroupSize         int      `json:"group_size,omitempty"`
	AccommodationType string   `json:"accommodation_type,omitempty"`
	TravelStyle       string   `json:"travel_style,omitempty"`
}

func emptyPreferences() *Preferences {
	return &Preferences{Interests: []string{}, Constraints: []string{}}
}

// TripDays counts both ends of the date range. Without a usable range it
// falls back to a week.
func (p *Preferences) TripDays() int {
	if p == nil || p.Dates == nil {
		return defaultTripDays
	}
	start, err1 := time.Parse("2006-01-02", p.Dates.Start)
	end, err2 := time.Parse("2006-01-02", p.Dates.End)
	if err1 != nil || err2 != nil || end.Before(start) {
		return defaultTripDays
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ExtractPreferences asks the backend for a JSON description of msg. A reply
// that holds no parsable object yields empty preferences; only backend
// failures are errors.
func ExtractPreferences(ctx context.Context, backend llm.Backend, msg string) (*Preferences, error) {
	reply, err := backend.Complete(ctx,
		[]llm.Turn{{Role: llm.RoleUser, Content: fmt.Sprintf(extractionTemplate, msg)}},
		extractionSystem, extractionTemperature)
	if err != nil {
		return nil, fmt.Errorf("extract preferences: %w", err)
	}
	return parsePreferences(reply), nil
}

// parsePreferences decodes the span from the first '{' to the last '}',
// which also unwraps replies fenced in markdown code blocks.
func parsePreferences(reply string) *Preferences {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return emptyPreferences()
	}
	span := reply[start : end+1]
	if !gjson.Valid(span) {
		return emptyPreferences()
	}

	doc := gjson.Parse(span)
	p := emptyPreferences()
	p.Destination = nullableString(doc.Get("destination"))
	p.AccommodationType = nullableString(doc.Get("accommodation_type"))
	p.TravelStyle = strings.ToLower(nullableString(doc.Get("travel_style")))
	if n := doc.Get("group_size"); n.Type == gjson.Number || n.Type == gjson.String {
		p.GroupSize = int(n.Int())
	}
	p.Interests = stringList(doc.Get("interests"))
	p.Constraints = stringList(doc.Get("constraints"))

	if d := doc.Get("dates"); d.IsObject() {
		p.Dates = &Dates{
			Start:    nullableString(d.Get("start")),
			End:      nullableString(d.Get("end")),
			Flexible: d.Get("flexible").Bool(),
		}
	}
	if b := doc.Get("budget"); b.IsObject() {
		p.Budget = &Budget{
			Amount:   b.Get("amount").Float(),
			Currency: nullableString(b.Get("currency")),
			PerDay:   b.Get("per_day").Bool(),
		}
	}
	return p
}

func nullableString(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	s := strings.TrimSpace(r.String())
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

func stringList(r gjson.Result) []string {
	out := []string{}
	if !r.IsArray() {
		return out
	}
	r.ForEach(func(_, v gjson.Result) bool {
		if s := nullableString(v); s != "" {
			out = append(out, s)
		}
		return true
	})
	return out
}
