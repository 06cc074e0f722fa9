package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockBackend answers with canned text keyed on the last user turn. It never
// emits tool calls, so the reasoning loop finishes after one iteration.
type MockBackend struct{}

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (MockBackend) Complete(ctx context.Context, turns []Turn, systemPrompt string, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	last := ""
	if len(turns) > 0 {
		last = turns[len(turns)-1].Content
	}
	lower := strings.ToLower(last)

	switch {
	case strings.Contains(lower, "plan") || strings.Contains(lower, "trip"):
		return "I'd be happy to help plan your trip! Based on your request, here's a suggested itinerary:\n\n" +
			"**Day 1**: Arrive and explore the local area\n" +
			"**Day 2**: Visit main attractions\n" +
			"**Day 3**: Day trip to nearby destinations\n\n" +
			"Would you like me to add more details or adjust this plan?", nil
	case strings.Contains(lower, "budget") || strings.Contains(lower, "cost"):
		return "Based on typical costs for this type of trip:\n\n" +
			"- Accommodation: $100-150/night\n" +
			"- Food: $50-75/day\n" +
			"- Activities: $30-50/day\n" +
			"- Transportation: $20-40/day\n\n" +
			"Total estimated daily budget: $200-315", nil
	}

	snippet := last
	if r := []rune(snippet); len(r) > 100 {
		snippet = string(r[:100])
	}
	return fmt.Sprintf("I understand you're asking about: %s...\n\n"+
		"I'm the PlanIT assistant. I can help you plan trips, estimate budgets, and find great destinations. "+
		"What would you like to explore?", snippet), nil
}
