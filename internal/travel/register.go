package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stellarlinkco/planit/internal/knowledge"
	"github.com/stellarlinkco/planit/internal/tools"
)

// KnowledgeSearcher is the slice of the knowledge engine search_knowledge needs.
type KnowledgeSearcher interface {
	Search(query string, limit int) ([]knowledge.Hit, error)
}

// Deps carries the services behind the network-backed tools. Any of them may
// be nil; the matching tool then reports an error result.
type Deps struct {
	Weather   *WeatherService
	Web       *WebSearcher
	Knowledge KnowledgeSearcher
}

var (
	budgetLevels   = []string{StyleBudget, StyleModerate, StyleLuxury}
	travelStyles   = []string{"adventure", "relaxation", "cultural", "family", "romantic"}
	attractionCats = []string{"museums", "outdoor", "food", "nightlife", "shopping", "all"}
	tipTypes       = []string{TipHiddenGems, TipLocal, TipMoneySaving, TipBestTimes, TipAll}
)

// Register adds the travel tools to reg in their catalog order.
func Register(reg *tools.Registry, deps Deps) error {
	defs := []struct {
		spec tools.Spec
		fn   tools.Func
	}{
		{tools.Spec{
			Name:        "search_destinations",
			Description: "Search for travel destinations based on criteria like activities, climate, budget, or travel style. Use this when the user asks for destination recommendations or ideas.",
			Params: []tools.Param{
				{Name: "query", Type: tools.TypeString, Required: true, Description: "Search query describing what kind of destination (e.g., 'beaches in europe', 'adventure travel asia', 'romantic getaway')"},
				{Name: "budget", Type: tools.TypeString, Enum: budgetLevels, Description: "Budget level for the trip"},
				{Name: "travel_style", Type: tools.TypeString, Enum: travelStyles, Description: "Type of travel experience desired"},
			},
		}, searchDestinationsTool},
		{tools.Spec{
			Name:        "get_weather",
			Description: "Get weather forecast for a specific destination. Use this when planning activities or deciding what to pack.",
			Params: []tools.Param{
				{Name: "location", Type: tools.TypeString, Required: true, Description: "City or location name (e.g., 'Paris', 'Tokyo', 'Bali')"},
				{Name: "date", Type: tools.TypeString, Description: "Date in YYYY-MM-DD format (optional, defaults to today)"},
			},
		}, weatherTool(deps.Weather)},
		{tools.Spec{
			Name:        "calculate_budget",
			Description: "Calculate estimated budget for a trip including accommodation, food, activities, and transport. Always use this when discussing costs or budgets.",
			Params: []tools.Param{
				{Name: "destination", Type: tools.TypeString, Required: true, Description: "Travel destination city or country"},
				{Name: "days", Type: tools.TypeInteger, Required: true, Description: "Number of travel days"},
				{Name: "travelers", Type: tools.TypeInteger, Description: "Number of travelers (default: 1)"},
				{Name: "travel_style", Type: tools.TypeString, Enum: budgetLevels, Description: "Budget style affecting accommodation and activity choices"},
				{Name: "currency", Type: tools.TypeString, Enum: []string{CurrencyUSD, CurrencyINR}, Description: "Currency for output (e.g., 'INR' for India trips, 'USD' default)"},
			},
		}, budgetTool},
		{tools.Spec{
			Name:        "get_attractions",
			Description: "Get popular attractions from the INTERNAL database. **WARNING**: Only works for Paris, Tokyo, and New York. For ALL other places (e.g., Mumbai, Chikmagalur), use `search_web` instead.",
			Params: []tools.Param{
				{Name: "destination", Type: tools.TypeString, Required: true, Description: "City or destination name"},
				{Name: "category", Type: tools.TypeString, Enum: attractionCats, Description: "Category of attractions to search for"},
			},
		}, attractionsTool},
		{tools.Spec{
			Name:        "search_knowledge",
			Description: "Search the LOCAL knowledge base. **WARNING**: Only contains limited sample data. DO NOT USE for specific destination planning unless `search_web` failed.",
			Params: []tools.Param{
				{Name: "query", Type: tools.TypeString, Required: true, Description: "Search query for travel information"},
			},
		}, knowledgeTool(deps.Knowledge)},
		{tools.Spec{
			Name:        "create_itinerary",
			Description: "Generate a detailed day-by-day travel itinerary with morning/afternoon/evening activities, times, and costs. Use this when the user wants a complete trip plan.",
			Params: []tools.Param{
				{Name: "destination", Type: tools.TypeString, Required: true, Description: "Travel destination"},
				{Name: "days", Type: tools.TypeInteger, Required: true, Description: "Number of days for the trip"},
				{Name: "budget", Type: tools.TypeString, Enum: budgetLevels, Description: "Budget level"},
			},
		}, itineraryTool},
		{tools.Spec{
			Name:        "get_local_tips",
			Description: "Get insider tips, hidden gems, local advice, and money-saving tips from a local expert. Use this to provide authentic, off-the-beaten-path recommendations.",
			Params: []tools.Param{
				{Name: "destination", Type: tools.TypeString, Required: true, Description: "City or destination name"},
				{Name: "tip_type", Type: tools.TypeString, Enum: tipTypes, Description: "Type of tips to retrieve"},
			},
		}, tipsTool},
		{tools.Spec{
			Name:        "search_web",
			Description: "Search the live web for real-time information. **PRIMARY TOOL** for finding attractions, hotels, prices, and itineraries for any specific destination (e.g., 'Chikmagalur', 'Mumbai', 'Goa').",
			Params: []tools.Param{
				{Name: "query", Type: tools.TypeString, Required: true, Description: "Search query (e.g., 'top museums in Mumbai', 'entrance fee for Taj Mahal')"},
			},
		}, webTool(deps.Web)},
	}

	for _, d := range defs {
		if err := reg.Register(d.spec, d.fn); err != nil {
			return fmt.Errorf("register travel tools: %w", err)
		}
	}
	return nil
}

// toResult flattens v into the generic map shape tool results travel in.
func toResult(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func searchDestinationsTool(_ context.Context, args map[string]any) (map[string]any, error) {
	res := SearchDestinations(
		tools.String(args, "query", ""),
		tools.String(args, "budget", StyleModerate),
		tools.String(args, "travel_style", ""),
	)
	return toResult(res)
}

func weatherTool(w *WeatherService) tools.Func {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if w == nil {
			return nil, errors.New("weather service unavailable")
		}
		f, err := w.Forecast(ctx, tools.String(args, "location", ""), tools.String(args, "date", ""))
		if err != nil {
			return nil, err
		}
		return toResult(f)
	}
}

func budgetTool(_ context.Context, args map[string]any) (map[string]any, error) {
	est, err := CalculateBudget(
		tools.String(args, "destination", ""),
		tools.Int(args, "days", 1),
		tools.Int(args, "travelers", 1),
		tools.String(args, "travel_style", StyleModerate),
		tools.String(args, "currency", CurrencyUSD),
	)
	if err != nil {
		return nil, err
	}
	return toResult(est)
}

func attractionsTool(_ context.Context, args map[string]any) (map[string]any, error) {
	return toResult(Attractions(tools.String(args, "destination", ""), tools.String(args, "category", "all")))
}

func knowledgeTool(k KnowledgeSearcher) tools.Func {
	return func(_ context.Context, args map[string]any) (map[string]any, error) {
		if k == nil {
			return nil, errors.New("knowledge search unavailable")
		}
		query := tools.String(args, "query", "")
		hits, err := k.Search(query, knowledge.DefaultSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("knowledge search unavailable: %w", err)
		}
		results := make([]map[string]any, 0, len(hits))
		for _, h := range hits {
			results = append(results, map[string]any{"text": h.Text, "title": h.Title, "score": h.Score})
		}
		return toResult(map[string]any{"query": query, "results": results})
	}
}

func itineraryTool(_ context.Context, args map[string]any) (map[string]any, error) {
	it, err := QuickItinerary(
		tools.String(args, "destination", ""),
		tools.Int(args, "days", 3),
		tools.String(args, "budget", ""),
	)
	if err != nil {
		return nil, err
	}
	return toResult(it)
}

func tipsTool(_ context.Context, args map[string]any) (map[string]any, error) {
	return toResult(LocalTips(tools.String(args, "destination", ""), tools.String(args, "tip_type", TipAll)))
}

func webTool(s *WebSearcher) tools.Func {
	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if s == nil {
			return nil, errors.New("web search unavailable")
		}
		res, err := s.Search(ctx, tools.String(args, "query", ""))
		if err != nil {
			return nil, err
		}
		return toResult(res)
	}
}
