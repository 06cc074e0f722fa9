package travel

import "strings"

const maxDestinationResults = 5

type DestinationSearch struct {
	Query       string        `json:"query"`
	BudgetLevel string        `json:"budget_level"`
	TravelStyle string        `json:"travel_style,omitempty"`
	Results     []Destination `json:"results"`
	TotalFound  int           `json:"total_found"`
}

// SearchDestinations matches query words against the destination groups.
// Without a match the first two cultural destinations are suggested.
func SearchDestinations(query, budget, style string) DestinationSearch {
	q := strings.ToLower(query)

	var results []Destination
	for _, g := range destinationGroups {
		for _, word := range strings.Fields(g.key) {
			if strings.Contains(q, word) {
				results = append(results, g.results...)
				break
			}
		}
	}
	if len(results) == 0 {
		for _, g := range destinationGroups {
			if g.key == "cultural" {
				results = append(results, g.results[:2]...)
			}
		}
	}

	total := len(results)
	if len(results) > maxDestinationResults {
		results = results[:maxDestinationResults]
	}
	return DestinationSearch{
		Query:       query,
		BudgetLevel: budget,
		TravelStyle: style,
		Results:     results,
		TotalFound:  total,
	}
}

type AttractionEntry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type AttractionList struct {
	Destination string            `json:"destination"`
	Category    string            `json:"category"`
	Attractions []AttractionEntry `json:"attractions"`
}

// Attractions lists a destination's attractions for one category, or the
// first ten across all categories for "all".
func Attractions(destination, category string) AttractionList {
	table := lookupAttractions(destination)
	out := AttractionList{Destination: destination, Category: category, Attractions: []AttractionEntry{}}

	if category == "" || category == "all" {
		out.Category = "all"
		for _, cat := range attractionCategories {
			for _, name := range table[cat] {
				out.Attractions = append(out.Attractions, AttractionEntry{Name: name, Category: cat})
			}
		}
		if len(out.Attractions) > 10 {
			out.Attractions = out.Attractions[:10]
		}
		return out
	}

	for _, name := range table[category] {
		out.Attractions = append(out.Attractions, AttractionEntry{Name: name, Category: category})
	}
	return out
}
