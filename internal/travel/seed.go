package travel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/planit/internal/knowledge"
)

// BuiltinSourcePrefix marks documents that SeedDocuments owns.
const BuiltinSourcePrefix = "builtin:"

var guideNotes = []knowledge.Document{
	{
		Source:      BuiltinSourcePrefix + "paris_spring",
		Title:       "Paris in spring",
		Destination: "paris",
		Tags:        []string{"best_time"},
		Body:        "Paris is best visited in spring (April-June) when the weather is mild and the gardens are in bloom. The Jardin du Luxembourg and Tuileries are particularly beautiful. Expect temperatures around 15-20°C.",
	},
	{
		Source:      BuiltinSourcePrefix + "paris_budget",
		Title:       "Paris on a budget",
		Destination: "paris",
		Tags:        []string{"budget"},
		Body:        "Budget travelers in Paris should expect to spend around €100-150 per day including accommodation, food, and transportation. Hostels cost €30-50/night, and a meal at a casual restaurant is €15-25. The Paris Museum Pass (€52 for 2 days) offers great value.",
	},
	{
		Source:      BuiltinSourcePrefix + "tokyo_tips",
		Title:       "Tokyo travel tips",
		Destination: "tokyo",
		Tags:        []string{"tips"},
		Body:        "Tokyo is expensive but offers great value for quality. Cherry blossom season (late March - early April) is magical but crowded. The JR Pass saves money on transportation. Ryokans offer authentic Japanese experiences.",
	},
	{
		Source: BuiltinSourcePrefix + "travel_packing",
		Title:  "Packing essentials",
		Tags:   []string{"packing"},
		Body:   "Essential packing tips: Roll clothes to save space, bring a universal power adapter, carry-on only saves time and money, pack layers for variable weather, and always have a basic first-aid kit.",
	},
	{
		Source:      BuiltinSourcePrefix + "bali_beaches",
		Title:       "Bali beaches",
		Destination: "bali",
		Tags:        []string{"beaches"},
		Body:        "Bali's best beaches include Seminyak for sunset views and beach clubs, Nusa Dua for calm waters and luxury resorts, and Uluwatu for surfing. The dry season (April-October) offers the best beach weather.",
	},
}

// SeedDocuments returns the built-in travel notes: the guide notes plus one
// local-knowledge and one itinerary document per known destination.
func SeedDocuments() []knowledge.Document {
	docs := append([]knowledge.Document(nil), guideNotes...)

	for _, dest := range sortedKeys(localKnowledgeDB) {
		k := localKnowledgeDB[dest]
		var b strings.Builder
		writeList(&b, "Hidden gems", k.HiddenGems)
		writeList(&b, "Local tips", k.LocalTips)
		writeList(&b, "Money saving", k.MoneySaving)
		writeList(&b, "Safety", k.Safety)
		if len(k.BestTimes) > 0 {
			b.WriteString("Best times:\n")
			for _, place := range sortedKeys(k.BestTimes) {
				fmt.Fprintf(&b, "- %s: %s\n", place, k.BestTimes[place])
			}
		}
		title, destination := titleCase(dest)+" local knowledge", dest
		if dest == defaultKey {
			title, destination = "General travel advice", ""
		}
		docs = append(docs, knowledge.Document{
			Source:      BuiltinSourcePrefix + "local:" + dest,
			Title:       title,
			Destination: destination,
			Tags:        []string{"hidden_gems", "local_tips", "money_saving", "safety"},
			Body:        strings.TrimSpace(b.String()),
		})
	}

	for _, dest := range sortedKeys(itineraryDB) {
		if dest == defaultKey {
			continue
		}
		d := itineraryDB[dest]
		var b strings.Builder
		b.WriteString("Attractions:\n")
		for _, a := range d.Attractions {
			fmt.Fprintf(&b, "- %s (%s, %s, best %s)\n", a.Name, a.Duration, a.Cost, a.BestTime)
		}
		b.WriteString("Restaurants:\n")
		for _, r := range d.Restaurants {
			fmt.Fprintf(&b, "- %s: %s, %s, %s\n", r.Name, r.Cuisine, r.Price, r.Area)
		}
		fmt.Fprintf(&b, "Getting around: %s", d.Transport)
		docs = append(docs, knowledge.Document{
			Source:      BuiltinSourcePrefix + "itinerary:" + dest,
			Title:       titleCase(dest) + " sights and food",
			Destination: dest,
			Tags:        []string{"attractions", "restaurants", "transport"},
			Body:        b.String(),
		})
	}
	return docs
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + ":\n")
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
