package travel

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stellarlinkco/planit/internal/knowledge"
)

func TestCalculateBudget(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		days        int
		travelers   int
		style       string
		currency    string
		want        *BudgetEstimate
	}{
		{
			name:        "paris moderate usd",
			destination: "Paris",
			days:        3,
			travelers:   2,
			style:       "moderate",
			currency:    "USD",
			want: &BudgetEstimate{
				Destination: "Paris",
				Days:        3,
				Travelers:   2,
				TravelStyle: "moderate",
				Breakdown: map[string]string{
					"accommodation":   "$540",
					"food":            "$300",
					"activities":      "$240",
					"local_transport": "$120",
				},
				DailyPerson:   "$200",
				TotalEstimate: "$1,200",
				Currency:      "USD",
				Note:          budgetNote,
			},
		},
		{
			name:        "indian destination uses domestic inr rates",
			destination: "Goa",
			days:        2,
			travelers:   1,
			style:       "budget",
			currency:    "inr",
			want: &BudgetEstimate{
				Destination: "Goa",
				Days:        2,
				Travelers:   1,
				TravelStyle: "budget",
				Breakdown: map[string]string{
					"accommodation":   "₹2,250",
					"food":            "₹1,250",
					"activities":      "₹1,000",
					"local_transport": "₹500",
				},
				DailyPerson:   "₹2,500",
				TotalEstimate: "₹5,000",
				Currency:      "INR",
				Note:          budgetNote,
			},
		},
		{
			name:        "international inr converts usd rate",
			destination: "Tokyo",
			days:        1,
			travelers:   0,
			style:       "luxury",
			currency:    "INR",
			want: &BudgetEstimate{
				Destination: "Tokyo",
				Days:        1,
				Travelers:   1,
				TravelStyle: "luxury",
				Breakdown: map[string]string{
					"accommodation":   "₹15,480",
					"food":            "₹8,600",
					"activities":      "₹6,880",
					"local_transport": "₹3,440",
				},
				DailyPerson:   "₹34,400",
				TotalEstimate: "₹34,400",
				Currency:      "INR",
				Note:          budgetNote,
			},
		},
		{
			name:        "unknown style and currency fall back",
			destination: "Lisbon",
			days:        10,
			travelers:   4,
			style:       "backpacker",
			currency:    "EUR",
			want: &BudgetEstimate{
				Destination: "Lisbon",
				Days:        10,
				Travelers:   4,
				TravelStyle: "moderate",
				Breakdown: map[string]string{
					"accommodation":   "$2,700",
					"food":            "$1,500",
					"activities":      "$1,200",
					"local_transport": "$600",
				},
				DailyPerson:   "$150",
				TotalEstimate: "$6,000",
				Currency:      "USD",
				Note:          budgetNote,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateBudget(tt.destination, tt.days, tt.travelers, tt.style, tt.currency)
			if err != nil {
				t.Fatalf("CalculateBudget: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("budget mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateBudget_InvalidDays(t *testing.T) {
	for _, days := range []int{0, -3} {
		if _, err := CalculateBudget("Paris", days, 1, "moderate", "USD"); !errors.Is(err, ErrInvalidDays) {
			t.Errorf("days=%d: err = %v, want ErrInvalidDays", days, err)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		86000:    "86,000",
		1234567:  "1,234,567",
		-1234:    "-1,234",
		10000000: "10,000,000",
	}
	for in, want := range tests {
		if got := formatThousands(in); got != want {
			t.Errorf("formatThousands(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestEstimateTripBudget(t *testing.T) {
	got := EstimateTripBudget(5, "moderate", 2, 1.0)

	if got.DailyPerPerson["total"] != (CostRange{Min: 190, Max: 360}) {
		t.Errorf("daily total = %+v, want {190 360}", got.DailyPerPerson["total"])
	}
	if got.TotalPerPerson != (CostRange{Min: 950, Max: 1800}) {
		t.Errorf("per person = %+v", got.TotalPerPerson)
	}
	if got.TotalGroup != (CostRange{Min: 1900, Max: 3600}) {
		t.Errorf("group = %+v", got.TotalGroup)
	}

	scaled := EstimateTripBudget(1, "budget", 1, 1.5)
	if scaled.DailyPerPerson["accommodation"] != (CostRange{Min: 30, Max: 75}) {
		t.Errorf("scaled accommodation = %+v", scaled.DailyPerPerson["accommodation"])
	}

	clamped := EstimateTripBudget(0, "", 0, 0)
	if clamped.DurationDays != 1 || clamped.GroupSize != 1 || clamped.TravelStyle != "moderate" {
		t.Errorf("clamped = %+v", clamped)
	}
}

func TestSearchDestinations(t *testing.T) {
	names := func(ds []Destination) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.Name)
		}
		return out
	}

	got := SearchDestinations("Beaches in Europe", "budget", "relaxation")
	want := []string{"Santorini, Greece", "Amalfi Coast, Italy", "Algarve, Portugal"}
	if diff := cmp.Diff(want, names(got.Results)); diff != "" {
		t.Errorf("results (-want +got):\n%s", diff)
	}
	if got.TotalFound != 3 || got.BudgetLevel != "budget" {
		t.Errorf("got %+v", got)
	}

	// Matches two groups; results are capped while total_found is not.
	many := SearchDestinations("beaches or adventure", "moderate", "")
	if len(many.Results) != maxDestinationResults || many.TotalFound != 6 {
		t.Errorf("len = %d total = %d, want %d and 6", len(many.Results), many.TotalFound, maxDestinationResults)
	}

	fallback := SearchDestinations("somewhere quiet", "moderate", "")
	if diff := cmp.Diff([]string{"Kyoto, Japan", "Rome, Italy"}, names(fallback.Results)); diff != "" {
		t.Errorf("fallback (-want +got):\n%s", diff)
	}
}

func TestAttractions(t *testing.T) {
	museums := Attractions("Paris", "museums")
	if len(museums.Attractions) != 3 || museums.Attractions[0].Name != "Louvre Museum" {
		t.Errorf("museums = %+v", museums.Attractions)
	}

	all := Attractions("tokyo", "all")
	if len(all.Attractions) != 10 {
		t.Fatalf("all len = %d, want 10", len(all.Attractions))
	}
	if all.Attractions[3].Category != "outdoor" {
		t.Errorf("fourth attraction category = %q, want outdoor", all.Attractions[3].Category)
	}

	unknown := Attractions("Atlantis", "food")
	if unknown.Attractions[0].Name != "Local Market" {
		t.Errorf("default table not used: %+v", unknown.Attractions)
	}

	empty := Attractions("Paris", "spa")
	if empty.Attractions == nil || len(empty.Attractions) != 0 {
		t.Errorf("unknown category = %#v, want empty non-nil", empty.Attractions)
	}
}

func TestLocalTips(t *testing.T) {
	tests := []struct {
		tipType string
		keys    []string
	}{
		{TipHiddenGems, []string{"destination", "hidden_gems", "tip"}},
		{TipLocal, []string{"destination", "local_tips", "money_saving", "safety"}},
		{TipMoneySaving, []string{"destination", "money_saving"}},
		{TipBestTimes, []string{"destination", "best_times", "general_tip"}},
		{TipAll, []string{"destination", "hidden_gems", "local_tips", "money_saving", "safety", "best_times"}},
		{"", []string{"destination", "hidden_gems", "local_tips", "money_saving", "safety", "best_times"}},
	}
	for _, tt := range tests {
		got := LocalTips("Paris", tt.tipType)
		if len(got) != len(tt.keys) {
			t.Errorf("%q: got %d keys, want %d", tt.tipType, len(got), len(tt.keys))
		}
		for _, k := range tt.keys {
			if _, ok := got[k]; !ok {
				t.Errorf("%q: missing key %q", tt.tipType, k)
			}
		}
	}

	def := LocalTips("Nowhere", TipBestTimes)
	if bt, ok := def["best_times"].(map[string]string); !ok || bt == nil {
		t.Errorf("default best_times = %#v, want empty map", def["best_times"])
	}
}

func TestQuickItinerary(t *testing.T) {
	it, err := QuickItinerary("Paris", 3, "moderate")
	if err != nil {
		t.Fatalf("QuickItinerary: %v", err)
	}
	if len(it.DailyPlans) != 3 {
		t.Fatalf("days = %d, want 3", len(it.DailyPlans))
	}
	first := it.DailyPlans[0]
	if first.Morning[0].Name != "Eiffel Tower" || first.Afternoon[0].Name != "Louvre Museum" || first.Evening[0].Name != "Notre-Dame" {
		t.Errorf("day 1 = %+v", first)
	}
	last := it.DailyPlans[2]
	if last.Morning[0].Name != "Musée d'Orsay" || last.Afternoon[0].Name != "Latin Quarter" {
		t.Errorf("day 3 = %+v", last)
	}
	if len(last.Evening) != 0 {
		t.Errorf("day 3 evening = %+v, want empty once attractions run out", last.Evening)
	}
	if it.Transport == "" || len(it.Restaurants) != 3 {
		t.Errorf("restaurants/transport missing: %+v", it)
	}

	if _, err := QuickItinerary("Paris", 0, ""); !errors.Is(err, ErrInvalidDays) {
		t.Errorf("days=0 err = %v", err)
	}
	if _, err := QuickItinerary("Paris", 31, ""); err == nil {
		t.Error("days=31 should fail")
	}
}

func TestSeedDocuments(t *testing.T) {
	docs := SeedDocuments()
	seen := make(map[string]bool)
	for _, d := range docs {
		if !strings.HasPrefix(d.Source, BuiltinSourcePrefix) {
			t.Errorf("source %q lacks builtin prefix", d.Source)
		}
		if seen[d.Source] {
			t.Errorf("duplicate source %q", d.Source)
		}
		seen[d.Source] = true
		if strings.TrimSpace(d.Body) == "" {
			t.Errorf("%s has empty body", d.Source)
		}
	}
	for _, src := range []string{"builtin:paris_spring", "builtin:local:tokyo", "builtin:itinerary:paris", "builtin:local:default"} {
		if !seen[src] {
			t.Errorf("missing %s", src)
		}
	}

	e, err := knowledge.NewEngine(":memory:")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()
	n, err := e.Seed(docs)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != len(docs) {
		t.Errorf("seeded %d, want %d", n, len(docs))
	}

	hits, err := e.Search("spring in Paris", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 || hits[0].Source != "builtin:paris_spring" {
		t.Errorf("top hit = %+v, want paris_spring", hits)
	}
}
