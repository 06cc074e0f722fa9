package react

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantOK   bool
		wantName string
		wantArgs map[string]any
	}{
		{
			name:   "plain answer",
			text:   "Paris is lovely in May.",
			wantOK: false,
		},
		{
			name:     "standard call",
			text:     "I'll check.\n\nTOOL: get_weather\nARGS: {\"location\": \"Paris\"}",
			wantOK:   true,
			wantName: "get_weather",
			wantArgs: map[string]any{"location": "Paris"},
		},
		{
			name:     "case insensitive",
			text:     "tool: search_web\nargs: {\"query\": \"Mysore palace\"}",
			wantOK:   true,
			wantName: "search_web",
			wantArgs: map[string]any{"query": "Mysore palace"},
		},
		{
			name:     "single quotes",
			text:     "TOOL: calculate_budget\nARGS: {'destination': 'Goa', 'days': 3}",
			wantOK:   true,
			wantName: "calculate_budget",
			wantArgs: map[string]any{"destination": "Goa", "days": float64(3)},
		},
		{
			name:     "malformed args fall back to empty",
			text:     "TOOL: get_weather\nARGS: {'location': Paris}",
			wantOK:   true,
			wantName: "get_weather",
			wantArgs: map[string]any{},
		},
		{
			name:     "no args block",
			text:     "TOOL: get_local_tips",
			wantOK:   true,
			wantName: "get_local_tips",
			wantArgs: map[string]any{},
		},
		{
			name:     "apostrophe inside value breaks decoding",
			text:     "TOOL: search_web\nARGS: {\"query\": \"Rome's best gelato\"}",
			wantOK:   true,
			wantName: "search_web",
			wantArgs: map[string]any{},
		},
		{
			name:     "nested object is truncated",
			text:     "TOOL: create_itinerary\nARGS: {\"destination\": \"Tokyo\", \"prefs\": {\"pace\": \"slow\"}}",
			wantOK:   true,
			wantName: "create_itinerary",
			wantArgs: map[string]any{},
		},
		{
			name:     "multi-line args",
			text:     "TOOL: get_attractions\nARGS: {\n  \"destination\": \"Tokyo\",\n  \"category\": \"food\"\n}",
			wantOK:   true,
			wantName: "get_attractions",
			wantArgs: map[string]any{"destination": "Tokyo", "category": "food"},
		},
		{
			name:     "first call wins",
			text:     "TOOL: get_weather\nARGS: {\"location\": \"Paris\"}\nTOOL: search_web\nARGS: {\"query\": \"Paris\"}",
			wantOK:   true,
			wantName: "get_weather",
			wantArgs: map[string]any{"location": "Paris"},
		},
		{
			name:     "empty braces do not match args",
			text:     "TOOL: get_local_tips\nARGS: {}",
			wantOK:   true,
			wantName: "get_local_tips",
			wantArgs: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, ok := ParseToolCall(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if call.Name != tt.wantName {
				t.Errorf("name = %q, want %q", call.Name, tt.wantName)
			}
			if diff := cmp.Diff(tt.wantArgs, call.Args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "Day 1: Louvre\nDay 2: Montmartre",
			want: "Day 1: Louvre\nDay 2: Montmartre",
		},
		{
			name: "trims surrounding whitespace",
			in:   "\n\n  Enjoy your trip!  \n",
			want: "Enjoy your trip!",
		},
		{
			name: "tool and args lines",
			in:   "Here is the plan.\nTOOL: get_weather\nARGS: {\"location\": \"Paris\"}\nHave fun.",
			want: "Here is the plan.\nHave fun.",
		},
		{
			name: "brace line after tool line",
			in:   "Answer first.\nTOOL: get_weather\n{\"location\": \"Paris\"}\nDone.",
			want: "Answer first.\nDone.",
		},
		{
			name: "brace line after args line is still skipped",
			in:   "A\n  tool: x\n  args:\n{\"k\": 1}\nB",
			want: "A\nB",
		},
		{
			name: "brace line without tool line is kept",
			in:   "Example:\n{\"a\": 1}",
			want: "Example:\n{\"a\": 1}",
		},
		{
			name: "only tool syntax",
			in:   "TOOL: nonexistent_tool",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanResponse(tt.in)
			if got != tt.want {
				t.Errorf("CleanResponse = %q, want %q", got, tt.want)
			}
			if again := CleanResponse(got); again != got {
				t.Errorf("second pass = %q, want %q", again, got)
			}
		})
	}
}

func TestCleanResponse_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"TOOL: a\nTOOL: b\n{\n}\nARGS: {}",
		"line\n\nTOOL: get_weather\n\n{\"location\": \"Paris\"}\n",
		"{\"leading\": true}\nTOOL:\n{}\n{}\ntext",
		"  indented answer\n\twith tabs\t\n",
		"Tool: get_weather is what I'd call\nthen\n{ x }",
	}
	for _, in := range inputs {
		once := CleanResponse(in)
		if twice := CleanResponse(once); twice != once {
			t.Errorf("CleanResponse(%q): once = %q, twice = %q", in, once, twice)
		}
	}
}
