package travel

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

type WebResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

type WebResults struct {
	Query   string      `json:"query"`
	Results []WebResult `json:"results"`
	Source  string      `json:"source"`
}

// WebSearcher queries a DuckDuckGo Instant Answer compatible endpoint.
type WebSearcher struct {
	endpoint   string
	maxResults int
	fetch      *fetcher
}

func NewWebSearcher(endpoint string, maxResults int, userAgent string, client *http.Client) *WebSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearcher{
		endpoint:   endpoint,
		maxResults: maxResults,
		fetch:      newFetcher(client, userAgent),
	}
}

// Search returns the abstract (when present) followed by related topics.
// ErrNoResults means the endpoint answered but had nothing for query.
func (s *WebSearcher) Search(ctx context.Context, query string) (*WebResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}
	if s.endpoint == "" {
		return nil, errors.New("web search is not configured")
	}
	body, err := s.fetch.getJSON(ctx, s.endpoint, url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	})
	if err != nil {
		return nil, err
	}

	results := make([]WebResult, 0, s.maxResults)
	doc := gjson.ParseBytes(body)
	if text := doc.Get("AbstractText").String(); text != "" {
		title := doc.Get("Heading").String()
		if title == "" {
			title = query
		}
		results = append(results, WebResult{Title: title, Href: doc.Get("AbstractURL").String(), Body: text})
	}

	var addTopic func(t gjson.Result) bool
	addTopic = func(t gjson.Result) bool {
		if len(results) >= s.maxResults {
			return false
		}
		// Grouped topics nest their entries under Topics.
		if nested := t.Get("Topics"); nested.IsArray() {
			nested.ForEach(func(_, v gjson.Result) bool { return addTopic(v) })
			return len(results) < s.maxResults
		}
		text := t.Get("Text").String()
		if text == "" {
			return true
		}
		results = append(results, WebResult{Title: topicTitle(text), Href: t.Get("FirstURL").String(), Body: text})
		return true
	}
	doc.Get("RelatedTopics").ForEach(func(_, v gjson.Result) bool { return addTopic(v) })

	if len(results) == 0 {
		return nil, ErrNoResults
	}
	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}
	return &WebResults{Query: query, Results: results, Source: "web_search"}, nil
}

func topicTitle(text string) string {
	if i := strings.Index(text, " - "); i > 0 {
		return text[:i]
	}
	return text
}
