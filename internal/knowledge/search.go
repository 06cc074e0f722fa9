package knowledge

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

const DefaultSearchLimit = 3

var wordRegex = regexp.MustCompile(`[\p{L}][\p{L}\p{N}_\-]{2,}`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "what": {}, "where": {}, "when": {},
	"how": {}, "are": {}, "is": {}, "was": {}, "that": {}, "this": {}, "from": {},
	"about": {}, "should": {}, "can": {}, "best": {}, "into": {}, "there": {},
	"not": {}, "near": {}, "or": {},
}

type Hit struct {
	Source      string  `json:"source"`
	Title       string  `json:"title"`
	Destination string  `json:"destination,omitempty"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

// Search runs an OR query over the keywords of query and returns at most
// limit hits, best first. Score maps the bm25 rank into (0, 1].
func (e *Engine) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	match := buildMatchQuery(extractKeywords(query))
	if match == "" {
		return []Hit{}, nil
	}

	rows, err := e.db.Query(`
		SELECT d.source, d.title, d.destination, d.body, bm25(documents_fts) AS rank
		FROM documents d
		JOIN documents_fts f ON d.id = f.rowid
		WHERE documents_fts MATCH ?
		ORDER BY rank, d.id
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search fts: %w", err)
	}
	defer rows.Close()

	hits := make([]Hit, 0, limit)
	for rows.Next() {
		var h Hit
		var rank float64
		if err := rows.Scan(&h.Source, &h.Title, &h.Destination, &h.Text, &rank); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		h.Score = rankScore(rank)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}

func rankScore(bm25 float64) float64 {
	s := 1 / (1 + math.Abs(bm25))
	return math.Round(s*1000) / 1000
}

func extractKeywords(msg string) []string {
	msg = strings.TrimSpace(strings.ToLower(msg))
	if msg == "" {
		return nil
	}

	seen := map[string]struct{}{}
	keywords := make([]string, 0)
	for _, w := range wordRegex.FindAllString(msg, -1) {
		w = strings.Trim(w, "-_")
		if len([]rune(w)) < 3 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	if len(keywords) > 8 {
		keywords = keywords[:8]
	}
	return keywords
}

func buildMatchQuery(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ReplaceAll(t, `"`, "")
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
