// Package insight derives a short interpretation of a search query: the
// topics it touches and whether it reads like a request for a learning
// bundle. An LLM analyzer is used when configured; a deterministic keyword
// heuristic covers the rest.
package insight

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Analysis is the interpretation of one search query.
type Analysis struct {
	SearchSummary      string   `json:"search_summary"`
	EbookTopics        []string `json:"ebook_topics"`
	IsBundleSuggestion bool     `json:"is_bundle_suggestion"`
	BundleName         string   `json:"bundle_name,omitempty"`
}

// Analyzer produces an analysis for a query. Implementations may call an
// external model; failures make the service fall back to the heuristic.
type Analyzer interface {
	Analyze(ctx context.Context, queryText string) (Analysis, error)
}

// Service analyzes search queries. A nil analyzer is valid: every query is
// answered by the heuristic.
type Service struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewService creates the insight service.
func NewService(analyzer Analyzer, logger *zap.Logger) *Service {
	return &Service{analyzer: analyzer, logger: logger}
}

// Analyze interprets a query. Analyzer failures are absorbed into the
// heuristic path.
func (s *Service) Analyze(ctx context.Context, queryText string) Analysis {
	if s.analyzer != nil {
		a, err := s.analyzer.Analyze(ctx, queryText)
		if err == nil {
			return a
		}
		s.logger.Warn("Query analyzer failed, using heuristic", zap.Error(err))
	}
	return Heuristic(queryText)
}

// topicKeywords maps query words to canonical topic names.
var topicKeywords = map[string]string{
	"machine":       "machine learning",
	"learning":      "machine learning",
	"neural":        "neural networks",
	"network":       "neural networks",
	"networks":      "neural networks",
	"deep":          "deep learning",
	"tensorflow":    "tensorflow",
	"pytorch":       "pytorch",
	"python":        "python",
	"data":          "data science",
	"science":       "data science",
	"computer":      "computer vision",
	"vision":        "computer vision",
	"natural":       "natural language processing",
	"language":      "natural language processing",
	"nlp":           "natural language processing",
	"reinforcement": "reinforcement learning",
	"ai":            "artificial intelligence",
	"artificial":    "artificial intelligence",
	"intelligence":  "artificial intelligence",
}

// Heuristic is the deterministic analyzer: keyword-to-topic mapping plus a
// bundle suggestion when the query spans several topics or asks for a
// comprehensive resource.
func Heuristic(queryText string) Analysis {
	lower := strings.ToLower(queryText)

	var topics []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, ".,!?:;\"'()")
		if len(word) <= 2 && word != "ai" {
			continue
		}
		topic, ok := topicKeywords[word]
		if !ok || seen[topic] {
			continue
		}
		seen[topic] = true
		topics = append(topics, topic)
	}

	a := Analysis{
		SearchSummary: "Search for: " + strings.TrimSpace(queryText),
		EbookTopics:   topics,
	}
	if len(topics) > 2 || strings.Contains(lower, "comprehensive") || strings.Contains(lower, "complete") {
		a.IsBundleSuggestion = true
		a.BundleName = bundleName(topics)
	}
	return a
}

func bundleName(topics []string) string {
	if len(topics) == 0 {
		return "AI Learning Bundle"
	}
	return titleCase(topics[0]) + " Learning Bundle"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
