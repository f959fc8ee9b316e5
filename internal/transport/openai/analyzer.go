// Package openai implements the query analyzer over the OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/usecase/insight"
)

const systemPrompt = `You analyze ebook marketplace search queries about AI and
machine learning. Reply with a JSON object only, no prose, with keys:
"search_summary" (one sentence), "ebook_topics" (array of canonical topic
strings), "is_bundle_suggestion" (bool), "bundle_name" (string, only when
suggesting a bundle).`

// Analyzer interprets search queries via a chat completion model.
type Analyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the analyzer provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewAnalyzer creates a chat-completion query analyzer.
func NewAnalyzer(cfg *Config) *Analyzer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Analyzer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Analyze implements insight.Analyzer.
func (a *Analyzer) Analyze(ctx context.Context, queryText string) (insight.Analysis, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: queryText},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return insight.Analysis{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return insight.Analysis{}, fmt.Errorf("empty completion response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out insight.Analysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &out); err != nil {
		return insight.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	return out, nil
}
