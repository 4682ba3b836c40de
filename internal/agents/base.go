package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/arjun/wayfarer/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// SearchProvider runs a web search and returns result snippets as text.
type SearchProvider interface {
	Search(ctx context.Context, query string) (string, error)
}

// ArticleFetcher fetches a page and extracts its readable content.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, pageURL string) (title, text string, err error)
}

// RenderedFetcher fetches a page after JavaScript rendering, for travel
// sites that build their results client-side.
type RenderedFetcher interface {
	FetchRendered(ctx context.Context, pageURL string) (string, error)
}

// ModelConfig selects the model and sampling parameters for one agent.
type ModelConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Agent is the shared plumbing for all LLM-backed capabilities: prompt
// assembly, model invocation, and JSON payload extraction.
type Agent struct {
	name    string
	llm     llms.Model
	cfg     ModelConfig
	prompts *PromptManager
	log     *observability.Logger
}

// NewAgent creates the base agent shared by the concrete capabilities.
func NewAgent(name string, llm llms.Model, cfg ModelConfig, prompts *PromptManager, log *observability.Logger) Agent {
	return Agent{name: name, llm: llm, cfg: cfg, prompts: prompts, log: log}
}

// Name identifies the capability.
func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) generate(ctx context.Context, user string) (string, error) {
	if a.llm == nil {
		return "", errors.New("no model configured")
	}
	system := a.prompts.Get(a.name)

	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(user)},
	})

	opts := []llms.CallOption{llms.WithTemperature(a.cfg.Temperature)}
	if a.cfg.Model != "" {
		opts = append(opts, llms.WithModel(a.cfg.Model))
	}
	if a.cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.cfg.MaxTokens))
	}

	resp, err := a.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	content := resp.Choices[0].Content
	if a.log != nil {
		a.log.LogLLM(a.name, user, content)
	}
	return content, nil
}

// generateJSON prompts the model and unmarshals the JSON object or array in
// its reply into out.
func (a *Agent) generateJSON(ctx context.Context, user string, out any) error {
	content, err := a.generate(ctx, user)
	if err != nil {
		return err
	}
	raw := extractJSON(content)
	if raw == "" {
		return fmt.Errorf("no JSON found in model reply")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse model reply: %v", err)
	}
	return nil
}

// extractJSON pulls the first JSON object or array out of a model reply,
// tolerating markdown code fences and surrounding prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	end := strings.LastIndexByte(s, '}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start = arrStart
		end = strings.LastIndexByte(s, ']')
	}
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// truncate caps tool output fed into prompts so page content cannot blow
// the context window.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (content truncated) ..."
}
