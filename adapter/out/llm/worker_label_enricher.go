// Package llm suggests display names for senders the registry does not know.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Vansh1811/INBoxit-sub000/core/port/out"
	"github.com/Vansh1811/INBoxit-sub000/pkg/httputil"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const (
	DefaultModel = "gpt-4o-mini"
	maxNameLen   = 60

	// DefaultRequestsPerSecond keeps a scan's lookups under typical per-key limits.
	DefaultRequestsPerSecond = 2.0
)

var ErrNoSuggestion = errors.New("llm: no usable name suggested")

const systemPrompt = `You name online services from the emails they send.
Given a sender domain, sender address and subject line, reply with JSON only:
{"name": "<official product or company name>"}
Use the brand's usual capitalization. If you cannot tell, reply {"name": ""}.`

// Config configures the enricher.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL    string
	HTTPClient *http.Client

	// RequestsPerSecond spaces completion requests. Zero uses the default.
	RequestsPerSecond float64
}

// LabelEnricher implements out.LabelEnricher with a chat completion.
type LabelEnricher struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

func NewLabelEnricher(cfg Config) *LabelEnricher {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	} else {
		oc.HTTPClient = httputil.NewOptimizedClient(httputil.OpenAIClientConfig())
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &LabelEnricher{
		client:  openai.NewClientWithConfig(oc),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type nameResponse struct {
	Name string `json:"name"`
}

// SuggestName asks the model for the service's display name.
func (e *LabelEnricher) SuggestName(ctx context.Context, domain, from, subject string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: suggest name for %s: %w", domain, err)
	}

	userPrompt := fmt.Sprintf("Domain: %s\nFrom: %s\nSubject: %s", domain, from, truncate(subject, 200))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   32,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("llm: suggest name for %s: %w", domain, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoSuggestion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(content, "```")

	var parsed nameResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return "", fmt.Errorf("llm: failed to parse name response: %w", err)
	}
	return sanitizeName(parsed.Name)
}

func sanitizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || strings.EqualFold(name, "unknown") || utf8.RuneCountInString(name) > maxNameLen {
		return "", ErrNoSuggestion
	}
	return name, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var _ out.LabelEnricher = (*LabelEnricher)(nil)
