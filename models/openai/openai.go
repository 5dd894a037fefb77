package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/careerforge/careerforge/models"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel      = "gpt-4o-mini"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

var errNoChoices = errors.New("openai: response contained no choices")

// OpenAI_Model answers chat turns through any OpenAI-compatible chat
// completions API, including OpenRouter.
type OpenAI_Model struct {
	Model  string
	name   string
	client *goopenai.Client
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

// Options configures an OpenAI-compatible provider
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	// Referrer and Title are sent as HTTP-Referer and X-Title, which OpenRouter
	// uses to attribute traffic.
	Referrer string
	Title    string
}

// New creates an OpenAI-compatible provider
func New(opts Options) (*OpenAI_Model, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}

	config := goopenai.DefaultConfig(opts.APIKey)
	name := "openai"
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
		if opts.BaseURL == OpenRouterBaseURL {
			name = "openrouter"
		}
	}
	if opts.Referrer != "" || opts.Title != "" {
		h := http.Header{}
		if opts.Referrer != "" {
			h.Set("HTTP-Referer", opts.Referrer)
		}
		if opts.Title != "" {
			h.Set("X-Title", opts.Title)
		}
		config.HTTPClient = &http.Client{Transport: headerTransport{rt: http.DefaultTransport, headers: h}}
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI_Model{
		Model:  model,
		name:   name,
		client: goopenai.NewClientWithConfig(config),
	}, nil
}

func (o *OpenAI_Model) Name() string { return o.name }

func (o *OpenAI_Model) ModelID() string { return o.Model }

// Generate sends the conversation and returns the first choice
func (o *OpenAI_Model) Generate(ctx context.Context, request models.GenerateRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:    o.Model,
		Messages: BuildMessages(request),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildMessages converts the conversation into chat completion messages
func BuildMessages(request models.GenerateRequest) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(request.History)+2)
	if request.SystemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: request.SystemPrompt})
	}
	for _, m := range request.History {
		role := goopenai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: request.Message})
}
