package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/careerforge/careerforge/models"
	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

var errNoCandidates = errors.New("gemini returned no candidates")

// Gemini_Model answers chat turns through the Gemini API.
type Gemini_Model struct {
	Model  string
	client *genai.Client
}

// New creates a Gemini provider authenticated with apiKey
func New(ctx context.Context, apiKey, model string) (*Gemini_Model, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini_Model{Model: model, client: client}, nil
}

func (g *Gemini_Model) Name() string { return "gemini" }

func (g *Gemini_Model) ModelID() string { return g.Model }

// Generate sends the conversation and returns the model's text reply
func (g *Gemini_Model) Generate(ctx context.Context, request models.GenerateRequest) (string, error) {
	var config *genai.GenerateContentConfig
	if request.SystemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(request.SystemPrompt, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.Model, BuildContents(request), config)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errNoCandidates
	}
	return resp.Text(), nil
}

// BuildContents converts the conversation into Gemini contents. Gemini names
// the assistant role "model".
func BuildContents(request models.GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(request.History)+1)
	for _, msg := range request.History {
		var role genai.Role = genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(request.Message, genai.RoleUser))
	return contents
}
