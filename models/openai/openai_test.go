package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careerforge/careerforge/models"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages(models.GenerateRequest{
		SystemPrompt: "be helpful",
		History: []models.Message{
			{Role: models.RoleUser, Content: "q1"},
			{Role: models.RoleAssistant, Content: "a1"},
		},
		Message: "q2",
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, msgs[0].Role)
	assert.Equal(t, goopenai.ChatMessageRoleAssistant, msgs[2].Role)
	assert.Equal(t, "q2", msgs[3].Content)
}

func TestGenerate_SendsOpenRouterHeaders(t *testing.T) {
	var gotReferrer, gotTitle, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferrer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		var body goopenai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{
				Message: goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleAssistant, Content: "Polish your portfolio."},
			}},
		})
	}))
	defer srv.Close()

	model, err := New(Options{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Model:    "mistral-small",
		Referrer: "https://careerforge.example",
		Title:    "CareerForge",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", model.Name())

	reply, err := model.Generate(context.Background(), models.GenerateRequest{Message: "How do I get a UX job?"})
	require.NoError(t, err)
	assert.Equal(t, "Polish your portfolio.", reply)
	assert.Equal(t, "https://careerforge.example", gotReferrer)
	assert.Equal(t, "CareerForge", gotTitle)
	assert.Equal(t, "mistral-small", gotModel)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
