package gcp

import (
	"context"

	"cloud.google.com/go/vertexai/genai"
)

// TextModel is the single-prompt generation surface over a pre-configured
// Gemini model. Failures come back as *GenerationError.
type TextModel struct {
	model *genai.GenerativeModel
}

func NewTextModel(model *genai.GenerativeModel) *TextModel {
	return &TextModel{model: model}
}

// GenerateText sends one prompt and returns the trimmed text of the first
// candidate. A response carrying no text is an error, not an empty answer.
func (m *TextModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := m.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &GenerationError{Reason: "the model request failed", Err: err}
	}
	text := TextFromResponse(resp)
	if text == "" {
		return "", &GenerationError{Reason: "the model returned an empty response"}
	}
	return text, nil
}

// GeminiChat is one multi-turn session against the tool-enabled agent model.
type GeminiChat struct {
	session *genai.ChatSession
}

// StartAgentChat opens a fresh session on the agent model. Each invocation of
// the agent loop gets its own session; history never leaks across requests.
func (c *GeminiClient) StartAgentChat() *GeminiChat {
	return &GeminiChat{session: c.AgentModel.StartChat()}
}

// Send delivers parts (user text or tool results) to the session and returns
// the model's next turn. Failures come back as *GenerationError.
func (c *GeminiChat) Send(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	resp, err := c.session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, &GenerationError{Reason: "the chat turn failed", Err: err}
	}
	return resp, nil
}

// History returns the session history accumulated so far, user and model
// turns interleaved.
func (c *GeminiChat) History() []*genai.Content {
	return c.session.History
}

// Probe issues a minimal generation request to verify model connectivity.
// Used by the health endpoint.
func (c *GeminiClient) Probe(ctx context.Context) error {
	model := c.baseClient.GenerativeModel("gemini-2.0-flash")
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: genai.Ptr[int32](5),
	}
	_, err := model.GenerateContent(ctx, genai.Text("Say 'hello' in one word."))
	if err != nil {
		return &GenerationError{Reason: "the health probe failed", Err: err}
	}
	return nil
}
