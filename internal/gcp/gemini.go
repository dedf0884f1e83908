package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// --- Summary Model Prompt ---
const SummaryPromptTemplate = "Summarize the following document concisely, highlighting key points. Keep the summary to a maximum of 200 words:\n\n%s"

// --- Entity Model Prompt ---
const EntityPromptTemplate = `Extract key entities from the following text. For each entity, identify its type (PERSON, ORG, LOC, DATE, MONEY, GPE) and its exact text. Return the entities as a JSON list of objects with 'text' and 'label' keys. If no entities are found, return an empty list.

Example Format:
[
    {"text": "John Doe", "label": "PERSON"},
    {"text": "Google", "label": "ORG"},
    {"text": "New York", "label": "LOC"}
]

Text:

%s`

// --- Answer Model Prompt ---
const AnswerPromptTemplate = `Based on the following context, answer the question. If the answer is not explicitly present in the context, state that you don't know or that the information is not available. Do not make up information.

Context:
%s

Question: %s

Answer:`

// GeminiClient holds all pre-configured generative models for the backend.
type GeminiClient struct {
	SummaryModel *genai.GenerativeModel
	EntityModel  *genai.GenerativeModel
	AnswerModel  *genai.GenerativeModel
	AgentModel   *genai.GenerativeModel
	baseClient   *genai.Client
}

// NewGeminiClient creates a client holding all necessary models.
func NewGeminiClient(ctx context.Context, projectID, region string) (*GeminiClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewGeminiClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the summary model ---
	summaryModel := baseClient.GenerativeModel("gemini-2.0-flash")
	summaryModel.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: genai.Ptr[int32](250),
	}

	// --- Configure the entity extraction model ---
	entityModel := baseClient.GenerativeModel("gemini-2.0-flash")
	entityModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output so the response parses without fence stripping.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	// --- Configure the grounded answer model ---
	answerModel := baseClient.GenerativeModel("gemini-2.0-flash")

	// --- Configure the tool-calling agent model ---
	agentModel := baseClient.GenerativeModel("gemini-2.0-flash")
	agentModel.Tools = []*genai.Tool{{FunctionDeclarations: AgentToolDeclarations()}}

	return &GeminiClient{
		SummaryModel: summaryModel,
		EntityModel:  entityModel,
		AnswerModel:  answerModel,
		AgentModel:   agentModel,
		baseClient:   baseClient,
	}, nil
}

func (c *GeminiClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}

// AgentToolDeclarations describes the closed set of document-scoped tools the
// agent model may invoke. The set is fixed; there is no registration API.
func AgentToolDeclarations() []*genai.FunctionDeclaration {
	docIDSchema := &genai.Schema{
		Type:        genai.TypeString,
		Description: "The unique ID of the document.",
	}
	return []*genai.FunctionDeclaration{
		{
			Name:        "get_document_summary",
			Description: "Retrieves the pre-generated summary of a specific document.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"document_id": docIDSchema,
				},
				Required: []string{"document_id"},
			},
		},
		{
			Name:        "get_document_entities",
			Description: "Retrieves the pre-generated named entities (PERSON, ORG, LOC, DATE, MONEY, GPE) from a specific document.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"document_id": docIDSchema,
				},
				Required: []string{"document_id"},
			},
		},
		{
			Name:        "semantic_search_document",
			Description: "Performs a semantic search within a document to find relevant text sections based on a query.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"document_id": docIDSchema,
					"query": {
						Type:        genai.TypeString,
						Description: "The search query or question to find relevant sections.",
					},
				},
				Required: []string{"document_id", "query"},
			},
		},
	}
}

// TextFromResponse concatenates all text parts of the first candidate.
// Returns "" when the response carries no text content.
func TextFromResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

// FunctionCallFromResponse returns the first function call of the first
// candidate, if the model requested one.
func FunctionCallFromResponse(resp *genai.GenerateContentResponse) (genai.FunctionCall, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			return fc, true
		}
	}
	return genai.FunctionCall{}, false
}

// StripFences removes surrounding markdown code fences the model sometimes
// wraps structured output in, despite the JSON response MIME type.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
