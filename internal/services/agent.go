package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/documate-ai/backend/internal/gcp"
	"github.com/documate-ai/backend/internal/models"
)

// maxHistoryTurns bounds the agent conversation. Exceeding it forcibly
// terminates the loop; this is the hard liveness guarantee against
// unbounded model/tool ping-pong.
const maxHistoryTurns = 20

// Fixed terminal answers for the two degenerate loop outcomes.
const (
	incompleteResponseAnswer = "I couldn't process that request fully. Please try again."
	loopTooLongAnswer        = "I'm having trouble processing this request. The conversation became too long."
)

// AgentChat is one model conversation with tool support. Implemented by
// gcp.GeminiChat.
type AgentChat interface {
	Send(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	History() []*genai.Content
}

// AgentResult is the outcome of one agent invocation: the final answer plus
// the tool calls made and the conversation transcript, for observability.
type AgentResult struct {
	Answer     string
	ToolCalls  []models.ToolCall
	Transcript string
}

// Agent drives the bounded tool-calling loop: it sends the user query to the
// model, executes the tools the model requests, feeds results back, and
// repeats until the model produces plain text or a safety bound is hit.
// Execution is strictly sequential and scoped to a single document.
type Agent struct {
	startChat func() AgentChat
	tools     *ToolRegistry
}

func NewAgent(startChat func() AgentChat, tools *ToolRegistry) *Agent {
	return &Agent{startChat: startChat, tools: tools}
}

// Invoke runs the loop for one user query against one document. Errors are
// returned only for model-transport failures outside the tool boundary; all
// tool failures are absorbed into the conversation.
func (a *Agent) Invoke(ctx context.Context, documentID, query string) (*AgentResult, error) {
	logCtx := slog.With("documentId", documentID)
	chat := a.startChat()

	resp, err := chat.Send(ctx, genai.Text(query))
	if err != nil {
		return nil, fmt.Errorf("failed to send query to agent model: %w", err)
	}

	var toolCalls []models.ToolCall
	for {
		call, isCall := gcp.FunctionCallFromResponse(resp)
		switch {
		case isCall:
			args := make(map[string]any, len(call.Args))
			for k, v := range call.Args {
				args[k] = v
			}
			// Every call is logged in invocation order, regardless of outcome.
			toolCalls = append(toolCalls, models.ToolCall{Tool: call.Name, Args: args})

			if !a.tools.Has(call.Name) {
				errMsg := fmt.Sprintf("Agent tried to call unknown tool: %s", call.Name)
				logCtx.Warn("Unknown tool requested.", "tool", call.Name)
				resp, err = chat.Send(ctx, genai.Text(errMsg))
				if err != nil {
					return nil, fmt.Errorf("failed to report unknown tool to model: %w", err)
				}
				break
			}

			// The model is never trusted to supply the document scope.
			if a.tools.ExpectsDocumentID(call.Name) {
				args["document_id"] = documentID
			}

			logCtx.Info("Agent invoking tool.", "tool", call.Name)
			output := a.tools.Execute(ctx, call.Name, args)

			resp, err = chat.Send(ctx, genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"content": output},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to send tool result to model: %w", err)
			}

		default:
			text := gcp.TextFromResponse(resp)
			if text == "" {
				logCtx.Warn("Agent finished without a text response or tool call.")
				return a.result(incompleteResponseAnswer, toolCalls, chat), nil
			}
			return a.result(text, toolCalls, chat), nil
		}

		if len(chat.History()) > maxHistoryTurns {
			logCtx.Warn("Agent loop exceeded maximum history length.", "turns", len(chat.History()))
			return a.result(loopTooLongAnswer, toolCalls, chat), nil
		}
	}
}

func (a *Agent) result(answer string, toolCalls []models.ToolCall, chat AgentChat) *AgentResult {
	return &AgentResult{
		Answer:     answer,
		ToolCalls:  toolCalls,
		Transcript: formatTranscript(chat.History()),
	}
}

// formatTranscript renders the chat history as readable text for the
// observability field of the agent response.
func formatTranscript(history []*genai.Content) string {
	var sb strings.Builder
	for _, content := range history {
		if content == nil {
			continue
		}
		for _, part := range content.Parts {
			switch p := part.(type) {
			case genai.Text:
				fmt.Fprintf(&sb, "[%s] %s\n", content.Role, string(p))
			case genai.FunctionCall:
				fmt.Fprintf(&sb, "[%s] call %s(%v)\n", content.Role, p.Name, p.Args)
			case genai.FunctionResponse:
				fmt.Fprintf(&sb, "[%s] result %s: %v\n", content.Role, p.Name, p.Response)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
