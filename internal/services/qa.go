package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/documate-ai/backend/internal/models"
	"github.com/documate-ai/backend/internal/store"
)

// Retrieval depths for the two question surfaces.
const (
	askTopK    = 5
	searchTopK = 10
)

// NoSearchResultsMessage is the single element returned when a semantic
// search matches nothing.
const NoSearchResultsMessage = "No relevant results found for your query in this document."

// QAService answers direct questions, runs raw semantic search, and fronts
// the agent. It owns the conversation log: every produced answer is appended,
// except the no-context short circuit which never reaches generation.
type QAService struct {
	retriever *Retriever
	answerer  *Answerer
	agent     *Agent
	store     store.Store
}

func NewQAService(retriever *Retriever, answerer *Answerer, agent *Agent, st store.Store) *QAService {
	return &QAService{retriever: retriever, answerer: answerer, agent: agent, store: st}
}

// Ask runs the direct RAG path: embed the question, retrieve the best chunks,
// generate a grounded answer, and log the turn. An empty retrieval returns
// the fixed no-information answer without calling the model or logging.
// Embedding failures propagate; retrieval emptiness does not.
func (s *QAService) Ask(ctx context.Context, userID, documentID, question string) (string, error) {
	chunks, err := s.retriever.Search(ctx, documentID, question, askTopK)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return NoRelevantInfoAnswer, nil
	}

	answer := s.answerer.Answer(ctx, question, chunks)
	s.logTurn(ctx, userID, documentID, question, answer)
	return answer, nil
}

// Search returns the raw top-matching chunk texts for a query. Search results
// are not conversation turns and are never logged.
func (s *QAService) Search(ctx context.Context, documentID, query string) ([]string, error) {
	chunks, err := s.retriever.Search(ctx, documentID, query, searchTopK)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []string{NoSearchResultsMessage}, nil
	}
	return chunks, nil
}

// AgentQuery runs the tool-calling agent for one query and logs the final
// answer, whatever terminal path produced it.
func (s *QAService) AgentQuery(ctx context.Context, userID, documentID, query string) (*AgentResult, error) {
	result, err := s.agent.Invoke(ctx, documentID, query)
	if err != nil {
		return nil, err
	}
	s.logTurn(ctx, userID, documentID, query, result.Answer)
	return result, nil
}

// logTurn appends one turn to the conversation log. Logging failure never
// fails the request that produced the answer.
func (s *QAService) logTurn(ctx context.Context, userID, documentID, question, answer string) {
	err := s.store.AppendConversation(ctx, &models.Conversation{
		UserID:      userID,
		DocumentID:  documentID,
		UserMessage: question,
		AIResponse:  answer,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to append conversation turn.",
			"documentId", documentID, "error", err)
	}
}
