package gcp

import (
	"context"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

// Embedding task types. Documents are embedded for retrieval storage,
// queries for retrieval lookup.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// DefaultEmbeddingModel is the published Vertex AI text embedding model used
// unless overridden via configuration.
const DefaultEmbeddingModel = "text-embedding-004"

// EmbeddingClient converts text into fixed-dimension vectors via the Vertex
// AI prediction endpoint. Each call is independent; there is no caching,
// retrying, or batching here. Callers may parallelize across texts.
type EmbeddingClient struct {
	client   *aiplatform.PredictionClient
	endpoint string
}

// NewEmbeddingClient creates a prediction client bound to the given
// publisher embedding model in the given project and region.
func NewEmbeddingClient(ctx context.Context, projectID, region, model string) (*EmbeddingClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewEmbeddingClient: projectID and region cannot be empty")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	apiEndpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)
	client, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(apiEndpoint))
	if err != nil {
		return nil, fmt.Errorf("aiplatform.NewPredictionClient: %w", err)
	}

	return &EmbeddingClient{
		client:   client,
		endpoint: fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", projectID, region, model),
	}, nil
}

// Embed returns the embedding vector for a single text. Failures and
// malformed payloads are reported as *EmbeddingError.
func (c *EmbeddingClient) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	instance, err := structpb.NewValue(map[string]any{
		"content":   text,
		"task_type": taskType,
	})
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("building instance: %w", err)}
	}

	resp, err := c.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  c.endpoint,
		Instances: []*structpb.Value{instance},
	})
	if err != nil {
		return nil, &EmbeddingError{Err: fmt.Errorf("predict: %w", err)}
	}

	vec, err := embeddingFromPrediction(resp)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	return vec, nil
}

// embeddingFromPrediction validates the single committed response shape:
// predictions[0].embeddings.values. Anything else fails fast.
func embeddingFromPrediction(resp *aiplatformpb.PredictResponse) ([]float32, error) {
	if resp == nil || len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("prediction response contained no predictions")
	}
	embeddings := resp.Predictions[0].GetStructValue().GetFields()["embeddings"]
	if embeddings == nil {
		return nil, fmt.Errorf("prediction missing 'embeddings' field")
	}
	values := embeddings.GetStructValue().GetFields()["values"]
	if values == nil {
		return nil, fmt.Errorf("prediction missing 'embeddings.values' field")
	}
	list := values.GetListValue().GetValues()
	if len(list) == 0 {
		return nil, fmt.Errorf("prediction contained an empty embedding vector")
	}
	vec := make([]float32, len(list))
	for i, v := range list {
		vec[i] = float32(v.GetNumberValue())
	}
	return vec, nil
}

func (c *EmbeddingClient) Close() error {
	return c.client.Close()
}
