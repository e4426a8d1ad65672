package openai

import (
	"context"
	"fmt"
	"log/slog"
)

type EmbeddingRequest struct {
	Model          string `json:"model,omitempty"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format,omitempty"`
}

type EmbeddingResponse struct {
	Object string          `json:"object"`
	Data   []EmbeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  EmbeddingUsage  `json:"usage"`
}

type EmbeddingData struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type EmbeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

func (client *Client) embeddingsPath() string {
	if client.azure == nil {
		return "/embeddings"
	}
	return "/deployments/" + client.azure.EmbeddingsDeploymentName + "/embeddings"
}

// Embed implements the inference.Embedder interface
func (client *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	if err := client.withRetry(ctx, func() error {
		result, err := client.embed(ctx, text)
		if err != nil {
			return err
		}
		embedding = result
		return nil
	}); err != nil {
		return nil, err
	}
	return embedding, nil
}

func (client *Client) embed(ctx context.Context, text string) ([]float64, error) {
	requestBody := EmbeddingRequest{
		Model:          client.embeddingModel,
		Input:          text,
		EncodingFormat: "float",
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&EmbeddingResponse{}).
		Post(client.embeddingsPath())
	if err != nil {
		return nil, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody, ok := response.Result().(*EmbeddingResponse)
	if !ok || responseBody == nil || len(responseBody.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response: %s", response.String())
	}
	embedding := responseBody.Data[0].Embedding
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty embedding vector: %s", response.String())
	}
	slog.Default().Debug("openai embedding",
		"model", responseBody.Model,
		"dimensions", len(embedding),
		"promptTokens", responseBody.Usage.PromptTokens,
	)
	return embedding, nil
}
