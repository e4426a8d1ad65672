package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/inference"
	"resty.dev/v3"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultModel          = "gpt-4-turbo"
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultPollInterval   = time.Second
	defaultMaxPollCount   = 60
)

// AzureOptions routes requests to an Azure OpenAI resource instead of api.openai.com
type AzureOptions struct {
	APIKey                   string
	APIVersion               string
	InstanceName             string
	DeploymentName           string
	EmbeddingsDeploymentName string
	// BaseURL overrides https://<InstanceName>.openai.azure.com/openai
	BaseURL string
}

type ClientOptions struct {
	APIKey           string
	BaseURL          string
	Organization     string
	Model            string
	EmbeddingModel   string
	MaxRetryAttempts uint
	PollInterval     time.Duration
	MaxPollCount     uint
	Azure            *AzureOptions
}

type Client struct {
	httpClient       *resty.Client
	model            string
	embeddingModel   string
	maxRetryAttempts uint
	pollInterval     time.Duration
	maxPollCount     uint
	azure            *AzureOptions
}

var (
	_ inference.Client    = (*Client)(nil)
	_ inference.Embedder  = (*Client)(nil)
	_ inference.RunPoller = (*Client)(nil)
)

func NewClient(options ClientOptions) *Client {
	client := &Client{
		httpClient:       resty.New(),
		model:            options.Model,
		embeddingModel:   options.EmbeddingModel,
		maxRetryAttempts: options.MaxRetryAttempts,
		pollInterval:     options.PollInterval,
		maxPollCount:     options.MaxPollCount,
		azure:            options.Azure,
	}
	if client.model == "" {
		client.model = defaultModel
	}
	if client.embeddingModel == "" {
		client.embeddingModel = defaultEmbeddingModel
	}
	if client.pollInterval <= 0 {
		client.pollInterval = defaultPollInterval
	}
	if client.maxPollCount == 0 {
		client.maxPollCount = defaultMaxPollCount
	}

	client.httpClient.SetHeader("Content-Type", "application/json")
	if options.Azure != nil {
		baseURL := options.Azure.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.openai.azure.com/openai", options.Azure.InstanceName)
		}
		client.httpClient.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
		client.httpClient.SetHeader("api-key", options.Azure.APIKey)
		client.httpClient.SetQueryParam("api-version", options.Azure.APIVersion)
		return client
	}

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client.httpClient.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.httpClient.SetHeader("Authorization", "Bearer "+options.APIKey)
	if options.Organization != "" {
		client.httpClient.SetHeader("OpenAI-Organization", options.Organization)
	}
	return client
}

// NewClientFromConfig picks Azure OpenAI when its key is configured, api.openai.com otherwise
func NewClientFromConfig(cfg *config.Config) *Client {
	options := ClientOptions{
		APIKey:           cfg.OpenAI.APIKey,
		BaseURL:          cfg.OpenAI.BaseURL,
		Organization:     cfg.OpenAI.Organization,
		Model:            cfg.OpenAI.Model,
		EmbeddingModel:   cfg.OpenAI.EmbeddingModel,
		MaxRetryAttempts: cfg.OpenAI.MaxRetryAttempts,
		PollInterval:     time.Duration(cfg.Assistants.PollIntervalMs) * time.Millisecond,
		MaxPollCount:     uint(cfg.Assistants.MaxPollCount),
	}
	if cfg.UsesAzure() {
		options.Azure = &AzureOptions{
			APIKey:                   cfg.Azure.APIKey,
			APIVersion:               cfg.Azure.APIVersion,
			InstanceName:             cfg.Azure.InstanceName,
			DeploymentName:           cfg.Azure.DeploymentName,
			EmbeddingsDeploymentName: cfg.Azure.EmbeddingsDeploymentName,
		}
	}
	return NewClient(options)
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

func (client *Client) EmbeddingModel() string {
	return client.embeddingModel
}

// chatCompletionsPath returns the endpoint for the model. On Azure the deployment selects the model.
func (client *Client) chatCompletionsPath(model string) string {
	if client.azure == nil {
		return "/chat/completions"
	}
	deployment := client.azure.DeploymentName
	if deployment == "" {
		deployment = model
	}
	return "/deployments/" + deployment + "/chat/completions"
}

// Judge implements the inference.Client interface
func (client *Client) Judge(
	ctx context.Context,
	params inference.JudgeRequest,
) (string, error) {
	model := params.Model
	if model == "" {
		model = client.model
	}
	temperature := params.Temperature
	request := inference.ChatCompletionRequest{
		Model:       model,
		Temperature: &temperature,
		Messages: []inference.Message{
			{Role: inference.RoleSystem, Content: params.SystemPrompt},
			{Role: inference.RoleUser, Content: params.UserPrompt},
		},
	}

	var content string
	if err := client.withRetry(ctx, func() error {
		response, err := client.createChatCompletion(ctx, request)
		if err != nil {
			return err
		}
		if len(response.Choices) == 0 || response.Choices[0].Message == nil {
			return fmt.Errorf("empty response choices for model %s", model)
		}
		content = response.Choices[0].Message.Content
		return nil
	}); err != nil {
		return "", err
	}
	return content, nil
}

// CreateChatCompletion implements the inference.Client interface.
// The response is returned as is, so callers can inspect choices without tool calls.
func (client *Client) CreateChatCompletion(
	ctx context.Context,
	params inference.ChatCompletionRequest,
) (*inference.ChatCompletion, error) {
	if params.Model == "" {
		params.Model = client.model
	}

	var result *inference.ChatCompletion
	if err := client.withRetry(ctx, func() error {
		response, err := client.createChatCompletion(ctx, params)
		if err != nil {
			return err
		}
		result = response
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (client *Client) createChatCompletion(
	ctx context.Context,
	requestBody inference.ChatCompletionRequest,
) (*inference.ChatCompletion, error) {
	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&inference.ChatCompletion{}).
		Post(client.chatCompletionsPath(requestBody.Model))
	if err != nil {
		return nil, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody, ok := response.Result().(*inference.ChatCompletion)
	if !ok || responseBody == nil {
		return nil, fmt.Errorf("unexpected response body: %s", response.String())
	}
	slog.Default().Debug("openai chat completion",
		"request", requestBody,
		"response", responseBody,
	)
	return responseBody, nil
}
