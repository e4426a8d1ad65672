package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/at-ishikawa/llmassert/internal/config"
	"github.com/at-ishikawa/llmassert/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, options ClientOptions) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	if options.Azure != nil {
		options.Azure.BaseURL = server.URL
	} else {
		options.BaseURL = server.URL
	}
	if options.APIKey == "" {
		options.APIKey = "sk-test"
	}
	client := NewClient(options)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func textCompletion(content string) inference.ChatCompletion {
	return inference.ChatCompletion{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "gpt-4-turbo",
		Choices: []inference.Choice{
			{
				Index:        0,
				Message:      &inference.ChoiceMessage{Role: inference.RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
		Usage: inference.Usage{PromptTokens: 100, CompletionTokens: 1, TotalTokens: 101},
	}
}

func TestClient_Judge(t *testing.T) {
	tests := []struct {
		name              string
		request           inference.JudgeRequest
		options           ClientOptions
		mockServerHandler func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request)

		want            string
		wantCalls       int32
		wantError       bool
		wantErrorString string
	}{
		{
			name: "returns the first choice content",
			request: inference.JudgeRequest{
				Model:        "gpt-4o",
				SystemPrompt: "system prompt",
				UserPrompt:   "user prompt",
			},
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

				var reqBody inference.ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "gpt-4o", reqBody.Model)
				require.NotNil(t, reqBody.Temperature)
				assert.Equal(t, float32(0), *reqBody.Temperature)
				require.Len(t, reqBody.Messages, 2)
				assert.Equal(t, inference.Message{Role: inference.RoleSystem, Content: "system prompt"}, reqBody.Messages[0])
				assert.Equal(t, inference.Message{Role: inference.RoleUser, Content: "user prompt"}, reqBody.Messages[1])

				writeJSON(t, w, http.StatusOK, textCompletion("true"))
			},
			want:      "true",
			wantCalls: 1,
		},
		{
			name:    "falls back to the client model",
			request: inference.JudgeRequest{SystemPrompt: "s", UserPrompt: "u"},
			options: ClientOptions{Model: "client-model"},
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				var reqBody inference.ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "client-model", reqBody.Model)
				writeJSON(t, w, http.StatusOK, textCompletion("false"))
			},
			want:      "false",
			wantCalls: 1,
		},
		{
			name:    "retries server errors",
			request: inference.JudgeRequest{SystemPrompt: "s", UserPrompt: "u"},
			options: ClientOptions{MaxRetryAttempts: 2},
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				if calls == 1 {
					writeJSON(t, w, http.StatusServiceUnavailable, map[string]any{"error": map[string]string{"message": "overloaded"}})
					return
				}
				writeJSON(t, w, http.StatusOK, textCompletion("true"))
			},
			want:      "true",
			wantCalls: 2,
		},
		{
			name:    "does not retry client errors",
			request: inference.JudgeRequest{SystemPrompt: "s", UserPrompt: "u"},
			options: ClientOptions{MaxRetryAttempts: 2},
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "invalid api key"}})
			},
			wantCalls:       1,
			wantError:       true,
			wantErrorString: "response error 401",
		},
		{
			name:    "empty choices",
			request: inference.JudgeRequest{SystemPrompt: "s", UserPrompt: "u"},
			mockServerHandler: func(t *testing.T, calls int32, w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, inference.ChatCompletion{ID: "chatcmpl-empty"})
			},
			wantCalls:       1,
			wantError:       true,
			wantErrorString: "empty response choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, calls.Add(1), w, r)
			}, tt.options)

			got, err := client.Judge(context.Background(), tt.request)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Judge_Azure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/deployments/gpt-4-deployment/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-02-01", r.URL.Query().Get("api-version"))
		assert.Equal(t, "azure-key", r.Header.Get("api-key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, textCompletion("true"))
	}, ClientOptions{
		Azure: &AzureOptions{
			APIKey:         "azure-key",
			APIVersion:     "2024-02-01",
			InstanceName:   "unused",
			DeploymentName: "gpt-4-deployment",
		},
	})

	got, err := client.Judge(context.Background(), inference.JudgeRequest{SystemPrompt: "s", UserPrompt: "u"})
	require.NoError(t, err)
	assert.Equal(t, "true", got)
}

func TestClient_CreateChatCompletion(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var reqBody inference.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4-turbo", reqBody.Model)
		require.Len(t, reqBody.Tools, 1)
		assert.Equal(t, "get_flight_information", reqBody.Tools[0].Function.Name)
		assert.Nil(t, reqBody.Temperature)

		writeJSON(t, w, http.StatusOK, inference.ChatCompletion{
			ID: "chatcmpl-tools",
			Choices: []inference.Choice{
				{
					Message: &inference.ChoiceMessage{
						Role: inference.RoleAssistant,
						ToolCalls: []inference.ToolCall{
							{
								ID:   "call_1",
								Type: "function",
								Function: inference.ToolFunction{
									Name:      "get_flight_information",
									Arguments: `{"flight_number":"BA123"}`,
								},
							},
						},
					},
					FinishReason: "tool_calls",
				},
			},
		})
	}, ClientOptions{})

	got, err := client.CreateChatCompletion(context.Background(), inference.ChatCompletionRequest{
		Messages: []inference.Message{{Role: inference.RoleUser, Content: "Where is BA123?"}},
		Tools: []inference.Tool{
			{Type: "function", Function: inference.FunctionDefinition{Name: "get_flight_information"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Choices, 1)
	require.NotNil(t, got.Choices[0].Message)
	assert.Equal(t, []inference.ToolCall{
		{
			ID:       "call_1",
			Type:     "function",
			Function: inference.ToolFunction{Name: "get_flight_information", Arguments: `{"flight_number":"BA123"}`},
		},
	}, got.Choices[0].Message.ToolCalls)
}

func TestClient_Embed(t *testing.T) {
	tests := []struct {
		name              string
		options           ClientOptions
		mockServerHandler func(t *testing.T, w http.ResponseWriter, r *http.Request)
		want              []float64
		wantErrorString   string
	}{
		{
			name:    "openai",
			options: ClientOptions{EmbeddingModel: "text-embedding-3-large"},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/embeddings", r.URL.Path)
				var reqBody EmbeddingRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, EmbeddingRequest{Model: "text-embedding-3-large", Input: "hello", EncodingFormat: "float"}, reqBody)

				writeJSON(t, w, http.StatusOK, EmbeddingResponse{
					Object: "list",
					Data:   []EmbeddingData{{Object: "embedding", Embedding: []float64{0.1, 0.2, 0.3}}},
					Model:  "text-embedding-3-large",
				})
			},
			want: []float64{0.1, 0.2, 0.3},
		},
		{
			name: "azure uses the embeddings deployment",
			options: ClientOptions{Azure: &AzureOptions{
				APIKey:                   "azure-key",
				APIVersion:               "2024-02-01",
				EmbeddingsDeploymentName: "embeddings-deployment",
			}},
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/deployments/embeddings-deployment/embeddings", r.URL.Path)
				assert.Equal(t, "2024-02-01", r.URL.Query().Get("api-version"))
				writeJSON(t, w, http.StatusOK, EmbeddingResponse{
					Data: []EmbeddingData{{Embedding: []float64{1}}},
				})
			},
			want: []float64{1},
		},
		{
			name: "empty data",
			mockServerHandler: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusOK, EmbeddingResponse{Object: "list"})
			},
			wantErrorString: "empty embedding response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				tt.mockServerHandler(t, w, r)
			}, tt.options)

			got, err := client.Embed(context.Background(), "hello")
			if tt.wantErrorString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_PollRun(t *testing.T) {
	tests := []struct {
		name            string
		statuses        []inference.RunStatus
		maxPollCount    uint
		wantStatus      inference.RunStatus
		wantCalls       int32
		wantErrorString string
	}{
		{
			name:       "returns once the run requires action",
			statuses:   []inference.RunStatus{inference.RunStatusQueued, inference.RunStatusInProgress, inference.RunStatusRequiresAction},
			wantStatus: inference.RunStatusRequiresAction,
			wantCalls:  3,
		},
		{
			name:       "returns terminal states as they are",
			statuses:   []inference.RunStatus{inference.RunStatusFailed},
			wantStatus: inference.RunStatusFailed,
			wantCalls:  1,
		},
		{
			name:            "gives up after the poll count",
			statuses:        []inference.RunStatus{inference.RunStatusInProgress},
			maxPollCount:    2,
			wantCalls:       2,
			wantErrorString: "run run_abc is still in_progress after 2 polls",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/threads/thread_abc/runs/run_abc", r.URL.Path)
				assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))

				status := tt.statuses[len(tt.statuses)-1]
				if int(n) <= len(tt.statuses) {
					status = tt.statuses[n-1]
				}
				writeJSON(t, w, http.StatusOK, inference.Run{
					ID:       "run_abc",
					Object:   "thread.run",
					ThreadID: "thread_abc",
					Status:   status,
				})
			}, ClientOptions{PollInterval: time.Millisecond, MaxPollCount: tt.maxPollCount})

			got, err := client.PollRun(context.Background(), "thread_abc", "run_abc")
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErrorString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestClient_PollRun_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]any{"error": map[string]string{"message": "No run found"}})
	}, ClientOptions{PollInterval: time.Millisecond})

	_, err := client.PollRun(context.Background(), "thread_abc", "run_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response error 404")
}

func TestNewClientFromConfig(t *testing.T) {
	cfg := &config.Config{
		OpenAI: config.OpenAIConfig{
			APIKey:         "sk-test",
			Model:          "gpt-4o",
			EmbeddingModel: "text-embedding-3-large",
		},
		Assistants: config.AssistantsConfig{PollIntervalMs: 250, MaxPollCount: 5},
	}

	client := NewClientFromConfig(cfg)
	defer func() {
		_ = client.Close()
	}()
	assert.Equal(t, "gpt-4o", client.model)
	assert.Equal(t, "text-embedding-3-large", client.EmbeddingModel())
	assert.Equal(t, 250*time.Millisecond, client.pollInterval)
	assert.Equal(t, uint(5), client.maxPollCount)
	assert.Nil(t, client.azure)

	cfg.Azure = config.AzureConfig{APIKey: "azure-key", APIVersion: "2024-02-01", InstanceName: "my-instance"}
	azureClient := NewClientFromConfig(cfg)
	defer func() {
		_ = azureClient.Close()
	}()
	require.NotNil(t, azureClient.azure)
	assert.Equal(t, "my-instance", azureClient.azure.InstanceName)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "unrelated error", err: assert.AnError, want: false},
		{name: "503", err: errorString("response error 503: overloaded"), want: true},
		{name: "429", err: errorString("response error 429: slow down"), want: true},
		{name: "400", err: errorString("response error 400: bad request"), want: false},
		{name: "timeout", err: errorString("dial tcp: i/o timeout"), want: true},
		{name: "truncated json", err: errorString("unexpected end of JSON input"), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

type errorString string

func (e errorString) Error() string {
	return string(e)
}
