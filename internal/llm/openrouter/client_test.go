package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ctxchat/internal/llm"
)

func TestClient_Complete(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		response   interface{}
		statusCode int
		wantErr    error
	}{
		{
			name: "successful completion",
			response: llm.ChatResponse{
				Choices: []llm.Choice{
					{Message: llm.Message{Role: "assistant", Content: "Test response"}},
				},
			},
			statusCode: http.StatusOK,
			wantErr:    nil,
		},
		{
			name:       "unauthorized",
			response:   map[string]string{"error": "unauthorized"},
			statusCode: http.StatusUnauthorized,
			wantErr:    llm.ErrAuthFailed,
		},
		{
			name:       "rate limit",
			response:   map[string]string{"error": "rate limit"},
			statusCode: http.StatusTooManyRequests,
			wantErr:    llm.ErrRateLimit,
		},
		{
			name:       "server error",
			response:   map[string]string{"error": "boom"},
			statusCode: http.StatusInternalServerError,
			wantErr:    llm.ErrRequestFailed,
		},
		{
			name: "error in body",
			response: map[string]any{
				"error": map[string]any{"message": "model not found", "code": 404},
			},
			statusCode: http.StatusOK,
			wantErr:    llm.ErrRequestFailed,
		},
		{
			name: "empty response",
			response: llm.ChatResponse{
				Choices: []llm.Choice{},
			},
			statusCode: http.StatusOK,
			wantErr:    llm.ErrEmptyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Error("missing authorization header")
				}
				if r.URL.Path != "/chat/completions" {
					t.Errorf("path = %s, want /chat/completions", r.URL.Path)
				}

				w.WriteHeader(tt.statusCode)
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			client := New(Config{
				APIKey:  "test-key",
				BaseURL: server.URL,
				Timeout: 5 * time.Second,
			}, logger)

			result, err := client.Complete(context.Background(), []llm.Message{
				{Role: "system", Content: "system"},
				{Role: "user", Content: "prompt"},
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Complete() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("Complete() unexpected error = %v", err)
				return
			}

			if result != "Test response" {
				t.Errorf("Complete() = %q, want %q", result, "Test response")
			}
		})
	}
}

func TestClient_SendsWholeConversation(t *testing.T) {
	var got llm.ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(llm.ChatResponse{
			Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer server.Close()

	client := New(Config{APIKey: "k", Model: "test-model", BaseURL: server.URL + "/"}, zap.NewNop())

	messages := []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "привет"},
	}
	if _, err := client.Complete(context.Background(), messages); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if got.Model != "test-model" {
		t.Errorf("model = %q, want test-model", got.Model)
	}
	if got.Stream {
		t.Error("stream = true, want false")
	}
	if len(got.Messages) != len(messages) {
		t.Fatalf("messages = %d, want %d", len(got.Messages), len(messages))
	}
	for i := range messages {
		if got.Messages[i] != messages[i] {
			t.Errorf("message[%d] = %+v, want %+v", i, got.Messages[i], messages[i])
		}
	}
}
