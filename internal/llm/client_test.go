package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type chatRequestBody struct {
	Model          string           `json:"model"`
	Messages       []map[string]any `json:"messages"`
	Temperature    float64          `json:"temperature"`
	MaxTokens      int              `json:"max_tokens"`
	ResponseFormat map[string]any   `json:"response_format"`
}

func chatCompletionJSON(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
	}
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		APIKey:     "test-key",
		BaseURL:    url + "/v1/",
		Model:      "test-model",
		MaxRetries: 0,
	})
}

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name       string
		req        CompletionRequest
		serverResp func(t *testing.T) http.HandlerFunc
		wantReply  string
		wantErr    error
	}{
		{
			name: "successful completion",
			req:  CompletionRequest{SystemPrompt: "be brief", UserPrompt: "Hello", Temperature: 0.3, MaxTokens: 100},
			serverResp: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					if r.URL.Path != "/v1/chat/completions" {
						t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
					}
					if !strings.Contains(r.Header.Get("Authorization"), "Bearer test-key") {
						t.Error("missing Authorization header")
					}
					var body chatRequestBody
					_ = json.NewDecoder(r.Body).Decode(&body)
					if len(body.Messages) != 2 || body.Messages[0]["role"] != "system" {
						t.Errorf("expected system + user messages, got %v", body.Messages)
					}
					if body.Temperature != 0.3 || body.MaxTokens != 100 {
						t.Errorf("unexpected sampling params: %+v", body)
					}
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(chatCompletionJSON("Hi there"))
				}
			},
			wantReply: "Hi there",
		},
		{
			name: "no choices",
			req:  CompletionRequest{UserPrompt: "Hello"},
			serverResp: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					resp := chatCompletionJSON("")
					resp["choices"] = []any{}
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(resp)
				}
			},
			wantErr: ErrCompletionFailed,
		},
		{
			name: "server error",
			req:  CompletionRequest{UserPrompt: "Hello"},
			serverResp: func(t *testing.T) http.HandlerFunc {
				return func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
				}
			},
			wantErr: ErrCompletionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.serverResp(t))
			defer server.Close()

			reply, err := newTestClient(server.URL).Complete(context.Background(), tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Complete() unexpected error: %v", err)
			}
			if reply != tt.wantReply {
				t.Errorf("Complete() = %q, want %q", reply, tt.wantReply)
			}
		})
	}
}

type greeting struct {
	Message string `json:"message" validate:"required"`
}

func TestClient_CompleteJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		want    string
	}{
		{"valid", `{"message":"hi"}`, false, "hi"},
		{"fenced", "```json\n{\"message\":\"hi\"}\n```", false, "hi"},
		{"unknown field", `{"message":"hi","extra":1}`, true, ""},
		{"missing required", `{}`, true, ""},
		{"not json", `sorry, I cannot help`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body chatRequestBody
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body.ResponseFormat["type"] != "json_schema" {
					t.Errorf("expected json_schema response format, got %v", body.ResponseFormat)
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(chatCompletionJSON(tt.content))
			}))
			defer server.Close()

			var out greeting
			err := newTestClient(server.URL).CompleteJSON(context.Background(), CompletionRequest{UserPrompt: "greet"}, "greeting", &out)
			if tt.wantErr {
				if !errors.Is(err, ErrLLMParseFailed) {
					t.Errorf("CompleteJSON() error = %v, want ErrLLMParseFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CompleteJSON() unexpected error: %v", err)
			}
			if out.Message != tt.want {
				t.Errorf("CompleteJSON() message = %q, want %q", out.Message, tt.want)
			}
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"plain", `{"message":"ok"}`, false},
		{"repairable trailing comma", `{"message":"ok",}`, false},
		{"empty", "   ", true},
		{"trailing value", `{"message":"ok"} {"message":"again"}`, true},
		{"wrong type", `{"message":5}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out greeting
			err := DecodeStrict(tt.raw, &out)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrLLMParseFailed) {
				t.Errorf("DecodeStrict() error should wrap ErrLLMParseFailed, got %v", err)
			}
		})
	}
}
