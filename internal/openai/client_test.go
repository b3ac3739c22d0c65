package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oukeidos/tlqc/internal/llm"
)

func TestClient_Send_Errors(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		responseBody   string
		expectedErrMsg string
		sensitiveMark  string
	}{
		{
			name:           "429 Too Many Requests",
			status:         http.StatusTooManyRequests,
			responseBody:   `{"error": {"message": "Rate limit reached: SECRET_SOURCE_LINE", "type": "rate_limit_error", "code": "rate_limit_exceeded"}}`,
			expectedErrMsg: "OpenAI API rate limit exceeded (429)",
			sensitiveMark:  "SECRET_SOURCE_LINE",
		},
		{
			name:           "401 Unauthorized",
			status:         http.StatusUnauthorized,
			responseBody:   `{"error": {"message": "Invalid API Key: SECRET_SOURCE_LINE", "type": "auth_error"}}`,
			expectedErrMsg: "OpenAI API authentication/authorization failed (401)",
			sensitiveMark:  "SECRET_SOURCE_LINE",
		},
		{
			name:           "500 Internal Server Error",
			status:         http.StatusInternalServerError,
			responseBody:   "server down SECRET_SOURCE_LINE",
			expectedErrMsg: "OpenAI server error (500)",
			sensitiveMark:  "SECRET_SOURCE_LINE",
		},
		{
			name:           "403 Forbidden",
			status:         http.StatusForbidden,
			responseBody:   "restricted SECRET_SOURCE_LINE",
			expectedErrMsg: "OpenAI API authentication/authorization failed (403)",
			sensitiveMark:  "SECRET_SOURCE_LINE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.responseBody)
			}))
			defer server.Close()

			client := NewClient("test-key", server.URL)

			reply, err := client.Send(context.Background(), nil, llm.Params{Model: "test-model"})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !reply.Skip {
				t.Error("Expected skip reply on transport failure")
			}

			if !strings.Contains(err.Error(), tt.expectedErrMsg) {
				t.Errorf("Expected error message to contain %q, got %q", tt.expectedErrMsg, err.Error())
			}
			if tt.sensitiveMark != "" && strings.Contains(err.Error(), tt.sensitiveMark) {
				t.Errorf("Expected error message to redact sensitive content, got %q", err.Error())
			}
		})
	}
}

func TestClient_Send_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"choices": [{"message": {"content": "{\"lines\": [\"hello\"]}", "reasoning_content": "thinking"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7}
		}`)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	reply, err := client.Send(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}, llm.Params{Model: "test-model"})
	if err != nil {
		t.Fatalf("Send fail: %v", err)
	}
	if reply.Skip {
		t.Error("unexpected skip")
	}
	if reply.Reasoning != "thinking" {
		t.Errorf("Reasoning = %q", reply.Reasoning)
	}
	if reply.InputTokens != 12 || reply.OutputTokens != 7 {
		t.Errorf("token counts = %d/%d", reply.InputTokens, reply.OutputTokens)
	}
}
