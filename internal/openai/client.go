// Package openai implements the llm.Requester contract for
// OpenAI-compatible chat completion endpoints, which covers most local
// and hosted model servers.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/oukeidos/tlqc/internal/apperrors"
	"github.com/oukeidos/tlqc/internal/httpclient"
	"github.com/oukeidos/tlqc/internal/llm"
)

type requestBody struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type responseBody struct {
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Message struct {
		Content          string `json:"content"`
		ReasoningContent string `json:"reasoning_content,omitempty"`
	} `json:"message"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type errorEnvelope struct {
	Error errorDetails `json:"error"`
}

type errorDetails struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"`
}

func (e errorDetails) codeString() string {
	if e.Code == nil {
		return ""
	}
	return fmt.Sprint(e.Code)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
}

// NewClient creates a Client. baseURL may be empty for the hosted API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

var _ llm.Requester = (*Client)(nil)

// Send submits the prompt messages and returns the model's raw reply,
// including any reasoning content the server exposes.
func (c *Client) Send(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Reply, error) {
	body := requestBody{
		Model:       params.Model,
		Messages:    messages,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   params.MaxOutputTokens,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return llm.Reply{Skip: true}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return llm.Reply{Skip: true}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	client := httpclient.GetDefaultClient()
	respData, resp, err := httpclient.DoAndRead(client, httpReq)
	if err != nil {
		return llm.Reply{Skip: true}, apperrors.New(
			apperrors.KindTransient,
			"Model request failed due to a temporary network/runtime error.",
			fmt.Errorf("request failed: %w", err),
		)
	}

	if resp.StatusCode != http.StatusOK {
		return llm.Reply{Skip: true}, classifyError(resp.StatusCode, resp.Status, parseErrorDetails(respData))
	}

	var result responseBody
	if err := json.Unmarshal(respData, &result); err != nil {
		return llm.Reply{Skip: true}, apperrors.New(
			apperrors.KindValidation,
			"Model response format was invalid.",
			fmt.Errorf("failed to decode response: %w", err),
		)
	}
	if len(result.Choices) == 0 {
		return llm.Reply{Skip: true}, apperrors.Validation(fmt.Errorf("response contained no choices"))
	}

	return llm.Reply{
		Reasoning:    result.Choices[0].Message.ReasoningContent,
		Result:       result.Choices[0].Message.Content,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
	}, nil
}

func parseErrorDetails(body []byte) errorDetails {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return errorDetails{}
	}
	return envelope.Error
}

func classifyError(statusCode int, status string, details errorDetails) error {
	cause := fmt.Errorf("openai status=%s type=%s code=%s", status, details.Type, details.codeString())

	switch statusCode {
	case http.StatusTooManyRequests:
		return apperrors.New(
			apperrors.KindRateLimit,
			"OpenAI API rate limit exceeded (429): please try again later.",
			cause,
		)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.New(
			apperrors.KindAuth,
			fmt.Sprintf("OpenAI API authentication/authorization failed (%d): please verify your API key and permissions.", statusCode),
			cause,
		)
	case http.StatusNotFound:
		return apperrors.New(
			apperrors.KindBadRequest,
			"The model does not exist or you do not have access to it.",
			cause,
		)
	default:
		if statusCode >= 500 {
			return apperrors.New(
				apperrors.KindTransient,
				fmt.Sprintf("OpenAI server error (%d): please try again later.", statusCode),
				cause,
			)
		}
		return apperrors.New(
			apperrors.KindBadRequest,
			fmt.Sprintf("OpenAI API error (%d): %s", statusCode, status),
			cause,
		)
	}
}
