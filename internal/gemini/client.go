// Package gemini implements the llm.Requester contract on top of the
// Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/oukeidos/tlqc/internal/httpclient"
	"github.com/oukeidos/tlqc/internal/llm"
)

// Client handles communication with the Gemini API.
type Client struct {
	client *genai.Client
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	// option.WithHTTPClient interferes with the genai library's internal
	// header injection for API keys, so timeouts are enforced via
	// context in Send instead.
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// Close closes the underlying genai client.
func (c *Client) Close() error {
	return c.client.Close()
}

var _ llm.Requester = (*Client)(nil)

// Send submits the prompt messages with the attempt's sampling
// parameters and returns the model's raw text reply.
func (c *Client) Send(ctx context.Context, messages []llm.Message, params llm.Params) (llm.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, httpclient.DefaultTimeout)
	defer cancel()

	model := c.client.GenerativeModel(params.Model)
	model.ResponseMIMEType = "application/json"
	temp := float32(params.Temperature)
	model.SetTemperature(temp)
	if params.TopP > 0 {
		model.SetTopP(float32(params.TopP))
	}
	if params.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(params.MaxOutputTokens))
	}

	system, user := splitMessages(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return llm.Reply{Skip: true}, classifyGeminiError(err)
	}

	text, err := extractResponseText(resp)
	if err != nil {
		return llm.Reply{Skip: true}, err
	}

	reply := llm.Reply{Result: text}
	if resp.UsageMetadata != nil {
		reply.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		reply.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return reply, nil
}

// splitMessages separates system messages from the user prompt. Gemini
// takes the system prompt out of band.
func splitMessages(messages []llm.Message) (system, user string) {
	var sys, usr []string
	for _, m := range messages {
		if m.Role == "system" {
			sys = append(sys, m.Content)
			continue
		}
		usr = append(usr, m.Content)
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}

func extractResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("no response received from Gemini")
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var combined string
		for _, part := range candidate.Content.Parts {
			text, ok := part.(genai.Text)
			if !ok {
				continue
			}
			combined += string(text)
		}
		if combined != "" {
			return combined, nil
		}
	}
	return "", fmt.Errorf("no text parts found in Gemini response")
}
