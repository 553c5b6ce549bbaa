package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const perplexitySystem = "You are a cybersecurity expert specializing in LLM security. Provide structured, factual information about prompt injection exploits."

// DefaultExploitQuery is asked when the caller supplies no query text.
const DefaultExploitQuery = "Find recent prompt injection exploits, jailbreak techniques, and LLM security vulnerabilities. " +
	"Include the technique name, description, type (jailbreak/injection/bypass), and severity level. " +
	"Focus on well-documented exploits."

// PerplexityClient calls the Perplexity chat-completion endpoint.
type PerplexityClient struct {
	BaseURL string
	APIKey  string
	Model   string

	HTTPClient *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Search asks for known exploits and returns the raw answer text. A missing
// credential fails before any network I/O; a non-200 status is fatal for the
// run and surfaces as *RemoteError.
func (c *PerplexityClient) Search(ctx context.Context, query string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("perplexity: %w", ErrMissingCredential)
	}
	if query == "" {
		query = DefaultExploitQuery
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: perplexitySystem},
			{Role: "user", Content: query},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("search exploits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &RemoteError{Service: "perplexity", Status: resp.StatusCode}
	}

	var payload chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Choices) == 0 {
		return "", nil
	}
	return payload.Choices[0].Message.Content, nil
}

func (c *PerplexityClient) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return httpClient
}
