package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"aichat/internal/config"
)

// DeepSeekModelID is the concrete model requested from OpenRouter; the
// deepseek/ aliases the client may ask for all resolve to it.
const DeepSeekModelID = "deepseek/deepseek-chat"

type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// DeepSeekClient talks to DeepSeek through the OpenRouter completions API.
type DeepSeekClient struct {
	apiKey     string
	baseURL    string
	referer    string
	httpClient *http.Client
}

func NewDeepSeekClient(cfg config.Config, httpClient *http.Client) DeepSeekClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return DeepSeekClient{
		apiKey:     strings.TrimSpace(cfg.OpenRouterAPIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.OpenRouterBaseURL), "/"),
		referer:    strings.TrimSpace(cfg.FrontendOrigin),
		httpClient: httpClient,
	}
}

func (c DeepSeekClient) Configured() bool {
	return c.apiKey != ""
}

func (c DeepSeekClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}

	payload, err := json.Marshal(deepSeekRequest{
		Model:       DeepSeekModelID,
		Messages:    []deepSeekMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", fmt.Errorf("marshal deepseek request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build deepseek request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
		httpReq.Header.Set("X-Title", "AI Chatbot")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request deepseek: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", upstreamError("deepseek", resp)
	}

	var parsed deepSeekResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode deepseek response: %w", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("invalid deepseek response format")
	}

	return parsed.Choices[0].Message.Content, nil
}
