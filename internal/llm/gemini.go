package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"aichat/internal/config"
)

// GeminiModelID is the identifier reported when Gemini answers a request,
// including requests it served as the fallback provider.
const GeminiModelID = "gemini-2.0-flash-exp"

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(cfg config.Config, httpClient *http.Client) GeminiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return GeminiClient{
		apiKey:     strings.TrimSpace(cfg.GeminiAPIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.GeminiBaseURL), "/"),
		httpClient: httpClient,
	}
}

func (c GeminiClient) Configured() bool {
	return c.apiKey != ""
}

func (c GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}

	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, GeminiModelID, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", upstreamError("gemini", resp)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	// A 200 without the expected fields counts as a failure so the
	// dispatcher can still fall back.
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 || parsed.Candidates[0].Content.Parts[0].Text == "" {
		return "", errors.New("invalid gemini response format")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
