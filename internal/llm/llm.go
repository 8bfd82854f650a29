package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBodyBytes = 8 * 1024

var (
	ErrMissingAPIKey = errors.New("api key is not configured")

	// ErrAllProvidersUnavailable is returned when the selected provider and
	// its single fallback have both failed (or were never configured).
	ErrAllProvidersUnavailable = errors.New("both AI models are unavailable, please try again later")
)

// Provider identifies an upstream text-generation service. Routing works on
// this enumeration rather than on model-name strings so a misrouted
// identifier fails loudly instead of silently.
type Provider int

const (
	ProviderGemini Provider = iota
	ProviderDeepSeek
)

func (p Provider) String() string {
	switch p {
	case ProviderGemini:
		return "gemini"
	case ProviderDeepSeek:
		return "deepseek"
	default:
		return "unknown"
	}
}

// RouteModel maps a requested model identifier to the provider serving it.
// Identifiers under the deepseek/ namespace go to OpenRouter; everything else
// goes to Gemini.
func RouteModel(model string) Provider {
	if strings.HasPrefix(strings.TrimSpace(model), "deepseek/") {
		return ProviderDeepSeek
	}
	return ProviderGemini
}

// Completion carries the generated text plus the identifier of the model that
// actually produced it, which differs from the requested one after a
// fallback.
type Completion struct {
	Content string
	Model   string
}

type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// upstreamError renders a provider failure: the parsed error-envelope message
// when the body carried one, else the raw HTTP status text.
func upstreamError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && strings.TrimSpace(envelope.Error.Message) != "" {
		return fmt.Errorf("%s api error: %s", provider, strings.TrimSpace(envelope.Error.Message))
	}

	return fmt.Errorf("%s api error: %d %s", provider, resp.StatusCode, http.StatusText(resp.StatusCode))
}
