package llm

import (
	"context"
	"log"
	"net/http"

	"aichat/internal/config"
)

// Dispatcher generates a completion with the provider the requested model
// routes to, falling back once to the other provider when the first attempt
// fails. There are no retries within a provider.
type Dispatcher struct {
	gemini   GeminiClient
	deepseek DeepSeekClient
}

func NewDispatcher(cfg config.Config, httpClient *http.Client) Dispatcher {
	return Dispatcher{
		gemini:   NewGeminiClient(cfg, httpClient),
		deepseek: NewDeepSeekClient(cfg, httpClient),
	}
}

func (d Dispatcher) client(provider Provider) completer {
	if provider == ProviderDeepSeek {
		return d.deepseek
	}
	return d.gemini
}

// fallbackModel is the identifier attached to a response the named provider
// produced as the fallback, where the requested model no longer applies.
func fallbackModel(provider Provider) string {
	if provider == ProviderDeepSeek {
		return DeepSeekModelID
	}
	return GeminiModelID
}

func (d Dispatcher) Dispatch(ctx context.Context, model, prompt string) (Completion, error) {
	primary := RouteModel(model)

	content, err := d.client(primary).Complete(ctx, prompt)
	if err == nil {
		return Completion{Content: content, Model: model}, nil
	}
	log.Printf("provider %s failed: model=%s err=%v", primary, model, err)

	secondary := ProviderGemini
	if primary == ProviderGemini {
		secondary = ProviderDeepSeek
	}
	if !d.client(secondary).Configured() {
		return Completion{}, ErrAllProvidersUnavailable
	}

	content, err = d.client(secondary).Complete(ctx, prompt)
	if err != nil {
		log.Printf("fallback provider %s failed: err=%v", secondary, err)
		return Completion{}, ErrAllProvidersUnavailable
	}

	return Completion{Content: content, Model: fallbackModel(secondary)}, nil
}
