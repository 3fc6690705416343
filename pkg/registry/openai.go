package registry

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// ProviderOpenAI is the LLM provider value backed by the OpenAI catalog.
const ProviderOpenAI = "openai"

// ModelLister lists the models visible to an API key.
// *openai.Client satisfies it.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// NewOpenAIClient returns a catalog client for key. baseURL may be empty.
func NewOpenAIClient(key, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// RefreshOpenAI drops OpenAI model choices the key cannot use. The
// registry is left untouched on error, and a filter that would leave the
// provider with no models is not applied. It returns the number of models
// removed.
func (r *Registry) RefreshOpenAI(ctx context.Context, lister ModelLister) (int, error) {
	list, err := lister.ListModels(ctx)
	if err != nil {
		return 0, fmt.Errorf("registry: list openai models: %w", err)
	}

	available := make(map[string]struct{}, len(list.Models))
	for _, m := range list.Models {
		available[m.ID] = struct{}{}
	}

	removed := 0
	for i, choice := range r.LLMModelChoices {
		if choice.Value != ProviderOpenAI {
			continue
		}
		var kept []Model
		for _, m := range choice.Models {
			if _, ok := available[m.Value]; ok {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			continue
		}
		removed += len(choice.Models) - len(kept)
		r.LLMModelChoices[i].Models = kept
	}
	return removed, nil
}
