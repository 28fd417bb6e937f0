package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// FailoverEmbedder tries each provider in order until one succeeds.
type FailoverEmbedder struct {
	providers []NamedEmbedProvider
	log       *slog.Logger
}

func (f *FailoverEmbedder) Embed(ctx context.Context, req EmbedRequest) ([][]float32, ProviderInfo, error) {
	var errs []error
	for _, p := range f.providers {
		vecs, info, err := p.Provider.Embed(ctx, req)
		if err == nil {
			return vecs, info, nil
		}
		if ctx.Err() != nil {
			return nil, info, ctx.Err()
		}
		f.log.Warn("embedding provider failed", "provider", p.Ref.Raw, "class", ClassifyError(err), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Ref.Raw, err))
	}
	return nil, ProviderInfo{}, Classified(errors.Join(errs...))
}

// FailoverLLM tries each provider in order until one succeeds.
type FailoverLLM struct {
	providers []NamedLLMProvider
	log       *slog.Logger
}

func (f *FailoverLLM) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var errs []error
	for _, p := range f.providers {
		resp, info, err := p.Provider.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		if ctx.Err() != nil {
			return GenerateResponse{}, info, ctx.Err()
		}
		f.log.Warn("llm provider failed", "provider", p.Ref.Raw, "class", ClassifyError(err), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Ref.Raw, err))
	}
	return GenerateResponse{}, ProviderInfo{}, Classified(errors.Join(errs...))
}
