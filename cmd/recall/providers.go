package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/recallhq/recall/internal/config"
	"github.com/recallhq/recall/pkg/provider/embeddings"
	embeddingsollama "github.com/recallhq/recall/pkg/provider/embeddings/ollama"
	embeddingsopenai "github.com/recallhq/recall/pkg/provider/embeddings/openai"
	"github.com/recallhq/recall/pkg/provider/llm"
	"github.com/recallhq/recall/pkg/provider/llm/anyllm"
	llmopenai "github.com/recallhq/recall/pkg/provider/llm/openai"
	"github.com/recallhq/recall/pkg/provider/stt"
	"github.com/recallhq/recall/pkg/provider/stt/deepgram"
	"github.com/recallhq/recall/pkg/provider/stt/whisper"
	"github.com/recallhq/recall/pkg/provider/vectorstore"
	"github.com/recallhq/recall/pkg/provider/vectorstore/pgvector"
)

// anyllmBackedProviders lists LLM provider names routed through the
// mozilla-ai/any-llm-go universal adapter rather than a direct SDK.
var anyllmBackedProviders = []string{"anthropic", "ollama", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}

// registerBuiltinProviders wires every provider implementation shipped with
// Recall into reg. "openai" is registered against the direct openai-go SDK
// backend; every other LLM name in [config.ValidProviderNames] is routed
// through the any-llm-go universal adapter.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		opts := []llmopenai.Option{}
		if e.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(e.BaseURL))
		}
		return llmopenai.New(e.APIKey, e.Model, opts...)
	})

	for _, name := range anyllmBackedProviders {
		name := name
		reg.RegisterLLM(name, func(e config.ProviderEntry) (llm.Provider, error) {
			opts := []anyllmlib.Option{}
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			return anyllm.New(name, e.Model, opts...)
		})
	}

	reg.RegisterSTT("deepgram", func(e config.ProviderEntry) (stt.Provider, error) {
		opts := []deepgram.Option{}
		if e.Model != "" {
			opts = append(opts, deepgram.WithModel(e.Model))
		}
		return deepgram.New(e.APIKey, opts...)
	})
	reg.RegisterSTT("whisper", func(e config.ProviderEntry) (stt.Provider, error) {
		modelPath, _ := e.Options["model_path"].(string)
		if modelPath == "" {
			return nil, fmt.Errorf("whisper: providers.stt.options.model_path is required")
		}
		return whisper.New(modelPath)
	})

	reg.RegisterEmbeddings("openai", func(e config.ProviderEntry) (embeddings.Provider, error) {
		opts := []embeddingsopenai.Option{}
		if e.BaseURL != "" {
			opts = append(opts, embeddingsopenai.WithBaseURL(e.BaseURL))
		}
		return embeddingsopenai.New(e.APIKey, e.Model, opts...)
	})
	reg.RegisterEmbeddings("ollama", func(e config.ProviderEntry) (embeddings.Provider, error) {
		baseURL := e.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return embeddingsollama.New(baseURL, e.Model)
	})

	reg.RegisterVectorStore("pgvector", func(e config.ProviderEntry, dims int) (vectorstore.Store, error) {
		return pgvector.New(context.Background(), e.BaseURL, dims)
	})
}

// builtProviders bundles every optional collaborator the orchestrator needs.
// LLM and STT are required by [config.Validate]; Embeddings and VectorStore
// may be nil, in which case the embedding side-channel stays disabled.
type builtProviders struct {
	LLM         llm.Provider
	STT         stt.Provider
	Embeddings  embeddings.Provider
	VectorStore vectorstore.Store
}

// buildProviders instantiates every provider named in cfg using reg.
func buildProviders(cfg *config.Config, reg *config.Registry) (*builtProviders, error) {
	ps := &builtProviders{}

	p, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	ps.LLM = p
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name)

	s, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		return nil, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	ps.STT = s
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	if name := cfg.Providers.Embeddings.Name; name != "" {
		e, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("embeddings provider not registered — embedding side-channel disabled", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		} else {
			ps.Embeddings = e
			slog.Info("provider created", "kind", "embeddings", "name", name)
		}
	}

	if name := cfg.Providers.VectorStore.Name; name != "" && ps.Embeddings != nil {
		dims := cfg.Database.EmbeddingDimensions
		if dims <= 0 {
			dims = ps.Embeddings.Dimensions()
		}
		// pgvector has no dedicated DSN field on ProviderEntry; BaseURL
		// doubles as the connection string unless explicitly overridden.
		entry := cfg.Providers.VectorStore
		if entry.BaseURL == "" {
			entry.BaseURL = cfg.Database.PostgresDSN
		}
		vs, err := reg.CreateVectorStore(entry, dims)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("vector store provider not registered — embedding side-channel disabled", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create vector store provider %q: %w", name, err)
		} else {
			ps.VectorStore = vs
			slog.Info("provider created", "kind", "vector_store", "name", name)
		}
	}

	return ps, nil
}
