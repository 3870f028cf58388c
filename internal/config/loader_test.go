package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/internal/config"
)

func TestValidate_UnknownProviderNameWarnsOnly(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: some-custom-provider
  stt:
    name: deepgram
database:
  postgres_dsn: "postgres://localhost/test"
`
	// An unrecognised provider name is logged as a warning, not a validation
	// error — it may be a third-party provider registered by the caller.
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
}

func TestValidate_VectorStoreWithoutEmbeddingsIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
  stt:
    name: deepgram
  vector_store:
    name: pgvector
database:
  postgres_dsn: "postgres://localhost/test"
`
	// vector_store without embeddings configured only produces a warning: the
	// embedding side-channel stays disabled, but the config is still valid.
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
}

func TestValidate_ZeroSummarizationIntervalIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: openai
  stt:
    name: deepgram
database:
  postgres_dsn: "postgres://localhost/test"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
	assert.Equal(t, int64(0), int64(cfg.Orchestrator.SummarizationInterval))
}

func TestValidate_MinimalValidConfig(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  llm:
    name: anthropic
  stt:
    name: whisper
database:
  postgres_dsn: "postgres://localhost/test"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	require.NoError(t, err)
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	require.NotEmpty(t, config.ValidProviderNames)

	llmNames := config.ValidProviderNames["llm"]
	assert.Contains(t, llmNames, "openai")
	assert.Contains(t, llmNames, "anthropic")

	sttNames := config.ValidProviderNames["stt"]
	assert.Contains(t, sttNames, "deepgram")
	assert.Contains(t, sttNames, "whisper")

	embeddingsNames := config.ValidProviderNames["embeddings"]
	assert.Contains(t, embeddingsNames, "openai")
	assert.Contains(t, embeddingsNames, "ollama")

	vectorStoreNames := config.ValidProviderNames["vector_store"]
	assert.Contains(t, vectorStoreNames, "pgvector")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}
