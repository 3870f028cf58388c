// Package embed implements the embedding side-channel: vectorizing a
// minute summary and upserting it into the vector store under the recording
// pipeline's load-bearing document ID.
package embed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recallhq/recall/internal/recording"
	"github.com/recallhq/recall/pkg/provider/embeddings"
	"github.com/recallhq/recall/pkg/provider/vectorstore"
)

// Channel embeds minute summaries and upserts them into a vector store.
// Every method is intended to be called through a best-effort wrapper by
// its caller (see internal/orchestrator.bestEffort); Channel itself always
// returns the underlying error rather than swallowing it, so callers that
// need the raw failure (e.g. tests) can still observe it.
type Channel struct {
	embedder embeddings.Provider
	store    vectorstore.Store

	// Now returns the current time, overridable in tests. Defaults to
	// time.Now.
	Now func() time.Time
}

// New returns a Channel backed by embedder and store.
func New(embedder embeddings.Provider, store vectorstore.Store) *Channel {
	return &Channel{embedder: embedder, store: store, Now: time.Now}
}

// EmbedSummary embeds text and upserts it into the vector store under
// [recording.VectorDocumentID](recordingID, minuteIndex), with metadata
// {recording_id, minute_index, date, keywords}.
func (c *Channel) EmbedSummary(ctx context.Context, recordingID int64, minuteIndex int, text string, keywords []string) error {
	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed: embed summary: %w", err)
	}

	id := recording.VectorDocumentID(recordingID, minuteIndex)
	metadata := map[string]any{
		"recording_id": recordingID,
		"minute_index": minuteIndex,
		"date":         c.Now().UTC().Format(time.RFC3339),
		"keywords":     strings.Join(keywords, ","),
	}
	if err := c.store.Upsert(ctx, id, text, vector, metadata); err != nil {
		return fmt.Errorf("embed: upsert summary %s: %w", id, err)
	}
	return nil
}
