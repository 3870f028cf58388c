package orchestrator

import "log/slog"

// bestEffort runs fn and, if it fails, logs the failure at Warn with label
// context and discards the error. Used at every failure-isolated call site:
// the embedding side-channel, hour-summary generation, and
// auto-classification during finalization. A single helper keeps the intent
// ("this stage may fail without affecting the rest of the pipeline") visible
// at the call site instead of repeating ad-hoc log blocks.
func bestEffort(label string, args []any, fn func() error) {
	if err := fn(); err != nil {
		slog.Warn(label, append(args, "error", err)...)
	}
}
