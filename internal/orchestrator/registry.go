package orchestrator

import (
	"context"
	"errors"
	"sync"
)

// ErrRecordingAlreadyActive is returned by [Registry.StartSession] when a
// session already occupies the registry's single slot.
var ErrRecordingAlreadyActive = errors.New("orchestrator: recording already active")

// Registry is a process-wide single-active-session guard: at most one
// [Session] may occupy its slot at a time. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	active *Session
}

// NewRegistry returns an empty Registry. Tests should construct their own
// instance rather than sharing [DefaultRegistry] so cases don't leak state
// into one another.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry is the process-wide registry used by the application's
// entry point. Given an explicit constructor as an escape hatch for tests,
// the same pattern [observe.NewMetrics] gives over a package-level default.
var DefaultRegistry = NewRegistry()

// StartSession places session in the registry's slot. Fails with
// [ErrRecordingAlreadyActive] if the slot is already occupied; the caller
// must construct session before calling this, but should not call
// [Session.Start] until after StartSession succeeds.
func (r *Registry) StartSession(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return ErrRecordingAlreadyActive
	}
	r.active = session
	return nil
}

// StopSession is idempotent: if the slot is empty it is a no-op. Otherwise
// it clears the slot *before* awaiting the session's own Stop, so that a
// concurrent StartSession issued during finalization is permitted — the
// prior session is no longer considered "active" once its slot is cleared.
func (r *Registry) StopSession(ctx context.Context) error {
	r.mu.Lock()
	session := r.active
	r.active = nil
	r.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Stop(ctx)
}

// Cleanup is an alias for [Registry.StopSession], used at process shutdown.
func (r *Registry) Cleanup(ctx context.Context) error {
	return r.StopSession(ctx)
}

// Active returns the currently active session, or nil if none.
func (r *Registry) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// IsActive reports whether a session currently occupies the slot.
func (r *Registry) IsActive() bool {
	return r.Active() != nil
}
