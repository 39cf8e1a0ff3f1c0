// Package capability maps the model's declared {capability, action, params}
// triples onto live store calls. The registry is an explicit string-keyed
// table built once at startup: no reflection, and unregistered keys are
// rejected uniformly.
package capability

import (
	"context"
	"fmt"

	"github.com/chitralabs/chitra/internal/llm"
	"github.com/chitralabs/chitra/internal/logging"
)

// Handler executes one action with the model-supplied params. Expected
// failures come back as errors; the registry converts them to error-shaped
// results so callers never need exception handling around dispatch.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// ErrorResult is the error-shaped result a failed dispatch produces.
type ErrorResult struct {
	Error string `json:"error"`
}

// Registry holds every registered capability action.
type Registry struct {
	actions map[string]map[string]Handler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{actions: make(map[string]map[string]Handler)}
}

// Register adds one action handler under a capability name.
func (r *Registry) Register(capability, action string, h Handler) {
	if r.actions[capability] == nil {
		r.actions[capability] = make(map[string]Handler)
	}
	r.actions[capability][action] = h
}

// Execute dispatches one model-declared action.
//
//   - nil action or empty capability/action name → nil result
//   - unknown capability or action → nil result
//   - handler error or panic → *ErrorResult
//   - success → whatever the handler returned, verbatim
//
// Execute never panics and never returns an error; a nil result means
// "nothing to feed back to the model".
func (r *Registry) Execute(ctx context.Context, action *llm.Action) (result any) {
	if action == nil || action.Capability == "" || action.Action == "" {
		logging.Warnf("Dispatch skipped: no capability/action named")
		return nil
	}

	handlers, ok := r.actions[action.Capability]
	if !ok {
		logging.Warnf("Dispatch skipped: unknown capability %q", action.Capability)
		return nil
	}
	handler, ok := handlers[action.Action]
	if !ok {
		logging.Warnf("Dispatch skipped: unknown action %q on capability %q", action.Action, action.Capability)
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Errorf("Dispatch panic in %s.%s: %v", action.Capability, action.Action, rec)
			result = &ErrorResult{Error: fmt.Sprintf("internal error executing %s.%s", action.Capability, action.Action)}
		}
	}()

	logging.Debugf("Dispatching %s.%s", action.Capability, action.Action)
	out, err := handler(ctx, action.Params)
	if err != nil {
		logging.Warnf("Dispatch %s.%s failed: %v", action.Capability, action.Action, err)
		return &ErrorResult{Error: err.Error()}
	}
	return out
}
