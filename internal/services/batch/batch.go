// Package batch applies enable/disable mutations across a selection of
// accounts, strictly sequentially.
package batch

import (
	"context"

	"github.com/j-veylop/proxydeck-tui/internal/rpc"
)

// Result reports the outcome of one batch run. When Err is non-nil, Applied
// lists the ids that were mutated before the failure; ids after FailedID
// were left untouched. Partial application is an accepted outcome, not a
// bug — there is no rollback.
type Result struct {
	Applied  []string
	FailedID string
	Err      error
}

// Succeeded reports whether every id was mutated.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Executor runs batch mutations against the backend.
type Executor struct {
	remote rpc.RemoteService
}

// New creates an executor.
func New(remote rpc.RemoteService) *Executor {
	return &Executor{remote: remote}
}

// SetEnabled applies the target state to each id in order, one call at a
// time to bound load on the backend, stopping at the first failure.
func (e *Executor) SetEnabled(ctx context.Context, ids []string, enabled bool) Result {
	result := Result{Applied: make([]string, 0, len(ids))}

	for _, id := range ids {
		if err := e.remote.SetAccountEnabled(ctx, id, enabled); err != nil {
			result.FailedID = id
			result.Err = err
			return result
		}
		result.Applied = append(result.Applied, id)
	}
	return result
}
