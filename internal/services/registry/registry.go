// Package registry holds the authoritative in-memory account list and the
// snapshot diffing used to detect login completion.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/j-veylop/proxydeck-tui/internal/models"
	"github.com/j-veylop/proxydeck-tui/internal/rpc"
)

// Registry mirrors the backend's account list. All mutations happen on the
// backend; the registry only re-fetches and diffs.
type Registry struct {
	mu       sync.RWMutex
	accounts []models.Account
	remote   rpc.RemoteService
}

// New creates a registry backed by the given remote service.
func New(remote rpc.RemoteService) *Registry {
	return &Registry{remote: remote}
}

// Refresh re-fetches the account list from the backend, replacing the
// in-memory snapshot. The backend's ordering is preserved.
func (r *Registry) Refresh(ctx context.Context) ([]models.Account, error) {
	accounts, err := r.remote.GetAuthAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh accounts: %w", err)
	}

	r.mu.Lock()
	r.accounts = accounts
	r.mu.Unlock()

	return r.List(), nil
}

// List returns a copy of the current account snapshot.
func (r *Registry) List() []models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]models.Account, len(r.accounts))
	copy(accounts, r.accounts)
	return accounts
}

// Count returns the number of known accounts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// Get returns the account with the given id, or nil.
func (r *Registry) Get(accountID string) *models.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.accounts {
		if r.accounts[i].ID == accountID {
			acc := r.accounts[i]
			return &acc
		}
	}
	return nil
}

// DiffNew returns the accounts in current whose id is absent from previous,
// in current's order.
func DiffNew(previous, current []models.Account) []models.Account {
	known := lo.SliceToMap(previous, func(a models.Account) (string, struct{}) {
		return a.ID, struct{}{}
	})

	return lo.Filter(current, func(a models.Account, _ int) bool {
		_, ok := known[a.ID]
		return !ok
	})
}
