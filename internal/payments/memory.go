package payments

import (
	"context"
	"sync"

	id "doceo/pkg/domain"
)

// MemoryBank holds balances in memory. It backs development and test
// deployments where no external payment service is available.
type MemoryBank struct {
	mu       sync.RWMutex
	balances map[id.Principal]id.Amount
}

// NewMemoryBank constructs an empty bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[id.Principal]id.Amount)}
}

// Credit adds funds to an account. Used to seed balances.
func (b *MemoryBank) Credit(account id.Principal, amount id.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] += amount
}

func (b *MemoryBank) BalanceOf(_ context.Context, account id.Principal) (id.Amount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[account], nil
}

// Transfer debits from and credits to as a single atomic step. A transfer
// to the same account verifies the balance but moves nothing.
func (b *MemoryBank) Transfer(_ context.Context, from, to id.Principal, amount id.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[from] < amount {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}
