// Package payments abstracts the value-transfer channel used to collect
// storage and renewal fees. The ledger treats it as an external primitive:
// a transfer either completes as a unit or fails with no effect.
package payments

import (
	"context"
	"errors"

	id "doceo/pkg/domain"
)

// ErrInsufficientFunds is returned by Transfer when the source account
// cannot cover the amount. BalanceOf never returns it.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Channel moves platform credits between principals.
//
// Error Contract:
// - Transfer returns ErrInsufficientFunds when the source balance is too low
// - Transfer is atomic: on any error the balances are unchanged
// - BalanceOf returns the current available balance, zero for unknown accounts
type Channel interface {
	BalanceOf(ctx context.Context, account id.Principal) (id.Amount, error)
	Transfer(ctx context.Context, from, to id.Principal, amount id.Amount) error
}
