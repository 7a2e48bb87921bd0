// Package credits stores user balances and the credit ledger.
package credits

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/voicegate/internal/server/models"
)

// ErrBalanceTooLow is returned by Debit when the guarded update matched no row.
var ErrBalanceTooLow = errors.New("balance below debit amount")

// Repository reads and mutates balances. LockBalance and Debit are meant to
// run on the same transaction.
type Repository interface {
	// LockBalance returns the current balance and holds a row lock on it
	// until the surrounding transaction ends.
	LockBalance(ctx context.Context, userID string) (int64, error)
	// Debit subtracts amount and returns the new balance. It never lets the
	// balance go negative.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
	AppendTransaction(ctx context.Context, userID string, amount int64, description string) (*models.CreditTransaction, error)
	Balance(ctx context.Context, userID string) (int64, error)
	// ListTransactions returns up to limit rows, newest first.
	ListTransactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
}
