package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/dbx"
	"github.com/dmitrijs2005/voicegate/internal/logging"
	"github.com/dmitrijs2005/voicegate/internal/server/metrics"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/credits"
	"github.com/dmitrijs2005/voicegate/internal/server/repositories/repomanager"
)

const (
	secondsPerCredit = 60

	DefaultTransactionsLimit = 50
	MaxTransactionsLimit     = 500
)

// maxBillableCredits bounds a single charge; anything above it is treated as
// a bogus duration.
const maxBillableCredits = math.MaxInt32

// BillingService prices recordings and debits balances.
type BillingService struct {
	db          dbx.DBTX
	tx          dbx.TxRunner
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewBillingService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger, mt *metrics.Metrics) *BillingService {
	return newBillingService(db, dbx.NewSQLRunner(db), m, logger, mt)
}

func newBillingService(db dbx.DBTX, tx dbx.TxRunner, m repomanager.RepositoryManager, logger logging.Logger, mt *metrics.Metrics) *BillingService {
	return &BillingService{
		db:          db,
		tx:          tx,
		repomanager: m,
		logger:      logger.With("module", "billing"),
		metrics:     mt,
	}
}

// EstimateCost returns max(1, ceil(seconds/60)). Non-positive, NaN and
// infinite durations are common.ErrInvalidDuration.
func EstimateCost(seconds float64) (int64, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: %v seconds", common.ErrInvalidDuration, seconds)
	}
	c := math.Ceil(seconds / secondsPerCredit)
	if c > maxBillableCredits {
		return 0, fmt.Errorf("%w: %v seconds", common.ErrInvalidDuration, seconds)
	}
	return max(1, int64(c)), nil
}

func (s *BillingService) EstimateCost(seconds float64) (int64, error) {
	return EstimateCost(seconds)
}

// LedgerDescription is the human readable text stored with a debit.
func LedgerDescription(seconds float64) string {
	return fmt.Sprintf("Analysis: %ds audio", int64(math.Round(seconds)))
}

// ChargeUser debits the cost of a recording of the given length.
//
// The balance row is locked, compared, decremented and the ledger row
// appended in one transaction. If the balance does not cover the cost the
// transaction is rolled back and *common.InsufficientFundsError is returned.
func (s *BillingService) ChargeUser(ctx context.Context, userID string, seconds float64) (*models.ChargeResult, error) {
	cost, err := EstimateCost(seconds)
	if err != nil {
		return nil, err
	}

	// A failed charge is not retried.
	result, err := s.charge(ctx, userID, cost, seconds)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CreditsCharged.Add(float64(cost))
	}
	s.logger.Info(ctx, "user charged", "user_id", userID, "cost", cost, "remaining", result.RemainingCredits)
	return result, nil
}

func (s *BillingService) charge(ctx context.Context, userID string, cost int64, seconds float64) (*models.ChargeResult, error) {
	var result *models.ChargeResult
	err := s.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Credits(tx)

		balance, err := repo.LockBalance(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}
		if balance < cost {
			return &common.InsufficientFundsError{Required: cost, Available: balance}
		}

		remaining, err := repo.Debit(ctx, userID, cost)
		if err != nil {
			if errors.Is(err, credits.ErrBalanceTooLow) {
				return &common.InsufficientFundsError{Required: cost, Available: balance}
			}
			return fmt.Errorf("debit: %w", err)
		}

		if _, err := repo.AppendTransaction(ctx, userID, -cost, LedgerDescription(seconds)); err != nil {
			return fmt.Errorf("append ledger row: %w", err)
		}

		result = &models.ChargeResult{Cost: cost, RemainingCredits: remaining}
		return nil
	})
	return result, err
}

// Balance returns the current credits of userID.
func (s *BillingService) Balance(ctx context.Context, userID string) (int64, error) {
	return s.repomanager.Credits(s.db).Balance(ctx, userID)
}

// Transactions returns the newest ledger rows. limit is clamped to
// [1, MaxTransactionsLimit]; zero or negative means DefaultTransactionsLimit.
func (s *BillingService) Transactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	switch {
	case limit <= 0:
		limit = DefaultTransactionsLimit
	case limit > MaxTransactionsLimit:
		limit = MaxTransactionsLimit
	}
	return s.repomanager.Credits(s.db).ListTransactions(ctx, userID, limit)
}
