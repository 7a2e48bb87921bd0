package credits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/dbx"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LockBalance(ctx context.Context, userID string) (int64, error) {
	query :=
		`SELECT credits FROM users
		 WHERE id = $1
		 FOR UPDATE
		 `
	return r.scanBalance(ctx, query, userID)
}

func (r *PostgresRepository) Balance(ctx context.Context, userID string) (int64, error) {
	query :=
		`SELECT credits FROM users
		 WHERE id = $1
		 `
	return r.scanBalance(ctx, query, userID)
}

func (r *PostgresRepository) scanBalance(ctx context.Context, query, userID string) (int64, error) {
	var credits int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&credits); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return credits, nil
}

func (r *PostgresRepository) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	query :=
		`UPDATE users SET credits = credits - $2
		 WHERE id = $1 AND credits >= $2
		 RETURNING credits
		 `
	var remaining int64
	if err := r.db.QueryRowContext(ctx, query, userID, amount).Scan(&remaining); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrBalanceTooLow
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return remaining, nil
}

func (r *PostgresRepository) AppendTransaction(ctx context.Context, userID string, amount int64, description string) (*models.CreditTransaction, error) {
	query :=
		`INSERT INTO credit_transactions (user_id, amount, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `
	tx := &models.CreditTransaction{UserID: userID, Amount: amount, Description: description}
	if err := r.db.QueryRowContext(ctx, query, userID, amount, description).Scan(&tx.ID, &tx.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	query :=
		`SELECT id, user_id, amount, description, created_at
		 FROM credit_transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2
		 `
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.CreditTransaction, 0)
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
