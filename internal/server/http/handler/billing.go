package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/voicegate/internal/common"
	"github.com/dmitrijs2005/voicegate/internal/server/http/middleware"
	"github.com/dmitrijs2005/voicegate/internal/server/models"
	"github.com/gin-gonic/gin"
)

// Ledger reads balances and ledger history.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Transactions(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
}

type BillingHandler struct {
	ledger Ledger
}

func NewBillingHandler(ledger Ledger) *BillingHandler {
	return &BillingHandler{ledger: ledger}
}

type transactionPayload struct {
	ID          int64     `json:"id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Balance handles GET /billing/balance.
func (h *BillingHandler) Balance(c *gin.Context) {
	claims, ok := middleware.AccessClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed: No token provided"})
		return
	}

	credits, err := h.ledger.Balance(c.Request.Context(), claims.UserID)
	if err != nil {
		ledgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": credits})
}

// Transactions handles GET /billing/transactions?limit=N.
func (h *BillingHandler) Transactions(c *gin.Context) {
	claims, ok := middleware.AccessClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication failed: No token provided"})
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid limit"})
			return
		}
		limit = n
	}

	rows, err := h.ledger.Transactions(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		ledgerError(c, err)
		return
	}

	out := make([]transactionPayload, 0, len(rows))
	for _, r := range rows {
		out = append(out, transactionPayload{ID: r.ID, Amount: r.Amount, Description: r.Description, CreatedAt: r.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

func ledgerError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		_ = c.Error(err)
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	internalError(c, err)
}
