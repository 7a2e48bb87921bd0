package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/voicegate/internal/client/client"
)

const defaultTransactionsLimit = 20

func (a *App) Balance(ctx context.Context) error {
	return a.withAccess(ctx, func(access string) error {
		credits, err := a.api.Balance(ctx, access)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Credits: %d\n", credits)
		return nil
	})
}

func (a *App) Transactions(ctx context.Context, args []string) error {
	limit := defaultTransactionsLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintln(a.out, "usage: transactions [N]")
			return ErrUsage
		}
		limit = n
	}

	return a.withAccess(ctx, func(access string) error {
		txs, err := a.api.Transactions(ctx, access, limit)
		if err != nil {
			return err
		}
		a.printTransactions(txs)
		return nil
	})
}

func (a *App) printTransactions(txs []client.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(a.out, "No transactions")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%d\t%s\n", tx.CreatedAt.Local().Format("2006-01-02 15:04:05"), tx.Amount, tx.Description)
	}
	w.Flush()
}

// Transcribe uploads path and prints the engine output followed by usage
// and billing.
func (a *App) Transcribe(ctx context.Context, path string) error {
	return a.withAccess(ctx, func(access string) error {
		res, err := a.api.Transcribe(ctx, access, path)
		if err != nil {
			return err
		}

		fmt.Fprintln(a.out, formatData(res.Data))
		fmt.Fprintf(a.out, "Tokens: %d prompt, %d output, %d total\n",
			res.Usage.PromptTokens, res.Usage.OutputTokens, res.Usage.TotalTokens)
		fmt.Fprintf(a.out, "Charged %d credit(s), %d remaining\n",
			res.Billing.Cost, res.Billing.RemainingCredits)
		return nil
	})
}

// formatData prints a JSON string unquoted and anything else indented.
func formatData(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
