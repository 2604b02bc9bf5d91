/*
bank.go - Derived balances and admin adjustment

The bank never stores a balance. Every read folds the full ledger; the
summary is therefore consistent with history at the moment of the call.
The only write here is the admin override, expressed as one adjustment
entry (delta = desired - current) so even corrections leave an audit trail.
*/
package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cleanslate/tracker/ledger"
)

type Bank struct {
	Store Store
}

func NewBank(store Store) *Bank {
	return &Bank{Store: store}
}

// BankSummary is the derived point state plus history, newest first.
type BankSummary struct {
	ledger.Summary
	Transactions []ledger.Transaction
}

// Summary derives balance/earned/spent from the full transaction history.
func (b *Bank) Summary(ctx context.Context, userID string) (*BankSummary, error) {
	txs, err := b.Store.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BankSummary{Summary: ledger.Summarize(txs), Transactions: txs}, nil
}

// SavingsSummary is the derived money state plus history, newest first.
type SavingsSummary struct {
	ledger.MoneySummary
	Events []ledger.MoneyEvent
}

// Savings derives saved/spent/net cents from the full money history.
func (b *Bank) Savings(ctx context.Context, userID string) (*SavingsSummary, error) {
	events, err := b.Store.MoneyEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SavingsSummary{MoneySummary: ledger.SummarizeMoney(events), Events: events}, nil
}

// SetPointsResult reports an admin override.
type SetPointsResult struct {
	Previous    int
	Balance     int
	Delta       int
	Transaction *ledger.Transaction // nil when the balance already matched
}

// SetPoints moves a user's balance to the desired value by appending one
// adjustment entry. The read and the append share one atomic unit so a
// concurrent award cannot slip between them and skew the delta.
func (b *Bank) SetPoints(ctx context.Context, userID string, desired int) (*SetPointsResult, error) {
	var out SetPointsResult
	err := b.Store.WithTx(ctx, func(tx Store) error {
		user, uerr := tx.GetUser(ctx, userID)
		if uerr != nil {
			return uerr
		}
		if user == nil {
			return ErrUserNotFound
		}

		current, serr := tx.SumPoints(ctx, userID)
		if serr != nil {
			return serr
		}
		delta := desired - current
		out.Previous = current
		out.Balance = desired
		out.Delta = delta
		if delta == 0 {
			return nil
		}

		txType := ledger.TxEarn
		if delta < 0 {
			txType = ledger.TxDeduct
		}
		now := time.Now().UTC()
		entry := ledger.Transaction{
			ID:        uuid.NewString(),
			UserID:    userID,
			Points:    delta,
			Type:      txType,
			Note:      fmt.Sprintf("Admin adjustment to %d (delta %+d)", desired, delta),
			Day:       ledger.DayOf(now),
			CreatedAt: now,
		}
		// Each admin action is its own event: keyed on the entry id.
		entry.IdempotencyKey = "admin:" + entry.ID

		led := ledger.New(tx)
		if aerr := led.Append(ctx, entry); aerr != nil {
			return aerr
		}
		out.Transaction = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
