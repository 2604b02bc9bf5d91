/*
breathing.go - Urge-surfing session counter

Each completed one-minute breathing session increments the day's count.
The third session of a day earns +1, once; the Scored flag plus the
(user, day) award key keep reloads and second devices from re-awarding.
*/
package recovery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cleanslate/tracker/ledger"
)

type Breathing struct {
	Store Store
}

func NewBreathing(store Store) *Breathing {
	return &Breathing{Store: store}
}

// Status returns the day's session count and whether it has been scored.
func (b *Breathing) Status(ctx context.Context, userID string, day ledger.Day) (*BreathDay, error) {
	row, err := b.Store.GetBreathDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &BreathDay{UserID: userID, Day: day}
	}
	return row, nil
}

// Record counts one completed session and, on the third of the day, fires
// the one-time award in the same atomic unit as the counter update.
func (b *Breathing) Record(ctx context.Context, userID string, day ledger.Day) (row *BreathDay, awarded bool, err error) {
	err = b.Store.WithTx(ctx, func(tx Store) error {
		existing, gerr := tx.GetBreathDay(ctx, userID, day)
		if gerr != nil {
			return gerr
		}
		if existing == nil {
			existing = &BreathDay{
				ID:     uuid.NewString(),
				UserID: userID,
				Day:    day,
			}
		}
		existing.Count++

		if existing.Count >= BreathSessionsToScore && !existing.Scored {
			led := ledger.New(tx)
			aerr := led.Append(ctx, ledger.Transaction{
				ID:             uuid.NewString(),
				UserID:         userID,
				Points:         PointsBreathingScored,
				Type:           ledger.TxEarn,
				Note:           NoteBreathingScored,
				Day:            day,
				IdempotencyKey: breathAwardKey(userID, day),
				CreatedAt:      time.Now().UTC(),
			})
			if aerr != nil && !ledger.IsDuplicate(aerr) {
				return aerr
			}
			existing.Scored = true
			awarded = aerr == nil
		}

		if serr := tx.SaveBreathDay(ctx, *existing); serr != nil {
			return serr
		}
		row = existing
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return row, awarded, nil
}
