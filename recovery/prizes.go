/*
prizes.go - Prize shop and redemption

PURPOSE:
  Users define their own prizes and buy them with points. The purchase is
  the one place the derived balance gates a write, so the whole check-and-
  debit runs in a single atomic unit:

    1. Prize exists and belongs to the user       (else ErrPrizeNotFound)
    2. Prize is active                            (else ErrAlreadyPurchased)
    3. Derived balance >= cost                    (else InsufficientPointsError)
    4. Insert Purchase + debit transaction, flip active=false - together

  Two concurrent purchases of a prize costing more than half the balance
  therefore resolve to exactly one success: the second sees either the
  inactive prize or the reduced balance.

RESTOCK:
  Restocking flips active back to true with no ledger effect. It is not a
  refund; the spent points stay spent.
*/
package recovery

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleanslate/tracker/ledger"
)

type PrizeShop struct {
	Store Store
}

func NewPrizeShop(store Store) *PrizeShop {
	return &PrizeShop{Store: store}
}

// =============================================================================
// CATALOG CRUD
// =============================================================================

// PrizeInput carries the user-editable prize fields.
type PrizeInput struct {
	Name        string
	Description string
	CostPoints  int
}

func (in PrizeInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if in.CostPoints < 0 {
		return &ValidationError{Field: "costPoints", Message: "must not be negative"}
	}
	return nil
}

// Create adds a prize to the user's catalog, active (purchasable).
func (s *PrizeShop) Create(ctx context.Context, userID string, in PrizeInput) (*Prize, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := Prize{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		CostPoints:  in.CostPoints,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Store.SavePrize(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update edits a prize's fields. Active state is not touched here.
func (s *PrizeShop) Update(ctx context.Context, userID, prizeID string, in PrizeInput) (*Prize, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.Store.GetPrize(ctx, userID, prizeID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPrizeNotFound
	}
	p.Name = in.Name
	p.Description = in.Description
	p.CostPoints = in.CostPoints
	if err := s.Store.SavePrize(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the user's prizes, newest first.
func (s *PrizeShop) List(ctx context.Context, userID string) ([]Prize, error) {
	return s.Store.ListPrizes(ctx, userID)
}

// Delete removes a prize and its purchase history in one unit.
// Ledger entries from past purchases remain: points spent stay spent.
func (s *PrizeShop) Delete(ctx context.Context, userID, prizeID string) error {
	p, err := s.Store.GetPrize(ctx, userID, prizeID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPrizeNotFound
	}
	return s.Store.DeletePrize(ctx, userID, prizeID)
}

// =============================================================================
// PURCHASE - Atomic check-and-debit
// =============================================================================

// Purchase redeems a prize. On success the Purchase row, the -cost debit,
// and the active=false flip commit together or not at all.
func (s *PrizeShop) Purchase(ctx context.Context, userID, prizeID string) (purchase *Purchase, prize *Prize, err error) {
	err = s.Store.WithTx(ctx, func(tx Store) error {
		p, gerr := tx.GetPrize(ctx, userID, prizeID)
		if gerr != nil {
			return gerr
		}
		if p == nil {
			return ErrPrizeNotFound
		}
		if !p.Active {
			return ErrAlreadyPurchased
		}

		balance, berr := tx.SumPoints(ctx, userID)
		if berr != nil {
			return berr
		}
		if balance < p.CostPoints {
			return &InsufficientPointsError{
				UserID:    userID,
				Balance:   balance,
				Cost:      p.CostPoints,
				Shortfall: p.CostPoints - balance,
			}
		}

		now := time.Now().UTC()
		pc := Purchase{
			ID:        uuid.NewString(),
			UserID:    userID,
			PrizeID:   p.ID,
			CreatedAt: now,
		}
		if serr := tx.SavePurchase(ctx, pc); serr != nil {
			return serr
		}

		led := ledger.New(tx)
		if aerr := led.Append(ctx, ledger.Transaction{
			ID:             uuid.NewString(),
			UserID:         userID,
			Points:         -p.CostPoints,
			Type:           ledger.TxSpend,
			Note:           "Purchased " + p.Name,
			Day:            ledger.DayOf(now),
			RelatedPrizeID: p.ID,
			IdempotencyKey: purchaseAwardKey(pc.ID),
			CreatedAt:      now,
		}); aerr != nil {
			return aerr
		}

		p.Active = false
		if serr := tx.SavePrize(ctx, *p); serr != nil {
			return serr
		}

		purchase = &pc
		prize = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return purchase, prize, nil
}

// Restock makes a purchased prize purchasable again. No ledger effect.
func (s *PrizeShop) Restock(ctx context.Context, userID, prizeID string) (*Prize, error) {
	p, err := s.Store.GetPrize(ctx, userID, prizeID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPrizeNotFound
	}
	p.Active = true
	if err := s.Store.SavePrize(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}
