package domain

import (
	"errors"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product inactive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidMovement   = errors.New("invalid stock movement")
)

// Stock is the current quantity on hand for a product. Quantity never goes
// negative; it is mutated only through reserve and release, each of which
// appends a Movement.
type Stock struct {
	ProductID string
	Quantity  int
	Active    bool
	UpdatedAt time.Time
}

func (s *Stock) CanReserve(quantity int) bool {
	return s.Active && s.Quantity >= quantity
}

const (
	ReasonReserved = "reserved for order"
	ReasonReleased = "released from cancelled order"
)

// Movement is an immutable audit record of a single stock change. Replaying
// all movements for a product in creation order from the initial quantity
// must reproduce the current quantity exactly.
type Movement struct {
	ID            string
	ProductID     string
	Delta         int
	PreviousStock int
	NewStock      int
	Reason        string
	OrderID       string
	CreatedAt     time.Time
}

func NewMovement(id, productID string, delta, previousStock int, reason, orderID string) (*Movement, error) {
	if id == "" || productID == "" || delta == 0 {
		return nil, ErrInvalidMovement
	}
	newStock := previousStock + delta
	if newStock < 0 {
		return nil, ErrInsufficientStock
	}
	return &Movement{
		ID:            id,
		ProductID:     productID,
		Delta:         delta,
		PreviousStock: previousStock,
		NewStock:      newStock,
		Reason:        reason,
		OrderID:       orderID,
		CreatedAt:     time.Now(),
	}, nil
}

// Replay folds movement deltas over an initial quantity. Used to verify the
// ledger against the stored quantity.
func Replay(initial int, movements []*Movement) int {
	current := initial
	for _, m := range movements {
		current += m.Delta
	}
	return current
}
