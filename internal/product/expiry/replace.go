package expiry

import (
	"time"

	"github.com/bathtrack/bathtrack-backend/pkg/errors"
)

// Replacement is the result of marking a product as replaced: the new
// stock level, the reset registration date, and the recomputed expiry
// date. Depleted signals that the last unit was consumed and the product
// should be offered for the shopping list.
type Replacement struct {
	Stock            int
	RegistrationDate time.Time
	ExpiryDate       time.Time
	Depleted         bool
}

// Replace computes the state transition for swapping in a fresh unit from
// stock. Stock decrements by one, the registration date resets to now, and
// the expiry date is recomputed with the manufacturing info carried over
// unchanged. All fields change together or not at all: with no stock
// remaining the operation is rejected and nothing mutates.
func Replace(stock, usageMonths int, manufacturingDate *time.Time, beforeMonths *int, now time.Time) (*Replacement, error) {
	if stock <= 0 {
		return nil, errors.InsufficientStock()
	}

	newStock := stock - 1
	return &Replacement{
		Stock:            newStock,
		RegistrationDate: now,
		ExpiryDate:       Calculate(now, usageMonths, manufacturingDate, beforeMonths),
		Depleted:         newStock == 0,
	}, nil
}
