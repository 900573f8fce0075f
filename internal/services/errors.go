// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"
)

// Business-rule failures the handlers match on with errors.Is / errors.As.
var (
	// ErrAlreadyProcessed: stock was already deducted for this order.
	// Informational, not a failure from the caller's perspective.
	ErrAlreadyProcessed = errors.New("inventory already updated for this order")

	// ErrNothingToRestore: inventory was not previously deducted, so there
	// is nothing to put back.
	ErrNothingToRestore = errors.New("inventory was not previously updated for this order")

	// ErrInvalidState: the operation is not legal for the order's current
	// status (cancelled/delivered guards).
	ErrInvalidState = errors.New("operation not allowed in current order state")

	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrCardNotSupported: online card payment has no processing path, the
	// checkout must be rejected before an order is created.
	ErrCardNotSupported = errors.New("card payment is not supported, please use cash on delivery")
)

// ShortageItem is one order line that could not be covered by stock, either
// because the inventory record is missing or the quantity falls short.
type ShortageItem struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	// Missing is set when no inventory record exists for the product.
	Missing bool `json:"missing"`
}

func (i ShortageItem) String() string {
	if i.Missing {
		if i.Title != "" {
			return i.Title
		}
		return "Product " + i.ProductID
	}
	return fmt.Sprintf("%s (Available: %d)", i.Title, i.Available)
}

// StockShortageError reports every offending line of a failed deduction so
// the caller can show one combined notice, not just the first problem.
type StockShortageError struct {
	Items []ShortageItem
}

func (e *StockShortageError) Error() string {
	names := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		names = append(names, item.String())
	}
	return "insufficient stock for: " + strings.Join(names, ", ")
}
