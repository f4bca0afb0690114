package status

import "errors"

var (
	// Settlement callback errors.
	ErrInvalidSignature      = errors.New("settlement: webhook signature mismatch")
	ErrMalformedNotification = errors.New("settlement: malformed notification body")
	ErrUnknownStatus         = errors.New("settlement: unrecognized payment status")
	ErrNotActionable         = errors.New("settlement: payment still pending")
	ErrAlreadySettled        = errors.New("settlement: transaction already settled")

	// Inventory errors.
	ErrInsufficientSeats = errors.New("inventory: not enough seats available")

	// Purchase validation errors.
	ErrEventNotFound     = errors.New("purchase: event not found")
	ErrEventNotOnSale    = errors.New("purchase: event is not accepting sales")
	ErrUnknownAffiliate  = errors.New("purchase: affiliate is not a known user")
	ErrTierNotFound      = errors.New("purchase: pricing tier not found")
	ErrTierMismatch      = errors.New("purchase: pricing tier does not belong to event")
	ErrStaleUnitAmount   = errors.New("purchase: unit amount does not match current tier price")
	ErrQuantityExceeded  = errors.New("purchase: quantity exceeds per-call limit")
	ErrOwnershipCap      = errors.New("purchase: ticket ownership limit reached for this tier")

	// Record lookups.
	ErrTransactionNotFound = errors.New("transaction: not found")
)
