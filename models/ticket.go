package models

import (
	"time"
)

// Ticket is proof of purchase for one seat. Exactly one row is created per
// unit sold, always as a byproduct of a successful settlement (or a
// zero-cost purchase, which settles inline).
type Ticket struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	TierID        string    `json:"tier_id"`
	TransactionID string    `json:"transaction_id"`
	BuyerID       string    `json:"buyer_id"`
	OwnerID       string    `json:"owner_id"`
	AffiliateID   string    `json:"affiliate_id,omitempty"`
	Status        string    `json:"status"` // active, present, stepped_out
	Created       time.Time `json:"created"`
}

const (
	TicketStatusActive     = "active"
	TicketStatusPresent    = "present"
	TicketStatusSteppedOut = "stepped_out"
)
