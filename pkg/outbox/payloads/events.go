package payloads

import "github.com/shopspring/decimal"

// CartData carries the authoritative cart total at emission time.
type CartData struct {
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartTotalChangedEvent is emitted after every cart-item mutation. TotalPrice
// is an absolute value computed from the item ledger inside the same
// transaction as the mutation, never an increment.
type CartTotalChangedEvent struct {
	UserID   int64    `json:"user_id"`
	CartData CartData `json:"cart_data"`
}

// IdentityData carries optional profile fields for a newly registered user.
type IdentityData struct {
	Email    *string `json:"email,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

// UserCreatedEvent announces a new identity from the auth service.
type UserCreatedEvent struct {
	UserID       int64         `json:"user_id"`
	IdentityData *IdentityData `json:"identity_data,omitempty"`
}
