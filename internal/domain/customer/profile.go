// Package customer derives customer profiles from the store's order stream.
//
// Profiles are never stored: they are recomputed from the orders on every
// request, grouping orders by the buyer's contact identity.
package customer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopnotify/backend/internal/domain/commerce"
)

// Profile is the derived view of one customer across their orders.
type Profile struct {
	// IdentityKey is the trimmed phone, or the trimmed email when no phone is present.
	IdentityKey string
	Name        string
	Email       string
	Phone       string
	City        string
	State       string
	TotalOrders int
	// TotalSpent is the exact sum of order totals. Round with RoundedSpent for display.
	TotalSpent decimal.Decimal
	// LastOrderDate is the raw date string of the latest order seen, or empty.
	LastOrderDate string

	lastOrderAt int64
}

// RoundedSpent returns TotalSpent rounded half away from zero to two places.
func (p *Profile) RoundedSpent() decimal.Decimal {
	return p.TotalSpent.Round(2)
}

// IdentityKey returns the grouping key for an order's buyer and whether one exists.
func IdentityKey(billing commerce.Billing) (string, bool) {
	if phone := strings.TrimSpace(billing.Phone); phone != "" {
		return phone, true
	}
	if email := strings.TrimSpace(billing.Email); email != "" {
		return email, true
	}
	return "", false
}
