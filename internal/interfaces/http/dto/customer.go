package dto

import "github.com/shopnotify/backend/internal/domain/customer"

// CustomerResponse is one aggregated customer as the mobile client reads it.
// Contact fields and the last order date are null when unknown.
type CustomerResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	TotalOrders   int     `json:"totalOrders"`
	TotalSpent    float64 `json:"totalSpent"`
	LastOrderDate *string `json:"lastOrderDate"`
}

// ToCustomerResponse converts a profile
func ToCustomerResponse(p *customer.Profile) CustomerResponse {
	return CustomerResponse{
		ID:            p.IdentityKey,
		Name:          p.Name,
		Email:         nullable(p.Email),
		Phone:         nullable(p.Phone),
		City:          p.City,
		State:         p.State,
		TotalOrders:   p.TotalOrders,
		TotalSpent:    p.RoundedSpent().InexactFloat64(),
		LastOrderDate: nullable(p.LastOrderDate),
	}
}

// ToCustomerResponses converts profiles, keeping their order
func ToCustomerResponses(profiles []customer.Profile) []CustomerResponse {
	out := make([]CustomerResponse, len(profiles))
	for i := range profiles {
		out[i] = ToCustomerResponse(&profiles[i])
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
