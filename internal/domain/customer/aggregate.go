package customer

import (
	"sort"
	"strings"

	"github.com/shopnotify/backend/internal/domain/commerce"
)

// Aggregate groups orders into one profile per identity key.
//
// Orders whose billing has neither phone nor email are skipped. Profiles are
// returned in the order their key was first seen.
func Aggregate(orders []commerce.Order) []Profile {
	index := make(map[string]int, len(orders))
	profiles := make([]Profile, 0)

	for i := range orders {
		o := &orders[i]
		key, ok := IdentityKey(o.Billing)
		if !ok {
			continue
		}

		pos, seen := index[key]
		if !seen {
			index[key] = len(profiles)
			profiles = append(profiles, newProfile(key, o))
			continue
		}
		profiles[pos].merge(o)
	}
	return profiles
}

func newProfile(key string, o *commerce.Order) Profile {
	return Profile{
		IdentityKey:   key,
		Name:          o.Billing.FullName(),
		Email:         strings.TrimSpace(o.Billing.Email),
		Phone:         strings.TrimSpace(o.Billing.Phone),
		City:          o.Billing.City,
		State:         o.Billing.State,
		TotalOrders:   1,
		TotalSpent:    o.TotalAmount(),
		LastOrderDate: o.DateCreated,
		lastOrderAt:   o.CreatedAt().UnixNano(),
	}
}

// merge folds another order of the same customer into the profile.
// The phone is never replaced; the email is replaced by any later non-blank value.
func (p *Profile) merge(o *commerce.Order) {
	p.TotalOrders++
	p.TotalSpent = p.TotalSpent.Add(o.TotalAmount())

	if e := strings.TrimSpace(o.Billing.Email); e != "" && e != p.Email {
		p.Email = e
	}

	if at := o.CreatedAt().UnixNano(); at > p.lastOrderAt {
		p.lastOrderAt = at
		p.LastOrderDate = o.DateCreated
	}
}

// FindByIdentity returns the orders whose billing email or phone matches id,
// ignoring case and surrounding whitespace, newest first.
func FindByIdentity(orders []commerce.Order, id string) []commerce.Order {
	needle := strings.ToLower(strings.TrimSpace(id))
	matched := make([]commerce.Order, 0)
	if needle == "" {
		return matched
	}

	for _, o := range orders {
		email := strings.ToLower(strings.TrimSpace(o.Billing.Email))
		phone := strings.ToLower(strings.TrimSpace(o.Billing.Phone))
		if email == needle || phone == needle {
			matched = append(matched, o)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})
	return matched
}
