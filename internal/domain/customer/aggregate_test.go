package customer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopnotify/backend/internal/domain/commerce"
)

func order(id, total, date string, b commerce.Billing) commerce.Order {
	return commerce.Order{ID: id, Total: total, DateCreated: date, Billing: b}
}

func byKey(profiles []Profile) map[string]Profile {
	m := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		m[p.IdentityKey] = p
	}
	return m
}

func TestIdentityKey(t *testing.T) {
	tests := []struct {
		name    string
		billing commerce.Billing
		want    string
		wantOK  bool
	}{
		{"phone preferred", commerce.Billing{Phone: " 900 ", Email: "a@x.com"}, "900", true},
		{"email fallback", commerce.Billing{Email: "  a@x.com "}, "a@x.com", true},
		{"blank phone falls back", commerce.Billing{Phone: "   ", Email: "a@x.com"}, "a@x.com", true},
		{"no contact", commerce.Billing{FirstName: "Anon"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IdentityKey(tt.billing)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate_MergesByPhone(t *testing.T) {
	orders := []commerce.Order{
		order("1", "10.00", "2024-01-01T10:00:00", commerce.Billing{FirstName: "A", LastName: "B", Phone: "111", Email: "a@x.com", City: "Pune"}),
		order("2", "5.50", "2024-02-01T10:00:00", commerce.Billing{FirstName: "A", Phone: "111", Email: "a2@x.com"}),
	}

	profiles := Aggregate(orders)
	require.Len(t, profiles, 1)

	p := profiles[0]
	assert.Equal(t, "111", p.IdentityKey)
	assert.Equal(t, "A B", p.Name)
	assert.Equal(t, 2, p.TotalOrders)
	assert.Equal(t, "15.5", p.TotalSpent.String())
	assert.Equal(t, "a2@x.com", p.Email)
	assert.Equal(t, "Pune", p.City)
	assert.Equal(t, "2024-02-01T10:00:00", p.LastOrderDate)
}

func TestAggregate_RoundsOnlyAtEmission(t *testing.T) {
	orders := []commerce.Order{
		order("1", "10.005", "2024-01-01", commerce.Billing{Email: "a@x.com"}),
		order("2", "5", "2024-01-02", commerce.Billing{Email: "a@x.com"}),
	}

	profiles := Aggregate(orders)
	require.Len(t, profiles, 1)
	assert.Equal(t, 2, profiles[0].TotalOrders)
	assert.Equal(t, "15.005", profiles[0].TotalSpent.String())
	assert.Equal(t, "15.01", profiles[0].RoundedSpent().StringFixed(2))
}

func TestAggregate_TrimsContactFields(t *testing.T) {
	orders := []commerce.Order{
		order("1", "10", "2024-01-01", commerce.Billing{Phone: " +1-555 ", Email: "a@b.com"}),
		order("2", "10", "2024-01-02", commerce.Billing{Phone: "+1-555", Email: "   "}),
		order("3", "10", "2024-01-03", commerce.Billing{Phone: "+1-555", Email: " a@b.com "}),
	}

	profiles := Aggregate(orders)
	require.Len(t, profiles, 1)
	assert.Equal(t, "+1-555", profiles[0].Phone)
	assert.Equal(t, "a@b.com", profiles[0].Email)
	assert.Equal(t, 3, profiles[0].TotalOrders)
}

func TestProfile_RoundedSpent(t *testing.T) {
	tests := []struct {
		total string
		want  string
	}{
		{"15.005", "15.01"},
		{"15.004", "15.00"},
		{"-0.005", "-0.01"},
		{"-2.345", "-2.35"},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			p := Profile{TotalSpent: decimal.RequireFromString(tt.total)}
			assert.Equal(t, tt.want, p.RoundedSpent().StringFixed(2))
		})
	}
}

func TestAggregate_SkipsKeylessOrders(t *testing.T) {
	orders := []commerce.Order{
		order("1", "10", "", commerce.Billing{FirstName: "Ghost"}),
		order("2", "20", "", commerce.Billing{}),
		order("3", "30", "", commerce.Billing{Phone: "222"}),
	}

	profiles := Aggregate(orders)
	require.Len(t, profiles, 1)
	assert.Equal(t, "222", profiles[0].IdentityKey)
	assert.Equal(t, 1, profiles[0].TotalOrders)
}

func TestAggregate_CountsMatchKeyedOrders(t *testing.T) {
	orders := []commerce.Order{
		order("1", "1", "", commerce.Billing{Phone: "1"}),
		order("2", "2", "", commerce.Billing{Email: "b@x.com"}),
		order("3", "3", "", commerce.Billing{Phone: "1"}),
		order("4", "4", "", commerce.Billing{}),
		order("5", "5", "", commerce.Billing{Phone: "3"}),
	}

	profiles := Aggregate(orders)
	total := 0
	for _, p := range profiles {
		assert.GreaterOrEqual(t, p.TotalOrders, 1)
		total += p.TotalOrders
	}
	assert.Equal(t, 4, total)
	assert.Len(t, profiles, 3)
}

func TestAggregate_SumIsOrderIndependent(t *testing.T) {
	orders := []commerce.Order{
		order("1", "0.10", "", commerce.Billing{Phone: "9"}),
		order("2", "0.20", "", commerce.Billing{Phone: "9"}),
		order("3", "abc", "", commerce.Billing{Phone: "9"}),
		order("4", "", "", commerce.Billing{Phone: "9"}),
		order("5", "99.99", "", commerce.Billing{Phone: "9"}),
	}
	reversed := make([]commerce.Order, len(orders))
	for i, o := range orders {
		reversed[len(orders)-1-i] = o
	}

	a := Aggregate(orders)
	b := Aggregate(reversed)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.True(t, a[0].TotalSpent.Equal(b[0].TotalSpent))
	assert.True(t, decimal.RequireFromString("100.29").Equal(a[0].TotalSpent))
	assert.Equal(t, 5, a[0].TotalOrders)
}

func TestAggregate_EmailFollowsLastNonEmpty(t *testing.T) {
	orders := []commerce.Order{
		order("1", "1", "", commerce.Billing{Phone: "5", Email: "first@x.com"}),
		order("2", "1", "", commerce.Billing{Phone: "5", Email: "second@x.com"}),
		order("3", "1", "", commerce.Billing{Phone: "5"}),
	}

	profiles := Aggregate(orders)
	require.Len(t, profiles, 1)
	assert.Equal(t, "second@x.com", profiles[0].Email)
}

func TestAggregate_PhoneNeverOverwritten(t *testing.T) {
	orders := []commerce.Order{
		order("1", "1", "", commerce.Billing{Email: "e@x.com"}),
		order("2", "1", "", commerce.Billing{Email: "e@x.com", Phone: "  "}),
	}

	profiles := Aggregate(orders)
	require.Len(t, profiles, 1)
	assert.Empty(t, profiles[0].Phone)
	assert.Equal(t, 2, profiles[0].TotalOrders)
}

func TestAggregate_LastOrderDate(t *testing.T) {
	t.Run("only strictly later dates replace", func(t *testing.T) {
		orders := []commerce.Order{
			order("1", "1", "2024-05-01T00:00:00", commerce.Billing{Phone: "7"}),
			order("2", "1", "2024-04-01T00:00:00", commerce.Billing{Phone: "7"}),
			order("3", "1", "2024-05-01 00:00:00", commerce.Billing{Phone: "7"}),
		}
		profiles := Aggregate(orders)
		require.Len(t, profiles, 1)
		assert.Equal(t, "2024-05-01T00:00:00", profiles[0].LastOrderDate)
	})

	t.Run("missing first date is replaced by any real date", func(t *testing.T) {
		orders := []commerce.Order{
			order("1", "1", "", commerce.Billing{Phone: "7"}),
			order("2", "1", "not a date", commerce.Billing{Phone: "7"}),
			order("3", "1", "2020-01-01", commerce.Billing{Phone: "7"}),
		}
		profiles := Aggregate(orders)
		require.Len(t, profiles, 1)
		assert.Equal(t, "2020-01-01", profiles[0].LastOrderDate)
	})
}

func TestAggregate_KeysAreCaseSensitive(t *testing.T) {
	orders := []commerce.Order{
		order("1", "1", "", commerce.Billing{Email: "A@x.com"}),
		order("2", "1", "", commerce.Billing{Email: "a@x.com"}),
		order("3", "1", "", commerce.Billing{Email: " a@x.com "}),
	}

	m := byKey(Aggregate(orders))
	require.Len(t, m, 2)
	assert.Equal(t, 1, m["A@x.com"].TotalOrders)
	assert.Equal(t, 2, m["a@x.com"].TotalOrders)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.NotNil(t, Aggregate(nil))
}

func TestFindByIdentity(t *testing.T) {
	orders := []commerce.Order{
		order("1", "1", "2024-01-01T00:00:00", commerce.Billing{Email: "Asha@Example.com"}),
		order("2", "1", "2024-03-01T00:00:00", commerce.Billing{Phone: "900"}),
		order("3", "1", "2024-02-01T00:00:00", commerce.Billing{Email: "asha@example.com ", Phone: "900"}),
		order("4", "1", "2024-04-01T00:00:00", commerce.Billing{Email: "other@example.com"}),
		order("5", "1", "garbage", commerce.Billing{Email: "asha@example.com"}),
	}

	t.Run("matches email case-insensitively, newest first", func(t *testing.T) {
		got := FindByIdentity(orders, "  ASHA@example.com ")
		require.Len(t, got, 3)
		assert.Equal(t, "3", got[0].ID)
		assert.Equal(t, "1", got[1].ID)
		assert.Equal(t, "5", got[2].ID)
	})

	t.Run("matches phone", func(t *testing.T) {
		got := FindByIdentity(orders, "900")
		require.Len(t, got, 2)
		assert.Equal(t, "2", got[0].ID)
		assert.Equal(t, "3", got[1].ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, FindByIdentity(orders, "nobody"))
	})

	t.Run("blank id matches nothing", func(t *testing.T) {
		assert.Empty(t, FindByIdentity(orders, "   "))
	})

	t.Run("equal dates keep input order", func(t *testing.T) {
		same := []commerce.Order{
			order("a", "1", "", commerce.Billing{Phone: "1"}),
			order("b", "1", "bad", commerce.Billing{Phone: "1"}),
		}
		got := FindByIdentity(same, "1")
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})
}
