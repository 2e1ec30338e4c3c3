package commerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Billing holds the billing contact of an order.
type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	State     string `json:"state"`
}

// FullName returns "first last" with surrounding whitespace removed.
func (b Billing) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// LineItem is a single product line of an order.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Total     string `json:"total"`
}

// Order is an order record from the store.
type Order struct {
	ID          string
	Status      string
	Currency    string
	Total       string
	DateCreated string
	Billing     Billing
	LineItems   []LineItem

	// Raw is the upstream JSON the order was decoded from.
	Raw json.RawMessage
}

// HasID reports whether the order carries a usable identifier.
func (o *Order) HasID() bool {
	return o.ID != "" && o.ID != "0"
}

// TotalAmount parses Total, treating a missing or non-numeric total as zero.
func (o *Order) TotalAmount() decimal.Decimal {
	return ParseDecimal(o.Total)
}

// CreatedAt parses DateCreated. Unparsable or missing dates yield the Unix epoch.
func (o *Order) CreatedAt() time.Time {
	t, ok := ParseTimestamp(o.DateCreated)
	if !ok {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// orderJSON is the wire shape of an order.
type orderJSON struct {
	ID          looseString     `json:"id"`
	Status      looseString     `json:"status"`
	Currency    looseString     `json:"currency"`
	Total       looseString     `json:"total"`
	DateCreated looseString     `json:"date_created"`
	Billing     json.RawMessage `json:"billing"`
	LineItems   json.RawMessage `json:"line_items"`
}

type lineItemJSON struct {
	ID        looseString `json:"id"`
	ProductID looseString `json:"product_id"`
	Name      looseString `json:"name"`
	Quantity  looseString `json:"quantity"`
	Total     looseString `json:"total"`
}

type billingJSON struct {
	FirstName looseString `json:"first_name"`
	LastName  looseString `json:"last_name"`
	Email     looseString `json:"email"`
	Phone     looseString `json:"phone"`
	City      looseString `json:"city"`
	State     looseString `json:"state"`
}

// UnmarshalJSON decodes an order without ever failing on its content.
// Fields that are missing or have an unexpected shape are left empty.
func (o *Order) UnmarshalJSON(data []byte) error {
	*o = Order{Raw: append(json.RawMessage(nil), data...)}

	var aux orderJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	o.ID = string(aux.ID)
	o.Status = string(aux.Status)
	o.Currency = string(aux.Currency)
	o.Total = string(aux.Total)
	o.DateCreated = string(aux.DateCreated)

	var b billingJSON
	if len(aux.Billing) > 0 && json.Unmarshal(aux.Billing, &b) == nil {
		o.Billing = Billing{
			FirstName: string(b.FirstName),
			LastName:  string(b.LastName),
			Email:     string(b.Email),
			Phone:     string(b.Phone),
			City:      string(b.City),
			State:     string(b.State),
		}
	}

	var items []lineItemJSON
	if len(aux.LineItems) > 0 && json.Unmarshal(aux.LineItems, &items) == nil {
		o.LineItems = make([]LineItem, 0, len(items))
		for _, it := range items {
			o.LineItems = append(o.LineItems, LineItem{
				ID:        string(it.ID),
				ProductID: string(it.ProductID),
				Name:      string(it.Name),
				Quantity:  string(it.Quantity),
				Total:     string(it.Total),
			})
		}
	}
	return nil
}

// MarshalJSON re-emits the upstream JSON when available.
func (o Order) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	return json.Marshal(struct {
		ID          string     `json:"id"`
		Status      string     `json:"status,omitempty"`
		Currency    string     `json:"currency,omitempty"`
		Total       string     `json:"total"`
		DateCreated string     `json:"date_created,omitempty"`
		Billing     Billing    `json:"billing"`
		LineItems   []LineItem `json:"line_items,omitempty"`
	}{o.ID, o.Status, o.Currency, o.Total, o.DateCreated, o.Billing, o.LineItems})
}

// Product is a catalog product from the store.
type Product struct {
	ID    string
	Name  string
	Price string

	// Raw is the upstream JSON the product was decoded from.
	Raw json.RawMessage
}

// UnmarshalJSON decodes a product without failing on its content.
func (p *Product) UnmarshalJSON(data []byte) error {
	*p = Product{Raw: append(json.RawMessage(nil), data...)}
	var aux struct {
		ID    looseString `json:"id"`
		Name  looseString `json:"name"`
		Price looseString `json:"price"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}
	p.ID = string(aux.ID)
	p.Name = string(aux.Name)
	p.Price = string(aux.Price)
	return nil
}

// MarshalJSON re-emits the upstream JSON when available.
func (p Product) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Price string `json:"price"`
	}{p.ID, p.Name, p.Price})
}

// looseString accepts a JSON string, number or boolean as text.
// null and structured values decode to the empty string.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			*s = ""
			return nil
		}
		*s = looseString(v)
	case 't', 'f':
		*s = looseString(data)
	case 'n', '{', '[':
		*s = ""
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			*s = ""
			return nil
		}
		*s = looseString(data)
	}
	return nil
}

// ParseDecimal parses a decimal string, returning zero when s is empty or invalid.
func ParseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// timestampLayouts are the date formats the store is known to emit.
// Zone-less values are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an order timestamp in any of the known layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
