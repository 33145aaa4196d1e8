package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

// remember to add new statuses to statusRank
const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
)

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusPaid:      1,
	StatusConfirmed: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

func ToStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; ok {
		return st, nil
	}
	return "", Invalid("status", fmt.Sprintf("unknown order status %q", s))
}

// CanAdvanceTo reports whether next lies strictly ahead of s.
func (s Status) CanAdvanceTo(next Status) bool {
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	n, ok := statusRank[next]
	return ok && n > cur
}

// AtLeast reports whether s has reached other.
func (s Status) AtLeast(other Status) bool { return statusRank[s] >= statusRank[other] }

type Order struct {
	ID        int64           `db:"id"`
	UserID    string          `db:"user_id"`
	Number    string          `db:"order_number"`
	CreatedAt time.Time       `db:"created_at"`
	Total     decimal.Decimal `db:"total"`
	Status    Status          `db:"status"`
	Items     []OrderItem     `db:"-"`
}

// OrderItem snapshots the product, variant and unit price at checkout.
// VariantID is nil once the variant has been removed from the catalog.
type OrderItem struct {
	ID          int64           `db:"id"`
	OrderID     int64           `db:"order_id"`
	VariantID   *int64          `db:"variant_id"`
	ProductID   int64           `db:"product_id"`
	ProductName string          `db:"product_name"`
	Color       string          `db:"color"`
	Size        string          `db:"size"`
	Quantity    int             `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
	Subtotal    decimal.Decimal `db:"subtotal"`
}

func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// OrderNumber formats t as ORD-YYYYMMDDhhmmss followed by six microsecond digits.
func OrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s%06d", t.Format("20060102150405"), t.Nanosecond()/int(time.Microsecond))
}
