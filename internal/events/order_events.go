package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	NameOrderPlaced      = "order.placed"
	NameOrderPaid        = "order.paid"
	NameOrderItemDeleted = "order.item_deleted"
)

// Meta identifies one occurrence of an event.
type Meta struct {
	ID string
	At time.Time
}

func NewMeta(at time.Time) Meta { return Meta{ID: uuid.NewString(), At: at} }

type OrderPlaced struct {
	Meta
	OrderID     int64
	OrderNumber string
	UserID      string
	Total       decimal.Decimal
	Lines       int
}

func (OrderPlaced) EventName() string { return NameOrderPlaced }

type OrderPaid struct {
	Meta
	OrderID     int64
	OrderNumber string
	Amount      decimal.Decimal
	TxnID       string
}

func (OrderPaid) EventName() string { return NameOrderPaid }

// OrderItemDeleted is raised inside the deleting transaction, after the row is
// gone. VariantID is nil when the variant no longer exists.
type OrderItemDeleted struct {
	Meta
	ItemID    int64
	OrderID   int64
	VariantID *int64
	Quantity  int
	Subtotal  decimal.Decimal
}

func (OrderItemDeleted) EventName() string { return NameOrderItemDeleted }
