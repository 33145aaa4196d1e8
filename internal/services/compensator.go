package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lacestore/internal/events"
	"lacestore/internal/metrics"
)

type totalAdjuster interface {
	AdjustTotal(ctx context.Context, id int64, delta decimal.Decimal) error
}

// Compensator undoes the effects of a deleted order item: the stock goes back
// to the variant and the subtotal comes off the order total. Missing variants
// or orders are logged and skipped; other failures abort the deletion.
type Compensator struct {
	Inv     *InventoryService
	Orders  totalAdjuster
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewCompensator(inv *InventoryService, orders totalAdjuster, m *metrics.Metrics, log *zap.Logger) *Compensator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Compensator{Inv: inv, Orders: orders, Metrics: m, Log: log}
}

// Register subscribes the compensator to item deletions.
func (c *Compensator) Register(s events.Subscriber) {
	events.On(s, events.NameOrderItemDeleted, c.OnItemDeleted)
}

func (c *Compensator) OnItemDeleted(ctx context.Context, e events.OrderItemDeleted) error {
	outcome := "ok"
	defer func() { c.Metrics.Compensation(outcome) }()

	fields := []zap.Field{zap.Int64("item_id", e.ItemID), zap.Int64("order_id", e.OrderID), zap.String("event_id", e.ID)}
	switch {
	case e.VariantID == nil:
		outcome = "skipped"
		c.Log.Warn("compensation_variant_gone", fields...)
	default:
		err := c.Inv.Release(ctx, *e.VariantID, e.Quantity)
		if isNotFound(err) {
			outcome = "skipped"
			c.Log.Warn("compensation_variant_missing", append(fields, zap.Int64("variant_id", *e.VariantID))...)
			break
		}
		if err != nil {
			outcome = "error"
			return fmt.Errorf("restore stock for item %d: %w", e.ItemID, err)
		}
	}

	err := c.Orders.AdjustTotal(ctx, e.OrderID, e.Subtotal.Neg())
	if isNotFound(err) {
		outcome = "skipped"
		c.Log.Warn("compensation_order_missing", fields...)
		return nil
	}
	if err != nil {
		outcome = "error"
		return fmt.Errorf("reduce total of order %d: %w", e.OrderID, err)
	}
	c.Log.Info("stock_compensated", append(fields, zap.Int("quantity", e.Quantity), zap.String("subtotal", e.Subtotal.StringFixed(2)))...)
	return nil
}
