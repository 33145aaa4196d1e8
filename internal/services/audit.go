package services

import (
	"context"

	"go.uber.org/zap"

	"lacestore/internal/events"
	"lacestore/internal/metrics"
)

// AuditSubscriber writes an audit line and counts every order lifecycle event.
type AuditSubscriber struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

func (a AuditSubscriber) Register(s events.Subscriber) {
	events.On(s, events.NameOrderPlaced, func(_ context.Context, e events.OrderPlaced) error {
		a.Metrics.Event(e.EventName())
		a.log().Info("order_placed", zap.String("kind", "audit"), zap.String("event_id", e.ID),
			zap.Int64("order_id", e.OrderID), zap.String("order_number", e.OrderNumber),
			zap.String("user_id", e.UserID), zap.String("total", e.Total.StringFixed(2)), zap.Int("lines", e.Lines))
		return nil
	})
	events.On(s, events.NameOrderPaid, func(_ context.Context, e events.OrderPaid) error {
		a.Metrics.Event(e.EventName())
		a.log().Info("order_paid", zap.String("kind", "audit"), zap.String("event_id", e.ID),
			zap.Int64("order_id", e.OrderID), zap.String("order_number", e.OrderNumber),
			zap.String("amount", e.Amount.StringFixed(2)), zap.String("txn_id", e.TxnID))
		return nil
	})
	events.On(s, events.NameOrderItemDeleted, func(_ context.Context, e events.OrderItemDeleted) error {
		a.Metrics.Event(e.EventName())
		return nil
	})
}

func (a AuditSubscriber) log() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}
