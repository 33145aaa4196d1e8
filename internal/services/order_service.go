package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lacestore/internal/domain"
	"lacestore/internal/events"
	"lacestore/internal/metrics"
)

type orderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	InsertItem(ctx context.Context, it *domain.OrderItem) error
	Get(ctx context.Context, id int64) (domain.Order, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.Status) (bool, error)
	AdjustTotal(ctx context.Context, id int64, delta decimal.Decimal) error
	DeleteItem(ctx context.Context, itemID int64) (domain.OrderItem, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// OrderService turns a cart into an order and manages orders afterwards.
type OrderService struct {
	Tx      Transactor
	Inv     *InventoryService
	Prods   productStore
	Orders  orderStore
	Events  events.Publisher
	Metrics *metrics.Metrics
	Log     *zap.Logger

	Clock      func() time.Time
	NewBackOff func() backoff.BackOff
}

func NewOrderService(tx Transactor, inv *InventoryService, prods productStore, orders orderStore, pub events.Publisher, m *metrics.Metrics) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{
		Tx:         tx,
		Inv:        inv,
		Prods:      prods,
		Orders:     orders,
		Events:     pub,
		Metrics:    m,
		Log:        zap.NewNop(),
		Clock:      time.Now,
		NewBackOff: DefaultBackOff,
	}
}

// Checkout places one PENDING order for the cart. The order, its items and the
// stock decrements commit together or not at all; the cart is cleared only
// after commit.
func (s *OrderService) Checkout(ctx context.Context, userID string, cart *domain.Cart) (order domain.Order, err error) {
	start := time.Now()
	lines := 0
	if cart != nil {
		lines = len(cart.Lines)
	}
	ctx, span := tracer.Start(ctx, "OrderService.Checkout", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("cart.lines", lines),
	))
	defer func() {
		endSpan(span, err)
		s.Metrics.Checkout(checkoutOutcome(err), time.Since(start))
	}()

	if userID == "" {
		return domain.Order{}, domain.Invalid("user", "login required")
	}
	if cart.IsEmpty() {
		return domain.Order{}, domain.Invalid("cart", "empty")
	}
	for _, l := range cart.Lines {
		if err := l.Validate(); err != nil {
			return domain.Order{}, err
		}
	}

	order, err = inTx(ctx, s.Tx, s.NewBackOff(), func(ctx context.Context) (domain.Order, error) {
		return s.place(ctx, userID, cart)
	})
	if err != nil {
		return domain.Order{}, err
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))

	if perr := s.Events.Publish(ctx, events.OrderPlaced{
		Meta:        events.NewMeta(order.CreatedAt),
		OrderID:     order.ID,
		OrderNumber: order.Number,
		UserID:      userID,
		Total:       order.Total,
		Lines:       len(order.Items),
	}); perr != nil {
		s.Log.Error("order_placed_event_failed", zap.Int64("order_id", order.ID), zap.Error(perr))
	}
	cart.Clear()
	return order, nil
}

func (s *OrderService) place(ctx context.Context, userID string, cart *domain.Cart) (domain.Order, error) {
	prices, err := s.Prods.Prices(ctx, cart.ProductIDs())
	if err != nil {
		return domain.Order{}, err
	}
	total, err := cart.Total(prices)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.Clock().UTC()
	o := domain.Order{
		UserID:    userID,
		Number:    domain.OrderNumber(now),
		CreatedAt: now,
		Total:     total,
		Status:    domain.StatusPending,
	}
	if err := s.Orders.Create(ctx, &o); err != nil {
		return domain.Order{}, err
	}

	names := map[int64]string{}
	for _, l := range cart.Lines {
		v, err := s.Inv.Resolve(ctx, l.ProductID, l.Color, l.Size)
		if err != nil {
			return domain.Order{}, err
		}
		name, ok := names[l.ProductID]
		if !ok {
			p, err := s.Prods.Get(ctx, l.ProductID)
			if err != nil {
				return domain.Order{}, err
			}
			name = p.Name
			names[l.ProductID] = name
		}
		price := prices[l.ProductID]
		it := domain.OrderItem{
			OrderID:     o.ID,
			VariantID:   &v.ID,
			ProductID:   l.ProductID,
			ProductName: name,
			Color:       v.Color,
			Size:        v.Size,
			Quantity:    l.Quantity,
			Price:       price,
			Subtotal:    price.Mul(decimal.NewFromInt(int64(l.Quantity))),
		}
		if err := s.Orders.InsertItem(ctx, &it); err != nil {
			return domain.Order{}, err
		}
		if err := s.Inv.Reserve(ctx, v.ID, l.Quantity); err != nil {
			return domain.Order{}, fmt.Errorf("%s %s/%s: %w", name, v.Color, v.Size, err)
		}
		o.Items = append(o.Items, it)
	}
	return o, nil
}

func checkoutOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.As(err, new(*domain.ValidationError)):
		return "invalid"
	}
	return "error"
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.Orders.Get(ctx, id)
}

// GetForUser hides orders of other users behind NotFound.
func (s *OrderService) GetForUser(ctx context.Context, id int64, userID string) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o.UserID != userID {
		return domain.Order{}, domain.NotFound("order", id)
	}
	return o, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

func (s *OrderService) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Orders.ListLatest(ctx, limit)
}

// AdvanceStatus moves an order strictly forward. PAID is reserved for payment
// confirmation and cannot be set by hand.
func (s *OrderService) AdvanceStatus(ctx context.Context, id int64, to domain.Status) error {
	if to == domain.StatusPaid {
		return fmt.Errorf("%w: PAID is set by payment confirmation", domain.ErrInvalidTransition)
	}
	_, err := inTx(ctx, s.Tx, s.NewBackOff(), func(ctx context.Context) (struct{}, error) {
		o, err := s.Orders.Get(ctx, id)
		if err != nil {
			return struct{}{}, err
		}
		if !o.Status.AtLeast(domain.StatusPaid) {
			return struct{}{}, fmt.Errorf("%w: order %d is not paid", domain.ErrInvalidTransition, id)
		}
		if !o.Status.CanAdvanceTo(to) {
			return struct{}{}, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, o.Status, to)
		}
		changed, err := s.Orders.UpdateStatus(ctx, id, o.Status, to)
		if err != nil {
			return struct{}{}, err
		}
		if !changed {
			return struct{}{}, fmt.Errorf("%w: order %d changed concurrently", domain.ErrInvalidTransition, id)
		}
		return struct{}{}, nil
	})
	return err
}

// DeleteItem removes one order line. Subscribers of OrderItemDeleted restore
// stock and the order total in the same transaction.
func (s *OrderService) DeleteItem(ctx context.Context, itemID int64) (domain.OrderItem, error) {
	return inTx(ctx, s.Tx, s.NewBackOff(), func(ctx context.Context) (domain.OrderItem, error) {
		return s.Orders.DeleteItem(ctx, itemID)
	})
}

func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	_, err := inTx(ctx, s.Tx, s.NewBackOff(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Orders.DeleteOrder(ctx, id)
	})
	return err
}
