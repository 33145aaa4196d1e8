package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"lacestore/internal/domain"
	"lacestore/internal/events"
	"lacestore/internal/metrics"
)

type paymentStore interface {
	Record(ctx context.Context, key string, orderID int64, outcome domain.PaymentOutcome, at time.Time) (bool, error)
	SetOutcome(ctx context.Context, key string, outcome domain.PaymentOutcome) error
}

// Verifier asks the provider whether a notification really came from it.
type Verifier interface {
	Verify(ctx context.Context, raw []byte) (bool, error)
}

type PaymentService struct {
	Tx       Transactor
	Orders   orderStore
	Payments paymentStore
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	// Business is the receiver account every notification must name.
	Business string
	// CheckoutURL is where the payment form posts.
	CheckoutURL string
	// Verifier is optional; without one notifications are trusted as received.
	Verifier Verifier

	Clock      func() time.Time
	NewBackOff func() backoff.BackOff
}

func NewPaymentService(tx Transactor, orders orderStore, payments paymentStore, pub events.Publisher, m *metrics.Metrics, business, checkoutURL string) *PaymentService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &PaymentService{
		Tx:          tx,
		Orders:      orders,
		Payments:    payments,
		Events:      pub,
		Metrics:     m,
		Log:         zap.NewNop(),
		Business:    business,
		CheckoutURL: checkoutURL,
		Clock:       time.Now,
		NewBackOff:  DefaultBackOff,
	}
}

// HandleNotification applies one provider callback. Only a completed payment
// addressed to our account, for the exact rounded order total in USD, moves a
// PENDING order to PAID. Replays are reported as duplicates and change nothing.
func (s *PaymentService) HandleNotification(ctx context.Context, n domain.Notification) (outcome domain.PaymentOutcome, err error) {
	ctx, span := tracer.Start(ctx, "PaymentService.HandleNotification", trace.WithAttributes(
		attribute.String("payment.invoice", n.Invoice),
		attribute.String("payment.txn_id", n.TxnID),
	))
	defer func() {
		span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
		endSpan(span, err)
		s.Metrics.Notification(notificationOutcome(outcome, err))
	}()

	if !strings.EqualFold(strings.TrimSpace(n.PaymentStatus), "completed") {
		s.Log.Info("payment_ignored", zap.String("reason", "status"), zap.String("payment_status", n.PaymentStatus), zap.String("invoice", n.Invoice))
		return domain.PaymentIgnored, nil
	}
	if !strings.EqualFold(strings.TrimSpace(n.ReceiverEmail), s.Business) {
		s.Log.Warn("payment_wrong_receiver", zap.String("kind", "security"), zap.String("receiver_email", n.ReceiverEmail), zap.String("invoice", n.Invoice))
		return domain.PaymentIgnored, nil
	}
	if s.Verifier != nil {
		ok, err := backoff.RetryWithData(func() (bool, error) {
			return s.Verifier.Verify(ctx, n.Raw)
		}, backoff.WithContext(s.NewBackOff(), ctx))
		if err != nil {
			return "", errors.Join(domain.ErrUnavailable, fmt.Errorf("verify notification: %w", err))
		}
		if !ok {
			s.Log.Warn("payment_unverified", zap.String("kind", "security"), zap.String("invoice", n.Invoice), zap.String("txn_id", n.TxnID))
			return domain.PaymentIgnored, nil
		}
	}
	orderID, err := strconv.ParseInt(strings.TrimSpace(n.Invoice), 10, 64)
	if err != nil || orderID <= 0 {
		return "", domain.Invalid("invoice", "must be an order id")
	}

	var paid domain.Order
	outcome, err = inTx(ctx, s.Tx, s.NewBackOff(), func(ctx context.Context) (domain.PaymentOutcome, error) {
		o, err := s.Orders.Get(ctx, orderID)
		if err != nil {
			return "", err
		}
		if err := matchPayment(o, n); err != nil {
			return "", err
		}
		key := dedupKey(n)
		inserted, err := s.Payments.Record(ctx, key, o.ID, domain.PaymentConfirmed, s.Clock())
		if err != nil {
			return "", err
		}
		if !inserted {
			return domain.PaymentDuplicate, nil
		}
		changed, err := s.Orders.UpdateStatus(ctx, o.ID, domain.StatusPending, domain.StatusPaid)
		if err != nil {
			return "", err
		}
		if !changed {
			// a second, distinct notification for an order already paid
			return domain.PaymentDuplicate, s.Payments.SetOutcome(ctx, key, domain.PaymentDuplicate)
		}
		paid = o
		return domain.PaymentConfirmed, nil
	})
	var pve *domain.PaymentValidationError
	if errors.As(err, &pve) {
		s.Log.Warn("payment_mismatch", zap.String("kind", "security"), zap.Int64("order_id", pve.OrderID),
			zap.String("field", pve.Field), zap.String("got", pve.Got), zap.String("want", pve.Want))
	}
	if err != nil {
		return "", err
	}
	if outcome != domain.PaymentConfirmed {
		s.Log.Info("payment_duplicate", zap.Int64("order_id", orderID), zap.String("txn_id", n.TxnID))
		return outcome, nil
	}

	if perr := s.Events.Publish(ctx, events.OrderPaid{
		Meta:        events.NewMeta(s.Clock().UTC()),
		OrderID:     paid.ID,
		OrderNumber: paid.Number,
		Amount:      paid.Total,
		TxnID:       n.TxnID,
	}); perr != nil {
		s.Log.Error("order_paid_event_failed", zap.Int64("order_id", paid.ID), zap.Error(perr))
	}
	return outcome, nil
}

// matchPayment compares the notification against the order: the gross amount
// against the order total rounded half-to-even to whole units, and the
// currency against USD.
func matchPayment(o domain.Order, n domain.Notification) error {
	want := o.Total.RoundBank(0)
	gross, err := decimal.NewFromString(strings.TrimSpace(n.Gross))
	if err != nil || !gross.Equal(want) {
		return &domain.PaymentValidationError{OrderID: o.ID, Field: "mc_gross", Got: n.Gross, Want: want.String()}
	}
	cur, err := currency.ParseISO(strings.TrimSpace(n.Currency))
	if err != nil || cur != currency.USD {
		return &domain.PaymentValidationError{OrderID: o.ID, Field: "mc_currency", Got: n.Currency, Want: currency.USD.String()}
	}
	return nil
}

// dedupKey is the provider transaction id or, lacking one, a digest of the
// fields that identify the payment.
func dedupKey(n domain.Notification) string {
	if id := strings.TrimSpace(n.TxnID); id != "" {
		return "txn:" + id
	}
	h := sha256.New()
	for _, f := range []string{n.PaymentStatus, n.ReceiverEmail, n.Invoice, n.Gross, n.Currency} {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(f))))
		h.Write([]byte{0})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

func notificationOutcome(outcome domain.PaymentOutcome, err error) string {
	var pve *domain.PaymentValidationError
	switch {
	case err == nil:
		return string(outcome)
	case errors.As(err, &pve):
		return "mismatch"
	case errors.Is(err, domain.ErrNotFound):
		return "unknown_order"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	}
	return "error"
}

// InitiationRequest builds the hand-off to the provider's hosted checkout for
// a PENDING order.
func (s *PaymentService) InitiationRequest(o domain.Order, baseURL string) (domain.PaymentRequest, error) {
	if o.Status != domain.StatusPending {
		return domain.PaymentRequest{}, fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, o.ID, o.Status)
	}
	base := strings.TrimRight(baseURL, "/")
	amount := o.Total.StringFixed(2)
	return domain.PaymentRequest{
		Action:       s.CheckoutURL,
		Business:     s.Business,
		Amount:       amount,
		CurrencyCode: currency.USD.String(),
		ItemName:     o.Number,
		Invoice:      strconv.FormatInt(o.ID, 10),
		NotifyURL:    base + "/payments/notify",
		ReturnURL:    base + "/payments/success/" + o.Number + "/" + amount,
		CancelURL:    base + "/payments/canceled",
		Custom:       o.UserID,
	}, nil
}
