package services

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lacestore/internal/domain"
	"lacestore/internal/repos"
)

var tracer = otel.Tracer("lacestore/internal/services")

// Transactor runs fn in one database transaction carried by ctx.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultBackOff retries a busy store a few times within about two seconds.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return backoff.WithMaxRetries(b, 4)
}

func retryable(err error) bool {
	return repos.IsTransient(err) || repos.IsUniqueViolation(err)
}

// inTx runs fn in a transaction, retrying the whole transaction while the
// failure is retryable. Once retries run out the error also matches
// domain.ErrUnavailable.
func inTx[T any](ctx context.Context, tx Transactor, b backoff.BackOff, fn func(ctx context.Context) (T, error)) (T, error) {
	out, err := backoff.RetryWithData(func() (T, error) {
		var res T
		err := tx.WithTx(ctx, func(ctx context.Context) error {
			var err error
			res, err = fn(ctx)
			return err
		})
		if err != nil && !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithContext(b, ctx))
	if err != nil && retryable(err) {
		err = errors.Join(domain.ErrUnavailable, err)
	}
	return out, err
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
