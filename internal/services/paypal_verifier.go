package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// PayPalVerifier posts a notification back to PayPal, which answers VERIFIED
// or INVALID.
type PayPalVerifier struct {
	URL     string
	Timeout time.Duration
}

func NewPayPalVerifier(url string) *PayPalVerifier {
	return &PayPalVerifier{URL: url, Timeout: 10 * time.Second}
}

func (v *PayPalVerifier) Verify(ctx context.Context, raw []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	timeout := v.Timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}

	a := fiber.Post(v.URL)
	a.ContentType(fiber.MIMEApplicationForm)
	a.Timeout(timeout)
	a.Body(append([]byte("cmd=_notify-validate&"), raw...))
	if err := a.Parse(); err != nil {
		return false, fmt.Errorf("paypal verify: %w", err)
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return false, fmt.Errorf("paypal verify: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return false, fmt.Errorf("paypal verify: status %d", code)
	}
	return bytes.Equal(bytes.TrimSpace(body), []byte("VERIFIED")), nil
}
