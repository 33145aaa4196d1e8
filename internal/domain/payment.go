package domain

// Notification is a payment provider callback as received, before validation.
type Notification struct {
	PaymentStatus string
	ReceiverEmail string
	Invoice       string
	Gross         string
	Currency      string
	TxnID         string
	Raw           []byte // body as received, replayed for verification
}

type PaymentOutcome string

const (
	PaymentIgnored   PaymentOutcome = "ignored"
	PaymentConfirmed PaymentOutcome = "confirmed"
	PaymentDuplicate PaymentOutcome = "duplicate"
)

// PaymentRequest is the hand-off to the provider's hosted checkout.
type PaymentRequest struct {
	Action       string
	Business     string
	Amount       string
	CurrencyCode string
	ItemName     string
	Invoice      string
	NotifyURL    string
	ReturnURL    string
	CancelURL    string
	Custom       string
}

// Fields lists the form fields in posting order.
func (r PaymentRequest) Fields() [][2]string {
	return [][2]string{
		{"cmd", "_xclick"},
		{"add", "1"},
		{"no_shipping", "2"},
		{"business", r.Business},
		{"amount", r.Amount},
		{"currency_code", r.CurrencyCode},
		{"item_name", r.ItemName},
		{"invoice", r.Invoice},
		{"notify_url", r.NotifyURL},
		{"return", r.ReturnURL},
		{"cancel_return", r.CancelURL},
		{"custom", r.Custom},
	}
}
