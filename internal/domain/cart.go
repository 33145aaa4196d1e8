package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine is one add-to-cart action. On the wire it is the 4-element array
// [product_id, color, size, quantity].
type CartLine struct {
	ProductID int64
	Color     string
	Size      string
	Quantity  int
}

func (l CartLine) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{l.ProductID, l.Color, l.Size, l.Quantity})
}

func (l *CartLine) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("cart line: want 4 elements, got %d", len(raw))
	}
	var out CartLine
	if err := json.Unmarshal(raw[0], &out.ProductID); err != nil {
		return fmt.Errorf("cart line product: %w", err)
	}
	if err := json.Unmarshal(raw[1], &out.Color); err != nil {
		return fmt.Errorf("cart line color: %w", err)
	}
	if err := json.Unmarshal(raw[2], &out.Size); err != nil {
		return fmt.Errorf("cart line size: %w", err)
	}
	if err := json.Unmarshal(raw[3], &out.Quantity); err != nil {
		return fmt.Errorf("cart line quantity: %w", err)
	}
	*l = out
	return nil
}

// Validate checks the line is well-formed; it knows nothing of stock.
func (l CartLine) Validate() error {
	switch {
	case l.ProductID <= 0:
		return Invalid("product_id", "must be positive")
	case strings.TrimSpace(l.Color) == "":
		return Invalid("color", "required")
	case strings.TrimSpace(l.Size) == "":
		return Invalid("size", "required")
	case l.Quantity < 1:
		return Invalid("quantity", "must be at least 1")
	}
	return nil
}

// Cart is the per-session list of lines. Lines are never merged: adding the
// same variant twice yields two lines.
type Cart struct {
	Lines []CartLine
}

func (c *Cart) Add(l CartLine) error {
	if err := l.Validate(); err != nil {
		return err
	}
	c.Lines = append(c.Lines, l)
	return nil
}

// Remove drops the line at index; out-of-range indexes are ignored.
func (c *Cart) Remove(index int) {
	if index < 0 || index >= len(c.Lines) {
		return
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
}

// UpdateQuantity overwrites the quantity of one line without a stock check.
func (c *Cart) UpdateQuantity(index, qty int) error {
	if index < 0 || index >= len(c.Lines) {
		return Invalid("index", "no such cart line")
	}
	if qty < 1 {
		return Invalid("quantity", "must be at least 1")
	}
	c.Lines[index].Quantity = qty
	return nil
}

func (c *Cart) Clear() { c.Lines = nil }

func (c *Cart) IsEmpty() bool { return c == nil || len(c.Lines) == 0 }

// ProductIDs returns the product of every line, in line order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// Total sums price(product) * quantity over every line.
func (c *Cart) Total(prices map[int64]decimal.Decimal) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range c.Lines {
		p, ok := prices[l.ProductID]
		if !ok {
			return decimal.Zero, NotFound("product", l.ProductID)
		}
		sum = sum.Add(p.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum, nil
}

func (c Cart) MarshalJSON() ([]byte, error) {
	if c.Lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Lines)
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var lines []CartLine
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	c.Lines = lines
	return nil
}
