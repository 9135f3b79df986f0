package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one ticket-batch selection. UnitPrice is the price cached at the
// moment the batch was added; the storefront never re-fetches live pricing.
type LineItem struct {
	BatchID     string          `json:"batch_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BatchName   string          `json:"batch_name"`
	SectionName string          `json:"section_name"`
	SectionID   string          `json:"section_id"`
}

// Cart is the per-browser-session cart: an ordered item list plus, once
// synchronized, the server-side reservation identity. Remote fields are only
// set after a successful sync; later local edits do not invalidate them.
type Cart struct {
	Items           []LineItem `json:"items"`
	RemoteCartID    *string    `json:"remote_cart_id"`
	RemoteExpiresAt *time.Time `json:"remote_expires_at"`
}

// AddItem appends the line item, or merges quantities when the batch is
// already present. Non-positive quantities are ignored.
func (c *Cart) AddItem(item LineItem) {
	if item.Quantity < 1 {
		return
	}
	for i := range c.Items {
		if c.Items[i].BatchID == item.BatchID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// RemoveItem drops the matching batch; absent batches are a no-op.
func (c *Cart) RemoveItem(batchID string) {
	for i := range c.Items {
		if c.Items[i].BatchID == batchID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity replaces the quantity in place, preserving position and the
// cached price. Zero or negative quantities remove the item.
func (c *Cart) UpdateQuantity(batchID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(batchID)
		return
	}
	for i := range c.Items {
		if c.Items[i].BatchID == batchID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the items and forgets the remote reservation, so the next
// synchronization treats the cart as new.
func (c *Cart) Clear() {
	c.Items = nil
	c.ClearRemote()
}

// Total sums unit price times quantity over all items, computed fresh on each
// call. Decimal math keeps repeated additions exact.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// TotalQuantity counts individual tickets across all items.
func (c *Cart) TotalQuantity() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// HasRemote reports whether a server-side reservation is attached.
func (c *Cart) HasRemote() bool {
	return c.RemoteCartID != nil
}

// SetRemote records the server-side reservation identity.
func (c *Cart) SetRemote(id string, expiresAt time.Time) {
	c.RemoteCartID = &id
	c.RemoteExpiresAt = &expiresAt
}

// ClearRemote forgets the reservation identity without touching the items.
func (c *Cart) ClearRemote() {
	c.RemoteCartID = nil
	c.RemoteExpiresAt = nil
}
