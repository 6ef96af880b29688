package domain

import "time"

// PaymentMethod tags the fulfillment path an order takes. The two variants
// are dispatched through one submit entry point so the call sites cannot
// drift apart.
type PaymentMethod string

const (
	PaymentCashOnDelivery  PaymentMethod = "cash_on_delivery"
	PaymentPrepaidRedirect PaymentMethod = "prepaid_redirect"
)

// Valid reports whether the method is one of the two known variants.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentPrepaidRedirect
}

// OrderItem is the {product, quantity} pair the order service expects.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// OrderPayload is everything the order service needs to create an order:
// the selected cart lines reduced to product/quantity pairs, a by-value
// snapshot of the shipping profile (later profile edits must not touch the
// order), the computed pricing, and the payment method tag.
type OrderPayload struct {
	UserID    string          `json:"user_id"`
	Items     []OrderItem     `json:"items"`
	Shipping  ShippingProfile `json:"shipping"`
	Pricing   PricingResult   `json:"pricing"`
	Method    PaymentMethod   `json:"payment_method"`
	PlacedAt  time.Time       `json:"placed_at"`
	PromoCode string          `json:"promo_code,omitempty"`
}

// PricingResult is the derived money breakdown over the selected lines.
// All values are integers in the smallest currency unit.
type PricingResult struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}
