// Package pricing derives money totals over the selected subset of a cart.
// Everything here is pure: the same lines, code and rules always produce
// the same result, so callers may recompute on every read.
package pricing

import "github.com/openshop/checkout/internal/domain"

// Rules are the pricing knobs: the inclusive free-shipping threshold, the
// flat fee below it, and the promo rule source. All money values are
// integers in the smallest currency unit.
type Rules struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	Promos                Resolver
}

// Compute turns the selected lines plus an optional promo code into a
// pricing breakdown. Lines with Selected == false are never counted, so
// the result covers exactly the subset a checkout would submit.
//
// An empty selection prices to all zeros: there is nothing to ship, so the
// flat fee does not apply either. Unknown promo codes yield zero discount
// rather than an error. Fractional discounts truncate toward zero.
func Compute(selected []domain.CartLineItem, promoCode string, rules Rules) domain.PricingResult {
	var subtotal int64
	for _, l := range selected {
		if !l.Selected {
			continue
		}
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	if subtotal == 0 {
		return domain.PricingResult{}
	}

	var shipping int64
	if subtotal < rules.FreeShippingThreshold {
		shipping = rules.FlatShippingFee
	}

	var discount int64
	if promoCode != "" && rules.Promos != nil {
		if rule, ok := rules.Promos.Resolve(promoCode); ok {
			discount = subtotal * int64(rule.PercentOff) / 100
		}
	}

	return domain.PricingResult{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    subtotal + shipping - discount,
	}
}
