// Package checkout drives the order submission state machine. The
// coordinator is the only component allowed to call the order gateway and
// the only one allowed to clear cart lines as a terminal action.
package checkout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/openshop/checkout/internal/cart"
	"github.com/openshop/checkout/internal/domain"
	"github.com/openshop/checkout/internal/events"
	"github.com/openshop/checkout/internal/gateway"
	"github.com/openshop/checkout/internal/pricing"
	"github.com/openshop/checkout/internal/shipping"
)

// Signal is a navigation instruction for the page-routing layer.
type Signal string

const (
	SignalNone              Signal = ""
	SignalRedirectLogin     Signal = "redirect_login"
	SignalRedirectCart      Signal = "redirect_cart"
	SignalOrderConfirmation Signal = "order_confirmation"
)

// SubmitRequest is one checkout attempt: which promo code to price with
// and which fulfillment path to take.
type SubmitRequest struct {
	PromoCode string
	Method    domain.PaymentMethod
}

// Result is the outcome of a submit attempt. Exactly one of the failure
// surfaces is populated: a navigation signal for precondition misses,
// FieldErrors for local validation, ErrorMessage for gateway rejections.
type Result struct {
	Status       domain.CheckoutStatus
	Signal       Signal
	OrderID      string
	FieldErrors  map[string]string
	ErrorMessage string
}

// Coordinator owns one shopper's checkout attempts. Collaborator failures
// are converted to Result state here; nothing propagates out to crash the
// surrounding surface.
type Coordinator struct {
	cartStore *cart.Store
	profiles  *shipping.Sync
	orders    gateway.OrderGateway
	auth      gateway.AuthSession
	publisher events.Publisher
	rules     pricing.Rules

	mu     sync.Mutex
	status domain.CheckoutStatus
}

func NewCoordinator(
	cartStore *cart.Store,
	profiles *shipping.Sync,
	orders gateway.OrderGateway,
	auth gateway.AuthSession,
	publisher events.Publisher,
	rules pricing.Rules,
) *Coordinator {
	return &Coordinator{
		cartStore: cartStore,
		profiles:  profiles,
		orders:    orders,
		auth:      auth,
		publisher: publisher,
		rules:     rules,
	}
}

// Status reports the current attempt state. Stays Submitting for the whole
// gateway round-trip so a loading indicator has something to observe.
func (c *Coordinator) Status() domain.CheckoutStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == "" {
		return domain.CheckoutStatusIdle
	}
	return c.status
}

// Quote prices the current selection without submitting anything.
func (c *Coordinator) Quote(promoCode string) domain.PricingResult {
	return pricing.Compute(c.cartStore.SelectedItems(), promoCode, c.rules)
}

// Submit runs one checkout attempt end to end. Preconditions surface as
// navigation signals, validation failures as field errors, gateway
// rejections as a blocking message with the cart left untouched. Only a
// confirmed order clears the selected lines.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) (Result, error) {
	if err := c.begin(); err != nil {
		return Result{Status: c.Status()}, err
	}

	// Entry guards are precondition checks, not error states.
	user := c.auth.CurrentUser(ctx)
	if user == nil {
		c.setStatus(domain.CheckoutStatusIdle)
		return Result{Status: domain.CheckoutStatusIdle, Signal: SignalRedirectLogin}, nil
	}

	selected := c.cartStore.SelectedItems()
	if len(selected) == 0 {
		c.setStatus(domain.CheckoutStatusIdle)
		return Result{Status: domain.CheckoutStatusIdle, Signal: SignalRedirectCart}, nil
	}

	profile := c.profiles.Profile()
	if problems := profile.Validate(); len(problems) > 0 {
		c.setStatus(domain.CheckoutStatusIdle)
		return Result{Status: domain.CheckoutStatusIdle, FieldErrors: problems}, nil
	}

	if !req.Method.Valid() {
		c.setStatus(domain.CheckoutStatusIdle)
		return Result{Status: domain.CheckoutStatusIdle}, ErrUnknownPaymentMethod
	}

	if err := c.transition(domain.CheckoutStatusSubmitting); err != nil {
		return Result{Status: c.Status()}, err
	}

	// Await any pending debounced save so the submitted snapshot reflects
	// the latest edit and no in-flight save races the submit.
	if err := c.profiles.FlushPending(ctx); err != nil {
		log.Printf("shipping profile flush failed before submit: %v", err)
	}

	payload := domain.OrderPayload{
		UserID:    user.ID,
		Items:     orderItems(selected),
		Shipping:  c.profiles.Profile(),
		Pricing:   pricing.Compute(selected, req.PromoCode, c.rules),
		Method:    req.Method,
		PlacedAt:  time.Now(),
		PromoCode: req.PromoCode,
	}

	orderID, err := c.orders.Create(ctx, payload)
	if err != nil {
		c.setStatus(domain.CheckoutStatusFailed)
		return Result{
			Status:       domain.CheckoutStatusFailed,
			ErrorMessage: failureMessage(err),
		}, nil
	}

	// Persist the address for next time even though the flush above may
	// already have; a failure here is soft.
	if saveErr := c.profiles.SaveNow(ctx); saveErr != nil && !errors.Is(saveErr, shipping.ErrProfileIncomplete) {
		log.Printf("post-order shipping profile save failed: %v", saveErr)
	}

	// Only the lines the order actually covered leave the cart. Removing
	// by id, not by selection flag, so a line selected while the order
	// call was in flight is not swept out with the purchase.
	c.cartStore.RemoveLines(lineIDs(selected))

	if c.publisher != nil {
		c.publisher.OrderPlaced(ctx, orderID, payload)
	}

	c.setStatus(domain.CheckoutStatusSucceeded)
	return Result{
		Status:  domain.CheckoutStatusSucceeded,
		Signal:  SignalOrderConfirmation,
		OrderID: orderID,
	}, nil
}

// begin starts a fresh attempt. Succeeded and Failed both return to Idle
// first; a concurrent attempt while Submitting is refused.
func (c *Coordinator) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case domain.CheckoutStatusSubmitting:
		return ErrSubmitInProgress
	case domain.CheckoutStatusFailed, domain.CheckoutStatusSucceeded:
		c.status = domain.CheckoutStatusIdle
	case "":
		c.status = domain.CheckoutStatusIdle
	}

	if !domain.CanTransitionTo(c.status, domain.CheckoutStatusValidating) {
		return ErrIllegalTransition
	}
	c.status = domain.CheckoutStatusValidating
	return nil
}

func (c *Coordinator) transition(to domain.CheckoutStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !domain.CanTransitionTo(c.status, to) {
		return ErrIllegalTransition
	}
	c.status = to
	return nil
}

func (c *Coordinator) setStatus(status domain.CheckoutStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

func lineIDs(selected []domain.CartLineItem) []string {
	ids := make([]string, len(selected))
	for i, l := range selected {
		ids[i] = l.ID
	}
	return ids
}

func orderItems(selected []domain.CartLineItem) []domain.OrderItem {
	items := make([]domain.OrderItem, len(selected))
	for i, l := range selected {
		items[i] = domain.OrderItem{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return items
}

func failureMessage(err error) string {
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return genericFailureMessage
}
