package shipping

import (
	"context"
	"errors"

	"github.com/openshop/checkout/internal/domain"
)

// ProfileGateway persists the reusable shipping profile ("address book of
// one"). Consumers define this interface, not the storage implementation.
type ProfileGateway interface {
	// Load returns the stored profile, or ErrProfileNotFound when the
	// shopper has never saved one. Absence is not a failure.
	Load(ctx context.Context, userID string) (*domain.ShippingProfile, error)

	// Save upserts the profile. Failures are non-fatal to callers; the
	// sync layer logs them and keeps accepting edits.
	Save(ctx context.Context, userID string, profile domain.ShippingProfile) error
}

var (
	ErrProfileNotFound   = errors.New("shipping profile not found")
	ErrProfileIncomplete = errors.New("shipping profile has empty required fields")
)
