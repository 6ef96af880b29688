package domain

import (
	"regexp"
	"strings"
	"time"
)

// ShippingProfile is the reusable shipping address of a shopper. All six
// fields are required before an order can be submitted; partially edited
// profiles stay in memory only (saves are suppressed while any field is
// empty).
type ShippingProfile struct {
	FullName   string    `json:"full_name" bson:"full_name"`
	Email      string    `json:"email" bson:"email"`
	Phone      string    `json:"phone" bson:"phone"`
	Address    string    `json:"address" bson:"address"`
	City       string    `json:"city" bson:"city"`
	PostalCode string    `json:"postal_code" bson:"postal_code"`
	UpdatedAt  time.Time `json:"updated_at,omitempty" bson:"updated_at"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Complete reports whether every required field is non-blank. Used to
// suppress debounced saves of half-filled profiles.
func (p ShippingProfile) Complete() bool {
	fields := []string{p.FullName, p.Email, p.Phone, p.Address, p.City, p.PostalCode}
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Validate returns field-level validation failures keyed by field name.
// An empty map means the profile is submittable.
func (p ShippingProfile) Validate() map[string]string {
	problems := make(map[string]string)

	required := map[string]string{
		"full_name":   p.FullName,
		"email":       p.Email,
		"phone":       p.Phone,
		"address":     p.Address,
		"city":        p.City,
		"postal_code": p.PostalCode,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			problems[field] = "required"
		}
	}

	if _, ok := problems["email"]; !ok && !emailPattern.MatchString(p.Email) {
		problems["email"] = "invalid email address"
	}

	return problems
}
