package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullProfile() ShippingProfile {
	return ShippingProfile{
		FullName:   "Nguyen Van A",
		Email:      "a@example.com",
		Phone:      "0900000001",
		Address:    "1 Main St",
		City:       "Hanoi",
		PostalCode: "70000",
	}
}

func TestComplete(t *testing.T) {
	assert.True(t, fullProfile().Complete())

	p := fullProfile()
	p.PostalCode = ""
	assert.False(t, p.Complete())

	p = fullProfile()
	p.City = "   "
	assert.False(t, p.Complete(), "whitespace-only counts as blank")
}

func TestValidate_AllFieldsPresent(t *testing.T) {
	assert.Empty(t, fullProfile().Validate())
}

func TestValidate_MissingFields(t *testing.T) {
	problems := ShippingProfile{Email: "a@example.com"}.Validate()

	assert.Equal(t, "required", problems["full_name"])
	assert.Equal(t, "required", problems["phone"])
	assert.Equal(t, "required", problems["address"])
	assert.Equal(t, "required", problems["city"])
	assert.Equal(t, "required", problems["postal_code"])
	assert.NotContains(t, problems, "email")
}

func TestValidate_EmailFormat(t *testing.T) {
	p := fullProfile()

	for _, bad := range []string{"plain", "a@b", "a b@c.com", "@c.com"} {
		p.Email = bad
		assert.Equal(t, "invalid email address", p.Validate()["email"], "email %q", bad)
	}

	p.Email = "first.last@sub.example.co"
	assert.Empty(t, p.Validate())
}

func TestValidate_MissingEmailReportsRequired(t *testing.T) {
	p := fullProfile()
	p.Email = ""

	assert.Equal(t, map[string]string{"email": "required"}, p.Validate())
}
