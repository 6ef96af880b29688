package pricing

// Rule is a percent-off-subtotal discount keyed by its code. Codes are
// matched exactly and case-sensitively; there is no expiry or usage-limit
// model.
type Rule struct {
	Code       string
	PercentOff int
}

// Resolver looks up a promo rule by code. Resolve must be side-effect free
// so Compute stays pure; implementations that need I/O keep a refreshed
// in-memory view instead.
type Resolver interface {
	Resolve(code string) (Rule, bool)
}

// StaticResolver resolves promo codes from a fixed in-memory set.
type StaticResolver map[string]Rule

func NewStaticResolver(rules ...Rule) StaticResolver {
	r := make(StaticResolver, len(rules))
	for _, rule := range rules {
		r[rule.Code] = rule
	}
	return r
}

func (r StaticResolver) Resolve(code string) (Rule, bool) {
	rule, ok := r[code]
	return rule, ok
}
