package swc

// Rule routes outgoing HTTP requests to a counter bucket.
type Rule struct {
	Name        string   // bucket key, e.g. "stripe-api"
	Pattern     string   // URL match pattern, e.g. "api.stripe.com/*"
	Strategy    Strategy // CountOnly, LogOnly, Block
	Sensitivity int      // standard deviations tolerated; 0 means DefaultSensitivity
}

func (r Rule) sensitivity() int {
	if r.Sensitivity <= 0 {
		return DefaultSensitivity
	}
	return r.Sensitivity
}
