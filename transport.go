package swc

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// transport implements http.RoundTripper and counts requests against rules
// before forwarding them to the underlying transport.
type transport struct {
	counter *Counter
	base    http.RoundTripper
	rules   []Rule
}

// Transport wraps base so that every request matching one of rules is
// counted under the rule's name. The first matching rule wins; unmatched
// requests pass through uncounted. If base is nil, http.DefaultTransport is
// used.
func (c *Counter) Transport(base http.RoundTripper, rules ...Rule) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{counter: c, base: base, rules: rules}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.counter.CheckURL(req.Context(), req.URL, t.rules...); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// CheckURL counts a request to u against the first matching rule and applies
// the rule's strategy. It returns an *AnomalyError when a Block rule sees an
// anomalously high count, and nil for unmatched URLs.
func (c *Counter) CheckURL(ctx context.Context, u *url.URL, rules ...Rule) error {
	r, ok := matchRule(u, rules)
	if !ok {
		return nil
	}

	if _, err := c.Increment(ctx, r.Name, 1); err != nil {
		return err
	}
	if r.Strategy == CountOnly {
		return nil
	}

	res, err := c.DetectAnomaly(ctx, r.Name, r.sensitivity())
	if err != nil {
		return err
	}
	if !res.IsAnomaly() {
		return nil
	}

	if c.onAnomaly != nil {
		c.onAnomaly(r, res)
	}
	if r.Strategy == Block && res.Direction() == DirectionUp {
		c.logger.Warn("blocking request",
			zap.String("rule", r.Name),
			zap.String("host", u.Host),
			zap.Float64("hops", res.Hops()),
		)
		return &AnomalyError{Rule: r, Result: res}
	}
	return nil
}
