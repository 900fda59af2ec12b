package jobtray

import "time"

type options struct {
	rules    []Rule
	patterns []string
	now      func() time.Time
}

// Option configures a Jobtray instance.
type Option func(*options)

// WithRules replaces the keyword rules. Rules are checked in order and the
// first rule with a matching keyword wins. Text matching no rule is Started.
func WithRules(rules ...Rule) Option {
	return func(o *options) {
		o.rules = rules
	}
}

// WithJobIDPatterns replaces the identifier patterns. Each is a regular
// expression with exactly one capture group; the first match wins.
func WithJobIDPatterns(patterns ...string) Option {
	return func(o *options) {
		o.patterns = patterns
	}
}

// WithClock sets the timestamp source for NewEvent. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
