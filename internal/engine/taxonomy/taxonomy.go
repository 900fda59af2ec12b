package taxonomy

import (
	"fmt"
	"strings"

	"github.com/hejijunhao/jobtray/internal/model"
)

// Rule maps a lifecycle status to the keywords that indicate it.
// Keywords are matched as lower-case substrings.
type Rule struct {
	Status   model.Status
	Keywords []string
}

// Taxonomy is an ordered list of rules. Earlier rules take precedence.
type Taxonomy struct {
	rules []Rule
}

// New creates a Taxonomy from rules in precedence order. Keywords are
// lower-cased; empty keywords and rules with an invalid status are rejected.
func New(rules []Rule) (*Taxonomy, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !r.Status.Valid() {
			return nil, fmt.Errorf("taxonomy: rule %d has invalid status %q", i, r.Status)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				return nil, fmt.Errorf("taxonomy: rule %d (%s) has an empty keyword", i, r.Status)
			}
			kws = append(kws, kw)
		}
		out = append(out, Rule{Status: r.Status, Keywords: kws})
	}
	return &Taxonomy{rules: out}, nil
}

// Default returns the built-in taxonomy. It cannot fail.
func Default() *Taxonomy {
	t, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return t
}

// Rules returns the rules in precedence order.
func (t *Taxonomy) Rules() []Rule {
	return t.rules
}

// Keywords returns the keywords for the given status, or nil.
func (t *Taxonomy) Keywords(s model.Status) []string {
	for _, r := range t.rules {
		if r.Status == s {
			return r.Keywords
		}
	}
	return nil
}
