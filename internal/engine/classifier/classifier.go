package classifier

import (
	"strings"

	"github.com/hejijunhao/jobtray/internal/engine/taxonomy"
	"github.com/hejijunhao/jobtray/internal/model"
)

// DefaultStatus is returned when no keyword of any rule matches.
const DefaultStatus = model.Started

// Result holds the outcome of classifying a single message.
type Result struct {
	Status  model.Status
	Keyword string // matched keyword; empty when DefaultStatus was applied
}

// Classifier maps free text to a lifecycle status by ordered keyword precedence.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	taxonomy *taxonomy.Taxonomy
}

// New creates a Classifier over the given taxonomy. A nil taxonomy uses the default rules.
func New(tax *taxonomy.Taxonomy) *Classifier {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Classifier{taxonomy: tax}
}

// Classify returns the status of text. Never fails.
func (c *Classifier) Classify(text string) model.Status {
	return c.Explain(text).Status
}

// Explain is Classify plus the keyword that decided the result.
func (c *Classifier) Explain(text string) Result {
	lower := strings.ToLower(text)
	for _, rule := range c.taxonomy.Rules() {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return Result{Status: rule.Status, Keyword: kw}
			}
		}
	}
	return Result{Status: DefaultStatus}
}
