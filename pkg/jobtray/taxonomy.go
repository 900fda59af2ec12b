package jobtray

import (
	"github.com/hejijunhao/jobtray/internal/engine/taxonomy"
	"github.com/hejijunhao/jobtray/internal/model"
)

// Rule maps a status to the keywords that indicate it.
type Rule struct {
	Status   Status
	Keywords []string
}

// DefaultRules returns the built-in rules in precedence order:
// failed, then finished, then started.
func DefaultRules() []Rule {
	return rulesFromInternal(taxonomy.DefaultRules())
}

// Rules returns the rules this instance classifies with, in precedence order.
func (j *Jobtray) Rules() []Rule {
	return rulesFromInternal(j.taxonomy.Rules())
}

func rulesFromInternal(in []taxonomy.Rule) []Rule {
	out := make([]Rule, len(in))
	for i, r := range in {
		out[i] = Rule{
			Status:   Status(r.Status),
			Keywords: append([]string(nil), r.Keywords...),
		}
	}
	return out
}

func rulesToInternal(in []Rule) []taxonomy.Rule {
	out := make([]taxonomy.Rule, len(in))
	for i, r := range in {
		out[i] = taxonomy.Rule{
			Status:   model.Status(r.Status),
			Keywords: r.Keywords,
		}
	}
	return out
}
