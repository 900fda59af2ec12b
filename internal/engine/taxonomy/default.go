package taxonomy

import "github.com/hejijunhao/jobtray/internal/model"

// DefaultRules returns the built-in keyword sets in precedence order:
// failed, then finished, then started. A failure keyword wins over any
// success keyword in the same message.
func DefaultRules() []Rule {
	return []Rule{
		{
			Status:   model.Failed,
			Keywords: []string{"failed", "crashed", "error", "killed", "timeout", "oom", "❌", "abort"},
		},
		{
			Status:   model.Finished,
			Keywords: []string{"finished", "completed", "done", "success", "✅"},
		},
		{
			Status:   model.Started,
			Keywords: []string{"started", "running", "launched", "queued", "beginning", "🚀"},
		},
	}
}
