package jobid

import "regexp"

// DefaultPatterns are tried in order; label-based patterns come before the
// bare "#NNNN" fallback so that unrelated hash numbers lose to an explicit label.
var DefaultPatterns = []string{
	`(?i)job\s+(\d+)`,
	`(?i)job_id\s*[=:]\s*(\d+)`,
	`(?i)jobid\s*[=:]\s*(\d+)`,
	`(?i)slurm[_\s]job[_\s]id\s*[=:]\s*(\d+)`,
	`#(\d{4,})`,
}

// Extractor pulls a numeric job identifier out of free text.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	patterns []*regexp.Regexp
}

// New compiles the given patterns. Each pattern must have exactly one capture group.
func New(patterns []string) (*Extractor, error) {
	e := &Extractor{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		if re.NumSubexp() != 1 {
			return nil, &PatternError{Pattern: p, Groups: re.NumSubexp()}
		}
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

// Default returns an Extractor over DefaultPatterns.
func Default() *Extractor {
	e, err := New(DefaultPatterns)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract returns the first captured group of the first matching pattern.
// ok is false when nothing matched.
func (e *Extractor) Extract(text string) (id string, ok bool) {
	for _, re := range e.patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ExtractFirst tries each text in order and returns the first identifier found.
func (e *Extractor) ExtractFirst(texts ...string) (string, bool) {
	for _, t := range texts {
		if id, ok := e.Extract(t); ok {
			return id, true
		}
	}
	return "", false
}

// PatternError reports a pattern without exactly one capture group.
type PatternError struct {
	Pattern string
	Groups  int
}

func (e *PatternError) Error() string {
	return "jobid: pattern " + e.Pattern + " must have exactly one capture group"
}
