package output

import (
	"golang.org/x/text/unicode/norm"

	"github.com/hejijunhao/jobtray/internal/model"
)

// LabelWidth is the number of message characters shown in a history label.
const LabelWidth = 60

// AppName prefixes the tray tooltip.
const AppName = "HPC Job Monitor"

var glyphs = map[model.Status]string{
	model.Started:  "🔵",
	model.Finished: "🟢",
	model.Failed:   "🔴",
}

var titles = map[model.Status]string{
	model.Started:  "Job Started",
	model.Finished: "Job Finished",
	model.Failed:   "Job Failed",
}

var stateLabels = map[model.Status]string{
	model.Started:  "Running",
	model.Finished: "Finished",
	model.Failed:   "FAILED",
}

// Glyph returns the coloured marker for a status, or a white circle for
// anything else (including the idle state).
func Glyph(s model.Status) string {
	if g, ok := glyphs[s]; ok {
		return g
	}
	return "⚪"
}

// Truncate shortens s to at most n characters, appending "..." when it cut
// anything. A character is a base rune plus any combining marks after it, so
// an accent is never split from the letter it belongs to.
func Truncate(s string, n int) string {
	count := 0
	for i := 0; i < len(s); {
		if count == n {
			return s[:i] + "..."
		}
		adv := norm.NFC.NextBoundaryInString(s[i:], true)
		if adv <= 0 {
			adv = len(s) - i
		}
		i += adv
		count++
	}
	return s
}

// Label renders one history entry: "<glyph> [HH:MM:SS] <message>".
func Label(e model.Event) string {
	return Glyph(e.Status) + " [" + e.Timestamp.Format("15:04:05") + "] " + Truncate(e.Message, LabelWidth)
}

// Title is the desktop notification heading, with the job id when known.
func Title(e model.Event) string {
	t, ok := titles[e.Status]
	if !ok {
		t = "HPC Update"
	}
	if e.HasJobID() {
		t += " — #" + e.JobID
	}
	return t
}

// Tooltip describes the tray state. An empty status means idle.
func Tooltip(s model.Status) string {
	label, ok := stateLabels[s]
	if !ok {
		label = "Idle"
	}
	return AppName + " — " + label
}
