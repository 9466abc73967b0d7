package script

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ObserverEvents is what one watched node received during a step.
type ObserverEvents struct {
	Observer string
	Lines    []string
}

// Mismatch is a watched node whose notifications differ from the
// expectation.
type Mismatch struct {
	Observer string
	Want     []string
	Got      []string
	Diff     string
}

// StepReport is the outcome of one step.
type StepReport struct {
	Index int
	Step  Step

	// Changed is the boolean result of ops that return one.
	Changed *bool
	Err     error

	Events     []ObserverEvents
	Mismatches []Mismatch

	// Failure explains an unmet error or changed expectation.
	Failure string
}

// OK reports whether the step met every expectation.
func (r StepReport) OK() bool {
	return r.Failure == "" && len(r.Mismatches) == 0
}

// EventCount returns the number of notifications across all watched nodes.
func (r StepReport) EventCount() int {
	n := 0
	for _, e := range r.Events {
		n += len(e.Lines)
	}
	return n
}

// Report is the outcome of a whole run.
type Report struct {
	Script string
	RunID  string
	Steps  []StepReport
}

// OK reports whether every step met its expectations.
func (r *Report) OK() bool {
	return len(r.Failures()) == 0
}

// Failures returns the steps that did not meet their expectations.
func (r *Report) Failures() []StepReport {
	var out []StepReport
	for _, s := range r.Steps {
		if !s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// lineDiff renders a line-oriented diff of want against got, prefixing
// removed lines with "-", added lines with "+" and common lines with " ".
func lineDiff(want, got []string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(joinLines(want), joinLines(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}
	return sb.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
