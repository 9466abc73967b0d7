package render

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/zjrosen/treenode/internal/pubsub"
	"github.com/zjrosen/treenode/internal/script"
	"github.com/zjrosen/treenode/internal/ui/styles"
)

// EventLine styles a notification already rendered as text.
func (r *Renderer) EventLine(line string) string {
	kind, rest, found := strings.Cut(line, " ")
	if !found {
		return line
	}
	switch pubsub.EventType(kind) {
	case pubsub.ChildrenAddedEvent:
		return r.p.added.Render(kind) + " " + rest
	case pubsub.ChildrenRemovedEvent:
		return r.p.removed.Render(kind) + " " + rest
	case pubsub.ParentChangedEvent:
		return r.p.parent.Render(kind) + " " + rest
	}
	return line
}

// Step renders one step outcome: a status line, the notifications each
// watched node received, then any failure and expectation diffs.
func (r *Renderer) Step(rep script.StepReport) string {
	var sb strings.Builder

	mark := r.p.pass.Render(r.glyphs.Pass)
	if !rep.OK() {
		mark = r.p.fail.Render(r.glyphs.Fail)
	}
	head := fmt.Sprintf("%s %d %s", mark, rep.Index+1, rep.Step.String())
	if rep.Changed != nil {
		head += r.p.muted.Render(fmt.Sprintf(" (changed=%t)", *rep.Changed))
	}
	r.line(&sb, head)

	if rep.Err != nil {
		kind := script.ErrorKind(rep.Err)
		if kind == "" {
			kind = "error"
		}
		r.line(&sb, "    "+r.p.muted.Render(kind+": ")+rep.Err.Error())
	}

	width := 0
	for _, ev := range rep.Events {
		if len(ev.Lines) > 0 {
			width = max(width, uniseg.StringWidth(ev.Observer))
		}
	}
	for _, ev := range rep.Events {
		for i, l := range ev.Lines {
			name := ""
			if i == 0 {
				name = ev.Observer
			}
			r.line(&sb, "    "+r.p.observer.Render(styles.PadRight(name, width))+"  "+r.EventLine(l))
		}
	}

	if rep.Failure != "" {
		r.line(&sb, "    "+r.p.fail.Render(rep.Failure))
	}
	for _, m := range rep.Mismatches {
		r.line(&sb, "    "+r.p.fail.Render("unexpected notifications at ")+r.p.observer.Render(m.Observer))
		for _, d := range strings.Split(strings.TrimSuffix(m.Diff, "\n"), "\n") {
			r.line(&sb, "      "+r.diffLine(d))
		}
	}
	return sb.String()
}

func (r *Renderer) diffLine(d string) string {
	switch {
	case strings.HasPrefix(d, "+"):
		return r.p.diffAdd.Render(d)
	case strings.HasPrefix(d, "-"):
		return r.p.diffDel.Render(d)
	}
	return d
}

// Summary renders the one-line verdict of a run.
func (r *Renderer) Summary(rep *script.Report) string {
	failed := len(rep.Failures())
	mark := r.p.pass.Render(r.glyphs.Pass)
	if failed > 0 {
		mark = r.p.fail.Render(r.glyphs.Fail)
	}
	name := rep.Script
	if name == "" {
		name = "script"
	}
	s := fmt.Sprintf("%s %s: %d steps, %d failed", mark, name, len(rep.Steps), failed)
	if rep.RunID != "" {
		s += r.p.muted.Render(" run " + rep.RunID)
	}
	return s
}

// Report renders every step of a run followed by the summary.
func (r *Renderer) Report(rep *script.Report) string {
	var sb strings.Builder
	for _, s := range rep.Steps {
		sb.WriteString(r.Step(s))
	}
	r.line(&sb, r.Summary(rep))
	return sb.String()
}
