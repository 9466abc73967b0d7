package script

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/treenode/hierarchy"
	"github.com/zjrosen/treenode/internal/eventlog"
	"github.com/zjrosen/treenode/internal/log"
	"github.com/zjrosen/treenode/internal/pubsub"
	"github.com/zjrosen/treenode/internal/tracing"
)

// Runner replays a script one step at a time.
type Runner struct {
	script *Script
	tracer trace.Tracer
	pub    pubsub.Publisher[eventlog.Entry]

	forest    *hierarchy.Forest[string]
	nodes     map[string]hierarchy.Node[string]
	recorders []*eventlog.Recorder[string]

	runID  string
	next   int
	report *Report
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracer opens one span per step on t.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = t
	}
}

// WithPublisher republishes every recorded notification on p.
func WithPublisher(p pubsub.Publisher[eventlog.Entry]) Option {
	return func(r *Runner) {
		r.pub = p
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner builds the script's forest: every node detached, validators
// registered and watched nodes observed.
func NewRunner(s *Script, opts ...Option) (*Runner, error) {
	r := &Runner{
		script: s,
		forest: hierarchy.NewForest[string](),
		nodes:  make(map[string]hierarchy.Node[string], len(s.Nodes)+len(s.Foreign)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = tracing.NewRunID()
	}
	r.report = &Report{Script: s.Name, RunID: r.runID}

	for _, name := range s.Nodes {
		r.nodes[name] = r.forest.New(name)
	}
	if len(s.Foreign) > 0 {
		other := hierarchy.NewForest[string]()
		for _, name := range s.Foreign {
			r.nodes[name] = other.New(name)
		}
	}

	for _, def := range s.Validators {
		v, err := buildValidator(def)
		if err != nil {
			return nil, err
		}
		parent, ok := r.nodes[def.Parent]
		if !ok {
			return nil, fmt.Errorf("validator parent %q is not declared", def.Parent)
		}
		parent.AddChildValidator(v)
	}

	for _, name := range s.Watch {
		n, ok := r.nodes[name]
		if !ok {
			return nil, fmt.Errorf("watched node %q is not declared", name)
		}
		r.recorders = append(r.recorders, eventlog.Watch(n, eventlog.ValueNamer, r.pub))
	}

	log.Debug(log.CatScript, "runner ready", "script", s.Name, "run", r.runID,
		"nodes", len(s.Nodes), "steps", len(s.Steps))
	return r, nil
}

// Script returns the script being replayed.
func (r *Runner) Script() *Script { return r.script }

// Forest returns the forest the steps act on.
func (r *Runner) Forest() *hierarchy.Forest[string] { return r.forest }

// RunID identifies this replay.
func (r *Runner) RunID() string { return r.runID }

// Node returns the node declared under name.
func (r *Runner) Node(name string) (hierarchy.Node[string], bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// Position returns the index of the next step to run.
func (r *Runner) Position() int { return r.next }

// Done reports whether every step has run.
func (r *Runner) Done() bool { return r.next >= len(r.script.Steps) }

// Report returns the steps run so far.
func (r *Runner) Report() *Report { return r.report }

// Run executes every remaining step under one run span.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	ctx = tracing.ContextWithRunID(ctx, r.runID)
	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
			attribute.String(tracing.AttrRunID, r.runID),
			attribute.String(tracing.AttrScriptName, r.script.Name),
			attribute.String(tracing.AttrScriptPath, r.script.Path),
			attribute.Int(tracing.AttrStepCount, len(r.script.Steps)),
		))
		defer span.End()
	}

	for {
		_, err := r.Step(ctx)
		if errors.Is(err, ErrDone) {
			break
		}
		if err != nil {
			if span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return r.report, err
		}
	}

	if span != nil {
		if failures := len(r.report.Failures()); failures > 0 {
			span.SetStatus(codes.Error, fmt.Sprintf("%d steps failed", failures))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	log.Info(log.CatScript, "script finished", "script", r.script.Name, "run", r.runID,
		"steps", len(r.report.Steps), "ok", r.report.OK())
	return r.report, nil
}

// Step executes the next step. It returns ErrDone when none is left.
// Operation errors are part of the StepReport, not the returned error.
func (r *Runner) Step(ctx context.Context) (StepReport, error) {
	if err := ctx.Err(); err != nil {
		return StepReport{}, err
	}
	if r.Done() {
		return StepReport{}, ErrDone
	}
	if tracing.RunIDFromContext(ctx) == "" {
		ctx = tracing.ContextWithRunID(ctx, r.runID)
	}

	idx := r.next
	r.next++
	st := r.script.Steps[idx]
	rep := StepReport{Index: idx, Step: st}

	attrs := []attribute.KeyValue{
		attribute.Int(tracing.AttrStepIndex, idx),
		attribute.String(tracing.AttrStepOp, string(st.Op)),
	}
	if st.Parent != "" {
		attrs = append(attrs, attribute.String(tracing.AttrStepParent, st.Parent))
	}
	if st.Child != "" {
		attrs = append(attrs, attribute.String(tracing.AttrStepChild, st.Child))
	}
	if len(st.Children) > 0 {
		attrs = append(attrs, attribute.StringSlice(tracing.AttrStepChildren, st.Children))
	}

	handler := tracing.NewStepMiddleware(r.tracer, fmt.Sprint(idx), attrs...)(
		func(context.Context) (tracing.StepResult, error) {
			r.execute(&rep)
			res := tracing.StepResult{Mismatches: len(rep.Mismatches)}
			if rep.Err != nil && st.ExpectError != "" && rep.Failure == "" {
				res.ExpectedErr = rep.Err
			}
			for _, ev := range rep.Events {
				for _, line := range ev.Lines {
					kind, _, _ := strings.Cut(line, " ")
					res.Notifications = append(res.Notifications, tracing.Notification{
						Observer: ev.Observer, Kind: kind, Line: line,
					})
				}
			}
			if rep.Failure != "" {
				return res, errors.New(rep.Failure)
			}
			return res, nil
		})
	// the handler's error only marks the span; the failure is in the report
	_, _ = handler(ctx)

	r.report.Steps = append(r.report.Steps, rep)
	if !rep.OK() {
		log.Warn(log.CatScript, "step failed", "run", r.runID, "step", idx, "op", st.Op,
			"failure", rep.Failure, "mismatches", len(rep.Mismatches))
	}
	return rep, nil
}

// execute performs the edit and fills in outcome, events and mismatches.
func (r *Runner) execute(rep *StepReport) {
	for _, rec := range r.recorders {
		rec.Reset()
	}

	st := rep.Step
	rep.Changed, rep.Err = r.apply(st)

	for _, rec := range r.recorders {
		rep.Events = append(rep.Events, ObserverEvents{Observer: rec.Label(), Lines: rec.Lines()})
	}

	switch {
	case st.ExpectError != "" && rep.Err == nil:
		rep.Failure = fmt.Sprintf("expected %s error, got none", st.ExpectError)
	case st.ExpectError != "" && !errors.Is(rep.Err, expectedErrors[st.ExpectError]):
		rep.Failure = fmt.Sprintf("expected %s error, got: %v", st.ExpectError, rep.Err)
	case st.ExpectError == "" && rep.Err != nil:
		rep.Failure = fmt.Sprintf("unexpected error: %v", rep.Err)
	case st.ExpectChanged != nil && (rep.Changed == nil || *rep.Changed != *st.ExpectChanged):
		rep.Failure = fmt.Sprintf("expected changed=%t, got %s", *st.ExpectChanged, formatChanged(rep.Changed))
	}

	for _, ev := range rep.Events {
		want, ok := st.Expect[ev.Observer]
		if !ok || slices.Equal(want, ev.Lines) {
			continue
		}
		rep.Mismatches = append(rep.Mismatches, Mismatch{
			Observer: ev.Observer,
			Want:     want,
			Got:      ev.Lines,
			Diff:     lineDiff(want, ev.Lines),
		})
	}
}

func formatChanged(b *bool) string {
	if b == nil {
		return "no result"
	}
	return fmt.Sprintf("changed=%t", *b)
}

// apply runs one edit. An invariant panic from the hierarchy is returned as
// an error; any other panic propagates.
func (r *Runner) apply(st Step) (changed *bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok && errors.Is(e, hierarchy.ErrInvariantViolation) {
				err = e
				return
			}
			panic(p)
		}
	}()

	result := func(b bool) *bool { return &b }
	switch st.Op {
	case OpAddChild:
		ok, e := r.ref(st.Parent).AddChild(r.ref(st.Child))
		return result(ok), e
	case OpAddChildren:
		ok, e := r.ref(st.Parent).AddChildren(r.refs(st.Children)...)
		return result(ok), e
	case OpRemoveChild:
		return result(r.ref(st.Parent).RemoveChild(r.ref(st.Child))), nil
	case OpRemoveChildren:
		return result(r.ref(st.Parent).RemoveChildren(r.refs(st.Children)...)), nil
	case OpClear:
		r.ref(st.Parent).ClearChildren()
		return nil, nil
	case OpSetParent:
		return nil, r.ref(st.Node).SetParent(r.ref(st.Parent))
	case OpDetach:
		return nil, r.ref(st.Node).Detach()
	default:
		return nil, fmt.Errorf("unknown op %q", st.Op)
	}
}

// ref resolves a name; None and unknown names give the zero node.
func (r *Runner) ref(name string) hierarchy.Node[string] {
	return r.nodes[name]
}

func (r *Runner) refs(names []string) []hierarchy.Node[string] {
	out := make([]hierarchy.Node[string], len(names))
	for i, name := range names {
		out[i] = r.ref(name)
	}
	return out
}
