package tracing

// Span attribute keys.
const (
	AttrRunID      = "script.run_id"
	AttrScriptName = "script.name"
	AttrScriptPath = "script.path"
	AttrStepCount  = "script.steps"

	AttrStepIndex    = "step.index"
	AttrStepOp       = "step.op"
	AttrStepParent   = "step.parent"
	AttrStepChild    = "step.child"
	AttrStepChildren = "step.children"
	AttrStepChanged  = "step.changed"

	AttrObserver   = "event.observer"
	AttrEventKind  = "event.kind"
	AttrEventLine  = "event.line"
	AttrEventCount = "event.count"

	AttrErrorMessage = "error.message"
	AttrErrorKind    = "error.kind"
	AttrMismatches   = "expect.mismatches"
)

// Span names.
const (
	SpanRun        = "script.run"
	SpanPrefixStep = "script.step."
)

// Event names for span events.
const (
	EventNotification     = "hierarchy.notification"
	EventExpectedError    = "step.expected_error"
	EventExpectationUnmet = "step.expectation_unmet"
)
