// Package script loads YAML descriptions of hierarchy edits, replays them
// against a forest and checks the notifications each watched node receives.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/treenode/hierarchy"
)

// None is the reserved node name for the absent node.
const None = "none"

var (
	// ErrInvalidScript wraps every problem reported by Validate.
	ErrInvalidScript = errors.New("invalid script")

	// ErrDone is returned by Runner.Step once every step has run.
	ErrDone = errors.New("script finished")
)

// Op names a structural edit.
type Op string

const (
	OpAddChild       Op = "add-child"
	OpAddChildren    Op = "add-children"
	OpRemoveChild    Op = "remove-child"
	OpRemoveChildren Op = "remove-children"
	OpClear          Op = "clear"
	OpSetParent      Op = "set-parent"
	OpDetach         Op = "detach"
)

// Script is one parsed scenario.
type Script struct {
	Name       string         `yaml:"name"`
	Nodes      []string       `yaml:"nodes"`
	Foreign    []string       `yaml:"foreign,omitempty"`
	Watch      []string       `yaml:"watch,omitempty"`
	Validators []ValidatorDef `yaml:"validators,omitempty"`
	Steps      []Step         `yaml:"steps"`

	// Path is where the script was loaded from, if anywhere.
	Path string `yaml:"-"`
}

// ValidatorDef attaches a built-in validator to a node.
type ValidatorDef struct {
	Parent   string   `yaml:"parent"`
	Kind     string   `yaml:"kind"`
	Limit    int      `yaml:"limit,omitempty"`
	Children []string `yaml:"children,omitempty"`
}

// Step is one edit plus what it is expected to produce.
type Step struct {
	Op       Op       `yaml:"op"`
	Parent   string   `yaml:"parent,omitempty"`
	Child    string   `yaml:"child,omitempty"`
	Children []string `yaml:"children,omitempty"`
	Node     string   `yaml:"node,omitempty"`

	ExpectError   string              `yaml:"expect_error,omitempty"`
	ExpectChanged *bool               `yaml:"expect_changed,omitempty"`
	Expect        map[string][]string `yaml:"expect,omitempty"`

	// Line is the step's position in the source document.
	Line int `yaml:"-"`
}

var stepFields = []string{
	"op", "parent", "child", "children", "node",
	"expect_error", "expect_changed", "expect",
}

// UnmarshalYAML records the source line of the step. Decoding through a node
// drops the decoder's strictness, so unknown keys are checked here.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i < len(value.Content)-1; i += 2 {
			key := value.Content[i]
			if !slices.Contains(stepFields, key.Value) {
				return fmt.Errorf("line %d: unknown step field %q", key.Line, key.Value)
			}
		}
	}
	type plain Step
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Step(p)
	s.Line = value.Line
	return nil
}

func (s Step) String() string {
	list := "[" + strings.Join(s.Children, " ") + "]"
	switch s.Op {
	case OpAddChild:
		return fmt.Sprintf("%s %s to %s", s.Op, s.Child, s.Parent)
	case OpAddChildren:
		return fmt.Sprintf("%s %s to %s", s.Op, list, s.Parent)
	case OpRemoveChild:
		return fmt.Sprintf("%s %s from %s", s.Op, s.Child, s.Parent)
	case OpRemoveChildren:
		return fmt.Sprintf("%s %s from %s", s.Op, list, s.Parent)
	case OpClear:
		return fmt.Sprintf("%s %s", s.Op, s.Parent)
	case OpSetParent:
		return fmt.Sprintf("%s %s to %s", s.Op, s.Node, s.Parent)
	case OpDetach:
		return fmt.Sprintf("%s %s", s.Op, s.Node)
	default:
		return string(s.Op)
	}
}

// expectedErrors maps expect_error spellings to the errors they match.
var expectedErrors = map[string]error{
	"cycle":       hierarchy.ErrCycle,
	"self-parent": hierarchy.ErrSelfParent,
	"validation":  hierarchy.ErrChildValidation,
	"null":        hierarchy.ErrNullArgument,
	"foreign":     hierarchy.ErrForeignNode,
}

// ErrorKind returns the expect_error spelling matching err, or "" if none
// does.
func ErrorKind(err error) string {
	for _, kind := range []string{"cycle", "self-parent", "validation", "null", "foreign"} {
		if errors.Is(err, expectedErrors[kind]) {
			return kind
		}
	}
	return ""
}

// Parse decodes and validates a script. Unknown fields are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScript)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate reports every problem in the script at once.
func (s *Script) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if len(s.Nodes) == 0 {
		fail("nodes: at least one node is required")
	}
	known := make(map[string]bool, len(s.Nodes)+len(s.Foreign))
	for _, group := range [][]string{s.Nodes, s.Foreign} {
		for _, name := range group {
			switch {
			case name == "":
				fail("nodes: empty name")
			case name == None:
				fail("nodes: %q is reserved", None)
			case known[name]:
				fail("nodes: %q declared twice", name)
			}
			known[name] = true
		}
	}
	local := func(name string) bool {
		return slices.Contains(s.Nodes, name)
	}

	for _, name := range s.Watch {
		if !local(name) {
			fail("watch: unknown node %q", name)
		}
	}

	for i, v := range s.Validators {
		where := fmt.Sprintf("validators[%d]", i)
		if !local(v.Parent) {
			fail("%s: unknown parent %q", where, v.Parent)
		}
		switch v.Kind {
		case "max-children":
			if v.Limit < 0 {
				fail("%s: limit must not be negative", where)
			}
		case "deny":
			if len(v.Children) == 0 {
				fail("%s: deny needs children", where)
			}
		case "leaf-only":
		default:
			fail("%s: unknown kind %q", where, v.Kind)
		}
	}

	ref := func(where, field, name string) {
		switch {
		case name == "":
			fail("%s: %s is required", where, field)
		case name != None && !known[name]:
			fail("%s: unknown %s %q", where, field, name)
		}
	}
	for i, st := range s.Steps {
		where := fmt.Sprintf("steps[%d]", i)
		if st.Line > 0 {
			where = fmt.Sprintf("%s (line %d)", where, st.Line)
		}
		switch st.Op {
		case OpAddChild, OpRemoveChild:
			ref(where, "parent", st.Parent)
			ref(where, "child", st.Child)
		case OpAddChildren, OpRemoveChildren:
			ref(where, "parent", st.Parent)
			for _, c := range st.Children {
				ref(where, "child", c)
			}
		case OpClear:
			ref(where, "parent", st.Parent)
		case OpSetParent:
			ref(where, "node", st.Node)
			ref(where, "parent", st.Parent)
		case OpDetach:
			ref(where, "node", st.Node)
		default:
			fail("%s: unknown op %q", where, st.Op)
		}
		if st.ExpectError != "" {
			if _, ok := expectedErrors[st.ExpectError]; !ok {
				fail("%s: unknown expect_error %q", where, st.ExpectError)
			}
		}
		for _, observer := range slices.Sorted(maps.Keys(st.Expect)) {
			if !slices.Contains(s.Watch, observer) {
				fail("%s: expectation for unwatched node %q", where, observer)
			}
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	return nil
}
