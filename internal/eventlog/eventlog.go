// Package eventlog records hierarchy notifications as flat, printable entries
// and optionally republishes them on a pubsub broker.
package eventlog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/treenode/hierarchy"
	"github.com/zjrosen/treenode/internal/pubsub"
)

// Entry is one notification as seen by one watched node.
type Entry struct {
	Kind     pubsub.EventType
	Observer string
	Source   string
	Changed  string
	Children []string

	// Node and NewParent are set for parent changes. NewParent is empty
	// when Node was detached.
	Node      string
	NewParent string

	At time.Time
}

// String renders the entry the way scripts spell expectations.
func (e Entry) String() string {
	switch e.Kind {
	case pubsub.ParentChangedEvent:
		to := e.NewParent
		if to == "" {
			to = "none"
		}
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.Node, to)
	case pubsub.ChildrenAddedEvent, pubsub.ChildrenRemovedEvent:
		return fmt.Sprintf("%s %s [%s]", e.Kind, e.Changed, strings.Join(e.Children, " "))
	default:
		return string(e.Kind)
	}
}

// Forwarded reports whether the change happened below the watched node.
func (e Entry) Forwarded() bool {
	if e.Kind == pubsub.ParentChangedEvent {
		return e.Node != e.Observer
	}
	return e.Source != e.Changed
}

// Namer turns a node into the label used in entries.
type Namer[T any] func(hierarchy.Node[T]) string

// Recorder is a hierarchy.Observer that keeps every notification it receives.
// It is safe to read while another goroutine mutates the forest.
type Recorder[T any] struct {
	label string
	name  Namer[T]
	pub   pubsub.Publisher[Entry]
	now   func() time.Time

	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates a recorder labelled for the node it will watch.
// pub may be nil.
func NewRecorder[T any](label string, name Namer[T], pub pubsub.Publisher[Entry]) *Recorder[T] {
	return &Recorder[T]{
		label: label,
		name:  name,
		pub:   pub,
		now:   time.Now,
	}
}

// Watch registers a new recorder on n.
func Watch[T any](n hierarchy.Node[T], name Namer[T], pub pubsub.Publisher[Entry]) *Recorder[T] {
	r := NewRecorder(name(n), name, pub)
	n.AddObserver(r)
	return r
}

// Label returns the name of the watched node.
func (r *Recorder[T]) Label() string {
	return r.label
}

func (r *Recorder[T]) ChildrenAdded(source, changed hierarchy.Node[T], added []hierarchy.Node[T]) {
	r.record(Entry{
		Kind:     pubsub.ChildrenAddedEvent,
		Source:   r.name(source),
		Changed:  r.name(changed),
		Children: r.names(added),
	})
}

func (r *Recorder[T]) ChildrenRemoved(source, changed hierarchy.Node[T], removed []hierarchy.Node[T]) {
	r.record(Entry{
		Kind:     pubsub.ChildrenRemovedEvent,
		Source:   r.name(source),
		Changed:  r.name(changed),
		Children: r.names(removed),
	})
}

func (r *Recorder[T]) ParentChanged(node, newParent hierarchy.Node[T]) {
	e := Entry{
		Kind: pubsub.ParentChangedEvent,
		Node: r.name(node),
	}
	if !newParent.IsZero() {
		e.NewParent = r.name(newParent)
	}
	r.record(e)
}

func (r *Recorder[T]) record(e Entry) {
	e.Observer = r.label
	e.At = r.now()

	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	if r.pub != nil {
		r.pub.Publish(e.Kind, e)
	}
}

func (r *Recorder[T]) names(ns []hierarchy.Node[T]) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = r.name(n)
	}
	return out
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder[T]) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lines returns the recorded entries rendered with Entry.String.
func (r *Recorder[T]) Lines() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of recorded entries.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Drain returns everything recorded so far and forgets it.
func (r *Recorder[T]) Drain() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder[T]) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// ValueNamer names nodes by their string payload.
func ValueNamer(n hierarchy.Node[string]) string {
	return n.Value()
}
