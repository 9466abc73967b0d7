// Package render prints forests, notifications and run transcripts for the
// terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/treenode/hierarchy"
	"github.com/zjrosen/treenode/internal/config"
	"github.com/zjrosen/treenode/internal/eventlog"
	"github.com/zjrosen/treenode/internal/ui/styles"
)

// Glyphs are the branch characters drawn in front of tree rows.
type Glyphs struct {
	Branch string // child with later siblings
	Last   string // last child
	Pipe   string // continuation under a branch
	Space  string // continuation under a last child
	Pass   string
	Fail   string
}

var (
	UnicodeGlyphs = Glyphs{Branch: "├─ ", Last: "└─ ", Pipe: "│  ", Space: "   ", Pass: "✓", Fail: "✗"}
	ASCIIGlyphs   = Glyphs{Branch: "|- ", Last: "`- ", Pipe: "|  ", Space: "   ", Pass: "ok", Fail: "FAIL"}
)

// Options controls rendering.
type Options struct {
	Glyphs  string // "unicode" or "ascii"
	ShowIDs bool
	Color   bool

	// Width truncates every line to this many cells. Zero means no limit.
	Width int
}

// OptionsFrom maps the render section of the config file.
func OptionsFrom(cfg config.RenderConfig) Options {
	return Options{Glyphs: cfg.Glyphs, ShowIDs: cfg.ShowIDs, Color: cfg.Color}
}

type palette struct {
	label    lipgloss.Style
	id       lipgloss.Style
	branch   lipgloss.Style
	observer lipgloss.Style
	added    lipgloss.Style
	removed  lipgloss.Style
	parent   lipgloss.Style
	pass     lipgloss.Style
	fail     lipgloss.Style
	diffAdd  lipgloss.Style
	diffDel  lipgloss.Style
	muted    lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		plain := lipgloss.NewStyle()
		return palette{plain, plain, plain, plain, plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return palette{
		label:    lipgloss.NewStyle().Foreground(styles.TextPrimaryColor),
		id:       lipgloss.NewStyle().Foreground(styles.TextSecondaryColor),
		branch:   lipgloss.NewStyle().Foreground(styles.TextMutedColor),
		observer: lipgloss.NewStyle().Bold(true).Foreground(styles.TextSecondaryColor),
		added:    lipgloss.NewStyle().Foreground(styles.StatusSuccessColor),
		removed:  lipgloss.NewStyle().Foreground(styles.StatusErrorColor),
		parent:   lipgloss.NewStyle().Foreground(styles.StatusWarningColor),
		pass:     lipgloss.NewStyle().Bold(true).Foreground(styles.StatusSuccessColor),
		fail:     lipgloss.NewStyle().Bold(true).Foreground(styles.StatusErrorColor),
		diffAdd:  lipgloss.NewStyle().Foreground(styles.DiffAddedColor),
		diffDel:  lipgloss.NewStyle().Foreground(styles.DiffRemovedColor),
		muted:    styles.MutedStyle,
	}
}

// Renderer turns hierarchy state into terminal text.
type Renderer struct {
	opts   Options
	glyphs Glyphs
	p      palette
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	g := UnicodeGlyphs
	if opts.Glyphs == "ascii" {
		g = ASCIIGlyphs
	}
	return &Renderer{opts: opts, glyphs: g, p: newPalette(opts.Color)}
}

// Options returns the options the renderer was built with.
func (r *Renderer) Options() Options {
	return r.opts
}

// Label renders a node's name, with its handle when ids are shown.
func (r *Renderer) Label(n hierarchy.Node[string]) string {
	if n.IsZero() {
		return r.p.muted.Render("none")
	}
	s := r.p.label.Render(n.Value())
	if r.opts.ShowIDs {
		s += r.p.id.Render(fmt.Sprintf("#%d", n.ID()))
	}
	return s
}

// Forest renders every tree in f, one root after another.
func (r *Renderer) Forest(f *hierarchy.Forest[string]) string {
	var sb strings.Builder
	for _, root := range f.Roots() {
		r.tree(&sb, root)
	}
	return sb.String()
}

// Tree renders the subtree rooted at n.
func (r *Renderer) Tree(n hierarchy.Node[string]) string {
	var sb strings.Builder
	r.tree(&sb, n)
	return sb.String()
}

func (r *Renderer) tree(sb *strings.Builder, root hierarchy.Node[string]) {
	r.line(sb, r.Label(root))
	r.children(sb, root, "")
}

func (r *Renderer) children(sb *strings.Builder, n hierarchy.Node[string], prefix string) {
	kids := n.Children()
	for i, c := range kids {
		branch, cont := r.glyphs.Branch, r.glyphs.Pipe
		if i == len(kids)-1 {
			branch, cont = r.glyphs.Last, r.glyphs.Space
		}
		r.line(sb, r.p.branch.Render(prefix+branch)+r.Label(c))
		r.children(sb, c, prefix+cont)
	}
}

func (r *Renderer) line(sb *strings.Builder, s string) {
	if r.opts.Width > 0 {
		s = styles.TruncateString(s, r.opts.Width)
	}
	sb.WriteString(s)
	sb.WriteString("\n")
}

// Entry renders one notification with its kind styled.
func (r *Renderer) Entry(e eventlog.Entry) string {
	return r.EventLine(e.String())
}
