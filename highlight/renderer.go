// Package highlight wraps document ranges in visual marker elements and
// removes them again.
//
// Markers are owned through opaque handles kept in an arena on the Renderer,
// so a record never holds a pointer into the live tree. Every marker carries
// the shared ClassName, which is also how ClearAll finds markers the arena
// does not know about (for example, ones left by an earlier session).
package highlight

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/google/uuid"
)

const (
	// ClassName tags every marker element.
	ClassName = "multi-select-highlight"
	// StyleID is the id of the injected <style> element.
	StyleID = "multi-select-highlight-style"
	// MarkerAttribute holds the marker's handle on the element.
	MarkerAttribute = "data-marker"
	// DefaultColor is used when no valid highlight color is configured.
	DefaultColor = "rgb(219,252,144)"
)

// ErrUnmarkable is returned by Mark when the range cannot be wrapped.
var ErrUnmarkable = errors.New("unmarkable range")

// Handle identifies one marker element owned by a Renderer. The zero Handle
// means "no marker".
type Handle string

// Valid reports whether h refers to a marker at all.
func (h Handle) Valid() bool {
	return h != ""
}

// Renderer marks and unmarks ranges in one document.
type Renderer struct {
	doc     *dom.Document
	markers map[Handle]*dom.Element
	color   string
	logger  *slog.Logger
}

// NewRenderer creates a renderer for doc. A nil logger uses slog.Default().
func NewRenderer(doc *dom.Document, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		doc:     doc,
		markers: make(map[Handle]*dom.Element),
		color:   DefaultColor,
		logger:  logger.With("component", "highlight"),
	}
}

// Mark wraps the contents of r in a new marker element and returns its handle.
// On failure the document is left unchanged.
func (rd *Renderer) Mark(r *dom.Range) (Handle, error) {
	if r == nil {
		return "", fmt.Errorf("%w: range is nil", ErrUnmarkable)
	}
	if r.Collapsed() {
		return "", fmt.Errorf("%w: range is collapsed", ErrUnmarkable)
	}
	if ancestor := r.CommonAncestorContainer(); ancestor == nil || !ancestor.IsConnected() {
		return "", fmt.Errorf("%w: range is not attached to the document", ErrUnmarkable)
	}

	h := Handle(uuid.NewString())
	span := rd.doc.CreateElement("span")
	span.SetClassName(ClassName)
	span.SetAttribute(MarkerAttribute, string(h))

	if err := r.SurroundContents(span.AsNode()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnmarkable, err)
	}

	rd.markers[h] = span
	rd.logger.Debug("marked range", "handle", h, "text", span.TextContent())
	return h, nil
}

// Unmark removes the marker for h, moving its children back into its parent
// and merging the text nodes the wrap split apart. Unknown or already removed
// handles are ignored.
func (rd *Renderer) Unmark(h Handle) {
	el, ok := rd.markers[h]
	if !ok {
		return
	}
	delete(rd.markers, h)
	unwrap(el)
}

// ClearAll removes every marker element in the document, including ones not
// owned by this renderer, and empties the arena. It returns the number of
// elements unwrapped.
func (rd *Renderer) ClearAll() int {
	count := 0
	for _, el := range rd.doc.GetElementsByClassName(ClassName) {
		if unwrap(el) {
			count++
		}
	}
	clear(rd.markers)
	if count > 0 {
		rd.logger.Debug("cleared markers", "count", count)
	}
	return count
}

// unwrap splices el's children into its parent in place of el and merges the
// text nodes touching the spliced span. It reports whether el was still in a
// tree.
func unwrap(el *dom.Element) bool {
	node := el.AsNode()
	parent := node.ParentNode()
	if parent == nil {
		return false
	}
	before, after := node.PreviousSibling(), node.NextSibling()
	for child := node.FirstChild(); child != nil; child = node.FirstChild() {
		parent.InsertBefore(child, node)
	}
	parent.RemoveChild(node)

	first := before
	if first == nil {
		first = parent.FirstChild()
	}
	parent.MergeText(first, after)
	return true
}

// Count returns the number of markers in the arena.
func (rd *Renderer) Count() int {
	return len(rd.markers)
}

// Element returns the marker element for h, or nil.
func (rd *Renderer) Element(h Handle) *dom.Element {
	return rd.markers[h]
}

// Color returns the color of the current highlight rule.
func (rd *Renderer) Color() string {
	return rd.color
}

// ApplyStyle injects the highlight rule into the document head, or rewrites
// the existing rule in place. Invalid colors fall back to DefaultColor. It
// returns the color actually applied.
func (rd *Renderer) ApplyStyle(color string) string {
	color = strings.TrimSpace(color)
	if _, ok := ParseColor(color); !ok {
		if color != "" {
			rd.logger.Warn("invalid highlight color, using default", "color", color)
		}
		color = DefaultColor
	}
	rd.color = color

	style := rd.doc.GetElementById(StyleID)
	if style == nil {
		container := rd.doc.Head()
		if container == nil {
			container = rd.doc.DocumentElement()
		}
		if container == nil {
			rd.logger.Warn("document has no element to hold the highlight style")
			return color
		}
		style = rd.doc.CreateElement("style")
		style.SetId(StyleID)
		container.AsNode().AppendChild(style.AsNode())
	}
	style.SetTextContent(StyleRule(color))
	return color
}

// StyleRule returns the CSS rule that paints markers with color.
func StyleRule(color string) string {
	return fmt.Sprintf(".%s { background: %s !important; border-radius: 3px; color: inherit !important; }", ClassName, color)
}
