// Package locator converts live DOM ranges into durable references and back.
//
// A Reference names a text node by its structural path from the document
// root, in the XPath subset the browser's document.evaluate understands
// (/html[1]/body[1]/div[2]/text()[1]), plus a pair of UTF-16 offsets into that
// node. References survive reloads; resolving one is best effort because the
// document may have changed since it was derived.
package locator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chrisuehlinger/multiselect/dom"
)

var (
	// ErrUnlocatable is returned by Derive when no text node anchors the range.
	ErrUnlocatable = errors.New("unlocatable range")
	// ErrUnresolvable is returned by Resolve when the reference no longer
	// matches the document.
	ErrUnresolvable = errors.New("unresolvable reference")
)

// textStep is the step name that selects text node children.
const textStep = "text()"

// Reference is a durable pointer to a span of characters in one text node.
type Reference struct {
	Path        string `json:"xpath" yaml:"xpath"`
	StartOffset int    `json:"startOffset" yaml:"startOffset"`
	EndOffset   int    `json:"endOffset" yaml:"endOffset"`
}

func (r Reference) String() string {
	return fmt.Sprintf("%s[%d:%d]", r.Path, r.StartOffset, r.EndOffset)
}

// Step is one component of a structural path: a tag name (or "text()") and a
// 1-based index among same-named siblings.
type Step struct {
	Name  string
	Index int
}

func (s Step) String() string {
	return fmt.Sprintf("%s[%d]", s.Name, s.Index)
}

// IsText reports whether the step selects a text node.
func (s Step) IsText() bool {
	return s.Name == textStep
}

// Derive builds a Reference for the start of r.
//
// When the range starts at element granularity, Derive descends to the child
// at the start offset, or to that child's first child, looking for a text node
// so that character offsets stay precise. If the range ends in a different
// node than the anchor, the end offset is clamped to the anchor's length:
// selections spanning several text nodes are only partially represented.
func Derive(r *dom.Range) (Reference, error) {
	if r == nil {
		return Reference{}, fmt.Errorf("%w: range is nil", ErrUnlocatable)
	}

	anchor, startOffset := r.StartContainer(), r.StartOffset()
	if anchor.NodeType() != dom.TextNode {
		child := anchor.ChildAt(startOffset)
		switch {
		case child == nil:
			anchor = nil
		case child.NodeType() == dom.TextNode:
			anchor = child
		case child.FirstChild() != nil && child.FirstChild().NodeType() == dom.TextNode:
			anchor = child.FirstChild()
		default:
			anchor = nil
		}
		startOffset = 0
	}
	if anchor == nil {
		return Reference{}, fmt.Errorf("%w: no text node at range start", ErrUnlocatable)
	}
	if !anchor.IsConnected() {
		return Reference{}, fmt.Errorf("%w: anchor is not attached to a document", ErrUnlocatable)
	}

	path, err := PathOf(anchor)
	if err != nil {
		return Reference{}, err
	}

	endOffset := anchor.Length()
	if r.EndContainer() == anchor && r.EndOffset() < endOffset {
		endOffset = r.EndOffset()
	}
	if endOffset < startOffset {
		endOffset = startOffset
	}

	return Reference{Path: path, StartOffset: startOffset, EndOffset: endOffset}, nil
}

// PathOf returns the absolute structural path of node. Text nodes get a
// trailing text()[n] step; any other non-element node is unlocatable.
func PathOf(node *dom.Node) (string, error) {
	var element *dom.Node
	switch node.NodeType() {
	case dom.TextNode:
		element = node.ParentNode()
	case dom.ElementNode:
		element = node
	default:
		return "", fmt.Errorf("%w: cannot build a path to a %s", ErrUnlocatable, node.NodeType())
	}
	if element == nil || element.NodeType() != dom.ElementNode {
		return "", fmt.Errorf("%w: node has no element parent", ErrUnlocatable)
	}

	doc := element.OwnerDocument()
	var body, root *dom.Node
	if doc != nil {
		if b := doc.Body(); b != nil {
			body = b.AsNode()
		}
		if de := doc.DocumentElement(); de != nil {
			root = de.AsNode()
		}
	}

	var steps []string
	current := element
	for current != nil && current != body && current != root && current.NodeType() == dom.ElementNode {
		steps = append(steps, elementStep(current).String())
		current = current.ParentNode()
	}

	var sb strings.Builder
	switch {
	case current != nil && current == body:
		sb.WriteString("/" + Step{Name: localName(root), Index: 1}.String())
		sb.WriteString("/" + Step{Name: "body", Index: 1}.String())
	case current != nil && current == root:
		sb.WriteString("/" + Step{Name: localName(root), Index: 1}.String())
	default:
		return "", fmt.Errorf("%w: node is outside the document element", ErrUnlocatable)
	}
	for i := len(steps) - 1; i >= 0; i-- {
		sb.WriteString("/" + steps[i])
	}

	if node.NodeType() == dom.TextNode {
		index := 1
		for sib := node.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
			if sib.NodeType() == dom.TextNode {
				index++
			}
		}
		sb.WriteString("/" + Step{Name: textStep, Index: index}.String())
	}
	return sb.String(), nil
}

// elementStep computes the step for an element: its local name and 1-based
// position among preceding siblings with the same name.
func elementStep(el *dom.Node) Step {
	name := localName(el)
	index := 1
	for sib := el.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		if sib.NodeType() == dom.ElementNode && localName(sib) == name {
			index++
		}
	}
	return Step{Name: name, Index: index}
}

func localName(n *dom.Node) string {
	return (*dom.Element)(n).LocalName()
}

// ParsePath splits an absolute path into steps. A step without a predicate
// has index 1. A text() step may only appear last.
func ParsePath(path string) ([]Step, error) {
	if !strings.HasPrefix(path, "/") || len(path) < 2 {
		return nil, fmt.Errorf("%w: path %q is not absolute", ErrUnresolvable, path)
	}
	parts := strings.Split(path[1:], "/")
	steps := make([]Step, 0, len(parts))
	for i, part := range parts {
		step, err := parseStep(part)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", ErrUnresolvable, path, err)
		}
		if step.IsText() && i != len(parts)-1 {
			return nil, fmt.Errorf("%w: path %q: text() must be the last step", ErrUnresolvable, path)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(part string) (Step, error) {
	if part == "" {
		return Step{}, errors.New("empty step")
	}
	name, predicate, hasPredicate := strings.Cut(part, "[")
	if name == "" {
		return Step{}, fmt.Errorf("step %q has no name", part)
	}
	step := Step{Name: strings.ToLower(name), Index: 1}
	if !hasPredicate {
		return step, nil
	}
	if !strings.HasSuffix(predicate, "]") {
		return Step{}, fmt.Errorf("step %q has an unterminated predicate", part)
	}
	index, err := strconv.Atoi(strings.TrimSuffix(predicate, "]"))
	if err != nil || index < 1 {
		return Step{}, fmt.Errorf("step %q has an invalid index", part)
	}
	step.Index = index
	return step, nil
}

// Resolve finds the text node named by ref in doc and returns a range over
// its offsets. Callers should compare the range text with the text recorded at
// capture time; see CheckText.
func Resolve(doc *dom.Document, ref Reference) (*dom.Range, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrUnresolvable)
	}
	steps, err := ParsePath(ref.Path)
	if err != nil {
		return nil, err
	}

	node := doc.AsNode()
	for _, step := range steps {
		node = childForStep(node, step)
		if node == nil {
			return nil, fmt.Errorf("%w: %s has no match for %s", ErrUnresolvable, ref.Path, step)
		}
	}
	if node.NodeType() != dom.TextNode {
		return nil, fmt.Errorf("%w: %s does not name a text node", ErrUnresolvable, ref.Path)
	}
	if ref.StartOffset < 0 || ref.StartOffset > ref.EndOffset || ref.EndOffset > node.Length() {
		return nil, fmt.Errorf("%w: offsets %d..%d outside text of length %d",
			ErrUnresolvable, ref.StartOffset, ref.EndOffset, node.Length())
	}

	r := doc.CreateRange()
	if err := r.SetStart(node, ref.StartOffset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	if err := r.SetEnd(node, ref.EndOffset); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	return r, nil
}

// childForStep returns the step.Index-th child of parent matching step.
func childForStep(parent *dom.Node, step Step) *dom.Node {
	seen := 0
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		var match bool
		if step.IsText() {
			match = c.NodeType() == dom.TextNode
		} else {
			match = c.NodeType() == dom.ElementNode && localName(c) == step.Name
		}
		if match {
			seen++
			if seen == step.Index {
				return c
			}
		}
	}
	return nil
}

// CheckText reports whether the resolved range still covers text. A mismatch
// means the document changed since capture; the range remains usable.
func CheckText(r *dom.Range, text string) bool {
	return r != nil && r.ToString() == text
}

// Codec binds Derive and Resolve to one document.
type Codec struct {
	doc *dom.Document
}

// NewCodec returns a Codec for doc.
func NewCodec(doc *dom.Document) *Codec {
	return &Codec{doc: doc}
}

// Derive calls the package-level Derive.
func (c *Codec) Derive(r *dom.Range) (Reference, error) {
	return Derive(r)
}

// Resolve resolves ref against the codec's document.
func (c *Codec) Resolve(ref Reference) (*dom.Range, error) {
	return Resolve(c.doc, ref)
}
