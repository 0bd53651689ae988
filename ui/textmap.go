package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/highlight"
	"github.com/chrisuehlinger/multiselect/session"
)

// blockTags are the elements shown as one line of text each.
var blockTags = map[string]bool{
	"P": true, "LI": true, "PRE": true, "BLOCKQUOTE": true,
	"H1": true, "H2": true, "H3": true, "H4": true, "H5": true, "H6": true,
	"TD": true, "TH": true, "DT": true, "DD": true, "CAPTION": true, "FIGCAPTION": true,
}

// skipTags are never shown.
var skipTags = map[string]bool{"SCRIPT": true, "STYLE": true, "NOSCRIPT": true, "TEMPLATE": true}

// Segment is a run of text that is either inside a highlight marker or not.
type Segment struct {
	Text        string
	Highlighted bool
}

// Block is one displayed line: a block element and its text.
type Block struct {
	Element  *dom.Element
	Segments []Segment
}

// Text returns the block's full text.
func (b Block) Text() string {
	var sb strings.Builder
	for _, seg := range b.Segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Blocks returns the displayable blocks of doc's body in document order. A
// block nested in another block is folded into the outer one.
func Blocks(doc *dom.Document) []Block {
	body := doc.Body()
	if body == nil {
		return nil
	}
	var blocks []Block
	var walk func(n *dom.Node)
	walk = func(n *dom.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.NodeType() != dom.ElementNode {
				continue
			}
			el := (*dom.Element)(c)
			if skipTags[el.TagName()] || el.Id() == session.NotifyID {
				continue
			}
			if blockTags[el.TagName()] {
				blocks = append(blocks, Block{Element: el, Segments: segments(el)})
				continue
			}
			walk(c)
		}
	}
	walk(body.AsNode())
	return blocks
}

func segments(el *dom.Element) []Segment {
	var out []Segment
	eachText(el, func(text *dom.Node, highlighted bool) bool {
		data := text.NodeValue()
		if data == "" {
			return true
		}
		if n := len(out); n > 0 && out[n-1].Highlighted == highlighted {
			out[n-1].Text += data
		} else {
			out = append(out, Segment{Text: data, Highlighted: highlighted})
		}
		return true
	})
	return out
}

// eachText calls fn for every text node under el in document order, with
// whether the node sits inside a highlight marker. fn returns false to stop.
func eachText(el *dom.Element, fn func(text *dom.Node, highlighted bool) bool) {
	var walk func(n *dom.Node, highlighted bool) bool
	walk = func(n *dom.Node, highlighted bool) bool {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.NodeType() {
			case dom.TextNode:
				if !fn(c, highlighted) {
					return false
				}
			case dom.ElementNode:
				child := (*dom.Element)(c)
				if skipTags[child.TagName()] {
					continue
				}
				if !walk(c, highlighted || child.HasClass(highlight.ClassName)) {
					return false
				}
			}
		}
		return true
	}
	walk(el.AsNode(), false)
}

// PointAt maps a character offset within el's text to a boundary point: a
// text node and a UTF-16 offset inside it. A start point on the boundary
// between two text nodes lands at the beginning of the later one; an end
// point lands at the end of the earlier one. Offsets past the end clamp to
// the end of the last text node.
func PointAt(el *dom.Element, offset int, start bool) (*dom.Node, int, error) {
	var (
		last      *dom.Node
		node      *dom.Node
		nodeStart int
		seen      int
	)
	eachText(el, func(text *dom.Node, _ bool) bool {
		n := utf8.RuneCountInString(text.NodeValue())
		if n == 0 {
			return true
		}
		last = text
		if offset < seen+n || (!start && offset == seen+n) {
			node = text
			nodeStart = seen
			return false
		}
		seen += n
		return true
	})
	if node == nil {
		if last == nil {
			return nil, 0, fmt.Errorf("%s has no text", el.TagName())
		}
		return last, last.Length(), nil
	}

	data := node.NodeValue()
	runes := max(offset-nodeStart, 0)
	return node, dom.UTF16Length(data[:byteIndex(data, runes)]), nil
}

func byteIndex(s string, runes int) int {
	for i := range s {
		if runes == 0 {
			return i
		}
		runes--
	}
	return len(s)
}

// SelectRange makes the characters [start, end) of el's text the document's
// active selection. The bounds may come in either order.
func SelectRange(doc *dom.Document, el *dom.Element, start, end int) error {
	if start > end {
		start, end = end, start
	}
	startNode, startOffset, err := PointAt(el, start, true)
	if err != nil {
		return err
	}
	endNode, endOffset := startNode, startOffset
	if end != start {
		endNode, endOffset, err = PointAt(el, end, false)
		if err != nil {
			return err
		}
	}

	r := doc.CreateRange()
	if err := r.SetStart(startNode, startOffset); err != nil {
		return err
	}
	if err := r.SetEnd(endNode, endOffset); err != nil {
		return err
	}
	sel := doc.GetSelection()
	sel.RemoveAllRanges()
	sel.AddRange(r)
	return nil
}
