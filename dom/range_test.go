package dom

import (
	"testing"
)

func TestRange_SetStartAndEnd(t *testing.T) {
	doc, p := newParagraph(t, "Hello World")
	text := p.AsNode().FirstChild()
	r := doc.CreateRange()

	if err := r.SetStart(text, 0); err != nil {
		t.Fatalf("SetStart failed: %v", err)
	}
	if err := r.SetEnd(text, 5); err != nil {
		t.Fatalf("SetEnd failed: %v", err)
	}
	if r.Collapsed() {
		t.Error("Range should not be collapsed")
	}
	if r.ToString() != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", r.ToString())
	}
	if r.CommonAncestorContainer() != text {
		t.Error("Common ancestor should be the text node")
	}

	if err := r.SetEnd(text, 12); err == nil {
		t.Error("Expected IndexSizeError for offset past the end")
	}

	// Start after end collapses the range
	if err := r.SetStart(text, 8); err != nil {
		t.Fatalf("SetStart failed: %v", err)
	}
	if !r.Collapsed() || r.EndOffset() != 8 {
		t.Errorf("Expected range collapsed at 8, got end %d", r.EndOffset())
	}
}

func TestRange_ToStringAcrossNodes(t *testing.T) {
	doc, p := newParagraph(t, "Hello ")
	b := doc.CreateElement("b")
	b.AsNode().AppendChild(doc.CreateTextNode("bold"))
	p.AsNode().AppendChild(b.AsNode())
	tail := doc.CreateTextNode(" world")
	p.AsNode().AppendChild(tail)

	r := doc.CreateRange()
	r.SetStart(p.AsNode().FirstChild(), 3)
	r.SetEnd(tail, 3)

	if got := r.ToString(); got != "lo bold w" {
		t.Errorf("Expected 'lo bold w', got '%s'", got)
	}
}

func TestRange_SurroundContentsSingleText(t *testing.T) {
	doc, p := newParagraph(t, "Hello World")
	text := p.AsNode().FirstChild()
	r := doc.CreateRange()
	r.SetStart(text, 6)
	r.SetEnd(text, 11)

	span := doc.CreateElement("span")
	if err := r.SurroundContents(span.AsNode()); err != nil {
		t.Fatalf("SurroundContents failed: %v", err)
	}

	if got := p.InnerHTML(); got != "Hello <span>World</span>" {
		t.Errorf("Expected 'Hello <span>World</span>', got '%s'", got)
	}
	if r.StartContainer() != p.AsNode() || r.StartOffset() != 1 || r.EndOffset() != 2 {
		t.Errorf("Expected range to select the span, got (%d, %d)", r.StartOffset(), r.EndOffset())
	}
	if p.TextContent() != "Hello World" {
		t.Errorf("Text content changed: '%s'", p.TextContent())
	}
}

func TestRange_SurroundContentsMiddle(t *testing.T) {
	doc, p := newParagraph(t, "Hello World")
	text := p.AsNode().FirstChild()
	r := doc.CreateRange()
	r.SetStart(text, 2)
	r.SetEnd(text, 5)

	if err := r.SurroundContents(doc.CreateElement("mark").AsNode()); err != nil {
		t.Fatalf("SurroundContents failed: %v", err)
	}
	if got := p.InnerHTML(); got != "He<mark>llo</mark> World" {
		t.Errorf("Expected 'He<mark>llo</mark> World', got '%s'", got)
	}
	if p.AsNode().Length() != 3 {
		t.Errorf("Expected 3 children, got %d", p.AsNode().Length())
	}
}

func TestRange_SurroundContentsSiblingTexts(t *testing.T) {
	doc, p := newParagraph(t, "Hello ")
	b := doc.CreateElement("b")
	b.AsNode().AppendChild(doc.CreateTextNode("bold"))
	p.AsNode().AppendChild(b.AsNode())
	tail := doc.CreateTextNode(" world")
	p.AsNode().AppendChild(tail)

	r := doc.CreateRange()
	r.SetStart(p.AsNode().FirstChild(), 3)
	r.SetEnd(tail, 3)

	if err := r.SurroundContents(doc.CreateElement("span").AsNode()); err != nil {
		t.Fatalf("SurroundContents failed: %v", err)
	}
	want := "Hel<span>lo <b>bold</b> w</span>orld"
	if got := p.InnerHTML(); got != want {
		t.Errorf("Expected '%s', got '%s'", want, got)
	}
}

func TestRange_SurroundContentsPartialElement(t *testing.T) {
	doc, p := newParagraph(t, "Hello ")
	b := doc.CreateElement("b")
	inner := doc.CreateTextNode("bold")
	b.AsNode().AppendChild(inner)
	p.AsNode().AppendChild(b.AsNode())

	r := doc.CreateRange()
	r.SetStart(p.AsNode().FirstChild(), 2)
	r.SetEnd(inner, 2)

	err := r.SurroundContents(doc.CreateElement("span").AsNode())
	if err == nil {
		t.Fatal("Expected InvalidStateError")
	}
	if de, ok := err.(*DOMError); !ok || de.Name != "InvalidStateError" {
		t.Errorf("Expected InvalidStateError, got %v", err)
	}
	if p.InnerHTML() != "Hello <b>bold</b>" {
		t.Errorf("Tree should be unchanged, got '%s'", p.InnerHTML())
	}
}

func TestRange_ExtractContentsPartialElements(t *testing.T) {
	doc := NewHTMLDocument()
	body := doc.Body().AsNode()
	p1 := doc.CreateElement("p")
	t1 := doc.CreateTextNode("first")
	p1.AsNode().AppendChild(t1)
	p2 := doc.CreateElement("p")
	t2 := doc.CreateTextNode("second")
	p2.AsNode().AppendChild(t2)
	body.AppendChild(p1.AsNode())
	body.AppendChild(p2.AsNode())

	r := doc.CreateRange()
	r.SetStart(t1, 2)
	r.SetEnd(t2, 3)

	frag, err := r.ExtractContents()
	if err != nil {
		t.Fatalf("ExtractContents failed: %v", err)
	}
	if got := frag.AsNode().TextContent(); got != "rstsec" {
		t.Errorf("Expected extracted 'rstsec', got '%s'", got)
	}
	if got := doc.Body().InnerHTML(); got != "<p>fi</p><p>ond</p>" {
		t.Errorf("Expected '<p>fi</p><p>ond</p>', got '%s'", got)
	}
	if !r.Collapsed() || r.StartContainer() != body || r.StartOffset() != 1 {
		t.Errorf("Expected range collapsed in body at 1, got %v offset %d", r.StartContainer().NodeName(), r.StartOffset())
	}
}

func TestRange_UTF16Offsets(t *testing.T) {
	doc, p := newParagraph(t, "a😀bc")
	text := p.AsNode().FirstChild()
	r := doc.CreateRange()
	if err := r.SetStart(text, 1); err != nil {
		t.Fatalf("SetStart failed: %v", err)
	}
	if err := r.SetEnd(text, 4); err != nil {
		t.Fatalf("SetEnd failed: %v", err)
	}
	if got := r.ToString(); got != "😀b" {
		t.Errorf("Expected '😀b', got %q", got)
	}
	if err := r.SurroundContents(doc.CreateElement("span").AsNode()); err != nil {
		t.Fatalf("SurroundContents failed: %v", err)
	}
	if got := p.InnerHTML(); got != "a<span>😀b</span>c" {
		t.Errorf("Expected 'a<span>😀b</span>c', got %q", got)
	}
}

func TestSelection(t *testing.T) {
	doc, p := newParagraph(t, "Hello World")
	text := p.AsNode().FirstChild()
	sel := doc.GetSelection()

	if !sel.IsCollapsed() || sel.RangeCount() != 0 {
		t.Error("New selection should be empty")
	}
	if err := sel.SetBaseAndExtent(text, 0, text, 5); err != nil {
		t.Fatalf("SetBaseAndExtent failed: %v", err)
	}
	if sel.ToString() != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", sel.ToString())
	}
	if sel.AnchorNode() != text || sel.FocusNode() != text {
		t.Error("Anchor and focus should be the text node")
	}
	if doc.GetSelection() != sel {
		t.Error("GetSelection should return the same selection")
	}
	sel.RemoveAllRanges()
	if sel.RangeCount() != 0 {
		t.Errorf("Expected 0 ranges, got %d", sel.RangeCount())
	}
	if _, err := sel.GetRangeAt(0); err == nil {
		t.Error("GetRangeAt on an empty selection should fail")
	}
}
