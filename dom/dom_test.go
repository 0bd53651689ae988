package dom

import (
	"testing"
)

func newParagraph(t *testing.T, texts ...string) (*Document, *Element) {
	t.Helper()
	doc := NewHTMLDocument()
	p := doc.CreateElement("p")
	for _, s := range texts {
		p.AsNode().AppendChild(doc.CreateTextNode(s))
	}
	doc.Body().AsNode().AppendChild(p.AsNode())
	return doc, p
}

func TestNewHTMLDocument(t *testing.T) {
	doc := NewHTMLDocument()

	if doc.DocumentElement() == nil {
		t.Fatal("DocumentElement should not be nil")
	}
	if doc.Head() == nil {
		t.Error("Head should not be nil")
	}
	if doc.Body() == nil {
		t.Error("Body should not be nil")
	}
	if doc.Body().TagName() != "BODY" {
		t.Errorf("Expected tag name 'BODY', got '%s'", doc.Body().TagName())
	}
	if doc.URL() != "about:blank" {
		t.Errorf("Expected URL 'about:blank', got '%s'", doc.URL())
	}
}

func TestNode_AppendAndRemove(t *testing.T) {
	doc, p := newParagraph(t, "a", "b")
	node := p.AsNode()

	if node.Length() != 2 {
		t.Fatalf("Expected 2 children, got %d", node.Length())
	}
	first := node.FirstChild()
	if first.NodeValue() != "a" {
		t.Errorf("Expected first child 'a', got '%s'", first.NodeValue())
	}
	if first.NextSibling() != node.LastChild() {
		t.Error("Sibling links are broken")
	}
	if !first.IsConnected() {
		t.Error("Text node should be connected")
	}

	if _, err := node.RemoveChildWithError(first); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}
	if first.ParentNode() != nil || first.IsConnected() {
		t.Error("Removed node should be detached")
	}
	if node.FirstChild().NodeValue() != "b" {
		t.Errorf("Expected 'b' to become first child, got '%s'", node.FirstChild().NodeValue())
	}

	if _, err := node.RemoveChildWithError(first); err == nil {
		t.Error("Removing a non-child should fail")
	}

	if _, err := doc.AsNode().AppendChildWithError(doc.CreateTextNode("x")); err == nil {
		t.Error("Appending text to a Document should fail")
	}
	if _, err := node.AppendChildWithError(doc.Body().AsNode()); err == nil {
		t.Error("Appending an ancestor should fail")
	}
}

func TestNode_Normalize(t *testing.T) {
	doc, p := newParagraph(t, "Hello", "", " ", "World")
	b := doc.CreateElement("b")
	b.AsNode().AppendChild(doc.CreateTextNode("x"))
	b.AsNode().AppendChild(doc.CreateTextNode("y"))
	p.AsNode().AppendChild(b.AsNode())

	p.AsNode().Normalize()

	if p.AsNode().Length() != 2 {
		t.Fatalf("Expected 2 children after normalize, got %d", p.AsNode().Length())
	}
	if got := p.AsNode().FirstChild().NodeValue(); got != "Hello World" {
		t.Errorf("Expected 'Hello World', got '%s'", got)
	}
	if b.AsNode().Length() != 1 || b.TextContent() != "xy" {
		t.Errorf("Expected nested text merged to 'xy', got %d children '%s'", b.AsNode().Length(), b.TextContent())
	}
}

func TestNode_MergeText(t *testing.T) {
	doc, p := newParagraph(t, "", "a")
	b := doc.CreateElement("b")
	p.AsNode().AppendChild(b.AsNode())
	p.AsNode().AppendChild(doc.CreateTextNode(""))
	p.AsNode().AppendChild(doc.CreateTextNode("c"))
	p.AsNode().AppendChild(doc.CreateTextNode("d"))
	p.AsNode().AppendChild(doc.CreateTextNode(""))

	// Merge from the element through "d": the leading empty node and the
	// trailing one stay.
	children := p.AsNode().ChildNodes()
	p.AsNode().MergeText(children[2], children[5])

	got := p.AsNode().ChildNodes()
	if len(got) != 5 {
		t.Fatalf("Expected 5 children, got %d", len(got))
	}
	if got[0].NodeValue() != "" || got[1].NodeValue() != "a" {
		t.Errorf("Nodes before the span changed: %q %q", got[0].NodeValue(), got[1].NodeValue())
	}
	if got[3].NodeValue() != "cd" {
		t.Errorf("Expected 'cd', got '%s'", got[3].NodeValue())
	}
	if got[4].NodeType() != TextNode || got[4].NodeValue() != "" {
		t.Errorf("Expected the trailing empty node to stay, got %q", got[4].NodeValue())
	}
}

func TestElement_Attributes(t *testing.T) {
	doc := NewHTMLDocument()
	span := doc.CreateElement("SPAN")

	if span.LocalName() != "span" {
		t.Errorf("Expected local name 'span', got '%s'", span.LocalName())
	}
	span.SetClassName("one two")
	span.SetAttribute("Data-Marker", "abc")

	if !span.HasClass("two") || span.HasClass("three") {
		t.Error("HasClass gave the wrong answer")
	}
	if span.GetAttribute("data-marker") != "abc" {
		t.Errorf("Expected attribute 'abc', got '%s'", span.GetAttribute("data-marker"))
	}
	span.RemoveAttribute("data-marker")
	if span.HasAttribute("data-marker") {
		t.Error("Attribute should have been removed")
	}

	doc.Body().AsNode().AppendChild(span.AsNode())
	if got := doc.GetElementsByClassName("one"); len(got) != 1 || got[0] != span {
		t.Errorf("Expected to find the span by class, got %v", got)
	}
	span.SetId("marker")
	if doc.GetElementById("marker") != span {
		t.Error("GetElementById did not find the span")
	}
}

func TestElement_OuterHTML(t *testing.T) {
	doc, p := newParagraph(t, "a < b")
	br := doc.CreateElement("br")
	p.AsNode().AppendChild(br.AsNode())
	p.SetAttribute("title", `say "hi"`)

	want := `<p title="say &#34;hi&#34;">a &lt; b<br></p>`
	if got := p.OuterHTML(); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestText_SplitText(t *testing.T) {
	_, p := newParagraph(t, "Hello World")
	text := (*Text)(p.AsNode().FirstChild())

	tail, err := text.SplitText(5)
	if err != nil {
		t.Fatalf("SplitText failed: %v", err)
	}
	if text.Data() != "Hello" || tail.Data() != " World" {
		t.Errorf("Expected 'Hello' + ' World', got '%s' + '%s'", text.Data(), tail.Data())
	}
	if text.AsNode().NextSibling() != tail.AsNode() {
		t.Error("Split node should follow the original")
	}
	if _, err := text.SplitText(99); err == nil {
		t.Error("Expected IndexSizeError for out of range offset")
	}
}

func TestUTF16(t *testing.T) {
	s := "a😀b"
	if UTF16Length(s) != 4 {
		t.Errorf("Expected UTF-16 length 4, got %d", UTF16Length(s))
	}
	if got := UTF16Slice(s, 1, 3); got != "😀" {
		t.Errorf("Expected emoji, got %q", got)
	}
	if got := UTF16OffsetToByteOffset(s, 3); got != 5 {
		t.Errorf("Expected byte offset 5, got %d", got)
	}
	if got := UTF16OffsetToByteOffset(s, 9); got != -1 {
		t.Errorf("Expected -1 for out of range offset, got %d", got)
	}
}
