package html

import (
	"testing"

	"github.com/chrisuehlinger/multiselect/dom"
)

func TestParse_BasicDocument(t *testing.T) {
	input := `<!DOCTYPE html>
<html>
<head><title>Test</title></head>
<body><p>Hello, World!</p></body>
</html>`

	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.AsNode().FirstChild().NodeType() != dom.DocumentTypeNode {
		t.Errorf("Expected doctype first, got %v", doc.AsNode().FirstChild().NodeType())
	}
	if doc.Head() == nil {
		t.Error("Missing head element")
	}
	if doc.Body() == nil {
		t.Fatal("Missing body element")
	}
	ps := doc.GetElementsByTagName("p")
	if len(ps) != 1 {
		t.Fatalf("Expected 1 paragraph, got %d", len(ps))
	}
	if ps[0].TextContent() != "Hello, World!" {
		t.Errorf("Expected 'Hello, World!', got '%s'", ps[0].TextContent())
	}
	if !ps[0].AsNode().IsConnected() {
		t.Error("Parsed nodes should be connected")
	}
}

func TestParse_Attributes(t *testing.T) {
	doc, err := Parse(`<div id="main" class="a b"><span data-x="1">x</span></div>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	div := doc.GetElementById("main")
	if div == nil {
		t.Fatal("Could not find #main")
	}
	if !div.HasClass("b") {
		t.Error("Expected class 'b'")
	}
	if got := div.InnerHTML(); got != `<span data-x="1">x</span>` {
		t.Errorf("Unexpected inner HTML: %s", got)
	}
}

func TestParse_MalformedHTML(t *testing.T) {
	// HTML5 parser should handle malformed HTML gracefully
	doc, err := Parse(`<p>unclosed paragraph<div>nested div</p></div>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.GetElementsByTagName("div")) != 1 {
		t.Error("Expected the div to survive")
	}
}

func TestParseFragment(t *testing.T) {
	doc, err := Parse(`<body><ul id="list"></ul></body>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	list := doc.GetElementById("list")

	nodes, err := ParseFragment(`<li>one</li><li>two</li>`, list)
	if err != nil {
		t.Fatalf("ParseFragment failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(nodes))
	}
	for _, n := range nodes {
		if n.ParentNode() != nil {
			t.Error("Fragment nodes should be detached")
		}
		list.AsNode().AppendChild(n)
	}
	if got := list.TextContent(); got != "onetwo" {
		t.Errorf("Expected 'onetwo', got '%s'", got)
	}
}
