package locator

import (
	"errors"
	"testing"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/html"
)

const page = `<html><head><title>t</title></head><body>` +
	`<div><p>First paragraph.</p><p>Second <b>bold</b> tail text.</p></div>` +
	`<div><p>Other div.</p></div>` +
	`</body></html>`

func mustParse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := html.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func textRange(t *testing.T, doc *dom.Document, node *dom.Node, start, end int) *dom.Range {
	t.Helper()
	r := doc.CreateRange()
	if err := r.SetStart(node, start); err != nil {
		t.Fatalf("SetStart failed: %v", err)
	}
	if err := r.SetEnd(node, end); err != nil {
		t.Fatalf("SetEnd failed: %v", err)
	}
	return r
}

func TestDerive_TextNodePath(t *testing.T) {
	doc := mustParse(t, page)
	second := doc.GetElementsByTagName("p")[1]
	tail := second.AsNode().LastChild()

	ref, err := Derive(textRange(t, doc, tail, 1, 5))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	want := Reference{Path: "/html[1]/body[1]/div[1]/p[2]/text()[2]", StartOffset: 1, EndOffset: 5}
	if ref != want {
		t.Errorf("Expected %v, got %v", want, ref)
	}
}

func TestDerive_SameTagIndexIgnoresOtherTags(t *testing.T) {
	doc := mustParse(t, `<body><span>a</span><p>x</p><span>b</span><p>y</p></body>`)
	p := doc.GetElementsByTagName("p")[1]

	ref, err := Derive(textRange(t, doc, p.AsNode().FirstChild(), 0, 1))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if ref.Path != "/html[1]/body[1]/p[2]/text()[1]" {
		t.Errorf("Unexpected path %s", ref.Path)
	}
}

func TestDerive_ElementGranularityStart(t *testing.T) {
	doc := mustParse(t, page)
	second := doc.GetElementsByTagName("p")[1].AsNode()

	// Start at the <b> element: descend through it to its text.
	r := doc.CreateRange()
	r.SetStart(second, 1)
	r.SetEnd(second.LastChild(), 4)

	ref, err := Derive(r)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	want := Reference{Path: "/html[1]/body[1]/div[1]/p[2]/b[1]/text()[1]", StartOffset: 0, EndOffset: 4}
	if ref != want {
		t.Errorf("Expected %v, got %v", want, ref)
	}

	// Start at the paragraph's first text child.
	r = doc.CreateRange()
	r.SetStart(second, 0)
	r.SetEnd(second, 1)
	ref, err = Derive(r)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if ref.Path != "/html[1]/body[1]/div[1]/p[2]/text()[1]" || ref.EndOffset != 7 {
		t.Errorf("Unexpected reference %v", ref)
	}
}

func TestDerive_ClampsMultiNodeSelection(t *testing.T) {
	doc := mustParse(t, page)
	second := doc.GetElementsByTagName("p")[1].AsNode()
	first := second.FirstChild()

	r := doc.CreateRange()
	r.SetStart(first, 2)
	r.SetEnd(second.LastChild(), 3)

	ref, err := Derive(r)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if ref.StartOffset != 2 || ref.EndOffset != first.Length() {
		t.Errorf("Expected offsets 2..%d, got %d..%d", first.Length(), ref.StartOffset, ref.EndOffset)
	}
}

func TestDerive_Unlocatable(t *testing.T) {
	doc := mustParse(t, `<body><div><img><p>x</p></div></body>`)
	div := doc.GetElementsByTagName("div")[0].AsNode()

	r := doc.CreateRange()
	r.SetStart(div, 0)
	r.SetEnd(div, 2)
	if _, err := Derive(r); !errors.Is(err, ErrUnlocatable) {
		t.Errorf("Expected ErrUnlocatable, got %v", err)
	}

	detached := doc.CreateElement("p")
	text := doc.CreateTextNode("loose")
	detached.AsNode().AppendChild(text)
	if _, err := Derive(textRange(t, doc, text, 0, 2)); !errors.Is(err, ErrUnlocatable) {
		t.Errorf("Expected ErrUnlocatable for detached text, got %v", err)
	}
}

func TestResolve_RoundTrip(t *testing.T) {
	doc := mustParse(t, page)
	tests := []struct {
		name       string
		node       *dom.Node
		start, end int
	}{
		{"first paragraph", doc.GetElementsByTagName("p")[0].AsNode().FirstChild(), 0, 5},
		{"bold", doc.GetElementsByTagName("b")[0].AsNode().FirstChild(), 0, 4},
		{"tail", doc.GetElementsByTagName("p")[1].AsNode().LastChild(), 1, 10},
		{"other div", doc.GetElementsByTagName("p")[2].AsNode().FirstChild(), 6, 10},
		{"empty span", doc.GetElementsByTagName("p")[2].AsNode().FirstChild(), 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := textRange(t, doc, tt.node, tt.start, tt.end)
			text := r.ToString()

			ref, err := Derive(r)
			if err != nil {
				t.Fatalf("Derive failed: %v", err)
			}
			resolved, err := Resolve(doc, ref)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if resolved.StartContainer() != tt.node {
				t.Error("Resolved range is anchored at a different node")
			}
			if !CheckText(resolved, text) {
				t.Errorf("Expected '%s', got '%s'", text, resolved.ToString())
			}
		})
	}
}

func TestResolve_AcrossReload(t *testing.T) {
	doc := mustParse(t, page)
	tail := doc.GetElementsByTagName("p")[1].AsNode().LastChild()
	ref, err := Derive(textRange(t, doc, tail, 1, 5))
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	reloaded := mustParse(t, page)
	r, err := Resolve(reloaded, ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if r.ToString() != "tail" {
		t.Errorf("Expected 'tail', got '%s'", r.ToString())
	}
}

func TestResolve_Failures(t *testing.T) {
	doc := mustParse(t, page)
	tests := []struct {
		name string
		ref  Reference
	}{
		{"missing element", Reference{Path: "/html[1]/body[1]/div[3]/p[1]/text()[1]", EndOffset: 1}},
		{"element not text", Reference{Path: "/html[1]/body[1]/div[1]/p[1]", EndOffset: 1}},
		{"offset past end", Reference{Path: "/html[1]/body[1]/div[1]/p[1]/text()[1]", StartOffset: 2, EndOffset: 99}},
		{"start after end", Reference{Path: "/html[1]/body[1]/div[1]/p[1]/text()[1]", StartOffset: 4, EndOffset: 2}},
		{"negative start", Reference{Path: "/html[1]/body[1]/div[1]/p[1]/text()[1]", StartOffset: -1, EndOffset: 2}},
		{"relative path", Reference{Path: "html[1]/body[1]", EndOffset: 1}},
		{"bad index", Reference{Path: "/html[0]/body[1]/text()[1]", EndOffset: 1}},
		{"text in the middle", Reference{Path: "/html[1]/text()[1]/p[1]", EndOffset: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(doc, tt.ref); !errors.Is(err, ErrUnresolvable) {
				t.Errorf("Expected ErrUnresolvable, got %v", err)
			}
		})
	}
}

func TestResolve_MismatchedTextStillResolves(t *testing.T) {
	doc := mustParse(t, page)
	first := doc.GetElementsByTagName("p")[0].AsNode().FirstChild()
	ref, _ := Derive(textRange(t, doc, first, 0, 5))

	first.SetNodeValue("Altered paragraph.")
	r, err := Resolve(doc, ref)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if CheckText(r, "First") {
		t.Error("Expected a text mismatch")
	}
	if r.ToString() != "Alter" {
		t.Errorf("Expected 'Alter', got '%s'", r.ToString())
	}
}

func TestParsePath(t *testing.T) {
	steps, err := ParsePath("/html/BODY[1]/div[3]/text()[2]")
	if err != nil {
		t.Fatalf("ParsePath failed: %v", err)
	}
	want := []Step{{"html", 1}, {"body", 1}, {"div", 3}, {"text()", 2}}
	if len(steps) != len(want) {
		t.Fatalf("Expected %d steps, got %d", len(want), len(steps))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("Step %d: expected %v, got %v", i, want[i], steps[i])
		}
	}
	if !steps[3].IsText() {
		t.Error("Last step should select text")
	}
}
