package restore

import (
	"reflect"
	"testing"

	"github.com/chrisuehlinger/multiselect/dom"
	"github.com/chrisuehlinger/multiselect/highlight"
	"github.com/chrisuehlinger/multiselect/html"
	"github.com/chrisuehlinger/multiselect/locator"
	"github.com/chrisuehlinger/multiselect/selection"
)

const page = `<html><head></head><body><p>alpha one</p><div><p>beta two</p></div></body></html>`

func setup(t *testing.T, src string) (*dom.Document, *selection.Store, *Pipeline) {
	t.Helper()
	doc, err := html.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	codec := locator.NewCodec(doc)
	renderer := highlight.NewRenderer(doc, nil)
	store := selection.NewStore(codec, renderer, nil)
	return doc, store, NewPipeline(codec, renderer, store, nil)
}

func saved(text, path string, start, end int) selection.Saved {
	return selection.Saved{Text: text, Reference: locator.Reference{Path: path, StartOffset: start, EndOffset: end}}
}

func TestRestoreAll_PreservesOrder(t *testing.T) {
	doc, store, p := setup(t, page)

	report := p.RestoreAll([]selection.Saved{
		saved("alpha", "/html[1]/body[1]/p[1]/text()[1]", 0, 5),
		saved("beta", "/html[1]/body[1]/div[1]/p[1]/text()[1]", 0, 4),
	})

	if got := store.Texts(); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("Expected [alpha beta], got %v", got)
	}
	if report.Restored() != 2 || report.Total != 2 {
		t.Errorf("Unexpected report %+v", report)
	}
	for i, rec := range store.Records() {
		if !rec.Highlighted() {
			t.Errorf("Record %d has no marker", i)
		}
	}
	if n := len(doc.GetElementsByClassName(highlight.ClassName)); n != 2 {
		t.Errorf("Expected 2 markers, got %d", n)
	}
}

func TestRestoreAll_PartialFailure(t *testing.T) {
	_, store, p := setup(t, page)

	report := p.RestoreAll([]selection.Saved{
		saved("alpha", "/html[1]/body[1]/p[1]/text()[1]", 0, 5),
		saved("beta", "/html[1]/body[1]/section[1]/p[1]/text()[1]", 0, 4),
	})

	records := store.Records()
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if !records[0].Highlighted() {
		t.Error("First record should be highlighted")
	}
	if records[1].Highlighted() {
		t.Error("Second record should have no marker")
	}
	if records[1].Text != "beta" || records[1].Ref.Path != "/html[1]/body[1]/section[1]/p[1]/text()[1]" {
		t.Errorf("Second record lost its data: %+v", records[1])
	}
	if report.Unresolved != 1 || report.Highlighted != 1 {
		t.Errorf("Unexpected report %+v", report)
	}
}

func TestRestoreAll_TextMismatchStillMarks(t *testing.T) {
	_, store, p := setup(t, page)

	report := p.RestoreAll([]selection.Saved{
		saved("ALPHA", "/html[1]/body[1]/p[1]/text()[1]", 0, 5),
	})
	if report.TextMismatch != 1 || report.Highlighted != 1 {
		t.Errorf("Unexpected report %+v", report)
	}
	if got := store.Texts(); !reflect.DeepEqual(got, []string{"ALPHA"}) {
		t.Errorf("Expected saved text to be kept, got %v", got)
	}
}

func TestRestoreAll_ClearsPreviousMarkers(t *testing.T) {
	doc, store, p := setup(t, `<html><body><p><span class="multi-select-highlight">alpha</span> one</p></body></html>`)

	p.RestoreAll([]selection.Saved{
		saved("alpha", "/html[1]/body[1]/p[1]/text()[1]", 0, 5),
	})

	markers := doc.GetElementsByClassName(highlight.ClassName)
	if len(markers) != 1 {
		t.Fatalf("Expected exactly 1 marker, got %d", len(markers))
	}
	if markers[0].TextContent() != "alpha" {
		t.Errorf("Expected marker over 'alpha', got '%s'", markers[0].TextContent())
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 record, got %d", store.Len())
	}
}

func TestRestoreAll_SameTextNodeInCaptureOrder(t *testing.T) {
	doc, store, p := setup(t, `<html><body><p>Hello World</p></body></html>`)

	// "World" was captured first, then "Hello" from the text node left
	// in front of the first marker.
	report := p.RestoreAll([]selection.Saved{
		saved("World", "/html[1]/body[1]/p[1]/text()[1]", 6, 11),
		saved("Hello", "/html[1]/body[1]/p[1]/text()[1]", 0, 5),
	})
	if report.Highlighted != 2 {
		t.Fatalf("Expected both restored, got %+v", report)
	}
	if got := store.Texts(); !reflect.DeepEqual(got, []string{"World", "Hello"}) {
		t.Errorf("Expected [World Hello], got %v", got)
	}
	if got := doc.Body().TextContent(); got != "Hello World" {
		t.Errorf("Text content changed: '%s'", got)
	}
}
