package dom

import (
	"strings"
)

// Document represents the root of a DOM tree.
type Document Node

// DocumentFragment is a parentless container for a portion of a tree.
type DocumentFragment Node

// AsNode returns the underlying Node.
func (df *DocumentFragment) AsNode() *Node {
	return (*Node)(df)
}

// NewDocument creates a new empty Document.
func NewDocument() *Document {
	node := newNode(DocumentNode, "#document", nil)
	node.documentData = &documentData{url: "about:blank"}
	doc := (*Document)(node)
	node.ownerDoc = doc
	return doc
}

// NewHTMLDocument creates a document with the html/head/body skeleton.
func NewHTMLDocument() *Document {
	doc := NewDocument()
	htmlEl := doc.CreateElement("html")
	htmlEl.AsNode().AppendChild(doc.CreateElement("head").AsNode())
	htmlEl.AsNode().AppendChild(doc.CreateElement("body").AsNode())
	doc.AsNode().AppendChild(htmlEl.AsNode())
	return doc
}

// AsNode returns the underlying Node.
func (d *Document) AsNode() *Node {
	return (*Node)(d)
}

// URL returns the document's URL.
func (d *Document) URL() string {
	return d.documentData.url
}

// SetURL sets the document's URL.
func (d *Document) SetURL(url string) {
	d.documentData.url = url
}

// DocumentElement returns the root element of the document.
func (d *Document) DocumentElement() *Element {
	for child := d.firstChild; child != nil; child = child.nextSibling {
		if child.nodeType == ElementNode {
			return (*Element)(child)
		}
	}
	return nil
}

// Head returns the head element, or nil.
func (d *Document) Head() *Element {
	return d.rootChild("head")
}

// Body returns the body element, or nil.
func (d *Document) Body() *Element {
	return d.rootChild("body")
}

func (d *Document) rootChild(name string) *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for child := root.firstChild; child != nil; child = child.nextSibling {
		if child.nodeType == ElementNode && (*Element)(child).LocalName() == name {
			return (*Element)(child)
		}
	}
	return nil
}

// CreateElement creates an HTML element with the given tag name.
func (d *Document) CreateElement(tagName string) *Element {
	localName := strings.ToLower(tagName)
	node := newNode(ElementNode, strings.ToUpper(localName), d)
	node.elementData = &elementData{localName: localName}
	return (*Element)(node)
}

// CreateTextNode creates a new Text node.
func (d *Document) CreateTextNode(data string) *Node {
	node := newNode(TextNode, "#text", d)
	node.data = data
	return node
}

// CreateComment creates a new Comment node.
func (d *Document) CreateComment(data string) *Node {
	node := newNode(CommentNode, "#comment", d)
	node.data = data
	return node
}

// CreateDocumentType creates a DocumentType node with the given name.
func (d *Document) CreateDocumentType(name string) *Node {
	return newNode(DocumentTypeNode, name, d)
}

// CreateDocumentFragment creates an empty DocumentFragment.
func (d *Document) CreateDocumentFragment() *DocumentFragment {
	return (*DocumentFragment)(newNode(DocumentFragmentNode, "#document-fragment", d))
}

// GetElementById returns the first element with the given id, or nil.
func (d *Document) GetElementById(id string) *Element {
	found := collectElements(d.AsNode(), func(el *Element) bool {
		return el.Id() == id
	})
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// GetElementsByClassName returns the elements carrying the class token, in
// document order.
func (d *Document) GetElementsByClassName(className string) []*Element {
	return collectElements(d.AsNode(), func(el *Element) bool {
		return el.HasClass(className)
	})
}

// GetElementsByTagName returns the elements with the given local name, in
// document order.
func (d *Document) GetElementsByTagName(name string) []*Element {
	name = strings.ToLower(name)
	return collectElements(d.AsNode(), func(el *Element) bool {
		return name == "*" || el.LocalName() == name
	})
}

// CreateRange creates a new Range collapsed at the start of the document.
func (d *Document) CreateRange() *Range {
	return NewRange(d)
}

// GetSelection returns the document's Selection.
func (d *Document) GetSelection() *Selection {
	if d.documentData.selection == nil {
		d.documentData.selection = NewSelection(d)
	}
	return d.documentData.selection
}

// Serialize returns the HTML serialization of the whole document.
func (d *Document) Serialize() string {
	var sb strings.Builder
	serializeNode(d.AsNode(), &sb)
	return sb.String()
}
