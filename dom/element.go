package dom

import (
	"html"
	"strings"
)

// Element represents an element in the DOM.
type Element Node

// elementData holds data specific to Element nodes.
type elementData struct {
	localName  string
	attributes []Attr
}

// Attr is a single name/value attribute on an element.
type Attr struct {
	Name  string
	Value string
}

// AsNode returns the underlying Node.
func (e *Element) AsNode() *Node {
	return (*Node)(e)
}

// TagName returns the tag name of the element in uppercase.
func (e *Element) TagName() string {
	return e.nodeName
}

// LocalName returns the lowercase local name of the element.
func (e *Element) LocalName() string {
	return e.elementData.localName
}

// Attributes returns a copy of the element's attributes in document order.
func (e *Element) Attributes() []Attr {
	return append([]Attr(nil), e.elementData.attributes...)
}

// GetAttribute returns the value of the named attribute, or "" if absent.
func (e *Element) GetAttribute(name string) string {
	value, _ := e.lookupAttribute(name)
	return value
}

// HasAttribute reports whether the element has the named attribute.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.lookupAttribute(name)
	return ok
}

func (e *Element) lookupAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, attr := range e.elementData.attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// SetAttribute sets the value of the named attribute, adding it if absent.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	for i := range e.elementData.attributes {
		if e.elementData.attributes[i].Name == name {
			e.elementData.attributes[i].Value = value
			return
		}
	}
	e.elementData.attributes = append(e.elementData.attributes, Attr{Name: name, Value: value})
}

// RemoveAttribute removes the named attribute.
func (e *Element) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	attrs := e.elementData.attributes
	for i := range attrs {
		if attrs[i].Name == name {
			e.elementData.attributes = append(attrs[:i], attrs[i+1:]...)
			return
		}
	}
}

// Id returns the element's id attribute.
func (e *Element) Id() string {
	return e.GetAttribute("id")
}

// SetId sets the element's id attribute.
func (e *Element) SetId(id string) {
	e.SetAttribute("id", id)
}

// ClassName returns the element's class attribute.
func (e *Element) ClassName() string {
	return e.GetAttribute("class")
}

// SetClassName sets the element's class attribute.
func (e *Element) SetClassName(className string) {
	e.SetAttribute("class", className)
}

// HasClass reports whether the class attribute contains the given token.
func (e *Element) HasClass(token string) bool {
	for _, c := range strings.Fields(e.ClassName()) {
		if c == token {
			return true
		}
	}
	return false
}

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if parent := e.parentNode; parent != nil {
		parent.removeChildInternal(e.AsNode())
	}
}

// TextContent returns the concatenated text of the element's descendants.
func (e *Element) TextContent() string {
	return e.AsNode().TextContent()
}

// SetTextContent replaces the element's children with a single text node.
func (e *Element) SetTextContent(text string) {
	e.AsNode().SetTextContent(text)
}

// GetElementsByClassName returns the descendant elements carrying the class
// token, in document order.
func (e *Element) GetElementsByClassName(className string) []*Element {
	return collectElements(e.AsNode(), func(el *Element) bool {
		return el.HasClass(className)
	})
}

// GetElementsByTagName returns the descendant elements with the given local
// name, in document order.
func (e *Element) GetElementsByTagName(name string) []*Element {
	name = strings.ToLower(name)
	return collectElements(e.AsNode(), func(el *Element) bool {
		return name == "*" || el.LocalName() == name
	})
}

// collectElements walks the descendants of root in tree order.
func collectElements(root *Node, match func(*Element) bool) []*Element {
	var result []*Element
	var walk func(n *Node)
	walk = func(n *Node) {
		for child := n.firstChild; child != nil; child = child.nextSibling {
			if child.nodeType == ElementNode {
				el := (*Element)(child)
				if match(el) {
					result = append(result, el)
				}
				walk(child)
			}
		}
	}
	walk(root)
	return result
}

// InnerHTML serializes the element's children.
func (e *Element) InnerHTML() string {
	var sb strings.Builder
	for child := e.firstChild; child != nil; child = child.nextSibling {
		serializeNode(child, &sb)
	}
	return sb.String()
}

// OuterHTML serializes the element and its children.
func (e *Element) OuterHTML() string {
	var sb strings.Builder
	serializeNode(e.AsNode(), &sb)
	return sb.String()
}

func serializeNode(n *Node, sb *strings.Builder) {
	switch n.nodeType {
	case TextNode:
		if p := n.ParentElement(); p != nil && isRawTextElement(p.LocalName()) {
			sb.WriteString(n.data)
			return
		}
		sb.WriteString(html.EscapeString(n.data))
	case CommentNode:
		sb.WriteString("<!--")
		sb.WriteString(n.data)
		sb.WriteString("-->")
	case DocumentTypeNode:
		sb.WriteString("<!DOCTYPE ")
		sb.WriteString(n.nodeName)
		sb.WriteString(">")
	case ElementNode:
		el := (*Element)(n)
		tagName := el.LocalName()
		sb.WriteString("<")
		sb.WriteString(tagName)
		for _, attr := range el.elementData.attributes {
			sb.WriteString(" ")
			sb.WriteString(attr.Name)
			sb.WriteString("=\"")
			sb.WriteString(html.EscapeString(attr.Value))
			sb.WriteString("\"")
		}
		sb.WriteString(">")
		if isVoidElement(tagName) {
			return
		}
		for child := n.firstChild; child != nil; child = child.nextSibling {
			serializeNode(child, sb)
		}
		sb.WriteString("</")
		sb.WriteString(tagName)
		sb.WriteString(">")
	case DocumentNode, DocumentFragmentNode:
		for child := n.firstChild; child != nil; child = child.nextSibling {
			serializeNode(child, sb)
		}
	}
}

// isVoidElement returns true if the element is a void element.
func isVoidElement(tagName string) bool {
	switch tagName {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

// isRawTextElement returns true for elements whose text is serialized verbatim.
func isRawTextElement(tagName string) bool {
	switch tagName {
	case "style", "script", "xmp", "iframe", "noembed", "noframes", "plaintext":
		return true
	}
	return false
}
