// Package html loads HTML into dom documents, using golang.org/x/net/html
// as the underlying parser implementation.
package html

import (
	"io"
	"strings"

	"github.com/chrisuehlinger/multiselect/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses HTML from a string and returns a Document.
func Parse(htmlContent string) (*dom.Document, error) {
	return ParseReader(strings.NewReader(htmlContent))
}

// ParseReader parses HTML from an io.Reader and returns a Document.
func ParseReader(r io.Reader) (*dom.Document, error) {
	netDoc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := dom.NewDocument()
	convertChildren(netDoc, doc.AsNode(), doc)
	return doc, nil
}

// ParseFragment parses an HTML fragment in the context of a parent element
// and returns the resulting top-level nodes, owned by the context's document.
func ParseFragment(fragment string, context *dom.Element) ([]*dom.Node, error) {
	var contextNode *html.Node
	if context != nil {
		name := context.LocalName()
		contextNode = &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Lookup([]byte(name)),
			Data:     name,
		}
	}
	netNodes, err := html.ParseFragment(strings.NewReader(fragment), contextNode)
	if err != nil {
		return nil, err
	}

	doc := dom.NewDocument()
	if context != nil && context.AsNode().OwnerDocument() != nil {
		doc = context.AsNode().OwnerDocument()
	}
	holder := doc.CreateDocumentFragment().AsNode()
	for _, nn := range netNodes {
		if node := convertNode(nn, doc); node != nil {
			holder.AppendChild(node)
			convertChildren(nn, node, doc)
		}
	}
	nodes := holder.ChildNodes()
	for _, n := range nodes {
		holder.RemoveChild(n)
	}
	return nodes, nil
}

// convertChildren converts the children of src and appends them to parent.
func convertChildren(src *html.Node, parent *dom.Node, doc *dom.Document) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DocumentNode {
			convertChildren(c, parent, doc)
			continue
		}
		node := convertNode(c, doc)
		if node == nil {
			continue
		}
		parent.AppendChild(node)
		if c.Type == html.ElementNode {
			convertChildren(c, node, doc)
		}
	}
}

// convertNode converts a single golang.org/x/net/html node, without children.
func convertNode(n *html.Node, doc *dom.Document) *dom.Node {
	switch n.Type {
	case html.TextNode:
		return doc.CreateTextNode(n.Data)
	case html.ElementNode:
		el := doc.CreateElement(n.Data)
		for _, attr := range n.Attr {
			key := attr.Key
			if attr.Namespace != "" {
				key = attr.Namespace + ":" + attr.Key
			}
			el.SetAttribute(key, attr.Val)
		}
		return el.AsNode()
	case html.CommentNode:
		return doc.CreateComment(n.Data)
	case html.DoctypeNode:
		return doc.CreateDocumentType(n.Data)
	default:
		return nil
	}
}
