package dom

import (
	"strings"
)

// Node represents a node in the DOM tree. It is the base from which Document,
// Element, Text, Comment and DocumentFragment are derived by type conversion.
type Node struct {
	nodeType NodeType
	nodeName string
	data     string // character data for Text and Comment nodes
	ownerDoc *Document

	parentNode  *Node
	firstChild  *Node
	lastChild   *Node
	prevSibling *Node
	nextSibling *Node

	// Type-specific data (only one will be non-nil based on nodeType)
	elementData  *elementData
	documentData *documentData
}

// documentData holds data specific to Document nodes.
type documentData struct {
	url       string
	selection *Selection
}

// newNode creates a new node with the given type and name.
func newNode(nodeType NodeType, nodeName string, ownerDoc *Document) *Node {
	return &Node{
		nodeType: nodeType,
		nodeName: nodeName,
		ownerDoc: ownerDoc,
	}
}

// NodeType returns the type of the node.
func (n *Node) NodeType() NodeType {
	return n.nodeType
}

// NodeName returns the name of the node.
// For elements, this is the tag name in uppercase.
// For text nodes, this is "#text".
func (n *Node) NodeName() string {
	return n.nodeName
}

// NodeValue returns the character data of Text and Comment nodes and the empty
// string for every other node type.
func (n *Node) NodeValue() string {
	if n.nodeType.isCharacterData() {
		return n.data
	}
	return ""
}

// SetNodeValue sets the character data of Text and Comment nodes.
// For other node types, this is a no-op.
func (n *Node) SetNodeValue(value string) {
	if n.nodeType.isCharacterData() {
		n.data = value
	}
}

// OwnerDocument returns the Document that owns this node.
// For Document nodes, this returns nil.
func (n *Node) OwnerDocument() *Document {
	if n.nodeType == DocumentNode {
		return nil
	}
	return n.ownerDoc
}

// ParentNode returns the parent of this node.
func (n *Node) ParentNode() *Node {
	return n.parentNode
}

// ParentElement returns the parent Element, or nil if the parent is not an element.
func (n *Node) ParentElement() *Element {
	if n.parentNode != nil && n.parentNode.nodeType == ElementNode {
		return (*Element)(n.parentNode)
	}
	return nil
}

// FirstChild returns the first child node, or nil if there are no children.
func (n *Node) FirstChild() *Node {
	return n.firstChild
}

// LastChild returns the last child node, or nil if there are no children.
func (n *Node) LastChild() *Node {
	return n.lastChild
}

// PreviousSibling returns the previous sibling node, or nil if this is the first child.
func (n *Node) PreviousSibling() *Node {
	return n.prevSibling
}

// NextSibling returns the next sibling node, or nil if this is the last child.
func (n *Node) NextSibling() *Node {
	return n.nextSibling
}

// HasChildNodes returns true if this node has any child nodes.
func (n *Node) HasChildNodes() bool {
	return n.firstChild != nil
}

// ChildNodes returns a snapshot of the node's children in order.
func (n *Node) ChildNodes() []*Node {
	var children []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		children = append(children, c)
	}
	return children
}

// ChildAt returns the child at index, or nil when index is out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 {
		return nil
	}
	c := n.firstChild
	for i := 0; i < index && c != nil; i++ {
		c = c.nextSibling
	}
	return c
}

// IsConnected returns true if the node's root is a document.
func (n *Node) IsConnected() bool {
	return n.GetRootNode().nodeType == DocumentNode
}

// GetRootNode returns the root of the tree containing this node.
func (n *Node) GetRootNode() *Node {
	root := n
	for root.parentNode != nil {
		root = root.parentNode
	}
	return root
}

// Contains returns true if other is this node or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for node := other; node != nil; node = node.parentNode {
		if node == n {
			return true
		}
	}
	return false
}

// TextContent returns the text content of the node and its descendants.
func (n *Node) TextContent() string {
	switch n.nodeType {
	case DocumentNode, DocumentTypeNode:
		return ""
	case TextNode, CommentNode:
		return n.data
	default:
		var sb strings.Builder
		n.collectTextContent(&sb)
		return sb.String()
	}
}

func (n *Node) collectTextContent(sb *strings.Builder) {
	for child := n.firstChild; child != nil; child = child.nextSibling {
		switch child.nodeType {
		case TextNode:
			sb.WriteString(child.data)
		case ElementNode, DocumentFragmentNode:
			child.collectTextContent(sb)
		}
	}
}

// SetTextContent sets the text content of the node.
// For elements and document fragments, this replaces all children with a single text node.
func (n *Node) SetTextContent(value string) {
	switch n.nodeType {
	case DocumentNode, DocumentTypeNode:
		return
	case TextNode, CommentNode:
		n.data = value
	default:
		for n.firstChild != nil {
			n.removeChildInternal(n.firstChild)
		}
		if value != "" {
			n.AppendChild(n.ownerDoc.CreateTextNode(value))
		}
	}
}

// AppendChild adds a node to the end of the list of children of this node.
// For error-returning version, use AppendChildWithError.
func (n *Node) AppendChild(child *Node) *Node {
	result, _ := n.AppendChildWithError(child)
	return result
}

// AppendChildWithError adds a node to the end of the list of children of this node.
// Returns an error if the operation violates DOM hierarchy constraints.
func (n *Node) AppendChildWithError(child *Node) (*Node, error) {
	return n.InsertBeforeWithError(child, nil)
}

// InsertBefore inserts a node before a reference child node.
// If refChild is nil, the node is appended to the end.
// For error-returning version, use InsertBeforeWithError.
func (n *Node) InsertBefore(newChild, refChild *Node) *Node {
	result, _ := n.InsertBeforeWithError(newChild, refChild)
	return result
}

// InsertBeforeWithError inserts a node before a reference child node.
// If refChild is nil, the node is appended to the end.
// Returns an error if the operation violates DOM hierarchy constraints.
func (n *Node) InsertBeforeWithError(newChild, refChild *Node) (*Node, error) {
	if err := n.validatePreInsertion(newChild, refChild); err != nil {
		return nil, err
	}
	return n.insertBefore(newChild, refChild), nil
}

// validatePreInsertion implements the pre-insertion validity checks the
// engine relies on.
// https://dom.spec.whatwg.org/#concept-node-ensure-pre-insertion-validity
func (n *Node) validatePreInsertion(node, child *Node) error {
	if node == nil {
		return ErrNotFound("The node to be inserted is null.")
	}
	if !n.canHaveChildren() {
		return ErrHierarchyRequest("The operation would yield an incorrect node tree.")
	}
	if n.isInclusiveDescendantOf(node) {
		return ErrHierarchyRequest("The new child element contains the parent.")
	}
	if child != nil && child.parentNode != n {
		return ErrNotFound("The node before which the new node is to be inserted is not a child of this node.")
	}
	switch node.nodeType {
	case DocumentNode:
		return ErrHierarchyRequest("A Document cannot be inserted.")
	case TextNode:
		if n.nodeType == DocumentNode {
			return ErrHierarchyRequest("Cannot insert Text node as a direct child of Document.")
		}
	case DocumentTypeNode:
		if n.nodeType != DocumentNode {
			return ErrHierarchyRequest("DocumentType nodes can only be children of Document.")
		}
	}
	return nil
}

// canHaveChildren returns true if this node can have child nodes.
func (n *Node) canHaveChildren() bool {
	switch n.nodeType {
	case DocumentNode, DocumentFragmentNode, ElementNode:
		return true
	default:
		return false
	}
}

// isInclusiveDescendantOf returns true if n is node or lies beneath it.
func (n *Node) isInclusiveDescendantOf(node *Node) bool {
	if node == nil {
		return false
	}
	for current := n; current != nil; current = current.parentNode {
		if current == node {
			return true
		}
	}
	return false
}

func (n *Node) insertBefore(newChild, refChild *Node) *Node {
	// If newChild is a DocumentFragment, insert all its children
	if newChild.nodeType == DocumentFragmentNode {
		for _, child := range newChild.ChildNodes() {
			n.insertBefore(child, refChild)
		}
		return newChild
	}

	if newChild == refChild {
		return newChild
	}

	if newChild.parentNode != nil {
		newChild.parentNode.removeChildInternal(newChild)
	}

	newChild.parentNode = n
	if doc := n.document(); doc != nil && newChild.ownerDoc != doc {
		adoptNode(newChild, doc)
	}

	if refChild == nil {
		newChild.prevSibling = n.lastChild
		newChild.nextSibling = nil
		if n.lastChild != nil {
			n.lastChild.nextSibling = newChild
		} else {
			n.firstChild = newChild
		}
		n.lastChild = newChild
	} else {
		newChild.prevSibling = refChild.prevSibling
		newChild.nextSibling = refChild
		if refChild.prevSibling != nil {
			refChild.prevSibling.nextSibling = newChild
		} else {
			n.firstChild = newChild
		}
		refChild.prevSibling = newChild
	}
	return newChild
}

// document returns the document that children of n belong to.
func (n *Node) document() *Document {
	if n.nodeType == DocumentNode {
		return (*Document)(n)
	}
	return n.ownerDoc
}

// adoptNode recursively sets the ownerDocument for a node and its descendants.
func adoptNode(node *Node, doc *Document) {
	node.ownerDoc = doc
	for child := node.firstChild; child != nil; child = child.nextSibling {
		adoptNode(child, doc)
	}
}

// RemoveChild removes a child node from this node.
// For error-returning version, use RemoveChildWithError.
func (n *Node) RemoveChild(child *Node) *Node {
	result, _ := n.RemoveChildWithError(child)
	return result
}

// RemoveChildWithError removes a child node from this node.
// Returns an error if the child is not a child of this node.
func (n *Node) RemoveChildWithError(child *Node) (*Node, error) {
	if child == nil {
		return nil, ErrNotFound("The node to be removed is null.")
	}
	if child.parentNode != n {
		return nil, ErrNotFound("The node to be removed is not a child of this node.")
	}
	n.removeChildInternal(child)
	return child, nil
}

// removeChildInternal unlinks child without checking that it belongs to n.
func (n *Node) removeChildInternal(child *Node) {
	if child.prevSibling != nil {
		child.prevSibling.nextSibling = child.nextSibling
	} else {
		n.firstChild = child.nextSibling
	}
	if child.nextSibling != nil {
		child.nextSibling.prevSibling = child.prevSibling
	} else {
		n.lastChild = child.prevSibling
	}
	child.parentNode = nil
	child.prevSibling = nil
	child.nextSibling = nil
}

// CloneNode returns a copy of the node. When deep is true the copy includes
// all descendants.
func (n *Node) CloneNode(deep bool) *Node {
	clone := newNode(n.nodeType, n.nodeName, n.ownerDoc)
	clone.data = n.data
	if n.elementData != nil {
		ed := *n.elementData
		ed.attributes = append([]Attr(nil), n.elementData.attributes...)
		clone.elementData = &ed
	}
	if n.documentData != nil {
		clone.documentData = &documentData{url: n.documentData.url}
	}
	if deep {
		for child := n.firstChild; child != nil; child = child.nextSibling {
			clone.insertBefore(child.CloneNode(true), nil)
		}
	}
	return clone
}

// Normalize removes empty Text nodes and merges adjacent Text nodes in the
// subtree rooted at this node.
func (n *Node) Normalize() {
	var nodesToRemove []*Node

	for child := n.firstChild; child != nil; {
		next := child.nextSibling

		if child.nodeType == TextNode {
			if child.data == "" {
				nodesToRemove = append(nodesToRemove, child)
			} else {
				for next != nil && next.nodeType == TextNode {
					child.data += next.data
					nodesToRemove = append(nodesToRemove, next)
					next = next.nextSibling
				}
			}
		} else if child.nodeType == ElementNode {
			child.Normalize()
		}

		child = next
	}

	for _, node := range nodesToRemove {
		n.removeChildInternal(node)
	}
}

// MergeText merges each run of adjacent Text children from first through
// last, inclusive, into the run's first node. A nil last means through the
// final child. Children outside that span are left alone, empty or not.
func (n *Node) MergeText(first, last *Node) {
	var nodesToRemove []*Node

	for child := first; child != nil && child.parentNode == n; {
		done := child == last
		next := child.nextSibling
		if child.nodeType == TextNode {
			for !done && next != nil && next.nodeType == TextNode {
				child.data += next.data
				nodesToRemove = append(nodesToRemove, next)
				done = next == last
				next = next.nextSibling
			}
		}
		if done {
			break
		}
		child = next
	}

	for _, node := range nodesToRemove {
		n.removeChildInternal(node)
	}
}

// Length returns the node length used for range boundary points: the number
// of UTF-16 code units for character data, the number of children otherwise.
func (n *Node) Length() int {
	if n.nodeType.isCharacterData() {
		return UTF16Length(n.data)
	}
	count := 0
	for child := n.firstChild; child != nil; child = child.nextSibling {
		count++
	}
	return count
}

// Index returns the position of the node among its parent's children, or -1
// if the node has no parent.
func (n *Node) Index() int {
	if n.parentNode == nil {
		return -1
	}
	index := 0
	for c := n.parentNode.firstChild; c != nil; c = c.nextSibling {
		if c == n {
			return index
		}
		index++
	}
	return -1
}
