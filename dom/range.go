package dom

import "strings"

// Range represents a fragment of a document that can contain nodes and parts
// of text nodes. Boundary offsets count children for container nodes and
// UTF-16 code units for character data.
//
// Ranges here are static: they are not adjusted when the tree mutates, so
// callers re-derive them after structural changes.
type Range struct {
	startContainer *Node
	startOffset    int
	endContainer   *Node
	endOffset      int
	ownerDocument  *Document
}

// NewRange creates a new Range with both boundary points set to the document.
func NewRange(doc *Document) *Range {
	return &Range{
		startContainer: doc.AsNode(),
		endContainer:   doc.AsNode(),
		ownerDocument:  doc,
	}
}

// StartContainer returns the node where the range starts.
func (r *Range) StartContainer() *Node {
	return r.startContainer
}

// StartOffset returns the offset within the start container.
func (r *Range) StartOffset() int {
	return r.startOffset
}

// EndContainer returns the node where the range ends.
func (r *Range) EndContainer() *Node {
	return r.endContainer
}

// EndOffset returns the offset within the end container.
func (r *Range) EndOffset() int {
	return r.endOffset
}

// OwnerDocument returns the document the range was created for.
func (r *Range) OwnerDocument() *Document {
	return r.ownerDocument
}

// Collapsed returns true if start and end are the same point.
func (r *Range) Collapsed() bool {
	return r.startContainer == r.endContainer && r.startOffset == r.endOffset
}

// CommonAncestorContainer returns the deepest node that contains both boundary points.
func (r *Range) CommonAncestorContainer() *Node {
	startAncestors := make(map[*Node]bool)
	for node := r.startContainer; node != nil; node = node.parentNode {
		startAncestors[node] = true
	}
	for node := r.endContainer; node != nil; node = node.parentNode {
		if startAncestors[node] {
			return node
		}
	}
	return nil
}

// SetStart sets the start boundary point of the range.
func (r *Range) SetStart(node *Node, offset int) error {
	if err := checkBoundary(node, offset); err != nil {
		return err
	}
	r.startContainer = node
	r.startOffset = offset

	// If start is after end, or in another tree, collapse to start
	if node.GetRootNode() != r.endContainer.GetRootNode() ||
		comparePoints(r.startContainer, r.startOffset, r.endContainer, r.endOffset) > 0 {
		r.endContainer = node
		r.endOffset = offset
	}
	return nil
}

// SetEnd sets the end boundary point of the range.
func (r *Range) SetEnd(node *Node, offset int) error {
	if err := checkBoundary(node, offset); err != nil {
		return err
	}
	r.endContainer = node
	r.endOffset = offset

	// If end is before start, or in another tree, collapse to end
	if node.GetRootNode() != r.startContainer.GetRootNode() ||
		comparePoints(r.startContainer, r.startOffset, r.endContainer, r.endOffset) > 0 {
		r.startContainer = node
		r.startOffset = offset
	}
	return nil
}

func checkBoundary(node *Node, offset int) error {
	if node == nil {
		return ErrNotFound("Node is null")
	}
	if node.nodeType == DocumentTypeNode {
		return ErrInvalidNodeType("The supplied node is a DocumentType which is not a valid boundary point.")
	}
	if offset < 0 || offset > node.Length() {
		return ErrIndexSize("The offset is out of range.")
	}
	return nil
}

// SetStartBefore sets the start to immediately before the given node.
func (r *Range) SetStartBefore(node *Node) error {
	if node == nil || node.parentNode == nil {
		return ErrInvalidNodeType("The node has no parent.")
	}
	return r.SetStart(node.parentNode, node.Index())
}

// SetEndAfter sets the end to immediately after the given node.
func (r *Range) SetEndAfter(node *Node) error {
	if node == nil || node.parentNode == nil {
		return ErrInvalidNodeType("The node has no parent.")
	}
	return r.SetEnd(node.parentNode, node.Index()+1)
}

// Collapse collapses the range to one of its boundary points.
// If toStart is true, collapses to the start; otherwise to the end.
func (r *Range) Collapse(toStart bool) {
	if toStart {
		r.endContainer = r.startContainer
		r.endOffset = r.startOffset
	} else {
		r.startContainer = r.endContainer
		r.startOffset = r.endOffset
	}
}

// SelectNode sets the range to contain the given node and its contents.
func (r *Range) SelectNode(node *Node) error {
	if node == nil || node.parentNode == nil {
		return ErrInvalidNodeType("The node has no parent.")
	}
	index := node.Index()
	r.startContainer = node.parentNode
	r.startOffset = index
	r.endContainer = node.parentNode
	r.endOffset = index + 1
	return nil
}

// SelectNodeContents sets the range to contain the contents of the given node.
func (r *Range) SelectNodeContents(node *Node) error {
	if node == nil {
		return ErrNotFound("Node is null")
	}
	if node.nodeType == DocumentTypeNode {
		return ErrInvalidNodeType("The supplied node is a DocumentType.")
	}
	r.startContainer = node
	r.startOffset = 0
	r.endContainer = node
	r.endOffset = node.Length()
	return nil
}

// CloneRange returns a copy of this range.
func (r *Range) CloneRange() *Range {
	c := *r
	return &c
}

// ToString returns the text covered by the range.
func (r *Range) ToString() string {
	if r.Collapsed() {
		return ""
	}
	if r.startContainer == r.endContainer && r.startContainer.nodeType == TextNode {
		return UTF16Slice(r.startContainer.data, r.startOffset, r.endOffset)
	}

	var sb strings.Builder
	if r.startContainer.nodeType == TextNode {
		sb.WriteString(UTF16Slice(r.startContainer.data, r.startOffset, r.startContainer.Length()))
	}
	root := r.CommonAncestorContainer()
	if root != nil {
		for n := root.firstChild; n != nil; n = nextInTree(n, root) {
			if n.nodeType == TextNode && r.containsNode(n) {
				sb.WriteString(n.data)
			}
		}
	}
	if r.endContainer.nodeType == TextNode {
		sb.WriteString(UTF16Slice(r.endContainer.data, 0, r.endOffset))
	}
	return sb.String()
}

// nextInTree returns the node following n in tree order, bounded by root.
func nextInTree(n, root *Node) *Node {
	if n.firstChild != nil {
		return n.firstChild
	}
	for ; n != nil && n != root; n = n.parentNode {
		if n.nextSibling != nil {
			return n.nextSibling
		}
	}
	return nil
}

// comparePoints compares two boundary points.
// Returns -1 if (nodeA, offsetA) is before (nodeB, offsetB), 0 if equal, 1 if after.
// https://dom.spec.whatwg.org/#concept-range-bp-position
func comparePoints(nodeA *Node, offsetA int, nodeB *Node, offsetB int) int {
	if nodeA == nodeB {
		switch {
		case offsetA < offsetB:
			return -1
		case offsetA > offsetB:
			return 1
		}
		return 0
	}

	// nodeB is a descendant of nodeA
	if nodeB.isInclusiveDescendantOf(nodeA) {
		child := nodeB
		for child.parentNode != nodeA {
			child = child.parentNode
		}
		if child.Index() < offsetA {
			return 1
		}
		return -1
	}

	// nodeA is a descendant of nodeB
	if nodeA.isInclusiveDescendantOf(nodeB) {
		child := nodeA
		for child.parentNode != nodeB {
			child = child.parentNode
		}
		if child.Index() < offsetB {
			return -1
		}
		return 1
	}

	return compareTreeOrder(nodeA, nodeB)
}

// compareTreeOrder orders two nodes where neither contains the other.
func compareTreeOrder(nodeA, nodeB *Node) int {
	var pathA, pathB []*Node
	for n := nodeA; n != nil; n = n.parentNode {
		pathA = append([]*Node{n}, pathA...)
	}
	for n := nodeB; n != nil; n = n.parentNode {
		pathB = append([]*Node{n}, pathB...)
	}
	for i := 1; i < len(pathA) && i < len(pathB); i++ {
		if pathA[i] != pathB[i] {
			if pathA[i].Index() < pathB[i].Index() {
				return -1
			}
			return 1
		}
	}
	return 0
}

// containsNode returns true if the node is fully contained in the range.
func (r *Range) containsNode(node *Node) bool {
	parent := node.parentNode
	if parent == nil {
		return false
	}
	index := node.Index()
	return comparePoints(parent, index, r.startContainer, r.startOffset) >= 0 &&
		comparePoints(parent, index+1, r.endContainer, r.endOffset) <= 0
}

// partiallyContains reports whether node holds exactly one of the boundary points.
func (r *Range) partiallyContains(node *Node) bool {
	inStart := r.startContainer.isInclusiveDescendantOf(node)
	inEnd := r.endContainer.isInclusiveDescendantOf(node)
	return inStart != inEnd
}

// ExtractContents moves the contents of the range into a DocumentFragment and
// returns it. The range collapses to where the contents were.
// https://dom.spec.whatwg.org/#concept-range-extract
func (r *Range) ExtractContents() (*DocumentFragment, error) {
	frag := r.ownerDocument.CreateDocumentFragment()
	if r.Collapsed() {
		return frag, nil
	}

	startNode, startOffset := r.startContainer, r.startOffset
	endNode, endOffset := r.endContainer, r.endOffset

	if startNode == endNode && startNode.nodeType.isCharacterData() {
		clone := startNode.CloneNode(false)
		clone.data = UTF16Slice(startNode.data, startOffset, endOffset)
		frag.AsNode().insertBefore(clone, nil)
		startNode.data = spliceUTF16(startNode.data, startOffset, endOffset-startOffset, "")
		r.Collapse(true)
		return frag, nil
	}

	common := r.CommonAncestorContainer()
	if common == nil {
		return nil, ErrWrongDocument("The boundary points are not in the same tree.")
	}

	var firstPartial, lastPartial *Node
	if !endNode.isInclusiveDescendantOf(startNode) {
		for child := common.firstChild; child != nil; child = child.nextSibling {
			if r.partiallyContains(child) {
				firstPartial = child
				break
			}
		}
	}
	if !startNode.isInclusiveDescendantOf(endNode) {
		for child := common.lastChild; child != nil; child = child.prevSibling {
			if r.partiallyContains(child) {
				lastPartial = child
				break
			}
		}
	}

	var contained []*Node
	for child := common.firstChild; child != nil; child = child.nextSibling {
		if r.containsNode(child) {
			if child.nodeType == DocumentTypeNode {
				return nil, ErrHierarchyRequest("A DocumentType cannot be extracted.")
			}
			contained = append(contained, child)
		}
	}

	newNode, newOffset := startNode, startOffset
	if !endNode.isInclusiveDescendantOf(startNode) {
		ref := startNode
		for !endNode.isInclusiveDescendantOf(ref.parentNode) {
			ref = ref.parentNode
		}
		newNode, newOffset = ref.parentNode, ref.Index()+1
	}

	if firstPartial != nil {
		if firstPartial.nodeType.isCharacterData() {
			clone := startNode.CloneNode(false)
			length := startNode.Length()
			clone.data = UTF16Slice(startNode.data, startOffset, length)
			frag.AsNode().insertBefore(clone, nil)
			startNode.data = spliceUTF16(startNode.data, startOffset, length-startOffset, "")
		} else {
			clone := firstPartial.CloneNode(false)
			frag.AsNode().insertBefore(clone, nil)
			sub := &Range{startNode, startOffset, firstPartial, firstPartial.Length(), r.ownerDocument}
			subFrag, err := sub.ExtractContents()
			if err != nil {
				return nil, err
			}
			clone.insertBefore(subFrag.AsNode(), nil)
		}
	}

	for _, child := range contained {
		frag.AsNode().insertBefore(child, nil)
	}

	if lastPartial != nil {
		if lastPartial.nodeType.isCharacterData() {
			clone := endNode.CloneNode(false)
			clone.data = UTF16Slice(endNode.data, 0, endOffset)
			frag.AsNode().insertBefore(clone, nil)
			endNode.data = spliceUTF16(endNode.data, 0, endOffset, "")
		} else {
			clone := lastPartial.CloneNode(false)
			frag.AsNode().insertBefore(clone, nil)
			sub := &Range{lastPartial, 0, endNode, endOffset, r.ownerDocument}
			subFrag, err := sub.ExtractContents()
			if err != nil {
				return nil, err
			}
			clone.insertBefore(subFrag.AsNode(), nil)
		}
	}

	r.startContainer, r.startOffset = newNode, newOffset
	r.endContainer, r.endOffset = newNode, newOffset
	return frag, nil
}

// InsertNode inserts a node at the start of the range, splitting a text
// start container when needed.
// https://dom.spec.whatwg.org/#concept-range-insert
func (r *Range) InsertNode(node *Node) error {
	if node == nil {
		return ErrNotFound("Node is null")
	}
	start := r.startContainer
	if start.nodeType == CommentNode || (start.nodeType == TextNode && start.parentNode == nil) || start == node {
		return ErrHierarchyRequest("Cannot insert at this boundary point.")
	}

	var ref *Node
	if start.nodeType == TextNode {
		ref = start
	} else {
		ref = start.ChildAt(r.startOffset)
	}
	parent := start
	if ref != nil {
		parent = ref.parentNode
	}
	if err := parent.validatePreInsertion(node, ref); err != nil {
		return err
	}

	if start.nodeType == TextNode {
		split, err := (*Text)(start).SplitText(r.startOffset)
		if err != nil {
			return err
		}
		ref = split.AsNode()
	}
	if node == ref {
		ref = ref.nextSibling
	}
	if node.parentNode != nil {
		node.parentNode.removeChildInternal(node)
	}

	newOffset := parent.Length()
	if ref != nil {
		newOffset = ref.Index()
	}
	if node.nodeType == DocumentFragmentNode {
		newOffset += node.Length()
	} else {
		newOffset++
	}

	parent.insertBefore(node, ref)

	if r.Collapsed() {
		r.endContainer, r.endOffset = parent, newOffset
	}
	return nil
}

// SurroundContents wraps the range contents with a new parent element.
// It fails with InvalidStateError when the range partially selects a node
// other than a Text node.
// https://dom.spec.whatwg.org/#dom-range-surroundcontents
func (r *Range) SurroundContents(newParent *Node) error {
	if newParent == nil {
		return ErrNotFound("New parent is null")
	}

	common := r.CommonAncestorContainer()
	if common == nil {
		return ErrWrongDocument("The boundary points are not in the same tree.")
	}
	for _, edge := range []*Node{r.startContainer, r.endContainer} {
		for n := edge; n != common; n = n.parentNode {
			if n.nodeType != TextNode {
				return ErrInvalidState("Range partially selects a non-Text node.")
			}
		}
	}

	switch newParent.nodeType {
	case DocumentNode, DocumentTypeNode, DocumentFragmentNode:
		return ErrInvalidNodeType("Invalid new parent type.")
	}

	frag, err := r.ExtractContents()
	if err != nil {
		return err
	}

	for newParent.firstChild != nil {
		newParent.removeChildInternal(newParent.firstChild)
	}

	if err := r.InsertNode(newParent); err != nil {
		return err
	}
	newParent.insertBefore(frag.AsNode(), nil)
	return r.SelectNode(newParent)
}
