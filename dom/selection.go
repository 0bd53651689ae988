package dom

// Selection represents the user's selection of text in the document.
// Like most browsers, it holds at most one range.
type Selection struct {
	document *Document
	ranges   []*Range
}

// NewSelection creates a new Selection for the given document.
func NewSelection(doc *Document) *Selection {
	return &Selection{document: doc}
}

// AnchorNode returns the node in which the selection begins.
// Returns nil if the selection is empty.
func (s *Selection) AnchorNode() *Node {
	if len(s.ranges) == 0 {
		return nil
	}
	return s.ranges[0].StartContainer()
}

// FocusNode returns the node in which the selection ends.
// Returns nil if the selection is empty.
func (s *Selection) FocusNode() *Node {
	if len(s.ranges) == 0 {
		return nil
	}
	return s.ranges[0].EndContainer()
}

// IsCollapsed returns true if the selection is empty or its range is collapsed.
func (s *Selection) IsCollapsed() bool {
	if len(s.ranges) == 0 {
		return true
	}
	return s.ranges[0].Collapsed()
}

// RangeCount returns the number of ranges in the selection.
func (s *Selection) RangeCount() int {
	return len(s.ranges)
}

// GetRangeAt returns the range at the given index.
func (s *Selection) GetRangeAt(index int) (*Range, error) {
	if index < 0 || index >= len(s.ranges) {
		return nil, ErrIndexSize("Index out of range")
	}
	return s.ranges[index], nil
}

// AddRange adds a Range to the selection. A second range is ignored.
func (s *Selection) AddRange(r *Range) {
	if r == nil {
		return
	}
	if len(s.ranges) == 0 {
		s.ranges = append(s.ranges, r)
	}
}

// RemoveAllRanges empties the selection.
func (s *Selection) RemoveAllRanges() {
	s.ranges = nil
}

// SetBaseAndExtent replaces the selection with a range between the two points.
func (s *Selection) SetBaseAndExtent(anchorNode *Node, anchorOffset int, focusNode *Node, focusOffset int) error {
	r := s.document.CreateRange()
	if err := r.SetStart(anchorNode, anchorOffset); err != nil {
		return err
	}
	if err := r.SetEnd(focusNode, focusOffset); err != nil {
		return err
	}
	s.ranges = []*Range{r}
	return nil
}

// ToString returns the selected text.
func (s *Selection) ToString() string {
	if len(s.ranges) == 0 {
		return ""
	}
	return s.ranges[0].ToString()
}
