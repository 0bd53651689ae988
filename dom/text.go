package dom

// Text represents a text node in the DOM.
type Text Node

// AsNode returns the underlying Node.
func (t *Text) AsNode() *Node {
	return (*Node)(t)
}

// Data returns the text content.
func (t *Text) Data() string {
	return t.data
}

// SetData sets the text content.
func (t *Text) SetData(data string) {
	t.data = data
}

// Length returns the length of the text in UTF-16 code units.
func (t *Text) Length() int {
	return UTF16Length(t.data)
}

// SubstringData extracts count code units starting at offset.
func (t *Text) SubstringData(offset, count int) (string, error) {
	if offset < 0 || offset > t.Length() {
		return "", ErrIndexSize("The offset is out of range.")
	}
	return UTF16Slice(t.data, offset, offset+count), nil
}

// ReplaceData replaces count code units at offset with data.
func (t *Text) ReplaceData(offset, count int, data string) error {
	if offset < 0 || offset > t.Length() {
		return ErrIndexSize("The offset is out of range.")
	}
	t.data = spliceUTF16(t.data, offset, count, data)
	return nil
}

// SplitText splits this text node at the given offset and inserts the new
// node, holding the text after offset, as this node's next sibling.
func (t *Text) SplitText(offset int) (*Text, error) {
	length := t.Length()
	if offset < 0 || offset > length {
		return nil, ErrIndexSize("The offset is out of range.")
	}

	newNode := t.ownerDoc.CreateTextNode(UTF16Slice(t.data, offset, length))
	t.data = UTF16Slice(t.data, 0, offset)

	if parent := t.parentNode; parent != nil {
		parent.insertBefore(newNode, t.nextSibling)
	}
	return (*Text)(newNode), nil
}
