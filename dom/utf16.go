package dom

import "unicode/utf16"

// UTF16Length returns the length of a string in UTF-16 code units.
// Range and Text offsets count code units the way JavaScript does, so that
// offsets recorded by a browser stay meaningful here.
func UTF16Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// UTF16Slice returns the substring of s between the UTF-16 offsets start and
// end. Offsets are clamped to the string; a surrogate pair cut in half is
// replaced with U+FFFD as JavaScript's String.prototype.substring would.
func UTF16Slice(s string, start, end int) string {
	units := utf16.Encode([]rune(s))
	if start < 0 {
		start = 0
	}
	if end > len(units) {
		end = len(units)
	}
	if start >= end {
		return ""
	}
	return string(utf16.Decode(units[start:end]))
}

// UTF16OffsetToByteOffset converts a UTF-16 code unit offset to a byte offset.
// Returns -1 if the offset is out of bounds.
func UTF16OffsetToByteOffset(s string, offset int) int {
	if offset < 0 {
		return -1
	}
	units := 0
	for i, r := range s {
		if units >= offset {
			return i
		}
		units += utf16.RuneLen(r)
	}
	if units == offset {
		return len(s)
	}
	return -1
}

// spliceUTF16 replaces count code units at offset with data.
func spliceUTF16(s string, offset, count int, data string) string {
	length := UTF16Length(s)
	if offset > length {
		offset = length
	}
	end := offset + count
	if end > length {
		end = length
	}
	return UTF16Slice(s, 0, offset) + data + UTF16Slice(s, end, length)
}
