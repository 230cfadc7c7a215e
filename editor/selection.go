package editor

// Selection represents a text selection as two byte offsets into buffer text.
// Anchor is where the selection started, Cursor is where it currently extends to.
type Selection struct {
	Anchor, Cursor int
}

// Active reports whether the selection covers a non-empty range.
func (s *Selection) Active() bool {
	return s.Anchor != s.Cursor
}

// Ordered returns the selection bounds in ascending order (start, end).
func (s *Selection) Ordered() (start, end int) {
	if s.Anchor <= s.Cursor {
		return s.Anchor, s.Cursor
	}
	return s.Cursor, s.Anchor
}

// Text extracts the selected substring from content.
func (s *Selection) Text(content string) string {
	start, end := s.Ordered()
	start = clamp(start, 0, len(content))
	end = clamp(end, 0, len(content))
	if start >= end {
		return ""
	}
	return content[start:end]
}

// Collapse moves both ends of the selection to offset.
func (s *Selection) Collapse(offset int) {
	s.Anchor = offset
	s.Cursor = offset
}

// remap adjusts both ends after [start, end) was replaced by n bytes.
func (s *Selection) remap(start, end, n int) {
	s.Anchor = remapOffset(s.Anchor, start, end, n)
	s.Cursor = remapOffset(s.Cursor, start, end, n)
}

func remapOffset(o, start, end, n int) int {
	switch {
	case o <= start:
		return o
	case o >= end:
		return o + n - (end - start)
	default:
		return start + n
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
