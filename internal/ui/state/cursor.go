package state

// Select puts the cursor on index, clamped to the items. An empty list
// keeps the cursor at 0. It reports whether the cursor moved.
func (l *Level) Select(index int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor = clamp(index, 0, len(l.Items)-1)
	return l.Cursor != old
}

// Move shifts the cursor by delta without wrapping.
func (l *Level) Move(delta int) bool {
	return l.Select(max(l.Cursor, 0) + delta)
}

// PageStep is the distance a page key moves for a viewport of rows.
func (l *Level) PageStep(rows int) int {
	n := len(l.Items)
	if rows <= 0 || rows > n {
		rows = n
	}
	return max(rows, 1)
}

// Reveal scrolls the viewport of rows so the cursor is inside it. rows <= 0
// means everything is visible.
func (l *Level) Reveal(rows int) {
	n := len(l.Items)
	if n == 0 {
		l.Cursor, l.ViewportOffset = 0, 0
		return
	}
	l.Cursor = clamp(l.Cursor, 0, n-1)
	if rows <= 0 {
		l.ViewportOffset = 0
		return
	}
	top := clamp(l.ViewportOffset, 0, max(n-rows, 0))
	switch {
	case l.Cursor < top:
		top = l.Cursor
	case l.Cursor >= top+rows:
		top = l.Cursor - rows + 1
	}
	l.ViewportOffset = top
}
