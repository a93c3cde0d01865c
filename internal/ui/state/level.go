package state

// Level is a list driven by the cursor keys. Items is the filtered view of
// Full; Cursor and ViewportOffset index into Items.
type Level struct {
	ID             string
	Title          string
	Items          []Item
	Full           []Item
	Filter         string
	FilterCursor   int
	Cursor         int
	ViewportOffset int

	// remembered is the cursor from before the filter became non-blank,
	// or -1.
	remembered int
}

// NewLevel constructs a Level with the cursor on the first item.
func NewLevel(id, title string, items []Item) *Level {
	l := &Level{ID: id, Title: title, remembered: -1}
	l.UpdateItems(items)
	return l
}

// Current returns the item under the cursor.
func (l *Level) Current() (Item, bool) {
	if l == nil || l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return Item{}, false
	}
	return l.Items[l.Cursor], true
}

// UpdateItems replaces the items and reapplies the filter.
func (l *Level) UpdateItems(items []Item) {
	l.Full = CloneItems(items)
	l.refresh()
}

// refresh recomputes Items from Full and pulls the cursor and viewport
// back into range.
func (l *Level) refresh() {
	l.Items = FilterItems(l.Full, l.Filter)
	n := len(l.Items)
	if n == 0 {
		l.Cursor, l.ViewportOffset = 0, 0
		return
	}
	l.Cursor = clamp(l.Cursor, 0, n-1)
	if l.ViewportOffset < 0 || l.ViewportOffset >= n {
		l.ViewportOffset = 0
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
