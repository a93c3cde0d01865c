package state

// Item is one selectable row in a list level.
type Item struct {
	ID          string
	Label       string
	Description string
}

// CloneItems produces a shallow copy of the provided items.
func CloneItems(items []Item) []Item {
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
