package state

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SetFilter replaces the filter text and puts the filter cursor at pos.
// While the filter is non-blank the list cursor sits on the best match;
// blanking it again restores the cursor from before filtering began.
func (l *Level) SetFilter(text string, pos int) {
	wasFiltering := strings.TrimSpace(l.Filter) != ""
	query := strings.TrimSpace(text)
	if query != "" && !wasFiltering {
		l.remembered = l.Cursor
	}
	l.Filter = text
	l.FilterCursor = clamp(pos, 0, utf8.RuneCountInString(text))
	l.refresh()
	switch {
	case query != "":
		l.Cursor = max(BestMatchIndex(l.Items, query), 0)
	case wasFiltering:
		if l.remembered >= 0 && l.remembered < len(l.Items) {
			l.Cursor = l.remembered
		}
		l.remembered = -1
	}
}

// FilterCursorPos returns the filter cursor as a rune offset in range.
func (l *Level) FilterCursorPos() int {
	return clamp(l.FilterCursor, 0, utf8.RuneCountInString(l.Filter))
}

// MoveFilterCursor shifts the filter cursor by delta runes.
func (l *Level) MoveFilterCursor(delta int) bool {
	pos := l.FilterCursorPos()
	l.FilterCursor = clamp(pos+delta, 0, utf8.RuneCountInString(l.Filter))
	return l.FilterCursor != pos
}

// InsertFilterText inserts text at the filter cursor.
func (l *Level) InsertFilterText(text string) bool {
	if text == "" {
		return false
	}
	return l.editFilter(func(runes []rune, pos int) ([]rune, int) {
		insert := []rune(text)
		out := make([]rune, 0, len(runes)+len(insert))
		out = append(out, runes[:pos]...)
		out = append(out, insert...)
		out = append(out, runes[pos:]...)
		return out, pos + len(insert)
	})
}

// DeleteFilterRuneBackward removes the rune before the filter cursor.
func (l *Level) DeleteFilterRuneBackward() bool {
	return l.editFilter(func(runes []rune, pos int) ([]rune, int) {
		if pos == 0 {
			return runes, pos
		}
		return append(runes[:pos-1:pos-1], runes[pos:]...), pos - 1
	})
}

// DeleteFilterWordBackward removes the word before the filter cursor along
// with any spaces between it and the cursor.
func (l *Level) DeleteFilterWordBackward() bool {
	return l.editFilter(func(runes []rune, pos int) ([]rune, int) {
		start := pos
		for start > 0 && unicode.IsSpace(runes[start-1]) {
			start--
		}
		for start > 0 && !unicode.IsSpace(runes[start-1]) {
			start--
		}
		return append(runes[:start:start], runes[pos:]...), start
	})
}

// editFilter runs fn over the filter runes and the cursor and stores the
// result. It reports false when nothing changed.
func (l *Level) editFilter(fn func(runes []rune, pos int) ([]rune, int)) bool {
	pos := l.FilterCursorPos()
	runes, next := fn([]rune(l.Filter), pos)
	if string(runes) == l.Filter && next == pos {
		return false
	}
	l.SetFilter(string(runes), next)
	return true
}

// FilterItems keeps the items whose label fuzzily matches query or whose
// description contains it, in their original order.
func FilterItems(items []Item, query string) []Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return CloneItems(items)
	}
	lower := strings.ToLower(query)
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if fuzzy.MatchNormalizedFold(query, item.Label) || strings.Contains(strings.ToLower(item.Description), lower) {
			out = append(out, item)
		}
	}
	return out
}

// BestMatchIndex picks the item for query: an exact label, then a label
// prefix, then the closest fuzzy match, earliest first. It returns 0 when
// nothing matches and -1 for no items.
func BestMatchIndex(items []Item, query string) int {
	if len(items) == 0 {
		return -1
	}
	query = strings.TrimSpace(query)
	best, bestScore := 0, math.MaxInt
	for i, item := range items {
		if score := matchScore(item.Label, query); score >= 0 && score < bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// matchScore ranks label against query; lower is better, -1 is no match.
func matchScore(label, query string) int {
	switch {
	case strings.EqualFold(label, query):
		return 0
	case strings.HasPrefix(strings.ToLower(label), strings.ToLower(query)):
		return 1
	}
	if distance := fuzzy.RankMatchNormalizedFold(query, label); distance >= 0 {
		return 2 + distance
	}
	return -1
}
