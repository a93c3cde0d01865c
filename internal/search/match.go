package search

import (
	"strings"
	"unicode/utf8"
)

// IndexFold returns the byte offset and byte length in s of the first
// case-insensitive occurrence of substr, or -1 when there is none. Offsets
// refer to s itself, so they stay valid when case folding changes the
// encoded length of a rune.
func IndexFold(s, substr string) (int, int) {
	want := utf8.RuneCountInString(substr)
	if want == 0 {
		return -1, 0
	}
	for i := range s {
		end, n := i, 0
		for n < want && end < len(s) {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			n++
		}
		if n < want {
			return -1, 0
		}
		if strings.EqualFold(s[i:end], substr) {
			return i, end - i
		}
	}
	return -1, 0
}

// MatchRanges returns the byte ranges of the non-overlapping
// case-insensitive occurrences of query in s.
func MatchRanges(s, query string) [][2]int {
	var out [][2]int
	offset := 0
	for offset < len(s) {
		idx, size := IndexFold(s[offset:], query)
		if idx < 0 {
			break
		}
		start := offset + idx
		out = append(out, [2]int{start, start + size})
		offset = start + size
	}
	return out
}
