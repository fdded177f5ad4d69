package textutil

import "strings"

// maxBetween is how many words may sit between the two words.
const maxBetween = 2

// IsWord1FollowedByWord2 reports whether word1 is followed by word2 with at
// most two words in between, e.g. "turn the light on" for turn/on.
//
// word1 must be followed by whitespace; word2 must end on a word boundary.
// Words in between are runs of [A-Za-z0-9_] and none of them may end with
// one of the exceptions.
func IsWord1FollowedByWord2(subject, word1, word2 string, exceptions ...string) bool {
	if word1 == "" || word2 == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(subject[from:], word1)
		if i < 0 {
			return false
		}
		start := from + i
		if followedBy(subject[start+len(word1):], word2, exceptions, maxBetween) {
			return true
		}
		from = start + 1
	}
}

// followedBy matches rest against (\s+\w+){0,budget}\s+word2\b.
func followedBy(rest, word2 string, exceptions []string, budget int) bool {
	n := spanFunc(rest, isSpaceByte)
	if n == 0 {
		return false
	}
	rest = rest[n:]

	if strings.HasPrefix(rest, word2) && atBoundary(rest, len(word2)) {
		return true
	}
	if budget == 0 {
		return false
	}

	w := spanFunc(rest, isWordByte)
	if w == 0 || endsWithAny(rest[:w], exceptions) {
		return false
	}
	return followedBy(rest[w:], word2, exceptions, budget-1)
}

// atBoundary reports whether s has a word boundary at byte offset i.
func atBoundary(s string, i int) bool {
	before := i > 0 && isWordByte(s[i-1])
	after := i < len(s) && isWordByte(s[i])
	return before != after
}

func endsWithAny(tok string, suffixes []string) bool {
	for _, sfx := range suffixes {
		if sfx != "" && strings.HasSuffix(tok, sfx) {
			return true
		}
	}
	return false
}

func spanFunc(s string, f func(byte) bool) int {
	i := 0
	for i < len(s) && f(s[i]) {
		i++
	}
	return i
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpaceByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	return r < 0x80 && isSpaceByte(byte(r))
}
