// Package textutil holds the string helpers the bot uses to read messages.
package textutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InvalidContentError is returned by JSONToMap for text that is not a JSON
// object or array.
type InvalidContentError struct {
	Err error
}

func (e *InvalidContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid JSON content: %v", e.Err)
	}
	return "invalid JSON content"
}

func (e *InvalidContentError) Unwrap() error {
	return e.Err
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// JSONToMap decodes text into a map. Empty text gives an empty map, and a
// top-level array is keyed by index ("0", "1", ...).
func JSONToMap(text string) (map[string]any, error) {
	if text == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, &InvalidContentError{Err: err}
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		out := make(map[string]any, len(t))
		for i, item := range t {
			out[strconv.Itoa(i)] = item
		}
		return out, nil
	}
	return nil, &InvalidContentError{}
}

// RemoveSubstring deletes every occurrence of toRemove from subject, then
// squeezes whitespace runs to one space and trims the ends.
func RemoveSubstring(toRemove, subject string) string {
	if toRemove != "" {
		subject = strings.ReplaceAll(subject, toRemove, "")
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(subject, " "))
}

// ContainsWord reports whether word appears in subject between word boundaries.
func ContainsWord(word, subject string) bool {
	if word == "" {
		return false
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`).MatchString(subject)
}

// SnakeToTitleCase turns admin_user into AdminUser. Only the first letter of
// each word is changed.
func SnakeToTitleCase(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	upper := true
	for _, r := range strings.ReplaceAll(text, "_", " ") {
		switch {
		case r == ' ':
			upper = true
			continue
		case isSpace(r):
			upper = true
		case upper:
			r = toUpperASCII(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toUpperASCII(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}
