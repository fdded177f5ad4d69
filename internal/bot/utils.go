package bot

import (
	"strings"

	"github.com/ffaiyaz23/botonomous/internal/textutil"
)

// ParseAppMentionText strips the leading "<@USERID>" mention and squeezes
// the remaining whitespace.
//
// For example, given text "<@B123> hello   world" it returns "hello world".
func ParseAppMentionText(text string) string {
	fields := strings.Fields(text)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "<@") && strings.HasSuffix(fields[0], ">") {
		return textutil.RemoveSubstring(fields[0], text)
	}
	return textutil.RemoveSubstring("", text)
}
