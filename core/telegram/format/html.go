// Package format prepares user-supplied text for HTML-parse-mode messages.
package format

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as
// markup. Applied to every user-supplied value interpolated into a panel or
// prompt so a name like "<b>" cannot break rendering.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// DerefString safely dereferences a *string and returns a default value if nil.
func DerefString(s *string, defaultVal string) string {
	if s != nil && *s != "" {
		return *s
	}
	return defaultVal
}
