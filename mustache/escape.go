package mustache

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces the characters & < > " ' with HTML entities. It is
// the default escape function of an [Engine].
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }
