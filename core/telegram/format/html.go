// Package format builds Telegram HTML message fragments.
package format

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as markup.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// Bold wraps escaped text in <b>.
func Bold(text string) string {
	return "<b>" + EscapeHTML(text) + "</b>"
}

// Italic wraps escaped text in <i>.
func Italic(text string) string {
	return "<i>" + EscapeHTML(text) + "</i>"
}

// Code wraps escaped text in <code>.
func Code(text string) string {
	return "<code>" + EscapeHTML(text) + "</code>"
}

// Link renders an anchor. An empty label shows the URL itself.
func Link(url, label string) string {
	if label == "" {
		label = url
	}
	return `<a href="` + EscapeHTML(url) + `">` + EscapeHTML(label) + "</a>"
}
