package display

import (
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultWidth = 80

var titleCaser = cases.Title(language.Und)

// Wrap word-wraps text to DefaultWidth, preserving ANSI escape sequences.
func Wrap(text string) string {
	return WrapWidth(text, DefaultWidth)
}

// WrapWidth word-wraps text to width columns.
func WrapWidth(text string, width int) string {
	return wordwrap.String(text, width)
}

// Title returns s with every word capitalized.
func Title(s string) string {
	return titleCaser.String(s)
}
