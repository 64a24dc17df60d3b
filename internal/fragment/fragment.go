// Package fragment derives URL-safe text-fragment anchors from chunk text.
//
// Browsers supporting the Text Fragments feature scroll to and highlight the
// first occurrence of the anchored text when a URL carries a
// "#:~:text=<fragment>" suffix. The fragment is built from the leading words
// of the matched chunk so the reader lands on the exact passage.
package fragment

import (
	"net/url"
	"regexp"
	"strings"
)

// MaxFragmentWords bounds the anchor length. Longer anchors are more likely
// to miss due to markup differences between the indexed text and the page.
const MaxFragmentWords = 8

var (
	headingMarkRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	imageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	codeSpanRe    = regexp.MustCompile("`+")
	// Underscores only count as emphasis markers at word edges, so
	// identifiers like snake_case keep their underscores and the anchor
	// still matches the rendered page text.
	emphasisRe  = regexp.MustCompile(`\*{1,3}|\b_{1,3}|_{1,3}\b`)
	listMarkRe  = regexp.MustCompile(`(?m)^\s*(?:[-+*]|\d+\.)\s+`)
	quoteMarkRe = regexp.MustCompile(`(?m)^\s*>+\s?`)
)

// StripMarkup removes lightweight markdown syntax from text, keeping the
// visible words. Links reduce to their display text, images disappear
// entirely. Whitespace is collapsed to single spaces.
func StripMarkup(text string) string {
	text = imageRe.ReplaceAllString(text, " ")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headingMarkRe.ReplaceAllString(text, "")
	text = listMarkRe.ReplaceAllString(text, "")
	text = quoteMarkRe.ReplaceAllString(text, "")
	text = codeSpanRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Build returns the percent-encoded anchor for a chunk, made from the first
// MaxFragmentWords words of the stripped text. An empty return means the
// caller should omit the "#:~:text=" suffix entirely.
func Build(chunk string) string {
	fields := strings.Fields(StripMarkup(chunk))
	if len(fields) == 0 {
		return ""
	}
	if len(fields) > MaxFragmentWords {
		fields = fields[:MaxFragmentWords]
	}
	escaped := url.QueryEscape(strings.Join(fields, " "))
	// QueryEscape encodes spaces as "+", which browsers read back as a
	// literal plus sign inside #:~:text= directives.
	return strings.ReplaceAll(escaped, "+", "%20")
}
