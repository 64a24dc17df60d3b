// Package segment splits long-form article content into retrieval-sized
// chunks.
//
// Splitting is a cascade: markdown heading boundaries first, blank-line
// paragraphs for oversized sections, sentence accumulation for oversized
// paragraphs. Undersized chunks are merged into their predecessor so the
// index never fills up with fragments too small to match anything.
//
// Segmentation is pure text transformation and never fails: unrecognized
// input degrades to a single section.
package segment

import (
	"regexp"
	"strings"
)

const (
	// MaxChunkWords is the upper bound that triggers the next cascade level.
	MaxChunkWords = 400

	// MinChunkWords is the lower bound below which a chunk is merged into
	// the chunk before it.
	MinChunkWords = 50
)

var (
	// headingRe matches section boundaries: ## or ### at the start of a line.
	headingRe = regexp.MustCompile(`(?m)^##{1,2}\s`)

	// paragraphRe matches blank-line paragraph breaks.
	paragraphRe = regexp.MustCompile(`\n[ \t]*\n`)

	// sentenceRe matches one sentence including its terminal punctuation.
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+[\s]*`)

	// bodyMarkerRe locates the "## Full Article" heading in semi-structured
	// documents (summary sections above, the indexable body below).
	bodyMarkerRe = regexp.MustCompile(`(?mi)^##\s+full article\s*$`)
)

// Body returns the portion of a document intended for full-text indexing.
// Semi-structured documents carry a "## Full Article" heading separating
// front-matter-style summary sections from the article body; when present,
// only the text after it is returned. Otherwise the whole content is the body.
func Body(content string) string {
	loc := bodyMarkerRe.FindStringIndex(content)
	if loc == nil {
		return content
	}
	rest := content[loc[1]:]
	return strings.TrimLeft(rest, "\r\n")
}

// Split segments document text into ordered chunks.
//
// Empty or whitespace-only input yields nil. Every produced chunk is
// non-empty; chunks under MinChunkWords are concatenated onto their
// predecessor with a blank line. Undersized chunks at the head of the
// document merge with each other; if their combined run still falls short
// it is dropped because there is nothing to merge it into.
func Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var candidates []string
	for _, section := range splitSections(text) {
		if wordCount(section) <= MaxChunkWords {
			candidates = append(candidates, section)
			continue
		}
		for _, para := range splitParagraphs(section) {
			if wordCount(para) <= MaxChunkWords {
				candidates = append(candidates, para)
				continue
			}
			candidates = append(candidates, splitSentences(para)...)
		}
	}

	return mergeUndersized(candidates)
}

// splitSections splits on markdown heading boundaries, keeping each heading
// line with the section it introduces. Text before the first heading is its
// own section.
func splitSections(text string) []string {
	starts := headingRe.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return trimNonEmpty([]string{text})
	}

	var sections []string
	prev := 0
	for _, loc := range starts {
		if loc[0] > prev {
			sections = append(sections, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, text[prev:])
	return trimNonEmpty(sections)
}

// splitParagraphs splits a section on blank lines.
func splitParagraphs(section string) []string {
	return trimNonEmpty(paragraphRe.Split(section, -1))
}

// splitSentences splits a paragraph on sentence-ending punctuation and
// greedily accumulates sentences up to MaxChunkWords per chunk. A single
// sentence longer than the limit becomes its own chunk; there is no finer
// level to fall back to.
func splitSentences(para string) []string {
	locs := sentenceRe.FindAllStringIndex(para, -1)
	if len(locs) == 0 {
		return trimNonEmpty([]string{para})
	}

	sentences := make([]string, 0, len(locs)+1)
	for _, loc := range locs {
		sentences = append(sentences, para[loc[0]:loc[1]])
	}
	// Keep any trailing text without terminal punctuation.
	if rest := strings.TrimSpace(para[locs[len(locs)-1][1]:]); rest != "" {
		sentences = append(sentences, rest)
	}

	var chunks []string
	var buf strings.Builder
	bufWords := 0
	for _, sentence := range sentences {
		sw := wordCount(sentence)
		if bufWords > 0 && bufWords+sw > MaxChunkWords {
			chunks = append(chunks, strings.TrimSpace(buf.String()))
			buf.Reset()
			bufWords = 0
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(strings.TrimSpace(sentence))
		bufWords += sw
	}
	if buf.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(buf.String()))
	}
	return chunks
}

// mergeUndersized folds chunks below MinChunkWords into their predecessor.
// A run of undersized chunks at the head of the document is merged together
// first; if the run still falls short of MinChunkWords it has no predecessor
// and is dropped rather than indexed as an orphan.
func mergeUndersized(chunks []string) []string {
	var out []string
	var lead string
	for _, chunk := range chunks {
		if len(out) == 0 && wordCount(chunk) < MinChunkWords {
			if lead == "" {
				lead = chunk
			} else {
				lead = lead + "\n\n" + chunk
			}
			if wordCount(lead) >= MinChunkWords {
				out = append(out, lead)
				lead = ""
			}
			continue
		}
		if wordCount(chunk) >= MinChunkWords {
			out = append(out, chunk)
			continue
		}
		out[len(out)-1] = out[len(out)-1] + "\n\n" + chunk
	}
	return out
}

// wordCount counts whitespace-delimited words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

// trimNonEmpty trims each string and drops the empty ones.
func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
