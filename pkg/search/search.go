// Package search implements the query engine over a parsed law
// document: paragraph and section lookup, reference resolution,
// full-text search with context windows, and result formatting.
package search

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/coolbeans/gesetzessuche/pkg/citation"
	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

const banner = "======================================================================"

// Search answers queries against a single law document. The document is
// read-only, so a Search value is safe for concurrent use.
type Search struct {
	doc     *norm.Document
	lawCode string
}

// Result is one full-text search hit.
type Result struct {
	Paragraph string
	Title     string
	Context   string
}

// Entry is one row of a paragraph listing.
type Entry struct {
	Label string
	Title string
}

// New builds a query engine for a document under the given law code.
func New(doc *norm.Document, lawCode string) *Search {
	return &Search{doc: doc, lawCode: lawCode}
}

// FindParagraph returns the formatted text block of a paragraph looked
// up by label. The "§" marker in the query is ignored.
func (s *Search) FindParagraph(label string) (string, bool) {
	n, ok := s.doc.FindParagraph(label)
	if !ok {
		return "", false
	}
	return s.formatNorm(n), true
}

// FindSection returns the n-th section (Absatz) of a paragraph. Lookup
// is positional: the top-level Paragraph nodes of the body are counted
// in document order and the section number selects the n-th one,
// 1-based. Leading markers like "(2)" in the text are not consulted.
func (s *Search) FindSection(label, section string) (string, bool) {
	n, ok := s.doc.FindParagraph(label)
	if !ok {
		return "", false
	}
	target, err := strconv.Atoi(section)
	if err != nil || target < 1 {
		return "", false
	}
	if n.Body == nil || n.Body.Content == nil {
		return "", false
	}

	count := 0
	for _, node := range n.Body.Content.Nodes {
		p, isPara := node.(*norm.Paragraph)
		if !isPara {
			continue
		}
		count++
		if count == target {
			lines := []string{
				banner,
				fmt.Sprintf("%s %s Absatz %s", s.lawCode, n.Metadata.Label, section),
				banner,
				"",
				norm.ParagraphText(p),
			}
			return strings.Join(lines, "\n"), true
		}
	}
	return "", false
}

// ByReference resolves a reference string like "§ 8b Absatz 2" or
// "§ 10 Absatz 1 Nummer 4 Buchstabe a" against the document. References
// that name a Nummer, Buchstabe or Satz resolve to the enclosing
// section or paragraph, with a "(Gesucht: …)" note recording the
// sub-reference; individual list items are never extracted.
func (s *Search) ByReference(reference string) (string, bool) {
	ref, ok := citation.Parse(reference)
	if !ok {
		return "", false
	}

	if ref.Number != "" || ref.Letter != "" || ref.Sentence != "" {
		if ref.Section == "" {
			return s.FindParagraph(ref.Paragraph)
		}
		result, found := s.FindSection(ref.Paragraph, ref.Section)
		if !found {
			return "", false
		}
		return insertNote(result, searchedNote(ref)), true
	}

	if ref.Section != "" {
		return s.FindSection(ref.Paragraph, ref.Section)
	}
	return s.FindParagraph(ref.Paragraph)
}

// searchedNote renders the sub-reference components that were requested
// but not drilled into.
func searchedNote(ref *citation.Reference) string {
	var parts []string
	if ref.Number != "" {
		parts = append(parts, "Nummer "+ref.Number)
	}
	if ref.Letter != "" {
		parts = append(parts, "Buchstabe "+ref.Letter)
	}
	if ref.Sentence != "" {
		parts = append(parts, "Satz "+ref.Sentence)
	}
	return "(Gesucht: " + strings.Join(parts, " ") + ")"
}

// insertNote places the note on its own line directly after the header
// block (three lines: banner, heading, banner).
func insertNote(block, note string) string {
	lines := strings.Split(block, "\n")
	if len(lines) < 3 {
		return block + "\n" + note
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:3]...)
	out = append(out, note)
	out = append(out, lines[3:]...)
	return strings.Join(out, "\n")
}

// SearchTerm finds all paragraphs containing term and returns them in
// document order, each with up to 100 characters of context on either
// side of the first occurrence. Ellipses mark truncated edges only.
func (s *Search) SearchTerm(term string, caseSensitive bool) []Result {
	needle := term
	if !caseSensitive {
		needle = strings.ToLower(term)
	}

	var results []Result
	for _, n := range s.doc.Paragraphs() {
		text := norm.NormText(n)
		if text == "" {
			continue
		}
		haystack := text
		if !caseSensitive {
			haystack = strings.ToLower(text)
		}
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			continue
		}

		// The window is counted in runes so multi-byte text gets the
		// full context and is never cut mid-rune. Lowercasing maps rune
		// to rune, so rune offsets in haystack and text agree.
		runes := []rune(text)
		matchStart := utf8.RuneCountInString(haystack[:idx])
		matchLen := utf8.RuneCountInString(needle)

		start := matchStart - 100
		if start < 0 {
			start = 0
		}
		end := matchStart + matchLen + 100
		if end > len(runes) {
			end = len(runes)
		}
		context := string(runes[start:end])
		if start > 0 {
			context = "..." + context
		}
		if end < len(runes) {
			context = context + "..."
		}

		results = append(results, Result{
			Paragraph: n.Metadata.Label,
			Title:     n.Metadata.Title,
			Context:   context,
		})
	}
	return results
}

// ListParagraphs returns the label and title of every paragraph norm in
// document order. Structural headings do not appear.
func (s *Search) ListParagraphs() []Entry {
	var entries []Entry
	for _, n := range s.doc.Paragraphs() {
		entries = append(entries, Entry{
			Label: n.Metadata.Label,
			Title: n.Metadata.Title,
		})
	}
	return entries
}

// Info renders a summary of the law: title, abbreviations, counts and
// the first five paragraphs.
func (s *Search) Info() string {
	title := s.doc.Title()
	if title == "" {
		title = "Unknown"
	}
	paragraphs := s.doc.Paragraphs()

	lines := []string{
		banner,
		fmt.Sprintf("%s: %s", s.lawCode, title),
		banner,
		fmt.Sprintf("Abbreviations: %s", strings.Join(s.doc.Abbreviations(), ", ")),
		fmt.Sprintf("Total norms:   %d", len(s.doc.Norms)),
		fmt.Sprintf("Paragraphs:    %d", len(paragraphs)),
		fmt.Sprintf("Structure:     %d elements", len(s.doc.Headings())),
		"",
		"First 5 paragraphs:",
	}
	for i, n := range paragraphs {
		if i == 5 {
			break
		}
		lines = append(lines, fmt.Sprintf("  %-15s %s", n.Metadata.Label, truncate(n.Metadata.Title, 50)))
	}
	return strings.Join(lines, "\n")
}

// formatNorm renders a norm as a banner-framed block: law code and
// label, the optional title, then the full flat text.
func (s *Search) formatNorm(n *norm.Norm) string {
	label := n.Metadata.Label
	if label == "" {
		label = "?"
	}
	lines := []string{banner, s.lawCode + " " + label}
	if n.Metadata.Title != "" {
		lines = append(lines, n.Metadata.Title)
	}
	lines = append(lines, banner)
	if text := norm.NormText(n); text != "" {
		lines = append(lines, "", text)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
