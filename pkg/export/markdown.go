// Package export renders parsed law documents into other formats.
package export

import (
	"fmt"
	"strings"

	"github.com/coolbeans/gesetzessuche/pkg/norm"
	"github.com/coolbeans/gesetzessuche/pkg/search"
)

// Markdown renders a complete law as a Markdown document: title and
// metadata, a structural outline, then one section per paragraph with
// the body formatted the way the terminal output formats it.
func Markdown(doc *norm.Document, lawCode string) string {
	var b strings.Builder

	title := doc.Title()
	if title == "" {
		title = lawCode
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))

	if abks := doc.Abbreviations(); len(abks) > 0 {
		b.WriteString(fmt.Sprintf("**Abkürzungen:** %s\n\n", strings.Join(abks, ", ")))
	}
	if meta := firstMetadata(doc); meta != nil {
		if meta.IssueDate != nil && !meta.IssueDate.Date.IsZero() {
			b.WriteString(fmt.Sprintf("**Ausfertigungsdatum:** %s\n\n", meta.IssueDate.Date.Format("02.01.2006")))
		}
		for _, note := range meta.AsOf {
			if note.Kind != "" || note.Comment != "" {
				b.WriteString(fmt.Sprintf("**%s:** %s\n\n", orDefault(note.Kind, "Stand"), note.Comment))
			}
		}
	}

	writeOutline(&b, doc)
	writeParagraphs(&b, doc, lawCode)

	return b.String()
}

// writeOutline emits the document structure: headings in bold, the
// paragraphs under them as list entries, all in document order.
func writeOutline(b *strings.Builder, doc *norm.Document) {
	b.WriteString("## Inhaltsübersicht\n\n")
	for _, n := range doc.Norms {
		switch {
		case n.IsHeading():
			h := n.Metadata.Heading
			b.WriteString(fmt.Sprintf("\n**%s**\n\n", strings.TrimSpace(h.Label+" "+h.Title)))
		case n.IsParagraph():
			line := n.Metadata.Label
			if n.Metadata.Title != "" {
				line += " - " + n.Metadata.Title
			}
			b.WriteString(fmt.Sprintf("- %s\n", line))
		}
	}
	b.WriteString("\n")
}

func writeParagraphs(b *strings.Builder, doc *norm.Document, lawCode string) {
	for _, n := range doc.Paragraphs() {
		b.WriteString(fmt.Sprintf("## %s", n.Metadata.Label))
		if n.Metadata.Title != "" {
			b.WriteString(" " + n.Metadata.Title)
		}
		b.WriteString("\n\n")

		if body := search.RenderNorm(n, lawCode); body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}
}

func firstMetadata(doc *norm.Document) *norm.Metadata {
	if len(doc.Norms) == 0 {
		return nil
	}
	return doc.Norms[0].Metadata
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
