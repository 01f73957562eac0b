package search

import (
	"strings"

	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

// RenderNorm renders a norm's body with list structure preserved:
// sections get a "(N) intro" header line, definition lists are printed
// one item per line with two spaces of indentation per nesting level,
// and sections are separated by a blank line. A body without Paragraph
// nodes falls back to the cached flat text.
func RenderNorm(n *norm.Norm, lawCode string) string {
	if n == nil || n.Body == nil || n.Body.Content == nil {
		return ""
	}
	content := n.Body.Content

	var paragraphs []*norm.Paragraph
	for _, node := range content.Nodes {
		if p, ok := node.(*norm.Paragraph); ok {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return content.RawText
	}

	label := ""
	if n.Metadata != nil {
		label = norm.NormalizeLabel(n.Metadata.Label)
	}

	var lines []string
	for i, p := range paragraphs {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, renderParagraph(p, sectionRef(lawCode, label, p.AbsatzNumber))...)
	}
	return strings.Join(lines, "\n")
}

// sectionRef builds the hierarchical reference prefix handed down to
// nested list items, e.g. "HGB 266 Absatz 2".
func sectionRef(lawCode, label, absatz string) string {
	ref := lawCode + " " + label
	if absatz != "" {
		ref += " Absatz " + absatz
	}
	return ref
}

func renderParagraph(p *norm.Paragraph, ref string) []string {
	var lists []*norm.DefinitionList
	for _, node := range p.Children {
		if dl, ok := node.(*norm.DefinitionList); ok {
			lists = append(lists, dl)
		}
	}

	if len(lists) == 0 {
		text := stripAbsatzPrefix(p.RawText, p.AbsatzNumber)
		switch {
		case p.AbsatzNumber != "" && text != "":
			return []string{"(" + p.AbsatzNumber + ") " + text}
		case p.AbsatzNumber != "":
			return []string{"(" + p.AbsatzNumber + ")"}
		case text != "":
			return []string{text}
		}
		return nil
	}

	// Intro is the plain text preceding the first list.
	var introParts []string
	for _, node := range p.Children {
		if _, ok := node.(*norm.DefinitionList); ok {
			break
		}
		if text, ok := node.(norm.Text); ok {
			introParts = append(introParts, string(text))
		}
	}
	intro := stripAbsatzPrefix(strings.TrimSpace(strings.Join(introParts, " ")), p.AbsatzNumber)

	var lines []string
	switch {
	case p.AbsatzNumber != "" && intro != "":
		lines = append(lines, "("+p.AbsatzNumber+") "+intro)
	case p.AbsatzNumber != "":
		lines = append(lines, "("+p.AbsatzNumber+")")
	case intro != "":
		lines = append(lines, intro)
	}
	for _, dl := range lists {
		lines = append(lines, renderDefinitionList(dl, 0, ref)...)
	}
	return lines
}

// renderDefinitionList prints a definition list one item per line. Items
// with a nested list put their term (and any intro text) on one line and
// the nested items below, indented one more level.
func renderDefinitionList(dl *norm.DefinitionList, level int, parentRef string) []string {
	indent := strings.Repeat("  ", level)

	var lines []string
	for _, item := range dl.Items {
		term := item.Term.Text
		la := item.Description.Item
		if la == nil {
			continue
		}

		var nested []*norm.DefinitionList
		var textParts []string
		for _, child := range la.Children {
			switch c := child.(type) {
			case *norm.DefinitionList:
				nested = append(nested, c)
			case norm.Text:
				textParts = append(textParts, string(c))
			}
		}

		if len(nested) == 0 {
			text := la.Text
			if text == "" {
				text = strings.TrimSpace(strings.Join(textParts, " "))
			}
			if text == "" {
				text = norm.NodesText(la.Children)
			}
			if text != "" {
				lines = append(lines, indent+term+" "+text)
			}
			continue
		}

		intro := la.Text
		if intro == "" {
			intro = strings.TrimSpace(strings.Join(textParts, " "))
		}
		if intro != "" {
			lines = append(lines, indent+term+" "+intro)
		} else {
			lines = append(lines, indent+term)
		}
		itemRef := parentRef + " " + term
		for _, sub := range nested {
			lines = append(lines, renderDefinitionList(sub, level+1, itemRef)...)
		}
	}
	return lines
}

// stripAbsatzPrefix removes a leading "(N)" marker matching the parsed
// section number. The stored raw text keeps the marker; it is dropped
// only here, at render time.
func stripAbsatzPrefix(text, absatz string) string {
	if absatz == "" {
		return text
	}
	prefix := "(" + absatz + ")"
	if strings.HasPrefix(text, prefix) {
		return strings.TrimSpace(text[len(prefix):])
	}
	return text
}
