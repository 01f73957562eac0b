package norm

import "strings"

// ParagraphText returns the flat text of a Paragraph node, preferring
// the cached raw text and falling back to concatenating its direct
// children.
func ParagraphText(p *Paragraph) string {
	if p == nil {
		return ""
	}
	if p.RawText != "" {
		return p.RawText
	}
	var parts []string
	for _, child := range p.Children {
		switch c := child.(type) {
		case Text:
			parts = append(parts, string(c))
		default:
			if t := shallowText(child); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// NormText returns the complete flat text of a norm's body, preferring
// the content-level raw text cache and otherwise joining the top-level
// nodes in document order, one line per node.
func NormText(n *Norm) string {
	if n == nil || n.Body == nil || n.Body.Content == nil {
		return ""
	}
	content := n.Body.Content
	if content.RawText != "" {
		return content.RawText
	}
	var parts []string
	for _, node := range content.Nodes {
		switch v := node.(type) {
		case Text:
			parts = append(parts, string(v))
		case *Paragraph:
			parts = append(parts, ParagraphText(v))
		default:
			if t := shallowText(node); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n")
}

// NodesText recursively extracts text from a node list. Definition lists
// are skipped here; list rendering is handled separately so enumerations
// keep their structure.
func NodesText(nodes []ContentNode) string {
	var parts []string
	for _, node := range nodes {
		switch v := node.(type) {
		case Text:
			parts = append(parts, string(v))
		case *Paragraph:
			if v.RawText != "" {
				parts = append(parts, v.RawText)
			} else if len(v.Children) > 0 {
				parts = append(parts, NodesText(v.Children))
			}
		case *DefinitionList:
			continue
		case *FormatSpan:
			if v.Text != "" {
				parts = append(parts, v.Text)
			} else if len(v.Children) > 0 {
				parts = append(parts, NodesText(v.Children))
			}
		case *Comment:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		case *Preformatted:
			if v.Text != "" {
				parts = append(parts, v.Text)
			}
		case *TOC:
			if len(v.Content) > 0 {
				parts = append(parts, NodesText(v.Content))
			}
		case *Revision:
			if len(v.Content) > 0 {
				parts = append(parts, NodesText(v.Content))
			}
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// shallowText pulls the immediate text of a non-paragraph node without
// descending; composite nodes fall back to a recursive extraction.
func shallowText(node ContentNode) string {
	switch v := node.(type) {
	case *FormatSpan:
		if v.Text != "" {
			return v.Text
		}
		return NodesText(v.Children)
	case *Comment:
		return v.Text
	case *Preformatted:
		return v.Text
	case *TOC:
		return NodesText(v.Content)
	case *Revision:
		return NodesText(v.Content)
	}
	return ""
}
