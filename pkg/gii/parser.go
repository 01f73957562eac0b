package gii

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

// absatzPattern matches a leading "(N)" or "(Na)" section marker at the
// very start of a paragraph's flat text.
var absatzPattern = regexp.MustCompile(`^\((\d+[a-z]?)\)`)

// formatTags is the fixed set of inline formatting elements that map to
// a FormatSpan.
var formatTags = map[string]bool{
	"B":        true,
	"I":        true,
	"U":        true,
	"SUP":      true,
	"SUB":      true,
	"SP":       true,
	"small":    true,
	"Citation": true,
}

// ParseDocument parses a gii-norm XML document from a reader.
func ParseDocument(r io.Reader) (*norm.Document, error) {
	root, err := DecodeElement(r)
	if err != nil {
		return nil, err
	}
	if root.Tag != "dokumente" {
		return nil, fmt.Errorf("unexpected root element %q, want \"dokumente\"", root.Tag)
	}

	doc := &norm.Document{
		Builddate: root.Attr("builddate"),
		DokNr:     root.Attr("doknr"),
	}
	// Direct children only; nested norm elements would be duplicates.
	for _, child := range root.FindChildren("norm") {
		doc.Norms = append(doc.Norms, parseNorm(child))
	}
	return doc, nil
}

// ParseFile parses a gii-norm XML file from disk.
func ParseFile(path string) (*norm.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ParseDocument(f)
}

func parseNorm(e *Element) *norm.Norm {
	n := &norm.Norm{
		Builddate: e.Attr("builddate"),
		DokNr:     e.Attr("doknr"),
	}
	if meta := e.FindChild("metadaten"); meta != nil {
		n.Metadata = parseMetadata(meta)
	}
	if textdaten := e.FindChild("textdaten"); textdaten != nil {
		if text := textdaten.FindChild("text"); text != nil {
			n.Body = parseTextBody(text)
		}
		if fussnoten := textdaten.FindChild("fussnoten"); fussnoten != nil {
			n.Footnote = parseTextBody(fussnoten)
		}
	}
	return n
}

func parseTextBody(e *Element) *norm.TextBody {
	body := &norm.TextBody{Format: e.Attr("format")}
	if toc := e.FindChild("TOC"); toc != nil {
		body.TOC = parseTOC(toc)
	}
	if content := e.FindChild("Content"); content != nil {
		body.Content = &norm.Content{
			ID:      content.Attr("ID", "Id", "id"),
			Nodes:   parseContent(content),
			RawText: flattenText(content),
		}
	}
	if footnotes := e.FindChild("Footnotes"); footnotes != nil {
		body.Footnotes = parseFootnotes(footnotes)
	}
	return body
}

// parseContent transforms an element's mixed text/element content into
// an ordered ContentNode list. Leading text and per-child tail text are
// whitespace-normalized as whole blocks; a tail that normalizes to
// exactly a single space is a pure separator and is dropped, any other
// non-empty tail is preserved for rendering fidelity.
func parseContent(e *Element) []norm.ContentNode {
	var nodes []norm.ContentNode

	if text := strings.TrimSpace(normalizeWhitespace(e.Text)); text != "" {
		nodes = append(nodes, norm.Text(text))
	}

	for _, child := range e.Children {
		switch {
		case isRecMarker(child):
			// Footnote reference marker: the superscript itself is
			// elided, but its tail must survive to keep word spacing
			// intact.
		case child.Tag == "P":
			nodes = append(nodes, parseParagraph(child))
		case child.Tag == "DL":
			nodes = append(nodes, parseDefinitionList(child))
		case child.Tag == "table":
			nodes = append(nodes, parseTable(child))
		case child.Tag == "IMG":
			nodes = append(nodes, parseImage(child))
		case child.Tag == "FILE":
			nodes = append(nodes, parseFileRef(child))
		case child.Tag == "FnArea":
			nodes = append(nodes, parseFnArea(child))
		case child.Tag == "TOC":
			nodes = append(nodes, parseTOC(child))
		case child.Tag == "kommentar":
			nodes = append(nodes, parseComment(child))
		case child.Tag == "pre":
			nodes = append(nodes, &norm.Preformatted{Text: flattenText(child)})
		case child.Tag == "Revision":
			nodes = append(nodes, parseRevision(child))
		case formatTags[child.Tag]:
			nodes = append(nodes, parseFormatSpan(child))
		case child.Tag == "BR":
			nodes = append(nodes, norm.Text("\n"))
		default:
			// Unknown tag: degrade to the subtree's flat text.
			if text := flattenText(child); text != "" {
				nodes = append(nodes, norm.Text(text))
			}
		}

		if tail := normalizeWhitespace(child.Tail); tail != "" && tail != " " {
			nodes = append(nodes, norm.Text(tail))
		}
	}

	return nodes
}

func parseParagraph(e *Element) *norm.Paragraph {
	raw := flattenText(e)
	return &norm.Paragraph{
		ID:           e.Attr("ID", "Id", "id"),
		Children:     parseContent(e),
		RawText:      raw,
		AbsatzNumber: extractAbsatzNumber(raw),
	}
}

// extractAbsatzNumber pulls the section number out of a leading "(N)"
// marker. Only the first few characters are inspected; the raw text is
// left untouched, callers strip the prefix at render time.
func extractAbsatzNumber(raw string) string {
	head := raw
	if len(head) > 10 {
		head = head[:10]
	}
	if m := absatzPattern.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	return ""
}

// parseDefinitionList pairs DT terms with their immediately following DD
// descriptions. A term sets the pending state; the next description
// consumes it. Two terms in a row or a description without a pending
// term leave an orphan, which is dropped: tolerating malformed source
// lists is an explicit policy, not an accident.
func parseDefinitionList(e *Element) *norm.DefinitionList {
	dl := &norm.DefinitionList{
		ID:     e.Attr("ID", "Id", "id"),
		Indent: e.Attr("Indent"),
		Font:   e.Attr("Font"),
		Type:   e.Attr("Type"),
	}

	var pending *norm.Term
	for _, child := range e.Children {
		switch child.Tag {
		case "DT":
			term := parseTerm(child)
			pending = &term
		case "DD":
			if pending == nil {
				continue
			}
			dl.Items = append(dl.Items, norm.DefinitionItem{
				Term:        *pending,
				Description: parseDescription(child),
			})
			pending = nil
		}
	}
	return dl
}

func parseTerm(e *Element) norm.Term {
	return norm.Term{
		ID:   e.Attr("ID", "Id", "id"),
		Text: flattenText(e),
	}
}

func parseDescription(e *Element) norm.Description {
	desc := norm.Description{ID: e.Attr("ID", "Id", "id")}
	if la := e.FindChild("LA"); la != nil {
		desc.Item = parseListItem(la)
	}
	for _, rev := range e.FindChildren("Revision") {
		desc.Revisions = append(desc.Revisions, parseRevision(rev))
	}
	return desc
}

func parseListItem(e *Element) *norm.ListItem {
	item := &norm.ListItem{
		ID:    e.Attr("ID", "Id", "id"),
		Size:  e.Attr("Size"),
		Value: e.Attr("Value"),
	}
	if len(e.Children) == 0 {
		item.Text = flattenText(e)
	} else {
		item.Children = parseContent(e)
	}
	return item
}

func parseTable(e *Element) *norm.Table {
	table := &norm.Table{
		ID:     e.Attr("ID", "Id", "id"),
		Frame:  e.Attr("frame"),
		ColSep: e.Attr("colsep"),
		RowSep: e.Attr("rowsep"),
	}
	if title := e.FindChild("Title"); title != nil {
		table.Title = strings.TrimSpace(title.Text)
	}
	for _, tgroup := range e.FindChildren("tgroup") {
		table.Groups = append(table.Groups, parseTableGroup(tgroup))
	}
	return table
}

func parseTableGroup(e *Element) *norm.TableGroup {
	group := &norm.TableGroup{Cols: atoiOr(e.Attr("cols"), 1)}
	for _, colspec := range e.FindChildren("colspec") {
		group.ColSpecs = append(group.ColSpecs, norm.ColSpec{
			Name:   colspec.Attr("colname"),
			Num:    atoiOr(colspec.Attr("colnum"), 0),
			Width:  colspec.Attr("colwidth"),
			Align:  colspec.Attr("align"),
			ColSep: colspec.Attr("colsep"),
			RowSep: colspec.Attr("rowsep"),
		})
	}
	if thead := e.FindChild("thead"); thead != nil {
		group.Head = parseRows(thead)
	}
	if tbody := e.FindChild("tbody"); tbody != nil {
		group.Body = parseRows(tbody)
	}
	if tfoot := e.FindChild("tfoot"); tfoot != nil {
		group.Foot = parseRows(tfoot)
	}
	return group
}

func parseRows(e *Element) []*norm.TableRow {
	var rows []*norm.TableRow
	for _, row := range e.FindChildren("row") {
		parsed := &norm.TableRow{
			ID:     row.Attr("ID", "Id", "id"),
			RowSep: row.Attr("rowsep"),
			VAlign: row.Attr("valign"),
		}
		for _, entry := range row.FindChildren("entry") {
			// Cells recurse through the full content parser so nested
			// lists and format spans inside them are preserved.
			parsed.Cells = append(parsed.Cells, &norm.TableCell{
				ID:       entry.Attr("ID", "Id", "id"),
				Align:    entry.Attr("align"),
				VAlign:   entry.Attr("valign"),
				ColName:  entry.Attr("colname"),
				NameSt:   entry.Attr("namest"),
				NameEnd:  entry.Attr("nameend"),
				MoreRows: atoiOr(entry.Attr("morerows"), 0),
				ColSep:   entry.Attr("colsep"),
				RowSep:   entry.Attr("rowsep"),
				Content:  parseContent(entry),
			})
		}
		rows = append(rows, parsed)
	}
	return rows
}

func parseImage(e *Element) *norm.Image {
	return &norm.Image{
		Src:    e.Attr("SRC", "Src", "src"),
		Alt:    e.Attr("alt", "Alt"),
		Title:  e.Attr("title", "Title"),
		Orient: e.Attr("orient", "Orient"),
		Pos:    e.Attr("Pos", "pos"),
		Align:  e.Attr("Align", "align"),
		Size:   e.Attr("Size", "size"),
		Width:  e.Attr("Width", "width"),
		Height: e.Attr("Height", "height"),
		Units:  e.Attr("Units", "units"),
		Type:   e.Attr("Type", "type"),
	}
}

func parseFileRef(e *Element) *norm.FileRef {
	return &norm.FileRef{
		Src:     e.Attr("SRC", "Src", "src"),
		Preview: e.Attr("PREVIEW", "Preview", "preview"),
		Type:    e.Attr("Type", "type"),
		Title:   e.Attr("title", "Title"),
	}
}

func parseFnArea(e *Element) *norm.FootnoteArea {
	area := &norm.FootnoteArea{
		Line: attrOr(e, "1", "Line", "line"),
		Size: attrOr(e, "normal", "Size", "size"),
	}
	for _, fnr := range e.FindChildren("FnR") {
		area.Refs = append(area.Refs, fnr.Attr("ID", "Id", "id"))
	}
	return area
}

func parseTOC(e *Element) *norm.TOC {
	return &norm.TOC{
		ID:      e.Attr("ID", "Id", "id"),
		Content: parseContent(e),
	}
}

func parseComment(e *Element) *norm.Comment {
	return &norm.Comment{
		Kind: attrOr(e, "Hinweis", "typ", "Typ"),
		Text: e.Text,
	}
}

func parseFormatSpan(e *Element) *norm.FormatSpan {
	return &norm.FormatSpan{
		Tag:      e.Tag,
		ID:       e.Attr("ID", "Id", "id"),
		Class:    e.Attr("Class", "class"),
		Text:     e.Text,
		Children: parseContent(e),
	}
}

func parseRevision(e *Element) *norm.Revision {
	return &norm.Revision{
		ID:      e.Attr("ID", "Id", "id"),
		Postfix: e.Attr("Postfix", "postfix"),
		Content: parseContent(e),
	}
}

func parseFootnotes(e *Element) *norm.Footnotes {
	fns := &norm.Footnotes{}
	for _, fn := range e.FindChildren("Footnote") {
		fns.Notes = append(fns.Notes, &norm.Footnote{
			ID:      fn.Attr("ID", "Id", "id"),
			Prefix:  fn.Attr("Prefix"),
			FnZ:     fn.Attr("FnZ"),
			Postfix: fn.Attr("Postfix"),
			Pos:     fn.Attr("Pos"),
			Group:   fn.Attr("Group"),
			Content: parseContent(fn),
		})
	}
	return fns
}

// isRecMarker reports whether an element is a superscript footnote
// reference marker (SUP with class "Rec").
func isRecMarker(e *Element) bool {
	return e.Tag == "SUP" && e.Attr("class", "Class") == "Rec"
}

// flattenText extracts the flat text of an element's subtree. Parts are
// joined with spaces and the whole result is whitespace-collapsed and
// trimmed. Rec markers contribute only their tail.
func flattenText(e *Element) string {
	var parts []string
	if e.Text != "" {
		parts = append(parts, e.Text)
	}
	for _, child := range e.Children {
		if isRecMarker(child) {
			if child.Tail != "" {
				parts = append(parts, child.Tail)
			}
			continue
		}
		parts = append(parts, flattenText(child))
		if child.Tail != "" {
			parts = append(parts, child.Tail)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// normalizeWhitespace maps line breaks and tabs to spaces and collapses
// runs of spaces to one. It does not trim: callers decide whether edge
// whitespace is significant (it is, for tail text between elements).
func normalizeWhitespace(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ").Replace(s)
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func attrOr(e *Element, fallback string, names ...string) string {
	if val := e.Attr(names...); val != "" {
		return val
	}
	return fallback
}
