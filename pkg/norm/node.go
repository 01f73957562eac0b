// Package norm defines the typed content model for German federal law
// documents as published by gesetze-im-internet.de (gii-norm.dtd schema).
//
// A Document is an ordered collection of Norm values. Each norm is either
// a paragraph entry (substantive legal text) or a structural heading
// (Gliederungseinheit). Paragraph text is a recursive tree of ContentNode
// values that preserves the mixed text/element ordering of the source
// markup; node order is load-bearing for both rendering and positional
// section lookup.
package norm

// ContentNode is one node in a parsed text body. The set of
// implementations is closed; consumers dispatch with a type switch and
// treat anything unexpected as contributing no text.
type ContentNode interface {
	node()
}

// Text is a plain text run. A single "\n" Text node represents an
// explicit line break (BR) from the source markup.
type Text string

func (Text) node() {}

// Paragraph is an Absatz-level text block (P element). RawText caches the
// whitespace-normalized flat text of the whole subtree. AbsatzNumber
// holds the number extracted from a leading "(N)" marker, if any; the
// marker itself is left in RawText and stripped only at render time.
type Paragraph struct {
	ID           string
	Children     []ContentNode
	RawText      string
	AbsatzNumber string
}

func (*Paragraph) node() {}

// DefinitionList is a numbered or lettered enumeration (DL element).
type DefinitionList struct {
	ID     string
	Indent string
	Font   string
	Type   string
	Items  []DefinitionItem
}

func (*DefinitionList) node() {}

// DefinitionItem pairs a term (DT, e.g. "1." or "a)") with its
// description (DD). Items exist only for a term immediately followed by
// a description in source order.
type DefinitionItem struct {
	Term        Term
	Description Description
}

// Term is the label of a definition-list item (DT element).
type Term struct {
	ID   string
	Text string
}

// Description is the body of a definition-list item (DD element). The
// content sits in an optional list item (LA element); revision blocks
// may follow.
type Description struct {
	ID        string
	Item      *ListItem
	Revisions []*Revision
}

// ListItem is a list paragraph (LA element). Leaf items carry Text;
// items with element children carry the parsed Children instead.
type ListItem struct {
	ID       string
	Size     string
	Value    string
	Text     string
	Children []ContentNode
}

// Table is a CALS-style table. Cell content is fully recursive, so
// nested lists and format spans inside cells are preserved.
type Table struct {
	ID     string
	Frame  string
	ColSep string
	RowSep string
	Title  string
	Groups []*TableGroup
}

func (*Table) node() {}

// TableGroup is a column group (tgroup) with optional header and footer
// row sections.
type TableGroup struct {
	Cols     int
	ColSpecs []ColSpec
	Head     []*TableRow
	Body     []*TableRow
	Foot     []*TableRow
}

// ColSpec describes one table column.
type ColSpec struct {
	Name   string
	Num    int
	Width  string
	Align  string
	ColSep string
	RowSep string
}

// TableRow is an ordered list of cells.
type TableRow struct {
	ID     string
	RowSep string
	VAlign string
	Cells  []*TableCell
}

// TableCell is a single entry in a table row.
type TableCell struct {
	ID       string
	Align    string
	VAlign   string
	ColName  string
	NameSt   string
	NameEnd  string
	MoreRows int
	ColSep   string
	RowSep   string
	Content  []ContentNode
}

// Image is an inline image reference (IMG element).
type Image struct {
	Src    string
	Alt    string
	Title  string
	Orient string
	Pos    string
	Align  string
	Size   string
	Width  string
	Height string
	Units  string
	Type   string
}

func (*Image) node() {}

// FileRef is a file attachment reference (FILE element).
type FileRef struct {
	Src     string
	Preview string
	Type    string
	Title   string
}

func (*FileRef) node() {}

// FootnoteArea collects footnote reference ids (FnArea element).
type FootnoteArea struct {
	Line string
	Size string
	Refs []string
}

func (*FootnoteArea) node() {}

// TOC is an inline table of contents (TOC element).
type TOC struct {
	ID      string
	Content []ContentNode
}

func (*TOC) node() {}

// Comment is an editorial remark (kommentar element). Kind is one of
// the schema's comment types (Stand, Stand-Hinweis, Hinweis, Fundstelle,
// Verarbeitung).
type Comment struct {
	Kind string
	Text string
}

func (*Comment) node() {}

// Preformatted is a verbatim text block (pre element). Whitespace inside
// is flattened like any other raw text.
type Preformatted struct {
	Text string
}

func (*Preformatted) node() {}

// FormatSpan is an inline formatting element (B, I, U, SUP, SUB, SP,
// small, Citation). Tag holds the source tag name.
type FormatSpan struct {
	Tag      string
	ID       string
	Class    string
	Text     string
	Children []ContentNode
}

func (*FormatSpan) node() {}

// Revision is a pending-amendment block (Revision element).
type Revision struct {
	ID      string
	Postfix string
	Content []ContentNode
}

func (*Revision) node() {}

// Footnote is a single footnote definition.
type Footnote struct {
	ID      string
	Prefix  string
	FnZ     string
	Postfix string
	Pos     string
	Group   string
	Content []ContentNode
}

// Footnotes is the footnote container of a text body.
type Footnotes struct {
	Notes []*Footnote
}
