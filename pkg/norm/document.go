package norm

import (
	"strings"
	"time"
)

// Document is the root of a parsed law: an ordered sequence of norms plus
// build metadata from the source file. A Document and its tree are built
// once and are read-only afterwards.
type Document struct {
	Builddate string
	DokNr     string
	Norms     []*Norm
}

// Norm is one entry in a law document: a paragraph entry (Label set) or a
// structural heading (Heading set). A norm with neither is empty and is
// skipped by all accessors.
type Norm struct {
	Builddate string
	DokNr     string
	Metadata  *Metadata
	Body      *TextBody
	Footnote  *TextBody
}

// Metadata holds the descriptive fields of a norm. All fields are
// optional except Jurabk, which is always a (possibly empty) ordered
// list. The document-level title and abbreviations are read from the
// first norm's metadata only.
type Metadata struct {
	Jurabk     []string
	Amtabk     string
	IssueDate  *IssueDate
	PubRefs    []*PubRef
	ShortTitle string
	LongTitle  string
	AsOf       []*AsOfNote
	Label      string
	Title      string
	Heading    *Heading
}

// IssueDate is the ausfertigung-datum of a law. The schema guarantees a
// default for the manual flag: absence means "nein", so Manual is a
// plain bool. A zero Date means the date was absent or unparsable.
type IssueDate struct {
	Manual bool
	Date   time.Time
}

// PubRef is a publication reference (fundstelle). Kind is "amtlich",
// "nichtamtlich" or empty.
type PubRef struct {
	Kind       string
	Periodical string
	Cite       string
	Enclosure  *Enclosure
}

// Enclosure carries filing data attached to a publication reference.
type Enclosure struct {
	FiledDate   string
	DocOffice   string
	ReleaseDate string
}

// AsOfNote is a currency remark (standangabe). Checked is "ja", "nein"
// or empty when the attribute was absent; the schema defines no default
// here, so absence is preserved.
type AsOfNote struct {
	Checked string
	Kind    string
	Comment string
}

// Heading identifies a structural unit (Gliederungseinheit): book, part,
// chapter or section marker carrying no substantive text.
type Heading struct {
	Code  string
	Label string
	Title string
}

// TextBody is the parsed content of a norm's text or footnote section.
type TextBody struct {
	Format    string
	TOC       *TOC
	Content   *Content
	Footnotes *Footnotes
}

// Content is the structured text container: the ordered node tree plus a
// cached flat-text rendering for fast extraction.
type Content struct {
	ID      string
	Nodes   []ContentNode
	RawText string
}

// IsParagraph reports whether the norm is a paragraph entry.
func (n *Norm) IsParagraph() bool {
	return n.Metadata != nil && n.Metadata.Label != ""
}

// IsHeading reports whether the norm is a structural heading.
func (n *Norm) IsHeading() bool {
	return n.Metadata != nil && n.Metadata.Heading != nil
}

// Title returns the law's title from the first norm's metadata,
// preferring the long title.
func (d *Document) Title() string {
	if len(d.Norms) == 0 || d.Norms[0].Metadata == nil {
		return ""
	}
	meta := d.Norms[0].Metadata
	if meta.LongTitle != "" {
		return meta.LongTitle
	}
	return meta.Title
}

// Abbreviations returns the legal abbreviations (jurabk) from the first
// norm's metadata, in document order.
func (d *Document) Abbreviations() []string {
	if len(d.Norms) == 0 || d.Norms[0].Metadata == nil {
		return nil
	}
	return d.Norms[0].Metadata.Jurabk
}

// Paragraphs returns the paragraph-bearing norms in document order,
// excluding structural headings and empty norms.
func (d *Document) Paragraphs() []*Norm {
	var out []*Norm
	for _, n := range d.Norms {
		if n.IsParagraph() {
			out = append(out, n)
		}
	}
	return out
}

// Headings returns the structural-heading norms in document order.
func (d *Document) Headings() []*Norm {
	var out []*Norm
	for _, n := range d.Norms {
		if n.IsHeading() {
			out = append(out, n)
		}
	}
	return out
}

// FindParagraph locates a paragraph norm by its label. Both the query
// and the stored labels are normalized by stripping the "§" marker and
// surrounding whitespace; comparison is exact, so "8" does not match a
// norm labeled "8b". Returns the first match in document order.
func (d *Document) FindParagraph(label string) (*Norm, bool) {
	want := NormalizeLabel(label)
	for _, n := range d.Paragraphs() {
		if NormalizeLabel(n.Metadata.Label) == want {
			return n, true
		}
	}
	return nil, false
}

// NormalizeLabel strips the "§" marker and surrounding whitespace from a
// paragraph label.
func NormalizeLabel(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, "§", ""))
}
