package gii

import (
	"strings"
	"time"

	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

func parseMetadata(e *Element) *norm.Metadata {
	meta := &norm.Metadata{
		Jurabk:     e.AllChildText("jurabk"),
		Amtabk:     e.ChildText("amtabk"),
		ShortTitle: e.ChildText("kurzue"),
		LongTitle:  e.ChildText("langue"),
		Label:      e.ChildText("enbez"),
		Title:      e.ChildText("titel"),
	}
	if date := e.FindChild("ausfertigung-datum"); date != nil {
		meta.IssueDate = parseIssueDate(date)
	}
	for _, ref := range e.FindChildren("fundstelle") {
		meta.PubRefs = append(meta.PubRefs, parsePubRef(ref))
	}
	for _, note := range e.FindChildren("standangabe") {
		meta.AsOf = append(meta.AsOf, parseAsOfNote(note))
	}
	if unit := e.FindChild("gliederungseinheit"); unit != nil {
		meta.Heading = &norm.Heading{
			Code:  unit.ChildText("gliederungskennzahl"),
			Label: unit.ChildText("gliederungsbez"),
			Title: unit.ChildText("gliederungstitel"),
		}
	}
	return meta
}

// parseIssueDate reads an ausfertigung-datum element. The manuell
// attribute defaults to "nein" when absent; an unparsable date yields
// the zero time rather than an error.
func parseIssueDate(e *Element) *norm.IssueDate {
	issue := &norm.IssueDate{Manual: e.Attr("manuell") == "ja"}
	if text := strings.TrimSpace(e.Text); text != "" {
		if date, err := time.Parse("2006-01-02", text); err == nil {
			issue.Date = date
		}
	}
	return issue
}

func parsePubRef(e *Element) *norm.PubRef {
	ref := &norm.PubRef{
		Periodical: e.ChildText("periodikum"),
		Cite:       e.ChildText("zitstelle"),
	}
	// Anything but the two schema-defined values counts as absent.
	if typ := e.Attr("typ"); typ == "amtlich" || typ == "nichtamtlich" {
		ref.Kind = typ
	}
	if enc := e.FindChild("anlageabgabe"); enc != nil {
		ref.Enclosure = &norm.Enclosure{
			FiledDate:   enc.ChildText("anlagedat"),
			DocOffice:   enc.ChildText("dokst"),
			ReleaseDate: enc.ChildText("abgabedat"),
		}
	}
	return ref
}

func parseAsOfNote(e *Element) *norm.AsOfNote {
	note := &norm.AsOfNote{
		Kind:    e.ChildText("standtyp"),
		Comment: e.ChildText("standkommentar"),
	}
	if checked := e.Attr("checked"); checked == "ja" || checked == "nein" {
		note.Checked = checked
	}
	return note
}
