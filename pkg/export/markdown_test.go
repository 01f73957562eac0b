package export

import (
	"strings"
	"testing"
	"time"

	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

func exportDoc() *norm.Document {
	first := &norm.Norm{
		Metadata: &norm.Metadata{
			Jurabk:    []string{"TG"},
			LongTitle: "Testgesetz",
			IssueDate: &norm.IssueDate{Date: time.Date(1949, 5, 23, 0, 0, 0, 0, time.UTC)},
			AsOf:      []*norm.AsOfNote{{Kind: "Stand", Comment: "zuletzt geändert 2022"}},
			Label:     "§ 1",
			Title:     "Grundsatz",
		},
		Body: &norm.TextBody{Content: &norm.Content{Nodes: []norm.ContentNode{
			&norm.Paragraph{
				RawText:      "(1) Erster Absatz.",
				AbsatzNumber: "1",
				Children:     []norm.ContentNode{norm.Text("(1) Erster Absatz.")},
			},
		}}},
	}
	heading := &norm.Norm{
		Metadata: &norm.Metadata{
			Heading: &norm.Heading{Label: "Abschnitt 2", Title: "Besondere Vorschriften"},
		},
	}
	second := &norm.Norm{
		Metadata: &norm.Metadata{Label: "§ 2"},
		Body: &norm.TextBody{Content: &norm.Content{Nodes: []norm.ContentNode{
			&norm.Paragraph{
				RawText:  "Ohne Nummerierung.",
				Children: []norm.ContentNode{norm.Text("Ohne Nummerierung.")},
			},
		}}},
	}
	return &norm.Document{Norms: []*norm.Norm{first, heading, second}}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(exportDoc(), "TG")

	for _, want := range []string{
		"# Testgesetz",
		"**Abkürzungen:** TG",
		"**Ausfertigungsdatum:** 23.05.1949",
		"**Stand:** zuletzt geändert 2022",
		"## Inhaltsübersicht",
		"- § 1 - Grundsatz",
		"**Abschnitt 2 Besondere Vorschriften**",
		"## § 1 Grundsatz",
		"(1) Erster Absatz.",
		"## § 2",
		"Ohne Nummerierung.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	// Section order follows document order.
	if strings.Index(md, "## § 1") > strings.Index(md, "## § 2") {
		t.Error("paragraph sections out of order")
	}
	// The absatz marker is not duplicated by the renderer.
	if strings.Contains(md, "(1) (1)") {
		t.Error("absatz prefix duplicated")
	}
}

func TestMarkdown_EmptyDocument(t *testing.T) {
	md := Markdown(&norm.Document{}, "LeerG")
	if !strings.Contains(md, "# LeerG") {
		t.Errorf("title fallback missing:\n%s", md)
	}
}
