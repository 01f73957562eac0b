package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/coolbeans/gesetzessuche/pkg/norm"
)

func paragraphNorm(label, title string, sections ...string) *norm.Norm {
	content := &norm.Content{}
	var raw []string
	for _, text := range sections {
		content.Nodes = append(content.Nodes, &norm.Paragraph{RawText: text})
		raw = append(raw, text)
	}
	content.RawText = strings.Join(raw, " ")
	return &norm.Norm{
		Metadata: &norm.Metadata{Label: label, Title: title},
		Body:     &norm.TextBody{Content: content},
	}
}

func testDoc() *norm.Document {
	first := paragraphNorm("§ 1", "Grundsatz",
		"(1) Die Würde des Menschen ist unantastbar.",
		"(2) Das Deutsche Volk bekennt sich zu den Menschenrechten.")
	first.Metadata.Jurabk = []string{"TG", "Testgesetz"}
	first.Metadata.LongTitle = "Testgesetz über allgemeine Regelungen"

	heading := &norm.Norm{
		Metadata: &norm.Metadata{
			Heading: &norm.Heading{Label: "Abschnitt 1", Title: "Allgemeines"},
		},
	}

	return &norm.Document{
		Norms: []*norm.Norm{
			first,
			heading,
			paragraphNorm("§ 8b", "Beteiligungen",
				"(1) Bezüge bleiben bei der Ermittlung des Einkommens außer Ansatz."),
			paragraphNorm("§ 9", "", "Ohne Titel und ohne Marker."),
		},
	}
}

func TestFindParagraph(t *testing.T) {
	s := New(testDoc(), "TG")

	block, ok := s.FindParagraph("§ 1")
	if !ok {
		t.Fatal("paragraph 1 not found")
	}
	lines := strings.Split(block, "\n")
	if len(lines) < 6 {
		t.Fatalf("got %d lines: %q", len(lines), block)
	}
	if len(lines[0]) != 70 || strings.Trim(lines[0], "=") != "" {
		t.Errorf("banner = %q", lines[0])
	}
	if lines[1] != "TG § 1" {
		t.Errorf("header = %q", lines[1])
	}
	if lines[2] != "Grundsatz" {
		t.Errorf("title line = %q", lines[2])
	}
	if lines[4] != "" {
		t.Errorf("line 4 = %q, want blank", lines[4])
	}
	if !strings.Contains(block, "Würde des Menschen") {
		t.Error("body text missing")
	}
}

func TestFindParagraph_NoTitle(t *testing.T) {
	s := New(testDoc(), "TG")
	block, ok := s.FindParagraph("9")
	if !ok {
		t.Fatal("paragraph 9 not found")
	}
	lines := strings.Split(block, "\n")
	// Without a title the second banner moves up one line.
	if strings.Trim(lines[2], "=") != "" {
		t.Errorf("line 2 = %q, want banner", lines[2])
	}
}

func TestFindParagraph_NotFound(t *testing.T) {
	s := New(testDoc(), "TG")
	if _, ok := s.FindParagraph("99"); ok {
		t.Error("found nonexistent paragraph")
	}
	// Exact match only: "8" must not resolve to "8b".
	if _, ok := s.FindParagraph("8"); ok {
		t.Error("\"8\" matched \"8b\"")
	}
}

func TestFindSection(t *testing.T) {
	s := New(testDoc(), "TG")

	block, ok := s.FindSection("1", "2")
	if !ok {
		t.Fatal("section 2 not found")
	}
	lines := strings.Split(block, "\n")
	if lines[1] != "TG § 1 Absatz 2" {
		t.Errorf("header = %q", lines[1])
	}
	if !strings.Contains(block, "Deutsche Volk") {
		t.Error("wrong section text")
	}
	if strings.Contains(block, "Würde") {
		t.Error("section 1 text leaked into section 2")
	}
}

func TestFindSection_Invalid(t *testing.T) {
	s := New(testDoc(), "TG")
	for _, tt := range []struct{ label, section string }{
		{"1", "3"},  // out of range
		{"1", "0"},  // sections are 1-based
		{"1", "x"},  // not a number
		{"99", "1"}, // no such paragraph
	} {
		if _, ok := s.FindSection(tt.label, tt.section); ok {
			t.Errorf("FindSection(%q, %q) succeeded, want failure", tt.label, tt.section)
		}
	}
}

func TestByReference(t *testing.T) {
	s := New(testDoc(), "TG")

	block, ok := s.ByReference("§ 1")
	if !ok || !strings.Contains(block, "TG § 1") {
		t.Errorf("ByReference(§ 1) = %q, %v", block, ok)
	}

	block, ok = s.ByReference("§ 1 Absatz 2")
	if !ok || !strings.Contains(block, "Absatz 2") {
		t.Errorf("ByReference(§ 1 Absatz 2) = %q, %v", block, ok)
	}

	if _, ok := s.ByReference("§ 99"); ok {
		t.Error("resolved nonexistent paragraph")
	}
	if _, ok := s.ByReference("kein Verweis"); ok {
		t.Error("resolved unparsable reference")
	}
}

func TestByReference_SubReferenceNote(t *testing.T) {
	s := New(testDoc(), "TG")

	block, ok := s.ByReference("§ 1 Absatz 2 Satz 1")
	if !ok {
		t.Fatal("reference not resolved")
	}
	lines := strings.Split(block, "\n")
	if len(lines) < 4 || lines[3] != "(Gesucht: Satz 1)" {
		t.Fatalf("note line = %q, want (Gesucht: Satz 1)", lines[3])
	}
	// The whole section comes back; no attempt to isolate the sentence.
	if !strings.Contains(block, "Deutsche Volk bekennt sich") {
		t.Error("section text missing")
	}
}

func TestByReference_SubReferenceWithoutSection(t *testing.T) {
	s := New(testDoc(), "TG")

	// Satz without Absatz resolves to the whole paragraph, without note.
	block, ok := s.ByReference("§ 1 Satz 2")
	if !ok {
		t.Fatal("reference not resolved")
	}
	if strings.Contains(block, "Gesucht") {
		t.Errorf("unexpected note in %q", block)
	}
	if !strings.Contains(block, "Würde des Menschen") {
		t.Error("paragraph text missing")
	}
}

func TestSearchTerm(t *testing.T) {
	s := New(testDoc(), "TG")

	results := s.SearchTerm("würde", false)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Paragraph != "§ 1" || r.Title != "Grundsatz" {
		t.Errorf("result = %+v", r)
	}
	if strings.Contains(r.Context, "...") {
		t.Errorf("short text should not be truncated: %q", r.Context)
	}

	if got := s.SearchTerm("würde", true); len(got) != 0 {
		t.Errorf("case-sensitive search matched %d, want 0", len(got))
	}
	if got := s.SearchTerm("nirgendwo", false); len(got) != 0 {
		t.Errorf("got %d results for absent term", len(got))
	}
}

func TestSearchTerm_ContextWindow(t *testing.T) {
	long := strings.Repeat("x", 150) + "Nadel" + strings.Repeat("y", 150)
	doc := &norm.Document{Norms: []*norm.Norm{paragraphNorm("1", "", long)}}
	s := New(doc, "TG")

	results := s.SearchTerm("Nadel", false)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	ctx := results[0].Context
	if !strings.HasPrefix(ctx, "...") || !strings.HasSuffix(ctx, "...") {
		t.Errorf("context not truncated on both sides: %q", ctx)
	}
	if !strings.Contains(ctx, "Nadel") {
		t.Error("match missing from context")
	}
	// 100 chars each side plus the term and two ellipses.
	if want := 100 + len("Nadel") + 100 + 6; len(ctx) != want {
		t.Errorf("context length = %d, want %d", len(ctx), want)
	}
}

func TestSearchTerm_ContextWindowMultiByte(t *testing.T) {
	// The window counts characters, not bytes, and must never cut
	// through a multi-byte rune.
	long := strings.Repeat("ä", 150) + "Nadel" + strings.Repeat("ö", 150)
	doc := &norm.Document{Norms: []*norm.Norm{paragraphNorm("1", "", long)}}
	s := New(doc, "TG")

	results := s.SearchTerm("nadel", false)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	ctx := results[0].Context
	if !utf8.ValidString(ctx) {
		t.Fatalf("context is not valid UTF-8: %q", ctx)
	}
	if want := 100 + utf8.RuneCountInString("Nadel") + 100 + 6; utf8.RuneCountInString(ctx) != want {
		t.Errorf("context runes = %d, want %d", utf8.RuneCountInString(ctx), want)
	}
	if !strings.HasPrefix(ctx, "...ä") || !strings.HasSuffix(ctx, "ö...") {
		t.Errorf("context edges = %q", ctx)
	}
}

func TestListParagraphs(t *testing.T) {
	s := New(testDoc(), "TG")

	entries := s.ListParagraphs()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Label != "§ 1" || entries[1].Label != "§ 8b" || entries[2].Label != "§ 9" {
		t.Errorf("order = %+v", entries)
	}
	for _, e := range entries {
		if strings.Contains(e.Label, "Abschnitt") {
			t.Error("heading leaked into paragraph listing")
		}
	}
}

func TestInfo(t *testing.T) {
	s := New(testDoc(), "TG")

	info := s.Info()
	for _, want := range []string{
		"TG: Testgesetz über allgemeine Regelungen",
		"Abbreviations: TG, Testgesetz",
		"Total norms:   4",
		"Paragraphs:    3",
		"Structure:     1 elements",
		"§ 8b",
	} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}
}
