// Package citation parses German statutory references ("§ 52 Absatz 1
// Satz 1", "BGB § 26 Absatz 4", "Artikel 20 Absatz 3 GG") into their
// components.
package citation

import "regexp"

// Reference is a parsed statutory reference. Paragraph is always set;
// every other field is empty when the corresponding component was not
// present in the input.
type Reference struct {
	Law       string
	Paragraph string
	Section   string
	Number    string
	Letter    string
	Sentence  string
}

// referencePattern matches one statutory reference anywhere in a string:
// an optional law code (BGB, GmbHG, KStG — either several capitals, or a
// mixed-case token that starts and ends with a capital), a paragraph
// marker (§, Artikel, Art., Art), the paragraph number with an optional
// trailing letter, then optional Absatz, Nummer, Buchstabe(n) and Satz
// components. Matching is case-insensitive throughout, which also
// admits lowercase law codes and markers like "artikel".
var referencePattern = regexp.MustCompile(
	`(?i)(?:([A-Z][A-Za-z]*[A-Z]|[A-Z]{2,})\s+)?` +
		`(?:§|Artikel|Art\.?)\s*` +
		`(\d+[a-z]?)` +
		`(?:\s+(?:Absatz|Abs\.?)\s+(\d+))?` +
		`(?:\s+(?:Nummer|Nr\.?)\s+(\d+))?` +
		`(?:\s+Buchstaben?\s+([a-z]))?` +
		`(?:\s+Satz\s+(\d+))?`)

// Parse extracts the first statutory reference found in s. It returns
// false if s contains no recognizable reference.
func Parse(s string) (*Reference, bool) {
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	return &Reference{
		Law:       m[1],
		Paragraph: m[2],
		Section:   m[3],
		Number:    m[4],
		Letter:    m[5],
		Sentence:  m[6],
	}, true
}
