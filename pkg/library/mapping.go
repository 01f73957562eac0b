// Package library manages the local collection of downloaded laws: the
// law mapping index, code-to-key resolution, and a cached document
// loader.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// MappingFilename is the index file kept next to the data directory.
const MappingFilename = "law_mapping.json"

// LawEntry describes one downloaded law in the mapping index.
type LawEntry struct {
	Filename  string `json:"filename"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Builddate string `json:"builddate"`
	URLPath   string `json:"url_path"`
}

// Mapping indexes laws by their legal abbreviation (jurabk).
type Mapping map[string]LawEntry

// LoadMapping reads a mapping file. A missing file yields an empty
// mapping, not an error: a fresh checkout simply has no laws yet.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read law mapping: %w", err)
	}
	var mapping Mapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse law mapping: %w", err)
	}
	return mapping, nil
}

// SaveMapping writes the mapping file with stable key order and
// two-space indentation, so diffs stay reviewable.
func SaveMapping(path string, mapping Mapping) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode law mapping: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write law mapping: %w", err)
	}
	return nil
}

// FindKey resolves a user-supplied law code to a mapping key. Fallback
// order: exact match, case-insensitive match, prefix followed by a
// space or underscore delimiter (so "KStG" finds "KStG 1977"), then
// bare prefix.
func FindKey(code string, mapping Mapping) (string, bool) {
	if _, ok := mapping[code]; ok {
		return code, true
	}

	// Sorted keys keep the fallback matches deterministic.
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	upper := strings.ToUpper(code)
	for _, key := range keys {
		if strings.ToUpper(key) == upper {
			return key, true
		}
	}
	for _, key := range keys {
		keyUpper := strings.ToUpper(key)
		if strings.HasPrefix(keyUpper, upper+" ") || strings.HasPrefix(keyUpper, upper+"_") {
			return key, true
		}
	}
	for _, key := range keys {
		if strings.HasPrefix(strings.ToUpper(key), upper) {
			return key, true
		}
	}
	return "", false
}

// categoryPatterns is checked in order; the first hit wins. Abkommen
// comes first so treaty names containing "gesetz" elsewhere in the
// title still classify as Abkommen.
var categoryPatterns = []struct {
	category string
	pattern  *regexp.Regexp
}{
	{"Abkommen", regexp.MustCompile(`(?i)(abkommen|übereinkommen|konvention|vertrag)\b`)},
	{"Verordnung", regexp.MustCompile(`(?i)verordnung\b`)},
	{"Bekanntmachung", regexp.MustCompile(`(?i)bekanntmachung\b`)},
	{"Gesetz", regexp.MustCompile(`(?i)(gesetz|gesetzbuch)\b`)},
}

// CategoryFromTitle classifies a law by its title.
func CategoryFromTitle(title string) string {
	for _, c := range categoryPatterns {
		if c.pattern.MatchString(title) {
			return c.category
		}
	}
	return "Sonstiges"
}
