package fetch

import (
	"io"
	"strings"

	"github.com/coolbeans/gesetzessuche/pkg/gii"
	"github.com/coolbeans/gesetzessuche/pkg/library"
)

// TOCEntry is one law in the site-wide table of contents.
type TOCEntry struct {
	Title    string
	URL      string
	URLPath  string
	Category string
}

// ParseTOC reads a gii-toc.xml document. Items without both a title and
// a link are skipped. URLPath is the last directory segment of the
// link ("hgb" for ".../hgb/xml.zip") and serves as the stable short
// identifier of a law across builds.
func ParseTOC(r io.Reader) ([]TOCEntry, error) {
	root, err := gii.DecodeElement(r)
	if err != nil {
		return nil, err
	}

	var entries []TOCEntry
	for _, item := range root.FindChildren("item") {
		title := item.ChildText("title")
		url := item.ChildText("link")
		if title == "" || url == "" {
			continue
		}
		entries = append(entries, TOCEntry{
			Title:    title,
			URL:      url,
			URLPath:  urlPath(url),
			Category: library.CategoryFromTitle(title),
		})
	}
	return entries, nil
}

// urlPath extracts the second-to-last path segment of a download URL.
func urlPath(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

// FindInTOC locates a law in the table of contents by its code.
// Fallback order: exact URL path match, URL path prefix with an
// underscore delimiter, URL path substring, finally a title substring.
func FindInTOC(code string, entries []TOCEntry) (TOCEntry, bool) {
	lower := strings.ToLower(code)

	for _, e := range entries {
		if strings.ToLower(e.URLPath) == lower {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.HasPrefix(strings.ToLower(e.URLPath), lower+"_") {
			return e, true
		}
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.URLPath), lower) {
			return e, true
		}
	}
	upper := strings.ToUpper(code)
	for _, e := range entries {
		if strings.Contains(strings.ToUpper(e.Title), upper) {
			return e, true
		}
	}
	return TOCEntry{}, false
}
