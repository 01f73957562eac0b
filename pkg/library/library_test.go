package library

import (
	"os"
	"path/filepath"
	"testing"
)

const testLawXML = `<?xml version="1.0" encoding="UTF-8"?>
<dokumente builddate="20240101120000" doknr="BJNR005330950">
  <norm>
    <metadaten>
      <jurabk>TestG</jurabk>
      <langue>Testgesetz</langue>
    </metadaten>
  </norm>
  <norm>
    <metadaten>
      <enbez>§ 1</enbez>
      <titel>Anwendungsbereich</titel>
    </metadaten>
    <textdaten>
      <text format="XML">
        <Content><P>Dieses Gesetz gilt für alle Tests.</P></Content>
      </text>
    </textdaten>
  </norm>
</dokumente>`

func newTestLibrary(t *testing.T, opts ...Option) *Library {
	t.Helper()
	base := t.TempDir()

	if err := os.MkdirAll(filepath.Join(base, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "data", "testg.xml"), []byte(testLawXML), 0o644); err != nil {
		t.Fatal(err)
	}
	mapping := Mapping{
		"TestG": {Filename: "testg.xml", Title: "Testgesetz", Category: "Gesetz", URLPath: "testg"},
	}
	if err := SaveMapping(filepath.Join(base, MappingFilename), mapping); err != nil {
		t.Fatal(err)
	}

	lib, err := Open(base, opts...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return lib
}

func TestLibraryLoad(t *testing.T) {
	lib := newTestLibrary(t)

	doc, ok := lib.Load("testg")
	if !ok {
		t.Fatal("law not loaded")
	}
	if doc.Title() != "Testgesetz" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if _, found := doc.FindParagraph("1"); !found {
		t.Error("paragraph 1 missing from parsed document")
	}

	// Second load must come from cache: same pointer.
	again, ok := lib.Load("TestG")
	if !ok || again != doc {
		t.Error("cached document not reused")
	}
}

func TestLibraryLoad_Unknown(t *testing.T) {
	lib := newTestLibrary(t)
	if _, ok := lib.Load("BGB"); ok {
		t.Error("loaded a law that is not in the mapping")
	}
}

func TestLibraryLoad_MissingFile(t *testing.T) {
	base := t.TempDir()
	mapping := Mapping{"WegG": {Filename: "weg.xml"}}
	if err := SaveMapping(filepath.Join(base, MappingFilename), mapping); err != nil {
		t.Fatal(err)
	}
	lib, err := Open(base)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := lib.Load("WegG"); ok {
		t.Error("loaded a law whose XML file is gone")
	}
}

type fakeDownloader struct {
	dataDir string
	calls   int
}

func (f *fakeDownloader) FetchLaw(code string) (string, LawEntry, bool) {
	f.calls++
	if code != "TestG2" {
		return "", LawEntry{}, false
	}
	path := filepath.Join(f.dataDir, "testg2.xml")
	if err := os.WriteFile(path, []byte(testLawXML), 0o644); err != nil {
		return "", LawEntry{}, false
	}
	return "TestG2", LawEntry{Filename: "testg2.xml", Title: "Zweites Testgesetz", URLPath: "testg2"}, true
}

func TestLibraryLoad_AutoDownload(t *testing.T) {
	dl := &fakeDownloader{}
	lib := newTestLibrary(t, WithDownloader(dl))
	dl.dataDir = lib.DataDir()

	doc, ok := lib.Load("TestG2")
	if !ok {
		t.Fatal("auto-download load failed")
	}
	if doc.Title() != "Testgesetz" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if dl.calls != 1 {
		t.Errorf("downloader called %d times, want 1", dl.calls)
	}

	// The mapping file on disk now knows the law.
	saved, err := LoadMapping(filepath.Join(lib.baseDir, MappingFilename))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := saved["TestG2"]; !ok {
		t.Error("downloaded law not persisted in mapping")
	}

	// Second load resolves via the updated mapping, no new download.
	if _, ok := lib.Load("TestG2"); !ok {
		t.Fatal("second load failed")
	}
	if dl.calls != 1 {
		t.Errorf("downloader called %d times after cached load, want 1", dl.calls)
	}
}

func TestLibraryKeysAndEntry(t *testing.T) {
	lib := newTestLibrary(t)

	keys := lib.Keys()
	if len(keys) != 1 || keys[0] != "TestG" {
		t.Errorf("Keys() = %v", keys)
	}
	entry, ok := lib.Entry("TestG")
	if !ok || entry.Category != "Gesetz" {
		t.Errorf("Entry() = %+v, %v", entry, ok)
	}
	if _, ok := lib.Entry("BGB"); ok {
		t.Error("Entry returned a nonexistent law")
	}
}
