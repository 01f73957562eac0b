package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coolbeans/gesetzessuche/pkg/library"
)

const serverLawXML = `<?xml version="1.0" encoding="UTF-8"?>
<dokumente builddate="20240101120000" doknr="BJNR001950896">
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
        <Content>
          <P>(1) Dieses Gesetz regelt die Prüfung.</P>
          <P>(2) Es gilt bundesweit.</P>
        </Content>
      </text>
    </textdaten>
  </norm>
  <norm>
    <metadaten>
      <enbez>§ 2</enbez>
      <titel>Begriffe</titel>
    </metadaten>
    <textdaten>
      <text format="XML">
        <Content><P>Begriffe werden hier bestimmt.</P></Content>
      </text>
    </textdaten>
  </norm>
</dokumente>`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "data"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "data", "testg.xml"), []byte(serverLawXML), 0o644); err != nil {
		t.Fatal(err)
	}
	mapping := library.Mapping{
		"TestG": {Filename: "testg.xml", Title: "Testgesetz", Category: "Gesetz"},
	}
	if err := library.SaveMapping(filepath.Join(base, library.MappingFilename), mapping); err != nil {
		t.Fatal(err)
	}
	lib, err := library.Open(base)
	if err != nil {
		t.Fatal(err)
	}
	return New(lib)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestHandleListLaws(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleListLaws(context.Background(), callRequest("list_laws", nil))
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Total int `json:"total"`
		Laws  []struct {
			Code     string `json:"code"`
			Title    string `json:"title"`
			Category string `json:"category"`
		} `json:"laws"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if payload.Total != 1 || payload.Laws[0].Code != "TestG" || payload.Laws[0].Category != "Gesetz" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandleGetLawReference(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleGetLawReference(context.Background(),
		callRequest("get_law_reference", map[string]any{"reference": "TestG § 1 Absatz 2"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "TestG § 1 Absatz 2") || !strings.Contains(text, "bundesweit") {
		t.Errorf("result = %q", text)
	}
}

func TestHandleGetLawReference_RequiresLawCode(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleGetLawReference(context.Background(),
		callRequest("get_law_reference", map[string]any{"reference": "§ 1 Absatz 2"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("reference without law code must yield an error result")
	}
}

func TestHandleGetLawReference_UnknownLaw(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleGetLawReference(context.Background(),
		callRequest("get_law_reference", map[string]any{"reference": "BGB § 1"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("unknown law must yield an error result")
	}
}

func TestHandleSearchLaw(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleSearchLaw(context.Background(),
		callRequest("search_law", map[string]any{"law": "testg", "search_term": "prüfung"}))
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Law          string `json:"law"`
		Found        int    `json:"found"`
		TotalMatches int    `json:"total_matches"`
		Results      []struct {
			Paragraph string `json:"paragraph"`
			Context   string `json:"context"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if payload.Law != "TESTG" || payload.Found != 1 || payload.TotalMatches != 1 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Results[0].Paragraph != "§ 1" {
		t.Errorf("paragraph = %q", payload.Results[0].Paragraph)
	}
}

func TestHandleSearchLaw_Limit(t *testing.T) {
	s := newTestServer(t)

	// "gilt" and "bestimmt" each match once; "e" matches both paragraphs.
	res, err := s.handleSearchLaw(context.Background(),
		callRequest("search_law", map[string]any{"law": "TestG", "search_term": "e", "max_results": 1}))
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Found        int `json:"found"`
		TotalMatches int `json:"total_matches"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Found != 1 || payload.TotalMatches != 2 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandleListParagraphs(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleListParagraphs(context.Background(),
		callRequest("list_paragraphs", map[string]any{"law": "TestG", "limit": 1}))
	if err != nil {
		t.Fatal(err)
	}
	var payload struct {
		Total      int `json:"total"`
		Shown      int `json:"shown"`
		Paragraphs []struct {
			Number string `json:"number"`
			Title  string `json:"title"`
		} `json:"paragraphs"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Total != 2 || payload.Shown != 1 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Paragraphs[0].Number != "§ 1" || payload.Paragraphs[0].Title != "Anwendungsbereich" {
		t.Errorf("paragraphs = %+v", payload.Paragraphs)
	}
}

func TestEngineCaching(t *testing.T) {
	s := newTestServer(t)

	first, ok := s.engine("testg")
	if !ok {
		t.Fatal("engine not created")
	}
	second, ok := s.engine("TESTG")
	if !ok || first != second {
		t.Error("engine not cached per upper-cased law code")
	}
}
