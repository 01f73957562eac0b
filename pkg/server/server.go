// Package server exposes the law library as an MCP stdio server, so
// assistants can resolve statutory references, search laws, and browse
// paragraph listings.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/coolbeans/gesetzessuche/pkg/citation"
	"github.com/coolbeans/gesetzessuche/pkg/library"
	"github.com/coolbeans/gesetzessuche/pkg/search"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// Server serves the MCP tool set over stdio. Query engines are cached
// per law code; the library underneath caches the parsed documents.
type Server struct {
	lib    *library.Library
	logger *log.Logger

	mu      sync.Mutex
	engines map[string]*search.Search
}

// New creates a server over an opened library.
func New(lib *library.Library) *Server {
	return &Server{
		lib:     lib,
		logger:  log.Default().WithPrefix("mcp"),
		engines: make(map[string]*search.Search),
	}
}

// Serve registers the tools and blocks serving MCP requests on stdio.
func (s *Server) Serve() error {
	mcpServer := server.NewMCPServer("German Law Documents", Version,
		server.WithToolCapabilities(false))
	s.register(mcpServer)
	return server.ServeStdio(mcpServer)
}

func (s *Server) register(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("list_laws",
		mcp.WithDescription("List all locally available German laws with title and category."),
	), s.handleListLaws)

	mcpServer.AddTool(mcp.NewTool("get_law_reference",
		mcp.WithDescription("Get law content by a natural reference string that includes the law code, "+
			"e.g. 'KStG § 6 Absatz 1', 'BGB § 1', 'HGB § 8b Absatz 2'."),
		mcp.WithString("reference",
			mcp.Required(),
			mcp.Description("Full reference including the law code, e.g. 'BGB § 1 Absatz 2'."),
		),
	), s.handleGetLawReference)

	mcpServer.AddTool(mcp.NewTool("search_law",
		mcp.WithDescription("Search for a term within one law (case-insensitive)."),
		mcp.WithString("law",
			mcp.Required(),
			mcp.Description("Law code, e.g. 'HGB', 'BGB', 'KStG'."),
		),
		mcp.WithString("search_term",
			mcp.Required(),
			mcp.Description("Text to search for."),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default 5)."),
		),
	), s.handleSearchLaw)

	mcpServer.AddTool(mcp.NewTool("list_paragraphs",
		mcp.WithDescription("List the paragraphs of a law with their titles."),
		mcp.WithString("law",
			mcp.Required(),
			mcp.Description("Law code, e.g. 'HGB', 'BGB', 'KStG'."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of paragraphs to list (default 20)."),
		),
	), s.handleListParagraphs)
}

// engine returns the cached query engine for a law code, loading and
// parsing the law on first use.
func (s *Server) engine(code string) (*search.Search, bool) {
	key := strings.ToUpper(code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.engines[key]; ok {
		return eng, true
	}

	doc, ok := s.lib.Load(code)
	if !ok {
		return nil, false
	}
	lawCode := key
	if abks := doc.Abbreviations(); len(abks) > 0 {
		lawCode = abks[0]
	}
	eng := search.New(doc, lawCode)
	s.engines[key] = eng
	return eng, true
}

func (s *Server) handleListLaws(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type lawInfo struct {
		Code     string `json:"code"`
		Title    string `json:"title"`
		Category string `json:"category"`
	}

	keys := s.lib.Keys()
	sort.Strings(keys)

	laws := make([]lawInfo, 0, len(keys))
	for _, key := range keys {
		entry, ok := s.lib.Entry(key)
		if !ok {
			continue
		}
		laws = append(laws, lawInfo{Code: key, Title: entry.Title, Category: entry.Category})
	}

	return jsonResult(map[string]any{"total": len(laws), "laws": laws})
}

func (s *Server) handleGetLawReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference, err := req.RequireString("reference")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ref, ok := citation.Parse(reference)
	if !ok || ref.Law == "" {
		return mcp.NewToolResultError(fmt.Sprintf(
			"reference must include a law code (e.g. 'BGB § 1'), got: %q", reference)), nil
	}

	eng, ok := s.engine(ref.Law)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("law %q not found", ref.Law)), nil
	}

	result, ok := eng.ByReference(reference)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("could not find reference %q", reference)), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleSearchLaw(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lawCode, err := req.RequireString("law")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	term, err := req.RequireString("search_term")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxResults := req.GetInt("max_results", 5)

	eng, ok := s.engine(lawCode)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("law %q not found", lawCode)), nil
	}

	all := eng.SearchTerm(term, false)
	results := all
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}

	type hit struct {
		Paragraph string `json:"paragraph"`
		Title     string `json:"title"`
		Context   string `json:"context"`
	}
	hits := make([]hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hit{Paragraph: r.Paragraph, Title: r.Title, Context: r.Context})
	}

	return jsonResult(map[string]any{
		"law":           strings.ToUpper(lawCode),
		"term":          term,
		"found":         len(hits),
		"total_matches": len(all),
		"results":       hits,
	})
}

func (s *Server) handleListParagraphs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lawCode, err := req.RequireString("law")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 20)

	eng, ok := s.engine(lawCode)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("law %q not found", lawCode)), nil
	}

	entries := eng.ListParagraphs()
	shown := entries
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	type paragraph struct {
		Number string `json:"number"`
		Title  string `json:"title"`
	}
	paragraphs := make([]paragraph, 0, len(shown))
	for _, e := range shown {
		paragraphs = append(paragraphs, paragraph{Number: e.Label, Title: e.Title})
	}

	return jsonResult(map[string]any{
		"law":        strings.ToUpper(lawCode),
		"total":      len(entries),
		"shown":      len(paragraphs),
		"paragraphs": paragraphs,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
