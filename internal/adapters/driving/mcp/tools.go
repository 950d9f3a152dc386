package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// Error listings are truncated in tool output.
const (
	maxSyncErrors   = 10
	maxStatusErrors = 5
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"search query; use broad terms such as tax return or mortgage"`
	SourceType string   `json:"source_type,omitempty" jsonschema:"document (default), message or all"`
	Tags       []string `json:"tags,omitempty" jsonschema:"exact tag names; call list_tags first. Unknown tags are ignored with a warning"`
	DateAfter  string   `json:"date_after,omitempty" jsonschema:"only results created on or after this date (ISO 8601)"`
	DateBefore string   `json:"date_before,omitempty" jsonschema:"only results created on or before this date (ISO 8601)"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results (default 10, max 50)"`
}

// GetDocumentInput is the input schema for the get_document tool.
type GetDocumentInput struct {
	DocumentID int `json:"document_id" jsonschema:"document ID as shown in search results (ID: N)"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Tag      string `json:"tag,omitempty" jsonschema:"exact tag name, matched case-insensitively"`
	Page     int    `json:"page,omitempty" jsonschema:"page number (default 1)"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"results per page (default 25, max 100)"`
}

// NoInput is the input schema for tools without parameters.
type NoInput struct{}

const searchDescription = `Hybrid search (BM25 keyword + vector similarity) across personal documents. Returns relevant text chunks with title, filename, date, tags and document ID.

SEARCH TIPS:
- Use broad, simple queries (e.g. "tax return" not "tax returns last year").
- Do NOT guess tag names; call list_tags first to see valid tags.
- Dates are document creation dates in the archive, not necessarily the content date.
- If there are no results, remove tags and date filters and broaden the query.
- Use the document ID from results to call get_document for the full text.`

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "get_document",
		Description: "Get the full text of a document by its ID. Use this after search identifies a relevant " +
			"document. Returns the complete text with title, filename, date and tags.",
	}, s.handleGetDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "list_documents",
		Description: "Browse documents, newest first, optionally filtered by tag. Use this when search returns " +
			"nothing or to see what exists under a tag.",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List all tags sorted alphabetically. Call this before using tag filters in search.",
	}, s.handleListTags)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "sync_documents",
		Description: "Manually sync the document archive into the search index. Only needed when recent " +
			"uploads are missing from results; auto-sync runs every 5 minutes.",
	}, s.handleSyncDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_sync_status",
		Description: "Get the current sync status (last sync time, document count, vector count).",
	}, s.handleGetSyncStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, any, error) {
	req, err := searchRequest(input)
	if err != nil {
		return errorResult("Search failed: %v", err), nil, nil
	}

	resp, err := s.ports.Search.Search(ctx, req)
	if err != nil {
		return errorResult("Search failed: %v", err), nil, nil
	}
	return textResult(formatSearch(resp)), nil, nil
}

func searchRequest(input SearchInput) (domain.SearchRequest, error) {
	after, err := domain.ParseDate(input.DateAfter)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	before, err := domain.ParseDate(input.DateBefore)
	if err != nil {
		return domain.SearchRequest{}, err
	}
	return domain.SearchRequest{
		Query:      input.Query,
		Scope:      domain.Scope(input.SourceType),
		Tags:       input.Tags,
		DateAfter:  after,
		DateBefore: before,
		Limit:      input.Limit,
	}, nil
}

func formatSearch(resp *domain.SearchResponse) string {
	warnings := make([]string, len(resp.Warnings))
	for i, w := range resp.Warnings {
		warnings[i] = "Note: " + w
	}

	if len(resp.Results) == 0 {
		lines := []string{"No results found."}
		if len(warnings) > 0 {
			lines = append(lines, "")
			lines = append(lines, warnings...)
		}
		return strings.Join(lines, "\n")
	}

	lines := []string{fmt.Sprintf("Found %d results:\n", len(resp.Results))}
	if len(warnings) > 0 {
		lines = append(lines, warnings...)
		lines = append(lines, "")
	}
	for i, r := range resp.Results {
		lines = append(lines,
			fmt.Sprintf("**%d. %s** (score: %.3f)", i+1, r.Meta, r.Score),
			r.Text,
			"")
	}
	return strings.Join(lines, "\n")
}

// handleGetDocument handles the get_document tool invocation.
func (s *Server) handleGetDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDocumentInput,
) (*mcp.CallToolResult, any, error) {
	details, err := s.ports.Documents.Get(ctx, input.DocumentID)
	if err != nil {
		return errorResult("Failed to get document: %v", err), nil, nil
	}
	return textResult(formatDocument(details)), nil, nil
}

func formatDocument(details *driving.DocumentDetails) string {
	doc := details.Document
	lines := []string{
		"### " + doc.Title,
		fmt.Sprintf("ID: %d", doc.ID),
		"Created: " + formatDate(doc.Created),
		"File: " + doc.Filename,
	}
	if len(details.TagNames) > 0 {
		lines = append(lines, "Tags: "+strings.Join(details.TagNames, ", "))
	}
	content := doc.Content
	if content == "" {
		content = "(no text content)"
	}
	lines = append(lines, "", "---", "", content)
	return strings.Join(lines, "\n")
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, any, error) {
	page, err := s.ports.Documents.List(ctx, driving.ListRequest{
		Tag:      input.Tag,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		if input.Tag != "" && errors.Is(err, domain.ErrNotFound) {
			return textResult(fmt.Sprintf("Tag %q not found.", input.Tag)), nil, nil
		}
		return errorResult("Failed to list documents: %v", err), nil, nil
	}

	if len(page.Documents) == 0 {
		return textResult("No documents found."), nil, nil
	}

	lines := []string{fmt.Sprintf("Found %d documents (showing %d):\n", page.Count, len(page.Documents))}
	for _, doc := range page.Documents {
		lines = append(lines, fmt.Sprintf("- [%d] %s (%s) — %s", doc.ID, doc.Title, formatDate(doc.Created), doc.Filename))
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// handleListTags handles the list_tags tool invocation.
func (s *Server) handleListTags(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, any, error) {
	names, err := s.ports.Documents.ListTags(ctx)
	if err != nil {
		return errorResult("Failed to list tags: %v", err), nil, nil
	}
	if len(names) == 0 {
		return textResult("No tags found in Paperless."), nil, nil
	}

	lines := []string{fmt.Sprintf("Found %d tags:\n", len(names))}
	for _, name := range names {
		lines = append(lines, "- "+name)
	}
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// handleSyncDocuments handles the sync_documents tool invocation.
// Run-level failures are reported inside the status errors, so the
// result is never flagged as a tool error.
func (s *Server) handleSyncDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, any, error) {
	status := s.ports.Sync.Sync(ctx)

	heading := "### Sync Complete"
	if status.InProgress {
		heading = "### Sync Already Running"
	}
	lines := []string{
		heading,
		fmt.Sprintf("Documents processed: %d", status.DocumentsProcessed),
		fmt.Sprintf("Total chunks: %d", status.ChunksTotal),
		"Last sync: " + formatLastSync(status.LastSync),
	}
	lines = appendErrors(lines, "Errors", status.Errors, maxSyncErrors)
	return textResult(strings.Join(lines, "\n")), nil, nil
}

// handleGetSyncStatus handles the get_sync_status tool invocation.
func (s *Server) handleGetSyncStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ NoInput,
) (*mcp.CallToolResult, any, error) {
	return textResult(FormatStatusReport(s.ports.Sync.Report(ctx))), nil, nil
}

// FormatStatusReport renders a status report as markdown text.
func FormatStatusReport(report domain.StatusReport) string {
	status := report.Sync
	inProgress := "No"
	if status.InProgress {
		inProgress = "Yes"
	}
	lines := []string{
		"### Sync Status",
		"In progress: " + inProgress,
		"Last sync: " + formatLastSync(status.LastSync),
		fmt.Sprintf("Documents processed: %d", status.DocumentsProcessed),
		fmt.Sprintf("Total chunks: %d", status.ChunksTotal),
	}

	sections := []struct{ collection, title string }{
		{domain.CollectionDocuments, "Documents Collection"},
		{domain.CollectionMessages, "Messages Collection"},
	}
	for _, sec := range sections {
		info, ok := report.Collections[sec.collection]
		if !ok {
			continue
		}
		lines = append(lines,
			"\n### "+sec.title,
			"  Status: "+info.Status,
			fmt.Sprintf("  Points: %d", info.PointsCount))
	}

	return strings.Join(appendErrors(lines, "Recent errors", status.Errors, maxStatusErrors), "\n")
}

func appendErrors(lines []string, label string, errs []string, limit int) []string {
	if len(errs) == 0 {
		return lines
	}
	lines = append(lines, fmt.Sprintf("\n%s (%d):", label, len(errs)))
	for _, e := range errs[:min(len(errs), limit)] {
		lines = append(lines, "  - "+e)
	}
	return lines
}

func formatLastSync(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(time.DateOnly)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	res := textResult(fmt.Sprintf(format, args...))
	res.IsError = true
	return res
}
