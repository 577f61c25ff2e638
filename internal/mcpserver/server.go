// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the Scribe document engine to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/engine"
)

// Server wraps the MCP server with Scribe tools.
type Server struct {
	mcp *server.MCPServer
	svc *engine.Service
}

// New creates a new MCP server with all Scribe tools registered.
func New(svc *engine.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Scribe",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_doc",
		mcp.WithDescription("Read a managed document: full content, parsed frontmatter, and the checksum to use as pre_hash on a later edit."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Logical doc key (e.g. architecture or guides/setup)")),
	), s.readDoc)

	s.mcp.AddTool(mcp.NewTool("list_docs",
		mcp.WithDescription("List every registered document with its key, path, and checksum."),
	), s.listDocs)

	s.mcp.AddTool(mcp.NewTool("create_doc",
		mcp.WithDescription("Create and register a new document. Content MUST follow the Scribe document contract; read it first via get_doc_contract or the scribe://doc-format resource."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key for the new document")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content, optionally with YAML frontmatter")),
		mcp.WithString("frontmatter", mcp.Description("Optional JSON object of frontmatter overrides")),
	), s.createDoc)

	s.mcp.AddTool(mcp.NewTool("delete_doc",
		mcp.WithDescription("Delete a registered document from disk and the registry. Audit history for the key is retained."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key to delete")),
	), s.deleteDoc)

	s.mcp.AddTool(mcp.NewTool("move_doc",
		mcp.WithDescription("Rename a document to a new key, moving its file and re-registering it."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Current doc key")),
		mcp.WithString("new_doc", mcp.Required(), mcp.Description("New doc key")),
	), s.moveDoc)

	s.mcp.AddTool(mcp.NewTool("replace_range",
		mcp.WithDescription("Replace an inclusive span of body-relative lines. Line 1 is the first line after frontmatter."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
		mcp.WithNumber("start_line", mcp.Required(), mcp.Description("First body line to replace (1-based)")),
		mcp.WithNumber("end_line", mcp.Required(), mcp.Description("Last body line to replace (inclusive)")),
		mcp.WithString("content", mcp.Description("Replacement text; empty deletes the span")),
		mcp.WithString("pre_hash", mcp.Description("Expected document checksum from read_doc; mismatch fails with STALE_SOURCE")),
		mcp.WithString("frontmatter", mcp.Description("Optional JSON object of frontmatter overrides applied with the edit")),
	), s.replaceRange)

	s.mcp.AddTool(mcp.NewTool("replace_block",
		mcp.WithDescription("Replace the block starting at the unique line containing anchor_text, through the line before the next blank line. Ambiguous anchors return every matching line number."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
		mcp.WithString("anchor_text", mcp.Required(), mcp.Description("Literal text that identifies exactly one body line")),
		mcp.WithString("content", mcp.Description("Replacement text; empty deletes the block")),
		mcp.WithString("pre_hash", mcp.Description("Expected document checksum")),
		mcp.WithString("frontmatter", mcp.Description("Optional JSON object of frontmatter overrides applied with the edit")),
	), s.replaceBlock)

	s.mcp.AddTool(mcp.NewTool("replace_section",
		mcp.WithDescription("Legacy: replace the section between an '<!-- ID: name -->' marker and the next marker (or end of document). Intended for initial scaffolding only."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
		mcp.WithString("anchor_id", mcp.Required(), mcp.Description("Section marker id")),
		mcp.WithString("content", mcp.Description("Replacement text")),
		mcp.WithString("pre_hash", mcp.Description("Expected document checksum")),
		mcp.WithString("frontmatter", mcp.Description("Optional JSON object of frontmatter overrides applied with the edit")),
	), s.replaceSection)

	s.mcp.AddTool(mcp.NewTool("apply_patch",
		mcp.WithDescription("Apply a unified diff previously produced by this engine. Hand-authored diffs are unsupported; a context mismatch fails the whole patch."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
		mcp.WithString("diff", mcp.Required(), mcp.Description("Unified diff text from an earlier edit result")),
		mcp.WithString("pre_hash", mcp.Description("Expected document checksum")),
		mcp.WithString("frontmatter", mcp.Description("Optional JSON object of frontmatter overrides applied with the edit")),
	), s.applyPatch)

	s.mcp.AddTool(mcp.NewTool("batch",
		mcp.WithDescription("Apply a sequence of edits and transforms to one document with a single atomic write. Each operation is "+
			`{"action": ..., "edit": {...}, "diff": ..., "pre_hash": ...}; pre_hash is honored on the first step only. Any failing step aborts the batch with nothing written.`),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
		mcp.WithString("operations", mcp.Required(), mcp.Description("JSON array of operations")),
	), s.batch)

	s.mcp.AddTool(mcp.NewTool("normalize_headers",
		mcp.WithDescription("Rewrite all headers to canonical ATX form (# Title). Setext underline headers are converted; fenced code blocks are untouched. Idempotent."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
	), s.normalizeHeaders)

	s.mcp.AddTool(mcp.NewTool("generate_toc",
		mcp.WithDescription("Regenerate the table of contents between the TOC markers, inserting them at the top of the body when absent. Idempotent."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
	), s.generateTOC)

	s.mcp.AddTool(mcp.NewTool("validate_crosslinks",
		mcp.WithDescription("Check that every related_docs reference resolves to a registered document. Read-only."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
		mcp.WithBoolean("check_anchors", mcp.Description("Also verify key#anchor references against the target's headers and ID markers")),
	), s.validateCrosslinks)

	s.mcp.AddTool(mcp.NewTool("list_checklist_items",
		mcp.WithDescription("List task-list items ('- [ ]' / '- [x]') with body-relative line numbers. Read-only."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Doc key")),
	), s.listChecklistItems)

	s.mcp.AddTool(mcp.NewTool("get_doc_contract",
		mcp.WithDescription("Returns the canonical Scribe document format and edit discipline. Call this before creating or editing documents."),
	), s.getDocContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("scribe://doc-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical Markdown document format and edit discipline."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetDoc(ctx, key)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) listDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.ListDocs(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(rows), nil
}

func (s *Server) createDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	overrides, err := fmOverrides(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detail, err := s.svc.CreateDoc(ctx, key, content, overrides)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) deleteDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteDoc(ctx, key); err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]string{"deleted": key}), nil
}

func (s *Server) moveDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newKey, err := req.RequireString("new_doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.MoveDoc(ctx, key, newKey)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(detail), nil
}

func (s *Server) replaceRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := req.RequireInt("start_line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireInt("end_line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.edit(ctx, key, req, &engine.EditSpec{
		Type:      "replace_range",
		StartLine: start,
		EndLine:   end,
		Content:   req.GetString("content", ""),
	})
}

func (s *Server) replaceBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	anchor, err := req.RequireString("anchor_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.edit(ctx, key, req, &engine.EditSpec{
		Type:       "replace_block",
		AnchorText: anchor,
		Content:    req.GetString("content", ""),
	})
}

func (s *Server) replaceSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("anchor_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.edit(ctx, key, req, &engine.EditSpec{
		Type:     "replace_section",
		AnchorID: id,
		Content:  req.GetString("content", ""),
	})
}

func (s *Server) edit(ctx context.Context, key string, req mcp.CallToolRequest, spec *engine.EditSpec) (*mcp.CallToolResult, error) {
	overrides, err := fmOverrides(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.EditDoc(ctx, key, engine.EditRequest{
		Edit:        spec,
		PreHash:     req.GetString("pre_hash", ""),
		Frontmatter: overrides,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

// fmOverrides parses the optional "frontmatter" tool argument, a JSON
// object of keys merged into the document's frontmatter on write.
func fmOverrides(req mcp.CallToolRequest) (map[string]any, error) {
	raw := req.GetString("frontmatter", "")
	if raw == "" {
		return nil, nil
	}
	var overrides map[string]any
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, fmt.Errorf("frontmatter must be a JSON object: %w", err)
	}
	return overrides, nil
}

func (s *Server) applyPatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diff, err := req.RequireString("diff")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	overrides, err := fmOverrides(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.EditDoc(ctx, key, engine.EditRequest{
		DiffText:    diff,
		PreHash:     req.GetString("pre_hash", ""),
		Frontmatter: overrides,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) batch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("operations")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ops []engine.BatchOp
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return mcp.NewToolResultError("operations must be a JSON array: " + err.Error()), nil
	}
	res, err := s.svc.Batch(ctx, key, ops)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) normalizeHeaders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.NormalizeHeaders(ctx, key)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) generateTOC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.GenerateTOC(ctx, key)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) validateCrosslinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.ValidateCrosslinks(ctx, key, req.GetBool("check_anchors", false))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) listChecklistItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.ListChecklistItems(ctx, key)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(items), nil
}

func (s *Server) getDocContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocFormatContract), nil
}

func (s *Server) readDocFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "scribe://doc-format",
			MIMEType: "text/markdown",
			Text:     DocFormatContract,
		},
	}, nil
}

// toolError renders a coded engine error as a structured JSON payload so
// agents can read error_code, matched lines, and checksums directly.
func toolError(err error) *mcp.CallToolResult {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return mcp.NewToolResultError(err.Error())
	}
	payload := map[string]any{
		"error_code":   e.Code,
		"error_detail": e.Detail,
	}
	if len(e.Lines) > 0 {
		payload["lines"] = e.Lines
	}
	if e.Expected != "" {
		payload["expected"] = e.Expected
		payload["actual"] = e.Actual
	}
	out, _ := json.Marshal(payload)
	return mcp.NewToolResultError(string(out))
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}
