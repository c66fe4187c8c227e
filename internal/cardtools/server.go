// Package cardtools provides an MCP (Model Context Protocol) server that
// exposes card operations for LLM integration via stdio transport.
package cardtools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cardengine/cardengine/internal/cardops"
)

// Server wraps the MCP server with the full set of card tools.
type Server struct {
	mcp *server.MCPServer
	eng *cardops.Engine
}

// New creates a new MCP server with every card tool and resource registered.
func New(eng *cardops.Engine) *Server {
	s := &Server{eng: eng}

	s.mcp = server.NewMCPServer(
		"CardEngine",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("create_card",
		mcp.WithDescription("Create a new design card. card is a JSON object following the "+
			"canonical card format (see get_card_contract / cards://card-format): "+
			"{slug, summary, status, body, keywords, tags, relations, codeLinks, constraints}."),
		mcp.WithString("card", mcp.Required(), mcp.Description("JSON-encoded card payload")),
	), s.createCard)

	s.mcp.AddTool(mcp.NewTool("read_card",
		mcp.WithDescription("Read a card by key, as currently stored on disk."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key, e.g. area/slug")),
	), s.readCard)

	s.mcp.AddTool(mcp.NewTool("update_card",
		mcp.WithDescription("Update a card's fields. fields is a JSON object with an optional "+
			"\"set\" array naming which of keywords/tags/relations/codeLinks/constraints are "+
			"explicitly provided (an explicitly empty value deletes that field; omitted fields "+
			"keep their prior value). summary and body update whenever present and non-null."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key to update")),
		mcp.WithString("fields", mcp.Required(), mcp.Description("JSON-encoded update payload")),
	), s.updateCard)

	s.mcp.AddTool(mcp.NewTool("update_card_status",
		mcp.WithDescription("Set a card's status. No transition order is enforced."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key to update")),
		mcp.WithString("status", mcp.Required(), mcp.Description("draft|accepted|implementing|implemented|deprecated")),
	), s.updateCardStatus)

	s.mcp.AddTool(mcp.NewTool("delete_card",
		mcp.WithDescription("Delete a card's file and index row."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key to delete")),
	), s.deleteCard)

	s.mcp.AddTool(mcp.NewTool("rename_card",
		mcp.WithDescription("Move a card to a new slug, rewriting its key in the file and index."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Current card key")),
		mcp.WithString("newSlug", mcp.Required(), mcp.Description("New slug/key for the card")),
	), s.renameCard)

	s.mcp.AddTool(mcp.NewTool("sync_card",
		mcp.WithDescription("Re-index a single card file from disk, e.g. after a direct file edit."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .card.md file")),
	), s.syncCard)

	s.mcp.AddTool(mcp.NewTool("bulk_sync",
		mcp.WithDescription("Re-index every card file under a directory (or the configured cards directory if omitted)."),
		mcp.WithString("dir", mcp.Description("Directory to scan (optional)")),
	), s.bulkSync)

	s.mcp.AddTool(mcp.NewTool("export_card",
		mcp.WithDescription("Regenerate a card's file from its current index state."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key to export")),
	), s.exportCard)

	s.mcp.AddTool(mcp.NewTool("validate_cards",
		mcp.WithDescription("Diff the filesystem against the card index: stale rows, orphan "+
			"files, and key mismatches. Read-only."),
		mcp.WithString("dir", mcp.Description("Directory to validate (optional)")),
	), s.validateCards)

	s.mcp.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Full-text search over card summary and body."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCards)

	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List cards, optionally filtered by status."),
		mcp.WithString("status", mcp.Description("draft|accepted|implementing|implemented|deprecated (optional)")),
	), s.listCards)

	s.mcp.AddTool(mcp.NewTool("get_card_context",
		mcp.WithDescription("Return a card bundled with its resolved code links and its "+
			"directly related upstream/downstream cards."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key")),
	), s.getCardContext)

	s.mcp.AddTool(mcp.NewTool("get_relation_graph",
		mcp.WithDescription("Breadth-first traversal of a card's relation graph. "+
			"maxDepth -1 means unbounded, 0 returns no results, omitted defaults to unbounded. "+
			"direction is forward|backward|both (default both)."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Root card key")),
		mcp.WithString("maxDepth", mcp.Description("Integer depth limit, -1 for unbounded (optional)")),
		mcp.WithString("direction", mcp.Description("forward|backward|both (optional)")),
	), s.getRelationGraph)

	s.mcp.AddTool(mcp.NewTool("resolve_card_code_links",
		mcp.WithDescription("Resolve a card's code links against the configured symbol indexer."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Card key")),
	), s.resolveCardCodeLinks)

	s.mcp.AddTool(mcp.NewTool("find_cards_by_symbol",
		mcp.WithDescription("Find cards whose code links reference a given symbol name, "+
			"optionally narrowed to one file."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name")),
		mcp.WithString("file", mcp.Description("Narrow to this file (optional)")),
	), s.findCardsBySymbol)

	s.mcp.AddTool(mcp.NewTool("find_affected_cards",
		mcp.WithDescription("Find cards whose code links reference any of the given files."),
		mcp.WithString("files", mcp.Required(), mcp.Description("JSON array of file paths")),
	), s.findAffectedCards)

	s.mcp.AddTool(mcp.NewTool("get_card_contract",
		mcp.WithDescription("Returns the canonical card format contract. Call this before "+
			"creating or updating cards to ensure correct structure."),
	), s.getCardContract)

	s.mcp.AddTool(mcp.NewTool("upload_attachment",
		mcp.WithDescription("Download or decode an image/PDF (diagram, screenshot) referenced "+
			"by a card and save it under the cards directory's attachments/ folder. url may be "+
			"an http(s) URL or a base64 data: URI. Returns a relative Markdown image reference "+
			"to embed in the card body."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI of the image/PDF")),
		mcp.WithString("filename", mcp.Description("Desired filename (optional, derived from the URL otherwise)")),
	), s.uploadAttachment)

	s.mcp.AddResource(
		mcp.NewResource("cards://card-format", "Card Format Contract",
			mcp.WithResourceDescription("Canonical card file format that all cards must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
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
