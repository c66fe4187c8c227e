package cardtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) getCardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "cards://card-format",
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}

// CardFormatContract describes the canonical card file format that LLM
// clients should follow when creating or updating cards through this
// tool surface.
const CardFormatContract = `# Card Format Contract

Every card file managed by this engine MUST follow this structure.

` + "```" + `markdown
---
key: area/slug                      # REQUIRED - matches [A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*
summary: One-line description       # REQUIRED - max 500 characters
status: draft                       # REQUIRED - draft|accepted|implementing|implemented|deprecated
tags:                                # OPTIONAL
  - tag-one
keywords:                           # OPTIONAL
  - keyword-one
relations:                          # OPTIONAL - only forward edges are ever written to the file
  - type: depends-on
    target: other/card
codeLinks:                          # OPTIONAL
  - kind: fn
    file: pkg/foo.go
    symbol: DoThing
constraints:                        # OPTIONAL - opaque structured value, never validated
  maxLatencyMs: 200
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **YAML front matter is mandatory** and must open and close with `+"`"+`---`+"`"+` lines at
   the top of the file.
2. **key, summary, status are required.** status must be one of the five
   listed values.
3. **Relations are directed and typed.** Writing a relation creates its
   reverse mirror automatically in the index; mirrors never appear in the
   file.
4. A card key's filename is ` + "`" + `key + \".card.md\"` + "`" + ` under the configured cards
   directory; nested keys (` + "`" + `area/slug` + "`" + `) become nested directories.
5. Use sync_card or bulk_sync after editing a file directly on disk so the
   index picks up the change.
`
