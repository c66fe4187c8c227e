package cardtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/models"
)

func (s *Server) validateCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := ""
	if d, err := req.RequireString("dir"); err == nil {
		dir = d
	}
	report, err := s.eng.Validate(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) searchCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.eng.SearchCards(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) listCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := ""
	if st, err := req.RequireString("status"); err == nil {
		status = st
	}
	items, err := s.eng.ListCards(ctx, models.Status(status))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) getCardContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cc, err := s.eng.GetCardContext(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardContextToDTO(*cc))
}

func (s *Server) getRelationGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := cardops.GraphOptions{MaxDepth: cardops.MaxDepthUnbounded, Direction: models.DirectionBoth}
	if d, err := req.RequireString("maxDepth"); err == nil && d != "" {
		n, perr := strconv.Atoi(d)
		if perr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid maxDepth: %s", perr)), nil
		}
		opts.MaxDepth = n
	}
	if dir, err := req.RequireString("direction"); err == nil && dir != "" {
		opts.Direction = models.Direction(dir)
	}

	nodes, err := s.eng.GetRelationGraph(ctx, key, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(nodes)
}

func (s *Server) resolveCardCodeLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.eng.ResolveCardCodeLinks(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resolvedLinksToDTO(links))
}

func (s *Server) findCardsBySymbol(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var filePtr *string
	if f, err := req.RequireString("file"); err == nil && f != "" {
		filePtr = &f
	}
	cards, err := s.eng.FindCardsBySymbol(ctx, name, filePtr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardsToDTOs(cards))
}

func (s *Server) findAffectedCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("files")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var files []string
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid files JSON: %s", err)), nil
	}
	cards, err := s.eng.FindAffectedCards(ctx, files)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardsToDTOs(cards))
}

func cardsToDTOs(cards []cardops.Card) []cardDTO {
	out := make([]cardDTO, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardToDTO(c))
	}
	return out
}

type cardContextDTO struct {
	Card            cardDTO           `json:"card"`
	CodeLinks       []resolvedLinkDTO `json:"codeLinks"`
	UpstreamCards   []cardDTO         `json:"upstreamCards"`
	DownstreamCards []cardDTO         `json:"downstreamCards"`
}

type resolvedLinkDTO struct {
	CodeLink codeLinkDTO `json:"codeLink"`
	Resolved *symbolDTO  `json:"resolved,omitempty"`
}

type symbolDTO struct {
	Name string `json:"name"`
	File string `json:"file"`
	Kind string `json:"kind"`
}

func resolvedLinksToDTO(links []cardops.ResolvedCodeLink) []resolvedLinkDTO {
	out := make([]resolvedLinkDTO, 0, len(links))
	for _, l := range links {
		d := resolvedLinkDTO{CodeLink: codeLinkDTO{Kind: l.CodeLink.Kind, File: l.CodeLink.File, Symbol: l.CodeLink.Symbol}}
		if l.Resolved != nil {
			d.Resolved = &symbolDTO{Name: l.Resolved.Name, File: l.Resolved.File, Kind: l.Resolved.Kind}
		}
		out = append(out, d)
	}
	return out
}

func cardContextToDTO(cc cardops.CardContext) cardContextDTO {
	return cardContextDTO{
		Card:            cardToDTO(cc.Card),
		CodeLinks:       resolvedLinksToDTO(cc.CodeLinks),
		UpstreamCards:   cardsToDTOs(cc.UpstreamCards),
		DownstreamCards: cardsToDTOs(cc.DownstreamCards),
	}
}
