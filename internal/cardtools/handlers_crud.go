package cardtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/models"
)

func (s *Server) createCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("card")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var payload createPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid card JSON: %s", err)), nil
	}

	var constraints []byte
	if payload.Constraints != nil {
		b, merr := json.Marshal(payload.Constraints)
		if merr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid constraints: %s", merr)), nil
		}
		constraints = b
	}

	in := cardops.CreateInput{
		Slug:        payload.Slug,
		Summary:     payload.Summary,
		Status:      models.Status(payload.Status),
		Body:        payload.Body,
		Keywords:    payload.Keywords,
		Tags:        payload.Tags,
		Relations:   relationDTOsToInputs(payload.Relations),
		CodeLinks:   codeLinkDTOsToInputs(payload.CodeLinks),
		Constraints: constraints,
	}

	card, err := s.eng.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

func (s *Server) readCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.eng.Read(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

func (s *Server) updateCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var payload updatePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid fields JSON: %s", err)), nil
	}
	fields, err := payload.toUpdateFields()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid constraints: %s", err)), nil
	}

	card, err := s.eng.Update(ctx, key, fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

func (s *Server) updateCardStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.eng.UpdateStatus(ctx, key, models.Status(status))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

func (s *Server) deleteCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.eng.Delete(ctx, key); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", key)), nil
}

func (s *Server) renameCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newSlug, err := req.RequireString("newSlug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.eng.Rename(ctx, key, newSlug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

func (s *Server) syncCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.eng.SyncCardFromFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

func (s *Server) bulkSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir := ""
	if d, err := req.RequireString("dir"); err == nil {
		dir = d
	}
	result, err := s.eng.BulkSync(ctx, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) exportCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.eng.ExportCardToFile(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cardToDTO(*card))
}

// jsonResult marshals v and wraps it as a successful tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
