package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cardengine/cardengine/internal/cardapi"
	"github.com/cardengine/cardengine/internal/cardops"
	"github.com/cardengine/cardengine/internal/models"
)

// Handler holds API route handlers, backed directly by the operations
// layer (no intervening service adapter — cardops.Engine already is the
// one-struct-many-methods domain layer).
type Handler struct {
	eng *cardops.Engine
}

// NewHandler creates a new Handler.
func NewHandler(eng *cardops.Engine) *Handler {
	return &Handler{eng: eng}
}

// cardKey extracts the card key from the URL (everything after the mount
// point's wildcard segment). Supports encoded slashes from OpenAPI clients.
func cardKey(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeEngineError maps a cardops/cardapi error to the appropriate HTTP
// status code.
func writeEngineError(w http.ResponseWriter, op string, key string, err error) {
	switch {
	case errors.Is(err, cardapi.ErrCardNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, cardapi.ErrCardAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, cardapi.ErrCardRenameSamePath):
		writeJSON(w, http.StatusConflict, errorBody("rename target is the same as the source"))
	case errors.Is(err, cardapi.ErrCardValidation), errors.Is(err, cardapi.ErrInvalidKey), errors.Is(err, cardapi.ErrRelationType):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, cardapi.ErrGildashNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("key", key), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListCards handles GET /api/cards.
//
//	@Summary		List cards with optional status filter and pagination
//	@Tags			cards
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	CardListResponse
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := models.Status(q.Get("status"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, err := h.eng.ListCards(r.Context(), status)
	if err != nil {
		writeEngineError(w, "list cards", "", err)
		return
	}

	total := len(items)
	items = paginate(items, limit, offset)

	out := make([]CardListItem, 0, len(items))
	for _, it := range items {
		out = append(out, listItemToDTO(it))
	}
	writeJSON(w, http.StatusOK, CardListResponse{Cards: out, Total: total})
}

func paginate(items []cardops.CardListItem, limit, offset int) []cardops.CardListItem {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []cardops.CardListItem{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// GetCard handles GET /api/cards/*.
//
//	@Summary		Get a single card by key
//	@Tags			cards
//	@Produce		json
//	@Param			key	path		string	true	"Card key"
//	@Success		200	{object}	CardDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{key} [get]
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	key := cardKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	card, err := h.eng.Read(r.Context(), key)
	if err != nil {
		writeEngineError(w, "get card", key, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(*card))
}

// CreateCard handles POST /api/cards.
//
//	@Summary		Create a new design card
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCardRequest	true	"Card to create"
//	@Success		201		{object}	CardDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards [post]
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var constraints []byte
	if req.Constraints != nil {
		b, err := json.Marshal(req.Constraints)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid constraints"))
			return
		}
		constraints = b
	}

	in := cardops.CreateInput{
		Slug:        req.Slug,
		Summary:     req.Summary,
		Status:      models.Status(req.Status),
		Body:        req.Body,
		Keywords:    req.Keywords,
		Tags:        req.Tags,
		Relations:   relationDTOsToInputs(req.Relations),
		CodeLinks:   codeLinkDTOsToInputs(req.CodeLinks),
		Constraints: constraints,
	}

	card, err := h.eng.Create(r.Context(), in)
	if err != nil {
		writeEngineError(w, "create card", req.Slug, err)
		return
	}
	writeJSON(w, http.StatusCreated, cardToDTO(*card))
}

// UpdateCard handles PUT /api/cards/*.
//
//	@Summary		Update a card's fields
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Card key"
//	@Param			body	body		UpdateCardRequest	true	"Fields to update"
//	@Success		200		{object}	CardDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{key} [put]
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	key := cardKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}

	var req UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	fields, err := req.toUpdateFields()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid constraints"))
		return
	}

	card, err := h.eng.Update(r.Context(), key, fields)
	if err != nil {
		writeEngineError(w, "update card", key, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(*card))
}

// UpdateCardStatus handles PUT /api/cards/*/status.
//
//	@Summary		Set a card's status
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Card key"
//	@Param			body	body		UpdateStatusRequest	true	"New status"
//	@Success		200		{object}	CardDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{key}/status [put]
func (h *Handler) UpdateCardStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	card, err := h.eng.UpdateStatus(r.Context(), key, models.Status(req.Status))
	if err != nil {
		writeEngineError(w, "update card status", key, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(*card))
}

// DeleteCard handles DELETE /api/cards/*.
//
//	@Summary		Delete a card
//	@Tags			cards
//	@Param			key	path	string	true	"Card key"
//	@Success		204	"Card deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{key} [delete]
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	key := cardKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	if err := h.eng.Delete(r.Context(), key); err != nil {
		writeEngineError(w, "delete card", key, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenameCard handles POST /api/cards/{key}/rename.
//
//	@Summary		Rename a card to a new slug
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string				true	"Current card key"
//	@Param			body	body		RenameCardRequest	true	"New slug"
//	@Success		200		{object}	CardDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cards/{key}/rename [post]
func (h *Handler) RenameCard(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	var req RenameCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	card, err := h.eng.Rename(r.Context(), key, req.NewSlug)
	if err != nil {
		writeEngineError(w, "rename card", key, err)
		return
	}
	writeJSON(w, http.StatusOK, cardToDTO(*card))
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across card summary and body
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	items, err := h.eng.SearchCards(r.Context(), q)
	if err != nil {
		writeEngineError(w, "search", "", err)
		return
	}
	out := make([]CardListItem, 0, len(items))
	for _, it := range items {
		out = append(out, listItemToDTO(it))
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: out})
}

// Graph handles GET /api/graph/*.
//
//	@Summary		Get a card's relation graph
//	@Tags			graph
//	@Produce		json
//	@Param			key			path		string	true	"Root card key"
//	@Param			maxDepth	query		int		false	"Depth limit, -1 for unbounded"
//	@Param			direction	query		string	false	"forward|backward|both"
//	@Success		200			{object}	GraphResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph/{key} [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	key := cardKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}

	opts := cardops.GraphOptions{MaxDepth: cardops.MaxDepthUnbounded, Direction: models.DirectionBoth}
	q := r.URL.Query()
	if d := q.Get("maxDepth"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid maxDepth"))
			return
		}
		opts.MaxDepth = n
	}
	if dir := q.Get("direction"); dir != "" {
		opts.Direction = models.Direction(dir)
	}

	nodes, err := h.eng.GetRelationGraph(r.Context(), key, opts)
	if err != nil {
		writeEngineError(w, "graph", key, err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: graphNodesToDTO(nodes)})
}

// Validate handles GET /api/validate.
//
//	@Summary		Diff the filesystem against the card index
//	@Tags			validate
//	@Produce		json
//	@Param			dir	query		string	false	"Directory to validate (defaults to the configured cards directory)"
//	@Success		200	{object}	ValidateResponse
//	@Security		BearerAuth
//	@Router			/validate [get]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("dir")
	report, err := h.eng.Validate(r.Context(), dir)
	if err != nil {
		writeEngineError(w, "validate", dir, err)
		return
	}
	writeJSON(w, http.StatusOK, validateReportToDTO(*report))
}
