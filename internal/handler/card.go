package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cardmaker/cardmaker/internal/handler/dto"
	"github.com/cardmaker/cardmaker/internal/middleware"
	"github.com/cardmaker/cardmaker/internal/repository"
	"github.com/cardmaker/cardmaker/internal/service"
)

// CardHandler handles HTTP requests for card operations.
type CardHandler struct {
	svc    *service.CardService
	logger *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.validateCardFields(req.Name, req.Fluff, req.Effect, req.Tags); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_FIELD", err.Error())
		return
	}

	input := service.CreateCardInput{
		Name:       req.Name,
		Fluff:      req.Fluff,
		Effect:     req.Effect,
		UserID:     req.UserID,
		CardTypeID: req.CardTypeID,
		InSet:      req.InSet,
		SetName:    req.SetName,
		Tags:       dto.ToTagInputs(req.Tags),
	}

	card, err := h.svc.CreateCard(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("card_created",
		"card_id", card.Card.ID,
		"card_type_id", card.Card.CardTypeID,
		"tag_count", len(card.Tags),
	)

	writeJSON(w, http.StatusCreated, dto.ToCardResponse(card))
}

// Get handles GET /api/v1/cards/{id}.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Card ID is required")
		return
	}

	card, err := h.svc.GetCard(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCardResponse(card))
}

// List handles GET /api/v1/cards.
// Supported filters: user_id, card_type_id, and tags (comma-separated
// tag names, all of which must be attached).
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := repository.CardFilter{
		UserID:     query.Get("user_id"),
		CardTypeID: query.Get("card_type_id"),
	}
	if tags := query.Get("tags"); tags != "" {
		for _, name := range strings.Split(tags, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				filter.TagNames = append(filter.TagNames, trimmed)
			}
		}
	}

	cards, err := h.svc.ListCards(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCardListResponse(cards))
}

// Update handles PUT /api/v1/cards/{id}.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Card ID is required")
		return
	}

	var req dto.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	var reqTags []dto.TagInput
	if req.Tags != nil {
		reqTags = *req.Tags
	}
	if err := h.validateCardFields(req.Name, req.Fluff, req.Effect, reqTags); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_FIELD", err.Error())
		return
	}

	input := service.UpdateCardInput{
		Name:    req.Name,
		Fluff:   req.Fluff,
		Effect:  req.Effect,
		InSet:   req.InSet,
		SetName: req.SetName,
	}
	if req.Tags != nil {
		// Distinguish "leave tags alone" from "detach everything":
		// an explicit empty array reconciles to the empty set.
		// ToTagInputs never returns nil.
		input.Tags = dto.ToTagInputs(*req.Tags)
	}

	card, err := h.svc.UpdateCard(r.Context(), id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("card_updated",
		"card_id", card.Card.ID,
		"tags_reconciled", req.Tags != nil,
	)

	writeJSON(w, http.StatusOK, dto.ToCardResponse(card))
}

// Delete handles DELETE /api/v1/cards/{id}.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Card ID is required")
		return
	}

	if err := h.svc.DeleteCard(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("card_deleted", "card_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// ListCardTypes handles GET /api/v1/card-types.
func (h *CardHandler) ListCardTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.ListCardTypes(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	out := make([]dto.CardTypeResponse, len(types))
	for i, ct := range types {
		out[i] = dto.ToCardTypeResponse(ct)
	}
	writeJSON(w, http.StatusOK, map[string][]dto.CardTypeResponse{"data": out})
}

// ListTags handles GET /api/v1/tags.
func (h *CardHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	out := make([]dto.TagResponse, len(tags))
	for i, tag := range tags {
		out[i] = dto.ToTagResponse(tag)
	}
	writeJSON(w, http.StatusOK, map[string][]dto.TagResponse{"data": out})
}

// validateCardFields bounds the free-text fields and tag names before
// they reach the service.
func (h *CardHandler) validateCardFields(name, fluff, effect string, tags []dto.TagInput) error {
	if err := middleware.ValidateCardName(name); err != nil {
		return err
	}
	if err := middleware.ValidateCardText(fluff); err != nil {
		return err
	}
	if err := middleware.ValidateCardText(effect); err != nil {
		return err
	}
	for _, tag := range tags {
		if err := middleware.ValidateTagName(tag.Name); err != nil {
			return err
		}
		if err := middleware.ValidateTagDescription(tag.Description); err != nil {
			return err
		}
	}
	return nil
}

// handleServiceError maps service errors to HTTP responses.
func (h *CardHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrCardNotFound):
		h.writeError(w, http.StatusNotFound, "CARD_NOT_FOUND", "Card not found")
	case errors.Is(err, service.ErrCardTypeNotFound):
		h.writeError(w, http.StatusNotFound, "CARD_TYPE_NOT_FOUND", "Card type does not exist")
	case errors.Is(err, service.ErrOwnerNotFound):
		h.writeError(w, http.StatusNotFound, "OWNER_NOT_FOUND", "Card owner does not exist")
	case errors.Is(err, service.ErrInvalidName):
		h.writeError(w, http.StatusBadRequest, "INVALID_NAME", "Card name is required")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *CardHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
