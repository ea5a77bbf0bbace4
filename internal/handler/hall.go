package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/emberquest/api/internal/model"
	"github.com/emberquest/api/internal/service"
)

// HallService defines the hall of fame operations the handler needs
type HallService interface {
	GetPatrons(ctx context.Context, page int) ([]model.PatronEntry, error)
	GetHeroes(ctx context.Context) ([]model.HeroEntry, error)
	GetHero(ctx context.Context, heroID string) (*model.Hero, error)
	UpdateHero(ctx context.Context, heroID string, req *model.UpdateHeroRequest) (*model.Hero, error)
}

// HallHandler handles hall of fame HTTP requests. The listings are
// public; individual hero records are admin only and routed behind the
// admin middleware.
type HallHandler struct {
	svc HallService
}

// NewHallHandler creates a new hall handler
func NewHallHandler(svc HallService) *HallHandler {
	return &HallHandler{svc: svc}
}

// GetPatrons handles GET /v1/hall/patrons
func (h *HallHandler) GetPatrons(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, model.NewBadRequestError("page must be an integer"))
			return
		}
		page = parsed
	}

	patrons, err := h.svc.GetPatrons(r.Context(), page)
	if err != nil {
		h.handleError(w, err)
		return
	}

	pagination := &PaginationInfo{
		Cursor:  strconv.Itoa(page + 1),
		HasMore: len(patrons) == model.PatronsPerPage,
	}
	WriteCollection(w, http.StatusOK, patrons, pagination, nil)
}

// GetHeroes handles GET /v1/hall/heroes
func (h *HallHandler) GetHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := h.svc.GetHeroes(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, heroes, nil)
}

// GetHero handles GET /v1/hall/heroes/{heroId}
func (h *HallHandler) GetHero(w http.ResponseWriter, r *http.Request) {
	heroID := r.PathValue("heroId")
	if heroID == "" {
		WriteError(w, model.NewBadRequestError("hero ID required"))
		return
	}

	hero, err := h.svc.GetHero(r.Context(), heroID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, hero, nil)
}

// UpdateHero handles PATCH /v1/hall/heroes/{heroId}
func (h *HallHandler) UpdateHero(w http.ResponseWriter, r *http.Request) {
	heroID := r.PathValue("heroId")
	if heroID == "" {
		WriteError(w, model.NewBadRequestError("hero ID required"))
		return
	}

	var req model.UpdateHeroRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	hero, err := h.svc.UpdateHero(r.Context(), heroID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, hero, nil)
}

// handleError converts service errors to HTTP responses
func (h *HallHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, model.NewNotFoundError("hero not found"))
	case errors.Is(err, service.ErrInvalidItemPath):
		WriteError(w, model.NewBadRequestError("item path is not grantable"))
	case errors.Is(err, service.ErrInvalidTier):
		WriteError(w, model.NewValidationError([]model.FieldError{
			{Field: "contributor.level", Message: "contributor tier out of range"},
		}))
	default:
		WriteError(w, MapServiceError(err))
	}
}
