package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/emberquest/api/internal/middleware"
	"github.com/emberquest/api/internal/model"
	"github.com/emberquest/api/internal/service"
)

// GroupService defines the group operations the handler needs
type GroupService interface {
	List(ctx context.Context, userID string, typeFilter string) ([]model.GroupSummary, error)
	Get(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error)
	Create(ctx context.Context, userID string, req *model.CreateGroupRequest) (*model.Group, error)
	Update(ctx context.Context, userID, groupID string, req *model.UpdateGroupRequest) (*model.PopulatedGroup, error)
	Join(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error)
	Leave(ctx context.Context, userID, groupID string) (string, error)
	Invite(ctx context.Context, inviterID, groupID string, req *model.InviteRequest) ([]model.UserSummary, error)
	RemoveMember(ctx context.Context, actorID, groupID, targetID string) error
}

// GroupHandler handles group HTTP requests
type GroupHandler struct {
	svc GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(svc GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// List handles GET /v1/groups - list the caller's groups by category
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groups, err := h.svc.List(ctx, userID, r.URL.Query().Get("type"))
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, groups, nil)
}

// Create handles POST /v1/groups - create a party or guild
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	var req model.CreateGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	group, err := h.svc.Create(ctx, userID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, group, nil)
}

// Get handles GET /v1/groups/{groupId} - get group details
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	group, err := h.svc.Get(ctx, userID, groupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, group, nil)
}

// Update handles PATCH /v1/groups/{groupId} - update group settings
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	var req model.UpdateGroupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	group, err := h.svc.Update(ctx, userID, groupID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, group, nil)
}

// Join handles POST /v1/groups/{groupId}/join
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	group, err := h.svc.Join(ctx, userID, groupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, group, nil)
}

// Leave handles POST /v1/groups/{groupId}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	leftID, err := h.svc.Leave(ctx, userID, groupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"id": leftID}, nil)
}

// Invite handles POST /v1/groups/{groupId}/invite
func (h *GroupHandler) Invite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	if groupID == "" {
		WriteError(w, model.NewBadRequestError("group ID required"))
		return
	}

	var req model.InviteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	invited, err := h.svc.Invite(ctx, userID, groupID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, invited, nil)
}

// RemoveMember handles DELETE /v1/groups/{groupId}/members/{memberId}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	memberID := r.PathValue("memberId")
	if groupID == "" || memberID == "" {
		WriteError(w, model.NewBadRequestError("group ID and member ID required"))
		return
	}

	if err := h.svc.RemoveMember(ctx, userID, groupID, memberID); err != nil {
		h.handleError(w, err)
		return
	}

	WriteNoContent(w)
}

// handleError converts service errors to HTTP responses
func (h *GroupHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		WriteError(w, model.NewNotFoundError("group not found"))
	case errors.Is(err, service.ErrNotGroupLeader):
		WriteError(w, model.NewForbiddenError("only the group leader can do that"))
	case errors.Is(err, service.ErrNotGroupMember):
		WriteError(w, model.NewForbiddenError("not a member of this group"))
	case errors.Is(err, service.ErrNotEnoughGems):
		WriteError(w, model.NewPaymentRequiredError("not enough gems to create a guild"))
	case errors.Is(err, service.ErrAlreadyInParty):
		WriteError(w, model.NewBadRequestError("user is already in a party"))
	case errors.Is(err, service.ErrAlreadyInGroup):
		WriteError(w, model.NewBadRequestError("user is already a member of this group"))
	case errors.Is(err, service.ErrAlreadyInvited):
		WriteError(w, model.NewBadRequestError("user already has an invitation to this group"))
	case errors.Is(err, service.ErrPartyInvitePending):
		WriteError(w, model.NewBadRequestError("user already has a pending party invitation"))
	case errors.Is(err, service.ErrNotMemberOrInvited):
		WriteError(w, model.NewBadRequestError("user is neither a member nor an invitee of this group"))
	case errors.Is(err, service.ErrTavernRestricted):
		WriteError(w, model.NewBadRequestError("the tavern cannot be joined or left"))
	case errors.Is(err, service.ErrCannotRemoveSelf):
		WriteError(w, model.NewBadRequestError("leader cannot remove themselves"))
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, model.NewNotFoundError("user not found"))
	default:
		WriteError(w, MapServiceError(err))
	}
}
