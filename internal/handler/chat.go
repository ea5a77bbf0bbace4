package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/emberquest/api/internal/middleware"
	"github.com/emberquest/api/internal/model"
	"github.com/emberquest/api/internal/service"
)

// ChatService defines the chat operations the handler needs
type ChatService interface {
	GetChat(ctx context.Context, userID, groupID string) ([]model.ChatMessage, error)
	PostMessage(ctx context.Context, userID, groupID string, req *model.PostChatRequest) (*model.ChatMessage, error)
	DeleteMessage(ctx context.Context, userID, groupID, messageID string) error
	MarkSeen(ctx context.Context, userID, groupID string) error
}

// ChatHandler handles group chat HTTP requests
type ChatHandler struct {
	svc ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Get handles GET /v1/groups/{groupId}/chat
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	chat, err := h.svc.GetChat(ctx, userID, groupID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusOK, chat, nil)
}

// Post handles POST /v1/groups/{groupId}/chat
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
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

	var req model.PostChatRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	msg, err := h.svc.PostMessage(ctx, userID, groupID, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	WriteData(w, http.StatusCreated, msg, nil)
}

// Delete handles DELETE /v1/groups/{groupId}/chat/{messageId}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	groupID := r.PathValue("groupId")
	messageID := r.PathValue("messageId")
	if groupID == "" || messageID == "" {
		WriteError(w, model.NewBadRequestError("group ID and message ID required"))
		return
	}

	if err := h.svc.DeleteMessage(ctx, userID, groupID, messageID); err != nil {
		h.handleError(w, err)
		return
	}

	WriteNoContent(w)
}

// MarkSeen handles POST /v1/groups/{groupId}/chat/seen
func (h *ChatHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.MarkSeen(ctx, userID, groupID); err != nil {
		h.handleError(w, err)
		return
	}

	WriteNoContent(w)
}

// handleError converts service errors to HTTP responses
func (h *ChatHandler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrGroupNotFound):
		WriteError(w, model.NewNotFoundError("group not found"))
	case errors.Is(err, service.ErrMessageNotFound):
		WriteError(w, model.NewNotFoundError("chat message not found"))
	case errors.Is(err, service.ErrNotGroupMember):
		WriteError(w, model.NewForbiddenError("not a member of this group"))
	case errors.Is(err, service.ErrNotMessageAuthor):
		WriteError(w, model.NewForbiddenError("only the author or an admin can delete this message"))
	case errors.Is(err, service.ErrAccountBlocked):
		WriteError(w, model.NewForbiddenError("account is blocked"))
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, model.NewNotFoundError("user not found"))
	default:
		WriteError(w, MapServiceError(err))
	}
}
