package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emberquest/api/internal/model"
)

// ChatUserRepository defines the user storage the chat service needs
type ChatUserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetLastMessageSeen(ctx context.Context, userID, messageID string) error
}

// ChatService handles group chat business logic. The chat log lives on
// the group record, newest message first, capped at a fixed length.
type ChatService struct {
	repo     GroupRepository
	userRepo ChatUserRepository
	logger   *slog.Logger
}

// ChatServiceConfig holds configuration for the chat service
type ChatServiceConfig struct {
	GroupRepo GroupRepository
	UserRepo  ChatUserRepository
	Logger    *slog.Logger
}

// NewChatService creates a new chat service
func NewChatService(cfg ChatServiceConfig) *ChatService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		repo:     cfg.GroupRepo,
		userRepo: cfg.UserRepo,
		logger:   logger,
	}
}

// GetChat returns a group's chat log, newest first
func (s *ChatService) GetChat(ctx context.Context, userID, groupID string) ([]model.ChatMessage, error) {
	group, err := s.loadForChat(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	return group.Chat, nil
}

// PostMessage appends a message to a group's chat. The message carries
// a snapshot of the author's display name, contributor and backer
// status so old messages render without a user lookup. Posting to a
// party also marks the new message as seen by the author; that write is
// best effort and never fails the post.
func (s *ChatService) PostMessage(ctx context.Context, userID, groupID string, req *model.PostChatRequest) (*model.ChatMessage, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	group, err := s.loadForChat(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Auth.Blocked {
		return nil, ErrAccountBlocked
	}

	msg := model.ChatMessage{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		User:        user.Name,
		Contributor: user.Contributor,
		Backer:      user.Backer,
		Text:        req.Message,
		Timestamp:   time.Now().UTC(),
	}

	chat := make([]model.ChatMessage, 0, len(group.Chat)+1)
	chat = append(chat, msg)
	chat = append(chat, group.Chat...)
	if len(chat) > model.MaxChatMessages {
		chat = chat[:model.MaxChatMessages]
	}

	if err := s.repo.SetChat(ctx, group.ID, chat); err != nil {
		return nil, err
	}

	if group.Type == model.GroupTypeParty {
		if err := s.userRepo.SetLastMessageSeen(ctx, userID, msg.ID); err != nil {
			s.logger.Warn("failed to update last message seen",
				"user_id", userID,
				"group_id", group.ID,
				"error", err)
		}
	}

	return &msg, nil
}

// DeleteMessage removes a message from a group's chat. Only the author
// or an admin may delete a message.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, groupID, messageID string) error {
	group, err := s.loadForChat(ctx, userID, groupID)
	if err != nil {
		return err
	}

	idx := -1
	for i, msg := range group.Chat {
		if msg.ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrMessageNotFound
	}

	if group.Chat[idx].UserID != userID {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil || !user.IsAdmin() {
			return ErrNotMessageAuthor
		}
	}

	chat := make([]model.ChatMessage, 0, len(group.Chat)-1)
	chat = append(chat, group.Chat[:idx]...)
	chat = append(chat, group.Chat[idx+1:]...)

	return s.repo.SetChat(ctx, group.ID, chat)
}

// MarkSeen records that the caller has read the group's chat up to the
// newest message
func (s *ChatService) MarkSeen(ctx context.Context, userID, groupID string) error {
	group, err := s.loadForChat(ctx, userID, groupID)
	if err != nil {
		return err
	}
	if group.Type != model.GroupTypeParty || len(group.Chat) == 0 {
		return nil
	}
	return s.userRepo.SetLastMessageSeen(ctx, userID, group.Chat[0].ID)
}

// loadForChat resolves a group and checks the caller may use its chat.
// Everyone may use the tavern; other groups require membership.
func (s *ChatService) loadForChat(ctx context.Context, userID, groupID string) (*model.Group, error) {
	var (
		group *model.Group
		err   error
	)
	if groupID == "party" {
		group, err = s.repo.GetPartyForUser(ctx, userID)
	} else {
		group, err = s.repo.GetByID(ctx, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if !group.IsTavern() && !group.HasMember(userID) {
		return nil, ErrNotGroupMember
	}
	return group, nil
}
