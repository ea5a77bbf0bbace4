package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/emberquest/api/internal/model"
)

// GroupRepository defines the interface for group storage
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	GetPartyForUser(ctx context.Context, userID string) (*model.Group, error)
	GetGuildsForUser(ctx context.Context, userID string) ([]*model.Group, error)
	GetPublicGuilds(ctx context.Context) ([]*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, userID string, groupType model.GroupType) error
	AddInvite(ctx context.Context, groupID, userID string, invite model.GroupInvite, groupType model.GroupType) error
	RemovePartyMembership(ctx context.Context, groupID, userID string) error
	RemoveGuildMembership(ctx context.Context, groupID, userID string) error
	SetChat(ctx context.Context, groupID string, chat []model.ChatMessage) error
}

// GroupUserRepository defines the user storage the group service needs
type GroupUserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	UpdateBalance(ctx context.Context, userID string, delta float64) error
	SetParty(ctx context.Context, userID, groupID string) error
	AddGuild(ctx context.Context, userID, groupID string) error
}

// GroupService handles group membership business logic
type GroupService struct {
	repo     GroupRepository
	userRepo GroupUserRepository
	logger   *slog.Logger
}

// GroupServiceConfig holds configuration for the group service
type GroupServiceConfig struct {
	GroupRepo GroupRepository
	UserRepo  GroupUserRepository
	Logger    *slog.Logger
}

// NewGroupService creates a new group service
func NewGroupService(cfg GroupServiceConfig) *GroupService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{
		repo:     cfg.GroupRepo,
		userRepo: cfg.UserRepo,
		logger:   logger,
	}
}

// List returns the groups visible to a user, filtered by category.
// Categories are "party", "guilds", "publicGuilds" and "tavern"; an
// empty filter means all of them. The categories are fetched
// concurrently and assembled in a stable order. Every summary carries
// the caller's membership state, so a public guild the caller belongs
// to appears in both the guilds and publicGuilds categories.
func (s *GroupService) List(ctx context.Context, userID string, typeFilter string) ([]model.GroupSummary, error) {
	wanted := map[string]bool{}
	if typeFilter == "" {
		wanted["party"] = true
		wanted["guilds"] = true
		wanted["publicGuilds"] = true
		wanted["tavern"] = true
	} else {
		for _, t := range strings.Split(typeFilter, ",") {
			wanted[strings.TrimSpace(t)] = true
		}
	}

	var (
		party        *model.Group
		guilds       []*model.Group
		publicGuilds []*model.Group
		tavern       *model.Group
	)

	g, gctx := errgroup.WithContext(ctx)

	if wanted["party"] {
		g.Go(func() error {
			var err error
			party, err = s.repo.GetPartyForUser(gctx, userID)
			return err
		})
	}
	if wanted["guilds"] {
		g.Go(func() error {
			var err error
			guilds, err = s.repo.GetGuildsForUser(gctx, userID)
			return err
		})
	}
	if wanted["publicGuilds"] {
		g.Go(func() error {
			var err error
			publicGuilds, err = s.repo.GetPublicGuilds(gctx)
			return err
		})
	}
	if wanted["tavern"] {
		g.Go(func() error {
			var err error
			tavern, err = s.repo.GetByID(gctx, model.TavernID)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	summaries := make([]model.GroupSummary, 0, len(guilds)+len(publicGuilds)+2)
	if party != nil {
		sum := party.Summary()
		sum.IsMember = true
		summaries = append(summaries, sum)
	}
	for _, guild := range guilds {
		sum := guild.Summary()
		sum.IsMember = true
		summaries = append(summaries, sum)
	}
	for _, guild := range publicGuilds {
		sum := guild.Summary()
		sum.IsMember = guild.HasMember(userID)
		summaries = append(summaries, sum)
	}
	if tavern != nil {
		// Every user is implicitly a tavern member
		sum := tavern.Summary()
		sum.IsMember = true
		summaries = append(summaries, sum)
	}

	return summaries, nil
}

// Get returns a single group with its member and invite lists resolved
// to user summaries. The literal ID "party" resolves to the caller's
// party. Private groups are only readable by members and invitees;
// anyone else is refused outright.
func (s *GroupService) Get(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
	group, err := s.resolve(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	if !s.canView(group, userID) {
		return nil, ErrNotGroupMember
	}

	return s.populate(ctx, group, userID)
}

// Create creates a party or guild with the caller as leader and sole
// member. Guild creation costs gems: the fee is debited from the
// creator and seeds the guild bank.
func (s *GroupService) Create(ctx context.Context, userID string, req *model.CreateGroupRequest) (*model.Group, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	groupType := model.GroupType(req.Type)
	privacy := model.GroupPrivacy(req.Privacy)
	if privacy == "" {
		privacy = model.GroupPrivacyPrivate
	}
	if groupType == model.GroupTypeParty {
		// Parties are always private
		privacy = model.GroupPrivacyPrivate
		if user.InParty() {
			return nil, ErrAlreadyInParty
		}
	}

	balance := 0.0
	if groupType == model.GroupTypeGuild {
		if user.Balance < model.GuildCreationCost {
			return nil, ErrNotEnoughGems
		}
		balance = model.GuildCreationCost
	}

	group := &model.Group{
		Type:          groupType,
		Privacy:       privacy,
		Name:          req.Name,
		Description:   req.Description,
		Logo:          req.Logo,
		LeaderMessage: req.LeaderMessage,
		Leader:        userID,
		Members:       []string{userID},
		Balance:       balance,
	}

	// Debit the creator before the guild exists so a crash cannot
	// leave a funded guild and an undebited user.
	if groupType == model.GroupTypeGuild {
		if err := s.userRepo.UpdateBalance(ctx, userID, -model.GuildCreationCost); err != nil {
			return nil, fmt.Errorf("failed to debit guild fee: %w", err)
		}
	}

	if err := s.repo.Create(ctx, group); err != nil {
		if groupType == model.GroupTypeGuild {
			if refundErr := s.userRepo.UpdateBalance(ctx, userID, model.GuildCreationCost); refundErr != nil {
				s.logger.Error("failed to refund guild fee",
					"user_id", userID,
					"error", refundErr)
			}
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	switch groupType {
	case model.GroupTypeParty:
		err = s.userRepo.SetParty(ctx, userID, group.ID)
	case model.GroupTypeGuild:
		err = s.userRepo.AddGuild(ctx, userID, group.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record membership: %w", err)
	}

	return group, nil
}

// Update modifies group settings. Only the leader can update a group,
// and leadership can only be handed to an existing member. Returns the
// group with member and invite lists resolved, like Get.
func (s *GroupService) Update(ctx context.Context, userID, groupID string, req *model.UpdateGroupRequest) (*model.PopulatedGroup, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	group, err := s.resolve(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	if group.Leader != userID {
		return nil, ErrNotGroupLeader
	}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.Logo != nil {
		group.Logo = *req.Logo
	}
	if req.Websites != nil {
		group.Websites = *req.Websites
	}
	if req.LeaderMessage != nil {
		group.LeaderMessage = *req.LeaderMessage
	}
	if req.Leader != nil {
		if !group.HasMember(*req.Leader) {
			return nil, ErrNotGroupMember
		}
		group.Leader = *req.Leader
	}

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return s.populate(ctx, group, userID)
}

// Join adds the caller to a group. Parties and private guilds require
// an invitation; public guilds are open. Joining a group the caller is
// already in is a no-op. Returns the group with member and invite
// lists resolved, like Get.
func (s *GroupService) Join(ctx context.Context, userID, groupID string) (*model.PopulatedGroup, error) {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if group.IsTavern() {
		return nil, ErrTavernRestricted
	}

	if group.HasMember(userID) {
		return s.populate(ctx, group, userID)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	invited := group.HasInvite(userID) ||
		user.HasGuildInvitation(group.ID) ||
		(user.Invitations.Party != nil && user.Invitations.Party.ID == group.ID)

	switch group.Type {
	case model.GroupTypeParty:
		if user.InParty() {
			return nil, ErrAlreadyInParty
		}
		if !invited {
			return nil, ErrNotMemberOrInvited
		}
	case model.GroupTypeGuild:
		if group.Privacy == model.GroupPrivacyPrivate && !invited {
			return nil, ErrNotMemberOrInvited
		}
	}

	if err := s.repo.AddMember(ctx, group.ID, userID, group.Type); err != nil {
		return nil, err
	}

	group.Members = append(group.Members, userID)
	group.Invites = removeString(group.Invites, userID)
	return s.populate(ctx, group, userID)
}

// Leave removes the caller from a group. Leaving a group the caller is
// not in succeeds without changing anything. When the last member
// leaves a private group the group is deleted; when the leader leaves a
// group that still has members, leadership passes to the next member.
// Returns the ID of the group that was left.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) (string, error) {
	group, err := s.resolve(ctx, userID, groupID)
	if err != nil {
		return "", err
	}
	if group.IsTavern() {
		return "", ErrTavernRestricted
	}
	if !group.HasMember(userID) {
		return group.ID, nil
	}

	switch group.Type {
	case model.GroupTypeParty:
		err = s.repo.RemovePartyMembership(ctx, group.ID, userID)
	default:
		err = s.repo.RemoveGuildMembership(ctx, group.ID, userID)
	}
	if err != nil {
		return "", err
	}

	remaining := removeString(group.Members, userID)
	if len(remaining) == 0 {
		if group.Privacy != model.GroupPrivacyPublic {
			if err := s.repo.Delete(ctx, group.ID); err != nil {
				return "", err
			}
		}
		return group.ID, nil
	}

	if group.Leader == userID {
		group.Leader = remaining[0]
		group.Members = remaining
		if err := s.repo.Update(ctx, group); err != nil {
			return "", fmt.Errorf("failed to reassign leader: %w", err)
		}
	}

	return group.ID, nil
}

// Invite invites a list of users to a group. The caller must be a
// member. Each target is checked against the group's invite rules
// before any invitation is written, and the whole request fails on the
// first target that cannot be invited.
func (s *GroupService) Invite(ctx context.Context, inviterID, groupID string, req *model.InviteRequest) ([]model.UserSummary, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	group, err := s.resolve(ctx, inviterID, groupID)
	if err != nil {
		return nil, err
	}
	if group.IsTavern() {
		return nil, ErrTavernRestricted
	}
	if !group.HasMember(inviterID) {
		return nil, ErrNotGroupMember
	}

	targets := make([]*model.User, 0, len(req.UUIDs))
	for _, targetID := range req.UUIDs {
		target, err := s.userRepo.GetByID(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if target == nil {
			return nil, ErrUserNotFound
		}

		switch group.Type {
		case model.GroupTypeParty:
			if target.InParty() {
				return nil, ErrAlreadyInParty
			}
			if target.Invitations.Party != nil {
				return nil, ErrPartyInvitePending
			}
		case model.GroupTypeGuild:
			if target.InGuild(group.ID) || group.HasMember(target.ID) {
				return nil, ErrAlreadyInGroup
			}
			if group.HasInvite(target.ID) || target.HasGuildInvitation(group.ID) {
				return nil, ErrAlreadyInvited
			}
		}

		targets = append(targets, target)
	}

	invite := model.GroupInvite{
		ID:      group.ID,
		Name:    group.Name,
		Inviter: inviterID,
	}

	invited := make([]model.UserSummary, 0, len(targets))
	for _, target := range targets {
		if err := s.repo.AddInvite(ctx, group.ID, target.ID, invite, group.Type); err != nil {
			return nil, err
		}
		invited = append(invited, target.Summary())
	}

	return invited, nil
}

// RemoveMember removes a member from a group, or revokes a pending
// invitation. Only the leader can remove people, and not themselves.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, targetID string) error {
	group, err := s.resolve(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if group.Leader != actorID {
		return ErrNotGroupLeader
	}
	if targetID == actorID {
		return ErrCannotRemoveSelf
	}

	if !group.HasMember(targetID) && !group.HasInvite(targetID) {
		return ErrNotMemberOrInvited
	}

	switch group.Type {
	case model.GroupTypeParty:
		return s.repo.RemovePartyMembership(ctx, group.ID, targetID)
	default:
		return s.repo.RemoveGuildMembership(ctx, group.ID, targetID)
	}
}

// resolve loads a group by ID, translating the literal ID "party" into
// the caller's party
func (s *GroupService) resolve(ctx context.Context, userID, groupID string) (*model.Group, error) {
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
	return group, nil
}

// canView reports whether a user may read a group
func (s *GroupService) canView(group *model.Group, userID string) bool {
	if group.IsTavern() || group.Privacy == model.GroupPrivacyPublic {
		return true
	}
	return group.HasMember(userID) || group.HasInvite(userID)
}

// populate resolves a group's member and invite IDs into user
// summaries. For parties the requester is left out of the member list;
// the client already renders the viewer separately.
func (s *GroupService) populate(ctx context.Context, group *model.Group, userID string) (*model.PopulatedGroup, error) {
	memberIDs := group.Members
	if group.Type == model.GroupTypeParty {
		memberIDs = removeString(memberIDs, userID)
	}

	members, err := s.userRepo.GetByIDs(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	invitees, err := s.userRepo.GetByIDs(ctx, group.Invites)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitees: %w", err)
	}

	populated := &model.PopulatedGroup{
		ID:            group.ID,
		Type:          group.Type,
		Privacy:       group.Privacy,
		Name:          group.Name,
		Description:   group.Description,
		Logo:          group.Logo,
		Websites:      group.Websites,
		LeaderMessage: group.LeaderMessage,
		Leader:        group.Leader,
		MemberCount:   len(group.Members),
		Members:       make([]model.UserSummary, 0, len(members)),
		Invites:       make([]model.UserSummary, 0, len(invitees)),
		Chat:          group.Chat,
		Balance:       group.Balance,
		CreatedOn:     group.CreatedOn,
		UpdatedOn:     group.UpdatedOn,
	}
	for _, member := range members {
		populated.Members = append(populated.Members, member.Summary())
	}
	for _, invitee := range invitees {
		populated.Invites = append(populated.Invites, invitee.Summary())
	}

	return populated, nil
}

// removeString returns a copy of the slice with every occurrence of s removed
func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
