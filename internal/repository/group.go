package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emberquest/api/internal/database"
	"github.com/emberquest/api/internal/model"
)

// GroupRepository handles group persistence in SurrealDB. Membership
// changes touch both the group record and the user record, so those
// methods run as atomic batches.
type GroupRepository struct {
	db database.Database
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db database.Database) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group record
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	query := `
		CREATE group CONTENT {
			type: $type,
			privacy: $privacy,
			name: $name,
			description: $description,
			logo: $logo,
			leader_message: $leader_message,
			leader: $leader,
			members: $members,
			invites: [],
			chat: [],
			balance: $balance,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	members := group.Members
	if members == nil {
		members = []string{}
	}

	vars := map[string]interface{}{
		"type":           string(group.Type),
		"privacy":        string(group.Privacy),
		"name":           group.Name,
		"description":    nilIfEmpty(group.Description),
		"logo":           nilIfEmpty(group.Logo),
		"leader_message": nilIfEmpty(group.LeaderMessage),
		"leader":         group.Leader,
		"members":        members,
		"balance":        group.Balance,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	created, err := extractCreatedGroup(results)
	if err != nil {
		return err
	}

	*group = *created
	return nil
}

// GetByID retrieves a group by record ID. Returns nil if not found.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*model.Group, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	resMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return parseGroupResult(resMap)
}

// GetPartyForUser finds the party a user belongs to. Returns nil when
// the user has no party.
func (r *GroupRepository) GetPartyForUser(ctx context.Context, userID string) (*model.Group, error) {
	query := `SELECT * FROM group WHERE type = 'party' AND $user INSIDE members LIMIT 1`
	vars := map[string]interface{}{"user": userID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	resMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return parseGroupResult(resMap)
}

// GetGuildsForUser lists the guilds a user belongs to
func (r *GroupRepository) GetGuildsForUser(ctx context.Context, userID string) ([]*model.Group, error) {
	query := `
		SELECT * FROM group
		WHERE type = 'guild' AND $user INSIDE members
		ORDER BY name ASC
	`
	vars := map[string]interface{}{"user": userID}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get guilds: %w", err)
	}

	return parseGroupResults(results)
}

// GetPublicGuilds lists all public guilds
func (r *GroupRepository) GetPublicGuilds(ctx context.Context) ([]*model.Group, error) {
	query := `
		SELECT * FROM group
		WHERE type = 'guild' AND privacy = 'public'
		ORDER BY name ASC
	`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get public guilds: %w", err)
	}

	return parseGroupResults(results)
}

// Update writes the mutable group fields
func (r *GroupRepository) Update(ctx context.Context, group *model.Group) error {
	query := `
		UPDATE type::record($id) SET
			name = $name,
			privacy = $privacy,
			description = $description,
			logo = $logo,
			websites = $websites,
			leader_message = $leader_message,
			leader = $leader,
			updated_on = time::now()
	`
	websites := group.Websites
	if websites == nil {
		websites = []string{}
	}
	vars := map[string]interface{}{
		"id":             group.ID,
		"name":           group.Name,
		"privacy":        string(group.Privacy),
		"description":    nilIfEmpty(group.Description),
		"logo":           nilIfEmpty(group.Logo),
		"websites":       websites,
		"leader_message": nilIfEmpty(group.LeaderMessage),
		"leader":         group.Leader,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return nil
}

// Delete removes a group record
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	vars := map[string]interface{}{"id": id}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// AddMember adds a user to the group and mirrors the membership onto
// the user record in one atomic batch. Any pending invite for the
// group is consumed on both sides.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string, groupType model.GroupType) error {
	batch := database.NewAtomicBatch()

	batch.Add(`
		UPDATE type::record($group) SET
			members += $user,
			invites -= $user,
			updated_on = time::now()
	`, map[string]interface{}{
		"group": groupID,
		"user":  userID,
	})

	if groupType == model.GroupTypeParty {
		batch.Add(`
			UPDATE type::record($user) SET
				party.id = $group,
				invitations.party = NONE,
				updated_on = time::now()
		`, map[string]interface{}{
			"group": groupID,
			"user":  userID,
		})
	} else {
		batch.Add(`
			UPDATE type::record($user) SET
				guilds += $group,
				invitations.guilds = invitations.guilds[WHERE id != $group],
				updated_on = time::now()
		`, map[string]interface{}{
			"group": groupID,
			"user":  userID,
		})
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// AddInvite records an invitation on the group and on the invited user
// in one atomic batch
func (r *GroupRepository) AddInvite(ctx context.Context, groupID, userID string, invite model.GroupInvite, groupType model.GroupType) error {
	inviteData, err := toJSONValue(invite)
	if err != nil {
		return fmt.Errorf("failed to encode invite: %w", err)
	}

	batch := database.NewAtomicBatch()

	batch.Add(`
		UPDATE type::record($group) SET
			invites += $user,
			updated_on = time::now()
	`, map[string]interface{}{
		"group": groupID,
		"user":  userID,
	})

	if groupType == model.GroupTypeParty {
		batch.Add(`
			UPDATE type::record($user) SET
				invitations.party = $invite,
				updated_on = time::now()
		`, map[string]interface{}{
			"user":   userID,
			"invite": inviteData,
		})
	} else {
		batch.Add(`
			UPDATE type::record($user) SET
				invitations.guilds += $invite,
				updated_on = time::now()
		`, map[string]interface{}{
			"user":   userID,
			"invite": inviteData,
		})
	}

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to add invite: %w", err)
	}
	return nil
}

// RemovePartyMembership removes a user from a party. The user is pulled
// from both the member and invite lists, and the user record's party
// status and pending party invitation are cleared. Both statements share
// variable names, so a TxBuilder keeps them apart.
func (r *GroupRepository) RemovePartyMembership(ctx context.Context, groupID, userID string) error {
	tx := database.NewTxBuilder()

	tx.Add(`
		UPDATE type::record($group) SET
			members -= $user,
			invites -= $user,
			updated_on = time::now()
	`, map[string]interface{}{
		"group": groupID,
		"user":  userID,
	})

	tx.Add(`
		UPDATE type::record($user) SET
			party = {},
			invitations.party = NONE,
			updated_on = time::now()
	`, map[string]interface{}{
		"user": userID,
	})

	if _, err := database.ExecuteTransaction(ctx, r.db, tx); err != nil {
		return fmt.Errorf("failed to remove party membership: %w", err)
	}
	return nil
}

// RemoveGuildMembership removes a user from a guild, mirroring the
// removal onto the user record
func (r *GroupRepository) RemoveGuildMembership(ctx context.Context, groupID, userID string) error {
	tx := database.NewTxBuilder()

	tx.Add(`
		UPDATE type::record($group) SET
			members -= $user,
			invites -= $user,
			updated_on = time::now()
	`, map[string]interface{}{
		"group": groupID,
		"user":  userID,
	})

	tx.Add(`
		UPDATE type::record($user) SET
			guilds -= $group,
			invitations.guilds = invitations.guilds[WHERE id != $group],
			updated_on = time::now()
	`, map[string]interface{}{
		"group": groupID,
		"user":  userID,
	})

	if _, err := database.ExecuteTransaction(ctx, r.db, tx); err != nil {
		return fmt.Errorf("failed to remove guild membership: %w", err)
	}
	return nil
}

// SetChat replaces the group's chat log
func (r *GroupRepository) SetChat(ctx context.Context, groupID string, chat []model.ChatMessage) error {
	if chat == nil {
		chat = []model.ChatMessage{}
	}

	// Round-trip through JSON so timestamps store as strings
	chatData, err := toJSONValue(chat)
	if err != nil {
		return fmt.Errorf("failed to encode chat: %w", err)
	}

	query := `UPDATE type::record($id) SET chat = $chat, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":   groupID,
		"chat": chatData,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to set chat: %w", err)
	}
	return nil
}

// extractCreatedGroup pulls the created record out of a CREATE result set
func extractCreatedGroup(results []interface{}) (*model.Group, error) {
	for _, res := range results {
		resMap, ok := res.(map[string]interface{})
		if !ok {
			continue
		}
		inner, ok := resMap["result"]
		if !ok {
			continue
		}

		switch v := inner.(type) {
		case []interface{}:
			if len(v) > 0 {
				if record, ok := v[0].(map[string]interface{}); ok {
					return parseGroupResult(record)
				}
			}
		case map[string]interface{}:
			return parseGroupResult(v)
		}
	}
	return nil, fmt.Errorf("create returned no record")
}

// parseGroupResults converts a query result set into groups
func parseGroupResults(results []interface{}) ([]*model.Group, error) {
	var groups []*model.Group

	for _, res := range results {
		resMap, ok := res.(map[string]interface{})
		if !ok {
			continue
		}
		records, ok := resMap["result"].([]interface{})
		if !ok {
			continue
		}
		for _, rec := range records {
			recMap, ok := rec.(map[string]interface{})
			if !ok {
				continue
			}
			group, err := parseGroupResult(recMap)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		}
	}

	return groups, nil
}

// parseGroupResult converts a raw record map into a Group
func parseGroupResult(data map[string]interface{}) (*model.Group, error) {
	if id, ok := data["id"]; ok {
		data["id"] = convertRecordID(id)
	}
	normalizeTimestamps(data, "created_on", "updated_on")

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal group data: %w", err)
	}

	var group model.Group
	if err := json.Unmarshal(raw, &group); err != nil {
		return nil, fmt.Errorf("failed to unmarshal group: %w", err)
	}

	if group.Members == nil {
		group.Members = []string{}
	}
	if group.Invites == nil {
		group.Invites = []string{}
	}
	if group.Chat == nil {
		group.Chat = []model.ChatMessage{}
	}
	if group.CreatedOn.IsZero() {
		group.CreatedOn = time.Now()
	}

	return &group, nil
}
