package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emberquest/api/internal/database"
	"github.com/emberquest/api/internal/model"
)

// UserRepository handles user persistence in SurrealDB
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.UserRoleUser
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			name: $name,
			hash: $hash,
			role: $role,
			balance: 0.0,
			party: {},
			guilds: [],
			invitations: { guilds: [] },
			contributor: { level: 0, admin: false },
			backer: { tier: 0, npc: "" },
			purchased: { ads: false },
			items: {},
			auth: { blocked: false },
			flags: { contributor: false },
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	hash := ""
	if user.Hash != nil {
		hash = *user.Hash
	}

	vars := map[string]interface{}{
		"email": user.Email,
		"name":  user.Name,
		"hash":  hash,
		"role":  string(role),
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already registered", database.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	created, err := extractCreatedUser(results)
	if err != nil {
		return err
	}

	*user = *created
	user.Hash = &hash
	return nil
}

// GetByID retrieves a user by record ID. Returns nil if not found.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::record($id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	resMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return parseUserResult(resMap)
}

// GetByEmail retrieves a user by email. Returns nil if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	vars := map[string]interface{}{"email": email}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	resMap, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return parseUserResult(resMap)
}

// GetByIDs retrieves multiple users by record ID. Missing records are
// skipped rather than reported, so the result may be shorter than the
// input. Order follows the input order.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		user, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user != nil {
			users = append(users, user)
		}
	}
	return users, nil
}

// UpdateBalance adds delta (which may be negative) to a user's balance
func (r *UserRepository) UpdateBalance(ctx context.Context, userID string, delta float64) error {
	query := `UPDATE type::record($id) SET balance += $delta, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":    userID,
		"delta": delta,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// SetParty records party membership on the user and clears any pending
// party invitation
func (r *UserRepository) SetParty(ctx context.Context, userID, groupID string) error {
	query := `
		UPDATE type::record($id) SET
			party.id = $group,
			invitations.party = NONE,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":    userID,
		"group": groupID,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to set party: %w", err)
	}
	return nil
}

// AddGuild appends a guild to the user's membership list and clears a
// matching pending invitation
func (r *UserRepository) AddGuild(ctx context.Context, userID, groupID string) error {
	query := `
		UPDATE type::record($id) SET
			guilds += $group,
			invitations.guilds = invitations.guilds[WHERE id != $group],
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"id":    userID,
		"group": groupID,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to add guild: %w", err)
	}
	return nil
}

// SetLastMessageSeen records the newest party chat message a user has seen
func (r *UserRepository) SetLastMessageSeen(ctx context.Context, userID, messageID string) error {
	query := `UPDATE type::record($id) SET party.last_message_seen = $message`
	vars := map[string]interface{}{
		"id":      userID,
		"message": messageID,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to set last message seen: %w", err)
	}
	return nil
}

// GetPatrons lists backers with a tier above zero, highest tier first,
// in fixed-size pages
func (r *UserRepository) GetPatrons(ctx context.Context, page int) ([]*model.User, error) {
	query := `
		SELECT * FROM user
		WHERE backer.tier > 0
		ORDER BY backer.tier DESC
		LIMIT $limit START $start
	`
	vars := map[string]interface{}{
		"limit": model.PatronsPerPage,
		"start": page * model.PatronsPerPage,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get patrons: %w", err)
	}

	return parseUserResults(results)
}

// GetHeroes lists contributors with a level above zero, highest level first
func (r *UserRepository) GetHeroes(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT * FROM user
		WHERE contributor.level > 0
		ORDER BY contributor.level DESC
	`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get heroes: %w", err)
	}

	return parseUserResults(results)
}

// UpdateHero merges the given field updates into a user record
func (r *UserRepository) UpdateHero(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	query := `UPDATE type::record($id) MERGE $data`
	vars := map[string]interface{}{
		"id":   userID,
		"data": updates,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to update hero: %w", err)
	}

	// updated_on is not part of the merge payload
	touch := `UPDATE type::record($id) SET updated_on = time::now()`
	if err := r.db.Execute(ctx, touch, map[string]interface{}{"id": userID}); err != nil {
		return fmt.Errorf("failed to touch hero: %w", err)
	}
	return nil
}

// extractCreatedUser pulls the created record out of a CREATE result set
func extractCreatedUser(results []interface{}) (*model.User, error) {
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
					return parseUserResult(record)
				}
			}
		case map[string]interface{}:
			return parseUserResult(v)
		}
	}
	return nil, fmt.Errorf("create returned no record")
}

// parseUserResults converts a query result set into users
func parseUserResults(results []interface{}) ([]*model.User, error) {
	var users []*model.User

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
			user, err := parseUserResult(recMap)
			if err != nil {
				return nil, err
			}
			users = append(users, user)
		}
	}

	return users, nil
}

// parseUserResult converts a raw record map into a User. The password
// hash is carried out of band because the model never serializes it.
func parseUserResult(data map[string]interface{}) (*model.User, error) {
	if id, ok := data["id"]; ok {
		data["id"] = convertRecordID(id)
	}
	normalizeTimestamps(data, "created_on", "updated_on")

	var hash string
	if h, ok := data["hash"].(string); ok {
		hash = h
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user data: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	if hash != "" {
		user.Hash = &hash
	}
	if user.CreatedOn.IsZero() {
		user.CreatedOn = time.Now()
	}

	return &user, nil
}
