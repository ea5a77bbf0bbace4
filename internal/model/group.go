package model

import (
	"strings"
	"time"
)

// GroupType classifies a group
type GroupType string

const (
	GroupTypeParty  GroupType = "party"
	GroupTypeGuild  GroupType = "guild"
	GroupTypeTavern GroupType = "tavern"
)

// GroupPrivacy controls who can see and join a guild
type GroupPrivacy string

const (
	GroupPrivacyPrivate GroupPrivacy = "private"
	GroupPrivacyPublic  GroupPrivacy = "public"
)

// TavernID is the well-known record ID of the single tavern group.
// Every user is implicitly a member of the tavern.
const TavernID = "group:tavern"

// MaxChatMessages is the maximum number of messages retained per group.
// Older messages are dropped when new ones arrive.
const MaxChatMessages = 200

// GuildCreationCost is the balance debited when creating a guild
// (one balance unit, i.e. four gems). The debited amount is credited
// to the new guild's bank.
const GuildCreationCost = 1.0

const (
	MaxGroupNameLength        = 100
	MaxGroupDescriptionLength = 5000
	MaxChatMessageLength      = 3000
)

// Group represents a party, guild, or the tavern
type Group struct {
	ID            string       `json:"id"`
	Type          GroupType    `json:"type"`
	Privacy       GroupPrivacy `json:"privacy"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Logo          string       `json:"logo,omitempty"`
	Websites      []string     `json:"websites,omitempty"`
	LeaderMessage string       `json:"leader_message,omitempty"`
	Leader        string       `json:"leader"`

	// Members and Invites are disjoint: accepting an invitation moves
	// the user from one set to the other in a single update.
	Members []string `json:"members"`
	Invites []string `json:"invites"`

	Chat    []ChatMessage `json:"chat"`
	Balance float64       `json:"balance"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// HasMember reports whether the user is in the group's member set
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// HasInvite reports whether the user is in the group's invite set
func (g *Group) HasInvite(userID string) bool {
	for _, i := range g.Invites {
		if i == userID {
			return true
		}
	}
	return false
}

// IsTavern reports whether this is the tavern group
func (g *Group) IsTavern() bool {
	return g.Type == GroupTypeTavern || g.ID == TavernID
}

// Summary returns the list projection of the group. Chat and the raw
// member ID sets are omitted.
func (g *Group) Summary() GroupSummary {
	return GroupSummary{
		ID:          g.ID,
		Type:        g.Type,
		Privacy:     g.Privacy,
		Name:        g.Name,
		Description: g.Description,
		Logo:        g.Logo,
		Leader:      g.Leader,
		MemberCount: len(g.Members),
		Balance:     g.Balance,
	}
}

// ChatMessage is a single group chat entry. Messages are ordered
// newest-first in Group.Chat.
type ChatMessage struct {
	ID string `json:"id"`
	// UserID is the author's record ID; empty for system messages
	UserID string `json:"user_id,omitempty"`
	// User is the author's display name at post time
	User        string      `json:"user,omitempty"`
	Contributor Contributor `json:"contributor,omitempty"`
	Backer      Backer      `json:"backer,omitempty"`
	Text        string      `json:"text"`
	Timestamp   time.Time   `json:"timestamp"`
}

// GroupSummary is the projection of a group used in list responses.
// IsMember marks whether the caller belongs to the group, so public
// guild listings can show join state without exposing member lists.
type GroupSummary struct {
	ID          string       `json:"id"`
	Type        GroupType    `json:"type"`
	Privacy     GroupPrivacy `json:"privacy"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Logo        string       `json:"logo,omitempty"`
	Leader      string       `json:"leader"`
	MemberCount int          `json:"member_count"`
	Balance     float64      `json:"balance"`
	IsMember    bool         `json:"is_member"`
}

// PopulatedGroup is a group with member and invite ID sets expanded
// into user summaries for detail responses
type PopulatedGroup struct {
	ID            string        `json:"id"`
	Type          GroupType     `json:"type"`
	Privacy       GroupPrivacy  `json:"privacy"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Logo          string        `json:"logo,omitempty"`
	Websites      []string      `json:"websites,omitempty"`
	LeaderMessage string        `json:"leader_message,omitempty"`
	Leader        string        `json:"leader"`
	MemberCount   int           `json:"member_count"`
	Members       []UserSummary `json:"members"`
	Invites       []UserSummary `json:"invites"`
	Chat          []ChatMessage `json:"chat"`
	Balance       float64       `json:"balance"`
	CreatedOn     time.Time     `json:"created_on"`
	UpdatedOn     time.Time     `json:"updated_on"`
}

// CreateGroupRequest is the payload for creating a group
type CreateGroupRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Privacy       string `json:"privacy,omitempty"`
	Description   string `json:"description,omitempty"`
	Logo          string `json:"logo,omitempty"`
	LeaderMessage string `json:"leader_message,omitempty"`
}

// Validate checks the request fields
func (r *CreateGroupRequest) Validate() []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(r.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > MaxGroupNameLength {
		errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
	}

	switch GroupType(r.Type) {
	case GroupTypeParty, GroupTypeGuild:
	case GroupTypeTavern:
		errs = append(errs, FieldError{Field: "type", Message: "tavern cannot be created"})
	default:
		errs = append(errs, FieldError{Field: "type", Message: "type must be 'party' or 'guild'"})
	}

	if r.Privacy != "" {
		switch GroupPrivacy(r.Privacy) {
		case GroupPrivacyPrivate, GroupPrivacyPublic:
		default:
			errs = append(errs, FieldError{Field: "privacy", Message: "privacy must be 'private' or 'public'"})
		}
	}

	if len(r.Description) > MaxGroupDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description exceeds maximum length"})
	}

	return errs
}

// UpdateGroupRequest is the payload for updating group details.
// Only the fields present are changed; type and privacy are immutable.
type UpdateGroupRequest struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Logo          *string   `json:"logo,omitempty"`
	Websites      *[]string `json:"websites,omitempty"`
	LeaderMessage *string   `json:"leader_message,omitempty"`
	Leader        *string   `json:"leader,omitempty"`
}

// Validate checks the request fields
func (r *UpdateGroupRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			errs = append(errs, FieldError{Field: "name", Message: "name cannot be empty"})
		} else if len(name) > MaxGroupNameLength {
			errs = append(errs, FieldError{Field: "name", Message: "name exceeds maximum length"})
		}
	}
	if r.Description != nil && len(*r.Description) > MaxGroupDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "description exceeds maximum length"})
	}

	return errs
}

// InviteRequest is the payload for inviting users to a group
type InviteRequest struct {
	UUIDs []string `json:"uuids"`
}

// Validate checks the request fields
func (r *InviteRequest) Validate() []FieldError {
	var errs []FieldError
	if len(r.UUIDs) == 0 {
		errs = append(errs, FieldError{Field: "uuids", Message: "at least one user ID is required"})
	}
	return errs
}

// PostChatRequest is the payload for posting a chat message
type PostChatRequest struct {
	Message string `json:"message"`
}

// Validate checks the request fields
func (r *PostChatRequest) Validate() []FieldError {
	var errs []FieldError
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		errs = append(errs, FieldError{Field: "message", Message: "message is required"})
	} else if len(msg) > MaxChatMessageLength {
		errs = append(errs, FieldError{Field: "message", Message: "message exceeds maximum length"})
	}
	return errs
}
