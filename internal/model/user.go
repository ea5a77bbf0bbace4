package model

import "time"

// UserRole represents a user's account role
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User represents a player account
type User struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`

	// Hash is the bcrypt password hash. Never serialized in responses.
	Hash *string `json:"-"`

	// Balance is the premium currency balance. One unit of balance
	// equals four gems.
	Balance float64 `json:"balance"`

	Party       PartyStatus `json:"party"`
	Guilds      []string    `json:"guilds"`
	Invitations Invitations `json:"invitations"`

	Contributor Contributor            `json:"contributor"`
	Backer      Backer                 `json:"backer"`
	Purchased   Purchased              `json:"purchased"`
	Items       map[string]interface{} `json:"items,omitempty"`
	Auth        AuthStatus             `json:"auth"`
	Flags       Flags                  `json:"flags"`

	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// IsAdmin reports whether the user may perform administrative operations.
// Both the account role and a contributor admin grant qualify.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin || u.Contributor.Admin
}

// InParty reports whether the user currently belongs to a party
func (u *User) InParty() bool {
	return u.Party.ID != ""
}

// InGuild reports whether the user is a member of the given guild
func (u *User) InGuild(guildID string) bool {
	for _, g := range u.Guilds {
		if g == guildID {
			return true
		}
	}
	return false
}

// HasGuildInvitation reports whether the user holds a pending invitation
// to the given guild
func (u *User) HasGuildInvitation(guildID string) bool {
	for _, inv := range u.Invitations.Guilds {
		if inv.ID == guildID {
			return true
		}
	}
	return false
}

// PartyStatus tracks the user's current party membership
type PartyStatus struct {
	ID string `json:"id,omitempty"`
	// LastMessageSeen holds the ID of the newest party chat message the
	// user has read. Updated best-effort when the user posts or reads chat.
	LastMessageSeen string `json:"last_message_seen,omitempty"`
}

// Invitations holds pending group invitations. A user can hold at most
// one party invitation at a time but any number of guild invitations.
type Invitations struct {
	Party  *GroupInvite  `json:"party,omitempty"`
	Guilds []GroupInvite `json:"guilds"`
}

// GroupInvite is a pending invitation to a group
type GroupInvite struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Inviter string `json:"inviter,omitempty"`
}

// Contributor holds open-source contributor standing
type Contributor struct {
	Level         int    `json:"level,omitempty"`
	Admin         bool   `json:"admin,omitempty"`
	Text          string `json:"text,omitempty"`
	Contributions string `json:"contributions,omitempty"`
}

// Backer holds kickstarter patron standing
type Backer struct {
	Tier int    `json:"tier,omitempty"`
	NPC  string `json:"npc,omitempty"`
}

// Purchased tracks one-off purchases and grants
type Purchased struct {
	Ads bool `json:"ads"`
}

// AuthStatus holds account access flags
type AuthStatus struct {
	Blocked bool `json:"blocked"`
}

// Flags holds one-way feature flags on the account
type Flags struct {
	Contributor bool `json:"contributor"`
}

// UserSummary is the public projection of a user embedded in group
// member and invite listings
type UserSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Contributor Contributor `json:"contributor"`
	Backer      Backer      `json:"backer"`
}

// Summary returns the public projection of the user
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Name:        u.Name,
		Contributor: u.Contributor,
		Backer:      u.Backer,
	}
}
