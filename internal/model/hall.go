package model

import "strings"

// PatronsPerPage is the page size for the patrons listing
const PatronsPerPage = 50

// MaxContributorTier is the highest grantable contributor tier
const MaxContributorTier = 9

// gemsPerTier maps a contributor tier to the gems awarded when that
// tier is first reached. Tiers 8 (moderator) and 9 (staff) award none.
var gemsPerTier = map[int]float64{
	1: 3, 2: 3, 3: 3, 4: 4, 5: 4, 6: 4, 7: 4, 8: 0, 9: 0,
}

// TierBalanceReward returns the balance credited for climbing from
// oldTier to newTier. Each intermediate tier pays out once; four gems
// make one unit of balance.
func TierBalanceReward(oldTier, newTier int) float64 {
	var total float64
	for tier := oldTier + 1; tier <= newTier; tier++ {
		total += gemsPerTier[tier] / 4
	}
	return total
}

// HydraPetTier is the contributor tier that unlocks the Hydra pet
const HydraPetTier = 6

// HydraPetKey is the item key for the contributor-exclusive pet
const HydraPetKey = "Dragon-Hydra"

// HydraPetValue is the stored growth value of a freshly granted Hydra pet
const HydraPetValue = 5

// Hero is the admin projection of a user record. Only these fields are
// ever returned from hero lookups, regardless of what the stored
// document contains.
type Hero struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Balance     float64                `json:"balance"`
	Contributor Contributor            `json:"contributor"`
	Purchased   Purchased              `json:"purchased"`
	Items       map[string]interface{} `json:"items"`
	Auth        AuthStatus             `json:"auth"`
	Flags       Flags                  `json:"flags"`
}

// HeroProjection builds the admin view of a user
func (u *User) HeroProjection() *Hero {
	return &Hero{
		ID:          u.ID,
		Name:        u.Name,
		Balance:     u.Balance,
		Contributor: u.Contributor,
		Purchased:   u.Purchased,
		Items:       u.Items,
		Auth:        u.Auth,
		Flags:       u.Flags,
	}
}

// PatronEntry is the public projection of a patron in the hall
type PatronEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Backer Backer `json:"backer"`
}

// HeroEntry is the public projection of a contributor in the hall
type HeroEntry struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Contributor Contributor `json:"contributor"`
}

// UpdateHeroRequest is the admin payload for changing a hero record.
// Nil fields are left untouched.
type UpdateHeroRequest struct {
	Balance     *float64          `json:"balance,omitempty"`
	Contributor *ContributorPatch `json:"contributor,omitempty"`
	Purchased   *PurchasedUpdate  `json:"purchased,omitempty"`
	ItemPath    string            `json:"item_path,omitempty"`
	ItemVal     interface{}       `json:"item_val,omitempty"`
	Auth        *AuthStatusUpdate `json:"auth,omitempty"`
}

// ContributorPatch carries optional contributor sub-field changes.
// Fields left nil keep their stored values.
type ContributorPatch struct {
	Level         *int    `json:"level,omitempty"`
	Admin         *bool   `json:"admin,omitempty"`
	Text          *string `json:"text,omitempty"`
	Contributions *string `json:"contributions,omitempty"`
}

// PurchasedUpdate carries optional purchase grants
type PurchasedUpdate struct {
	Ads *bool `json:"ads,omitempty"`
}

// AuthStatusUpdate carries optional access flag changes. Only the
// blocked boolean can be toggled through the hall.
type AuthStatusUpdate struct {
	Blocked *bool `json:"blocked,omitempty"`
}

// heroItemPathPrefixes is the fixed whitelist of item document paths an
// admin may write through UpdateHero. Anything outside these prefixes
// is rejected.
var heroItemPathPrefixes = []string{
	"items.gear.owned.",
	"items.pets.",
	"items.mounts.",
	"items.eggs.",
	"items.food.",
	"items.hatchingPotions.",
	"items.quests.",
	"items.special.",
}

// IsHeroItemPath reports whether the given path may be written through
// the hall item grant mechanism
func IsHeroItemPath(path string) bool {
	for _, prefix := range heroItemPathPrefixes {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return true
		}
	}
	return false
}

// SetItemPath writes val at the dotted path inside the items document,
// creating intermediate maps as needed. The path must include the
// leading "items." segment, which is stripped before descending.
func SetItemPath(items map[string]interface{}, path string, val interface{}) map[string]interface{} {
	if items == nil {
		items = make(map[string]interface{})
	}

	segments := strings.Split(strings.TrimPrefix(path, "items."), ".")
	node := items
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = val

	return items
}
