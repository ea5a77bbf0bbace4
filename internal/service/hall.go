package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emberquest/api/internal/model"
)

// HallUserRepository defines the user storage the hall service needs
type HallUserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetPatrons(ctx context.Context, page int) ([]*model.User, error)
	GetHeroes(ctx context.Context) ([]*model.User, error)
	UpdateHero(ctx context.Context, userID string, updates map[string]interface{}) error
}

// HallService handles the public hall of fame listings and the
// administrative hero record updates behind them.
type HallService struct {
	userRepo HallUserRepository
	logger   *slog.Logger
}

// HallServiceConfig holds configuration for the hall service
type HallServiceConfig struct {
	UserRepo HallUserRepository
	Logger   *slog.Logger
}

// NewHallService creates a new hall service
func NewHallService(cfg HallServiceConfig) *HallService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HallService{
		userRepo: cfg.UserRepo,
		logger:   logger,
	}
}

// GetPatrons lists backers by tier, highest first, in fixed-size pages.
// Negative pages read as page zero.
func (s *HallService) GetPatrons(ctx context.Context, page int) ([]model.PatronEntry, error) {
	if page < 0 {
		page = 0
	}

	users, err := s.userRepo.GetPatrons(ctx, page)
	if err != nil {
		return nil, err
	}

	patrons := make([]model.PatronEntry, 0, len(users))
	for _, user := range users {
		patrons = append(patrons, model.PatronEntry{
			ID:     user.ID,
			Name:   user.Name,
			Backer: user.Backer,
		})
	}
	return patrons, nil
}

// GetHeroes lists contributors by level, highest first
func (s *HallService) GetHeroes(ctx context.Context) ([]model.HeroEntry, error) {
	users, err := s.userRepo.GetHeroes(ctx)
	if err != nil {
		return nil, err
	}

	heroes := make([]model.HeroEntry, 0, len(users))
	for _, user := range users {
		heroes = append(heroes, model.HeroEntry{
			ID:          user.ID,
			Name:        user.Name,
			Contributor: user.Contributor,
		})
	}
	return heroes, nil
}

// GetHero returns the administrative projection of a single user
func (s *HallService) GetHero(ctx context.Context, heroID string) (*model.Hero, error) {
	user, err := s.userRepo.GetByID(ctx, heroID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hero: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.HeroProjection(), nil
}

// UpdateHero applies an administrative update to a user record.
// Contributor changes merge onto the stored record field by field.
// Raising the contributor tier pays out the gem reward for every tier
// climbed and marks the contributor flag; crossing the pet tier grants
// the hydra pet. Item grants are restricted to a fixed set of
// inventory paths, and account blocking only accepts a boolean.
func (s *HallService) UpdateHero(ctx context.Context, heroID string, req *model.UpdateHeroRequest) (*model.Hero, error) {
	user, err := s.userRepo.GetByID(ctx, heroID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hero: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	updates := make(map[string]interface{})

	balance := user.Balance
	if req.Balance != nil {
		balance = *req.Balance
		updates["balance"] = balance
	}

	if req.Contributor != nil {
		if req.Contributor.Level != nil {
			oldTier := user.Contributor.Level
			newTier := *req.Contributor.Level
			if newTier < 0 || newTier > model.MaxContributorTier {
				return nil, ErrInvalidTier
			}

			if newTier > oldTier {
				reward := model.TierBalanceReward(oldTier, newTier)
				if reward > 0 {
					balance += reward
					updates["balance"] = balance
				}
				updates["flags"] = map[string]interface{}{"contributor": true}
				user.Flags.Contributor = true

				if newTier >= model.HydraPetTier && oldTier < model.HydraPetTier {
					user.Items = model.SetItemPath(user.Items, "items.pets."+model.HydraPetKey, model.HydraPetValue)
					updates["items"] = user.Items
				}
			}

			user.Contributor.Level = newTier
		}
		if req.Contributor.Admin != nil {
			user.Contributor.Admin = *req.Contributor.Admin
		}
		if req.Contributor.Text != nil {
			user.Contributor.Text = *req.Contributor.Text
		}
		if req.Contributor.Contributions != nil {
			user.Contributor.Contributions = *req.Contributor.Contributions
		}

		// Write the merged record so omitted sub-fields survive
		updates["contributor"] = map[string]interface{}{
			"level":         user.Contributor.Level,
			"admin":         user.Contributor.Admin,
			"text":          user.Contributor.Text,
			"contributions": user.Contributor.Contributions,
		}
	}

	if req.Purchased != nil && req.Purchased.Ads != nil {
		user.Purchased.Ads = *req.Purchased.Ads
		updates["purchased"] = map[string]interface{}{"ads": *req.Purchased.Ads}
	}

	if req.ItemPath != "" {
		if !model.IsHeroItemPath(req.ItemPath) {
			return nil, ErrInvalidItemPath
		}
		user.Items = model.SetItemPath(user.Items, req.ItemPath, req.ItemVal)
		updates["items"] = user.Items
	}

	if req.Auth != nil && req.Auth.Blocked != nil {
		user.Auth.Blocked = *req.Auth.Blocked
		updates["auth"] = map[string]interface{}{"blocked": *req.Auth.Blocked}
	}

	user.Balance = balance

	if err := s.userRepo.UpdateHero(ctx, heroID, updates); err != nil {
		return nil, err
	}

	s.logger.Info("hero record updated",
		"hero_id", heroID,
		"fields", len(updates))

	return user.HeroProjection(), nil
}
