package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"hustler/config"
	"hustler/events"
	"hustler/models"

	log "github.com/sirupsen/logrus"
)

const (
	// Work pay is scaled by a uniform draw from [minPayVariance, maxPayVariance)
	minPayVariance = 0.8
	maxPayVariance = 1.2

	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 25
)

type economyService struct {
	uowFactory        UnitOfWorkFactory
	ladder            *models.CareerLadder
	rng               models.RandomSource
	workCooldown      time.Duration
	rollCooldown      time.Duration
	advancementChance float64
}

// NewEconomyService creates a new economy service
func NewEconomyService(uowFactory UnitOfWorkFactory, cfg *config.Config, rng models.RandomSource) EconomyService {
	return &economyService{
		uowFactory:        uowFactory,
		ladder:            cfg.Careers,
		rng:               rng,
		workCooldown:      cfg.WorkCooldown,
		rollCooldown:      cfg.RollCooldown,
		advancementChance: cfg.CareerAdvancementChance,
	}
}

func (s *economyService) Work(ctx context.Context, discordID int64, now time.Time) (*models.WorkResult, error) {
	var result *models.WorkResult

	err := inUnitOfWork(ctx, s.uowFactory, "work", func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetOrCreate(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		tier, err := s.ladder.Get(user.Career)
		if err != nil {
			return err
		}

		if remaining := cooldownRemaining(user.LastWorkTime, s.workCooldown, now); remaining > 0 {
			result = &models.WorkResult{
				Status:     models.WorkStatusOnCooldown,
				Career:     tier,
				NewBalance: user.Money,
				Remaining:  remaining,
			}
			return nil
		}

		earnings := s.rollEarnings(tier)
		lastWork := user.LastWorkTime
		nowUnix := now.Unix()

		updated, err := applyMoneyChange(ctx, uow, discordID, models.UserUpdate{
			MoneyDelta:         earnings,
			LastWorkTime:       &nowUnix,
			ExpectLastWorkTime: &lastWork,
		}, models.TransactionTypeWork, map[string]any{
			"career": tier.ID,
		})
		if err != nil {
			return fmt.Errorf("failed to pay for work: %w", err)
		}

		result = &models.WorkResult{
			Status:     models.WorkStatusWorked,
			Career:     tier,
			Earnings:   earnings,
			NewBalance: updated.Money,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == models.WorkStatusWorked {
		log.WithFields(log.Fields{
			"user_id":  discordID,
			"career":   result.Career.ID,
			"earnings": result.Earnings,
			"balance":  result.NewBalance,
		}).Info("User worked")
	}

	return result, nil
}

// rollEarnings draws floor(basePay * payMultiplier * U), U uniform in [0.8, 1.2)
func (s *economyService) rollEarnings(tier models.CareerTier) int64 {
	variance := minPayVariance + (maxPayVariance-minPayVariance)*s.rng.Float64()
	return int64(math.Floor(float64(tier.BasePay) * tier.PayMultiplier * variance))
}

func (s *economyService) RollCareer(ctx context.Context, discordID int64, now time.Time) (*models.CareerRollResult, error) {
	var result *models.CareerRollResult

	err := inUnitOfWork(ctx, s.uowFactory, "roll_career", func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetOrCreate(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		current, err := s.ladder.Get(user.Career)
		if err != nil {
			return err
		}

		// A maxed career never consumes the cooldown
		next, ok, err := s.ladder.Next(current.ID)
		if err != nil {
			return err
		}
		if !ok {
			result = &models.CareerRollResult{Status: models.CareerRollAlreadyMaxed, From: current}
			return nil
		}

		if remaining := cooldownRemaining(user.LastCareerRollTime, s.rollCooldown, now); remaining > 0 {
			result = &models.CareerRollResult{
				Status:    models.CareerRollOnCooldown,
				From:      current,
				Remaining: remaining,
			}
			return nil
		}

		lastRoll := user.LastCareerRollTime
		nowUnix := now.Unix()
		update := models.UserUpdate{
			LastCareerRollTime:       &nowUnix,
			ExpectLastCareerRollTime: &lastRoll,
		}

		promoted := s.rng.Float64() < s.advancementChance
		if promoted {
			update.Career = &next.ID
		}

		if _, err := uow.UserRepository().Update(ctx, discordID, update); err != nil {
			return fmt.Errorf("failed to record career roll: %w", err)
		}

		if promoted {
			uow.EventBus().Publish(events.CareerPromotedEvent{
				UserID: discordID,
				From:   current.ID,
				To:     next.ID,
			})
			result = &models.CareerRollResult{Status: models.CareerRollPromoted, From: current, To: next}
		} else {
			result = &models.CareerRollResult{Status: models.CareerRollFailed, From: current}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": discordID,
		"status":  result.Status,
		"from":    result.From.ID,
		"to":      result.To.ID,
	}).Debug("Career roll")

	return result, nil
}

func (s *economyService) ViewCareer(ctx context.Context, discordID int64, now time.Time) (*models.CareerView, error) {
	user, err := s.getOrCreate(ctx, discordID)
	if err != nil {
		return nil, err
	}

	index, err := s.ladder.IndexOf(user.Career)
	if err != nil {
		return nil, err
	}
	tier, _ := s.ladder.TierAt(index)

	view := &models.CareerView{
		Career:          tier,
		WorkAvailableIn: cooldownRemaining(user.LastWorkTime, s.workCooldown, now),
		LadderPosition:  index + 1,
		LadderSize:      s.ladder.Len(),
	}

	if next, ok, _ := s.ladder.Next(tier.ID); ok {
		view.Next = &next
		view.RollAvailableIn = cooldownRemaining(user.LastCareerRollTime, s.rollCooldown, now)
		view.AdvancementOdds = s.advancementChance
	}

	return view, nil
}

func (s *economyService) ViewBalance(ctx context.Context, discordID int64) (*models.BalanceView, error) {
	user, err := s.getOrCreate(ctx, discordID)
	if err != nil {
		return nil, err
	}
	return &models.BalanceView{DiscordID: user.DiscordID, Money: user.Money}, nil
}

func (s *economyService) ViewRank(ctx context.Context, discordID int64) (*models.RankView, error) {
	var view *models.RankView

	err := inUnitOfWork(ctx, s.uowFactory, "view_rank", func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetOrCreate(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		index, err := s.ladder.IndexOf(user.Career)
		if err != nil {
			return err
		}
		tier, _ := s.ladder.TierAt(index)

		richer, err := uow.UserRepository().CountRicherThan(ctx, user.Money)
		if err != nil {
			return fmt.Errorf("failed to rank user: %w", err)
		}

		view = &models.RankView{
			Career:         tier,
			LadderPosition: index + 1,
			LadderSize:     s.ladder.Len(),
			WealthRank:     richer + 1,
			Money:          user.Money,
		}
		if next, ok, _ := s.ladder.Next(tier.ID); ok {
			view.Next = &next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *economyService) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	var entries []*models.LeaderboardEntry
	err := inUnitOfWork(ctx, s.uowFactory, "leaderboard", func(uow UnitOfWork) error {
		users, err := uow.UserRepository().GetTop(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to get top users: %w", err)
		}

		entries = make([]*models.LeaderboardEntry, 0, len(users))
		for i, user := range users {
			entries = append(entries, &models.LeaderboardEntry{
				Rank:      i + 1,
				DiscordID: user.DiscordID,
				Money:     user.Money,
				Career:    user.Career,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *economyService) getOrCreate(ctx context.Context, discordID int64) (*models.User, error) {
	var user *models.User
	err := inUnitOfWork(ctx, s.uowFactory, "get_user", func(uow UnitOfWork) error {
		var err error
		user, err = uow.UserRepository().GetOrCreate(ctx, discordID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		return nil
	})
	return user, err
}
