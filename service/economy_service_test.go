package service

import (
	"context"
	"testing"
	"time"

	"hustler/config"
	"hustler/events"
	"hustler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type economyMocks struct {
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	userRepo    *MockUserRepository
	historyRepo *MockBalanceHistoryRepository
	publisher   *MockEventPublisher
}

func newEconomyMocks() *economyMocks {
	m := &economyMocks{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		userRepo:    new(MockUserRepository),
		historyRepo: new(MockBalanceHistoryRepository),
		publisher:   new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.userRepo, m.historyRepo, m.publisher)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func (m *economyMocks) assertExpectations(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
	m.historyRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestEconomyService_Work_Pays(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := newEconomyMocks()
	svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand(0.5))

	user := &models.User{DiscordID: testUserID, Money: 100, Career: "homeless"}
	m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)
	m.userRepo.On("Update", ctx, testUserID, models.UserUpdate{
		MoneyDelta:         25, // floor(50 * 0.5 * 1.0)
		LastWorkTime:       int64Ptr(now.Unix()),
		ExpectLastWorkTime: int64Ptr(0),
	}).Return(&models.User{DiscordID: testUserID, Money: 125, Career: "homeless", LastWorkTime: now.Unix()}, nil)
	m.historyRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.DiscordID == testUserID &&
			h.BalanceBefore == 100 &&
			h.BalanceAfter == 125 &&
			h.ChangeAmount == 25 &&
			h.TransactionType == models.TransactionTypeWork &&
			h.TransactionMetadata["career"] == "homeless"
	})).Return(nil)
	m.publisher.On("Publish", events.BalanceChangeEvent{
		UserID:          testUserID,
		OldBalance:      100,
		NewBalance:      125,
		TransactionType: models.TransactionTypeWork,
		ChangeAmount:    25,
	}).Return()

	result, err := svc.Work(ctx, testUserID, now)

	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusWorked, result.Status)
	assert.Equal(t, int64(25), result.Earnings)
	assert.Equal(t, int64(125), result.NewBalance)
	assert.Equal(t, "homeless", result.Career.ID)
	m.assertExpectations(t)
}

func TestEconomyService_Work_OnCooldownDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := newEconomyMocks()
	svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand())

	user := &models.User{DiscordID: testUserID, Money: 100, Career: "maid", LastWorkTime: now.Unix() - 600}
	m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)

	result, err := svc.Work(ctx, testUserID, now)

	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusOnCooldown, result.Status)
	assert.Equal(t, 50*time.Minute, result.Remaining)
	assert.Equal(t, int64(100), result.NewBalance)
	m.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	m.historyRepo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestEconomyService_Work_EarningsRange(t *testing.T) {
	ladder := models.DefaultCareerLadder()
	tests := []struct {
		career string
		draw   float64
		want   int64
	}{
		{"homeless", 0, 20},       // 50 * 0.5 * 0.8
		{"homeless", 0.99999, 29}, // just under 50 * 0.5 * 1.2
		{"minor", 0.5, 50},
		{"doctor", 0, 80},
		{"doctor", 0.99999, 119},
	}

	for _, tt := range tests {
		tier, err := ladder.Get(tt.career)
		require.NoError(t, err)

		svc := &economyService{rng: newFixedRand(tt.draw)}
		assert.Equal(t, tt.want, svc.rollEarnings(tier), "%s at %v", tt.career, tt.draw)
	}
}

func TestEconomyService_Work_RetriesWhenLedgerUnavailable(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ledger := newMemoryLedger().withUser(testUserID, 0, "homeless")
	ledger.failUpdates = 1
	svc := NewEconomyService(ledger, config.NewTestConfig(), newFixedRand(0.5, 0.5))

	result, err := svc.Work(ctx, testUserID, now)

	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusWorked, result.Status)
	assert.Equal(t, int64(25), ledger.money(testUserID))
	assert.Len(t, ledger.historyFor(testUserID), 1)
}

func TestEconomyService_Work_CreatesUserOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ledger := newMemoryLedger()
	svc := NewEconomyService(ledger, config.NewTestConfig(), newFixedRand(0.5))

	result, err := svc.Work(ctx, testUserID, now)
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusWorked, result.Status)

	second, err := svc.Work(ctx, testUserID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.WorkStatusOnCooldown, second.Status)
	assert.Equal(t, 59*time.Minute, second.Remaining)
	assert.Equal(t, result.NewBalance, ledger.money(testUserID))
}

func TestEconomyService_RollCareer(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	t.Run("terminal tier returns already maxed without mutation", func(t *testing.T) {
		m := newEconomyMocks()
		svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand(0))
		user := &models.User{DiscordID: testUserID, Career: "doctor", LastCareerRollTime: now.Unix()}
		m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)

		result, err := svc.RollCareer(ctx, testUserID, now)

		require.NoError(t, err)
		assert.Equal(t, models.CareerRollAlreadyMaxed, result.Status)
		assert.Equal(t, "doctor", result.From.ID)
		m.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("on cooldown", func(t *testing.T) {
		m := newEconomyMocks()
		svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand(0))
		user := &models.User{DiscordID: testUserID, Career: "homeless", LastCareerRollTime: now.Unix() - 3600}
		m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)

		result, err := svc.RollCareer(ctx, testUserID, now)

		require.NoError(t, err)
		assert.Equal(t, models.CareerRollOnCooldown, result.Status)
		assert.Equal(t, 23*time.Hour, result.Remaining)
		m.userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("promoted", func(t *testing.T) {
		m := newEconomyMocks()
		svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand(0.05))
		user := &models.User{DiscordID: testUserID, Career: "homeless"}
		m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)
		maid := "maid"
		m.userRepo.On("Update", ctx, testUserID, models.UserUpdate{
			Career:                   &maid,
			LastCareerRollTime:       int64Ptr(now.Unix()),
			ExpectLastCareerRollTime: int64Ptr(0),
		}).Return(&models.User{DiscordID: testUserID, Career: "maid", LastCareerRollTime: now.Unix()}, nil)
		m.publisher.On("Publish", events.CareerPromotedEvent{UserID: testUserID, From: "homeless", To: "maid"}).Return()

		result, err := svc.RollCareer(ctx, testUserID, now)

		require.NoError(t, err)
		assert.Equal(t, models.CareerRollPromoted, result.Status)
		assert.Equal(t, "homeless", result.From.ID)
		assert.Equal(t, "maid", result.To.ID)
		m.assertExpectations(t)
	})

	t.Run("failed roll still consumes the cooldown", func(t *testing.T) {
		m := newEconomyMocks()
		svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand(0.5))
		user := &models.User{DiscordID: testUserID, Career: "farmer", LastCareerRollTime: now.Unix() - 86400}
		m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)
		m.userRepo.On("Update", ctx, testUserID, models.UserUpdate{
			LastCareerRollTime:       int64Ptr(now.Unix()),
			ExpectLastCareerRollTime: int64Ptr(now.Unix() - 86400),
		}).Return(&models.User{DiscordID: testUserID, Career: "farmer", LastCareerRollTime: now.Unix()}, nil)

		result, err := svc.RollCareer(ctx, testUserID, now)

		require.NoError(t, err)
		assert.Equal(t, models.CareerRollFailed, result.Status)
		assert.Equal(t, "farmer", result.From.ID)
		m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("unknown career is reported", func(t *testing.T) {
		m := newEconomyMocks()
		svc := NewEconomyService(m.factory, config.NewTestConfig(), newFixedRand(0.5))
		user := &models.User{DiscordID: testUserID, Career: "astronaut"}
		m.userRepo.On("GetOrCreate", ctx, testUserID).Return(user, nil)

		result, err := svc.RollCareer(ctx, testUserID, now)

		assert.Nil(t, result)
		assert.ErrorIs(t, err, models.ErrUnknownTier)
	})
}

func TestEconomyService_RollCareer_LostRaceSeesCooldown(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ledger := newMemoryLedger().withUser(testUserID, 0, "homeless")
	svc := NewEconomyService(ledger, config.NewTestConfig(), newFixedRand(0.5))

	// Another worker rolls between our read and our write
	ledger.beforeNext = func() {
		racer := memoryUserRepository{ledger: ledger}
		_, err := racer.Update(ctx, testUserID, models.UserUpdate{LastCareerRollTime: int64Ptr(now.Unix())})
		require.NoError(t, err)
	}

	result, err := svc.RollCareer(ctx, testUserID, now)

	require.NoError(t, err)
	assert.Equal(t, models.CareerRollOnCooldown, result.Status)
}

func TestEconomyService_Views(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ledger := newMemoryLedger().
		withUser(1, 500, "homeless").
		withUser(2, 300, "doctor").
		withUser(3, 900, "maid")
	ledger.users[1].LastWorkTime = now.Unix() - 1800
	svc := NewEconomyService(ledger, config.NewTestConfig(), newFixedRand())

	t.Run("career", func(t *testing.T) {
		view, err := svc.ViewCareer(ctx, 1, now)
		require.NoError(t, err)
		assert.Equal(t, "homeless", view.Career.ID)
		require.NotNil(t, view.Next)
		assert.Equal(t, "maid", view.Next.ID)
		assert.Equal(t, 30*time.Minute, view.WorkAvailableIn)
		assert.Equal(t, time.Duration(0), view.RollAvailableIn)
		assert.InDelta(t, 0.10, view.AdvancementOdds, 1e-9)
		assert.Equal(t, 1, view.LadderPosition)
		assert.Equal(t, 7, view.LadderSize)
	})

	t.Run("career at terminal tier", func(t *testing.T) {
		view, err := svc.ViewCareer(ctx, 2, now)
		require.NoError(t, err)
		assert.Nil(t, view.Next)
		assert.Zero(t, view.AdvancementOdds)
		assert.Equal(t, 7, view.LadderPosition)
	})

	t.Run("balance", func(t *testing.T) {
		view, err := svc.ViewBalance(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(900), view.Money)
	})

	t.Run("rank", func(t *testing.T) {
		view, err := svc.ViewRank(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "doctor", view.Career.ID)
		assert.Equal(t, 7, view.LadderPosition)
		assert.Nil(t, view.Next)
		assert.Equal(t, int64(3), view.WealthRank)
	})

	t.Run("leaderboard", func(t *testing.T) {
		entries, err := svc.Leaderboard(ctx, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(3), entries[0].DiscordID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, int64(1), entries[1].DiscordID)
		assert.Equal(t, 2, entries[1].Rank)
	})

	t.Run("views do not mutate", func(t *testing.T) {
		assert.Equal(t, int64(500), ledger.money(1))
		assert.Empty(t, ledger.historyFor(1))
	})
}
