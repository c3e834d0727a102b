package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"hustler/events"
	"hustler/models"
	"hustler/repository/testutil"
	"hustler/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entryCareer = "homeless"

// ledgerBackend builds a fresh, empty ledger for one test
type ledgerBackend func(t *testing.T, bus *events.Bus) service.UnitOfWorkFactory

func postgresBackend(t *testing.T, bus *events.Bus) service.UnitOfWorkFactory {
	testDB := testutil.SetupTestDatabase(t)
	return NewUnitOfWorkFactory(testDB.DB, bus, entryCareer)
}

func redisBackend(t *testing.T, bus *events.Bus) service.UnitOfWorkFactory {
	testRedis := testutil.SetupTestRedis(t)
	return NewRedisUnitOfWorkFactory(testRedis.Client, bus, entryCareer)
}

func TestLedgerContract(t *testing.T) {
	backends := map[string]ledgerBackend{
		"postgres": postgresBackend,
		"redis":    redisBackend,
	}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			runLedgerContract(t, backend)
		})
	}
}

// inTx runs fn inside a committed unit of work
func inTx(t *testing.T, factory service.UnitOfWorkFactory, fn func(uow service.UnitOfWork)) {
	t.Helper()
	uow := factory.Create()
	require.NoError(t, uow.Begin(context.Background()))
	fn(uow)
	require.NoError(t, uow.Commit())
}

func runLedgerContract(t *testing.T, backend ledgerBackend) {
	ctx := context.Background()

	t.Run("first access creates defaults", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			user, err := uow.UserRepository().GetOrCreate(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, int64(42), user.DiscordID)
			assert.Equal(t, int64(0), user.Money)
			assert.Equal(t, entryCareer, user.Career)
			assert.Equal(t, int64(0), user.LastWorkTime)
			assert.Equal(t, int64(0), user.LastCareerRollTime)
			assert.Equal(t, models.CurrentUserSchemaVersion, user.SchemaVersion)

			again, err := uow.UserRepository().GetOrCreate(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, user.Money, again.Money)
			assert.Equal(t, user.Career, again.Career)
		})
	})

	t.Run("update merges partial fields", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			repo := uow.UserRepository()
			_, err := repo.GetOrCreate(ctx, 1)
			require.NoError(t, err)

			updated, err := repo.Update(ctx, 1, models.UserUpdate{
				MoneyDelta:   150,
				LastWorkTime: testutil.Int64(1_700_000_000),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(150), updated.Money)
			assert.Equal(t, int64(1_700_000_000), updated.LastWorkTime)
			assert.Equal(t, entryCareer, updated.Career, "untouched fields survive")

			updated, err = repo.Update(ctx, 1, models.UserUpdate{Career: testutil.String("maid")})
			require.NoError(t, err)
			assert.Equal(t, "maid", updated.Career)
			assert.Equal(t, int64(150), updated.Money)
			assert.Equal(t, int64(1_700_000_000), updated.LastWorkTime)
		})
	})

	t.Run("update rejects overdraft", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			repo := uow.UserRepository()
			_, err := repo.GetOrCreate(ctx, 1)
			require.NoError(t, err)
			_, err = repo.Update(ctx, 1, models.UserUpdate{MoneyDelta: 100})
			require.NoError(t, err)

			_, err = repo.Update(ctx, 1, models.UserUpdate{MoneyDelta: -101})
			assert.ErrorIs(t, err, service.ErrInsufficientFunds)

			drained, err := repo.Update(ctx, 1, models.UserUpdate{MoneyDelta: -100})
			require.NoError(t, err)
			assert.Equal(t, int64(0), drained.Money)
		})
	})

	t.Run("update guards detect stale records", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			repo := uow.UserRepository()
			_, err := repo.GetOrCreate(ctx, 1)
			require.NoError(t, err)

			_, err = repo.Update(ctx, 1, models.UserUpdate{
				LastWorkTime:       testutil.Int64(100),
				ExpectLastWorkTime: testutil.Int64(0),
			})
			require.NoError(t, err)

			_, err = repo.Update(ctx, 1, models.UserUpdate{
				MoneyDelta:         10,
				LastWorkTime:       testutil.Int64(200),
				ExpectLastWorkTime: testutil.Int64(0),
			})
			assert.ErrorIs(t, err, service.ErrStaleRecord)

			_, err = repo.Update(ctx, 1, models.UserUpdate{
				LastCareerRollTime:       testutil.Int64(300),
				ExpectLastCareerRollTime: testutil.Int64(5),
			})
			assert.ErrorIs(t, err, service.ErrStaleRecord)

			user, err := repo.GetOrCreate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(0), user.Money, "rejected update leaves money untouched")
			assert.Equal(t, int64(100), user.LastWorkTime)
			assert.Equal(t, int64(0), user.LastCareerRollTime)
		})
	})

	t.Run("keyed updates apply once", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			repo := uow.UserRepository()
			_, err := repo.GetOrCreate(ctx, 1)
			require.NoError(t, err)
			_, err = repo.Update(ctx, 1, models.UserUpdate{MoneyDelta: 100})
			require.NoError(t, err)
		})

		// A rejected update leaves its key unused
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, err := uow.UserRepository().Update(ctx, 1, models.UserUpdate{MoneyDelta: -500, OperationKey: "session-1:bet"})
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
		require.NoError(t, uow.Rollback())

		inTx(t, factory, func(uow service.UnitOfWork) {
			updated, err := uow.UserRepository().Update(ctx, 1, models.UserUpdate{MoneyDelta: -40, OperationKey: "session-1:bet"})
			require.NoError(t, err)
			assert.Equal(t, int64(60), updated.Money)
		})

		inTx(t, factory, func(uow service.UnitOfWork) {
			_, err := uow.UserRepository().Update(ctx, 1, models.UserUpdate{MoneyDelta: -40, OperationKey: "session-1:bet"})
			assert.ErrorIs(t, err, service.ErrOperationApplied)

			user, err := uow.UserRepository().GetOrCreate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(60), user.Money, "replayed change is not applied again")
		})
	})

	t.Run("update of unknown user", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			_, err := uow.UserRepository().Update(ctx, 999, models.UserUpdate{MoneyDelta: 1})
			assert.ErrorIs(t, err, service.ErrUserNotFound)
		})
	})

	t.Run("concurrent guarded updates apply once", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			_, err := uow.UserRepository().GetOrCreate(ctx, 1)
			require.NoError(t, err)
		})

		var wg sync.WaitGroup
		var applied atomic.Int32
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				uow := factory.Create()
				if err := uow.Begin(ctx); err != nil {
					return
				}
				_, err := uow.UserRepository().Update(ctx, 1, models.UserUpdate{
					MoneyDelta:         25,
					LastWorkTime:       testutil.Int64(1000),
					ExpectLastWorkTime: testutil.Int64(0),
				})
				if err != nil {
					_ = uow.Rollback()
					return
				}
				if uow.Commit() == nil {
					applied.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), applied.Load())
		inTx(t, factory, func(uow service.UnitOfWork) {
			user, err := uow.UserRepository().GetOrCreate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, int64(25), user.Money)
		})
	})

	t.Run("rank and leaderboard", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		balances := map[int64]int64{1: 500, 2: 900, 3: 500, 4: 0, 5: 1200}
		inTx(t, factory, func(uow service.UnitOfWork) {
			repo := uow.UserRepository()
			for id, money := range balances {
				_, err := repo.GetOrCreate(ctx, id)
				require.NoError(t, err)
				if money > 0 {
					_, err = repo.Update(ctx, id, models.UserUpdate{MoneyDelta: money})
					require.NoError(t, err)
				}
			}

			richer, err := repo.CountRicherThan(ctx, 500)
			require.NoError(t, err)
			assert.Equal(t, int64(2), richer)

			richer, err = repo.CountRicherThan(ctx, 1200)
			require.NoError(t, err)
			assert.Equal(t, int64(0), richer)

			top, err := repo.GetTop(ctx, 3)
			require.NoError(t, err)
			require.Len(t, top, 3)
			assert.Equal(t, int64(5), top[0].DiscordID)
			assert.Equal(t, int64(2), top[1].DiscordID)
			assert.Equal(t, int64(1), top[2].DiscordID, "ties break on lower id")

			all, err := repo.GetTop(ctx, 25)
			require.NoError(t, err)
			assert.Len(t, all, len(balances))
		})
	})

	t.Run("balance history newest first", func(t *testing.T) {
		factory := backend(t, events.NewBus())
		inTx(t, factory, func(uow service.UnitOfWork) {
			_, err := uow.UserRepository().GetOrCreate(ctx, 7)
			require.NoError(t, err)
			require.NoError(t, uow.BalanceHistoryRepository().Record(ctx,
				testutil.CreateTestBalanceHistoryWithAmounts(7, 0, 40, models.TransactionTypeWork)))
		})
		inTx(t, factory, func(uow service.UnitOfWork) {
			require.NoError(t, uow.BalanceHistoryRepository().Record(ctx,
				testutil.CreateTestBalanceHistoryWithAmounts(7, 40, 30, models.TransactionTypeBlackjackBet)))
		})

		inTx(t, factory, func(uow service.UnitOfWork) {
			history, err := uow.BalanceHistoryRepository().GetByUser(ctx, 7, 10)
			require.NoError(t, err)
			require.Len(t, history, 2)
			assert.Equal(t, models.TransactionTypeBlackjackBet, history[0].TransactionType)
			assert.Equal(t, int64(-10), history[0].ChangeAmount)
			assert.Equal(t, models.TransactionTypeWork, history[1].TransactionType)
			assert.NotZero(t, history[0].ID)
			assert.Equal(t, true, history[1].TransactionMetadata["test"])
		})
	})

	t.Run("events flush on commit only", func(t *testing.T) {
		bus := events.NewBus()
		var received atomic.Int32
		bus.Subscribe(events.EventTypeCareerPromoted, func(ctx context.Context, event events.Event) {
			received.Add(1)
		})
		factory := backend(t, bus)

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		uow.EventBus().Publish(events.CareerPromotedEvent{UserID: 1, From: "homeless", To: "maid"})
		require.NoError(t, uow.Rollback())
		bus.Wait()
		assert.Equal(t, int32(0), received.Load())

		inTx(t, factory, func(uow service.UnitOfWork) {
			uow.EventBus().Publish(events.CareerPromotedEvent{UserID: 1, From: "homeless", To: "maid"})
		})
		bus.Wait()
		assert.Equal(t, int32(1), received.Load())
	})
}
