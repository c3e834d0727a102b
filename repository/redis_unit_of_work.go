package repository

import (
	"context"
	"fmt"

	"hustler/events"
	"hustler/service"

	"github.com/redis/go-redis/v9"
)

// redisUnitOfWork groups the Redis repositories for one operation. Every user
// update is a single atomic script, so commit only has to flush buffered
// history and events; rollback cannot undo a user update that already ran.
type redisUnitOfWork struct {
	client             *redis.Client
	entryCareer        string
	ctx                context.Context
	transactionalBus   *events.TransactionalBus
	userRepo           *RedisUserRepository
	balanceHistoryRepo *RedisBalanceHistoryRepository
}

// NewRedisUnitOfWorkFactory creates a UnitOfWork factory backed by Redis
func NewRedisUnitOfWorkFactory(client *redis.Client, eventBus *events.Bus, entryCareer string) service.UnitOfWorkFactory {
	return &redisUnitOfWorkFactory{
		client:      client,
		eventBus:    eventBus,
		entryCareer: entryCareer,
	}
}

type redisUnitOfWorkFactory struct {
	client      *redis.Client
	eventBus    *events.Bus
	entryCareer string
}

func (f *redisUnitOfWorkFactory) Create() service.UnitOfWork {
	return &redisUnitOfWork{
		client:           f.client,
		entryCareer:      f.entryCareer,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin prepares the repositories for this unit of work
func (u *redisUnitOfWork) Begin(ctx context.Context) error {
	if u.ctx != nil {
		return fmt.Errorf("transaction already started")
	}

	u.ctx = ctx
	u.userRepo = NewRedisUserRepository(u.client, u.entryCareer)
	u.balanceHistoryRepo = newBufferedRedisBalanceHistoryRepository(u.client)
	return nil
}

// Commit writes buffered history and publishes pending events
func (u *redisUnitOfWork) Commit() error {
	if u.ctx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	u.balanceHistoryRepo.flush(u.ctx)
	u.transactionalBus.Flush(u.ctx)
	u.ctx = nil
	return nil
}

// Rollback drops buffered history and events
func (u *redisUnitOfWork) Rollback() error {
	if u.ctx == nil {
		return nil
	}

	u.balanceHistoryRepo.discard()
	u.transactionalBus.Discard()
	u.ctx = nil
	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *redisUnitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *redisUnitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *redisUnitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
