package service

import (
	"context"
	"sort"
	"sync"

	"hustler/events"
	"hustler/models"
)

const (
	testUserID    int64 = 111111
	testChannelID int64 = 789012
)

// fixedRand replays a fixed sequence of draws and never shuffles
type fixedRand struct {
	mu     sync.Mutex
	values []float64
}

func newFixedRand(values ...float64) *fixedRand {
	return &fixedRand{values: values}
}

func (r *fixedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		return 0.5
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}

func (r *fixedRand) Shuffle(n int, swap func(i, j int)) {}

// memoryLedger is an in-memory UnitOfWorkFactory for multi-step flows
type memoryLedger struct {
	mu          sync.Mutex
	users       map[int64]*models.User
	history     []*models.BalanceHistory
	events      []events.Event
	applied     map[string]bool
	failUpdates int    // upcoming Update calls that fail as unavailable
	lostReplies int    // upcoming Update calls that apply, then fail as unavailable
	beforeNext  func() // runs once before the next Update, outside the lock
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{users: make(map[int64]*models.User), applied: make(map[string]bool)}
}

func (l *memoryLedger) withUser(discordID, money int64, career string) *memoryLedger {
	l.users[discordID] = &models.User{
		DiscordID:     discordID,
		Money:         money,
		Career:        career,
		SchemaVersion: models.CurrentUserSchemaVersion,
	}
	return l
}

func (l *memoryLedger) money(discordID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users[discordID].Money
}

func (l *memoryLedger) publishedEvents() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event(nil), l.events...)
}

func (l *memoryLedger) historyFor(discordID int64) []*models.BalanceHistory {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.BalanceHistory
	for _, h := range l.history {
		if h.DiscordID == discordID {
			out = append(out, h)
		}
	}
	return out
}

func (l *memoryLedger) Create() UnitOfWork {
	return &memoryUnitOfWork{ledger: l}
}

type memoryUnitOfWork struct {
	ledger  *memoryLedger
	pending []events.Event
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }

func (u *memoryUnitOfWork) Commit() error {
	u.ledger.mu.Lock()
	defer u.ledger.mu.Unlock()
	u.ledger.events = append(u.ledger.events, u.pending...)
	u.pending = nil
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	u.pending = nil
	return nil
}

func (u *memoryUnitOfWork) UserRepository() UserRepository {
	return memoryUserRepository{ledger: u.ledger}
}

func (u *memoryUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return memoryHistoryRepository{ledger: u.ledger}
}

func (u *memoryUnitOfWork) EventBus() EventPublisher {
	return u
}

func (u *memoryUnitOfWork) Publish(event events.Event) {
	u.pending = append(u.pending, event)
}

type memoryUserRepository struct {
	ledger *memoryLedger
}

func (r memoryUserRepository) GetOrCreate(ctx context.Context, discordID int64) (*models.User, error) {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	user, ok := r.ledger.users[discordID]
	if !ok {
		user = models.NewDefaultUser(discordID, models.DefaultCareerLadder().Entry().ID)
		r.ledger.users[discordID] = user
	}
	copied := *user
	return &copied, nil
}

func (r memoryUserRepository) Update(ctx context.Context, discordID int64, update models.UserUpdate) (*models.User, error) {
	r.ledger.mu.Lock()
	hook := r.ledger.beforeNext
	r.ledger.beforeNext = nil
	r.ledger.mu.Unlock()
	if hook != nil {
		hook()
	}

	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	if r.ledger.failUpdates > 0 {
		r.ledger.failUpdates--
		return nil, ErrLedgerUnavailable
	}

	user, ok := r.ledger.users[discordID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if user.Money+update.MoneyDelta < 0 {
		return nil, ErrInsufficientFunds
	}
	if !update.GuardsHold(user) {
		return nil, ErrStaleRecord
	}
	if update.OperationKey != "" && r.ledger.applied[update.OperationKey] {
		return nil, ErrOperationApplied
	}

	updated := update.Apply(user)
	r.ledger.users[discordID] = updated
	if update.OperationKey != "" {
		r.ledger.applied[update.OperationKey] = true
	}
	if r.ledger.lostReplies > 0 {
		r.ledger.lostReplies--
		return nil, ErrLedgerUnavailable
	}
	copied := *updated
	return &copied, nil
}

func (r memoryUserRepository) CountRicherThan(ctx context.Context, money int64) (int64, error) {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	var count int64
	for _, user := range r.ledger.users {
		if user.Money > money {
			count++
		}
	}
	return count, nil
}

func (r memoryUserRepository) GetTop(ctx context.Context, limit int) ([]*models.User, error) {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()

	users := make([]*models.User, 0, len(r.ledger.users))
	for _, user := range r.ledger.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Money == users[j].Money {
			return users[i].DiscordID < users[j].DiscordID
		}
		return users[i].Money > users[j].Money
	})
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

type memoryHistoryRepository struct {
	ledger *memoryLedger
}

func (r memoryHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	r.ledger.mu.Lock()
	defer r.ledger.mu.Unlock()
	history.ID = int64(len(r.ledger.history) + 1)
	r.ledger.history = append(r.ledger.history, history)
	return nil
}

func (r memoryHistoryRepository) GetByUser(ctx context.Context, discordID int64, limit int) ([]*models.BalanceHistory, error) {
	return r.ledger.historyFor(discordID), nil
}

// card builds a card for scripted decks
func card(rank models.Rank) models.Card {
	return models.Card{Rank: rank, Suit: models.SuitSpades}
}

// stackedDeck returns a deck that deals the given cards in order
func stackedDeck(deal ...models.Card) *models.Deck {
	reversed := make([]models.Card, len(deal))
	for i, c := range deal {
		reversed[len(deal)-1-i] = c
	}
	return models.NewDeckFromCards(reversed)
}

// scriptedPlayer answers each awaited turn with the next scripted action
func scriptedPlayer(svc BlackjackService, actions ...models.BlackjackAction) BlackjackObserver {
	next := 0
	return BlackjackObserverFunc(func(ctx context.Context, game *models.BlackjackGame) {
		if game.State != models.BlackjackStateAwaitingPlayerAction || next >= len(actions) {
			return
		}
		action := actions[next]
		next++
		_ = svc.Deliver(game.UserID, game.ChannelID, action)
	})
}
