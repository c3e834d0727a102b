// Package metrics exposes game activity as Prometheus collectors fed from the event bus.
package metrics

import (
	"context"
	"net/http"

	"hustler/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Metrics holds the collectors and their registry
type Metrics struct {
	registry *prometheus.Registry

	balanceChanges   *prometheus.CounterVec
	moneyMoved       *prometheus.CounterVec
	promotions       *prometheus.CounterVec
	blackjackGames   *prometheus.CounterVec
	blackjackWagered prometheus.Counter
	blackjackPaidOut prometheus.Counter
	activeSessions   prometheus.GaugeFunc
}

// New creates the collectors. activeSessions is sampled on every scrape.
func New(activeSessions func() int) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.balanceChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hustler_balance_changes_total",
		Help: "Committed balance changes by transaction type",
	}, []string{"transaction_type"})

	m.moneyMoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hustler_money_moved_total",
		Help: "Absolute money moved by transaction type",
	}, []string{"transaction_type"})

	m.promotions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hustler_career_promotions_total",
		Help: "Successful career rolls by destination tier",
	}, []string{"career"})

	m.blackjackGames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hustler_blackjack_games_total",
		Help: "Settled blackjack games by outcome",
	}, []string{"outcome"})

	m.blackjackWagered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hustler_blackjack_wagered_total",
		Help: "Total money bet on blackjack",
	})

	m.blackjackPaidOut = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hustler_blackjack_paid_out_total",
		Help: "Total money credited back by blackjack settlements",
	})

	m.activeSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hustler_blackjack_active_sessions",
		Help: "Blackjack sessions currently in progress",
	}, func() float64 {
		return float64(activeSessions())
	})

	m.registry.MustRegister(
		m.balanceChanges,
		m.moneyMoved,
		m.promotions,
		m.blackjackGames,
		m.blackjackWagered,
		m.blackjackPaidOut,
		m.activeSessions,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Subscribe wires the collectors to committed events
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, m.onBalanceChange)
	bus.Subscribe(events.EventTypeCareerPromoted, m.onCareerPromoted)
	bus.Subscribe(events.EventTypeBlackjackSettled, m.onBlackjackSettled)
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) onBalanceChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		log.Errorf("metrics: unexpected event type %T for balance change", event)
		return
	}

	amount := e.ChangeAmount
	if amount < 0 {
		amount = -amount
	}
	m.balanceChanges.WithLabelValues(string(e.TransactionType)).Inc()
	m.moneyMoved.WithLabelValues(string(e.TransactionType)).Add(float64(amount))
}

func (m *Metrics) onCareerPromoted(ctx context.Context, event events.Event) {
	e, ok := event.(events.CareerPromotedEvent)
	if !ok {
		log.Errorf("metrics: unexpected event type %T for career promotion", event)
		return
	}
	m.promotions.WithLabelValues(e.To).Inc()
}

func (m *Metrics) onBlackjackSettled(ctx context.Context, event events.Event) {
	e, ok := event.(events.BlackjackSettledEvent)
	if !ok {
		log.Errorf("metrics: unexpected event type %T for blackjack settlement", event)
		return
	}
	m.blackjackGames.WithLabelValues(string(e.Outcome)).Inc()
	m.blackjackWagered.Add(float64(e.Bet))
	m.blackjackPaidOut.Add(float64(e.Payout))
}
