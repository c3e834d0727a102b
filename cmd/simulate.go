package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"

	"hustler/models"
)

// SimulationReport summarizes many automated blackjack hands
type SimulationReport struct {
	Rounds     int
	StandOn    int
	Bet        int64
	Outcomes   map[models.BlackjackOutcome]int
	TotalStake int64
	TotalPaid  int64
}

// PlayerReturn is the share of every coin staked that came back to players
func (r SimulationReport) PlayerReturn() float64 {
	if r.TotalStake == 0 {
		return 0
	}
	return float64(r.TotalPaid) / float64(r.TotalStake)
}

// HouseEdge is the expected loss per coin staked
func (r SimulationReport) HouseEdge() float64 {
	return 1 - r.PlayerReturn()
}

// SimulateBlackjack plays rounds hands with a fresh shuffled deck each, hitting
// until the hand reaches standOn
func SimulateBlackjack(rounds, standOn int, bet int64, rng models.RandomSource) (SimulationReport, error) {
	report := SimulationReport{
		Rounds:   rounds,
		StandOn:  standOn,
		Bet:      bet,
		Outcomes: make(map[models.BlackjackOutcome]int),
	}

	for i := 0; i < rounds; i++ {
		game, err := models.NewBlackjackGame(fmt.Sprintf("sim-%d", i), 0, 0, bet, models.NewShuffledDeck(rng))
		if err != nil {
			return report, err
		}
		for !game.IsSettled() {
			if game.PlayerHand.Value() < standOn {
				err = game.Hit()
			} else {
				err = game.Hold()
			}
			if err != nil {
				return report, fmt.Errorf("round %d: %w", i, err)
			}
		}

		report.Outcomes[game.Outcome]++
		report.TotalStake += game.Bet
		report.TotalPaid += game.Payout()
	}

	return report, nil
}

// WriteSimulationReport prints the outcome distribution and the house edge
func WriteSimulationReport(w io.Writer, report SimulationReport) {
	fmt.Fprintf(w, "=== Blackjack simulation: %d hands, standing on %d, %d coin bet ===\n\n",
		report.Rounds, report.StandOn, report.Bet)

	outcomes := make([]models.BlackjackOutcome, 0, len(report.Outcomes))
	for outcome := range report.Outcomes {
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return report.Outcomes[outcomes[i]] > report.Outcomes[outcomes[j]]
	})

	for _, outcome := range outcomes {
		count := report.Outcomes[outcome]
		fmt.Fprintf(w, "  %-18s %8d (%6.2f%%)\n", outcome, count, 100*float64(count)/float64(report.Rounds))
	}

	fmt.Fprintf(w, "\n  Staked:        %d\n", report.TotalStake)
	fmt.Fprintf(w, "  Paid out:      %d\n", report.TotalPaid)
	fmt.Fprintf(w, "  Player return: %.4f\n", report.PlayerReturn())
	fmt.Fprintf(w, "  House edge:    %+.2f%%\n", 100*report.HouseEdge())
}

// WriteCareerOdds prints the expected number of successful rolls needed to
// climb from the entry tier to each rung of the ladder
func WriteCareerOdds(w io.Writer, ladder *models.CareerLadder, promotionChance float64) {
	fmt.Fprintf(w, "\n=== Career ladder at %.0f%% promotion chance ===\n\n", promotionChance*100)
	for i, tier := range ladder.Tiers() {
		expectedRolls := 0.0
		if promotionChance > 0 {
			expectedRolls = float64(i) / promotionChance
		} else if i > 0 {
			expectedRolls = math.Inf(1)
		}
		fmt.Fprintf(w, "  %-12s pay %5d  expected rolls %6.1f\n", tier.ID, tier.PayPerWork(), expectedRolls)
	}
}
