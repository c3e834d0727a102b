package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"hustler/cmd"
	"hustler/config"
	"hustler/database"
	"hustler/models"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "simulate" {
		if err := handleSimulateCommand(); err != nil {
			log.Fatal("Simulation error: ", err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: hustler migrate [up|down|status] [args...]")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	databaseURL := cfg.GetDatabaseURL()

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		return database.MigrateStatus(databaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleSimulateCommand plays automated blackjack hands and prints the odds:
// hustler simulate [hands] [stand-on]
func handleSimulateCommand() error {
	rounds, standOn := 100000, models.DealerStandValue
	var err error
	if len(os.Args) > 2 {
		if rounds, err = strconv.Atoi(os.Args[2]); err != nil || rounds <= 0 {
			return fmt.Errorf("invalid number of hands: %s", os.Args[2])
		}
	}
	if len(os.Args) > 3 {
		if standOn, err = strconv.Atoi(os.Args[3]); err != nil {
			return fmt.Errorf("invalid stand-on value: %s", os.Args[3])
		}
	}

	rng := models.NewLockedRand(time.Now().UnixNano())
	report, err := cmd.SimulateBlackjack(rounds, standOn, 100, rng)
	if err != nil {
		return err
	}
	cmd.WriteSimulationReport(os.Stdout, report)

	cfg := config.NewTestConfig()
	if loaded, err := config.FromEnv(os.Getenv); err == nil {
		cfg = loaded
	}
	cmd.WriteCareerOdds(os.Stdout, cfg.Careers, cfg.CareerAdvancementChance)
	return nil
}
