package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/rules"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	return db.AutoMigrate(
		&models.RuleSet{},
		&models.League{},
		&models.Team{},
		&models.Athlete{},
		&models.Lineup{},
		&models.LineupSlot{},
		&models.Matchup{},
		&models.MatchupResult{},
		&models.StatLine{},
	)
}

func dropTables(db *database.DB) error {
	return db.Migrator().DropTable(
		&models.StatLine{},
		&models.MatchupResult{},
		&models.Matchup{},
		&models.LineupSlot{},
		&models.Lineup{},
		&models.Athlete{},
		&models.Team{},
		&models.League{},
		&models.RuleSet{},
	)
}

type template struct {
	slug        string
	name        string
	description string
	config      rules.RuleSetConfig
}

// seedData installs the bundled sport templates. Every template goes
// through the same validation pathway as an admin-authored config; a seed
// that fails validation is a bug in this file.
func seedData(db *database.DB) error {
	for _, tpl := range sportTemplates() {
		raw, err := json.Marshal(tpl.config)
		if err != nil {
			return fmt.Errorf("failed to encode template %s: %w", tpl.slug, err)
		}
		if _, err := rules.ValidateConfig(raw); err != nil {
			return fmt.Errorf("template %s failed validation: %w", tpl.slug, err)
		}

		var existing models.RuleSet
		if err := db.Where("slug = ?", tpl.slug).First(&existing).Error; err == nil {
			logrus.Infof("Template %s already installed, skipping", tpl.slug)
			continue
		}

		ruleSet := models.RuleSet{
			Slug:        tpl.slug,
			Name:        tpl.name,
			Description: tpl.description,
			Config:      raw,
		}
		if err := db.Create(&ruleSet).Error; err != nil {
			return fmt.Errorf("failed to install template %s: %w", tpl.slug, err)
		}
		logrus.Infof("Installed template %s", tpl.slug)
	}
	return nil
}

func sportTemplates() []template {
	return []template{
		{
			slug:        "gridiron-standard",
			name:        "Gridiron Football",
			description: "Classic head-to-head football with a 14 week season.",
			config: rules.RuleSetConfig{
				Roster: rules.RosterConfig{
					StarterSlots: []rules.StarterSlot{
						{Key: "QB", Label: "Quarterback", Count: 1},
						{Key: "RB", Label: "Running Back", Count: 2},
						{Key: "WR", Label: "Wide Receiver", Count: 2},
						{Key: "TE", Label: "Tight End", Count: 1},
						{Key: "K", Label: "Kicker", Count: 1},
					},
					BenchSlots: 5,
				},
				Scoring: rules.ScoringConfig{
					Stats: []rules.StatDef{
						{Key: "pass_yds", Label: "Passing Yards", Min: 0, Max: 450, Decimals: 0},
						{Key: "rush_yds", Label: "Rushing Yards", Min: 0, Max: 180, Decimals: 0},
						{Key: "rec_yds", Label: "Receiving Yards", Min: 0, Max: 160, Decimals: 0},
						{Key: "touchdowns", Label: "Touchdowns", Min: 0, Max: 4, Decimals: 0},
						{Key: "turnovers", Label: "Turnovers", Min: 0, Max: 3, Decimals: 0},
						{Key: "field_goals", Label: "Field Goals", Min: 0, Max: 5, Decimals: 0},
					},
					Rules: []rules.ScoringRule{
						{StatKey: "pass_yds", PointsPerUnit: 0.04},
						{StatKey: "rush_yds", PointsPerUnit: 0.1},
						{StatKey: "rec_yds", PointsPerUnit: 0.1},
						{StatKey: "touchdowns", PointsPerUnit: 6},
						{StatKey: "turnovers", PointsPerUnit: -2},
						{StatKey: "field_goals", PointsPerUnit: 3},
					},
				},
				Schedule: rules.ScheduleConfig{Type: rules.ScheduleTypeRoundRobin, Weeks: 14},
				Matchup:  rules.MatchupConfig{Format: rules.MatchupFormatH2HPoints},
			},
		},
		{
			slug:        "hoops-standard",
			name:        "Basketball",
			description: "Five-on-five basketball scored on box-score production.",
			config: rules.RuleSetConfig{
				Roster: rules.RosterConfig{
					StarterSlots: []rules.StarterSlot{
						{Key: "G", Label: "Guard", Count: 2},
						{Key: "F", Label: "Forward", Count: 2},
						{Key: "C", Label: "Center", Count: 1},
					},
					BenchSlots: 3,
				},
				Scoring: rules.ScoringConfig{
					Stats: []rules.StatDef{
						{Key: "points", Label: "Points", Min: 0, Max: 45, Decimals: 0},
						{Key: "rebounds", Label: "Rebounds", Min: 0, Max: 18, Decimals: 0},
						{Key: "assists", Label: "Assists", Min: 0, Max: 14, Decimals: 0},
						{Key: "steals", Label: "Steals", Min: 0, Max: 5, Decimals: 0},
						{Key: "turnovers", Label: "Turnovers", Min: 0, Max: 7, Decimals: 0},
					},
					Rules: []rules.ScoringRule{
						{StatKey: "points", PointsPerUnit: 1},
						{StatKey: "rebounds", PointsPerUnit: 1.2},
						{StatKey: "assists", PointsPerUnit: 1.5},
						{StatKey: "steals", PointsPerUnit: 3},
						{StatKey: "turnovers", PointsPerUnit: -1},
					},
				},
				Schedule: rules.ScheduleConfig{Type: rules.ScheduleTypeRoundRobin, Weeks: 18},
				Matchup:  rules.MatchupConfig{Format: rules.MatchupFormatH2HPoints},
			},
		},
		{
			slug:        "ice-standard",
			name:        "Ice Hockey",
			description: "Hockey with goalie saves weighted alongside skater scoring.",
			config: rules.RuleSetConfig{
				Roster: rules.RosterConfig{
					StarterSlots: []rules.StarterSlot{
						{Key: "C", Label: "Center", Count: 1},
						{Key: "W", Label: "Winger", Count: 2},
						{Key: "D", Label: "Defenseman", Count: 2},
						{Key: "G", Label: "Goalie", Count: 1},
					},
					BenchSlots: 4,
				},
				Scoring: rules.ScoringConfig{
					Stats: []rules.StatDef{
						{Key: "goals", Label: "Goals", Min: 0, Max: 3, Decimals: 0},
						{Key: "assists", Label: "Assists", Min: 0, Max: 4, Decimals: 0},
						{Key: "shots", Label: "Shots on Goal", Min: 0, Max: 9, Decimals: 0},
						{Key: "saves", Label: "Saves", Min: 0, Max: 40, Decimals: 0},
						{Key: "penalty_min", Label: "Penalty Minutes", Min: 0, Max: 10, Decimals: 0},
					},
					Rules: []rules.ScoringRule{
						{StatKey: "goals", PointsPerUnit: 4},
						{StatKey: "assists", PointsPerUnit: 2.5},
						{StatKey: "shots", PointsPerUnit: 0.4},
						{StatKey: "saves", PointsPerUnit: 0.3},
						{StatKey: "penalty_min", PointsPerUnit: -0.5},
					},
				},
				Schedule: rules.ScheduleConfig{Type: rules.ScheduleTypeRoundRobin, Weeks: 16},
				Matchup:  rules.MatchupConfig{Format: rules.MatchupFormatH2HPoints},
			},
		},
		{
			slug:        "arena-esports",
			name:        "Arena Esports",
			description: "Five-player arena squad with precision ratings to three decimals.",
			config: rules.RuleSetConfig{
				Roster: rules.RosterConfig{
					StarterSlots: []rules.StarterSlot{
						{Key: "carry", Label: "Carry", Count: 1},
						{Key: "mid", Label: "Mid", Count: 1},
						{Key: "support", Label: "Support", Count: 2},
						{Key: "jungle", Label: "Jungle", Count: 1},
					},
					BenchSlots: 2,
				},
				Scoring: rules.ScoringConfig{
					Stats: []rules.StatDef{
						{Key: "kills", Label: "Kills", Min: 0, Max: 15, Decimals: 0},
						{Key: "deaths", Label: "Deaths", Min: 0, Max: 10, Decimals: 0},
						{Key: "assists", Label: "Assists", Min: 0, Max: 20, Decimals: 0},
						{Key: "obj.control", Label: "Objective Control", Min: 0, Max: 1, Decimals: 3},
					},
					Rules: []rules.ScoringRule{
						{StatKey: "kills", PointsPerUnit: 3},
						{StatKey: "deaths", PointsPerUnit: -1},
						{StatKey: "assists", PointsPerUnit: 1.5},
						{StatKey: "obj.control", PointsPerUnit: 25},
					},
				},
				Schedule: rules.ScheduleConfig{Type: rules.ScheduleTypeRoundRobin, Weeks: 10},
				Matchup:  rules.MatchupConfig{Format: rules.MatchupFormatH2HPoints},
			},
		},
	}
}
