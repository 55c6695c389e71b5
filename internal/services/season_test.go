package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/rules"
	"github.com/jstittsworth/leaguecraft/pkg/database"
)

const (
	commissionerID = uint(1)
	ownerAlice     = uint(101)
	ownerBob       = uint(102)
)

func testConfig() *rules.RuleSetConfig {
	return &rules.RuleSetConfig{
		Roster: rules.RosterConfig{
			StarterSlots: []rules.StarterSlot{
				{Key: "F", Label: "Forward", Count: 2},
				{Key: "G", Label: "Goalie", Count: 1},
			},
			BenchSlots: 2,
		},
		Scoring: rules.ScoringConfig{
			Stats: []rules.StatDef{
				{Key: "goals", Label: "Goals", Min: 0, Max: 5, Decimals: 0},
				{Key: "saves", Label: "Saves", Min: 0, Max: 30, Decimals: 0},
			},
			Rules: []rules.ScoringRule{
				{StatKey: "goals", PointsPerUnit: 3},
				{StatKey: "saves", PointsPerUnit: 0.5},
			},
		},
		Schedule: rules.ScheduleConfig{Type: rules.ScheduleTypeRoundRobin, Weeks: 4},
		Matchup:  rules.MatchupConfig{Format: rules.MatchupFormatH2HPoints},
	}
}

type testEnv struct {
	db      *database.DB
	service *SeasonService
	league  *models.League
	teams   []models.Team
}

func setupEnv(t *testing.T, teamCount int) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&models.RuleSet{}, &models.League{}, &models.Team{}, &models.Athlete{},
		&models.Lineup{}, &models.LineupSlot{},
		&models.Matchup{}, &models.MatchupResult{}, &models.StatLine{},
	))

	db := database.Wrap(gdb)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	service := NewSeasonService(db, nil, logger, 0, 0)

	cfg := testConfig()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	ruleSet := models.RuleSet{Slug: "test-hockey", Name: "Test Hockey", Config: raw}
	require.NoError(t, gdb.Create(&ruleSet).Error)

	league := models.League{
		Name:           "Test League",
		ExternalRef:    fmt.Sprintf("00000000-0000-0000-0000-%012d", 1),
		RuleSetID:      ruleSet.ID,
		CommissionerID: commissionerID,
		CurrentWeek:    1,
	}
	require.NoError(t, gdb.Create(&league).Error)

	owners := []uint{ownerAlice, ownerBob, uint(103), uint(104), uint(105)}
	var teams []models.Team
	for i := 0; i < teamCount; i++ {
		team := models.Team{
			LeagueID: league.ID,
			OwnerID:  owners[i],
			Name:     fmt.Sprintf("Team %d", i+1),
		}
		require.NoError(t, gdb.Create(&team).Error)
		require.NoError(t, service.ProvisionRoster(&team, cfg))
		teams = append(teams, team)
	}

	return &testEnv{db: db, service: service, league: &league, teams: teams}
}

// fillLineup assigns the team's athletes to every slot in canonical order.
func fillLineup(t *testing.T, env *testEnv, ownerID, teamID uint, week int) *models.Lineup {
	t.Helper()

	lineup, err := env.service.EnsureLineup(teamID, week)
	require.NoError(t, err)

	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error)

	for i, slot := range lineup.Slots {
		lineup, err = env.service.SetSlot(ownerID, teamID, week, slot.SlotKey, slot.SlotIndex, athletes[i].ID)
		require.NoError(t, err)
	}
	return lineup
}

func TestProvisionRoster_SizeAndPositions(t *testing.T) {
	env := setupEnv(t, 2)

	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", env.teams[0].ID).Find(&athletes).Error)

	// 2 forwards + 1 goalie + 2 bench
	assert.Len(t, athletes, rules.TotalRosterSize(testConfig()))

	byPosition := make(map[string]int)
	for _, a := range athletes {
		byPosition[a.Position]++
	}
	assert.Equal(t, 2, byPosition["F"])
	assert.Equal(t, 1, byPosition["G"])
	assert.Equal(t, 2, byPosition["BENCH"])
}

func TestEnsureLineup_CreatesCanonicalSlots(t *testing.T) {
	env := setupEnv(t, 2)

	lineup, err := env.service.EnsureLineup(env.teams[0].ID, 1)
	require.NoError(t, err)
	require.Len(t, lineup.Slots, 3)

	assert.Equal(t, "F", lineup.Slots[0].SlotKey)
	assert.Equal(t, 0, lineup.Slots[0].SlotIndex)
	assert.Equal(t, "F", lineup.Slots[1].SlotKey)
	assert.Equal(t, 1, lineup.Slots[1].SlotIndex)
	assert.Equal(t, "G", lineup.Slots[2].SlotKey)
	assert.Equal(t, 0, lineup.Slots[2].SlotIndex)
	assert.Equal(t, models.LineupStatusOpen, lineup.Status)
}

func TestEnsureLineup_Idempotent(t *testing.T) {
	env := setupEnv(t, 2)

	first, err := env.service.EnsureLineup(env.teams[0].ID, 2)
	require.NoError(t, err)

	// Fill one slot, then re-ensure: the assignment must survive and no
	// duplicate slots may appear.
	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", env.teams[0].ID).Order("id asc").Find(&athletes).Error)
	_, err = env.service.SetSlot(ownerAlice, env.teams[0].ID, 2, "G", 0, athletes[2].ID)
	require.NoError(t, err)

	second, err := env.service.EnsureLineup(env.teams[0].ID, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Slots, 3)

	var goalie *models.LineupSlot
	for i := range second.Slots {
		if second.Slots[i].SlotKey == "G" {
			goalie = &second.Slots[i]
		}
	}
	require.NotNil(t, goalie)
	require.NotNil(t, goalie.AthleteID)
	assert.Equal(t, athletes[2].ID, *goalie.AthleteID)
}

func TestEnsureLineup_WeekOutOfSeason(t *testing.T) {
	env := setupEnv(t, 2)

	_, err := env.service.EnsureLineup(env.teams[0].ID, 5)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupNotFound, lineupErr.Code)
}

func TestSetSlot_Rejections(t *testing.T) {
	env := setupEnv(t, 2)
	teamID := env.teams[0].ID

	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error)
	var rivalAthletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", env.teams[1].ID).Order("id asc").Find(&rivalAthletes).Error)

	tests := []struct {
		name     string
		actor    uint
		slotKey  string
		slotIdx  int
		athlete  uint
		wantCode LineupErrorCode
	}{
		{"not the owner", ownerBob, "F", 0, athletes[0].ID, LineupForbidden},
		{"unknown slot", ownerAlice, "D", 0, athletes[0].ID, LineupNotFound},
		{"index out of range", ownerAlice, "G", 1, athletes[0].ID, LineupNotFound},
		{"athlete from another team", ownerAlice, "F", 0, rivalAthletes[0].ID, LineupBadAthlete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.SetSlot(tt.actor, teamID, 1, tt.slotKey, tt.slotIdx, tt.athlete)
			var lineupErr *LineupError
			require.ErrorAs(t, err, &lineupErr)
			assert.Equal(t, tt.wantCode, lineupErr.Code)
		})
	}
}

func TestSetSlot_DuplicateAthlete(t *testing.T) {
	env := setupEnv(t, 2)
	teamID := env.teams[0].ID

	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error)

	_, err := env.service.SetSlot(ownerAlice, teamID, 1, "F", 0, athletes[0].ID)
	require.NoError(t, err)

	_, err = env.service.SetSlot(ownerAlice, teamID, 1, "F", 1, athletes[0].ID)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupDuplicate, lineupErr.Code)

	// Re-assigning the same athlete to the slot it already fills is fine.
	_, err = env.service.SetSlot(ownerAlice, teamID, 1, "F", 0, athletes[0].ID)
	assert.NoError(t, err)
}

func TestSetSlot_SwapAthlete(t *testing.T) {
	env := setupEnv(t, 2)
	teamID := env.teams[0].ID

	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error)

	_, err := env.service.SetSlot(ownerAlice, teamID, 1, "F", 0, athletes[0].ID)
	require.NoError(t, err)

	// Swapping a filled slot to a different athlete must stick, both in the
	// returned lineup and in the stored row.
	lineup, err := env.service.SetSlot(ownerAlice, teamID, 1, "F", 0, athletes[1].ID)
	require.NoError(t, err)
	require.NotNil(t, lineup.Slots[0].AthleteID)
	assert.Equal(t, athletes[1].ID, *lineup.Slots[0].AthleteID)

	var row models.LineupSlot
	require.NoError(t, env.db.Where("lineup_id = ? AND slot_key = ? AND slot_index = ?",
		lineup.ID, "F", 0).First(&row).Error)
	require.NotNil(t, row.AthleteID)
	assert.Equal(t, athletes[1].ID, *row.AthleteID)
}

func TestClearSlot(t *testing.T) {
	env := setupEnv(t, 2)
	teamID := env.teams[0].ID

	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error)

	_, err := env.service.SetSlot(ownerAlice, teamID, 1, "F", 0, athletes[0].ID)
	require.NoError(t, err)

	lineup, err := env.service.ClearSlot(ownerAlice, teamID, 1, "F", 0)
	require.NoError(t, err)
	assert.Nil(t, lineup.Slots[0].AthleteID)

	// The stored row must be empty too, not just the returned snapshot.
	var row models.LineupSlot
	require.NoError(t, env.db.Where("lineup_id = ? AND slot_key = ? AND slot_index = ?",
		lineup.ID, "F", 0).First(&row).Error)
	assert.Nil(t, row.AthleteID)
}

func TestLockLineup_Transitions(t *testing.T) {
	env := setupEnv(t, 2)
	teamID := env.teams[0].ID

	// Locking with empty slots fails with incomplete.
	_, err := env.service.LockLineup(ownerAlice, teamID, 1)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupIncomplete, lineupErr.Code)

	fillLineup(t, env, ownerAlice, teamID, 1)

	locked, err := env.service.LockLineup(ownerAlice, teamID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LineupStatusLocked, locked.Status)

	// Locking again is a no-op, not an error.
	again, err := env.service.LockLineup(ownerAlice, teamID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.LineupStatusLocked, again.Status)

	// No mutation succeeds after the lock.
	var athletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error)
	_, err = env.service.SetSlot(ownerAlice, teamID, 1, "F", 0, athletes[1].ID)
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupLocked, lineupErr.Code)

	_, err = env.service.ClearSlot(ownerAlice, teamID, 1, "F", 0)
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupLocked, lineupErr.Code)
}

func TestGenerateSchedule(t *testing.T) {
	env := setupEnv(t, 4)

	_, err := env.service.GenerateSchedule(ownerAlice, env.league.ID)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupForbidden, lineupErr.Code)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)
	// 4 teams, 4 weeks, 2 fixtures per week
	assert.Len(t, matchups, 8)

	// Regeneration before any result replaces the fixture list wholesale.
	again, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)
	assert.Len(t, again, 8)

	var count int64
	require.NoError(t, env.db.Model(&models.Matchup{}).Where("league_id = ?", env.league.ID).Count(&count).Error)
	assert.EqualValues(t, 8, count)
}

func TestSimulateMatchup_RequiresCompleteInvokingLineup(t *testing.T) {
	env := setupEnv(t, 2)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)
	week1 := matchups[0]

	_, err = env.service.SimulateMatchup(ownerAlice, week1.ID)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupIncomplete, lineupErr.Code)
}

func TestSimulateMatchup_AutoFillsOpponentAndIsIdempotent(t *testing.T) {
	env := setupEnv(t, 2)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)
	week1 := matchups[0]

	fillLineup(t, env, ownerAlice, env.teams[0].ID, 1)
	_, err = env.service.LockLineup(ownerAlice, env.teams[0].ID, 1)
	require.NoError(t, err)

	// Bob never touched his lineup; simulation auto-fills it.
	result, err := env.service.SimulateMatchup(ownerAlice, week1.ID)
	require.NoError(t, err)

	opponentLineup, err := env.service.EnsureLineup(env.teams[1].ID, 1)
	require.NoError(t, err)
	assert.True(t, opponentLineup.IsComplete(), "opponent lineup should be auto-filled")

	// Auto-fill uses ascending athlete ID order.
	var bobAthletes []models.Athlete
	require.NoError(t, env.db.Where("team_id = ?", env.teams[1].ID).Order("id asc").Find(&bobAthletes).Error)
	for i, slot := range opponentLineup.Slots {
		require.NotNil(t, slot.AthleteID)
		assert.Equal(t, bobAthletes[i].ID, *slot.AthleteID)
	}

	// Re-simulating returns the locked-in result and creates no second row.
	again, err := env.service.SimulateMatchup(ownerAlice, week1.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, again.ID)
	assert.Equal(t, result.HomeScore, again.HomeScore)
	assert.Equal(t, result.AwayScore, again.AwayScore)

	var count int64
	require.NoError(t, env.db.Model(&models.MatchupResult{}).Where("matchup_id = ?", week1.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSimulateMatchup_ScoresAreReproducible(t *testing.T) {
	env := setupEnv(t, 2)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)
	week1 := matchups[0]

	fillLineup(t, env, ownerAlice, env.teams[0].ID, 1)
	result, err := env.service.SimulateMatchup(ownerAlice, week1.ID)
	require.NoError(t, err)

	// Recompute home score straight from cached stat lines; it must match
	// what simulation locked in.
	cfg := testConfig()
	homeLineup, err := env.service.EnsureLineup(week1.HomeTeamID, 1)
	require.NoError(t, err)

	expected := 0.0
	for _, slot := range homeLineup.Slots {
		require.NotNil(t, slot.AthleteID)
		var row models.StatLine
		require.NoError(t, env.db.Where(
			"league_id = ? AND week = ? AND athlete_id = ?", env.league.ID, 1, *slot.AthleteID,
		).First(&row).Error)
		line, err := row.StatValues()
		require.NoError(t, err)
		expected += rules.Score(cfg, line)
	}
	assert.InDelta(t, expected, result.HomeScore, 1e-9)
}

func TestSimulateMatchup_ForbiddenForOutsiders(t *testing.T) {
	env := setupEnv(t, 3)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)

	// Find a matchup not involving team 3's owner.
	var outsider uint = 103
	var target models.Matchup
	for _, m := range matchups {
		if m.HomeTeamID != env.teams[2].ID && m.AwayTeamID != env.teams[2].ID {
			target = m
			break
		}
	}
	require.NotZero(t, target.ID)

	_, err = env.service.SimulateMatchup(outsider, target.ID)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupForbidden, lineupErr.Code)
}

func TestGenerateSchedule_FrozenAfterFirstResult(t *testing.T) {
	env := setupEnv(t, 2)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)

	fillLineup(t, env, ownerAlice, env.teams[0].ID, 1)
	_, err = env.service.SimulateMatchup(ownerAlice, matchups[0].ID)
	require.NoError(t, err)

	_, err = env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.Error(t, err)
	var schedErr *ScheduleError
	assert.True(t, errors.As(err, &schedErr))
}

func TestAdvanceWeek_ClampedToSeason(t *testing.T) {
	env := setupEnv(t, 2)

	_, err := env.service.AdvanceWeek(ownerAlice, env.league.ID)
	var lineupErr *LineupError
	require.ErrorAs(t, err, &lineupErr)
	assert.Equal(t, LineupForbidden, lineupErr.Code)

	for i := 0; i < 10; i++ {
		league, err := env.service.AdvanceWeek(commissionerID, env.league.ID)
		require.NoError(t, err)
		assert.LessOrEqual(t, league.CurrentWeek, testConfig().Schedule.Weeks)
	}

	var league models.League
	require.NoError(t, env.db.First(&league, env.league.ID).Error)
	assert.Equal(t, testConfig().Schedule.Weeks, league.CurrentWeek)
}

func TestStandings(t *testing.T) {
	env := setupEnv(t, 2)

	matchups, err := env.service.GenerateSchedule(commissionerID, env.league.ID)
	require.NoError(t, err)

	fillLineup(t, env, ownerAlice, env.teams[0].ID, 1)
	result, err := env.service.SimulateMatchup(ownerAlice, matchups[0].ID)
	require.NoError(t, err)

	table, err := env.service.Standings(env.league.ID)
	require.NoError(t, err)
	require.Len(t, table, 2)

	totalWins := table[0].Wins + table[1].Wins
	totalTies := table[0].Ties + table[1].Ties
	if result.HomeScore == result.AwayScore {
		assert.Equal(t, 2, totalTies)
	} else {
		assert.Equal(t, 1, totalWins)
		assert.GreaterOrEqual(t, table[0].Wins, table[1].Wins)
	}
	assert.InDelta(t, result.HomeScore+result.AwayScore, table[0].PointsFor+table[1].PointsFor, 1e-9)
}
