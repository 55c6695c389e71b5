package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/rules"
	"github.com/jstittsworth/leaguecraft/pkg/database"
)

// SeasonService composes the pure rules engine with persistence: lineup
// provisioning, lineup locking, schedule generation, and matchup
// simulation. It is the only layer with side effects; everything
// algorithmic is delegated to the rules package.
type SeasonService struct {
	db           *database.DB
	cache        *CacheService
	logger       *logrus.Logger
	notify       *NotifyService
	statLineTTL  time.Duration
	standingsTTL time.Duration
}

func NewSeasonService(db *database.DB, cache *CacheService, logger *logrus.Logger, statLineTTL, standingsTTL time.Duration) *SeasonService {
	if statLineTTL <= 0 {
		statLineTTL = time.Hour
	}
	if standingsTTL <= 0 {
		standingsTTL = time.Minute
	}
	return &SeasonService{
		db:           db,
		cache:        cache,
		logger:       logger,
		statLineTTL:  statLineTTL,
		standingsTTL: standingsTTL,
	}
}

// SetNotifier enables matchup-final notifications. Without one, simulation
// still works; delivery is best-effort either way.
func (s *SeasonService) SetNotifier(n *NotifyService) {
	s.notify = n
}

// leagueConfig loads a league together with its parsed rule set.
func (s *SeasonService) leagueConfig(leagueID uint) (*models.League, *rules.RuleSetConfig, error) {
	var league models.League
	if err := s.db.Preload("RuleSet").First(&league, leagueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, newLineupError(LineupNotFound, "league %d not found", leagueID)
		}
		return nil, nil, fmt.Errorf("failed to load league: %w", err)
	}
	cfg, err := league.RuleSet.Rules()
	if err != nil {
		// The config was validated on write; failing here is a data bug.
		return nil, nil, fmt.Errorf("stored rule set %d is invalid: %w", league.RuleSetID, err)
	}
	return &league, cfg, nil
}

// teamConfig loads a team together with its league's parsed rule set.
func (s *SeasonService) teamConfig(teamID uint) (*models.Team, *models.League, *rules.RuleSetConfig, error) {
	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, newLineupError(LineupNotFound, "team %d not found", teamID)
		}
		return nil, nil, nil, fmt.Errorf("failed to load team: %w", err)
	}
	league, cfg, err := s.leagueConfig(team.LeagueID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &team, league, cfg, nil
}

// ProvisionRoster creates the team's athletes from the rule set: one per
// starter slot unit plus the bench. Safe to call once at team creation.
func (s *SeasonService) ProvisionRoster(team *models.Team, cfg *rules.RuleSetConfig) error {
	athletes := make([]models.Athlete, 0, rules.TotalRosterSize(cfg))
	for _, slot := range cfg.Roster.StarterSlots {
		for i := 0; i < slot.Count; i++ {
			athletes = append(athletes, models.Athlete{
				TeamID:   team.ID,
				Name:     fmt.Sprintf("%s %d", slot.Label, i+1),
				Position: slot.Key,
			})
		}
	}
	for i := 0; i < cfg.Roster.BenchSlots; i++ {
		athletes = append(athletes, models.Athlete{
			TeamID:   team.ID,
			Name:     fmt.Sprintf("Reserve %d", i+1),
			Position: "BENCH",
		})
	}
	if err := s.db.Create(&athletes).Error; err != nil {
		return fmt.Errorf("failed to provision roster: %w", err)
	}
	return nil
}

// EnsureLineup upserts the required slot set for a team/week: the desired
// set is exactly rules.DeriveStarterSlots(config), existing slots are never
// duplicated or cleared, and only the missing difference is created. Safe
// under retries.
func (s *SeasonService) EnsureLineup(teamID uint, week int) (*models.Lineup, error) {
	_, _, cfg, err := s.teamConfig(teamID)
	if err != nil {
		return nil, err
	}
	if week < 1 || week > cfg.Schedule.Weeks {
		return nil, newLineupError(LineupNotFound, "week %d is outside the season (1-%d)", week, cfg.Schedule.Weeks)
	}

	var lineup models.Lineup
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("team_id = ? AND week = ?", teamID, week).First(&lineup).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			lineup = models.Lineup{TeamID: teamID, Week: week, Status: models.LineupStatusOpen}
			if err := tx.Create(&lineup).Error; err != nil {
				return fmt.Errorf("failed to create lineup: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to load lineup: %w", err)
		}

		var existing []models.LineupSlot
		if err := tx.Where("lineup_id = ?", lineup.ID).Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load slots: %w", err)
		}
		have := make(map[string]bool, len(existing))
		for _, slot := range existing {
			have[slotIdentity(slot.SlotKey, slot.SlotIndex)] = true
		}

		var missing []models.LineupSlot
		for _, want := range rules.DeriveStarterSlots(cfg) {
			if have[slotIdentity(want.SlotKey, want.SlotIndex)] {
				continue
			}
			missing = append(missing, models.LineupSlot{
				LineupID:  lineup.ID,
				SlotKey:   want.SlotKey,
				SlotIndex: want.SlotIndex,
				Label:     want.Label,
			})
		}
		if len(missing) > 0 {
			if err := tx.Create(&missing).Error; err != nil {
				return fmt.Errorf("failed to create slots: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadSlots(&lineup, cfg); err != nil {
		return nil, err
	}
	return &lineup, nil
}

// loadSlots attaches the lineup's slots in canonical order: declaration
// order, then slot index.
func (s *SeasonService) loadSlots(lineup *models.Lineup, cfg *rules.RuleSetConfig) error {
	var slots []models.LineupSlot
	if err := s.db.Preload("Athlete").Where("lineup_id = ?", lineup.ID).Find(&slots).Error; err != nil {
		return fmt.Errorf("failed to load slots: %w", err)
	}
	rank := make(map[string]int, len(slots))
	for i, want := range rules.DeriveStarterSlots(cfg) {
		rank[slotIdentity(want.SlotKey, want.SlotIndex)] = i
	}
	sort.SliceStable(slots, func(i, j int) bool {
		return rank[slotIdentity(slots[i].SlotKey, slots[i].SlotIndex)] <
			rank[slotIdentity(slots[j].SlotKey, slots[j].SlotIndex)]
	})
	lineup.Slots = slots
	return nil
}

func slotIdentity(key string, index int) string {
	return fmt.Sprintf("%s#%d", key, index)
}

// updateSlotAthlete writes athlete_id against a bare model keyed by ID.
// Slots coming out of loadSlots carry a preloaded Athlete, and gorm's
// save-associations callback would restore athlete_id from that struct,
// silently undoing the write.
func (s *SeasonService) updateSlotAthlete(slotID uint, athleteID *uint) error {
	return s.db.Model(&models.LineupSlot{ID: slotID}).Update("athlete_id", athleteID).Error
}

// SetSlot assigns an athlete to a lineup slot on behalf of actorID.
func (s *SeasonService) SetSlot(actorID, teamID uint, week int, slotKey string, slotIndex int, athleteID uint) (*models.Lineup, error) {
	team, _, cfg, err := s.teamConfig(teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, newLineupError(LineupForbidden, "team %d is not owned by user %d", teamID, actorID)
	}

	lineup, err := s.EnsureLineup(teamID, week)
	if err != nil {
		return nil, err
	}
	if lineup.IsLocked() {
		return nil, newLineupError(LineupLocked, "lineup for week %d is locked", week)
	}

	var target *models.LineupSlot
	for i := range lineup.Slots {
		if lineup.Slots[i].SlotKey == slotKey && lineup.Slots[i].SlotIndex == slotIndex {
			target = &lineup.Slots[i]
			break
		}
	}
	if target == nil {
		return nil, newLineupError(LineupNotFound, "slot %s[%d] does not exist", slotKey, slotIndex)
	}

	var athlete models.Athlete
	if err := s.db.First(&athlete, athleteID).Error; err != nil || athlete.TeamID != teamID {
		return nil, newLineupError(LineupBadAthlete, "athlete %d does not belong to team %d", athleteID, teamID)
	}
	for _, slot := range lineup.Slots {
		if slot.AthleteID != nil && *slot.AthleteID == athleteID && slot.ID != target.ID {
			return nil, newLineupError(LineupDuplicate, "athlete %d already fills slot %s[%d]", athleteID, slot.SlotKey, slot.SlotIndex)
		}
	}

	if err := s.updateSlotAthlete(target.ID, &athleteID); err != nil {
		return nil, fmt.Errorf("failed to assign slot: %w", err)
	}
	if err := s.loadSlots(lineup, cfg); err != nil {
		return nil, err
	}
	return lineup, nil
}

// ClearSlot empties a lineup slot on behalf of actorID.
func (s *SeasonService) ClearSlot(actorID, teamID uint, week int, slotKey string, slotIndex int) (*models.Lineup, error) {
	team, _, cfg, err := s.teamConfig(teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, newLineupError(LineupForbidden, "team %d is not owned by user %d", teamID, actorID)
	}

	lineup, err := s.EnsureLineup(teamID, week)
	if err != nil {
		return nil, err
	}
	if lineup.IsLocked() {
		return nil, newLineupError(LineupLocked, "lineup for week %d is locked", week)
	}

	cleared := false
	for i := range lineup.Slots {
		slot := &lineup.Slots[i]
		if slot.SlotKey == slotKey && slot.SlotIndex == slotIndex {
			if err := s.updateSlotAthlete(slot.ID, nil); err != nil {
				return nil, fmt.Errorf("failed to clear slot: %w", err)
			}
			cleared = true
			break
		}
	}
	if !cleared {
		return nil, newLineupError(LineupNotFound, "slot %s[%d] does not exist", slotKey, slotIndex)
	}
	if err := s.loadSlots(lineup, cfg); err != nil {
		return nil, err
	}
	return lineup, nil
}

// LockLineup transitions a lineup OPEN -> LOCKED. The transition is one-way
// and requires every slot to hold an athlete.
func (s *SeasonService) LockLineup(actorID, teamID uint, week int) (*models.Lineup, error) {
	team, _, _, err := s.teamConfig(teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, newLineupError(LineupForbidden, "team %d is not owned by user %d", teamID, actorID)
	}

	lineup, err := s.EnsureLineup(teamID, week)
	if err != nil {
		return nil, err
	}
	if lineup.IsLocked() {
		return lineup, nil
	}
	if !lineup.IsComplete() {
		return nil, newLineupError(LineupIncomplete, "lineup for week %d has unfilled slots", week)
	}

	if err := s.db.Model(lineup).Update("status", models.LineupStatusLocked).Error; err != nil {
		return nil, fmt.Errorf("failed to lock lineup: %w", err)
	}
	lineup.Status = models.LineupStatusLocked
	return lineup, nil
}

// GenerateSchedule replaces the league's fixture list with a fresh
// round-robin over its teams in creation order. Regeneration is rejected
// once any matchup has a result.
func (s *SeasonService) GenerateSchedule(actorID, leagueID uint) ([]models.Matchup, error) {
	league, cfg, err := s.leagueConfig(leagueID)
	if err != nil {
		return nil, err
	}
	if league.CommissionerID != actorID {
		return nil, newLineupError(LineupForbidden, "only the commissioner can generate the schedule")
	}

	frozen, err := s.hasAnyResult(leagueID)
	if err != nil {
		return nil, err
	}
	if frozen {
		return nil, ErrScheduleFrozen
	}

	var teams []models.Team
	if err := s.db.Where("league_id = ?", leagueID).Order("id asc").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	teamIDs := make([]uint, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}

	fixtures := rules.GenerateRoundRobin(teamIDs, cfg.Schedule.Weeks)
	matchups := make([]models.Matchup, len(fixtures))
	for i, f := range fixtures {
		matchups[i] = models.Matchup{
			LeagueID:   leagueID,
			Week:       f.Week,
			HomeTeamID: f.HomeTeamID,
			AwayTeamID: f.AwayTeamID,
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("league_id = ?", leagueID).Delete(&models.Matchup{}).Error; err != nil {
			return fmt.Errorf("failed to clear schedule: %w", err)
		}
		if len(matchups) == 0 {
			return nil
		}
		if err := tx.Create(&matchups).Error; err != nil {
			return fmt.Errorf("failed to persist schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"league_id": leagueID,
		"teams":     len(teamIDs),
		"fixtures":  len(matchups),
	}).Info("Schedule generated")
	return matchups, nil
}

func (s *SeasonService) hasAnyResult(leagueID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.MatchupResult{}).
		Joins("JOIN matchups ON matchups.id = matchup_results.matchup_id").
		Where("matchups.league_id = ?", leagueID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count results: %w", err)
	}
	return count > 0, nil
}

// SimulateMatchup resolves a matchup to a final score, at most once. A
// second invocation returns the stored result unchanged. The invoking
// team's lineup must be complete; the opponent's is auto-filled from unused
// roster athletes in ascending athlete ID order so the matchup stays
// playable.
func (s *SeasonService) SimulateMatchup(actorID, matchupID uint) (*models.MatchupResult, error) {
	var matchup models.Matchup
	if err := s.db.First(&matchup, matchupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newLineupError(LineupNotFound, "matchup %d not found", matchupID)
		}
		return nil, fmt.Errorf("failed to load matchup: %w", err)
	}

	var existing models.MatchupResult
	err := s.db.Where("matchup_id = ?", matchupID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for result: %w", err)
	}

	league, cfg, err := s.leagueConfig(matchup.LeagueID)
	if err != nil {
		return nil, err
	}

	invoking, opponent, err := s.resolveSides(actorID, league, &matchup)
	if err != nil {
		return nil, err
	}

	invokingLineup, err := s.EnsureLineup(invoking, matchup.Week)
	if err != nil {
		return nil, err
	}
	if !invokingLineup.IsComplete() {
		return nil, newLineupError(LineupIncomplete, "lineup for team %d week %d has unfilled slots", invoking, matchup.Week)
	}

	opponentLineup, err := s.EnsureLineup(opponent, matchup.Week)
	if err != nil {
		return nil, err
	}
	if err := s.autoFillLineup(opponentLineup, opponent); err != nil {
		return nil, err
	}

	lineups := map[uint]*models.Lineup{invoking: invokingLineup, opponent: opponentLineup}
	homeScore, err := s.scoreLineup(cfg, league.ID, matchup.Week, lineups[matchup.HomeTeamID])
	if err != nil {
		return nil, err
	}
	awayScore, err := s.scoreLineup(cfg, league.ID, matchup.Week, lineups[matchup.AwayTeamID])
	if err != nil {
		return nil, err
	}

	result := &models.MatchupResult{
		MatchupID: matchupID,
		HomeScore: homeScore,
		AwayScore: awayScore,
	}
	if err := s.db.Create(result).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost the race to a concurrent simulation; its result wins.
			if err := s.db.Where("matchup_id = ?", matchupID).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("failed to load winning result: %w", err)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to persist result: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"matchup_id": matchupID,
		"home_score": homeScore,
		"away_score": awayScore,
	}).Info("Matchup simulated")

	s.InvalidateStandings(matchup.LeagueID)
	if s.notify != nil {
		s.notify.MatchupFinal(&matchup, result)
	}
	return result, nil
}

// resolveSides picks which team is invoking the simulation. The actor must
// own one of the two teams; the commissioner simulates from the home side.
func (s *SeasonService) resolveSides(actorID uint, league *models.League, matchup *models.Matchup) (invoking, opponent uint, err error) {
	var teams []models.Team
	if err := s.db.Where("id IN ?", []uint{matchup.HomeTeamID, matchup.AwayTeamID}).Find(&teams).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load matchup teams: %w", err)
	}
	for _, t := range teams {
		if t.OwnerID == actorID {
			if t.ID == matchup.HomeTeamID {
				return matchup.HomeTeamID, matchup.AwayTeamID, nil
			}
			return matchup.AwayTeamID, matchup.HomeTeamID, nil
		}
	}
	if league.CommissionerID == actorID {
		return matchup.HomeTeamID, matchup.AwayTeamID, nil
	}
	return 0, 0, newLineupError(LineupForbidden, "user %d owns neither team in matchup %d", actorID, matchup.ID)
}

// autoFillLineup assigns unused roster athletes to empty slots in ascending
// athlete ID order. Locked lineups are complete already and pass through.
func (s *SeasonService) autoFillLineup(lineup *models.Lineup, teamID uint) error {
	if lineup.IsLocked() || lineup.IsComplete() {
		return nil
	}

	var athletes []models.Athlete
	if err := s.db.Where("team_id = ?", teamID).Order("id asc").Find(&athletes).Error; err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}
	used := make(map[uint]bool)
	for _, id := range lineup.AssignedAthleteIDs() {
		used[id] = true
	}

	next := 0
	for i := range lineup.Slots {
		slot := &lineup.Slots[i]
		if slot.AthleteID != nil {
			continue
		}
		for next < len(athletes) && used[athletes[next].ID] {
			next++
		}
		if next >= len(athletes) {
			break // roster exhausted; remaining slots score zero
		}
		id := athletes[next].ID
		if err := s.updateSlotAthlete(slot.ID, &id); err != nil {
			return fmt.Errorf("failed to auto-fill slot: %w", err)
		}
		slot.AthleteID = &id
		used[id] = true
	}
	return nil
}

// scoreLineup totals the fantasy points of every filled slot.
func (s *SeasonService) scoreLineup(cfg *rules.RuleSetConfig, leagueID uint, week int, lineup *models.Lineup) (float64, error) {
	total := 0.0
	for _, slot := range lineup.Slots {
		if slot.AthleteID == nil {
			continue
		}
		line, err := s.statLineFor(cfg, leagueID, week, *slot.AthleteID)
		if err != nil {
			return 0, err
		}
		total += rules.Score(cfg, line)
	}
	return total, nil
}

// statLineFor returns the athlete's stat line for the week, generating and
// persisting it on first use. The seed is "leagueID:week:athleteID", so a
// regenerated line is always identical and losing a creation race is
// harmless.
func (s *SeasonService) statLineFor(cfg *rules.RuleSetConfig, leagueID uint, week int, athleteID uint) (map[string]float64, error) {
	ctx := context.Background()
	cacheKey := StatLineCacheKey(leagueID, week, athleteID)
	if s.cache != nil {
		var cached map[string]float64
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var row models.StatLine
	err := s.db.Where("league_id = ? AND week = ? AND athlete_id = ?", leagueID, week, athleteID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed := fmt.Sprintf("%d:%d:%d", leagueID, week, athleteID)
		line := rules.SimulateStatLine(cfg, seed)
		raw, err := json.Marshal(line)
		if err != nil {
			return nil, fmt.Errorf("failed to encode stat line: %w", err)
		}
		row = models.StatLine{LeagueID: leagueID, Week: week, AthleteID: athleteID, Stats: raw}
		if err := s.db.Create(&row).Error; err != nil {
			if !isUniqueViolation(err) {
				return nil, fmt.Errorf("failed to persist stat line: %w", err)
			}
			// Concurrent generation produced the same deterministic line.
		}
		s.cacheStatLine(ctx, cacheKey, line)
		return line, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stat line: %w", err)
	}

	line, err := row.StatValues()
	if err != nil {
		return nil, fmt.Errorf("stored stat line %d is corrupt: %w", row.ID, err)
	}
	s.cacheStatLine(ctx, cacheKey, line)
	return line, nil
}

func (s *SeasonService) cacheStatLine(ctx context.Context, key string, line map[string]float64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, line, s.statLineTTL); err != nil {
		s.logger.Warnf("Failed to cache stat line %s: %v", key, err)
	}
}

// AdvanceWeek bumps the league's current week, clamped to the season
// length. Commissioner only.
func (s *SeasonService) AdvanceWeek(actorID, leagueID uint) (*models.League, error) {
	league, cfg, err := s.leagueConfig(leagueID)
	if err != nil {
		return nil, err
	}
	if league.CommissionerID != actorID {
		return nil, newLineupError(LineupForbidden, "only the commissioner can advance the week")
	}

	next := league.CurrentWeek + 1
	if next > cfg.Schedule.Weeks {
		next = cfg.Schedule.Weeks
	}
	if next < 1 {
		next = 1
	}
	if err := s.db.Model(league).Update("current_week", next).Error; err != nil {
		return nil, fmt.Errorf("failed to advance week: %w", err)
	}
	league.CurrentWeek = next
	return league, nil
}

// isUniqueViolation detects a unique-constraint conflict from Postgres
// (class 23505) or sqlite (used by the test suite).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
