package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/jstittsworth/leaguecraft/internal/models"
)

// StandingRow is one team's season record derived from finalized matchups.
type StandingRow struct {
	TeamID        uint    `json:"team_id"`
	TeamName      string  `json:"team_name"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"points_for"`
	PointsAgainst float64 `json:"points_against"`
}

// Standings computes the league table from matchup results. Ordered by
// wins, then points-for, then team ID for a stable tiebreak.
func (s *SeasonService) Standings(leagueID uint) ([]StandingRow, error) {
	ctx := context.Background()
	cacheKey := StandingsCacheKey(leagueID)
	if s.cache != nil {
		var cached []StandingRow
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var teams []models.Team
	if err := s.db.Where("league_id = ?", leagueID).Order("id asc").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	rows := make(map[uint]*StandingRow, len(teams))
	for _, t := range teams {
		rows[t.ID] = &StandingRow{TeamID: t.ID, TeamName: t.Name}
	}

	var matchups []models.Matchup
	if err := s.db.Preload("Result").Where("league_id = ?", leagueID).Find(&matchups).Error; err != nil {
		return nil, fmt.Errorf("failed to load matchups: %w", err)
	}
	for _, m := range matchups {
		if m.Result == nil {
			continue
		}
		home, away := rows[m.HomeTeamID], rows[m.AwayTeamID]
		if home == nil || away == nil {
			continue
		}
		home.PointsFor += m.Result.HomeScore
		home.PointsAgainst += m.Result.AwayScore
		away.PointsFor += m.Result.AwayScore
		away.PointsAgainst += m.Result.HomeScore
		switch {
		case m.Result.HomeScore > m.Result.AwayScore:
			home.Wins++
			away.Losses++
		case m.Result.HomeScore < m.Result.AwayScore:
			away.Wins++
			home.Losses++
		default:
			home.Ties++
			away.Ties++
		}
	}

	table := make([]StandingRow, 0, len(rows))
	for _, t := range teams {
		table = append(table, *rows[t.ID])
	}
	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Wins != table[j].Wins {
			return table[i].Wins > table[j].Wins
		}
		if table[i].PointsFor != table[j].PointsFor {
			return table[i].PointsFor > table[j].PointsFor
		}
		return table[i].TeamID < table[j].TeamID
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, table, s.standingsTTL); err != nil {
			s.logger.Warnf("Failed to cache standings for league %d: %v", leagueID, err)
		}
	}
	return table, nil
}

// InvalidateStandings drops the cached table after a new result lands.
func (s *SeasonService) InvalidateStandings(leagueID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.Background(), StandingsCacheKey(leagueID)); err != nil {
		s.logger.Warnf("Failed to invalidate standings for league %d: %v", leagueID, err)
	}
}
