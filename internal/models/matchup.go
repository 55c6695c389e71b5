package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Matchup is one scheduled fixture. The set of matchups for a league is
// immutable once any of them has a result; before that it may be
// regenerated wholesale.
type Matchup struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LeagueID   uint      `gorm:"not null;index:idx_league_week" json:"league_id"`
	Week       int       `gorm:"not null;index:idx_league_week" json:"week"`
	HomeTeamID uint      `gorm:"not null" json:"home_team_id"`
	AwayTeamID uint      `gorm:"not null" json:"away_team_id"`
	CreatedAt  time.Time `json:"created_at"`

	Result *MatchupResult `gorm:"foreignKey:MatchupID" json:"result,omitempty"`
}

func (Matchup) TableName() string {
	return "matchups"
}

// MatchupResult locks in a final score. The unique index on MatchupID is the
// at-most-one-result guarantee under concurrent simulation requests.
type MatchupResult struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MatchupID uint      `gorm:"not null;uniqueIndex" json:"matchup_id"`
	HomeScore float64   `gorm:"not null" json:"home_score"`
	AwayScore float64   `gorm:"not null" json:"away_score"`
	CreatedAt time.Time `json:"created_at"`
}

func (MatchupResult) TableName() string {
	return "matchup_results"
}

// StatLine is the cached simulation output for one athlete in one week of
// one league, generated at most once per triple.
type StatLine struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	LeagueID  uint           `gorm:"not null;uniqueIndex:idx_stat_line_triple" json:"league_id"`
	Week      int            `gorm:"not null;uniqueIndex:idx_stat_line_triple" json:"week"`
	AthleteID uint           `gorm:"not null;uniqueIndex:idx_stat_line_triple" json:"athlete_id"`
	Stats     datatypes.JSON `gorm:"type:jsonb;not null" json:"stats"`
	CreatedAt time.Time      `json:"created_at"`
}

func (StatLine) TableName() string {
	return "stat_lines"
}

// StatValues decodes the stored stat mapping.
func (sl *StatLine) StatValues() (map[string]float64, error) {
	var stats map[string]float64
	if err := json.Unmarshal(sl.Stats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
