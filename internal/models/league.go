package models

import (
	"time"
)

// League ties a set of teams to exactly one RuleSet and tracks the week the
// season is currently in. CurrentWeek is always clamped to
// [1, config.schedule.weeks].
type League struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ExternalRef    string    `gorm:"type:uuid;uniqueIndex" json:"external_ref"`
	Name           string    `gorm:"not null" json:"name"`
	RuleSetID      uint      `gorm:"not null;index" json:"rule_set_id"`
	CommissionerID uint      `gorm:"not null" json:"commissioner_id"`
	CurrentWeek    int       `gorm:"not null;default:1" json:"current_week"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	RuleSet RuleSet `gorm:"foreignKey:RuleSetID" json:"rule_set,omitempty"`
	Teams   []Team  `gorm:"foreignKey:LeagueID" json:"teams,omitempty"`
}

func (League) TableName() string {
	return "leagues"
}

// Team belongs to exactly one league. Name uniqueness is scoped per league.
type Team struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LeagueID    uint      `gorm:"not null;uniqueIndex:idx_league_team_name" json:"league_id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Name        string    `gorm:"not null;uniqueIndex:idx_league_team_name" json:"name"`
	NotifyPhone string    `json:"notify_phone,omitempty"` // optional, for matchup-final notices
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Athletes []Athlete `gorm:"foreignKey:TeamID" json:"athletes,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

// Athlete is a rostered player. Athletes are provisioned from the team's
// rule set (one per roster unit) and never move between teams.
type Athlete struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"not null;index" json:"team_id"`
	Name      string    `gorm:"not null" json:"name"`
	Position  string    `gorm:"not null" json:"position"` // slot key, or "BENCH"
	CreatedAt time.Time `json:"created_at"`
}

func (Athlete) TableName() string {
	return "athletes"
}
