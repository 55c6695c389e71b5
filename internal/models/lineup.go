package models

import (
	"time"
)

// Lineup lock states. OPEN -> LOCKED is one-way; there is no unlock.
const (
	LineupStatusOpen   = "OPEN"
	LineupStatusLocked = "LOCKED"
)

// Lineup is a team's slot assignments for one week, uniquely keyed by
// (team_id, week).
type Lineup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"not null;uniqueIndex:idx_team_week" json:"team_id"`
	Week      int       `gorm:"not null;uniqueIndex:idx_team_week" json:"week"`
	Status    string    `gorm:"not null;default:OPEN" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Slots []LineupSlot `gorm:"foreignKey:LineupID" json:"slots,omitempty"`
}

func (Lineup) TableName() string {
	return "lineups"
}

// IsLocked reports whether slot mutation is still permitted.
func (l *Lineup) IsLocked() bool {
	return l.Status == LineupStatusLocked
}

// IsComplete reports whether every starter slot holds an athlete.
func (l *Lineup) IsComplete() bool {
	for _, slot := range l.Slots {
		if slot.AthleteID == nil {
			return false
		}
	}
	return len(l.Slots) > 0
}

// AssignedAthleteIDs returns the athlete IDs currently filling slots.
func (l *Lineup) AssignedAthleteIDs() []uint {
	var ids []uint
	for _, slot := range l.Slots {
		if slot.AthleteID != nil {
			ids = append(ids, *slot.AthleteID)
		}
	}
	return ids
}

// LineupSlot is one unit of a starter slot declaration, uniquely keyed by
// (lineup_id, slot_key, slot_index). AthleteID is nil while the slot is
// unfilled.
type LineupSlot struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	LineupID  uint   `gorm:"not null;uniqueIndex:idx_lineup_slot" json:"lineup_id"`
	SlotKey   string `gorm:"not null;uniqueIndex:idx_lineup_slot" json:"slot_key"`
	SlotIndex int    `gorm:"not null;uniqueIndex:idx_lineup_slot" json:"slot_index"`
	Label     string `gorm:"not null" json:"label"`
	AthleteID *uint  `gorm:"index" json:"athlete_id,omitempty"`

	Athlete *Athlete `gorm:"foreignKey:AthleteID" json:"athlete,omitempty"`
}

func (LineupSlot) TableName() string {
	return "lineup_slots"
}
