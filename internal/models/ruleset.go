package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/jstittsworth/leaguecraft/internal/rules"
)

// RuleSet is a named, versionless sport template. Config holds the
// serialized rules.RuleSetConfig; it is validated wholesale on every write
// and never silently repaired.
type RuleSet struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Config      datatypes.JSON `gorm:"type:jsonb;not null" json:"config"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (RuleSet) TableName() string {
	return "rule_sets"
}

// Rules parses and revalidates the stored config. Persisted configs already
// passed validation on write, so an error here indicates external tampering
// with the row.
func (rs *RuleSet) Rules() (*rules.RuleSetConfig, error) {
	return rules.ValidateConfig(rs.Config)
}
