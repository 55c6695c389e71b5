package rules

// RuleSetConfig is the declarative rule set for a sport template. Roster
// shape, scoring weights, and schedule length are all data here; there is no
// per-sport code path anywhere in the engine.
type RuleSetConfig struct {
	Roster   RosterConfig   `json:"roster"`
	Scoring  ScoringConfig  `json:"scoring"`
	Schedule ScheduleConfig `json:"schedule"`
	Matchup  MatchupConfig  `json:"matchup"`
}

// RosterConfig declares the starter slots and bench size for a roster.
type RosterConfig struct {
	StarterSlots []StarterSlot `json:"starterSlots"`
	BenchSlots   int           `json:"benchSlots"`
}

// StarterSlot declares a named position requiring Count distinct athletes.
type StarterSlot struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ScoringConfig declares the stat categories and the weights that reduce a
// stat line to fantasy points.
type ScoringConfig struct {
	Stats []StatDef     `json:"stats"`
	Rules []ScoringRule `json:"rules"`
}

// StatDef declares one stat category with its simulation bounds.
type StatDef struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Decimals int     `json:"decimals"`
}

// ScoringRule awards PointsPerUnit for each unit of the referenced stat.
// Negative weights (turnovers, penalty minutes) are allowed.
type ScoringRule struct {
	StatKey       string  `json:"statKey"`
	PointsPerUnit float64 `json:"pointsPerUnit"`
}

// ScheduleConfig declares the schedule shape for a season.
type ScheduleConfig struct {
	Type  string `json:"type"`
	Weeks int    `json:"weeks"`
}

// MatchupConfig declares how two lineups are resolved against each other.
type MatchupConfig struct {
	Format string `json:"format"`
}

// Supported schedule types and matchup formats.
const (
	ScheduleTypeRoundRobin = "roundRobin"
	MatchupFormatH2HPoints = "H2H_POINTS"
)

// StatKeys returns the declared stat keys in declaration order.
func (c *ScoringConfig) StatKeys() []string {
	keys := make([]string, len(c.Stats))
	for i, s := range c.Stats {
		keys[i] = s.Key
	}
	return keys
}
