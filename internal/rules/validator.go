package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
)

// Key patterns and numeric bounds for the config schema.
var (
	slotKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,24}$`)
	statKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,32}$`)
)

const (
	maxSlotCount   = 20
	maxBenchSlots  = 50
	maxWeeks       = 52
	maxDecimals    = 3
	maxLabelLength = 48
)

// ValidateConfig parses raw JSON into a RuleSetConfig and checks every
// structural and semantic invariant. The returned error, when non-nil, is
// always a *ConfigError.
func ValidateConfig(raw []byte) (*RuleSetConfig, error) {
	var cfg RuleSetConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
			return nil, newConfigError(ErrKindSchemaViolation, []ConfigIssue{{
				Path:    typeErr.Field,
				Message: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			}})
		}
		return nil, newConfigError(ErrKindMalformedJSON, []ConfigIssue{{
			Message: err.Error(),
		}})
	}
	if err := CheckConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CheckConfig validates an already-parsed config. Schema violations are
// reported before semantic ones; within each kind every issue found in the
// pass is collected rather than failing on the first.
func CheckConfig(cfg *RuleSetConfig) error {
	if issues := checkSchema(cfg); len(issues) > 0 {
		return newConfigError(ErrKindSchemaViolation, issues)
	}
	if issues := checkSemantics(cfg); len(issues) > 0 {
		return newConfigError(ErrKindSemanticViolation, issues)
	}
	return nil
}

func checkSchema(cfg *RuleSetConfig) []ConfigIssue {
	var issues []ConfigIssue
	add := func(path, format string, args ...interface{}) {
		issues = append(issues, ConfigIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if len(cfg.Roster.StarterSlots) == 0 {
		add("roster.starterSlots", "at least one starter slot is required")
	}
	for i, slot := range cfg.Roster.StarterSlots {
		path := fmt.Sprintf("roster.starterSlots[%d]", i)
		if !slotKeyPattern.MatchString(slot.Key) {
			add(path+".key", "key %q must match [A-Za-z0-9_-]{1,24}", slot.Key)
		}
		if len(slot.Label) < 1 || len(slot.Label) > maxLabelLength {
			add(path+".label", "label must be 1-%d characters", maxLabelLength)
		}
		if slot.Count < 1 || slot.Count > maxSlotCount {
			add(path+".count", "count %d must be between 1 and %d", slot.Count, maxSlotCount)
		}
	}
	if cfg.Roster.BenchSlots < 0 || cfg.Roster.BenchSlots > maxBenchSlots {
		add("roster.benchSlots", "benchSlots %d must be between 0 and %d", cfg.Roster.BenchSlots, maxBenchSlots)
	}

	if len(cfg.Scoring.Stats) == 0 {
		add("scoring.stats", "at least one stat is required")
	}
	for i, stat := range cfg.Scoring.Stats {
		path := fmt.Sprintf("scoring.stats[%d]", i)
		if !statKeyPattern.MatchString(stat.Key) {
			add(path+".key", "key %q must match [A-Za-z0-9_.-]{1,32}", stat.Key)
		}
		if len(stat.Label) < 1 || len(stat.Label) > maxLabelLength {
			add(path+".label", "label must be 1-%d characters", maxLabelLength)
		}
		if !isFinite(stat.Min) {
			add(path+".min", "min must be a finite number")
		}
		if !isFinite(stat.Max) {
			add(path+".max", "max must be a finite number")
		}
		if stat.Decimals < 0 || stat.Decimals > maxDecimals {
			add(path+".decimals", "decimals %d must be between 0 and %d", stat.Decimals, maxDecimals)
		}
	}
	for i, rule := range cfg.Scoring.Rules {
		path := fmt.Sprintf("scoring.rules[%d]", i)
		if !statKeyPattern.MatchString(rule.StatKey) {
			add(path+".statKey", "statKey %q must match [A-Za-z0-9_.-]{1,32}", rule.StatKey)
		}
		if !isFinite(rule.PointsPerUnit) {
			add(path+".pointsPerUnit", "pointsPerUnit must be a finite number")
		}
	}

	if cfg.Schedule.Type != ScheduleTypeRoundRobin {
		add("schedule.type", "type %q is not supported; expected %q", cfg.Schedule.Type, ScheduleTypeRoundRobin)
	}
	if cfg.Schedule.Weeks < 1 || cfg.Schedule.Weeks > maxWeeks {
		add("schedule.weeks", "weeks %d must be between 1 and %d", cfg.Schedule.Weeks, maxWeeks)
	}
	if cfg.Matchup.Format != MatchupFormatH2HPoints {
		add("matchup.format", "format %q is not supported; expected %q", cfg.Matchup.Format, MatchupFormatH2HPoints)
	}

	return issues
}

func checkSemantics(cfg *RuleSetConfig) []ConfigIssue {
	var issues []ConfigIssue
	add := func(path, format string, args ...interface{}) {
		issues = append(issues, ConfigIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	seenSlots := make(map[string]bool, len(cfg.Roster.StarterSlots))
	for i, slot := range cfg.Roster.StarterSlots {
		if seenSlots[slot.Key] {
			add(fmt.Sprintf("roster.starterSlots[%d].key", i), "duplicate slot key %q", slot.Key)
		}
		seenSlots[slot.Key] = true
	}

	seenStats := make(map[string]bool, len(cfg.Scoring.Stats))
	for i, stat := range cfg.Scoring.Stats {
		if seenStats[stat.Key] {
			add(fmt.Sprintf("scoring.stats[%d].key", i), "duplicate stat key %q", stat.Key)
		}
		seenStats[stat.Key] = true
		if stat.Min > stat.Max {
			add(fmt.Sprintf("scoring.stats[%d]", i), "min %v exceeds max %v for stat %q", stat.Min, stat.Max, stat.Key)
		}
	}

	for i, rule := range cfg.Scoring.Rules {
		if !seenStats[rule.StatKey] {
			add(fmt.Sprintf("scoring.rules[%d].statKey", i), "scoring rule references undeclared stat %q", rule.StatKey)
		}
	}

	return issues
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
