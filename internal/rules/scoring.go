package rules

// Score reduces a stat line to a fantasy point total: the sum over scoring
// rules of statLine[rule.StatKey] * rule.PointsPerUnit. Stat keys missing
// from the line contribute zero, which tolerates partial or legacy lines.
func Score(cfg *RuleSetConfig, statLine map[string]float64) float64 {
	total := 0.0
	for _, rule := range cfg.Scoring.Rules {
		total += statLine[rule.StatKey] * rule.PointsPerUnit
	}
	return total
}
