package rules

// StarterSlotInstance is one concrete lineup slot expanded from a starter
// slot declaration. A declaration with count 3 expands to indexes 0, 1, 2.
// The expansion order (declaration order, then index order) is the canonical
// lineup-slot order used everywhere lineups are displayed or filled.
type StarterSlotInstance struct {
	SlotKey   string `json:"slot_key"`
	SlotIndex int    `json:"slot_index"`
	Label     string `json:"label"`
}

// DeriveStarterSlots expands the roster section of a validated config into
// concrete slot instances.
func DeriveStarterSlots(cfg *RuleSetConfig) []StarterSlotInstance {
	var instances []StarterSlotInstance
	for _, slot := range cfg.Roster.StarterSlots {
		for i := 0; i < slot.Count; i++ {
			instances = append(instances, StarterSlotInstance{
				SlotKey:   slot.Key,
				SlotIndex: i,
				Label:     slot.Label,
			})
		}
	}
	return instances
}

// TotalRosterSize is the number of athletes a team must own: every starter
// slot unit plus the bench.
func TotalRosterSize(cfg *RuleSetConfig) int {
	total := cfg.Roster.BenchSlots
	for _, slot := range cfg.Roster.StarterSlots {
		total += slot.Count
	}
	return total
}
