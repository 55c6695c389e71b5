package rules

// ScheduledMatchup is one fixture in a generated season schedule. Weeks are
// 1-based.
type ScheduledMatchup struct {
	Week       int  `json:"week"`
	HomeTeamID uint `json:"home_team_id"`
	AwayTeamID uint `json:"away_team_id"`
}

// byePlaceholder pads an odd team set to even cardinality. Real team IDs are
// database IDs and never zero.
const byePlaceholder uint = 0

// GenerateRoundRobin produces a circle-method round-robin schedule for the
// given teams over the given number of weeks. With an odd team count one
// team sits out each week. Fewer than two teams yields no fixtures.
//
// The function is deterministic in its inputs: callers must pass teamIDs in
// a stable order (creation order) since that order drives the pairings.
// When weeks exceeds one full rotation (n-1 rounds) the rotation keeps
// cycling, repeating pairings in the same order.
func GenerateRoundRobin(teamIDs []uint, weeks int) []ScheduledMatchup {
	if len(teamIDs) < 2 || weeks < 1 {
		return nil
	}

	order := make([]uint, len(teamIDs), len(teamIDs)+1)
	copy(order, teamIDs)
	if len(order)%2 == 1 {
		order = append(order, byePlaceholder)
	}
	n := len(order)

	fixtures := make([]ScheduledMatchup, 0, weeks*(n/2))
	for round := 0; round < weeks; round++ {
		for i := 0; i < n/2; i++ {
			a, b := order[i], order[n-1-i]
			if a == byePlaceholder || b == byePlaceholder {
				continue
			}
			// Alternate home designation by round parity to balance
			// home/away counts over a full rotation.
			home, away := a, b
			if round%2 == 1 {
				home, away = b, a
			}
			fixtures = append(fixtures, ScheduledMatchup{
				Week:       round + 1,
				HomeTeamID: home,
				AwayTeamID: away,
			})
		}
		rotate(order)
	}
	return fixtures
}

// rotate advances the circle by one step: position 0 stays fixed, the last
// element moves to position 1, everything else shifts right.
func rotate(order []uint) {
	rest := order[1:]
	if len(rest) < 2 {
		return
	}
	last := rest[len(rest)-1]
	copy(rest[1:], rest[:len(rest)-1])
	rest[0] = last
}
