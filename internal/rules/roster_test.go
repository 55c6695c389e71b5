package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStarterSlots_ExpansionOrder(t *testing.T) {
	cfg := &RuleSetConfig{
		Roster: RosterConfig{
			StarterSlots: []StarterSlot{
				{Key: "A", Label: "Alpha", Count: 3},
				{Key: "B", Label: "Bravo", Count: 2},
			},
			BenchSlots: 3,
		},
	}

	instances := DeriveStarterSlots(cfg)
	expected := []StarterSlotInstance{
		{SlotKey: "A", SlotIndex: 0, Label: "Alpha"},
		{SlotKey: "A", SlotIndex: 1, Label: "Alpha"},
		{SlotKey: "A", SlotIndex: 2, Label: "Alpha"},
		{SlotKey: "B", SlotIndex: 0, Label: "Bravo"},
		{SlotKey: "B", SlotIndex: 1, Label: "Bravo"},
	}
	assert.Equal(t, expected, instances)
}

func TestTotalRosterSize(t *testing.T) {
	cfg := &RuleSetConfig{
		Roster: RosterConfig{
			StarterSlots: []StarterSlot{
				{Key: "A", Label: "Alpha", Count: 3},
				{Key: "B", Label: "Bravo", Count: 2},
			},
			BenchSlots: 3,
		},
	}

	assert.Equal(t, 8, TotalRosterSize(cfg))
}

func TestTotalRosterSize_NoBench(t *testing.T) {
	cfg := &RuleSetConfig{
		Roster: RosterConfig{
			StarterSlots: []StarterSlot{{Key: "P", Label: "Player", Count: 5}},
		},
	}

	assert.Equal(t, 5, TotalRosterSize(cfg))
}
