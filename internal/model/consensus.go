package model

import "slices"

// ConsensusCell is the aggregated availability of one slot across the
// queried members.
type ConsensusCell struct {
	Slot
	AvailableMembers []string `json:"available_members"`
	AllAvailable     bool     `json:"all_available"`
}

// ConsensusView is the derived, never persisted, combination of every
// queried member's grid. Cells holds all SlotsPerWeek cells in (day, hour)
// order.
type ConsensusView struct {
	TeamCode string          `json:"team_code"`
	Members  []string        `json:"members"`
	Cells    []ConsensusCell `json:"cells"`
}

// Cell returns the aggregated cell at day/hour.
func (v *ConsensusView) Cell(day Weekday, hour int) ConsensusCell {
	return v.Cells[Slot{Day: day, Hour: hour}.Index()]
}

// AvailableMembers returns the members free at day/hour, in query order.
func (v *ConsensusView) AvailableMembers(day Weekday, hour int) []string {
	return v.Cell(day, hour).AvailableMembers
}

// AllAvailable reports whether every queried member is free at day/hour.
func (v *ConsensusView) AllAvailable(day Weekday, hour int) bool {
	return v.Cell(day, hour).AllAvailable
}

// ConsensusSlots lists the slots where every member is free, in (day, hour) order.
func (v *ConsensusView) ConsensusSlots() []Slot {
	var slots []Slot
	for _, c := range v.Cells {
		if c.AllAvailable {
			slots = append(slots, c.Slot)
		}
	}
	return slots
}

// BestSlots returns up to n cells with at least one free member, ordered by
// the number of free members (descending) and then by (day, hour).
func (v *ConsensusView) BestSlots(n int) []ConsensusCell {
	var cells []ConsensusCell
	for _, c := range v.Cells {
		if len(c.AvailableMembers) > 0 {
			cells = append(cells, c)
		}
	}
	slices.SortStableFunc(cells, func(a, b ConsensusCell) int {
		return len(b.AvailableMembers) - len(a.AvailableMembers)
	})
	if n >= 0 && len(cells) > n {
		cells = cells[:n]
	}
	return cells
}
