package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func viewWith(members []string, free map[Slot][]string) *ConsensusView {
	v := &ConsensusView{TeamCode: "AbCdEfGhIj", Members: members, Cells: make([]ConsensusCell, SlotsPerWeek)}
	for i := range v.Cells {
		s := SlotAt(i)
		ids := free[s]
		if ids == nil {
			ids = []string{}
		}
		v.Cells[i] = ConsensusCell{Slot: s, AvailableMembers: ids, AllAvailable: len(members) > 0 && len(ids) == len(members)}
	}
	return v
}

func TestConsensusView_ConsensusSlots(t *testing.T) {
	v := viewWith([]string{"a", "b"}, map[Slot][]string{
		{Monday, 19}:   {"a", "b"},
		{Monday, 20}:   {"a"},
		{Saturday, 15}: {"a", "b"},
	})

	assert.Equal(t, []Slot{{Monday, 19}, {Saturday, 15}}, v.ConsensusSlots())
	assert.True(t, v.AllAvailable(Monday, 19))
	assert.False(t, v.AllAvailable(Monday, 20))
	assert.Equal(t, []string{"a"}, v.AvailableMembers(Monday, 20))
}

func TestConsensusView_BestSlots(t *testing.T) {
	v := viewWith([]string{"a", "b", "c"}, map[Slot][]string{
		{Monday, 18}:   {"a"},
		{Monday, 19}:   {"a", "b", "c"},
		{Tuesday, 2}:   {"b", "c"},
		{Saturday, 10}: {"a", "b", "c"},
	})

	best := v.BestSlots(10)
	slots := make([]Slot, 0, len(best))
	for _, c := range best {
		slots = append(slots, c.Slot)
	}
	assert.Equal(t, []Slot{{Monday, 19}, {Saturday, 10}, {Tuesday, 2}, {Monday, 18}}, slots)

	assert.Len(t, v.BestSlots(2), 2)
	assert.Empty(t, v.BestSlots(0))
}

func TestConsensusView_EmptyMembers(t *testing.T) {
	v := viewWith([]string{}, nil)
	assert.Empty(t, v.ConsensusSlots())
	assert.Empty(t, v.BestSlots(10))
}

func TestNextColor(t *testing.T) {
	assert.Equal(t, MemberColors[0], NextColor(nil))
	assert.Equal(t, MemberColors[1], NextColor([]string{MemberColors[0]}))
	assert.Equal(t, MemberColors[0], NextColor([]string{MemberColors[1], MemberColors[2]}))
	assert.Equal(t, MemberColors[0], NextColor(MemberColors))
}

func TestTeam_Capacity(t *testing.T) {
	team := &Team{Capacity: DefaultCapacity, MemberCount: 5}
	assert.Equal(t, 1, team.Remaining())
	assert.False(t, team.IsFull())

	team.MemberCount++
	assert.Zero(t, team.Remaining())
	assert.True(t, team.IsFull())
}
