package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlot_Index(t *testing.T) {
	tests := []struct {
		slot Slot
		want int
	}{
		{Slot{Day: Monday, Hour: 0}, 0},
		{Slot{Day: Monday, Hour: 23}, 23},
		{Slot{Day: Tuesday, Hour: 0}, 24},
		{Slot{Day: Tuesday, Hour: 9}, 33},
		{Slot{Day: Sunday, Hour: 23}, SlotsPerWeek - 1},
	}

	for _, tt := range tests {
		t.Run(tt.slot.Day.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.slot.Index())
			assert.Equal(t, tt.slot, SlotAt(tt.want))
		})
	}
}

func TestWeekday(t *testing.T) {
	assert.False(t, Weekday(0).Valid())
	assert.True(t, Monday.Valid())
	assert.True(t, Sunday.Valid())
	assert.False(t, Weekday(8).Valid())

	assert.Equal(t, "Wednesday", Wednesday.String())
	assert.Equal(t, "Weekday(9)", Weekday(9).String())
}

func TestValidRange(t *testing.T) {
	tests := []struct {
		name        string
		day         Weekday
		start, stop int
		want        bool
	}{
		{"single hour", Monday, 9, 10, true},
		{"whole day", Sunday, 0, 24, true},
		{"empty", Monday, 9, 9, false},
		{"reversed", Tuesday, 12, 9, false},
		{"negative start", Monday, -1, 3, false},
		{"stop past midnight", Monday, 20, 25, false},
		{"day zero", Weekday(0), 9, 10, false},
		{"day eight", Weekday(8), 9, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidRange(tt.day, tt.start, tt.stop))
		})
	}
}

func TestGrid_SetRange(t *testing.T) {
	var g Grid
	g.SetRange(Tuesday, 9, 12, true)

	assert.Equal(t, 3, g.Count())
	for h := 0; h < HoursPerDay; h++ {
		assert.Equal(t, h >= 9 && h < 12, g.Get(Tuesday, h), "tuesday hour %d", h)
	}
	assert.False(t, g.Get(Monday, 9))
	assert.False(t, g.Get(Wednesday, 9))

	assert.Equal(t, []Slot{{Tuesday, 9}, {Tuesday, 10}, {Tuesday, 11}}, g.Available())

	g.SetRange(Tuesday, 10, 11, false)
	assert.Equal(t, []Slot{{Tuesday, 9}, {Tuesday, 11}}, g.Available())
}

func TestGrid_ZeroValue(t *testing.T) {
	var g Grid
	assert.Zero(t, g.Count())
	assert.Empty(t, g.Available())
	assert.Len(t, g.Bools(), SlotsPerWeek)
}

func TestGrid_Bools(t *testing.T) {
	var g Grid
	g.Set(Sunday, 23, true)

	b := g.Bools()
	assert.True(t, b[SlotsPerWeek-1])

	back, err := GridFromBools(b)
	require.NoError(t, err)
	assert.Equal(t, g, back)

	_, err = GridFromBools(make([]bool, 24))
	assert.Error(t, err)
}

func TestGrid_Binary(t *testing.T) {
	var g Grid
	g.SetRange(Monday, 18, 21, true)
	g.Set(Sunday, 23, true)

	raw, err := g.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, raw, 21)

	var back Grid
	require.NoError(t, back.UnmarshalBinary(raw))
	assert.Equal(t, g, back)

	assert.Error(t, back.UnmarshalBinary(raw[:20]))
}

func TestGrid_JSON(t *testing.T) {
	var g Grid
	g.Set(Friday, 20, true)

	raw, err := json.Marshal(g)
	require.NoError(t, err)

	var days [][]bool
	require.NoError(t, json.Unmarshal(raw, &days))
	require.Len(t, days, DaysPerWeek)
	for _, hours := range days {
		assert.Len(t, hours, HoursPerDay)
	}
	assert.True(t, days[4][20])

	var back Grid
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, g, back)

	assert.Error(t, json.Unmarshal([]byte(`[[true]]`), &back))
}
