package model

import (
	"encoding/json"
	"fmt"
)

const (
	DaysPerWeek  = 7
	HoursPerDay  = 24
	SlotsPerWeek = DaysPerWeek * HoursPerDay
)

// Weekday is an ISO day of the week, Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Valid reports whether d is in [Monday, Sunday].
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d-1]
}

// Slot is one (day, hour) cell of the weekly grid.
type Slot struct {
	Day  Weekday `json:"day"`
	Hour int     `json:"hour"`
}

// Valid reports whether s addresses a cell inside the grid.
func (s Slot) Valid() bool {
	return s.Day.Valid() && s.Hour >= 0 && s.Hour < HoursPerDay
}

// Index is the dense position of s: (day-1)*24 + hour.
func (s Slot) Index() int {
	return int(s.Day-1)*HoursPerDay + s.Hour
}

// SlotAt is the inverse of Slot.Index.
func SlotAt(i int) Slot {
	return Slot{Day: Weekday(i/HoursPerDay + 1), Hour: i % HoursPerDay}
}

// ValidRange reports whether [start, stop) on day is a well formed hour range.
func ValidRange(day Weekday, start, stop int) bool {
	if !day.Valid() {
		return false
	}
	if start < 0 || start > HoursPerDay || stop < 0 || stop > HoursPerDay {
		return false
	}
	return start < stop
}

// Grid is one member's weekly availability, indexed by Slot.Index.
// The zero value is a fully unavailable week.
type Grid [SlotsPerWeek]bool

// Get returns the availability at day/hour.
func (g *Grid) Get(day Weekday, hour int) bool {
	return g[Slot{Day: day, Hour: hour}.Index()]
}

// Set assigns the availability at day/hour.
func (g *Grid) Set(day Weekday, hour int, v bool) {
	g[Slot{Day: day, Hour: hour}.Index()] = v
}

// SetRange assigns v to every hour in [start, stop) on day. Callers must
// check the range with ValidRange first.
func (g *Grid) SetRange(day Weekday, start, stop int, v bool) {
	base := Slot{Day: day}.Index()
	for h := start; h < stop; h++ {
		g[base+h] = v
	}
}

// Available lists the free slots in (day, hour) order.
func (g *Grid) Available() []Slot {
	var slots []Slot
	for i, v := range g {
		if v {
			slots = append(slots, SlotAt(i))
		}
	}
	return slots
}

// Count returns the number of free slots.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g {
		if v {
			n++
		}
	}
	return n
}

// Bools returns the grid as a flat slice, the layout used by the
// availability.slots column.
func (g *Grid) Bools() []bool {
	out := make([]bool, SlotsPerWeek)
	copy(out, g[:])
	return out
}

// GridFromBools builds a grid from a flat slice of exactly SlotsPerWeek values.
func GridFromBools(b []bool) (Grid, error) {
	var g Grid
	if len(b) != SlotsPerWeek {
		return g, fmt.Errorf("grid: expected %d slots, got %d", SlotsPerWeek, len(b))
	}
	copy(g[:], b)
	return g, nil
}

// MarshalBinary packs the grid into a 21 byte bitset.
func (g Grid) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SlotsPerWeek/8)
	for i, v := range g {
		if v {
			buf[i/8] |= 1 << (i % 8)
		}
	}
	return buf, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (g *Grid) UnmarshalBinary(data []byte) error {
	if len(data) != SlotsPerWeek/8 {
		return fmt.Errorf("grid: expected %d bytes, got %d", SlotsPerWeek/8, len(data))
	}
	for i := range g {
		g[i] = data[i/8]&(1<<(i%8)) != 0
	}
	return nil
}

// MarshalJSON renders the grid as seven rows of 24 hours, Monday first.
func (g Grid) MarshalJSON() ([]byte, error) {
	days := make([][]bool, DaysPerWeek)
	for d := range days {
		days[d] = g[d*HoursPerDay : (d+1)*HoursPerDay]
	}
	return json.Marshal(days)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var days [][]bool
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}
	if len(days) != DaysPerWeek {
		return fmt.Errorf("grid: expected %d days, got %d", DaysPerWeek, len(days))
	}
	for d, hours := range days {
		if len(hours) != HoursPerDay {
			return fmt.Errorf("grid: day %d has %d hours", d+1, len(hours))
		}
		copy(g[d*HoursPerDay:], hours)
	}
	return nil
}
