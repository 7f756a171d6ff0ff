// Package model defines the core domain types for the team scheduling system.
package model

import "time"

// DefaultCapacity is the maximum number of members a team can hold.
const DefaultCapacity = 6

// CodeLength is the fixed length of a team code.
const CodeLength = 10

// Gamer is a registered player who can create and join teams.
type Gamer struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Team is a group of gamers identified by a short join code.
type Team struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Remaining returns the number of open member spots.
func (t *Team) Remaining() int {
	return t.Capacity - t.MemberCount
}

// IsFull returns true when no spots remain.
func (t *Team) IsFull() bool {
	return t.MemberCount >= t.Capacity
}

// Membership relates one gamer to one team. (GamerID, TeamCode) is unique.
type Membership struct {
	GamerID  string    `json:"gamer_id"`
	TeamCode string    `json:"team_code"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joined_at"`
}

// JoinResult is the outcome of a join attempt. Joined is false when the
// gamer was already a member of the team.
type JoinResult struct {
	Team   *Team `json:"team"`
	Joined bool  `json:"joined"`
}

// TeamDetail is a team together with its current members.
type TeamDetail struct {
	Team    *Team        `json:"team"`
	Members []Membership `json:"members"`
}

// MemberColors is the palette used to tell members apart on the calendar.
// It has one entry per seat of a default-capacity team.
var MemberColors = []string{
	"#e6194b",
	"#3cb44b",
	"#4363d8",
	"#f58231",
	"#911eb4",
	"#42d4f4",
}

// NextColor returns the first palette color not present in used. When every
// color is taken it wraps around based on the number of used colors.
func NextColor(used []string) string {
	taken := make(map[string]bool, len(used))
	for _, c := range used {
		taken[c] = true
	}
	for _, c := range MemberColors {
		if !taken[c] {
			return c
		}
	}
	return MemberColors[len(used)%len(MemberColors)]
}

// RegisterGamerRequest is the payload for registering a gamer.
type RegisterGamerRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

// CreateTeamRequest is the payload for creating a new team.
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// JoinTeamRequest is the payload for joining a team by code.
type JoinTeamRequest struct {
	Code string `json:"code" validate:"required,len=10,alphanum"`
}

// SetAvailabilityRequest marks [StartHour, StopHour) on Day as available or not.
type SetAvailabilityRequest struct {
	Day       int  `json:"day" validate:"min=1,max=7"`
	StartHour int  `json:"start_hour" validate:"min=0,max=24"`
	StopHour  int  `json:"stop_hour" validate:"min=0,max=24"`
	Available bool `json:"available"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
