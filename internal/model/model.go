// Package model defines the core domain types for the tournament scoreboard.
package model

import (
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/google/uuid"
)

// Course is an 18-hole layout that tournaments are played on.
// Courses are immutable once created.
type Course struct {
	ID        uuid.UUID
	Name      string
	City      *string
	State     *string
	Country   *string
	Pars      [scoring.Holes]int
	CreatedAt time.Time
}

// FrontNinePar returns par for holes 1-9.
func (c *Course) FrontNinePar() int { return scoring.FrontPar(c.Pars) }

// BackNinePar returns par for holes 10-18.
func (c *Course) BackNinePar() int { return scoring.BackPar(c.Pars) }

// TotalPar returns par for the full round.
func (c *Course) TotalPar() int { return scoring.TotalPar(c.Pars) }

// Location joins the known parts of the course address with ", ".
// It returns "-" when none are set.
func (c *Course) Location() string {
	var parts []string
	for _, p := range []*string{c.City, c.State, c.Country} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// CourseSummary is the light projection used by course pickers.
type CourseSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Tournament is a single competition played on one course.
// AdminCode is only exposed to the organizer who created the tournament.
type Tournament struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CourseID  uuid.UUID `json:"course_id"`
	Code      string    `json:"tournament_code"`
	AdminCode string    `json:"admin_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public returns a copy of the tournament without its admin code.
func (t Tournament) Public() Tournament {
	t.AdminCode = ""
	return t
}

// NewTournament carries the fields a repository needs to insert a tournament.
type NewTournament struct {
	Name      string
	CourseID  uuid.UUID
	Code      string
	AdminCode string
}

// Team is a group of players competing in one tournament.
// A nil hole has not been played yet.
type Team struct {
	ID           uuid.UUID
	TournamentID uuid.UUID
	Name         string
	Holes        [scoring.Holes]*int
	// RejoinHash is the bcrypt hash of the code handed out when the team
	// was created. It is never serialised.
	RejoinHash []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FrontNine returns the sum of played holes 1-9, or nil when none are played.
func (t *Team) FrontNine() *int {
	front, _, _ := scoring.Totals(t.Holes)
	return front
}

// BackNine returns the sum of played holes 10-18, or nil when none are played.
func (t *Team) BackNine() *int {
	_, back, _ := scoring.Totals(t.Holes)
	return back
}

// TotalScore returns the sum of all played holes, or nil when none are played.
func (t *Team) TotalScore() *int {
	_, _, total := scoring.Totals(t.Holes)
	return total
}

// Standing is one leaderboard row: a team scored against its course.
type Standing struct {
	Team    Team
	Summary scoring.Summary
}

// NewStanding scores a team against the given course layout.
func NewStanding(team Team, course *Course) Standing {
	return Standing{Team: team, Summary: scoring.Summarize(team.Holes, course.Pars)}
}

// Snapshot is the raw state a scoreboard is computed from. It is what gets
// cached between polls.
type Snapshot struct {
	Tournament Tournament `json:"tournament"`
	Course     Course     `json:"course"`
	Teams      []Team     `json:"teams"`
}

// Scoreboard is the leaderboard for one tournament.
type Scoreboard struct {
	Tournament             Tournament `json:"tournament"`
	Course                 Course     `json:"course"`
	Teams                  []Standing `json:"teams"`
	RefreshIntervalSeconds int        `json:"refresh_interval_seconds"`
}

// CreateCourseRequest is the payload for adding a course to the catalog.
// Pars are keyed hole_1_par through hole_18_par on the wire.
type CreateCourseRequest struct {
	Name    string
	City    *string
	State   *string
	Country *string
	Pars    [scoring.Holes]*int
}

// CreateTournamentRequest is the payload for creating a tournament.
type CreateTournamentRequest struct {
	Name     string `json:"name"`
	CourseID string `json:"courseId"`
}

// CreateTournamentResponse is returned to the organizer after creation.
type CreateTournamentResponse struct {
	Tournament     Tournament `json:"tournament"`
	TournamentCode string     `json:"tournament_code"`
	AdminCode      string     `json:"admin_code"`
	Token          string     `json:"token"`
}

// ValidateCodeRequest is the payload for checking a join or admin code.
type ValidateCodeRequest struct {
	Code string `json:"code"`
}

// ValidateCodeResponse reports which tournament a code belongs to.
type ValidateCodeResponse struct {
	TournamentID   uuid.UUID `json:"tournamentId"`
	TournamentCode string    `json:"tournamentCode"`
	IsAdmin        bool      `json:"isAdmin"`
	Token          string    `json:"token,omitempty"`
}

// TeamRequest is the payload for checking or creating a team.
type TeamRequest struct {
	TournamentCode string `json:"tournamentCode"`
	TeamName       string `json:"teamName"`
}

// TeamCheckResponse reports whether a team name is already taken.
// It never carries a session token.
type TeamCheckResponse struct {
	Exists bool  `json:"exists"`
	Team   *Team `json:"team,omitempty"`
}

// RejoinRequest is the payload for taking over an existing team from
// another device.
type RejoinRequest struct {
	TournamentCode string `json:"tournamentCode"`
	TeamName       string `json:"teamName"`
	RejoinCode     string `json:"rejoinCode"`
}

// TeamResponse wraps a single team and, on join, its session token.
// RejoinCode is only set in the response that creates the team.
type TeamResponse struct {
	Team       *Team  `json:"team"`
	Token      string `json:"token,omitempty"`
	RejoinCode string `json:"rejoin_code,omitempty"`
}

// UpdateScoreRequest is the payload for recording one hole.
// Pointer fields distinguish a missing value from zero.
type UpdateScoreRequest struct {
	TeamID     string `json:"teamId"`
	HoleNumber *int   `json:"holeNumber"`
	Score      *int   `json:"score"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
