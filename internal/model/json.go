package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/google/uuid"
)

// Courses and teams store one value per hole. On the wire each hole is its
// own flat key (hole_7_par, hole_7) to stay compatible with existing clients.

const parSuffix = "_par"

func holeKey(n int, suffix string) string {
	return "hole_" + strconv.Itoa(n) + suffix
}

// parseHoleKey extracts the hole number from keys like "hole_12_par".
func parseHoleKey(key, suffix string) (int, bool) {
	if !strings.HasPrefix(key, "hole_") || !strings.HasSuffix(key, suffix) {
		return 0, false
	}
	num := strings.TrimSuffix(strings.TrimPrefix(key, "hole_"), suffix)
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || n > scoring.Holes {
		return 0, false
	}
	return n, true
}

// MarshalJSON writes the course with flat par keys and its derived par totals.
func (c Course) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":             c.ID,
		"name":           c.Name,
		"city":           c.City,
		"state":          c.State,
		"country":        c.Country,
		"location":       c.Location(),
		"front_nine_par": c.FrontNinePar(),
		"back_nine_par":  c.BackNinePar(),
		"total_par":      c.TotalPar(),
		"created_at":     c.CreatedAt,
	}
	for i, p := range c.Pars {
		out[holeKey(i+1, parSuffix)] = p
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a course written by MarshalJSON. Derived keys are ignored.
func (c *Course) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Course
	for key, val := range raw {
		var err error
		switch key {
		case "id":
			err = json.Unmarshal(val, &out.ID)
		case "name":
			err = json.Unmarshal(val, &out.Name)
		case "city":
			err = json.Unmarshal(val, &out.City)
		case "state":
			err = json.Unmarshal(val, &out.State)
		case "country":
			err = json.Unmarshal(val, &out.Country)
		case "created_at":
			err = json.Unmarshal(val, &out.CreatedAt)
		default:
			if n, ok := parseHoleKey(key, parSuffix); ok {
				err = json.Unmarshal(val, &out.Pars[n-1])
			}
		}
		if err != nil {
			return fmt.Errorf("course field %q: %w", key, err)
		}
	}
	*c = out
	return nil
}

// UnmarshalJSON accepts flat hole_N_par keys or a "pars" array of 18 values.
// Unknown keys are rejected.
func (r *CreateCourseRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out CreateCourseRequest
	for key, val := range raw {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(val, &out.Name)
		case "city":
			err = json.Unmarshal(val, &out.City)
		case "state":
			err = json.Unmarshal(val, &out.State)
		case "country":
			err = json.Unmarshal(val, &out.Country)
		case "pars":
			var pars []int
			if err = json.Unmarshal(val, &pars); err == nil {
				if len(pars) != scoring.Holes {
					return fmt.Errorf("pars must contain %d values, got %d", scoring.Holes, len(pars))
				}
				for i := range pars {
					out.Pars[i] = &pars[i]
				}
			}
		default:
			n, ok := parseHoleKey(key, parSuffix)
			if !ok {
				return fmt.Errorf("json: unknown field %q", key)
			}
			err = json.Unmarshal(val, &out.Pars[n-1])
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	*r = out
	return nil
}

func (t Team) fields() map[string]any {
	front, back, total := scoring.Totals(t.Holes)
	out := map[string]any{
		"id":            t.ID,
		"tournament_id": t.TournamentID,
		"name":          t.Name,
		"front_nine":    front,
		"back_nine":     back,
		"total_score":   total,
		"holes_played":  scoring.Played(t.Holes),
		"created_at":    t.CreatedAt,
		"updated_at":    t.UpdatedAt,
	}
	for i, h := range t.Holes {
		out[holeKey(i+1, "")] = h
	}
	return out
}

// MarshalJSON writes the team with flat hole keys and its derived totals.
func (t Team) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.fields())
}

// UnmarshalJSON reads a team written by MarshalJSON. Derived keys are ignored.
func (t *Team) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID           uuid.UUID `json:"id"`
		TournamentID uuid.UUID `json:"tournament_id"`
		Name         string    `json:"name"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	out := Team{
		ID:           raw.ID,
		TournamentID: raw.TournamentID,
		Name:         raw.Name,
		CreatedAt:    raw.CreatedAt,
		UpdatedAt:    raw.UpdatedAt,
	}
	for key, val := range all {
		n, ok := parseHoleKey(key, "")
		if !ok {
			continue
		}
		if err := json.Unmarshal(val, &out.Holes[n-1]); err != nil {
			return fmt.Errorf("team field %q: %w", key, err)
		}
	}
	*t = out
	return nil
}

// MarshalJSON writes the team row followed by its score relative to par.
// A team that has not played a hole has no display value.
func (s Standing) MarshalJSON() ([]byte, error) {
	out := s.Team.fields()
	out["score_to_par"] = s.Summary.Total.ToPar
	out["score_to_par_display"] = nil
	if s.Summary.Total.Played > 0 {
		out["score_to_par_display"] = scoring.FormatToPar(s.Summary.Total.ToPar)
	}
	out["front_nine_to_par"] = s.Summary.Front.ToPar
	out["back_nine_to_par"] = s.Summary.Back.ToPar
	out["par_played"] = s.Summary.Total.Par
	return json.Marshal(out)
}
