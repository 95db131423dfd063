// Package memstore is an in-memory implementation of the repository stores.
// It enforces the same uniqueness and ordering rules as the PostgreSQL
// repositories and is used for local runs without a database and in tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/google/uuid"
)

// Store holds every entity behind a single mutex.
type Store struct {
	mu          sync.RWMutex
	courses     map[uuid.UUID]model.Course
	tournaments map[uuid.UUID]model.Tournament
	codes       map[string]uuid.UUID
	teams       map[uuid.UUID]model.Team
	now         func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		courses:     make(map[uuid.UUID]model.Course),
		tournaments: make(map[uuid.UUID]model.Tournament),
		codes:       make(map[string]uuid.UUID),
		teams:       make(map[uuid.UUID]model.Team),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Courses returns the store's course view.
func (s *Store) Courses() *Courses { return &Courses{s} }

// Tournaments returns the store's tournament view.
func (s *Store) Tournaments() *Tournaments { return &Tournaments{s} }

// Teams returns the store's team view.
func (s *Store) Teams() *Teams { return &Teams{s} }

// Courses implements repository.CourseStore.
type Courses struct{ s *Store }

var _ repository.CourseStore = (*Courses)(nil)

func (c *Courses) Create(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error) {
	course := model.Course{
		ID:        uuid.New(),
		Name:      req.Name,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		CreatedAt: c.s.now(),
	}
	for i, p := range req.Pars {
		if p == nil || *p <= 0 {
			return nil, fmt.Errorf("insert course: hole %d par must be positive", i+1)
		}
		course.Pars[i] = *p
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.courses[course.ID] = course
	return &course, nil
}

func (c *Courses) List(ctx context.Context) ([]model.Course, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	out := make([]model.Course, 0, len(c.s.courses))
	for _, course := range c.s.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (c *Courses) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	course, ok := c.s.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &course, nil
}

// Tournaments implements repository.TournamentStore.
type Tournaments struct{ s *Store }

var _ repository.TournamentStore = (*Tournaments)(nil)

func (t *Tournaments) Create(ctx context.Context, nt model.NewTournament) (*model.Tournament, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.courses[nt.CourseID]; !ok {
		return nil, repository.ErrNotFound
	}
	if nt.Code == nt.AdminCode {
		return nil, fmt.Errorf("insert tournament: join and admin codes must differ")
	}
	// join and admin codes share one namespace
	for _, code := range []string{nt.Code, nt.AdminCode} {
		if _, taken := t.s.codes[code]; taken {
			return nil, repository.ErrDuplicate
		}
	}

	tr := model.Tournament{
		ID:        uuid.New(),
		Name:      nt.Name,
		CourseID:  nt.CourseID,
		Code:      nt.Code,
		AdminCode: nt.AdminCode,
		CreatedAt: t.s.now(),
	}
	t.s.tournaments[tr.ID] = tr
	t.s.codes[tr.Code] = tr.ID
	t.s.codes[tr.AdminCode] = tr.ID
	return &tr, nil
}

func (t *Tournaments) CodeExists(ctx context.Context, code string) (bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	_, ok := t.s.codes[code]
	return ok, nil
}

func (t *Tournaments) GetByID(ctx context.Context, id uuid.UUID) (*model.Tournament, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	tr, ok := t.s.tournaments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tr, nil
}

func (t *Tournaments) GetByCode(ctx context.Context, code string) (*model.Tournament, error) {
	return t.find(func(tr model.Tournament) bool { return tr.Code == code })
}

func (t *Tournaments) FindByAnyCode(ctx context.Context, code string) (*model.Tournament, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	id, ok := t.s.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	tr := t.s.tournaments[id]
	return &tr, nil
}

func (t *Tournaments) find(match func(model.Tournament) bool) (*model.Tournament, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	for _, tr := range t.s.tournaments {
		if match(tr) {
			return &tr, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Teams implements repository.TeamStore.
type Teams struct{ s *Store }

var _ repository.TeamStore = (*Teams)(nil)

// cloneTeam copies a team so callers never share hole pointers with the store.
func cloneTeam(team model.Team) *model.Team {
	out := team
	for i, h := range team.Holes {
		if h != nil {
			v := *h
			out.Holes[i] = &v
		}
	}
	if team.RejoinHash != nil {
		out.RejoinHash = append([]byte(nil), team.RejoinHash...)
	}
	return &out
}

func (t *Teams) Create(ctx context.Context, tournamentID uuid.UUID, name string, rejoinHash []byte) (*model.Team, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, ok := t.s.tournaments[tournamentID]; !ok {
		return nil, repository.ErrNotFound
	}
	for _, existing := range t.s.teams {
		if existing.TournamentID == tournamentID && existing.Name == name {
			return nil, repository.ErrDuplicate
		}
	}

	now := t.s.now()
	team := model.Team{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Name:         name,
		RejoinHash:   rejoinHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	t.s.teams[team.ID] = *cloneTeam(team)
	return cloneTeam(team), nil
}

func (t *Teams) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	team, ok := t.s.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTeam(team), nil
}

func (t *Teams) GetByName(ctx context.Context, tournamentID uuid.UUID, name string) (*model.Team, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	for _, team := range t.s.teams {
		if team.TournamentID == tournamentID && team.Name == name {
			return cloneTeam(team), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (t *Teams) UpdateHole(ctx context.Context, id uuid.UUID, hole, score int) (*model.Team, error) {
	if hole < 1 || hole > scoring.Holes {
		return nil, fmt.Errorf("hole %d out of range", hole)
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	stored, ok := t.s.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	team := cloneTeam(stored)
	v := score
	team.Holes[hole-1] = &v
	team.UpdatedAt = t.s.now()
	t.s.teams[id] = *team
	return cloneTeam(*team), nil
}

func (t *Teams) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]model.Team, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var out []model.Team
	for _, team := range t.s.teams {
		if team.TournamentID == tournamentID {
			out = append(out, *cloneTeam(team))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].TotalScore(), out[j].TotalScore()
		if scoring.Less(a, b) {
			return true
		}
		if scoring.Less(b, a) {
			return false
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
