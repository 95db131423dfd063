package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/cache"
	"github.com/Shivanand-hulikatti/coursecast/internal/metrics"
	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/coursecast/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "service-test-secret"

func testTelemetry() Telemetry {
	return Telemetry{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:  noop.NewTracerProvider().Tracer("test"),
		Metrics: metrics.New(),
	}
}

// env wires every service against one in-memory store.
type env struct {
	store       *memstore.Store
	issuer      *session.Issuer
	cache       *FakeScoreboardCache
	courses     *CourseService
	tournaments *TournamentService
	teams       *TeamService
	scoreboards *ScoreboardService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	issuer := session.NewIssuer(testSecret, time.Hour)
	fc := NewFakeScoreboardCache()
	tel := testTelemetry()
	teams := NewTeamService(store.Tournaments(), store.Teams(), issuer, fc, tel)
	teams.hashCost = bcrypt.MinCost
	return &env{
		store:       store,
		issuer:      issuer,
		cache:       fc,
		courses:     NewCourseService(store.Courses(), tel),
		tournaments: NewTournamentService(store.Tournaments(), store.Courses(), issuer, tel),
		teams:       teams,
		scoreboards: NewScoreboardService(store.Tournaments(), store.Courses(), store.Teams(), fc, 10*time.Second, tel),
	}
}

func uniformPars(p int) [18]*int {
	var pars [18]*int
	for i := range pars {
		v := p
		pars[i] = &v
	}
	return pars
}

func (e *env) course(t *testing.T, name string) *model.Course {
	t.Helper()
	c, err := e.courses.CreateCourse(context.Background(), model.CreateCourseRequest{Name: name, Pars: uniformPars(4)})
	require.NoError(t, err)
	return c
}

func (e *env) tournament(t *testing.T) *model.CreateTournamentResponse {
	t.Helper()
	c := e.course(t, "Links")
	resp, err := e.tournaments.CreateTournament(context.Background(), model.CreateTournamentRequest{
		Name: "Spring Open", CourseID: c.ID.String(),
	})
	require.NoError(t, err)
	return resp
}

func (e *env) team(t *testing.T, code, name string) *model.TeamResponse {
	t.Helper()
	resp, err := e.teams.CreateTeam(context.Background(), model.TeamRequest{TournamentCode: code, TeamName: name})
	require.NoError(t, err)
	return resp
}

// asTeam returns a context carrying a team session.
func (e *env) asTeam(t *testing.T, resp *model.TeamResponse) context.Context {
	t.Helper()
	claims, err := e.issuer.Parse(resp.Token)
	require.NoError(t, err)
	return session.WithClaims(context.Background(), claims)
}

// FakeTournamentStore delegates to an inner store unless a Func is set.
type FakeTournamentStore struct {
	repository.TournamentStore
	CreateFunc     func(ctx context.Context, nt model.NewTournament) (*model.Tournament, error)
	CodeExistsFunc func(ctx context.Context, code string) (bool, error)
	createCalls    int
}

func (f *FakeTournamentStore) Create(ctx context.Context, nt model.NewTournament) (*model.Tournament, error) {
	f.createCalls++
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, nt)
	}
	return f.TournamentStore.Create(ctx, nt)
}

func (f *FakeTournamentStore) CodeExists(ctx context.Context, code string) (bool, error) {
	if f.CodeExistsFunc != nil {
		return f.CodeExistsFunc(ctx, code)
	}
	return f.TournamentStore.CodeExists(ctx, code)
}

// FakeTeamStore delegates to an inner store unless a Func is set.
type FakeTeamStore struct {
	repository.TeamStore
	UpdateHoleFunc       func(ctx context.Context, id uuid.UUID, hole, score int) (*model.Team, error)
	ListByTournamentFunc func(ctx context.Context, tournamentID uuid.UUID) ([]model.Team, error)
	listCalls            int
}

func (f *FakeTeamStore) UpdateHole(ctx context.Context, id uuid.UUID, hole, score int) (*model.Team, error) {
	if f.UpdateHoleFunc != nil {
		return f.UpdateHoleFunc(ctx, id, hole, score)
	}
	return f.TeamStore.UpdateHole(ctx, id, hole, score)
}

func (f *FakeTeamStore) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]model.Team, error) {
	f.listCalls++
	if f.ListByTournamentFunc != nil {
		return f.ListByTournamentFunc(ctx, tournamentID)
	}
	return f.TeamStore.ListByTournament(ctx, tournamentID)
}

type cacheKey struct {
	id  uuid.UUID
	gen int64
}

// FakeScoreboardCache is an in-process generation-keyed cache that records
// its calls.
type FakeScoreboardCache struct {
	mu          sync.Mutex
	gens        map[uuid.UUID]int64
	entries     map[cacheKey]*model.Snapshot
	GenErr      error
	GetErr      error
	SetErr      error
	sets        int
	invalidated []uuid.UUID
}

var _ cache.Scoreboard = (*FakeScoreboardCache)(nil)

func NewFakeScoreboardCache() *FakeScoreboardCache {
	return &FakeScoreboardCache{
		gens:    make(map[uuid.UUID]int64),
		entries: make(map[cacheKey]*model.Snapshot),
	}
}

func (f *FakeScoreboardCache) Generation(_ context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GenErr != nil {
		return 0, f.GenErr
	}
	return f.gens[id], nil
}

func (f *FakeScoreboardCache) Get(_ context.Context, id uuid.UUID, gen int64) (*model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	snap, ok := f.entries[cacheKey{id, gen}]
	if !ok {
		return nil, cache.ErrMiss
	}
	return snap, nil
}

func (f *FakeScoreboardCache) Set(_ context.Context, id uuid.UUID, gen int64, snap *model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.SetErr != nil {
		return f.SetErr
	}
	f.entries[cacheKey{id, gen}] = snap
	return nil
}

func (f *FakeScoreboardCache) Invalidate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gens[id]++
	f.invalidated = append(f.invalidated, id)
	return nil
}

func (f *FakeScoreboardCache) Invalidated() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.invalidated...)
}

func (f *FakeScoreboardCache) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}
