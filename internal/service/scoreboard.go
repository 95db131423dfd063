package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/cache"
	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
)

// ScoreboardService builds live leaderboards.
type ScoreboardService struct {
	tournaments     repository.TournamentStore
	courses         repository.CourseStore
	teams           repository.TeamStore
	snapshots       cache.Scoreboard
	refreshInterval time.Duration
	tel             Telemetry
}

// NewScoreboardService constructs a ScoreboardService. A nil cache disables
// caching; refreshInterval is advertised to polling clients.
func NewScoreboardService(
	tournaments repository.TournamentStore,
	courses repository.CourseStore,
	teams repository.TeamStore,
	snapshots cache.Scoreboard,
	refreshInterval time.Duration,
	tel Telemetry,
) *ScoreboardService {
	if snapshots == nil {
		snapshots = cache.Nop{}
	}
	return &ScoreboardService{
		tournaments:     tournaments,
		courses:         courses,
		teams:           teams,
		snapshots:       snapshots,
		refreshInterval: refreshInterval,
		tel:             tel.withDefaults(),
	}
}

// GetScoreboard returns the tournament's course layout and every team ordered
// by total score, lowest first, with unscored teams last. All aggregates are
// computed from the per-hole scores on every call.
func (s *ScoreboardService) GetScoreboard(ctx context.Context, code string) (*model.Scoreboard, error) {
	code = strings.TrimSpace(code)
	return observe(ctx, s.tel, "GetScoreboard", code, func(ctx context.Context) (*model.Scoreboard, error) {
		if code == "" {
			return nil, invalid("code", "tournament code is required")
		}
		t, err := resolveTournament(ctx, s.tournaments, code)
		if err != nil {
			return nil, err
		}

		snap, err := s.snapshot(ctx, t)
		if err != nil {
			return nil, err
		}
		return s.build(snap), nil
	})
}

// snapshot returns the tournament's course and teams, from the cache when a
// snapshot for the current generation is there. The generation is read
// before the store so a write that lands during the load invalidates what
// this call caches.
func (s *ScoreboardService) snapshot(ctx context.Context, t *model.Tournament) (*model.Snapshot, error) {
	gen, err := s.snapshots.Generation(ctx, t.ID)
	cacheable := err == nil
	if err != nil {
		s.cacheError(ctx, t, "scoreboard cache generation read failed", err)
	} else {
		snap, err := s.snapshots.Get(ctx, t.ID, gen)
		switch {
		case err == nil:
			s.tel.Metrics.ScoreboardCache("hit")
			return snap, nil
		case errors.Is(err, cache.ErrMiss):
			s.tel.Metrics.ScoreboardCache("miss")
		default:
			s.cacheError(ctx, t, "scoreboard cache read failed", err)
		}
	}

	course, err := s.courses.GetByID(ctx, t.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("course")
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	teams, err := s.teams.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	snap := &model.Snapshot{Tournament: t.Public(), Course: *course, Teams: teams}
	if !cacheable {
		return snap, nil
	}
	if err := s.snapshots.Set(ctx, t.ID, gen, snap); err != nil {
		s.tel.Logger.WarnContext(ctx, "scoreboard cache write failed",
			slog.String("tournament_id", t.ID.String()),
			slog.Any("error", err),
		)
	}
	return snap, nil
}

func (s *ScoreboardService) cacheError(ctx context.Context, t *model.Tournament, msg string, err error) {
	s.tel.Metrics.ScoreboardCache("error")
	s.tel.Logger.WarnContext(ctx, msg,
		slog.String("tournament_id", t.ID.String()),
		slog.Any("error", err),
	)
}

func (s *ScoreboardService) build(snap *model.Snapshot) *model.Scoreboard {
	standings := make([]model.Standing, len(snap.Teams))
	for i, team := range snap.Teams {
		standings[i] = model.NewStanding(team, &snap.Course)
	}
	// Stable, so the store's name tie-break survives.
	sort.SliceStable(standings, func(i, j int) bool {
		return scoring.Less(standings[i].Summary.Total.Score, standings[j].Summary.Total.Score)
	})

	return &model.Scoreboard{
		Tournament:             snap.Tournament.Public(),
		Course:                 snap.Course,
		Teams:                  standings,
		RefreshIntervalSeconds: int(s.refreshInterval / time.Second),
	}
}
