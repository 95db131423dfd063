package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Shivanand-hulikatti/coursecast/internal/cache"
	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/Shivanand-hulikatti/coursecast/internal/session"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxTeamNameLength = 64
	minScore          = 1
	maxScore          = 20

	rejoinCodeLength = 8
	// rejoinAlphabet drops look-alike characters. Its 32 symbols divide 256
	// evenly, so reducing a random byte keeps the draw uniform.
	rejoinAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RandomRejoinCode draws the secret a team uses to take its scorecard over
// on another device.
func RandomRejoinCode() (string, error) {
	buf := make([]byte, rejoinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("draw rejoin code: %w", err)
	}
	for i := range buf {
		buf[i] = rejoinAlphabet[int(buf[i])%len(rejoinAlphabet)]
	}
	return string(buf), nil
}

// TeamService manages the team roster and score entry.
type TeamService struct {
	tournaments repository.TournamentStore
	teams       repository.TeamStore
	sessions    *session.Issuer
	scoreboards cache.Scoreboard
	tel         Telemetry

	newRejoinCode func() (string, error)
	hashCost      int
}

// NewTeamService constructs a TeamService. A nil cache disables invalidation.
func NewTeamService(
	tournaments repository.TournamentStore,
	teams repository.TeamStore,
	sessions *session.Issuer,
	scoreboards cache.Scoreboard,
	tel Telemetry,
) *TeamService {
	if scoreboards == nil {
		scoreboards = cache.Nop{}
	}
	return &TeamService{
		tournaments: tournaments,
		teams:       teams,
		sessions:    sessions,
		scoreboards: scoreboards,
		tel:         tel.withDefaults(),

		newRejoinCode: RandomRejoinCode,
		hashCost:      bcrypt.DefaultCost,
	}
}

func validateTeamRequest(req *model.TeamRequest) error {
	req.TournamentCode = strings.TrimSpace(req.TournamentCode)
	req.TeamName = strings.TrimSpace(req.TeamName)
	if req.TournamentCode == "" || req.TeamName == "" {
		return invalid("teamName", "tournament code and team name are required")
	}
	if utf8.RuneCountInString(req.TeamName) > maxTeamNameLength {
		return invalid("teamName", fmt.Sprintf("team name cannot exceed %d characters", maxTeamNameLength))
	}
	return nil
}

// CheckTeam reports whether a team with this exact name already exists in
// the tournament. It never grants a session; a returning player takes the
// team over with RejoinTeam.
func (s *TeamService) CheckTeam(ctx context.Context, req model.TeamRequest) (*model.TeamCheckResponse, error) {
	return observe(ctx, s.tel, "CheckTeam", req.TeamName, func(ctx context.Context) (*model.TeamCheckResponse, error) {
		if err := validateTeamRequest(&req); err != nil {
			return nil, err
		}
		t, err := resolveTournament(ctx, s.tournaments, req.TournamentCode)
		if err != nil {
			return nil, err
		}

		team, err := s.teams.GetByName(ctx, t.ID, req.TeamName)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &model.TeamCheckResponse{Exists: false}, nil
			}
			return nil, fmt.Errorf("get team: %w", err)
		}
		return &model.TeamCheckResponse{Exists: true, Team: team}, nil
	})
}

// CreateTeam adds a team with an empty scorecard to the tournament. The
// response carries the team's session token and its rejoin code; only a
// hash of the code is stored, so this is the one time it is shown.
func (s *TeamService) CreateTeam(ctx context.Context, req model.TeamRequest) (*model.TeamResponse, error) {
	return observe(ctx, s.tel, "CreateTeam", req.TeamName, func(ctx context.Context) (*model.TeamResponse, error) {
		if err := validateTeamRequest(&req); err != nil {
			return nil, err
		}
		t, err := resolveTournament(ctx, s.tournaments, req.TournamentCode)
		if err != nil {
			return nil, err
		}

		code, err := s.newRejoinCode()
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash rejoin code: %w", err)
		}

		team, err := s.teams.Create(ctx, t.ID, req.TeamName, hash)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return nil, fail(ErrConflict, "team name already exists in this tournament")
			case errors.Is(err, repository.ErrNotFound):
				return nil, notFound("tournament")
			}
			return nil, fmt.Errorf("create team: %w", err)
		}
		s.tel.Metrics.TeamCreated()
		s.invalidate(ctx, t.ID)

		token, err := s.sessions.TeamToken(t.ID, t.Code, team.ID, team.Name)
		if err != nil {
			return nil, fmt.Errorf("issue team token: %w", err)
		}
		return &model.TeamResponse{Team: team, Token: token, RejoinCode: code}, nil
	})
}

// RejoinTeam issues a fresh team session to a player who presents the
// team's rejoin code, so a scorecard can move to another device.
func (s *TeamService) RejoinTeam(ctx context.Context, req model.RejoinRequest) (*model.TeamResponse, error) {
	return observe(ctx, s.tel, "RejoinTeam", req.TeamName, func(ctx context.Context) (*model.TeamResponse, error) {
		teamReq := model.TeamRequest{TournamentCode: req.TournamentCode, TeamName: req.TeamName}
		if err := validateTeamRequest(&teamReq); err != nil {
			return nil, err
		}
		code := strings.ToUpper(strings.TrimSpace(req.RejoinCode))
		if code == "" {
			return nil, invalid("rejoinCode", "rejoin code is required")
		}
		t, err := resolveTournament(ctx, s.tournaments, teamReq.TournamentCode)
		if err != nil {
			return nil, err
		}

		team, err := s.teams.GetByName(ctx, t.ID, teamReq.TeamName)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("team")
			}
			return nil, fmt.Errorf("get team: %w", err)
		}
		if len(team.RejoinHash) == 0 || bcrypt.CompareHashAndPassword(team.RejoinHash, []byte(code)) != nil {
			return nil, fail(ErrUnauthorized, "rejoin code does not match")
		}

		token, err := s.sessions.TeamToken(t.ID, t.Code, team.ID, team.Name)
		if err != nil {
			return nil, fmt.Errorf("issue team token: %w", err)
		}
		return &model.TeamResponse{Team: team, Token: token}, nil
	})
}

// UpdateScore records a score for one hole. Input is validated before any
// storage access so a rejected request never changes a scorecard. The caller
// must hold a session for the team or an admin session for its tournament.
func (s *TeamService) UpdateScore(ctx context.Context, req model.UpdateScoreRequest) (*model.Team, error) {
	return observe(ctx, s.tel, "UpdateScore", req.TeamID, func(ctx context.Context) (*model.Team, error) {
		teamID, hole, score, err := validateScore(req)
		if err != nil {
			return nil, err
		}

		claims, ok := session.FromContext(ctx)
		if !ok {
			return nil, fail(ErrUnauthorized, "a session token is required to record scores")
		}

		team, err := s.teams.GetByID(ctx, teamID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("team")
			}
			return nil, fmt.Errorf("get team: %w", err)
		}
		if !claims.CanScore(team.ID, team.TournamentID) {
			return nil, fail(ErrForbidden, "session does not allow scoring for this team")
		}

		updated, err := s.teams.UpdateHole(ctx, teamID, hole, score)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("team")
			}
			return nil, fmt.Errorf("update score: %w", err)
		}
		s.tel.Metrics.ScoreRecorded()
		s.invalidate(ctx, updated.TournamentID)
		return updated, nil
	})
}

func validateScore(req model.UpdateScoreRequest) (uuid.UUID, int, int, error) {
	req.TeamID = strings.TrimSpace(req.TeamID)
	if req.TeamID == "" || req.HoleNumber == nil || req.Score == nil {
		return uuid.Nil, 0, 0, invalid("teamId", "team ID, hole number, and score are required")
	}
	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		return uuid.Nil, 0, 0, invalid("teamId", "team ID is not a valid id")
	}
	if h := *req.HoleNumber; h < 1 || h > scoring.Holes {
		return uuid.Nil, 0, 0, invalid("holeNumber", fmt.Sprintf("hole number must be between 1 and %d", scoring.Holes))
	}
	if sc := *req.Score; sc < minScore || sc > maxScore {
		return uuid.Nil, 0, 0, invalid("score", fmt.Sprintf("score must be between %d and %d", minScore, maxScore))
	}
	return teamID, *req.HoleNumber, *req.Score, nil
}

// invalidate drops the cached scoreboard. The entry also expires on its own,
// so a failure here is only logged.
func (s *TeamService) invalidate(ctx context.Context, tournamentID uuid.UUID) {
	if err := s.scoreboards.Invalidate(ctx, tournamentID); err != nil {
		s.tel.Logger.WarnContext(ctx, "scoreboard cache invalidation failed",
			"tournament_id", tournamentID.String(),
			"error", err,
		)
	}
}
