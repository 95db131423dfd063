package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/session"
	"github.com/google/uuid"
)

const (
	// codeDigits is the width of join and admin codes.
	codeDigits = 6
	// maxCodeDraws bounds the generate-check-regenerate loop for one code.
	maxCodeDraws = 32
	// maxInsertAttempts bounds retries when a concurrent creation claims the
	// same code between the check and the insert.
	maxInsertAttempts = 3
)

var codeSpace = big.NewInt(1_000_000)

// RandomCode draws a uniformly random 6-digit code; leading zeros are kept.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("draw code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// TournamentService creates tournaments and resolves their codes.
type TournamentService struct {
	tournaments repository.TournamentStore
	courses     repository.CourseStore
	sessions    *session.Issuer
	tel         Telemetry

	// newCode is swapped in tests to force collisions.
	newCode func() (string, error)
}

// NewTournamentService constructs a TournamentService with its dependencies.
func NewTournamentService(
	tournaments repository.TournamentStore,
	courses repository.CourseStore,
	sessions *session.Issuer,
	tel Telemetry,
) *TournamentService {
	return &TournamentService{
		tournaments: tournaments,
		courses:     courses,
		sessions:    sessions,
		tel:         tel.withDefaults(),
		newCode:     RandomCode,
	}
}

// CreateTournament validates the request, allocates a join code and an admin
// code, and inserts the tournament. The organizer receives both codes and an
// admin session token.
func (s *TournamentService) CreateTournament(ctx context.Context, req model.CreateTournamentRequest) (*model.CreateTournamentResponse, error) {
	return observe(ctx, s.tel, "CreateTournament", req.Name, func(ctx context.Context) (*model.CreateTournamentResponse, error) {
		req.Name = strings.TrimSpace(req.Name)
		req.CourseID = strings.TrimSpace(req.CourseID)
		if req.Name == "" || req.CourseID == "" {
			return nil, invalid("name", "tournament name and course are required")
		}
		if utf8.RuneCountInString(req.Name) > maxNameLength {
			return nil, invalid("name", fmt.Sprintf("tournament name cannot exceed %d characters", maxNameLength))
		}
		courseID, err := uuid.Parse(req.CourseID)
		if err != nil {
			return nil, invalid("courseId", "courseId is not a valid id")
		}
		if _, err := s.courses.GetByID(ctx, courseID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("course")
			}
			return nil, fmt.Errorf("get course: %w", err)
		}

		var t *model.Tournament
		for attempt := 1; ; attempt++ {
			code, err := s.uniqueCode(ctx, "")
			if err != nil {
				return nil, err
			}
			adminCode, err := s.uniqueCode(ctx, code)
			if err != nil {
				return nil, err
			}

			t, err = s.tournaments.Create(ctx, model.NewTournament{
				Name:      req.Name,
				CourseID:  courseID,
				Code:      code,
				AdminCode: adminCode,
			})
			if err == nil {
				break
			}
			if errors.Is(err, repository.ErrDuplicate) && attempt < maxInsertAttempts {
				s.tel.Metrics.CodeCollision()
				continue
			}
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("course")
			}
			return nil, fmt.Errorf("create tournament: %w", err)
		}
		s.tel.Metrics.TournamentCreated()

		token, err := s.sessions.AdminToken(t.ID, t.Code)
		if err != nil {
			return nil, fmt.Errorf("issue admin token: %w", err)
		}
		return &model.CreateTournamentResponse{
			Tournament:     *t,
			TournamentCode: t.Code,
			AdminCode:      t.AdminCode,
			Token:          token,
		}, nil
	})
}

// uniqueCode draws codes until one is unused by any tournament and differs
// from exclude.
func (s *TournamentService) uniqueCode(ctx context.Context, exclude string) (string, error) {
	for i := 0; i < maxCodeDraws; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if code == exclude {
			s.tel.Metrics.CodeCollision()
			continue
		}
		taken, err := s.tournaments.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return code, nil
		}
		s.tel.Metrics.CodeCollision()
	}
	return "", fmt.Errorf("no free tournament code after %d draws", maxCodeDraws)
}

// ValidateCode resolves a join or admin code. Presenting the admin code marks
// the caller as the organizer and returns an admin session token.
func (s *TournamentService) ValidateCode(ctx context.Context, code string) (*model.ValidateCodeResponse, error) {
	code = strings.TrimSpace(code)
	return observe(ctx, s.tel, "ValidateCode", code, func(ctx context.Context) (*model.ValidateCodeResponse, error) {
		if code == "" {
			return nil, invalid("code", "tournament code is required")
		}
		t, err := s.tournaments.FindByAnyCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound("tournament")
			}
			return nil, fmt.Errorf("find tournament: %w", err)
		}

		resp := &model.ValidateCodeResponse{
			TournamentID:   t.ID,
			TournamentCode: t.Code,
			IsAdmin:        code == t.AdminCode,
		}
		if resp.IsAdmin {
			if resp.Token, err = s.sessions.AdminToken(t.ID, t.Code); err != nil {
				return nil, fmt.Errorf("issue admin token: %w", err)
			}
		}
		return resp, nil
	})
}

// resolveTournament looks a tournament up by its public join code.
func resolveTournament(ctx context.Context, store repository.TournamentStore, code string) (*model.Tournament, error) {
	t, err := store.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("tournament")
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return t, nil
}
