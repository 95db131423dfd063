package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
	"github.com/Shivanand-hulikatti/coursecast/internal/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

// sequence returns a code generator that yields codes in order.
func sequence(t *testing.T, codes ...string) func() (string, error) {
	t.Helper()
	i := 0
	return func() (string, error) {
		if i >= len(codes) {
			t.Fatalf("code generator exhausted after %d draws", len(codes))
		}
		c := codes[i]
		i++
		return c, nil
	}
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := RandomCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestCreateTournament(t *testing.T) {
	e := newEnv(t)
	resp := e.tournament(t)

	assert.Regexp(t, sixDigits, resp.TournamentCode)
	assert.Regexp(t, sixDigits, resp.AdminCode)
	assert.NotEqual(t, resp.TournamentCode, resp.AdminCode)
	assert.Equal(t, resp.TournamentCode, resp.Tournament.Code)
	assert.Equal(t, "Spring Open", resp.Tournament.Name)

	claims, err := e.issuer.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, claims.Role)
	assert.Equal(t, resp.Tournament.ID, claims.TournamentID)
}

func TestCreateTournament_Validation(t *testing.T) {
	e := newEnv(t)
	course := e.course(t, "Links")

	tests := []struct {
		name    string
		req     model.CreateTournamentRequest
		wantErr error
	}{
		{name: "missing name", req: model.CreateTournamentRequest{CourseID: course.ID.String()}},
		{name: "blank name", req: model.CreateTournamentRequest{Name: "  ", CourseID: course.ID.String()}},
		{name: "missing course", req: model.CreateTournamentRequest{Name: "Open"}},
		{name: "malformed course id", req: model.CreateTournamentRequest{Name: "Open", CourseID: "abc"}},
		{name: "unknown course", req: model.CreateTournamentRequest{Name: "Open", CourseID: uuid.NewString()}, wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.tournaments.CreateTournament(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var ve *ValidationError
			assert.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
		})
	}
}

func TestCreateTournament_RegeneratesCollidingCodes(t *testing.T) {
	e := newEnv(t)
	first := e.tournament(t)
	course := e.course(t, "Second Course")

	// draws: existing join code, existing admin code, fresh join code,
	// the fresh join code again (must differ), then a fresh admin code
	e.tournaments.newCode = sequence(t,
		first.TournamentCode,
		first.AdminCode,
		"000042",
		"000042",
		"999001",
	)

	resp, err := e.tournaments.CreateTournament(context.Background(), model.CreateTournamentRequest{
		Name: "Second", CourseID: course.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "000042", resp.TournamentCode)
	assert.Equal(t, "999001", resp.AdminCode)
}

func TestCreateTournament_GivesUpAfterBoundedDraws(t *testing.T) {
	e := newEnv(t)
	course := e.course(t, "Links")
	e.tournaments.tournaments = &FakeTournamentStore{
		TournamentStore: e.store.Tournaments(),
		CodeExistsFunc:  func(context.Context, string) (bool, error) { return true, nil },
	}

	_, err := e.tournaments.CreateTournament(context.Background(), model.CreateTournamentRequest{
		Name: "Full", CourseID: course.ID.String(),
	})
	require.Error(t, err)
	assert.False(t, IsDomainError(err))
	assert.Contains(t, err.Error(), "no free tournament code")
}

func TestCreateTournament_RetriesInsertRace(t *testing.T) {
	e := newEnv(t)
	course := e.course(t, "Links")
	fake := &FakeTournamentStore{TournamentStore: e.store.Tournaments()}
	fake.CreateFunc = func(ctx context.Context, nt model.NewTournament) (*model.Tournament, error) {
		if fake.createCalls == 1 {
			return nil, repository.ErrDuplicate
		}
		return e.store.Tournaments().Create(ctx, nt)
	}
	e.tournaments.tournaments = fake

	resp, err := e.tournaments.CreateTournament(context.Background(), model.CreateTournamentRequest{
		Name: "Raced", CourseID: course.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.createCalls)
	assert.Regexp(t, sixDigits, resp.TournamentCode)
}

func TestCreateTournament_InsertFailureIsNotRetried(t *testing.T) {
	e := newEnv(t)
	course := e.course(t, "Links")
	fake := &FakeTournamentStore{
		TournamentStore: e.store.Tournaments(),
		CreateFunc: func(context.Context, model.NewTournament) (*model.Tournament, error) {
			return nil, errors.New("connection reset")
		},
	}
	e.tournaments.tournaments = fake

	_, err := e.tournaments.CreateTournament(context.Background(), model.CreateTournamentRequest{
		Name: "Broken", CourseID: course.ID.String(),
	})
	require.Error(t, err)
	assert.False(t, IsDomainError(err))
	assert.Equal(t, 1, fake.createCalls)
}

func TestValidateCode(t *testing.T) {
	e := newEnv(t)
	created := e.tournament(t)

	t.Run("join code", func(t *testing.T) {
		resp, err := e.tournaments.ValidateCode(context.Background(), created.TournamentCode)
		require.NoError(t, err)
		assert.Equal(t, created.Tournament.ID, resp.TournamentID)
		assert.Equal(t, created.TournamentCode, resp.TournamentCode)
		assert.False(t, resp.IsAdmin)
		assert.Empty(t, resp.Token)
	})

	t.Run("admin code", func(t *testing.T) {
		resp, err := e.tournaments.ValidateCode(context.Background(), " "+created.AdminCode+" ")
		require.NoError(t, err)
		assert.Equal(t, created.Tournament.ID, resp.TournamentID)
		assert.Equal(t, created.TournamentCode, resp.TournamentCode)
		assert.True(t, resp.IsAdmin)

		claims, err := e.issuer.Parse(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, session.RoleAdmin, claims.Role)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := e.tournaments.ValidateCode(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("blank code", func(t *testing.T) {
		_, err := e.tournaments.ValidateCode(context.Background(), "")
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
	})
}
