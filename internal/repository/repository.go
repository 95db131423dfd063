// Package repository implements all database queries for the scoreboard.
// It uses pgx directly (no ORM) and raw SQL.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would violate a uniqueness rule
// (a tournament code or a team name within a tournament).
var ErrDuplicate = errors.New("duplicate")

// CourseStore persists courses.
type CourseStore interface {
	Create(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
}

// TournamentStore persists tournaments.
type TournamentStore interface {
	Create(ctx context.Context, t model.NewTournament) (*model.Tournament, error)
	// CodeExists reports whether code is used as a join or admin code.
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Tournament, error)
	// GetByCode resolves a tournament by its public join code only.
	GetByCode(ctx context.Context, code string) (*model.Tournament, error)
	// FindByAnyCode resolves a tournament by its join code or its admin code.
	FindByAnyCode(ctx context.Context, code string) (*model.Tournament, error)
}

// TeamStore persists teams and their hole scores.
type TeamStore interface {
	// Create inserts an empty scorecard. It returns ErrNotFound when the
	// tournament does not exist and ErrDuplicate when the name is taken.
	Create(ctx context.Context, tournamentID uuid.UUID, name string, rejoinHash []byte) (*model.Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error)
	GetByName(ctx context.Context, tournamentID uuid.UUID, name string) (*model.Team, error)
	// UpdateHole overwrites a single hole and returns the updated team.
	UpdateHole(ctx context.Context, id uuid.UUID, hole, score int) (*model.Team, error)
	// ListByTournament returns teams ordered by total score ascending with
	// unscored teams last, then by name.
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]model.Team, error)
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign_key_violation.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
