package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tournamentColumns = "id, name, course_id, tournament_code, admin_code, created_at"

// TournamentRepository handles persistence for tournaments.
type TournamentRepository struct {
	db *pgxpool.Pool
}

// NewTournamentRepository constructs a TournamentRepository.
func NewTournamentRepository(db *pgxpool.Pool) *TournamentRepository {
	return &TournamentRepository{db: db}
}

// Create inserts a tournament and claims both of its codes in
// tournament_codes within one transaction. The primary key on that table
// keeps a join code from ever matching another tournament's admin code.
// A clash on either code surfaces as ErrDuplicate so the caller can draw new
// codes; a missing course surfaces as ErrNotFound.
func (r *TournamentRepository) Create(ctx context.Context, nt model.NewTournament) (*model.Tournament, error) {
	t := &model.Tournament{
		ID:        uuid.New(),
		Name:      nt.Name,
		CourseID:  nt.CourseID,
		Code:      nt.Code,
		AdminCode: nt.AdminCode,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO tournaments (`+tournamentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.CourseID, t.Code, t.AdminCode, t.CreatedAt,
	)
	if err != nil {
		return nil, insertTournamentError(err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO tournament_codes (code, tournament_id, is_admin)
		 VALUES ($1, $3, FALSE), ($2, $3, TRUE)`,
		t.Code, t.AdminCode, t.ID,
	)
	if err != nil {
		return nil, insertTournamentError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

func insertTournamentError(err error) error {
	switch {
	case isUniqueViolation(err):
		return ErrDuplicate
	case isForeignKeyViolation(err):
		return ErrNotFound
	}
	return fmt.Errorf("insert tournament: %w", err)
}

// CodeExists reports whether code is in use as either kind of code.
func (r *TournamentRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tournament_codes WHERE code = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tournament code: %w", err)
	}
	return exists, nil
}

// GetByID returns a single tournament or ErrNotFound.
func (r *TournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Tournament, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByCode returns the tournament whose join code is code, or ErrNotFound.
func (r *TournamentRepository) GetByCode(ctx context.Context, code string) (*model.Tournament, error) {
	return r.getOne(ctx, `WHERE tournament_code = $1`, code)
}

// FindByAnyCode returns the tournament whose join or admin code is code.
func (r *TournamentRepository) FindByAnyCode(ctx context.Context, code string) (*model.Tournament, error) {
	return r.getOne(ctx,
		`WHERE id = (SELECT tournament_id FROM tournament_codes WHERE code = $1)`, code)
}

func (r *TournamentRepository) getOne(ctx context.Context, where string, arg any) (*model.Tournament, error) {
	var t model.Tournament
	err := r.db.QueryRow(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments `+where,
		arg,
	).Scan(&t.ID, &t.Name, &t.CourseID, &t.Code, &t.AdminCode, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return &t, nil
}
