package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var teamColumns = "id, tournament_id, name, " + holeColumns("") + ", rejoin_hash, created_at, updated_at"

// TeamRepository handles persistence for teams.
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository constructs a TeamRepository.
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create adds a team to a tournament inside a transaction.
//
// Two players joining with the same name at the same moment would both pass
// a plain "does this name exist?" check and both insert. Locking the
// tournament row with SELECT ... FOR UPDATE serialises joins per tournament,
// so the second transaction sees the first one's team and gets ErrDuplicate.
// The unique index on (tournament_id, name) backs this up at the storage
// level. rejoinHash is stored as given.
func (r *TeamRepository) Create(ctx context.Context, tournamentID uuid.UUID, name string, rejoinHash []byte) (*model.Team, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM tournaments WHERE id = $1 FOR UPDATE`,
		tournamentID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock tournament row: %w", err)
	}

	var taken bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE tournament_id = $1 AND name = $2)`,
		tournamentID, name,
	).Scan(&taken)
	if err != nil {
		return nil, fmt.Errorf("check team name: %w", err)
	}
	if taken {
		err = ErrDuplicate
		return nil, err
	}

	now := time.Now().UTC()
	team := &model.Team{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Name:         name,
		RejoinHash:   rejoinHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO teams (id, tournament_id, name, rejoin_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		team.ID, team.TournamentID, team.Name, team.RejoinHash, team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert team: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return team, nil
}

// GetByID returns a single team or ErrNotFound.
func (r *TeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Team, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByName returns the team with exactly this name in the tournament.
func (r *TeamRepository) GetByName(ctx context.Context, tournamentID uuid.UUID, name string) (*model.Team, error) {
	return r.getOne(ctx, `WHERE tournament_id = $1 AND name = $2`, tournamentID, name)
}

// UpdateHole overwrites one hole in a single statement. The aggregate
// columns are generated by PostgreSQL from the hole columns, so they change
// in the same write.
func (r *TeamRepository) UpdateHole(ctx context.Context, id uuid.UUID, hole, score int) (*model.Team, error) {
	if hole < 1 || hole > scoring.Holes {
		return nil, fmt.Errorf("hole %d out of range", hole)
	}
	query := fmt.Sprintf(
		`UPDATE teams SET hole_%d = $1, updated_at = $2 WHERE id = $3 RETURNING %s`,
		hole, teamColumns,
	)
	team, err := scanTeam(r.db.QueryRow(ctx, query, score, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update hole: %w", err)
	}
	return team, nil
}

// ListByTournament returns the leaderboard order: lowest total first, teams
// without a score last.
func (r *TeamRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]model.Team, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+teamColumns+`
		 FROM teams
		 WHERE tournament_id = $1
		 ORDER BY total_score ASC NULLS LAST, name ASC, created_at ASC`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) getOne(ctx context.Context, where string, args ...any) (*model.Team, error) {
	t, err := scanTeam(r.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams `+where, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func scanTeam(row pgx.Row) (*model.Team, error) {
	var t model.Team
	dest := []any{&t.ID, &t.TournamentID, &t.Name}
	for i := range t.Holes {
		dest = append(dest, &t.Holes[i])
	}
	dest = append(dest, &t.RejoinHash, &t.CreatedAt, &t.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan team: %w", err)
	}
	return &t, nil
}
