package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/database"
	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a throwaway PostgreSQL, applies the migrations and
// returns a pool. Skipped in -short mode and when Docker is unavailable.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("coursecast"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := database.NewMigrator(dsn)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func pars(p int) [18]*int {
	var out [18]*int
	for i := range out {
		v := p
		out[i] = &v
	}
	return out
}

func TestPostgresRepositories(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	courses := NewCourseRepository(pool)
	tournaments := NewTournamentRepository(pool)
	teams := NewTeamRepository(pool)

	var tournament *model.Tournament

	t.Run("courses are listed by name", func(t *testing.T) {
		city := "Ardmore"
		for _, name := range []string{"Pinehurst", "Merion", "Bethpage"} {
			req := model.CreateCourseRequest{Name: name, Pars: pars(4)}
			if name == "Merion" {
				req.City = &city
			}
			_, err := courses.Create(ctx, req)
			require.NoError(t, err)
		}

		list, err := courses.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Bethpage", list[0].Name)
		assert.Equal(t, "Merion", list[1].Name)
		assert.Equal(t, "Ardmore", *list[1].City)
		assert.Nil(t, list[0].City)
		assert.Equal(t, 72, list[2].TotalPar())

		got, err := courses.GetByID(ctx, list[0].ID)
		require.NoError(t, err)
		assert.Equal(t, list[0].Pars, got.Pars)

		_, err = courses.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("tournament codes are unique", func(t *testing.T) {
		list, err := courses.List(ctx)
		require.NoError(t, err)

		tournament, err = tournaments.Create(ctx, model.NewTournament{
			Name: "Spring Open", CourseID: list[0].ID, Code: "012345", AdminCode: "543210",
		})
		require.NoError(t, err)

		_, err = tournaments.Create(ctx, model.NewTournament{
			Name: "Clash", CourseID: list[0].ID, Code: "012345", AdminCode: "999999",
		})
		assert.ErrorIs(t, err, ErrDuplicate)

		// a join code may not reuse another tournament's admin code
		_, err = tournaments.Create(ctx, model.NewTournament{
			Name: "Crossed", CourseID: list[0].ID, Code: "543210", AdminCode: "888888",
		})
		assert.ErrorIs(t, err, ErrDuplicate)
		exists, err := tournaments.CodeExists(ctx, "888888")
		require.NoError(t, err)
		assert.False(t, exists, "a rejected tournament claims no codes")

		_, err = tournaments.Create(ctx, model.NewTournament{
			Name: "Orphan", CourseID: uuid.New(), Code: "111111", AdminCode: "222222",
		})
		assert.ErrorIs(t, err, ErrNotFound)

		exists, err = tournaments.CodeExists(ctx, "543210")
		require.NoError(t, err)
		assert.True(t, exists)

		byCode, err := tournaments.GetByCode(ctx, "012345")
		require.NoError(t, err)
		assert.Equal(t, tournament.ID, byCode.ID)

		_, err = tournaments.GetByCode(ctx, "543210")
		assert.ErrorIs(t, err, ErrNotFound)

		byAdmin, err := tournaments.FindByAnyCode(ctx, "543210")
		require.NoError(t, err)
		assert.Equal(t, "543210", byAdmin.AdminCode)
	})

	t.Run("concurrent joins with the same name persist one team", func(t *testing.T) {
		require.NotNil(t, tournament)

		const workers = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := teams.Create(ctx, tournament.ID, "Hawks", []byte("hash"))
				if err != nil && !errors.Is(err, ErrDuplicate) {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, created)

		_, err := teams.Create(ctx, uuid.New(), "Ghosts", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("hole updates and leaderboard order", func(t *testing.T) {
		require.NotNil(t, tournament)

		hawks, err := teams.GetByName(ctx, tournament.ID, "Hawks")
		require.NoError(t, err)
		assert.Equal(t, []byte("hash"), hawks.RejoinHash)
		eagles, err := teams.Create(ctx, tournament.ID, "Eagles", nil)
		require.NoError(t, err)
		_, err = teams.Create(ctx, tournament.ID, "Idle", nil)
		require.NoError(t, err)

		updated, err := teams.UpdateHole(ctx, hawks.ID, 3, 6)
		require.NoError(t, err)
		require.NotNil(t, updated.Holes[2])
		assert.Equal(t, 6, *updated.Holes[2])
		assert.Nil(t, updated.Holes[1])

		_, err = teams.UpdateHole(ctx, eagles.ID, 1, 3)
		require.NoError(t, err)
		_, err = teams.UpdateHole(ctx, eagles.ID, 18, 2)
		require.NoError(t, err)

		_, err = teams.UpdateHole(ctx, uuid.New(), 1, 3)
		assert.ErrorIs(t, err, ErrNotFound)

		// the check constraint rejects out of range scores even if validation is bypassed
		_, err = teams.UpdateHole(ctx, eagles.ID, 2, 21)
		assert.Error(t, err)

		list, err := teams.ListByTournament(ctx, tournament.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Eagles", list[0].Name)
		assert.Equal(t, "Hawks", list[1].Name)
		assert.Equal(t, "Idle", list[2].Name)

		var total *int
		err = pool.QueryRow(ctx, `SELECT total_score FROM teams WHERE id = $1`, eagles.ID).Scan(&total)
		require.NoError(t, err)
		require.NotNil(t, total)
		assert.Equal(t, 5, *total)
	})
}
