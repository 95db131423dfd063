package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/scoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// holeColumns returns "hole_1<suffix>, ..., hole_18<suffix>".
func holeColumns(suffix string) string {
	cols := make([]string, scoring.Holes)
	for i := range cols {
		cols[i] = fmt.Sprintf("hole_%d%s", i+1, suffix)
	}
	return strings.Join(cols, ", ")
}

var (
	courseColumns = "id, name, city, state, country, " + holeColumns("_par") + ", created_at"
	// courseInsert has placeholders for id, name, city, state, country, the 18 pars and created_at.
	courseInsert = func() string {
		ph := make([]string, 0, 6+scoring.Holes)
		for i := 1; i <= 6+scoring.Holes; i++ {
			ph = append(ph, fmt.Sprintf("$%d", i))
		}
		return fmt.Sprintf("INSERT INTO courses (%s) VALUES (%s)", courseColumns, strings.Join(ph, ", "))
	}()
)

// CourseRepository handles persistence for courses.
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course and returns it with a generated UUID.
// The request must already be validated; nil pars are stored as zero and
// rejected by the table's check constraint.
func (r *CourseRepository) Create(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		ID:        uuid.New(),
		Name:      req.Name,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		CreatedAt: time.Now().UTC(),
	}
	for i, p := range req.Pars {
		if p != nil {
			course.Pars[i] = *p
		}
	}

	args := []any{course.ID, course.Name, course.City, course.State, course.Country}
	for _, p := range course.Pars {
		args = append(args, p)
	}
	args = append(args, course.CreatedAt)

	if _, err := r.db.Exec(ctx, courseInsert, args...); err != nil {
		return nil, fmt.Errorf("insert course: %w", err)
	}
	return course, nil
}

// List returns all courses ordered by name.
func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+courseColumns+`
		 FROM courses
		 ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, rows.Err()
}

// GetByID returns a single course or ErrNotFound.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	c, err := scanCourse(r.db.QueryRow(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func scanCourse(row pgx.Row) (*model.Course, error) {
	var c model.Course
	dest := []any{&c.ID, &c.Name, &c.City, &c.State, &c.Country}
	for i := range c.Pars {
		dest = append(dest, &c.Pars[i])
	}
	dest = append(dest, &c.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return &c, nil
}
