package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestCreateCourse_Validation(t *testing.T) {
	missingPar := uniformPars(4)
	missingPar[4] = nil
	zeroPar := uniformPars(4)
	zero := 0
	zeroPar[17] = &zero

	tests := []struct {
		name  string
		req   model.CreateCourseRequest
		field string
	}{
		{name: "empty name", req: model.CreateCourseRequest{Pars: uniformPars(4)}, field: "name"},
		{name: "whitespace name", req: model.CreateCourseRequest{Name: "   ", Pars: uniformPars(4)}, field: "name"},
		{name: "long name", req: model.CreateCourseRequest{Name: strings.Repeat("x", 101), Pars: uniformPars(4)}, field: "name"},
		{name: "missing par", req: model.CreateCourseRequest{Name: "Links", Pars: missingPar}, field: "hole_5_par"},
		{name: "zero par", req: model.CreateCourseRequest{Name: "Links", Pars: zeroPar}, field: "hole_18_par"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.courses.CreateCourse(context.Background(), tt.req)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)

			list, err := e.courses.ListCourses(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestCreateCourse_TrimsFields(t *testing.T) {
	e := newEnv(t)
	c, err := e.courses.CreateCourse(context.Background(), model.CreateCourseRequest{
		Name:    "  Old Course ",
		City:    strp(" St Andrews "),
		State:   strp("   "),
		Country: strp(""),
		Pars:    uniformPars(4),
	})
	require.NoError(t, err)

	assert.Equal(t, "Old Course", c.Name)
	require.NotNil(t, c.City)
	assert.Equal(t, "St Andrews", *c.City)
	assert.Nil(t, c.State)
	assert.Nil(t, c.Country)
	assert.Equal(t, 72, c.TotalPar())
	assert.Equal(t, 36, c.FrontNinePar())
	assert.Equal(t, 36, c.BackNinePar())
}

func TestListCourseSummaries(t *testing.T) {
	e := newEnv(t)
	for _, n := range []string{"Pinehurst", "Augusta", "Muirfield"} {
		e.course(t, n)
	}

	summaries, err := e.courses.ListCourseSummaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Augusta", summaries[0].Name)
	assert.Equal(t, "Muirfield", summaries[1].Name)
	assert.Equal(t, "Pinehurst", summaries[2].Name)

	full, err := e.courses.ListCourses(context.Background())
	require.NoError(t, err)
	for i := range full {
		assert.Equal(t, full[i].ID, summaries[i].ID)
	}
}

func TestObserve_RecoversPanic(t *testing.T) {
	tel := testTelemetry()
	got, err := observe(context.Background(), tel, "Boom", "x", func(ctx context.Context) (*model.Course, error) {
		panic("kaboom")
	})
	assert.Nil(t, got)
	assert.ErrorContains(t, err, "panic in Boom: kaboom")
	assert.False(t, IsDomainError(err))
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(invalid("x", "bad")))
	assert.True(t, IsDomainError(notFound("team")))
	assert.True(t, IsDomainError(fail(ErrConflict, "taken")))
	assert.True(t, IsDomainError(fail(ErrUnauthorized, "no")))
	assert.True(t, IsDomainError(fail(ErrForbidden, "no")))
	assert.False(t, IsDomainError(errors.New("connection refused")))

	err := notFound("tournament")
	assert.Equal(t, "tournament not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
}
