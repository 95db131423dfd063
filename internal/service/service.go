// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/Shivanand-hulikatti/coursecast/internal/repository"
)

const maxNameLength = 100

// CourseService orchestrates course catalog operations.
type CourseService struct {
	courses repository.CourseStore
	tel     Telemetry
}

// NewCourseService constructs a CourseService with its dependencies.
func NewCourseService(courses repository.CourseStore, tel Telemetry) *CourseService {
	return &CourseService{courses: courses, tel: tel.withDefaults()}
}

// ListCourses returns every course ordered by name.
func (s *CourseService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return observe(ctx, s.tel, "ListCourses", "", func(ctx context.Context) ([]model.Course, error) {
		courses, err := s.courses.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		return courses, nil
	})
}

// ListCourseSummaries returns the id and name of every course, ordered by name.
func (s *CourseService) ListCourseSummaries(ctx context.Context) ([]model.CourseSummary, error) {
	courses, err := s.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.CourseSummary, len(courses))
	for i, c := range courses {
		out[i] = model.CourseSummary{ID: c.ID, Name: c.Name}
	}
	return out, nil
}

// CreateCourse validates the request and delegates to the repository.
// Text fields are trimmed and empty optional fields are stored as null.
func (s *CourseService) CreateCourse(ctx context.Context, req model.CreateCourseRequest) (*model.Course, error) {
	return observe(ctx, s.tel, "CreateCourse", req.Name, func(ctx context.Context) (*model.Course, error) {
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			return nil, invalid("name", "course name is required")
		}
		if utf8.RuneCountInString(req.Name) > maxNameLength {
			return nil, invalid("name", fmt.Sprintf("course name cannot exceed %d characters", maxNameLength))
		}
		req.City = trimOptional(req.City)
		req.State = trimOptional(req.State)
		req.Country = trimOptional(req.Country)

		for i, p := range req.Pars {
			field := fmt.Sprintf("hole_%d_par", i+1)
			if p == nil {
				return nil, invalid(field, field+" is required")
			}
			if *p <= 0 {
				return nil, invalid(field, field+" must be a positive integer")
			}
		}

		course, err := s.courses.Create(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("create course: %w", err)
		}
		return course, nil
	})
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
