package service

import (
	"context"
	"strings"

	"scms/internal/apperr"
	"scms/internal/model"
	"scms/internal/pubsub"
	"scms/internal/repository"
)

// CourseInput holds the client-supplied fields of a new course.
type CourseInput struct {
	CourseName        string
	CourseDescription string
	Instructor        string
}

// CourseService defines the interface for course operations. Every method is
// scoped to the authenticated owner.
type CourseService interface {
	Create(ctx context.Context, ownerID string, in CourseInput) (*model.Course, error)
	// List returns the owner's courses, newest first, optionally filtered by
	// a case-insensitive substring of name, description or instructor.
	List(ctx context.Context, ownerID, search string) ([]model.Course, error)
	Delete(ctx context.Context, ownerID, courseID string) error
}

// courseService is the implementation of CourseService
type courseService struct {
	repo   repository.CourseRepository
	events pubsub.Emitter
}

// NewCourseService creates a new CourseService
func NewCourseService(repo repository.CourseRepository, events pubsub.Emitter) CourseService {
	if events == nil {
		events = pubsub.NoopEmitter{}
	}
	return &courseService{repo: repo, events: events}
}

func (s *courseService) Create(ctx context.Context, ownerID string, in CourseInput) (*model.Course, error) {
	c := &model.Course{
		CourseName:        strings.TrimSpace(in.CourseName),
		CourseDescription: strings.TrimSpace(in.CourseDescription),
		Instructor:        strings.TrimSpace(in.Instructor),
		CreatedBy:         ownerID,
	}
	if c.CourseName == "" || c.CourseDescription == "" || c.Instructor == "" {
		return nil, apperr.New(apperr.MissingFields, "Please provide courseName, courseDescription, and instructor")
	}

	if err := s.repo.CreateCourse(ctx, c); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Unable to create course", "store_create_failed", err)
	}

	s.events.Emit(ctx, pubsub.Event{Type: pubsub.CourseCreated, StudentID: ownerID, CourseID: c.ID})
	return c, nil
}

func (s *courseService) List(ctx context.Context, ownerID, search string) ([]model.Course, error) {
	courses, err := s.repo.GetCoursesByOwner(ctx, ownerID, strings.TrimSpace(search))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to load courses", "store_list_failed", err)
	}
	return courses, nil
}

func (s *courseService) Delete(ctx context.Context, ownerID, courseID string) error {
	existing, err := s.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Unable to delete course", "store_lookup_failed", err)
	}
	if existing == nil {
		return apperr.New(apperr.NotFound, "Course not found")
	}
	if existing.CreatedBy != ownerID {
		return apperr.Wrap(apperr.Forbidden, "Not authorized to delete this course", "not_owner", nil)
	}

	deleted, err := s.repo.DeleteCourse(ctx, courseID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Unable to delete course", "store_delete_failed", err)
	}
	if !deleted {
		// Removed by a concurrent request between lookup and delete.
		return apperr.New(apperr.NotFound, "Course not found")
	}

	s.events.Emit(ctx, pubsub.Event{Type: pubsub.CourseDeleted, StudentID: ownerID, CourseID: courseID})
	return nil
}
