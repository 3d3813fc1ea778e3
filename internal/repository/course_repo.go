package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"scms/internal/model"

	"github.com/google/uuid"
)

// CourseRepository defines the interface for interacting with course data
type CourseRepository interface {
	// CreateCourse assigns the ID and timestamps of c.
	CreateCourse(ctx context.Context, c *model.Course) error
	// GetCoursesByOwner lists the owner's courses, newest first. A non-empty
	// search keeps courses whose name, description or instructor contains it,
	// ignoring case.
	GetCoursesByOwner(ctx context.Context, ownerID, search string) ([]model.Course, error)
	GetCourseByID(ctx context.Context, id string) (*model.Course, error)
	// DeleteCourse reports whether a row was removed.
	DeleteCourse(ctx context.Context, id string) (bool, error)
}

type courseRepo struct {
	db *sql.DB
}

// NewCourseRepo creates a new CourseRepository
func NewCourseRepo(db *sql.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	id := uuid.NewString()
	query := `
		INSERT INTO courses (id, course_name, course_description, instructor, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, id, c.CourseName, c.CourseDescription, c.Instructor, c.CreatedBy).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	c.ID = id
	return nil
}

func (r *courseRepo) GetCoursesByOwner(ctx context.Context, ownerID, search string) ([]model.Course, error) {
	query := `
		SELECT id, course_name, course_description, instructor, created_by, created_at, updated_at
		FROM courses
		WHERE created_by = $1`
	args := []any{ownerID}
	if search != "" {
		query += `
		  AND (course_name ILIKE $2 ESCAPE '\'
		    OR course_description ILIKE $2 ESCAPE '\'
		    OR instructor ILIKE $2 ESCAPE '\')`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += `
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(
			&c.ID,
			&c.CourseName,
			&c.CourseDescription,
			&c.Instructor,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return courses, nil
}

func (r *courseRepo) GetCourseByID(ctx context.Context, id string) (*model.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `
		SELECT id, course_name, course_description, instructor, created_by, created_at, updated_at
		FROM courses
		WHERE id = $1
	`
	var c model.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.CourseName,
		&c.CourseDescription,
		&c.Instructor,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *courseRepo) DeleteCourse(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
