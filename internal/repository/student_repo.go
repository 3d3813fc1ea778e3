package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scms/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateEmail is returned when the store's email uniqueness constraint
// rejects an insert.
var ErrDuplicateEmail = errors.New("email already registered")

const pgUniqueViolation = "23505"

// StudentRepository persists student credentials. Lookups return nil, nil
// when no row matches.
type StudentRepository interface {
	// CreateStudent assigns the ID and timestamps of s.
	CreateStudent(ctx context.Context, s *model.Student) error
	// GetStudentByEmail includes the password hash.
	GetStudentByEmail(ctx context.Context, email string) (*model.Student, error)
	// GetStudentByID never loads the password hash.
	GetStudentByID(ctx context.Context, id string) (*model.Student, error)
}

type studentRepo struct {
	db *sql.DB
}

func NewStudentRepo(db *sql.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) CreateStudent(ctx context.Context, s *model.Student) error {
	id := uuid.NewString()
	query := `
		INSERT INTO students (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, id, s.Name, s.Email, s.PasswordHash).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	s.ID = id
	return nil
}

func (r *studentRepo) GetStudentByEmail(ctx context.Context, email string) (*model.Student, error) {
	query := `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM students
		WHERE LOWER(email) = LOWER($1)
	`
	var s model.Student
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func (r *studentRepo) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM students
		WHERE id = $1
	`
	var s model.Student
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
