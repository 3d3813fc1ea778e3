package service

import (
	"context"
	"errors"
	"strings"

	"scms/internal/apperr"
	"scms/internal/auth"
	"scms/internal/model"
	"scms/internal/pubsub"
	"scms/internal/repository"
)

const invalidCredentials = "Invalid credentials"

// TokenCodec issues and verifies bearer tokens for student IDs.
type TokenCodec interface {
	Issue(ctx context.Context, studentID string) (string, error)
	Verify(ctx context.Context, token string) (string, error)
}

// RegisterInput is the registration request after decoding.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput is the login request after decoding.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Student *model.Student
	Token   string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	// Authenticate resolves the student a bearer token was issued to. The
	// returned record never carries the password hash.
	Authenticate(ctx context.Context, token string) (*model.Student, error)
}

type authService struct {
	students repository.StudentRepository
	hasher   auth.PasswordHasher
	tokens   TokenCodec
	events   pubsub.Emitter

	// dummyDigest is compared against when the email is unknown.
	dummyDigest string
}

func NewAuthService(students repository.StudentRepository, hasher auth.PasswordHasher, tokens TokenCodec, events pubsub.Emitter) AuthService {
	if events == nil {
		events = pubsub.NoopEmitter{}
	}
	// Verify fails closed on an empty digest.
	dummy, _ := hasher.Hash("scms-dummy-password")
	return &authService{students: students, hasher: hasher, tokens: tokens, events: events, dummyDigest: dummy}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.New(apperr.MissingFields, "Please provide name, email, and password")
	}

	existing, err := s.students.GetStudentByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to register student", "store_lookup_failed", err)
	}
	if existing != nil {
		return nil, apperr.Wrap(apperr.DuplicateEmail, "Email already registered", "email_exists", nil)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperr.Wrap(apperr.InvalidInput, "Password must be at most 72 bytes", "password_too_long", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to register student", "hash_failed", err)
	}

	student := &model.Student{Name: name, Email: email, PasswordHash: digest}
	if err := s.students.CreateStudent(ctx, student); err != nil {
		// A concurrent registration won the unique index after our lookup.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Wrap(apperr.DuplicateEmail, "Email already registered", "email_unique_violation", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to register student", "store_create_failed", err)
	}

	token, err := s.tokens.Issue(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, pubsub.Event{Type: pubsub.StudentRegistered, StudentID: student.ID})
	return &AuthResult{Student: student, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.New(apperr.MissingFields, "Please provide email and password")
	}

	student, err := s.students.GetStudentByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to log in", "store_lookup_failed", err)
	}
	if student == nil {
		// Spend the same bcrypt work as a real comparison.
		s.hasher.Verify(in.Password, s.dummyDigest)
		return nil, apperr.Wrap(apperr.InvalidCredentials, invalidCredentials, "unknown_email", nil)
	}
	if !s.hasher.Verify(in.Password, student.PasswordHash) {
		return nil, apperr.Wrap(apperr.InvalidCredentials, invalidCredentials, "password_mismatch", nil)
	}

	token, err := s.tokens.Issue(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(ctx, pubsub.Event{Type: pubsub.StudentLoggedIn, StudentID: student.ID})
	student.PasswordHash = ""
	return &AuthResult{Student: student, Token: token}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.Student, error) {
	id, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetStudentByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to resolve student", "store_lookup_failed", err)
	}
	if student == nil {
		return nil, apperr.Wrap(apperr.PrincipalNotFound, "Not authorized, student not found", "student_missing", nil)
	}
	student.PasswordHash = ""
	return student, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
