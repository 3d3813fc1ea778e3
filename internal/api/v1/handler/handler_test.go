package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scms/internal/apperr"
	"scms/internal/middleware"
	"scms/internal/model"
	"scms/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthService struct {
	registerIn service.RegisterInput
	loginIn    service.LoginInput
	result     *service.AuthResult
	err        error
}

func (f *fakeAuthService) Register(_ context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	f.registerIn = in
	return f.result, f.err
}

func (f *fakeAuthService) Login(_ context.Context, in service.LoginInput) (*service.AuthResult, error) {
	f.loginIn = in
	return f.result, f.err
}

func (f *fakeAuthService) Authenticate(context.Context, string) (*model.Student, error) {
	return nil, nil
}

type fakeCourseService struct {
	ownerID string
	search  string
	deleted string
	input   service.CourseInput
	courses []model.Course
	created *model.Course
	err     error
}

func (f *fakeCourseService) Create(_ context.Context, ownerID string, in service.CourseInput) (*model.Course, error) {
	f.ownerID, f.input = ownerID, in
	return f.created, f.err
}

func (f *fakeCourseService) List(_ context.Context, ownerID, search string) ([]model.Course, error) {
	f.ownerID, f.search = ownerID, search
	return f.courses, f.err
}

func (f *fakeCourseService) Delete(_ context.Context, ownerID, courseID string) error {
	f.ownerID, f.deleted = ownerID, courseID
	return f.err
}

// asStudent stands in for the verification gate.
func asStudent(id string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithStudent(r.Context(), &model.Student{ID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func newAuthMux(svc service.AuthService) *http.ServeMux {
	mux := http.NewServeMux()
	NewAuthHandler(svc, validator.New(validator.WithRequiredStructEnabled())).RegisterRoutes(mux)
	return mux
}

func newCourseMux(svc service.CourseService) *http.ServeMux {
	mux := http.NewServeMux()
	NewCourseHandler(svc, validator.New(validator.WithRequiredStructEnabled())).RegisterRoutes(mux, asStudent("s-1"))
	return mux
}

func TestRegister(t *testing.T) {
	svc := &fakeAuthService{result: &service.AuthResult{
		Student: &model.Student{ID: "s-1", Name: "Ada", Email: "ada@example.com", PasswordHash: "secret-hash"},
		Token:   "tok",
	}}
	rec := serve(newAuthMux(svc), http.MethodPost, "/api/auth/register", `{"name":"Ada","email":"Ada@Example.com","password":"pw"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"_id":"s-1","name":"Ada","email":"ada@example.com","token":"tok"}`, rec.Body.String())
	assert.Equal(t, "Ada@Example.com", svc.registerIn.Email)
}

func TestRegisterMissingField(t *testing.T) {
	svc := &fakeAuthService{}
	rec := serve(newAuthMux(svc), http.MethodPost, "/api/auth/register", `{"name":"Ada","email":"a@b.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide name, email, and password", message(t, rec))
}

func TestRegisterMalformedJSON(t *testing.T) {
	rec := serve(newAuthMux(&fakeAuthService{}), http.MethodPost, "/api/auth/register", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON payload", message(t, rec))
}

func TestEmptyBodyIsMissingFields(t *testing.T) {
	tests := []struct {
		mux  *http.ServeMux
		path string
		want string
	}{
		{newAuthMux(&fakeAuthService{}), "/api/auth/register", "Please provide name, email, and password"},
		{newAuthMux(&fakeAuthService{}), "/api/auth/login", "Please provide email and password"},
		{newCourseMux(&fakeCourseService{}), "/api/courses", missingCourseFields},
	}
	for _, tt := range tests {
		rec := serve(tt.mux, http.MethodPost, tt.path, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.path)
		assert.Equal(t, tt.want, message(t, rec), tt.path)
	}
}

func TestLoginPropagatesServiceError(t *testing.T) {
	svc := &fakeAuthService{err: apperr.Wrap(apperr.InvalidCredentials, "Invalid credentials", "password_mismatch", nil)}
	rec := serve(newAuthMux(svc), http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", message(t, rec))
	assert.Equal(t, service.LoginInput{Email: "a@b.com", Password: "nope"}, svc.loginIn)
}

func TestLoginMissingField(t *testing.T) {
	rec := serve(newAuthMux(&fakeAuthService{}), http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide email and password", message(t, rec))
}

func TestListCourses(t *testing.T) {
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	svc := &fakeCourseService{courses: []model.Course{
		{ID: "c-1", CourseName: "Go", CourseDescription: "d", Instructor: "i", CreatedBy: "s-1", CreatedAt: at, UpdatedAt: at},
	}}
	rec := serve(newCourseMux(svc), http.MethodGet, "/api/courses?search=INTRO", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s-1", svc.ownerID)
	assert.Equal(t, "INTRO", svc.search)
	assert.JSONEq(t, `[{"_id":"c-1","courseName":"Go","courseDescription":"d","instructor":"i","createdBy":"s-1","createdAt":"2026-02-01T09:00:00Z","updatedAt":"2026-02-01T09:00:00Z"}]`, rec.Body.String())
}

func TestListCoursesEmptyIsArray(t *testing.T) {
	rec := serve(newCourseMux(&fakeCourseService{courses: []model.Course{}}), http.MethodGet, "/api/courses", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateCourse(t *testing.T) {
	svc := &fakeCourseService{created: &model.Course{ID: "c-1", CourseName: "Go", CreatedBy: "s-1"}}
	rec := serve(newCourseMux(svc), http.MethodPost, "/api/courses", `{"courseName":"Go","courseDescription":"d","instructor":"i","createdBy":"someone-else"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "s-1", svc.ownerID)
	assert.Equal(t, service.CourseInput{CourseName: "Go", CourseDescription: "d", Instructor: "i"}, svc.input)
}

func TestCreateCourseMissingField(t *testing.T) {
	rec := serve(newCourseMux(&fakeCourseService{}), http.MethodPost, "/api/courses", `{"courseName":"Go"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, missingCourseFields, message(t, rec))
}

func TestDeleteCourse(t *testing.T) {
	svc := &fakeCourseService{}
	rec := serve(newCourseMux(svc), http.MethodDelete, "/api/courses/c-9", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Course deleted successfully", message(t, rec))
	assert.Equal(t, "c-9", svc.deleted)
}

func TestDeleteCourseErrors(t *testing.T) {
	for _, err := range []error{
		apperr.New(apperr.NotFound, "Course not found"),
		apperr.Wrap(apperr.Forbidden, "Not authorized to delete this course", "not_owner", nil),
	} {
		rec := serve(newCourseMux(&fakeCourseService{err: err}), http.MethodDelete, "/api/courses/c-9", "")
		assert.Equal(t, apperr.Status(err), rec.Code)
		assert.Equal(t, apperr.PublicMessage(err), message(t, rec))
	}
}
