package handler

import (
	"net/http"

	"scms/internal/api/respond"
	"scms/internal/api/v1/dto"
	"scms/internal/apperr"
	"scms/internal/middleware"
	"scms/internal/model"
	"scms/internal/service"

	"github.com/go-playground/validator/v10"
)

const missingCourseFields = "Please provide courseName, courseDescription, and instructor"

// CourseHandler handles course-related endpoints
type CourseHandler struct {
	courseService service.CourseService
	validate      *validator.Validate
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService service.CourseService, validate *validator.Validate) *CourseHandler {
	return &CourseHandler{courseService: courseService, validate: validate}
}

// RegisterRoutes mounts course routes behind authMw
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /api/courses", authMw(http.HandlerFunc(h.listCourses)))
	mux.Handle("POST /api/courses", authMw(http.HandlerFunc(h.createCourse)))
	mux.Handle("DELETE /api/courses/{id}", authMw(http.HandlerFunc(h.deleteCourse)))
}

// listCourses godoc
// @Summary List courses
// @Description Lists the authenticated student's courses, newest first.
// @Tags courses
// @Produce json
// @Param search query string false "Case-insensitive match on name, description or instructor"
// @Success 200 {array} dto.CourseResponseDTO
// @Failure 401 {object} dto.MessageResponseDTO "Not authorized"
// @Security BearerAuth
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	student, ok := middleware.StudentFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperr.New(apperr.TokenMissing, "Not authorized, token missing"))
		return
	}

	courses, err := h.courseService.List(r.Context(), student.ID, r.URL.Query().Get("search"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]dto.CourseResponseDTO, len(courses))
	for i := range courses {
		resp[i] = toCourseResponse(&courses[i])
	}
	respond.JSON(w, r, http.StatusOK, resp)
}

// createCourse godoc
// @Summary Create a new course
// @Description Creates a new course owned by the authenticated student.
// @Tags courses
// @Accept json
// @Produce json
// @Param course body dto.CourseCreateDTO true "Course creation request"
// @Success 201 {object} dto.CourseResponseDTO
// @Failure 400 {object} dto.MessageResponseDTO "Invalid JSON payload or missing fields"
// @Failure 401 {object} dto.MessageResponseDTO "Not authorized"
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	student, ok := middleware.StudentFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperr.New(apperr.TokenMissing, "Not authorized, token missing"))
		return
	}

	var req dto.CourseCreateDTO
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, r, apperr.Wrap(apperr.MissingFields, missingCourseFields, "validation_failed", err))
		return
	}

	created, err := h.courseService.Create(r.Context(), student.ID, service.CourseInput{
		CourseName:        req.CourseName,
		CourseDescription: req.CourseDescription,
		Instructor:        req.Instructor,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, toCourseResponse(created))
}

// deleteCourse godoc
// @Summary Delete a course
// @Description Deletes a course owned by the authenticated student.
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} dto.MessageResponseDTO
// @Failure 401 {object} dto.MessageResponseDTO "Not authorized"
// @Failure 403 {object} dto.MessageResponseDTO "Not authorized to delete this course"
// @Failure 404 {object} dto.MessageResponseDTO "Course not found"
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *CourseHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	student, ok := middleware.StudentFromContext(r.Context())
	if !ok {
		respond.Error(w, r, apperr.New(apperr.TokenMissing, "Not authorized, token missing"))
		return
	}

	if err := h.courseService.Delete(r.Context(), student.ID, r.PathValue("id")); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, dto.MessageResponseDTO{Message: "Course deleted successfully"})
}

func toCourseResponse(c *model.Course) dto.CourseResponseDTO {
	return dto.CourseResponseDTO{
		ID:                c.ID,
		CourseName:        c.CourseName,
		CourseDescription: c.CourseDescription,
		Instructor:        c.Instructor,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
