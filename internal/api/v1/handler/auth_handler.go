package handler

import (
	"net/http"

	"scms/internal/api/respond"
	"scms/internal/api/v1/dto"
	"scms/internal/apperr"
	"scms/internal/service"

	"github.com/go-playground/validator/v10"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validate}
}

// RegisterRoutes mounts auth routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
}

// register godoc
// @Summary Register a student
// @Description Creates a student account and returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "Registration request"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.MessageResponseDTO "Missing fields or email already registered"
// @Failure 500 {object} dto.MessageResponseDTO "JWT_SECRET is not configured"
// @Router /auth/register [post]
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, r, apperr.Wrap(apperr.MissingFields, "Please provide name, email, and password", "validation_failed", err))
		return
	}

	res, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, dto.NewAuthResponse(res.Student, res.Token))
}

// login godoc
// @Summary Log in
// @Description Verifies credentials and returns a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} dto.MessageResponseDTO "Missing fields"
// @Failure 401 {object} dto.MessageResponseDTO "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respond.Error(w, r, apperr.Wrap(apperr.MissingFields, "Please provide email and password", "validation_failed", err))
		return
	}

	res, err := h.authService.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, dto.NewAuthResponse(res.Student, res.Token))
}
