// Package client is the Go counterpart of the browser session controller: it
// keeps the current token and student in a SessionStore, attaches the token to
// course requests and drops the session whenever the server answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is used when no API URL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

var (
	// ErrUnauthorized is wrapped by every 401 response. The stored session
	// has already been cleared when it is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotLoggedIn is returned by course calls when no session is stored.
	ErrNotLoggedIn = errors.New("not logged in")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Course mirrors the server's course record.
type Course struct {
	ID                string    `json:"_id"`
	CourseName        string    `json:"courseName"`
	CourseDescription string    `json:"courseDescription"`
	Instructor        string    `json:"instructor"`
	CreatedBy         string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CourseInput is the body of a create request.
type CourseInput struct {
	CourseName        string `json:"courseName"`
	CourseDescription string `json:"courseDescription"`
	Instructor        string `json:"instructor"`
}

type authResponse struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests (timeouts, TLS, test servers).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client talks to the course management API on behalf of one user.
type Client struct {
	baseURL    string
	store      SessionStore
	httpClient *http.Client
}

// NewClient creates a client for baseURL (see NormalizeBaseURL).
func NewClient(baseURL string, store SessionStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    NormalizeBaseURL(baseURL),
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBaseURL trims whitespace and trailing slashes and appends /api
// unless the URL already ends with it. An empty value yields DefaultBaseURL.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return DefaultBaseURL
	}
	if strings.HasSuffix(base, "/api") {
		return base
	}
	return base + "/api"
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the stored session, or nil when logged out.
func (c *Client) Session() (*Session, error) {
	return c.store.Load()
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, "/auth/register", body)
}

// Login signs in and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/auth/login", body)
}

// Logout discards the stored session. Tokens cannot be revoked server-side.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// ListCourses returns the signed-in student's courses, optionally filtered.
func (c *Client) ListCourses(ctx context.Context, search string) ([]Course, error) {
	path := "/courses"
	if s := strings.TrimSpace(search); s != "" {
		path += "?search=" + url.QueryEscape(s)
	}
	var courses []Course
	if err := c.doAuthed(ctx, http.MethodGet, path, nil, &courses, "Failed to load courses"); err != nil {
		return nil, err
	}
	return courses, nil
}

// CreateCourse creates a course owned by the signed-in student.
func (c *Client) CreateCourse(ctx context.Context, in CourseInput) (*Course, error) {
	var course Course
	if err := c.doAuthed(ctx, http.MethodPost, "/courses", in, &course, "Unable to create course"); err != nil {
		return nil, err
	}
	return &course, nil
}

// DeleteCourse deletes a course and returns the server's confirmation.
func (c *Client) DeleteCourse(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	if err := c.doAuthed(ctx, http.MethodDelete, "/courses/"+url.PathEscape(id), nil, &resp, "Unable to delete course"); err != nil {
		return "", err
	}
	if resp.Message == "" {
		return "Course deleted", nil
	}
	return resp.Message, nil
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp, "Authentication failed"); err != nil {
		return nil, err
	}

	s := &Session{
		Token:   resp.Token,
		Student: Student{ID: resp.ID, Name: resp.Name, Email: resp.Email},
	}
	if err := c.store.Save(s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

func (c *Client) doAuthed(ctx context.Context, method, path string, body, out any, fallback string) error {
	s, err := c.store.Load()
	if err != nil {
		return err
	}
	if s == nil || s.Token == "" {
		return ErrNotLoggedIn
	}
	return c.do(ctx, method, path, s.Token, body, out, fallback)
}

// do sends one request. Non-2xx responses become *APIError using the
// server's message, or fallback when it has none.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var m messageResponse
		_ = json.Unmarshal(data, &m)
		if m.Message == "" {
			m.Message = fallback
		}
		if resp.StatusCode == http.StatusUnauthorized {
			if err := c.store.Clear(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
		}
		return &APIError{Status: resp.StatusCode, Message: m.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
