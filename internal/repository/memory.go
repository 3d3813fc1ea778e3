package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"scms/internal/model"

	"github.com/google/uuid"
)

// MemoryStore is an in-process StudentRepository and CourseRepository for
// local development and tests. It enforces the same email uniqueness and
// ordering rules as the PostgreSQL schema.
type MemoryStore struct {
	mu       sync.RWMutex
	students map[string]model.Student
	emails   map[string]string
	courses  map[string]memoryCourse
	seq      int64
	now      func() time.Time
}

type memoryCourse struct {
	model.Course
	seq int64
}

var (
	_ StudentRepository = (*MemoryStore)(nil)
	_ CourseRepository  = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students: make(map[string]model.Student),
		emails:   make(map[string]string),
		courses:  make(map[string]memoryCourse),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) CreateStudent(_ context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(s.Email)
	if _, ok := m.emails[key]; ok {
		return ErrDuplicateEmail
	}

	s.ID = uuid.NewString()
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	m.students[s.ID] = *s
	m.emails[key] = s.ID
	return nil
}

func (m *MemoryStore) GetStudentByEmail(_ context.Context, email string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	s := m.students[id]
	return &s, nil
}

func (m *MemoryStore) GetStudentByID(_ context.Context, id string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	s.PasswordHash = ""
	return &s, nil
}

func (m *MemoryStore) CreateCourse(_ context.Context, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[c.CreatedBy]; !ok {
		return fmt.Errorf("db error: student %s does not exist", c.CreatedBy)
	}

	m.seq++
	c.ID = uuid.NewString()
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.courses[c.ID] = memoryCourse{Course: *c, seq: m.seq}
	return nil
}

func (m *MemoryStore) GetCoursesByOwner(_ context.Context, ownerID, search string) ([]model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	matches := []memoryCourse{}
	for _, c := range m.courses {
		if c.CreatedBy != ownerID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.CourseName), needle) &&
			!strings.Contains(strings.ToLower(c.CourseDescription), needle) &&
			!strings.Contains(strings.ToLower(c.Instructor), needle) {
			continue
		}
		matches = append(matches, c)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].seq > matches[j].seq
	})

	courses := make([]model.Course, len(matches))
	for i, c := range matches {
		courses[i] = c.Course
	}
	return courses, nil
}

func (m *MemoryStore) GetCourseByID(_ context.Context, id string) (*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.courses[id]
	if !ok {
		return nil, nil
	}
	course := c.Course
	return &course, nil
}

func (m *MemoryStore) DeleteCourse(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.courses[id]; !ok {
		return false, nil
	}
	delete(m.courses, id)
	return true, nil
}
