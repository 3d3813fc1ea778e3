package dto

import "time"

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	CourseName        string `json:"courseName" validate:"required"`
	CourseDescription string `json:"courseDescription" validate:"required"`
	Instructor        string `json:"instructor" validate:"required"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	ID                string    `json:"_id"`
	CourseName        string    `json:"courseName"`
	CourseDescription string    `json:"courseDescription"`
	Instructor        string    `json:"instructor"`
	CreatedBy         string    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// MessageResponseDTO carries a confirmation or error message
type MessageResponseDTO struct {
	Message string `json:"message"`
}
