package model

import "time"

// Course is a course record owned by exactly one student.
type Course struct {
	ID                string    `db:"id" json:"_id"`
	CourseName        string    `db:"course_name" json:"courseName"`
	CourseDescription string    `db:"course_description" json:"courseDescription"`
	Instructor        string    `db:"instructor" json:"instructor"`
	CreatedBy         string    `db:"created_by" json:"createdBy"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}
