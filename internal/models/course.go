package models

import (
	"strings"

	"github.com/lib/pq"
)

// CourseType controls how many instructors share a course and how slots are selected.
type CourseType string

const (
	CourseTypeSolo  CourseType = "solo"
	CourseTypeDuo   CourseType = "duo"
	CourseTypeGroup CourseType = "group"
)

// DurationType distinguishes a single lesson from a weekly series.
type DurationType string

const (
	DurationOneTime   DurationType = "one-time"
	DurationRecurring DurationType = "recurring"
)

// Course is the read-only catalog projection used by scheduling.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	CourseType    CourseType     `db:"course_type" json:"course_type"`
	DurationType  DurationType   `db:"duration_type" json:"duration_type"`
	InstructorIDs pq.StringArray `db:"instructor_ids" json:"instructor_ids"`
	ClassTypeID   *string        `db:"class_type_id" json:"class_type_id,omitempty"`
}

// IsRecurring reports whether the course is delivered as a weekly series.
func (c Course) IsRecurring() bool {
	return c.DurationType == DurationRecurring
}

// ConsumesSlot reports whether enrolling removes the chosen availability slot.
func (c Course) ConsumesSlot() bool {
	return c.CourseType == CourseTypeSolo || c.CourseType == CourseTypeDuo
}

// SoleInstructor returns the instructor when exactly one is assigned.
func (c Course) SoleInstructor() string {
	if len(c.InstructorIDs) == 1 {
		return c.InstructorIDs[0]
	}
	return ""
}

// HasInstructor reports whether teacherID is assigned to the course.
func (c Course) HasInstructor(teacherID string) bool {
	for _, id := range c.InstructorIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// DefaultSessionMinutes applies when a class type is missing or malformed.
const DefaultSessionMinutes = 60

var durationUnitMinutes = map[string]int{
	"minutes": 1,
	"hours":   60,
	"days":    1440,
	"weeks":   10080,
	"months":  43200,
}

// ClassType carries the lesson length for a course.
type ClassType struct {
	ID            string  `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	DurationValue *int    `db:"duration_value" json:"duration_value,omitempty"`
	DurationUnit  *string `db:"duration_unit" json:"duration_unit,omitempty"`
}

// DurationMinutes resolves the session length, falling back to DefaultSessionMinutes.
func (c *ClassType) DurationMinutes() int {
	if c == nil || c.DurationValue == nil || c.DurationUnit == nil || *c.DurationValue <= 0 {
		return DefaultSessionMinutes
	}
	factor, ok := durationUnitMinutes[strings.ToLower(strings.TrimSpace(*c.DurationUnit))]
	if !ok {
		return DefaultSessionMinutes
	}
	return *c.DurationValue * factor
}
