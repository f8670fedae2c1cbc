package dto

import (
	"time"

	"github.com/noah-isme/music-school-api/internal/models"
)

// SlotSelection identifies a weekly interval chosen by the caller.
type SlotSelection struct {
	SlotID    string `json:"slotId"`
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
}

// BeginEnrollmentRequest starts an enrollment.
type BeginEnrollmentRequest struct {
	CourseID  string         `json:"courseId" validate:"required"`
	StudentID string         `json:"studentId" validate:"required"`
	TeacherID string         `json:"teacherId"`
	Slot      *SlotSelection `json:"slot" validate:"omitempty"`
}

// ContinueEnrollmentRequest resumes a suspended enrollment with the chosen slot.
type ContinueEnrollmentRequest struct {
	Slot SlotSelection `json:"slot"`
}

// EnrollmentStatus tells the caller whether the enrollment finished.
type EnrollmentStatus string

const (
	EnrollmentComplete           EnrollmentStatus = "COMPLETE"
	EnrollmentNeedsSlotSelection EnrollmentStatus = "NEEDS_SLOT_SELECTION"
)

// SchedulingWarning reports that the enrollment was stored but its sessions were not.
// Retrying the enrollment is safe.
type SchedulingWarning struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// SchedulingWarningCode identifies SchedulingWarning payloads.
const SchedulingWarningCode = "SCHEDULING_WARNING"

// EnrollmentResult is returned by both enrollment phases.
type EnrollmentResult struct {
	Status         EnrollmentStatus   `json:"status"`
	Enrollment     *models.Enrollment `json:"enrollment,omitempty"`
	Sessions       []models.Session   `json:"sessions,omitempty"`
	EventsCreated  int                `json:"eventsCreated"`
	EventsPurged   int                `json:"eventsPurged"`
	SlotConsumed   bool               `json:"slotConsumed"`
	Warning        *SchedulingWarning `json:"warning,omitempty"`
	IntentToken    string             `json:"intentToken,omitempty"`
	CandidateSlots []CatalogSlot      `json:"candidateSlots,omitempty"`
	ExpiresAt      *time.Time         `json:"expiresAt,omitempty"`
}

// EnrollmentIntent is a suspended enrollment awaiting slot selection.
type EnrollmentIntent struct {
	Token      string                 `json:"token"`
	Request    BeginEnrollmentRequest `json:"request"`
	TeacherID  string                 `json:"teacherId"`
	Candidates []CatalogSlot          `json:"candidates"`
	CreatedAt  time.Time              `json:"createdAt"`
	ExpiresAt  time.Time              `json:"expiresAt"`
}

// SessionListResponse lists the projected sessions of an enrollment.
type SessionListResponse struct {
	EnrollmentID string           `json:"enrollmentId"`
	Sessions     []models.Session `json:"sessions"`
}
