package dto

// RecordTrialRequest books a trial lesson for a student.
type RecordTrialRequest struct {
	StudentID string         `json:"studentId" validate:"required"`
	CourseID  string         `json:"courseId" validate:"required"`
	TeacherID string         `json:"teacherId"`
	Slot      *SlotSelection `json:"slot" validate:"omitempty"`
}

// RecordTrialResponse reports whether a new trial was written.
type RecordTrialResponse struct {
	StudentID string `json:"studentId"`
	CourseID  string `json:"courseId"`
	Created   bool   `json:"created"`
}

// StudentTrialsResponse lists the courses a student has trialled.
type StudentTrialsResponse struct {
	StudentID string   `json:"studentId"`
	CourseIDs []string `json:"courseIds"`
}
