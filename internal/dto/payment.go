package dto

// PaymentLinkRequest asks for a checkout link for a course.
type PaymentLinkRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// PaymentLinkResponse carries the issued link.
type PaymentLinkResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
}
