package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured is returned when no payment provider credentials are present.
var ErrNotConfigured = errors.New("payment provider not configured")

// LinkRequest describes the purchase a payment link is issued for.
type LinkRequest struct {
	CourseID    string
	CourseTitle string
	StudentID   string
}

// Link is an issued, shareable checkout URL.
type Link struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Provider string `json:"provider"`
}

type paymentLinkAPI interface {
	New(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
}

// StripeIssuer creates Stripe Payment Links for a fixed price.
type StripeIssuer struct {
	links   paymentLinkAPI
	priceID string
}

// NewStripeIssuer returns nil when the secret key or price is missing.
func NewStripeIssuer(secretKey, priceID string) *StripeIssuer {
	if secretKey == "" || priceID == "" {
		return nil
	}
	sc := client.New(secretKey, nil)
	return &StripeIssuer{links: sc.PaymentLinks, priceID: priceID}
}

// Issue creates the payment link with course/student metadata attached.
func (s *StripeIssuer) Issue(ctx context.Context, req LinkRequest) (*Link, error) {
	if s == nil || s.links == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(s.priceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	params.AddMetadata("course_id", req.CourseID)
	params.AddMetadata("student_id", req.StudentID)
	if req.CourseTitle != "" {
		params.AddMetadata("course_title", req.CourseTitle)
	}

	link, err := s.links.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe payment link: %w", err)
	}
	return &Link{ID: link.ID, URL: link.URL, Provider: "stripe"}, nil
}
