package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sendgrid/rest"
)

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridSink emails messages that carry a recipient address.
type SendGridSink struct {
	client sendGridClient
	from   *sgmail.Email
}

// NewSendGridSink builds a sink for the given API key and sender identity.
func NewSendGridSink(apiKey, fromName, fromEmail string) *SendGridSink {
	return &SendGridSink{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridSink) Name() string { return "sendgrid" }

// Send skips messages without an email recipient.
func (s *SendGridSink) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return nil
	}
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	html := msg.HTML
	if html == "" {
		html = "<p>" + msg.Text + "</p>"
	}
	mail := sgmail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, html)

	res, err := s.client.SendWithContext(ctx, mail)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
