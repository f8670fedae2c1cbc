package notify

import (
	"context"
	"net/http"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sendGridClientStub struct {
	sent   []*sgmail.SGMailV3
	status int
}

func (s *sendGridClientStub) SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	s.sent = append(s.sent, email)
	return &rest.Response{StatusCode: s.status, Body: "body"}, nil
}

func TestSendGridSinkSkipsWithoutRecipient(t *testing.T) {
	stub := &sendGridClientStub{status: http.StatusAccepted}
	sink := &SendGridSink{client: stub, from: sgmail.NewEmail("School", "school@example.com")}

	require.NoError(t, sink.Send(context.Background(), Message{Kind: "enrollment", Subject: "hi"}))
	assert.Empty(t, stub.sent)
}

func TestSendGridSinkSendsAndReportsFailures(t *testing.T) {
	stub := &sendGridClientStub{status: http.StatusAccepted}
	sink := &SendGridSink{client: stub, from: sgmail.NewEmail("School", "school@example.com")}

	msg := Message{Kind: "payment_link", ToEmail: "ana@example.com", ToName: "Ana", Subject: "Your link", Text: "https://pay"}
	require.NoError(t, sink.Send(context.Background(), msg))
	require.Len(t, stub.sent, 1)
	assert.Equal(t, "Your link", stub.sent[0].Subject)

	stub.status = http.StatusUnauthorized
	assert.Error(t, sink.Send(context.Background(), msg))
}
