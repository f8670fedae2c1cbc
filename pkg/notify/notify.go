package notify

import "context"

// Message is a rendered notification ready for delivery.
type Message struct {
	Kind      string
	ToName    string
	ToEmail   string
	Subject   string
	Text      string
	HTML      string
	Fields    map[string]string
	RequestID string
}

// Sink delivers messages to one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
