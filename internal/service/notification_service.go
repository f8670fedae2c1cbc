package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/pkg/jobs"
	"github.com/noah-isme/music-school-api/pkg/middleware/requestid"
	"github.com/noah-isme/music-school-api/pkg/notify"
)

// Outcome kinds published by the scheduling engine.
const (
	OutcomeEnrollmentCompleted = "enrollment_completed"
	OutcomeEnrollmentWarning   = "enrollment_scheduling_warning"
	OutcomePaymentLink         = "payment_link"
)

// Outcome is what the engine reports after a user-visible action.
type Outcome struct {
	Kind           string
	Subject        string
	Body           string
	RecipientName  string
	RecipientEmail string
	Fields         map[string]string
}

type sinkDelivery struct {
	Sink    string
	Message notify.Message
}

// NotificationService fans outcomes out to every sink on a background worker pool.
// Delivery failures are retried and logged, never returned to the caller.
type NotificationService struct {
	sinks      map[string]notify.Sink
	dispatcher *jobs.Dispatcher[sinkDelivery]
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewNotificationService wires the sinks to a dispatcher. Call Start before Notify.
func NewNotificationService(sinks []notify.Sink, opts jobs.Options, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	s := &NotificationService{sinks: make(map[string]notify.Sink, len(sinks)), metrics: metrics, logger: logger}
	for _, sink := range sinks {
		if sink != nil {
			s.sinks[sink.Name()] = sink
		}
	}
	s.dispatcher = jobs.NewDispatcher[sinkDelivery]("notifications", s.deliver, opts)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.dispatcher.Start(ctx)
}

// Stop drains in-flight deliveries.
func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// Notify queues the outcome for every sink and returns immediately. Deliveries that do not fit
// in the queue are dropped and counted.
func (s *NotificationService) Notify(ctx context.Context, outcome Outcome) {
	if s == nil {
		return
	}
	msg := notify.Message{
		Kind:      outcome.Kind,
		ToName:    outcome.RecipientName,
		ToEmail:   outcome.RecipientEmail,
		Subject:   outcome.Subject,
		Text:      outcome.Body,
		Fields:    outcome.Fields,
		RequestID: requestid.FromContext(ctx),
	}

	for name := range s.sinks {
		_, err := s.dispatcher.TryEnqueue(sinkDelivery{Sink: name, Message: msg})
		if err == nil {
			continue
		}
		if errors.Is(err, jobs.ErrQueueFull) {
			s.metrics.RecordNotificationDropped(name)
		}
		s.logger.Warn("notification not queued", zap.String("sink", name), zap.String("kind", outcome.Kind), zap.Error(err))
	}
}

func (s *NotificationService) deliver(ctx context.Context, task jobs.Task[sinkDelivery]) error {
	sink, ok := s.sinks[task.Payload.Sink]
	if !ok {
		return nil
	}
	if err := sink.Send(ctx, task.Payload.Message); err != nil {
		s.metrics.RecordNotification(sink.Name(), false)
		return fmt.Errorf("%s: %w", sink.Name(), err)
	}
	s.metrics.RecordNotification(sink.Name(), true)
	return nil
}
