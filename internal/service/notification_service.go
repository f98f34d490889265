package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ilindan-dev/notification-gateway/internal/config"
	"github.com/ilindan-dev/notification-gateway/internal/domain/model"
	"github.com/ilindan-dev/notification-gateway/internal/domain/provider"
	"github.com/ilindan-dev/notification-gateway/internal/metrics"
	"github.com/ilindan-dev/notification-gateway/internal/templates"
	"github.com/rs/zerolog"
	"net/mail"
)

var (
	// ErrInvalidRequest marks requests rejected before any provider call.
	ErrInvalidRequest = errors.New("invalid notification request")
	// ErrUnknownChannel is returned for a channel the service cannot dispatch.
	ErrUnknownChannel = errors.New("unknown channel")
)

// Renderer renders a named template, always producing a usable body.
type Renderer interface {
	Render(ctx context.Context, id string, data map[string]any) templates.RenderResult
}

// Options holds the per-deployment settings of the service.
type Options struct {
	// Sender is the fixed From address of every email.
	Sender string
	// DirectSMS sends SMS to the recipient number instead of the topic.
	DirectSMS bool
	// EscapePlainBody escapes subject and message on the no-template email path.
	EscapePlainBody bool
}

// OptionsFromConfig extracts the service options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Sender:          cfg.SES.SenderEmail,
		DirectSMS:       cfg.SNS.DirectSMS,
		EscapePlainBody: cfg.Notifiers.Email.EscapePlainBody,
	}
}

// NotificationService translates notification requests into provider calls.
// Every call maps to exactly one provider call; nothing is retried.
type NotificationService struct {
	email    provider.EmailSender
	topic    provider.TopicPublisher
	queue    provider.MessageQueue
	renderer Renderer
	metrics  *metrics.Metrics
	opts     Options
	logger   zerolog.Logger
}

// NewNotificationService creates a new instance of NotificationService.
func NewNotificationService(
	email provider.EmailSender,
	topic provider.TopicPublisher,
	queue provider.MessageQueue,
	renderer Renderer,
	m *metrics.Metrics,
	opts Options,
	logger *zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		email:    email,
		topic:    topic,
		queue:    queue,
		renderer: renderer,
		metrics:  m,
		opts:     opts,
		logger:   logger.With().Str("layer", "service").Logger(),
	}
}

// SendEmail validates the recipient, builds the HTML body and sends one email.
func (s *NotificationService) SendEmail(ctx context.Context, req model.NotificationRequest) (*model.NotificationResponse, error) {
	log := s.logger.With().Str("channel", string(model.ChannelEmail)).Str("recipient", req.Recipient).Logger()

	if _, err := mail.ParseAddress(req.Recipient); err != nil {
		log.Warn().Err(err).Msg("invalid recipient")
		return nil, fmt.Errorf("%w: invalid email recipient: %w", ErrInvalidRequest, err)
	}

	html := s.buildEmailHTML(ctx, req, log)

	_, err := s.email.SendEmail(ctx, provider.EmailMessage{
		From:     s.opts.Sender,
		To:       req.Recipient,
		Subject:  req.Subject,
		HTMLBody: html,
		TextBody: textBody(req, html),
	})
	if err != nil {
		s.observe(model.ChannelEmail, model.StatusFailed)
		log.Error().Err(err).Msg("failed to send email")
		return nil, fmt.Errorf("%w: %w", provider.ErrProviderFailed, err)
	}

	s.observe(model.ChannelEmail, model.StatusSent)
	resp := model.NewNotificationResponse(model.StatusSent, req.Recipient)
	log.Info().Stringer("id", resp.ID).Msg("email notification sent")
	return resp, nil
}

// SendSMS publishes context["message"] to the topic, or directly to the
// recipient number when direct SMS is enabled.
func (s *NotificationService) SendSMS(ctx context.Context, req model.NotificationRequest) (*model.NotificationResponse, error) {
	log := s.logger.With().Str("channel", string(model.ChannelSMS)).Str("recipient", req.Recipient).Logger()

	msg := provider.TopicMessage{
		Message: req.Message(),
		Subject: req.Subject,
	}
	if s.opts.DirectSMS {
		msg.PhoneNumber = req.Recipient
	}

	if _, err := s.topic.Publish(ctx, msg); err != nil {
		s.observe(model.ChannelSMS, model.StatusFailed)
		log.Error().Err(err).Msg("failed to publish sms")
		return nil, fmt.Errorf("%w: %w", provider.ErrProviderFailed, err)
	}

	// The caller always sees "sent"; the metric separates topic fan-out from direct delivery.
	outcome := model.StatusPublished
	if s.opts.DirectSMS {
		outcome = model.StatusSent
	}
	s.observe(model.ChannelSMS, outcome)
	resp := model.NewNotificationResponse(model.StatusSent, req.Recipient)
	log.Info().Stringer("id", resp.ID).Bool("direct", s.opts.DirectSMS).Msg("sms notification published")
	return resp, nil
}

// Send dispatches req on channel.
func (s *NotificationService) Send(ctx context.Context, channel model.Channel, req model.NotificationRequest) (*model.NotificationResponse, error) {
	switch channel {
	case model.ChannelEmail:
		return s.SendEmail(ctx, req)
	case model.ChannelSMS:
		return s.SendSMS(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
}

// Enqueue places req on the queue for the worker and reports it as queued.
// The response id is the id of the queued envelope.
func (s *NotificationService) Enqueue(ctx context.Context, channel model.Channel, req model.NotificationRequest) (*model.NotificationResponse, error) {
	log := s.logger.With().Str("channel", string(channel)).Str("recipient", req.Recipient).Logger()

	if channel != model.ChannelEmail && channel != model.ChannelSMS {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	}
	if channel == model.ChannelEmail {
		if _, err := mail.ParseAddress(req.Recipient); err != nil {
			log.Warn().Err(err).Msg("invalid recipient")
			return nil, fmt.Errorf("%w: invalid email recipient: %w", ErrInvalidRequest, err)
		}
	}

	queued := model.NewQueuedNotification(channel, req)
	body, err := json.Marshal(queued)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal queued notification")
		return nil, fmt.Errorf("%w: context is not serializable: %w", ErrInvalidRequest, err)
	}

	attrs := map[string]string{"channel": string(channel)}
	if _, err := s.queue.Enqueue(ctx, string(body), attrs, 0); err != nil {
		s.observe(channel, model.StatusFailed)
		log.Error().Err(err).Msg("failed to enqueue notification")
		return nil, fmt.Errorf("%w: %w", provider.ErrProviderFailed, err)
	}

	s.observe(channel, model.StatusQueued)
	log.Info().Stringer("id", queued.ID).Msg("notification queued")
	return &model.NotificationResponse{
		ID:        queued.ID,
		Status:    model.StatusQueued,
		Recipient: req.Recipient,
		Timestamp: queued.EnqueuedAt,
	}, nil
}

// buildEmailHTML renders the requested template or synthesizes the plain body.
func (s *NotificationService) buildEmailHTML(ctx context.Context, req model.NotificationRequest, log zerolog.Logger) string {
	if !req.HasTemplate() {
		if s.opts.EscapePlainBody {
			return templates.FallbackBody(req.Subject, req.Message())
		}
		// Unescaped: callers of the plain path are trusted internal services.
		return fmt.Sprintf("<h2>%s</h2><p>%s</p>", req.Subject, req.Message())
	}

	data := make(map[string]any, len(req.Context)+2)
	for k, v := range req.Context {
		data[k] = v
	}
	data["recipient"] = req.Recipient
	data["subject"] = req.Subject

	res := s.renderer.Render(ctx, *req.Template, data)
	if res.Fallback() {
		log.Warn().Str("template", *req.Template).Stringer("outcome", res.Outcome).Msg("email sent with fallback body")
	}
	return res.Body
}

// textBody picks the plain-text part: context["text_body"], else the HTML body, else the subject.
func textBody(req model.NotificationRequest, html string) string {
	if text := model.ContextString(req.Context, "text_body"); text != "" {
		return text
	}
	if html != "" {
		return html
	}
	return req.Subject
}

func (s *NotificationService) observe(channel model.Channel, status model.Status) {
	if s.metrics == nil {
		return
	}
	s.metrics.NotificationsSent.WithLabelValues(string(channel), string(status)).Inc()
}
