package http

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ilindan-dev/notification-gateway/internal/domain/model"
	"github.com/ilindan-dev/notification-gateway/internal/service"
	"github.com/rs/zerolog"
	"net/http"
	"strings"
)

// notificationService is the part of service.NotificationService used by the handlers.
type notificationService interface {
	Send(ctx context.Context, channel model.Channel, req model.NotificationRequest) (*model.NotificationResponse, error)
	Enqueue(ctx context.Context, channel model.Channel, req model.NotificationRequest) (*model.NotificationResponse, error)
}

// Ensure NotificationService satisfies the handler contract.
var _ notificationService = (*service.NotificationService)(nil)

type Handlers struct {
	service notificationService
	logger  zerolog.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *service.NotificationService, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger.With().Str("layer", "http_handler").Logger(),
	}
}

// RegisterRoutes sets up the routing for the notification API and the probes.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.HEAD("/health", h.Health)
	router.GET("/ready", h.Ready)

	api := router.Group("/api/v1")
	{
		api.POST("/notifications/email", h.SendEmail)
		api.POST("/notifications/sms", h.SendSMS)
		api.POST("/notifications/email/queue", h.QueueEmail)
		api.POST("/notifications/sms/queue", h.QueueSMS)
	}
}

// SendEmail handles the HTTP request for sending an email notification.
func (h *Handlers) SendEmail(c *gin.Context) {
	h.send(c, model.ChannelEmail)
}

// SendSMS handles the HTTP request for publishing an SMS notification.
func (h *Handlers) SendSMS(c *gin.Context) {
	h.send(c, model.ChannelSMS)
}

// QueueEmail places an email notification on the queue for the worker.
func (h *Handlers) QueueEmail(c *gin.Context) {
	h.enqueue(c, model.ChannelEmail)
}

// QueueSMS places an SMS notification on the queue for the worker.
func (h *Handlers) QueueSMS(c *gin.Context) {
	h.enqueue(c, model.ChannelSMS)
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, toHealthResponse(model.NewHealthCheck("healthy")))
}

// Ready reports readiness. Provider reachability is not probed.
func (h *Handlers) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, toHealthResponse(model.NewHealthCheck("ready")))
}

func (h *Handlers) send(c *gin.Context, channel model.Channel) {
	req, ok := h.bind(c, channel)
	if !ok {
		return
	}

	resp, err := h.service.Send(c.Request.Context(), channel, req.toModel())
	if err != nil {
		h.respondError(c, err, "Failed to send notification: ")
		return
	}

	c.JSON(http.StatusCreated, toNotificationResponse(resp))
}

func (h *Handlers) enqueue(c *gin.Context, channel model.Channel) {
	req, ok := h.bind(c, channel)
	if !ok {
		return
	}

	resp, err := h.service.Enqueue(c.Request.Context(), channel, req.toModel())
	if err != nil {
		h.respondError(c, err, "Failed to queue notification: ")
		return
	}

	c.JSON(http.StatusAccepted, toNotificationResponse(resp))
}

// bind decodes and validates the body, writing a 400 response on failure.
func (h *Handlers) bind(c *gin.Context, channel model.Channel) (NotificationRequest, bool) {
	var req NotificationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Str("channel", string(channel)).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, validationError(err))
		return req, false
	}

	if channel == model.ChannelEmail {
		if err := validateEmail(req.Recipient); err != nil {
			h.logger.Warn().Err(err).Str("recipient", req.Recipient).Msg("invalid email recipient")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Detail: "validation failed",
				Fields: []FieldError{{Field: "recipient", Reason: "must be a valid email address"}},
			})
			return req, false
		}
	}

	return req, true
}

func (h *Handlers) respondError(c *gin.Context, err error, prefix string) {
	if errors.Is(err, service.ErrInvalidRequest) || errors.Is(err, service.ErrUnknownChannel) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("notification request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: prefix + err.Error()})
}

// validateEmail runs the validator engine gin binds with.
func validateEmail(recipient string) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.Var(recipient, "required,email")
}

// validationError converts binding errors into a field-level error body.
func validationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrorResponse{Detail: "invalid request body: " + err.Error()}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:  strings.ToLower(fe.Field()),
			Reason: reason(fe),
		})
	}
	return ErrorResponse{Detail: "validation failed", Fields: fields}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "must be a valid email address"
	default:
		return "failed on " + fe.Tag()
	}
}
