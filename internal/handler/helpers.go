package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/models"
	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// fieldError is the details entry returned for rejected payloads.
type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, errors.New(key + " is required")
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   middleware.UserID(c),
		Role: middleware.UserRole(c),
	}
}

func isStudent(c *fiber.Ctx) bool {
	return middleware.UserRole(c) == middleware.RoleStudent
}

// requestLogger prefers the correlation-scoped logger bound by middleware.
func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	if scoped := zerolog.Ctx(c.UserContext()); scoped.GetLevel() != zerolog.Disabled {
		logger := scoped.With().Str("component", "handler").Logger()
		return &logger
	}
	logger := base
	if correlation := middleware.GetCorrelationID(c); correlation != "" {
		logger = base.With().Str("correlation_id", correlation).Logger()
	}
	return &logger
}

func validationDetails(err error) ([]fieldError, bool) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]fieldError, 0, len(validationErrors))
		for _, fe := range validationErrors {
			details = append(details, fieldError{Field: fe.Field(), Reason: fe.Tag()})
		}
		return details, true
	}

	var domainErr *models.ValidationError
	if errors.As(err, &domainErr) {
		return []fieldError{{Field: domainErr.Field, Reason: domainErr.Reason}}, true
	}

	return nil, false
}

// handleError maps service and domain errors onto the response envelope.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStudentNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAssignmentInactive),
		errors.Is(err, service.ErrMaxAttemptsReached),
		errors.Is(err, service.ErrLateSubmissionRejected),
		errors.Is(err, service.ErrSubmissionNotGradable),
		errors.Is(err, models.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDueDateInPast):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
