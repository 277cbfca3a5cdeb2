package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/dto"
	"github.com/noah-isme/gema-gradebook/internal/middleware"
	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// SubmissionHandler exposes hand-in and submission lookup routes.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler creates a new handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints.
func (h *SubmissionHandler) Register(router fiber.Router) {
	router.Post("/assignments/:id/submissions", h.submit)
	router.Get("/submissions", h.list)
	router.Get("/submissions/:id", h.get)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	// Students always hand in for themselves; staff may submit on a student's behalf.
	if isStudent(c) {
		self := middleware.UserID(c)
		if payload.StudentID != 0 && payload.StudentID != self {
			return utils.SendError(c, fiber.StatusForbidden, "cannot submit for another student")
		}
		payload.StudentID = self
	}

	submission, err := h.service.Submit(c.UserContext(), assignmentID, payload)
	if err != nil {
		return handleError(c, h.logger, err, "failed to create submission")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	var filter dto.SubmissionFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid filter")
	}

	if isStudent(c) {
		self := middleware.UserID(c)
		filter.StudentID = &self
	}

	submissions, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return handleError(c, h.logger, err, "failed to list submissions")
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleError(c, h.logger, err, "failed to load submission")
	}

	if isStudent(c) && submission.StudentID != middleware.UserID(c) {
		return utils.SendError(c, fiber.StatusNotFound, service.ErrSubmissionNotFound.Error())
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}
