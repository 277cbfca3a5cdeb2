package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-gradebook/internal/service"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

// CourseStatsHandler exposes aggregated course statistics.
type CourseStatsHandler struct {
	service service.CourseStatsService
	logger  zerolog.Logger
}

// NewCourseStatsHandler constructs the handler.
func NewCourseStatsHandler(service service.CourseStatsService, logger zerolog.Logger) *CourseStatsHandler {
	return &CourseStatsHandler{
		service: service,
		logger:  logger.With().Str("component", "course_stats_handler").Logger(),
	}
}

// Register attaches the statistics endpoint behind the given guards.
func (h *CourseStatsHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	handlers := append(guards, h.stats)
	router.Get("/courses/:courseId/stats", handlers...)
}

func (h *CourseStatsHandler) stats(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stats, err := h.service.GetCourseStats(c.UserContext(), courseID)
	if err != nil {
		return handleError(c, h.logger, err, "failed to compute course statistics")
	}

	return utils.SendSuccess(c, "course statistics retrieved", stats)
}
