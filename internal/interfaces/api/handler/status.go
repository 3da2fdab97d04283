package handler

import (
	"net/http"

	"remindbot/internal/application/dto"
	"remindbot/internal/domain/repository"
	"remindbot/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// StatusHandler serves the ops endpoints: liveness and the list of chats with
// reminders currently enabled.
type StatusHandler struct {
	db           *gorm.DB
	reminderRepo repository.ReminderRepository
	log          logger.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(db *gorm.DB, reminderRepo repository.ReminderRepository, log logger.Logger) *StatusHandler {
	return &StatusHandler{
		db:           db,
		reminderRepo: reminderRepo,
		log:          log,
	}
}

// Healthz reports liveness. It pings the database so a wedged sqlite file
// shows up here before it shows up as failed ticks.
func (h *StatusHandler) Healthz(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		h.log.Error("Health check failed", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ActiveReminders lists all chats with reminders enabled.
func (h *StatusHandler) ActiveReminders(c echo.Context) error {
	records, err := h.reminderRepo.ListActive(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to list active reminders for ops API", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list reminders"})
	}
	return c.JSON(http.StatusOK, dto.ToReminderStatusList(records))
}
