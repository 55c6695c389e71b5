package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/leaguecraft/internal/api/middleware"
	"github.com/jstittsworth/leaguecraft/internal/rules"
	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/utils"
)

// currentUser resolves the acting user. In development, anonymous requests
// act as the default user so the demo flow works without a login step.
func currentUser(c *gin.Context, cfg *config.Config) (uint, bool) {
	if id, ok := middleware.CurrentUserID(c); ok {
		return id, true
	}
	if cfg.IsDevelopment() {
		return 1, true
	}
	utils.SendUnauthorized(c, "Authentication required")
	return 0, false
}

// sendServiceError maps typed domain errors onto the response envelope.
func sendServiceError(c *gin.Context, err error) {
	var lineupErr *services.LineupError
	if errors.As(err, &lineupErr) {
		switch lineupErr.Code {
		case services.LineupNotFound:
			utils.SendNotFound(c, lineupErr.Message)
		case services.LineupForbidden:
			utils.SendForbidden(c, lineupErr.Message)
		case services.LineupBadAthlete:
			utils.SendValidationError(c, lineupErr.Message, nil)
		case services.LineupLocked, services.LineupDuplicate, services.LineupIncomplete:
			utils.SendConflict(c, lineupErr.Message)
		default:
			utils.SendInternalError(c, lineupErr.Message)
		}
		return
	}

	var schedErr *services.ScheduleError
	if errors.As(err, &schedErr) {
		utils.SendConflict(c, schedErr.Message)
		return
	}

	var cfgErr *rules.ConfigError
	if errors.As(err, &cfgErr) {
		utils.SendValidationError(c, "Invalid rule set configuration", cfgErr)
		return
	}

	utils.SendInternalError(c, "Unexpected error")
}
