package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/database"
	"github.com/jstittsworth/leaguecraft/pkg/utils"
)

type LineupHandler struct {
	db     *database.DB
	season *services.SeasonService
	cfg    *config.Config
}

func NewLineupHandler(db *database.DB, season *services.SeasonService, cfg *config.Config) *LineupHandler {
	return &LineupHandler{
		db:     db,
		season: season,
		cfg:    cfg,
	}
}

func (h *LineupHandler) teamWeek(c *gin.Context) (uint, int, bool) {
	teamID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid team ID", c.Param("id"))
		return 0, 0, false
	}
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil {
		utils.SendValidationError(c, "Invalid week", c.Param("week"))
		return 0, 0, false
	}
	return uint(teamID), week, true
}

// GetLineup returns the team's lineup for a week, provisioning the required
// slot set on first access.
func (h *LineupHandler) GetLineup(c *gin.Context) {
	teamID, week, ok := h.teamWeek(c)
	if !ok {
		return
	}

	lineup, err := h.season.EnsureLineup(teamID, week)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, lineup)
}

// SetSlot assigns an athlete to one lineup slot.
func (h *LineupHandler) SetSlot(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}
	teamID, week, ok := h.teamWeek(c)
	if !ok {
		return
	}

	var req struct {
		SlotKey   string `json:"slot_key" binding:"required"`
		SlotIndex *int   `json:"slot_index" binding:"required"`
		AthleteID uint   `json:"athlete_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	lineup, err := h.season.SetSlot(actorID, teamID, week, req.SlotKey, *req.SlotIndex, req.AthleteID)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, lineup)
}

// ClearSlot empties one lineup slot.
func (h *LineupHandler) ClearSlot(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}
	teamID, week, ok := h.teamWeek(c)
	if !ok {
		return
	}
	slotIndex, err := strconv.Atoi(c.Param("slotIndex"))
	if err != nil {
		utils.SendValidationError(c, "Invalid slot index", c.Param("slotIndex"))
		return
	}

	lineup, err := h.season.ClearSlot(actorID, teamID, week, c.Param("slotKey"), slotIndex)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, lineup)
}

// LockLineup finalizes the lineup for the week. One-way.
func (h *LineupHandler) LockLineup(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}
	teamID, week, ok := h.teamWeek(c)
	if !ok {
		return
	}

	lineup, err := h.season.LockLineup(actorID, teamID, week)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, lineup)
}
