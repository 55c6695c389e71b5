package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/database"
	"github.com/jstittsworth/leaguecraft/pkg/utils"
)

type MatchupHandler struct {
	db     *database.DB
	season *services.SeasonService
	cfg    *config.Config
}

func NewMatchupHandler(db *database.DB, season *services.SeasonService, cfg *config.Config) *MatchupHandler {
	return &MatchupHandler{
		db:     db,
		season: season,
		cfg:    cfg,
	}
}

// GetMatchup returns one fixture with its result, if finalized.
func (h *MatchupHandler) GetMatchup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid matchup ID", c.Param("id"))
		return
	}

	var matchup models.Matchup
	if err := h.db.Preload("Result").First(&matchup, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Matchup not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch matchup")
		}
		return
	}
	utils.SendSuccess(c, matchup)
}

// SimulateMatchup resolves the fixture to a final score. Idempotent: a
// finalized matchup returns its stored result unchanged.
func (h *MatchupHandler) SimulateMatchup(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid matchup ID", c.Param("id"))
		return
	}

	result, err := h.season.SimulateMatchup(actorID, uint(id))
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, result)
}
