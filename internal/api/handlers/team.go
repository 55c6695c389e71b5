package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/database"
	"github.com/jstittsworth/leaguecraft/pkg/utils"
)

type TeamHandler struct {
	db     *database.DB
	season *services.SeasonService
	cfg    *config.Config
}

func NewTeamHandler(db *database.DB, season *services.SeasonService, cfg *config.Config) *TeamHandler {
	return &TeamHandler{
		db:     db,
		season: season,
		cfg:    cfg,
	}
}

// ListTeams returns all teams in a league.
func (h *TeamHandler) ListTeams(c *gin.Context) {
	leagueID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid league ID", c.Param("id"))
		return
	}

	var teams []models.Team
	if err := h.db.Where("league_id = ?", uint(leagueID)).Order("id asc").Find(&teams).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch teams")
		return
	}
	utils.SendSuccess(c, teams)
}

// GetTeam returns one team with its roster.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid team ID", c.Param("id"))
		return
	}

	var team models.Team
	if err := h.db.Preload("Athletes").First(&team, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Team not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch team")
		}
		return
	}
	utils.SendSuccess(c, team)
}

// CreateTeam joins a league with a new team. The roster is provisioned
// immediately from the league's rule set.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}

	leagueID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid league ID", c.Param("id"))
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		NotifyPhone string `json:"notify_phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	var league models.League
	if err := h.db.Preload("RuleSet").First(&league, uint(leagueID)).Error; err != nil {
		utils.SendNotFound(c, "League not found")
		return
	}
	cfg, err := league.RuleSet.Rules()
	if err != nil {
		utils.SendInternalError(c, "Stored rule set is invalid")
		return
	}

	team := models.Team{
		LeagueID:    league.ID,
		OwnerID:     actorID,
		Name:        strings.TrimSpace(req.Name),
		NotifyPhone: req.NotifyPhone,
	}
	if team.Name == "" {
		utils.SendValidationError(c, "Team name is required", nil)
		return
	}
	if err := h.db.Create(&team).Error; err != nil {
		utils.SendConflict(c, "A team with this name already exists in the league")
		return
	}
	if err := h.season.ProvisionRoster(&team, cfg); err != nil {
		utils.SendInternalError(c, "Failed to provision roster")
		return
	}

	if err := h.db.Preload("Athletes").First(&team, team.ID).Error; err != nil {
		utils.SendInternalError(c, "Failed to reload team")
		return
	}
	utils.SendSuccess(c, team)
}
