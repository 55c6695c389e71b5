package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/database"
	"github.com/jstittsworth/leaguecraft/pkg/utils"
)

type LeagueHandler struct {
	db     *database.DB
	season *services.SeasonService
	cfg    *config.Config
}

func NewLeagueHandler(db *database.DB, season *services.SeasonService, cfg *config.Config) *LeagueHandler {
	return &LeagueHandler{
		db:     db,
		season: season,
		cfg:    cfg,
	}
}

// ListLeagues returns all leagues.
func (h *LeagueHandler) ListLeagues(c *gin.Context) {
	var leagues []models.League
	if err := h.db.Preload("RuleSet").Order("id asc").Find(&leagues).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch leagues")
		return
	}
	utils.SendSuccess(c, leagues)
}

// GetLeague returns one league with its teams.
func (h *LeagueHandler) GetLeague(c *gin.Context) {
	league, ok := h.findLeague(c)
	if !ok {
		return
	}
	utils.SendSuccess(c, league)
}

// CreateLeague starts a new league on an existing rule set. The creator
// becomes the commissioner.
func (h *LeagueHandler) CreateLeague(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		RuleSetSlug string `json:"rule_set_slug" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	var ruleSet models.RuleSet
	if err := h.db.Where("slug = ?", req.RuleSetSlug).First(&ruleSet).Error; err != nil {
		utils.SendNotFound(c, "Rule set not found")
		return
	}

	league := models.League{
		ExternalRef:    uuid.NewString(),
		Name:           req.Name,
		RuleSetID:      ruleSet.ID,
		CommissionerID: actorID,
		CurrentWeek:    1,
	}
	if err := h.db.Create(&league).Error; err != nil {
		utils.SendInternalError(c, "Failed to create league")
		return
	}
	utils.SendSuccess(c, league)
}

// AdvanceWeek bumps the league's current week (commissioner only).
func (h *LeagueHandler) AdvanceWeek(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}
	league, ok := h.findLeague(c)
	if !ok {
		return
	}

	updated, err := h.season.AdvanceWeek(actorID, league.ID)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, updated)
}

// GetStandings returns the league table.
func (h *LeagueHandler) GetStandings(c *gin.Context) {
	league, ok := h.findLeague(c)
	if !ok {
		return
	}

	table, err := h.season.Standings(league.ID)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, table)
}

// GetSchedule returns the fixture list, optionally filtered by week.
func (h *LeagueHandler) GetSchedule(c *gin.Context) {
	league, ok := h.findLeague(c)
	if !ok {
		return
	}

	query := h.db.Preload("Result").Where("league_id = ?", league.ID)
	if weekStr := c.Query("week"); weekStr != "" {
		week, err := strconv.Atoi(weekStr)
		if err != nil {
			utils.SendValidationError(c, "Invalid week", weekStr)
			return
		}
		query = query.Where("week = ?", week)
	}

	var matchups []models.Matchup
	if err := query.Order("week asc, id asc").Find(&matchups).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch schedule")
		return
	}
	utils.SendSuccess(c, matchups)
}

// GenerateSchedule (re)creates the league's round-robin fixture list.
// Rejected once any matchup has a result.
func (h *LeagueHandler) GenerateSchedule(c *gin.Context) {
	actorID, ok := currentUser(c, h.cfg)
	if !ok {
		return
	}
	league, ok := h.findLeague(c)
	if !ok {
		return
	}

	matchups, err := h.season.GenerateSchedule(actorID, league.ID)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, matchups)
}

func (h *LeagueHandler) findLeague(c *gin.Context) (*models.League, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid league ID", c.Param("id"))
		return nil, false
	}

	var league models.League
	if err := h.db.Preload("RuleSet").Preload("Teams").First(&league, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "League not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch league")
		}
		return nil, false
	}
	return &league, true
}
