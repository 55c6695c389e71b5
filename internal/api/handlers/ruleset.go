package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/internal/rules"
	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/database"
	"github.com/jstittsworth/leaguecraft/pkg/utils"
)

type RuleSetHandler struct {
	db    *database.DB
	cache *services.CacheService
}

func NewRuleSetHandler(db *database.DB, cache *services.CacheService) *RuleSetHandler {
	return &RuleSetHandler{
		db:    db,
		cache: cache,
	}
}

// ListRuleSets returns all sport templates.
func (h *RuleSetHandler) ListRuleSets(c *gin.Context) {
	var ruleSets []models.RuleSet
	if err := h.db.Order("id asc").Find(&ruleSets).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch rule sets")
		return
	}
	utils.SendSuccess(c, ruleSets)
}

// GetRuleSet returns a single rule set by numeric ID or slug.
func (h *RuleSetHandler) GetRuleSet(c *gin.Context) {
	ruleSet, ok := h.findRuleSet(c)
	if !ok {
		return
	}
	utils.SendSuccess(c, ruleSet)
}

// GetRuleSetRoster returns the derived lineup shape of a rule set: the
// concrete starter slot instances and the total roster size.
func (h *RuleSetHandler) GetRuleSetRoster(c *gin.Context) {
	ruleSet, ok := h.findRuleSet(c)
	if !ok {
		return
	}
	cfg, err := ruleSet.Rules()
	if err != nil {
		utils.SendInternalError(c, "Stored rule set is invalid")
		return
	}
	utils.SendSuccess(c, gin.H{
		"starter_slots":     rules.DeriveStarterSlots(cfg),
		"total_roster_size": rules.TotalRosterSize(cfg),
	})
}

type ruleSetRequest struct {
	Slug        string          `json:"slug" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config" binding:"required"`
}

// CreateRuleSet validates and stores a new sport template. Writes are
// rejected wholesale on any config error.
func (h *RuleSetHandler) CreateRuleSet(c *gin.Context) {
	var req ruleSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	if _, err := rules.ValidateConfig(req.Config); err != nil {
		sendServiceError(c, err)
		return
	}

	ruleSet := models.RuleSet{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Config:      []byte(req.Config),
	}
	if err := h.db.Create(&ruleSet).Error; err != nil {
		utils.SendConflict(c, "A rule set with this slug already exists")
		return
	}
	utils.SendSuccess(c, ruleSet)
}

// UpdateRuleSet replaces a rule set's config. Once any league using the
// rule set has a finalized matchup, edits are rejected to keep locked-in
// scores consistent with the config that produced them.
func (h *RuleSetHandler) UpdateRuleSet(c *gin.Context) {
	ruleSet, ok := h.findRuleSet(c)
	if !ok {
		return
	}

	var req struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Config      json.RawMessage `json:"config" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	if _, err := rules.ValidateConfig(req.Config); err != nil {
		sendServiceError(c, err)
		return
	}

	frozen, err := h.hasFinalizedLeague(ruleSet.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to check rule set usage")
		return
	}
	if frozen {
		utils.SendConflict(c, "Rule set is in use by a league with finalized matchups")
		return
	}

	updates := map[string]interface{}{"config": []byte(req.Config)}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if err := h.db.Model(ruleSet).Updates(updates).Error; err != nil {
		utils.SendInternalError(c, "Failed to update rule set")
		return
	}
	h.invalidate(ruleSet.ID)

	var updated models.RuleSet
	if err := h.db.First(&updated, ruleSet.ID).Error; err != nil {
		utils.SendInternalError(c, "Failed to reload rule set")
		return
	}
	utils.SendSuccess(c, updated)
}

// DeleteRuleSet removes an unused template.
func (h *RuleSetHandler) DeleteRuleSet(c *gin.Context) {
	ruleSet, ok := h.findRuleSet(c)
	if !ok {
		return
	}

	var leagueCount int64
	if err := h.db.Model(&models.League{}).Where("rule_set_id = ?", ruleSet.ID).Count(&leagueCount).Error; err != nil {
		utils.SendInternalError(c, "Failed to check rule set usage")
		return
	}
	if leagueCount > 0 {
		utils.SendConflict(c, "Rule set is referenced by existing leagues")
		return
	}

	if err := h.db.Delete(ruleSet).Error; err != nil {
		utils.SendInternalError(c, "Failed to delete rule set")
		return
	}
	h.invalidate(ruleSet.ID)
	utils.SendSuccess(c, gin.H{"deleted": true})
}

// ValidateRuleSet dry-runs config validation without persisting anything.
func (h *RuleSetHandler) ValidateRuleSet(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		utils.SendValidationError(c, "Failed to read request body", err.Error())
		return
	}

	cfg, err := rules.ValidateConfig(raw)
	if err != nil {
		sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{
		"valid":             true,
		"starter_slots":     rules.DeriveStarterSlots(cfg),
		"total_roster_size": rules.TotalRosterSize(cfg),
		"weeks":             cfg.Schedule.Weeks,
	})
}

func (h *RuleSetHandler) findRuleSet(c *gin.Context) (*models.RuleSet, bool) {
	param := c.Param("id")

	var ruleSet models.RuleSet
	var err error
	if id, convErr := strconv.ParseUint(param, 10, 32); convErr == nil {
		err = h.db.First(&ruleSet, uint(id)).Error
	} else {
		err = h.db.Where("slug = ?", param).First(&ruleSet).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.SendNotFound(c, "Rule set not found")
		} else {
			utils.SendInternalError(c, "Failed to fetch rule set")
		}
		return nil, false
	}
	return &ruleSet, true
}

func (h *RuleSetHandler) hasFinalizedLeague(ruleSetID uint) (bool, error) {
	var count int64
	err := h.db.Model(&models.MatchupResult{}).
		Joins("JOIN matchups ON matchups.id = matchup_results.matchup_id").
		Joins("JOIN leagues ON leagues.id = matchups.league_id").
		Where("leagues.rule_set_id = ?", ruleSetID).
		Count(&count).Error
	return count > 0, err
}

func (h *RuleSetHandler) invalidate(ruleSetID uint) {
	if h.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = h.cache.Delete(ctx, services.RuleSetCacheKey(ruleSetID))
}
