package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/leaguecraft/internal/api/handlers"
	"github.com/jstittsworth/leaguecraft/internal/api/middleware"
	"github.com/jstittsworth/leaguecraft/internal/services"
	"github.com/jstittsworth/leaguecraft/pkg/config"
	"github.com/jstittsworth/leaguecraft/pkg/database"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(group *gin.RouterGroup, db *database.DB, cache *services.CacheService, season *services.SeasonService, cfg *config.Config) {
	// Initialize handlers
	ruleSetHandler := handlers.NewRuleSetHandler(db, cache)
	leagueHandler := handlers.NewLeagueHandler(db, season, cfg)
	teamHandler := handlers.NewTeamHandler(db, season, cfg)
	lineupHandler := handlers.NewLineupHandler(db, season, cfg)
	matchupHandler := handlers.NewMatchupHandler(db, season, cfg)

	// Identity is optional everywhere; handlers fall back to the default
	// development user when anonymous.
	group.Use(middleware.OptionalAuth(cfg.JWTSecret))

	// Mutations are rate limited per client.
	mutate := middleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	// Rule set endpoints (sport templates)
	group.GET("/rulesets", ruleSetHandler.ListRuleSets)
	group.GET("/rulesets/:id", ruleSetHandler.GetRuleSet)
	group.GET("/rulesets/:id/roster", ruleSetHandler.GetRuleSetRoster)
	group.POST("/rulesets", mutate, ruleSetHandler.CreateRuleSet)
	group.PUT("/rulesets/:id", mutate, ruleSetHandler.UpdateRuleSet)
	group.DELETE("/rulesets/:id", mutate, ruleSetHandler.DeleteRuleSet)
	group.POST("/rulesets/validate", ruleSetHandler.ValidateRuleSet)

	// League endpoints
	group.GET("/leagues", leagueHandler.ListLeagues)
	group.GET("/leagues/:id", leagueHandler.GetLeague)
	group.POST("/leagues", mutate, leagueHandler.CreateLeague)
	group.POST("/leagues/:id/advance-week", mutate, leagueHandler.AdvanceWeek)
	group.GET("/leagues/:id/standings", leagueHandler.GetStandings)
	group.GET("/leagues/:id/schedule", leagueHandler.GetSchedule)
	group.POST("/leagues/:id/schedule", mutate, leagueHandler.GenerateSchedule)

	// Team endpoints
	group.GET("/leagues/:id/teams", teamHandler.ListTeams)
	group.POST("/leagues/:id/teams", mutate, teamHandler.CreateTeam)
	group.GET("/teams/:id", teamHandler.GetTeam)

	// Lineup endpoints
	group.GET("/teams/:id/lineups/:week", lineupHandler.GetLineup)
	group.PUT("/teams/:id/lineups/:week/slots", mutate, lineupHandler.SetSlot)
	group.DELETE("/teams/:id/lineups/:week/slots/:slotKey/:slotIndex", mutate, lineupHandler.ClearSlot)
	group.POST("/teams/:id/lineups/:week/lock", mutate, lineupHandler.LockLineup)

	// Matchup endpoints
	group.GET("/matchups/:id", matchupHandler.GetMatchup)
	group.POST("/matchups/:id/simulate", mutate, matchupHandler.SimulateMatchup)
}
