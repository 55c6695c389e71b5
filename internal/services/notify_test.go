package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/leaguecraft/internal/models"
)

type recordingSender struct {
	sent []string
}

func (r *recordingSender) SendMessage(phoneNumber, message string) error {
	r.sent = append(r.sent, phoneNumber+"|"+message)
	return nil
}

func TestNotifyService_MatchupFinal(t *testing.T) {
	env := setupEnv(t, 2)

	require.NoError(t, env.db.Model(&env.teams[0]).Update("notify_phone", "+15550001111").Error)
	// teams[1] never opted in

	sender := &recordingSender{}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	notify := NewNotifyService(env.db, sender, NewSendRateLimiter(5, time.Hour), logger)

	matchup := &models.Matchup{
		ID:         1,
		LeagueID:   env.league.ID,
		Week:       1,
		HomeTeamID: env.teams[0].ID,
		AwayTeamID: env.teams[1].ID,
	}
	result := &models.MatchupResult{MatchupID: 1, HomeScore: 42.5, AwayScore: 38.25}

	notify.MatchupFinal(matchup, result)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "+15550001111")
	assert.Contains(t, sender.sent[0], "Team 1")
	assert.Contains(t, sender.sent[0], "Team 2")
	assert.Contains(t, sender.sent[0], "42.50")
}

func TestSendRateLimiter(t *testing.T) {
	rl := NewSendRateLimiter(2, time.Hour)

	assert.NoError(t, rl.Allow("+15550001111"))
	assert.NoError(t, rl.Allow("+15550001111"))
	assert.Error(t, rl.Allow("+15550001111"))

	// Other destinations have their own window.
	assert.NoError(t, rl.Allow("+15550002222"))
}

func TestSendRateLimiter_WindowEviction(t *testing.T) {
	rl := NewSendRateLimiter(1, 10*time.Millisecond)

	require.NoError(t, rl.Allow("+15550001111"))
	require.Error(t, rl.Allow("+15550001111"))

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, rl.Allow("+15550001111"))
}
