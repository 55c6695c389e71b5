package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/leaguecraft/internal/models"
	"github.com/jstittsworth/leaguecraft/pkg/database"
)

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	SendMessage(phoneNumber, message string) error
}

// MockSender for development - logs to console instead of sending real SMS.
type MockSender struct {
	logger *logrus.Logger
}

func NewMockSender(logger *logrus.Logger) *MockSender {
	return &MockSender{logger: logger}
}

func (s *MockSender) SendMessage(phoneNumber, message string) error {
	s.logger.Infof("MOCK SMS to %s: %s", phoneNumber, message)
	return nil
}

// NotifyService sends matchup-final notices to team owners who opted in
// with a phone number. Delivery is best-effort: failures are logged, never
// propagated into the simulation path.
type NotifyService struct {
	db      *database.DB
	sender  MessageSender
	limiter *SendRateLimiter
	logger  *logrus.Logger
}

func NewNotifyService(db *database.DB, sender MessageSender, limiter *SendRateLimiter, logger *logrus.Logger) *NotifyService {
	return &NotifyService{
		db:      db,
		sender:  sender,
		limiter: limiter,
		logger:  logger,
	}
}

// MatchupFinal notifies both teams of a finalized score.
func (n *NotifyService) MatchupFinal(matchup *models.Matchup, result *models.MatchupResult) {
	var teams []models.Team
	if err := n.db.Where("id IN ?", []uint{matchup.HomeTeamID, matchup.AwayTeamID}).Find(&teams).Error; err != nil {
		n.logger.Warnf("Failed to load teams for matchup %d notification: %v", matchup.ID, err)
		return
	}

	names := make(map[uint]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	message := fmt.Sprintf("Final (week %d): %s %.2f - %.2f %s",
		matchup.Week, names[matchup.HomeTeamID], result.HomeScore, result.AwayScore, names[matchup.AwayTeamID])

	for _, team := range teams {
		if team.NotifyPhone == "" {
			continue
		}
		if err := n.limiter.Allow(team.NotifyPhone); err != nil {
			n.logger.Warnf("Skipping notification to %s: %v", team.NotifyPhone, err)
			continue
		}
		if err := n.sender.SendMessage(team.NotifyPhone, message); err != nil {
			n.logger.Warnf("Failed to notify %s for matchup %d: %v", team.NotifyPhone, matchup.ID, err)
		}
	}
}
