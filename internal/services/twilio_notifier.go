package services

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender implements MessageSender using the Twilio API.
type TwilioSender struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *logrus.Logger
}

func NewTwilioSender(accountSID, authToken, fromNumber string, logger *logrus.Logger) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil, fmt.Errorf("twilio credentials are incomplete")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}, nil
}

var phonePattern = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

func (s *TwilioSender) SendMessage(phoneNumber, message string) error {
	if !phonePattern.MatchString(phoneNumber) {
		return fmt.Errorf("invalid phone number %q: expected E.164 format", phoneNumber)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	if resp.Sid != nil {
		s.logger.WithFields(logrus.Fields{
			"sid": *resp.Sid,
			"to":  phoneNumber,
		}).Debug("SMS sent")
	}
	return nil
}
