package services

import (
	"fmt"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageCreator is the part of the Twilio API client used to send texts
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSSender sends text messages through Twilio
type SMSSender struct {
	api        MessageCreator
	fromNumber string
}

func NewSMSSender(api MessageCreator, fromNumber string) *SMSSender {
	return &SMSSender{api: api, fromNumber: fromNumber}
}

// NewSMSSenderFromConfig reads TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and
// TWILIO_FROM_NUMBER. It returns nil when any of them is missing.
func NewSMSSenderFromConfig(c map[string]string) *SMSSender {
	accountSID := config.GetString(c, "TWILIO_ACCOUNT_SID", "")
	authToken := config.GetString(c, "TWILIO_AUTH_TOKEN", "")
	fromNumber := config.GetString(c, "TWILIO_FROM_NUMBER", "")
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewSMSSender(client.Api, fromNumber)
}

// SendSMS sends body to a single phone number
func (s *SMSSender) SendSMS(to, body string) error {
	if to == "" {
		return fmt.Errorf("a destination number is required")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS via Twilio: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	log.Info().Str("messageSid", sid).Msg("Successfully sent SMS via Twilio")
	return nil
}
