package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/umpire-ci/umpire/src/domain"
)

// NotificationService posts decision summaries to a webhook sink.
type NotificationService interface {
	Notify(url string, decision domain.Decision) error
}

type notificationService struct {
	logger zerolog.Logger
	client *retryablehttp.Client
}

func NewNotificationService(logger *zerolog.Logger) NotificationService {
	contextualLogger := logger.With().Str("component", "NotificationService").Logger()

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = &retryLogger{contextualLogger}

	return &notificationService{
		logger: contextualLogger,
		client: client,
	}
}

func (self *notificationService) Notify(url string, decision domain.Decision) error {
	body, err := json.Marshal(decision.Summary())
	if err != nil {
		return errors.WithMessage(err, "While encoding decision summary")
	}

	response, err := self.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.WithMessagef(err, "While posting decision summary to %q", url)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return fmt.Errorf("notification sink %q answered %s", url, response.Status)
	}

	self.logger.Info().Str("url", url).Str("id", decision.ID.String()).Msg("Posted decision summary")
	return nil
}

type retryLogger struct {
	zerolog.Logger
}

func (self *retryLogger) Printf(format string, v ...interface{}) {
	self.Debug().Msgf(format, v...)
}
