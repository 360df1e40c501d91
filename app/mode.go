package app

import (
	"context"
	"strings"

	"github.com/jfk9w-go/flu"
	httpf "github.com/jfk9w-go/flu/httpf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"memebot/core/server"
)

type Mode string

const (
	Production  Mode = "production"
	Development Mode = "development"
)

func (m Mode) IsProduction() bool {
	return strings.EqualFold(string(m), string(Production))
}

// Delivery is the way updates reach the bot.
type Delivery string

const (
	Polling Delivery = "polling"
	Webhook Delivery = "webhook"
)

// Executor executes raw Bot API methods.
type Executor interface {
	Execute(ctx context.Context, method string, body flu.EncoderTo, resp interface{}) error
}

func WebhookURL(base string) string {
	return strings.TrimRight(base, "/") + server.DefaultWebhookPath
}

func SetWebhook(ctx context.Context, executor Executor, url, secret string) error {
	form := new(httpf.Form).
		Set("url", url).
		Set("allowed_updates", `["message","edited_message","callback_query"]`)
	if secret != "" {
		form = form.Set("secret_token", secret)
	}

	var ok bool
	if err := executor.Execute(ctx, "setWebhook", form, &ok); err != nil {
		return err
	}

	if !ok {
		return errors.New("not ok")
	}

	return nil
}

func DeleteWebhook(ctx context.Context, executor Executor) error {
	var ok bool
	if err := executor.Execute(ctx, "deleteWebhook", new(httpf.Form), &ok); err != nil {
		return err
	}

	if !ok {
		return errors.New("not ok")
	}

	return nil
}

// ChooseDelivery registers the webhook in production mode when a public URL is configured.
// Any failure falls back to long polling, in which case the webhook is removed
// so that getUpdates is allowed.
func ChooseDelivery(ctx context.Context, executor Executor, config *Config) Delivery {
	log := logrus.WithField("mode", config.Mode)
	if config.Mode.IsProduction() {
		if config.Telegram.Webhook != "" {
			url := WebhookURL(config.Telegram.Webhook)
			if err := SetWebhook(ctx, executor, url, config.Telegram.Secret); err != nil {
				log.Errorf("failed to set webhook %s: %s", url, err)
				log.Infof("falling back to polling mode")
			} else {
				log.Infof("webhook set to %s", url)
				return Webhook
			}
		} else {
			log.Warnf("webhook url not set, using polling mode")
		}
	}

	if err := DeleteWebhook(ctx, executor); err != nil {
		log.Warnf("failed to delete webhook: %s", err)
	}

	return Polling
}
