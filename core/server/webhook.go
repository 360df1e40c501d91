package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jfk9w-go/telegram-bot-api"
	"github.com/sirupsen/logrus"
)

const (
	DefaultWebhookPath = "/webhook"
	SecretTokenHeader  = "X-Telegram-Bot-Api-Secret-Token"
)

// Webhook dispatches commands from Telegram updates delivered over HTTP.
type Webhook struct {
	Client   telegram.Client
	Listener telegram.CommandListener
	Username telegram.Username
	Secret   string
}

// Mount registers the webhook route. Updates are acknowledged immediately
// and commands are handled in background until the server is closed.
func (s *Server) Mount(path string, webhook *Webhook) {
	if path == "" {
		path = DefaultWebhookPath
	}

	s.Engine.POST(path, func(c *gin.Context) {
		if webhook.Secret != "" {
			token := c.GetHeader(SecretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(token), []byte(webhook.Secret)) != 1 {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
		}

		var update telegram.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			logrus.Warnf("decode update: %s", err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}

		cmd := ExtractCommand(webhook.Username, update)
		if cmd == nil {
			c.Status(http.StatusOK)
			return
		}

		if err := s.Dispatch(webhook.Listener).OnCommand(c, webhook.Client, cmd); err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		c.Status(http.StatusOK)
	})
}

// ExtractCommand returns the bot command the update carries, if any.
// Commands addressed to other bots are skipped.
func ExtractCommand(username telegram.Username, update telegram.Update) *telegram.Command {
	switch {
	case update.Message != nil:
		return extractMessageCommand(username, update.Message)
	case update.EditedMessage != nil:
		return extractMessageCommand(username, update.EditedMessage)
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if query.Data == nil || query.Message == nil {
			return nil
		}

		cmd := &telegram.Command{
			Chat:            &query.Message.Chat,
			User:            &query.From,
			Message:         query.Message,
			CallbackQueryID: query.ID,
		}

		key, payload := *query.Data, ""
		if space := strings.IndexAny(key, " \n\t"); space > 0 {
			key, payload = key[:space], key[space+1:]
		}

		return fill(cmd, username, key, payload)
	default:
		return nil
	}
}

func extractMessageCommand(username telegram.Username, message *telegram.Message) *telegram.Command {
	for _, entity := range message.Entities {
		if entity.Type != "bot_command" || entity.Offset != 0 || entity.Length > len(message.Text) {
			continue
		}

		cmd := &telegram.Command{
			Chat:    &message.Chat,
			User:    &message.From,
			Message: message,
		}

		return fill(cmd, username, message.Text[:entity.Length], message.Text[entity.Length:])
	}

	return nil
}

func fill(cmd *telegram.Command, username telegram.Username, key, payload string) *telegram.Command {
	if at := strings.Index(key, "@"); at > 0 {
		if username != "" && !strings.EqualFold(key[at+1:], string(username)) {
			return nil
		}

		key = key[:at]
	}

	cmd.Key = strings.TrimSpace(key)
	cmd.Payload = strings.TrimSpace(payload)
	cmd.Args = strings.Fields(cmd.Payload)
	return cmd
}
