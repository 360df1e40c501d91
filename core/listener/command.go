package listener

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/jfk9w-go/telegram-bot-api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"memebot/core/meme"
)

const (
	WelcomeText = "🤖 Welcome to Content Bot!\n\n" +
		"Commands:\n" +
		"/mem - Get a top-rated meme\n\n" +
		"Just send /mem and I'll find you the best memes with 1000+ upvotes! 🔥"

	ExhaustedText = "😅 Sorry, couldn't fetch a meme right now. Try again!"
	FailureText   = "❌ Something went wrong while fetching the meme! Try again"
)

// BotCommands are registered with setMyCommands on startup.
var BotCommands = []telegram.BotCommand{
	{Command: "mem", Description: "Get a top-rated meme"},
	{Command: "start", Description: "Show the welcome message"},
	{Command: "help", Description: "Show available commands"},
}

type Command struct {
	Selector Selector
	Event    Event
}

func (l *Command) OnCommand(ctx context.Context, client telegram.Client, cmd *telegram.Command) error {
	var fun telegram.CommandListenerFunc
	switch cmd.Key {
	case "/mem":
		fun = l.Mem
	case "/start", "/help":
		fun = l.Start
	default:
		return nil
	}

	l.Event.OnCommand(cmd.Key)
	return fun(ctx, client, cmd)
}

// Mem replies with a photo of a freshly selected meme.
// Failures are never propagated: the user gets one of the fixed apology texts instead.
func (l *Command) Mem(ctx context.Context, client telegram.Client, cmd *telegram.Command) (err error) {
	log := logrus.WithFields(commandFields(cmd))
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("mem panicked: %v", r)
			l.Event.OnFailure("panic")
			err = l.reply(ctx, client, cmd, FailureText)
		}
	}()

	result, err := l.Selector.Select(ctx)
	switch {
	case syncf.IsContextRelated(err):
		return err
	case errors.Is(err, meme.ErrExhausted):
		log.Warnf("no meme selected: %s", err)
		l.Event.OnFailure("exhausted")
		return l.reply(ctx, client, cmd, ExhaustedText)
	case err != nil:
		log.Errorf("select meme: %+v", err)
		l.Event.OnFailure("error")
		return l.reply(ctx, client, cmd, FailureText)
	}

	log = log.WithField("url", result.URL)
	if err := l.sendPhoto(ctx, client, cmd, result); err != nil {
		if syncf.IsContextRelated(err) {
			return err
		}

		log.Errorf("send meme: %s", err)
		l.Event.OnFailure("send")
		return l.reply(ctx, client, cmd, FailureText)
	}

	_, tierName := tier(result.Ups)
	l.Event.OnSent(result.Subreddit, tierName)
	log.Infof("meme sent")
	return nil
}

func (l *Command) Start(ctx context.Context, client telegram.Client, cmd *telegram.Command) error {
	return l.reply(ctx, client, cmd, WelcomeText)
}

func (l *Command) sendPhoto(ctx context.Context, client telegram.Client, cmd *telegram.Command, meme *meme.Meme) error {
	photo := telegram.Media{
		Type:    telegram.Photo,
		Input:   flu.URL(meme.URL),
		Caption: Caption(meme),
	}

	_, err := client.Send(ctx, cmd.Chat.ID, photo, replyOptions(cmd))
	return err
}

func (l *Command) reply(ctx context.Context, client telegram.Client, cmd *telegram.Command, text string) error {
	_, err := client.Send(ctx, cmd.Chat.ID, telegram.Text{Text: text}, replyOptions(cmd))
	if err != nil && !syncf.IsContextRelated(err) {
		logrus.WithFields(commandFields(cmd)).Warnf("reply: %s", err)
		return nil
	}

	return err
}

func replyOptions(cmd *telegram.Command) *telegram.SendOptions {
	options := new(telegram.SendOptions)
	if cmd.Message != nil {
		options.ReplyToMessageID = cmd.Message.ID
	}

	return options
}

func commandFields(cmd *telegram.Command) logrus.Fields {
	fields := logrus.Fields{"command": cmd.Key}
	if cmd.Chat != nil {
		fields["chat"] = cmd.Chat.ID
	}

	if cmd.User != nil {
		fields["user"] = cmd.User.ID
	}

	if id, err := uuid.NewV4(); err == nil {
		fields["request"] = id.String()
	} else {
		fields["request"] = fmt.Sprintf("%p", cmd)
	}

	return fields
}
