package server

import (
	"context"

	"github.com/jfk9w-go/flu/syncf"
	"github.com/jfk9w-go/telegram-bot-api"
	"github.com/sirupsen/logrus"
)

// Dispatch wraps the listener so that every command is handled on its own
// goroutine bound to the server lifetime. OnCommand returns immediately and
// fails only when the server is closed.
func (s *Server) Dispatch(listener telegram.CommandListener) telegram.CommandListener {
	return telegram.CommandListenerFunc(func(_ context.Context, client telegram.Client, cmd *telegram.Command) error {
		return s.Go(func(ctx context.Context) { handle(ctx, listener, client, cmd) })
	})
}

func handle(ctx context.Context, listener telegram.CommandListener, client telegram.Client, cmd *telegram.Command) {
	log := logrus.WithField("command", cmd.Key)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("handle command panicked: %v", r)
		}
	}()

	err := listener.OnCommand(ctx, client, cmd)
	switch {
	case syncf.IsContextRelated(err):
		log.Debugf("handle command interrupted: %s", err)
	case err != nil:
		log.Warnf("handle command: %s", err)
	default:
		log.Debugf("handle command ok")
	}
}
