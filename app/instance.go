package app

import (
	"context"
	"io"
	"sync"

	httpf "github.com/jfk9w-go/flu/httpf"
	"github.com/jfk9w-go/flu/me3x"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/jfk9w-go/telegram-bot-api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"memebot/3rdparty/memeapi"
	"memebot/core/listener"
	"memebot/core/meme"
	"memebot/core/server"
)

type Instance struct {
	Config *Config

	// TelegramClient is used for Bot API requests. Default client is used when nil.
	TelegramClient httpf.Client

	version  string
	services []io.Closer
	registry me3x.Registry
	delivery Delivery
	server   *server.Server
	mu       sync.Mutex
}

func Create(version string, config *Config) *Instance {
	return &Instance{
		Config:  config,
		version: version,
	}
}

func (app *Instance) GetVersion() string {
	return app.version
}

// Manage registers a service to be closed with the instance, in reverse order.
func (app *Instance) Manage(service io.Closer) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.services = append(app.services, service)
}

func (app *Instance) GetMetricsRegistry() me3x.Registry {
	if app.registry != nil {
		return app.registry
	}

	if address := app.Config.Prometheus.Address; address != "" {
		prometheus := &me3x.PrometheusListener{Address: address}
		app.Manage(prometheus)
		app.registry = prometheus.WithPrefix("memebot")
		logrus.WithField("address", address).Infof("prometheus metrics enabled")
	} else {
		app.registry = me3x.DummyRegistry{Prefix: "memebot"}
	}

	return app.registry
}

func (app *Instance) Delivery() Delivery {
	return app.delivery
}

func (app *Instance) Server() *server.Server {
	return app.server
}

// Run wires the selector, command listener and HTTP server and starts
// receiving updates. It returns as soon as the bot is up.
func (app *Instance) Run(ctx context.Context) error {
	config := app.Config
	if err := config.Validate(); err != nil {
		return err
	}

	metrics := app.GetMetricsRegistry()
	selector := meme.NewSelector(memeapi.NewClient(config.MemeAPI), config.Selector, metrics.WithPrefix("selector"))
	commands := &listener.Command{
		Selector: selector,
		Event:    listener.Event{Registry: metrics.WithPrefix("command")},
	}

	bot := telegram.NewBot(syncf.DefaultClock, app.TelegramClient, config.Telegram.Token)
	app.Manage(bot)

	app.server = server.New(metrics.WithPrefix("http"))
	webhook := &server.Webhook{
		Client:   bot,
		Listener: commands,
		Secret:   config.Telegram.Secret,
	}

	if config.Mode.IsProduction() && config.Telegram.Webhook != "" {
		if me, err := bot.GetMe(ctx); err != nil {
			logrus.Warnf("get bot user: %s", err)
		} else if me.Username != nil {
			webhook.Username = *me.Username
		}

		app.server.Mount(server.DefaultWebhookPath, webhook)
	}

	if err := app.server.Start(config.Server.Addr()); err != nil {
		return errors.Wrap(err, "start server")
	}

	app.Manage(app.server)

	if err := bot.SetMyCommands(ctx, nil, listener.BotCommands); err != nil {
		logrus.Warnf("set bot commands: %s", err)
	}

	app.delivery = ChooseDelivery(ctx, bot, config)
	if app.delivery == Polling {
		bot.CommandListener(app.server.Dispatch(commands))
	}

	logrus.WithFields(logrus.Fields{
		"version":  app.version,
		"delivery": app.delivery,
	}).Infof("content bot started")

	return nil
}

func (app *Instance) Close() error {
	app.mu.Lock()
	services := app.services
	app.services = nil
	app.mu.Unlock()

	var result error
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Close(); err != nil && result == nil {
			result = err
		}
	}

	return result
}
