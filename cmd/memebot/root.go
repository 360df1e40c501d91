package main

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/jfk9w-go/flu"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"memebot/app"
)

func NewRootCmd(version string) *cobra.Command {
	var files []string
	rootCmd := &cobra.Command{
		Use:           "memebot",
		Short:         "Telegram bot posting popular memes on /mem",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := app.LoadConfig(files...)
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			if err := app.ConfigureLogging(config.Logging, cmd.ErrOrStderr()); err != nil {
				return err
			}

			return run(cmd.Context(), version, config, func(ctx context.Context) {
				syncf.AwaitSignal(ctx, syscall.SIGINT, syscall.SIGTERM)
			})
		},
	}

	rootCmd.PersistentFlags().StringSliceVarP(&files, "config", "c", nil, "YAML config files, merged in order")
	rootCmd.AddCommand(newConfigCmd(&files))
	return rootCmd
}

func newConfigCmd(files *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := app.LoadConfig(*files...)
			if err != nil {
				return errors.Wrap(err, "load config")
			}

			return dumpConfig(config, cmd.OutOrStdout())
		},
	}
}

func dumpConfig(config *app.Config, out io.Writer) error {
	masked := *config
	if masked.Telegram.Token != "" {
		masked.Telegram.Token = "***"
	}

	if masked.Telegram.Secret != "" {
		masked.Telegram.Secret = "***"
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(masked); err != nil {
		return errors.Wrap(err, "encode config")
	}

	return encoder.Close()
}

// run starts the bot and blocks until await returns. A panic during
// startup or shutdown closes the instance and exits with status 1.
func run(ctx context.Context, version string, config *app.Config, await func(context.Context)) (err error) {
	instance := app.Create(version, config)
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic: %v", r)
			flu.CloseQuietly(instance)
			os.Exit(1)
		}
	}()

	if err := instance.Run(ctx); err != nil {
		flu.CloseQuietly(instance)
		return errors.Wrap(err, "start")
	}

	await(ctx)
	logrus.Infof("shutting down")
	if err := instance.Close(); err != nil {
		logrus.Warnf("shutdown: %s", err)
	}

	logrus.Infof("bye")
	return nil
}
