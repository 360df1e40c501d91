package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jfk9w-go/flu/logf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	nocolor = 0
	red     = 31
	green   = 32
	yellow  = 33
	blue    = 36

	defaultTimeFormat = "2006-01-02 15:04:05.000"
	templateColored   = "\x1b[%dm%s\x1b[0m"
)

var levels = map[logrus.Level]string{
	logrus.PanicLevel: "PANIC",
	logrus.FatalLevel: "FATAL",
	logrus.ErrorLevel: "ERROR",
	logrus.WarnLevel:  "WARN ",
	logrus.InfoLevel:  "INFO ",
	logrus.DebugLevel: "DEBUG",
	logrus.TraceLevel: "TRACE",
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" doc:"Minimum log level: trace, debug, info, warn, error." default:"info"`
	Format string `yaml:"format,omitempty" doc:"Log format: text or json." default:"text"`
	Color  bool   `yaml:"color,omitempty" doc:"Colorize levels in text format."`
}

// ConfigureLogging sets up the standard logrus logger and routes
// Telegram client logs through it.
func ConfigureLogging(config LoggingConfig, out io.Writer) error {
	level := logrus.InfoLevel
	if config.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(config.Level); err != nil {
			return errors.Wrap(err, "parse log level")
		}
	}

	var formatter logrus.Formatter
	switch strings.ToLower(config.Format) {
	case "", "text":
		formatter = &format{name: "memebot", color: config.Color}
	case "json":
		formatter = &logrus.JSONFormatter{TimestampFormat: defaultTimeFormat}
	default:
		return errors.Errorf("unsupported log format: %s", config.Format)
	}

	if out == nil {
		out = os.Stderr
	}

	logrus.SetOutput(out)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	logfLevel := logfLevels[level]
	logf.ResetFactory(func(name string, _ logf.Interface) logf.Interface {
		adapter := &logf.BareAdapter{Bare: logfBridge{name: name}}
		adapter.SetLevel(logfLevel)
		return adapter
	})

	return nil
}

type format struct {
	name  string
	color bool
}

func (f *format) Format(entry *logrus.Entry) ([]byte, error) {
	sb := &strings.Builder{}
	sb.WriteString(entry.Time.Format(defaultTimeFormat))
	sb.WriteRune(' ')
	sb.WriteString(f.level(entry.Level))
	sb.WriteString(" [")
	sb.WriteString(f.name)
	sb.WriteString("] ")
	sb.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteRune(' ')
		sb.WriteString(key)
		sb.WriteRune('=')
		sb.WriteString(fmt.Sprint(entry.Data[key]))
	}

	if last, _ := utf8.DecodeLastRuneInString(sb.String()); last != '\n' {
		sb.WriteRune('\n')
	}

	return []byte(sb.String()), nil
}

func (f *format) level(l logrus.Level) string {
	if !f.color {
		return levels[l]
	}

	var color int
	switch l {
	case logrus.InfoLevel:
		color = green
	case logrus.WarnLevel:
		color = yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		color = red
	case logrus.DebugLevel, logrus.TraceLevel:
		color = blue
	default:
		color = nocolor
	}

	return fmt.Sprintf(templateColored, color, levels[l])
}

var logfLevels = map[logrus.Level]logf.Level{
	logrus.TraceLevel: logf.Trace,
	logrus.DebugLevel: logf.Debug,
	logrus.InfoLevel:  logf.Info,
	logrus.WarnLevel:  logf.Warn,
	logrus.ErrorLevel: logf.Error,
	logrus.FatalLevel: logf.Error,
	logrus.PanicLevel: logf.Panic,
}

// logfBridge writes logf records into logrus.
type logfBridge struct {
	name string
}

func (b logfBridge) Logf(_ context.Context, level logf.Level, pattern string, values ...interface{}) {
	entry := logrus.WithField("logger", b.name)
	switch level {
	case logf.Trace:
		entry.Tracef(pattern, values...)
	case logf.Debug:
		entry.Debugf(pattern, values...)
	case logf.Info:
		entry.Infof(pattern, values...)
	case logf.Warn:
		entry.Warnf(pattern, values...)
	case logf.Error, logf.Panic:
		entry.Errorf(pattern, values...)
	}
}
