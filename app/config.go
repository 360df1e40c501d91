package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/jfk9w-go/flu"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"memebot/3rdparty/memeapi"
	"memebot/core/meme"
	"memebot/core/server"
)

const (
	EnvironPrefix = "MEMEBOT_"
	DotenvFile    = ".env"
)

type Config struct {
	Mode Mode `yaml:"mode,omitempty" doc:"Run mode: production enables webhook delivery, anything else uses long polling." default:"development"`

	Telegram struct {
		Token   string `yaml:"token" doc:"Telegram Bot API token."`
		Webhook string `yaml:"webhook,omitempty" doc:"Public base URL for webhook delivery. Updates are posted to <webhook>/webhook."`
		Secret  string `yaml:"secret,omitempty" doc:"Optional secret token checked on webhook requests."`
	} `yaml:"telegram" doc:"Bot-related settings."`

	Server     server.Config `yaml:"server,omitempty" doc:"HTTP server settings."`
	Logging    LoggingConfig `yaml:"logging,omitempty" doc:"Logging settings."`
	Prometheus struct {
		Address string `yaml:"address,omitempty" doc:"Prometheus listener address, for example http://0.0.0.0:9090/metrics. Metrics are disabled when empty."`
	} `yaml:"prometheus,omitempty" doc:"Prometheus settings."`

	MemeAPI  memeapi.Config `yaml:"memeapi,omitempty" doc:"meme-api.com client settings."`
	Selector meme.Config    `yaml:"selector,omitempty" doc:"Meme selection policy."`
}

func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required (set BOT_TOKEN)")
	}

	return nil
}

// hostEnviron maps conventional hosting platform variables onto config keys.
var hostEnviron = map[string][]string{
	"BOT_TOKEN":      {"telegram", "token"},
	"HEROKU_URL":     {"telegram", "webhook"},
	"WEBHOOK_URL":    {"telegram", "webhook"},
	"WEBHOOK_SECRET": {"telegram", "secret"},
	"PORT":           {"server", "port"},
	"NODE_ENV":       {"mode"},
	"MODE":           {"mode"},
	"LOG_LEVEL":      {"logging", "level"},
}

// hostEnvironOrder defines precedence: later entries override earlier ones.
var hostEnvironOrder = []string{"BOT_TOKEN", "HEROKU_URL", "WEBHOOK_URL", "WEBHOOK_SECRET", "PORT", "NODE_ENV", "MODE", "LOG_LEVEL"}

// LoadConfig reads .env (if present), config files and the process environment.
func LoadConfig(files ...string) (*Config, error) {
	if err := godotenv.Load(DotenvFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "load %s", DotenvFile)
	}

	inputs := make([]flu.Input, len(files))
	for i, file := range files {
		inputs[i] = flu.File(file)
	}

	config, err := CollectConfig(EnvironPrefix, os.Environ(), inputs...)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// CollectConfig merges YAML inputs (with ${VAR} expansion), host variables
// and prefixed variables, in order of increasing precedence.
func CollectConfig(environPrefix string, environ []string, inputs ...flu.Input) (*Config, error) {
	global := make(map[string]interface{})
	for _, input := range inputs {
		buf := new(flu.ByteBuffer)
		if _, err := flu.Copy(input, buf); err != nil {
			return nil, errors.Wrapf(err, "read config %s", input)
		}

		config := make(map[string]interface{})
		data := flu.Bytes(os.ExpandEnv(buf.Unmask().String()))
		if err := flu.DecodeFrom(data, flu.YAML(&config)); err != nil {
			return nil, errors.Wrapf(err, "read expanded config %s", input)
		}

		var err error
		if global, err = merge(global, config); err != nil {
			return nil, errors.Wrapf(err, "merge config %s", input)
		}
	}

	for _, source := range []map[string]interface{}{hostValues(environ), prefixedValues(environPrefix, environ)} {
		var err error
		if global, err = merge(global, source); err != nil {
			return nil, errors.Wrap(err, "merge environment")
		}
	}

	buf := new(flu.ByteBuffer)
	if err := flu.EncodeTo(flu.YAML(global), buf); err != nil {
		return nil, errors.Wrap(err, "encode global config")
	}

	config := new(Config)
	if err := flu.DecodeFrom(buf, flu.YAML(config)); err != nil {
		return nil, errors.Wrap(err, "decode global config")
	}

	return config, nil
}

func lookup(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, line := range environ {
		if equals := strings.Index(line, "="); equals > 0 {
			values[line[:equals]] = line[equals+1:]
		}
	}

	return values
}

func hostValues(environ []string) map[string]interface{} {
	values := lookup(environ)
	m := make(map[string]interface{})
	for _, key := range hostEnvironOrder {
		value, ok := values[key]
		if !ok || value == "" {
			continue
		}

		set(m, hostEnviron[key], parseValue(value), key)
	}

	return m
}

// prefixedValues maps PREFIX_A_B=value onto {a: {b: value}}.
func prefixedValues(prefix string, environ []string) map[string]interface{} {
	m := make(map[string]interface{})
	for key, value := range lookup(environ) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		path := strings.Split(strings.ToLower(key[len(prefix):]), "_")
		for i, token := range path {
			if token == "" {
				path = path[:i]
				break
			}
		}

		if len(path) == 0 {
			continue
		}

		set(m, path, parseValue(value), key)
	}

	return m
}

func set(m map[string]interface{}, path []string, value interface{}, key string) {
	entry := m
	last := len(path) - 1
	for i, token := range path {
		if i == last {
			if ev, ok := entry[token]; ok {
				if _, ok := ev.(map[string]interface{}); ok {
					logrus.Warnf("discarding env var %s due to type incompatibility", key)
					return
				}
			}

			entry[token] = value
			return
		}

		var mev map[string]interface{}
		if ev, ok := entry[token]; ok {
			if mev, ok = ev.(map[string]interface{}); !ok {
				logrus.Warnf("overriding parent as object for env var %s", key)
				mev = make(map[string]interface{})
				entry[token] = mev
			}
		} else {
			mev = make(map[string]interface{})
			entry[token] = mev
		}

		entry = mev
	}
}

// parseValue converts numbers and booleans; comma-separated values become lists.
func parseValue(value string) interface{} {
	if strings.Contains(value, ",") {
		tokens := strings.Split(value, ",")
		list := make([]interface{}, 0, len(tokens))
		for _, token := range tokens {
			if token = strings.TrimSpace(token); token != "" {
				list = append(list, parseValue(token))
			}
		}

		return list
	}

	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v
	} else if v, err := strconv.ParseFloat(value, 64); err == nil {
		return v
	} else if v, err := strconv.ParseBool(value); err == nil {
		return v
	}

	return value
}

func merge(a, b map[string]interface{}) (map[string]interface{}, error) {
	for k, v := range b {
		if av, ok := a[k]; !ok {
			a[k] = v
			continue
		} else if mav, ok := av.(map[string]interface{}); ok {
			if mv, ok := v.(map[string]interface{}); ok {
				merged, err := merge(mav, mv)
				if err != nil {
					return nil, errors.Wrap(err, k)
				}

				a[k] = merged
				continue
			}
		} else if _, ok := v.(map[string]interface{}); !ok {
			a[k] = v
			continue
		}

		return nil, errors.Errorf("configuration keys %s must have the same type", k)
	}

	return a, nil
}
