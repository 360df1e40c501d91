package app_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memebot/app"
)

func resetLogging(t *testing.T) {
	t.Cleanup(func() {
		require.Nil(t, app.ConfigureLogging(app.LoggingConfig{}, os.Stderr))
	})
}

func TestConfigureLogging_Text(t *testing.T) {
	resetLogging(t)
	out := new(bytes.Buffer)
	require.Nil(t, app.ConfigureLogging(app.LoggingConfig{Level: "debug"}, out))

	logrus.WithFields(logrus.Fields{"b": 2, "a": 1}).Debugf("hello")
	assert.Contains(t, out.String(), "DEBUG [memebot] hello a=1 b=2\n")
}

func TestConfigureLogging_JSON(t *testing.T) {
	resetLogging(t)
	out := new(bytes.Buffer)
	require.Nil(t, app.ConfigureLogging(app.LoggingConfig{Format: "json"}, out))

	logrus.Debugf("hidden")
	logrus.WithField("url", "a.jpg").Infof("meme accepted")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"meme accepted"`)
	assert.Contains(t, out.String(), `"url":"a.jpg"`)
}

func TestConfigureLogging_Invalid(t *testing.T) {
	resetLogging(t)
	assert.NotNil(t, app.ConfigureLogging(app.LoggingConfig{Level: "loud"}, nil))
	assert.NotNil(t, app.ConfigureLogging(app.LoggingConfig{Format: "xml"}, nil))
}
