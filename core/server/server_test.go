package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jfk9w-go/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"memebot/core/server"
)

type recordingListener struct {
	commands chan *telegram.Command
}

func (l *recordingListener) OnCommand(ctx context.Context, client telegram.Client, cmd *telegram.Command) error {
	l.commands <- cmd
	return nil
}

func TestServer_Liveness(t *testing.T) {
	s := server.New(nil)
	defer s.Close()

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, server.LivenessText, w.Body.String())
}

func TestServer_Webhook(t *testing.T) {
	s := server.New(nil)
	defer s.Close()

	listener := &recordingListener{commands: make(chan *telegram.Command, 1)}
	s.Mount("", &server.Webhook{Listener: listener, Username: "content_bot"})

	body := `{
		"update_id": 1,
		"message": {
			"message_id": 10,
			"from": {"id": 7, "is_bot": false, "first_name": "A"},
			"chat": {"id": 42, "type": "private"},
			"text": "/mem@content_bot now please",
			"entities": [{"type": "bot_command", "offset": 0, "length": 16}]
		}
	}`

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, server.DefaultWebhookPath, strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case cmd := <-listener.commands:
		assert.Equal(t, "/mem", cmd.Key)
		assert.Equal(t, "now please", cmd.Payload)
		assert.Equal(t, []string{"now", "please"}, cmd.Args)
		assert.Equal(t, telegram.ID(42), cmd.Chat.ID)
		assert.Equal(t, telegram.ID(10), cmd.Message.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("command was not dispatched")
	}
}

func TestServer_WebhookMalformed(t *testing.T) {
	s := server.New(nil)
	defer s.Close()
	s.Mount("/hook", &server.Webhook{Listener: new(recordingListener)})

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_WebhookSecret(t *testing.T) {
	s := server.New(nil)
	defer s.Close()
	s.Mount("", &server.Webhook{Listener: new(recordingListener), Secret: "s3cret"})

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, server.DefaultWebhookPath, strings.NewReader(`{"update_id": 1}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, server.DefaultWebhookPath, strings.NewReader(`{"update_id": 1}`))
	req.Header.Set(server.SecretTokenHeader, "s3cret")
	w = httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_WebhookAfterClose(t *testing.T) {
	s := server.New(nil)
	s.Mount("", &server.Webhook{Listener: new(recordingListener)})
	require.Nil(t, s.Close())

	body := `{"update_id": 1, "message": {"message_id": 1, "chat": {"id": 1}, "text": "/mem",
		"entities": [{"type": "bot_command", "offset": 0, "length": 4}]}}`
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, server.DefaultWebhookPath, strings.NewReader(body)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_StartClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := server.New(nil)
	require.Nil(t, s.Start("127.0.0.1:0"))

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + s.Addr().String() + "/")
	require.Nil(t, err)
	data, err := io.ReadAll(resp.Body)
	require.Nil(t, err)
	require.Nil(t, resp.Body.Close())
	assert.Equal(t, server.LivenessText, string(data))

	var done sync.WaitGroup
	done.Add(1)
	require.Nil(t, s.Go(func(ctx context.Context) {
		defer done.Done()
		<-ctx.Done()
	}))

	require.Nil(t, s.Close())
	done.Wait()
}

func TestServer_StartAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	addr := free.Addr().String()
	require.Nil(t, free.Close())

	s := server.New(nil)
	require.Nil(t, s.Close())
	assert.ErrorIs(t, s.Start(addr), context.Canceled)
	assert.Nil(t, s.Addr())

	// the port is released when start fails
	listener, err := net.Listen("tcp", addr)
	require.Nil(t, err)
	require.Nil(t, listener.Close())
}
