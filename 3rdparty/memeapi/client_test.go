package memeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jfk9w-go/flu"
	httpf "github.com/jfk9w-go/flu/httpf"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memebot/3rdparty/memeapi"
)

func TestClient_Random(t *testing.T) {
	var path, userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, userAgent = r.URL.Path, r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"postLink": "https://redd.it/abc",
			"subreddit": "dankmemes",
			"title": "When the code compiles",
			"url": "https://i.redd.it/abc.jpg",
			"nsfw": false,
			"spoiler": false,
			"author": "someone",
			"ups": 12345,
			"preview": ["https://preview.redd.it/abc.jpg"]
		}`))
	}))
	defer server.Close()

	client := memeapi.NewClient(memeapi.Config{BaseURL: server.URL + "/", UserAgent: "test-agent/1.0"})
	post, err := client.Random(context.Background(), "dankmemes")
	require.Nil(t, err)

	assert.Equal(t, "/gimme/dankmemes", path)
	assert.Equal(t, "test-agent/1.0", userAgent)
	assert.Equal(t, "https://i.redd.it/abc.jpg", post.URL)
	assert.Equal(t, "When the code compiles", post.Title.String)
	assert.Equal(t, "someone", post.Author.String)
	assert.Equal(t, 12345, post.Score())
	assert.Equal(t, []string{"https://preview.redd.it/abc.jpg"}, post.Preview)
}

func TestClient_RandomMissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url": "https://i.redd.it/abc.png", "ups": -5}`))
	}))
	defer server.Close()

	client := memeapi.NewClient(memeapi.Config{BaseURL: server.URL})
	post, err := client.Random(context.Background(), "memes")
	require.Nil(t, err)

	assert.False(t, post.Title.Valid)
	assert.False(t, post.Author.Valid)
	assert.False(t, post.Subreddit.Valid)
	assert.Equal(t, 0, post.Score())
	assert.Empty(t, post.Preview)
}

func TestClient_RandomStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := memeapi.NewClient(memeapi.Config{BaseURL: server.URL})
	_, err := client.Random(context.Background(), "memes")
	require.NotNil(t, err)

	var statusErr httpf.StatusCodeError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestClient_RandomTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := memeapi.NewClient(memeapi.Config{
		BaseURL: server.URL,
		Timeout: flu.Duration{Value: 50 * time.Millisecond},
	})

	_, err := client.Random(context.Background(), "memes")
	assert.NotNil(t, err)
}
