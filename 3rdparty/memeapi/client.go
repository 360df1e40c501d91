package memeapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jfk9w-go/flu"
	httpf "github.com/jfk9w-go/flu/httpf"
	"github.com/pkg/errors"
)

var (
	DefaultBaseURL   = "https://meme-api.com"
	DefaultUserAgent = "ContentBot/1.0"
	DefaultTimeout   = 15 * time.Second
)

type Interface interface {
	Random(ctx context.Context, subreddit string) (*Post, error)
}

type Config struct {
	BaseURL   string       `yaml:"baseurl,omitempty" doc:"Meme API base URL." default:"https://meme-api.com"`
	UserAgent string       `yaml:"useragent,omitempty" doc:"User-Agent header sent with every request." default:"ContentBot/1.0"`
	Timeout   flu.Duration `yaml:"timeout,omitempty" doc:"Per-request timeout." default:"15s"`
}

type Client struct {
	HttpClient *http.Client
	BaseURL    string
	UserAgent  string
}

func NewClient(config Config) *Client {
	timeout := config.Timeout.Value
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		HttpClient: &http.Client{
			Transport: httpf.NewDefaultTransport(),
			Timeout:   timeout,
		},
		BaseURL:   baseURL,
		UserAgent: userAgent,
	}
}

func (c *Client) Random(ctx context.Context, subreddit string) (*Post, error) {
	post := new(Post)
	if err := httpf.GET(c.BaseURL+"/gimme/"+url.PathEscape(subreddit)).
		Header("User-Agent", c.UserAgent).
		Exchange(ctx, c.HttpClient).
		CheckStatus(http.StatusOK).
		DecodeBody(flu.JSON(post)).
		Error(); err != nil {
		return nil, errors.Wrapf(err, "get random post from r/%s", subreddit)
	}

	return post, nil
}
