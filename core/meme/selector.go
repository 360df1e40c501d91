package meme

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jfk9w-go/flu"
	"github.com/jfk9w-go/flu/backoff"
	"github.com/jfk9w-go/flu/me3x"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"memebot/3rdparty/memeapi"
)

// ErrExhausted is returned when no acceptable meme was found within the attempt budget.
var ErrExhausted = errors.New("no suitable meme found")

type rejectReason string

const (
	rejectNotImage rejectReason = "not_image"
	rejectLowScore rejectReason = "low_score"
	rejectRepeat   rejectReason = "repeat"
)

type Selector struct {
	Client            memeapi.Interface
	Recent            *RecentSet
	Registry          me3x.Registry
	Subreddits        []string
	Thresholds        []int
	Extensions        []string
	Backoff           backoff.Interface
	RetryOnFirstError bool
	Intn              func(n int) int
}

func NewSelector(client memeapi.Interface, config Config, registry me3x.Registry) *Selector {
	if registry == nil {
		registry = me3x.DummyRegistry{}
	}

	random := rand.New(rand.NewSource(time.Now().UnixNano()))
	var mu sync.Mutex
	return &Selector{
		Client:            client,
		Recent:            NewRecentSet(config.RecentLimit),
		Registry:          registry,
		Subreddits:        config.subreddits(),
		Thresholds:        config.thresholds(),
		Extensions:        config.extensions(),
		Backoff:           backoff.Const(config.retryDelay()),
		RetryOnFirstError: config.RetryOnFirstError,
		Intn: func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return random.Intn(n)
		},
	}
}

// Select picks a random subreddit and asks it for a meme until one is accepted
// or every threshold has been tried. All attempts use the same subreddit.
func (s *Selector) Select(ctx context.Context) (*Meme, error) {
	if len(s.Subreddits) == 0 || len(s.Thresholds) == 0 {
		return nil, errors.Wrap(ErrExhausted, "selector is not configured")
	}

	subreddit := s.Subreddits[s.Intn(len(s.Subreddits))]
	log := logrus.WithField("subreddit", subreddit)
	for attempt, minUps := range s.Thresholds {
		if attempt > 0 {
			if err := flu.Sleep(ctx, s.Backoff.Timeout(attempt)); err != nil {
				return nil, err
			}
		}

		log := log.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"min_ups": minUps,
		})

		log.Debugf("fetching meme")
		s.Registry.Counter("fetch", nil).Inc()
		post, err := s.Client.Random(ctx, subreddit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			s.Registry.Counter("error", nil).Inc()
			if attempt == 0 && !s.RetryOnFirstError {
				log.Warnf("fetch meme failed, giving up: %s", err)
				s.Registry.Counter("exhausted", nil).Inc()
				return nil, errors.Wrapf(ErrExhausted, "initial request failed: %s", err)
			}

			log.Warnf("fetch meme failed: %s", err)
			continue
		}

		meme := FromPost(post, subreddit)
		log = log.WithFields(logrus.Fields{
			"url": meme.URL,
			"ups": meme.Ups,
		})

		if reason := s.check(meme, minUps); reason != "" {
			s.Registry.Counter("reject", me3x.Labels{}.Add("reason", reason)).Inc()
			log.WithField("reason", reason).Infof("meme rejected")
			continue
		}

		s.Registry.Counter("accept", nil).Inc()
		log.Infof("meme accepted")
		return meme, nil
	}

	s.Registry.Counter("exhausted", nil).Inc()
	log.Warnf("no meme found after %d attempts", len(s.Thresholds))
	return nil, ErrExhausted
}

// check returns an empty reason if the meme is accepted.
// Acceptance records the url as recent.
func (s *Selector) check(meme *Meme, minUps int) rejectReason {
	if !s.isImage(meme.URL) {
		return rejectNotImage
	}

	if meme.Ups < minUps {
		return rejectLowScore
	}

	if !s.Recent.Add(meme.URL) {
		return rejectRepeat
	}

	return ""
}

// isImage reports whether the url ends with one of the configured extensions.
// The comparison is exact: query strings, fragments and upper case extensions do not match.
func (s *Selector) isImage(url string) bool {
	if url == "" {
		return false
	}

	for _, ext := range s.Extensions {
		if strings.HasSuffix(url, ext) {
			return true
		}
	}

	return false
}
