package meme

import (
	"time"

	"github.com/jfk9w-go/flu"
	"gopkg.in/yaml.v3"
)

var (
	DefaultSubreddits = []string{"memes", "dankmemes", "wholesomememes", "funny", "animemes", "comedyheaven"}
	DefaultThresholds = []int{1000, 500, 100, 100}
	DefaultExtensions = []string{".jpg", ".png", ".gif"}
	DefaultRetryDelay = time.Second
)

// List is a YAML sequence which also accepts a single scalar value,
// so that one-element lists can be set from a plain environment variable.
type List[T any] []T

func (l *List[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}

		var value T
		if err := node.Decode(&value); err != nil {
			return err
		}

		*l = List[T]{value}
		return nil
	}

	var values []T
	if err := node.Decode(&values); err != nil {
		return err
	}

	*l = values
	return nil
}

type Config struct {
	Subreddits        List[string] `yaml:"subreddits,omitempty" doc:"Subreddits to pick memes from, a list or a single name. One is chosen at random per request."`
	Thresholds        List[int]    `yaml:"thresholds,omitempty" doc:"Minimum upvotes per attempt, starting with the initial one. The length defines the attempt budget."`
	Bootstrap         int          `yaml:"bootstrap,omitempty" doc:"Overrides the initial attempt threshold when lower than it."`
	Extensions        List[string] `yaml:"extensions,omitempty" doc:"Accepted image file extensions."`
	RetryDelay        flu.Duration `yaml:"retrydelay,omitempty" doc:"Delay between attempts." default:"1s"`
	RecentLimit       int          `yaml:"recentlimit,omitempty" doc:"How many served image URLs are remembered to avoid repeats." default:"100"`
	RetryOnFirstError bool         `yaml:"retryonfirsterror,omitempty" doc:"Whether a failed initial request consumes one attempt instead of aborting selection."`
}

func (c Config) thresholds() []int {
	thresholds := []int(c.Thresholds)
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}

	thresholds = append([]int(nil), thresholds...)
	if c.Bootstrap > 0 && c.Bootstrap < thresholds[0] {
		thresholds[0] = c.Bootstrap
	}

	return thresholds
}

func (c Config) subreddits() []string {
	if len(c.Subreddits) == 0 {
		return DefaultSubreddits
	}

	return []string(c.Subreddits)
}

func (c Config) extensions() []string {
	if len(c.Extensions) == 0 {
		return DefaultExtensions
	}

	return []string(c.Extensions)
}

func (c Config) retryDelay() time.Duration {
	if c.RetryDelay.Value <= 0 {
		return DefaultRetryDelay
	}

	return c.RetryDelay.Value
}
