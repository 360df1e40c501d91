package listener

import (
	"github.com/jfk9w-go/flu/me3x"
)

// Event records command outcomes as metrics.
type Event struct {
	me3x.Registry
}

func (e Event) registry() me3x.Registry {
	if e.Registry == nil {
		return me3x.DummyRegistry{}
	}

	return e.Registry
}

func (e Event) OnCommand(key string) {
	e.registry().Counter("command", me3x.Labels{}.Add("key", key)).Inc()
}

func (e Event) OnSent(subreddit string, tier string) {
	e.registry().Counter("sent", me3x.Labels{}.
		Add("subreddit", subreddit).
		Add("tier", tier)).
		Inc()
}

func (e Event) OnFailure(reason string) {
	e.registry().Counter("failed", me3x.Labels{}.Add("reason", reason)).Inc()
}
