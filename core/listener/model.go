package listener

import (
	"context"

	"memebot/core/meme"
)

type Selector interface {
	Select(ctx context.Context) (*meme.Meme, error)
}
