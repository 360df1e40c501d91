package memeapi

import (
	"gopkg.in/guregu/null.v3"
)

// Post is a single random post as returned by /gimme/{subreddit}.
type Post struct {
	PostLink  null.String `json:"postLink"`
	Subreddit null.String `json:"subreddit"`
	Title     null.String `json:"title"`
	URL       string      `json:"url"`
	NSFW      bool        `json:"nsfw"`
	Spoiler   bool        `json:"spoiler"`
	Author    null.String `json:"author"`
	Ups       null.Int    `json:"ups"`
	Preview   []string    `json:"preview"`
}

// Score returns the upvote count, zero when absent or negative.
func (p Post) Score() int {
	if ups := p.Ups.ValueOrZero(); ups > 0 {
		return int(ups)
	}

	return 0
}
