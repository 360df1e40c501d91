package meme

import (
	"memebot/3rdparty/memeapi"
)

const (
	DefaultTitle  = "Untitled Meme"
	DefaultAuthor = "Anonymous"
)

// Meme is a candidate built from a single meme API response.
type Meme struct {
	URL       string
	Title     string
	Author    string
	Subreddit string
	Ups       int
	Preview   []string
}

// FromPost fills missing post fields with defaults.
// subreddit is the one the post was requested from.
func FromPost(post *memeapi.Post, subreddit string) *Meme {
	meme := &Meme{
		URL:       post.URL,
		Title:     post.Title.ValueOrZero(),
		Author:    post.Author.ValueOrZero(),
		Subreddit: post.Subreddit.ValueOrZero(),
		Ups:       post.Score(),
		Preview:   post.Preview,
	}

	if meme.Title == "" {
		meme.Title = DefaultTitle
	}

	if meme.Author == "" {
		meme.Author = DefaultAuthor
	}

	if meme.Subreddit == "" {
		meme.Subreddit = subreddit
	}

	if meme.Preview == nil {
		meme.Preview = []string{}
	}

	return meme
}
