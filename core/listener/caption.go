package listener

import (
	"fmt"
	"unicode/utf8"

	"github.com/jfk9w-go/telegram-bot-api"
	"golang.org/x/exp/utf8string"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"memebot/core/meme"
)

const (
	hotUps   = 10000
	greatUps = 5000
)

var printer = message.NewPrinter(language.English)

// tier returns the emoji shown in the caption and its metric label.
func tier(ups int) (emoji string, name string) {
	switch {
	case ups >= hotUps:
		return "🔥", "hot"
	case ups >= greatUps:
		return "⚡", "great"
	default:
		return "👍", "good"
	}
}

// FormatUps renders the upvote count with thousands separators.
func FormatUps(ups int) string {
	return printer.Sprintf("%d", ups)
}

// Caption builds the photo caption. Long titles are shortened
// so that the caption fits into a single Telegram message.
func Caption(meme *meme.Meme) string {
	emoji, _ := tier(meme.Ups)
	prefix := emoji + " "
	suffix := fmt.Sprintf("\n r/%s • ⬆️ %s", meme.Subreddit, FormatUps(meme.Ups))
	title := utf8string.NewString(meme.Title)
	limit := telegram.MaxCaptionSize - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(suffix)
	if limit > 0 && title.RuneCount() > limit {
		return prefix + title.Slice(0, limit-1) + "…" + suffix
	}

	return prefix + meme.Title + suffix
}
