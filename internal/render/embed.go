// Package render builds and updates the movie embeds the bot posts. It owns
// formatting only; deciding when to re-render is the router's job.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/example/imdb-bot/internal/omdb"
	"github.com/example/imdb-bot/internal/stats"
)

const (
	fieldIMDBID     = "IMDb ID"
	fieldUserRating = "User Rating"

	// NotRatedSentinel is what a zero-vote movie displays. A movie with no
	// votes is "not rated", never "rated 0".
	NotRatedSentinel = "⭐ Not Rated yet"

	embedColor = 0x00FF00
)

// Embed builds the rich message for a movie. authorRating is the poster's
// own rating carried in the link, shown until the first reaction vote lands.
func Embed(media *omdb.Media, authorRating, imdbURL string) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s (%s)", media.Title, media.Year),
		Description: media.Plot,
		URL:         imdbURL,
		Color:       embedColor,
	}
	if media.Poster != "" && media.Poster != "N/A" {
		e.Image = &discordgo.MessageEmbedImage{URL: media.Poster}
	}

	add := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			value = "N/A"
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true})
	}

	add("Director", media.Director)
	add("Writer", media.Writer)
	add("Actors", media.Actors)
	add("Rating", "⭐ "+media.IMDBRating)
	add("Awards", media.Awards)
	add("Genre", media.Genre)
	add("Runtime", media.Runtime)
	add("Language", media.Language)
	add("Country", media.Country)
	add("Released", media.Released)
	if media.Type == "series" && media.TotalSeasons != "" {
		add("Total Seasons", media.TotalSeasons)
	}
	add(fieldIMDBID, media.IMDBID)

	initial := NotRatedSentinel
	if strings.TrimSpace(authorRating) != "" {
		initial = "⭐ " + authorRating
	}
	add(fieldUserRating, initial)

	return e
}

// UserRatingValue formats the community aggregate for display. Averages are
// rounded to one decimal; a zero-vote scope renders the sentinel.
func UserRatingValue(s stats.Stats) string {
	if !s.Rated() {
		return NotRatedSentinel
	}
	votes := "votes"
	if s.Count == 1 {
		votes = "vote"
	}
	return fmt.Sprintf("⭐ %.1f (%d %s)", math.Round(s.Average*10)/10, s.Count, votes)
}

// ApplyStats rewrites the User Rating field in place and reports whether the
// embed carried one.
func ApplyStats(e *discordgo.MessageEmbed, s stats.Stats) bool {
	for _, f := range e.Fields {
		if f.Name == fieldUserRating {
			f.Value = UserRatingValue(s)
			return true
		}
	}
	return false
}

// SetAuthorRating rewrites the User Rating field with the posting author's
// own rating. Used by the duplicate-post path; reaction stats take
// precedence once votes exist.
func SetAuthorRating(e *discordgo.MessageEmbed, rating string) bool {
	for _, f := range e.Fields {
		if f.Name == fieldUserRating {
			f.Value = "⭐ " + rating
			return true
		}
	}
	return false
}

// ExtractIMDBID recovers the movie id from a previously posted embed. It is
// the fallback used when a reaction arrives for a message the registry does
// not know, e.g. one posted before the current process started.
func ExtractIMDBID(e *discordgo.MessageEmbed) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, f := range e.Fields {
		if f.Name == fieldIMDBID && strings.HasPrefix(f.Value, "tt") {
			return f.Value, true
		}
	}
	return "", false
}
