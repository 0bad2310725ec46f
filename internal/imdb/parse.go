// Package imdb extracts IMDb title references from chat messages.
package imdb

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	titleRe = regexp.MustCompile(`(https?://(?:www\.)?imdb\.com/[Tt]itle/(tt\d+))`)
	// Ratings may ride along as "#8.5" appended to the link.
	fragmentRatingRe = regexp.MustCompile(`#(\d{1,2}(?:\.\d)?)$`)
)

// LinkInfo is the parsed form of an IMDb link found in a message.
type LinkInfo struct {
	URL    string
	IMDBID string
	// AuthorRating is the poster's own rating carried in the link
	// ("?rating=8" or a "#8.5" suffix); empty when absent. It is display
	// enrichment only and never feeds the reaction vote tally.
	AuthorRating string
}

// Parse finds the first IMDb title URL in content. The second return is
// false when the message carries no IMDb link.
func Parse(content string) (LinkInfo, bool) {
	m := titleRe.FindStringSubmatch(content)
	if m == nil {
		return LinkInfo{}, false
	}
	info := LinkInfo{URL: m[1], IMDBID: m[2]}

	if u, err := url.Parse(firstToken(content, m[1])); err == nil {
		if r := u.Query().Get("rating"); r != "" {
			info.AuthorRating = r
		}
	}
	if info.AuthorRating == "" {
		if fm := fragmentRatingRe.FindStringSubmatch(strings.TrimSpace(content)); fm != nil {
			info.AuthorRating = fm[1]
		}
	}
	return info, true
}

// firstToken returns the whitespace-delimited token containing the match, so
// query parsing sees the full link rather than the whole message.
func firstToken(content, match string) string {
	idx := strings.Index(content, match)
	if idx < 0 {
		return match
	}
	rest := content[idx:]
	if end := strings.IndexAny(rest, " \t\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
