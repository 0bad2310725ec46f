// Package omdb wraps the OMDB HTTP API used to enrich IMDb links.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when OMDB has no record for an IMDb id.
var ErrNotFound = errors.New("omdb: title not found")

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://www.omdbapi.com"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Rating is one third-party rating entry in an OMDB payload.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Media is the OMDB record for a movie or series.
type Media struct {
	Title        string   `json:"Title"`
	Year         string   `json:"Year"`
	Rated        string   `json:"Rated"`
	Released     string   `json:"Released"`
	Runtime      string   `json:"Runtime"`
	Genre        string   `json:"Genre"`
	Director     string   `json:"Director"`
	Writer       string   `json:"Writer"`
	Actors       string   `json:"Actors"`
	Plot         string   `json:"Plot"`
	Language     string   `json:"Language"`
	Country      string   `json:"Country"`
	Awards       string   `json:"Awards"`
	Poster       string   `json:"Poster"`
	Ratings      []Rating `json:"Ratings"`
	Metascore    string   `json:"Metascore"`
	IMDBRating   string   `json:"imdbRating"`
	IMDBVotes    string   `json:"imdbVotes"`
	IMDBID       string   `json:"imdbID"`
	Type         string   `json:"Type"`
	TotalSeasons string   `json:"totalSeasons"`

	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// ByIMDBID fetches the OMDB record for an IMDb id. Returns ErrNotFound when
// OMDB reports Response=False.
func (c *Client) ByIMDBID(ctx context.Context, imdbID string) (*Media, error) {
	if strings.TrimSpace(imdbID) == "" {
		return nil, fmt.Errorf("omdb: imdbID required")
	}

	q := url.Values{}
	q.Set("apikey", c.APIKey)
	q.Set("i", imdbID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "imdb-bot/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("omdb: status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	var out Media
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("omdb: decode error: %w body=%q", err, string(b[:min(len(b), 200)]))
	}
	if !strings.EqualFold(out.Response, "True") {
		return nil, ErrNotFound
	}
	return &out, nil
}
