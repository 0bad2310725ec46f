package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestByIMDBID_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("i"); got != "tt0111161" {
			t.Errorf("expected i=tt0111161, got %q", got)
		}
		if r.URL.Query().Get("apikey") == "" {
			t.Error("expected apikey to be sent")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Title": "The Shawshank Redemption",
			"Year": "1994",
			"Type": "movie",
			"imdbID": "tt0111161",
			"imdbRating": "9.3",
			"Response": "True"
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	m, err := c.ByIMDBID(context.Background(), "tt0111161")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Title != "The Shawshank Redemption" {
		t.Fatalf("unexpected title %q", m.Title)
	}
	if m.IMDBRating != "9.3" {
		t.Fatalf("unexpected rating %q", m.IMDBRating)
	}
}

func TestByIMDBID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	_, err := c.ByIMDBID(context.Background(), "tt9999999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestByIMDBID_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key")
	if _, err := c.ByIMDBID(context.Background(), "tt0111161"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestByIMDBID_EmptyID(t *testing.T) {
	c := New("", "test-key")
	if _, err := c.ByIMDBID(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty id")
	}
}
