package movie

import (
	"strings"

	"moviesearch/errs"
)

const (
	// NotAvailable is the catalog's sentinel for a missing field value.
	NotAvailable = "N/A"

	// PageSize is the number of hits the catalog returns per search page.
	PageSize = 10
)

var (
	ErrEmptyTerm   = errs.Errorf(errs.EINVALID, "Please enter a search term")
	ErrEmptyID     = errs.Errorf(errs.EINVALID, "No ID provided")
	ErrInvalidPage = errs.Errorf(errs.EINVALID, "invalid page number")
)

type MediaType string

const (
	TypeMovie   MediaType = "movie"
	TypeSeries  MediaType = "series"
	TypeEpisode MediaType = "episode"
)

// Summary is one search hit. Identity is ID.
type Summary struct {
	ID     string    `json:"imdbID"`
	Title  string    `json:"title"`
	Year   string    `json:"year"`
	Type   MediaType `json:"type"`
	Poster string    `json:"poster"`
}

func (s Summary) HasPoster() bool {
	p := strings.TrimSpace(s.Poster)
	return p != "" && p != NotAvailable
}

type Rating struct {
	Source string `json:"source"`
	Value  string `json:"value"`
}

// Detail is the full record for a single title. Every descriptive field may
// hold NotAvailable.
type Detail struct {
	Summary

	Rated      string   `json:"rated"`
	Released   string   `json:"released"`
	Runtime    string   `json:"runtime"`
	Genre      string   `json:"genre"`
	Director   string   `json:"director"`
	Writer     string   `json:"writer"`
	Actors     string   `json:"actors"`
	Plot       string   `json:"plot"`
	Language   string   `json:"language"`
	Country    string   `json:"country"`
	Awards     string   `json:"awards"`
	Ratings    []Rating `json:"ratings"`
	Metascore  string   `json:"metascore"`
	IMDbRating string   `json:"imdbRating"`
	IMDbVotes  string   `json:"imdbVotes"`
	DVD        string   `json:"dvd"`
	BoxOffice  string   `json:"boxOffice"`
	Production string   `json:"production"`
	Website    string   `json:"website"`
}

// SearchPage is the result of one (term, page) search.
type SearchPage struct {
	Term         string    `json:"term"`
	Page         int       `json:"page"`
	Movies       []Summary `json:"movies"`
	TotalResults int       `json:"totalResults"`
}

// NormalizeTerm trims surrounding whitespace from a raw search term.
func NormalizeTerm(term string) string {
	return strings.TrimSpace(term)
}

// Available reports whether a detail field carries a real value.
func Available(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}
