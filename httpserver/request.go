package httpserver

import (
	"strings"

	"moviesearch/movie"
)

type AddRecentSearchRequest struct {
	Term string `json:"term" validate:"required,notblank,max=200"`
}

type FavoriteMovie struct {
	ID     string `json:"imdbID" validate:"required,imdbid"`
	Title  string `json:"title" validate:"required,notblank,max=300"`
	Year   string `json:"year" validate:"max=20"`
	Type   string `json:"type" validate:"omitempty,oneof=movie series episode"`
	Poster string `json:"poster" validate:"omitempty,max=2048"`
}

type AddFavoriteRequest struct {
	Movie FavoriteMovie `json:"movie"`
}

func (r AddFavoriteRequest) ToSummary() movie.Summary {
	return movie.Summary{
		ID:     strings.TrimSpace(r.Movie.ID),
		Title:  strings.TrimSpace(r.Movie.Title),
		Year:   r.Movie.Year,
		Type:   movie.MediaType(r.Movie.Type),
		Poster: r.Movie.Poster,
	}
}
