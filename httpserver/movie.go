package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"moviesearch/errs"
	"moviesearch/movie"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterMovieRoutes(g *echo.Group) {
	g.GET("/movies/search", s.handleSearchMovies)
	g.GET("/movies/suggestions", s.handleMovieSuggestions)
	g.GET("/movies/:id", s.handleMovieDetail)
}

func (s *Server) handleSearchMovies(c echo.Context) error {
	if s.MovieService == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
	}

	page := 1
	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return movie.ErrInvalidPage
		}
		page = parsed
	}

	res, err := s.MovieService.Search(c.Request().Context(), c.QueryParam("q"), page)
	if err != nil {
		return err
	}

	hasMore := page*movie.PageSize < res.TotalResults
	return writeSearchPage(c, res.Movies, page, res.TotalResults, hasMore)
}

func (s *Server) handleMovieSuggestions(c echo.Context) error {
	if s.MovieService == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
	}

	list, err := s.MovieService.Suggestions(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}

	return writeList(c, http.StatusOK, list)
}

func (s *Server) handleMovieDetail(c echo.Context) error {
	if s.MovieService == nil {
		return errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")
	}

	d, err := s.MovieService.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return writeSuccess(c, http.StatusOK, d)
}
