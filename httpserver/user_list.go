package httpserver

import (
	"net/http"

	"moviesearch/errs"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterUserListRoutes(g *echo.Group) {
	g.GET("/recent-searches", s.handleListRecentSearches)
	g.POST("/recent-searches", s.handleAddRecentSearch)
	g.DELETE("/recent-searches", s.handleClearRecentSearches)

	g.GET("/favorites", s.handleListFavorites)
	g.POST("/favorites", s.handleAddFavorite)
	g.GET("/favorites/:id", s.handleIsFavorite)
	g.DELETE("/favorites/:id", s.handleRemoveFavorite)
}

var errListsNotConfigured = errs.Errorf(errs.ENOTIMPLEMENTED, "user lists not configured")

func (s *Server) handleListRecentSearches(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	list, err := s.ListService.RecentSearches(c.Request().Context())
	if err != nil {
		return err
	}

	return writeList(c, http.StatusOK, list)
}

func (s *Server) handleAddRecentSearch(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	var req AddRecentSearchRequest
	if err := c.Bind(&req); err != nil {
		return errs.Errorf(errs.EINVALID, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := s.ListService.AddRecentSearch(ctx, req.Term); err != nil {
		return err
	}
	list, err := s.ListService.RecentSearches(ctx)
	if err != nil {
		return err
	}

	return writeList(c, http.StatusCreated, list)
}

func (s *Server) handleClearRecentSearches(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	if err := s.ListService.ClearRecentSearches(c.Request().Context()); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListFavorites(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	list, err := s.ListService.Favorites(c.Request().Context())
	if err != nil {
		return err
	}

	return writeList(c, http.StatusOK, list)
}

func (s *Server) handleAddFavorite(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	var req AddFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return errs.Errorf(errs.EINVALID, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	fav := req.ToSummary()
	if err := s.ListService.AddFavorite(c.Request().Context(), fav); err != nil {
		return err
	}

	return writeSuccess(c, http.StatusCreated, fav)
}

func (s *Server) handleIsFavorite(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	ok, err := s.ListService.IsFavorite(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return writeSuccess(c, http.StatusOK, map[string]bool{
		"favorite": ok,
	})
}

func (s *Server) handleRemoveFavorite(c echo.Context) error {
	if s.ListService == nil {
		return errListsNotConfigured
	}

	if err := s.ListService.RemoveFavorite(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
