package userlist

import (
	"context"
	"strings"

	"moviesearch/errs"
	"moviesearch/movie"
)

const (
	RecentSearchesKey = "recentSearches"
	FavoritesKey      = "favoriteMovies"

	MaxRecentSearches = 5
)

var ErrInvalidFavorite = errs.Errorf(errs.EINVALID, "invalid favorite movie")

type Service interface {
	AddRecentSearch(ctx context.Context, term string) error
	RecentSearches(ctx context.Context) ([]string, error)
	ClearRecentSearches(ctx context.Context) error
	AddFavorite(ctx context.Context, m movie.Summary) error
	RemoveFavorite(ctx context.Context, id string) error
	IsFavorite(ctx context.Context, id string) (bool, error)
	Favorites(ctx context.Context) ([]movie.Summary, error)
}

// Storage is a key-value store holding each list as one JSON document.
type Storage interface {
	// Get reports false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// pushRecent puts term at the front, drops any entry equal to it ignoring
// case and keeps at most MaxRecentSearches entries.
func pushRecent(list []string, term string) []string {
	out := make([]string, 0, MaxRecentSearches)
	out = append(out, term)
	for _, s := range list {
		if len(out) == MaxRecentSearches {
			break
		}
		if strings.EqualFold(s, term) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func indexOf(list []movie.Summary, id string) int {
	for i, m := range list {
		if m.ID == id {
			return i
		}
	}
	return -1
}
