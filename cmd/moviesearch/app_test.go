package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"moviesearch/filestore"
	"moviesearch/movie"
	"moviesearch/userlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeMovies struct{}

func (fakeMovies) Search(_ context.Context, term string, page int) (movie.SearchPage, error) {
	movies := make([]movie.Summary, 0, movie.PageSize)
	for i := 1; i <= movie.PageSize; i++ {
		n := (page-1)*movie.PageSize + i
		movies = append(movies, movie.Summary{
			ID:    fmt.Sprintf("tt%07d", n),
			Title: fmt.Sprintf("%s %d", term, n),
			Year:  "2001",
		})
	}
	return movie.SearchPage{Term: term, Page: page, Movies: movies, TotalResults: 25}, nil
}

func (fakeMovies) Suggestions(_ context.Context, term string) ([]movie.Summary, error) {
	return []movie.Summary{{ID: "tt0000099", Title: strings.ToUpper(term)}}, nil
}

func (fakeMovies) Detail(_ context.Context, id string) (movie.Detail, error) {
	return movie.Detail{
		Summary: movie.Summary{ID: id, Title: "Batman Begins", Year: "2005"},
		Plot:    "A young Bruce Wayne travels to the Far East.",
		Rated:   movie.NotAvailable,
	}, nil
}

func newTestApp(t *testing.T) (*app, *userlist.Store, *syncBuffer) {
	t.Helper()
	out := new(syncBuffer)
	lists := userlist.NewStore(filestore.New(filepath.Join(t.TempDir(), "movies.json")), userlist.Options{})
	a := newApp(fakeMovies{}, lists, out, appOptions{Debounce: 20 * time.Millisecond})
	t.Cleanup(a.Close)
	return a, lists, out
}

func waitFor(t *testing.T, out *syncBuffer, text string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), text)
	}, time.Second, 5*time.Millisecond, "output never contained %q:\n%s", text, out.String())
}

func TestApp_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("searches, pages and quits", func(t *testing.T) {
		a, _, out := newTestApp(t)
		in := strings.NewReader("/quit\n")

		require.NoError(t, a.Run(ctx, in, "Batman"))
		waitFor(t, out, `Results for "Batman": 10 of 25`)

		require.NoError(t, a.handle(ctx, "/more"))
		waitFor(t, out, `Results for "Batman": 20 of 25`)
	})

	t.Run("typed input settles into a search", func(t *testing.T) {
		a, _, out := newTestApp(t)
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))

		require.NoError(t, a.handle(ctx, "Marvel"))

		waitFor(t, out, `Results for "Marvel"`)
		waitFor(t, out, "Suggestions: 1. MARVEL")
	})

	t.Run("submit records a recent search", func(t *testing.T) {
		a, lists, out := newTestApp(t)
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))

		require.NoError(t, a.handle(ctx, "/search Star Wars"))
		waitFor(t, out, `Results for "Star Wars"`)

		recent, err := lists.RecentSearches(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Star Wars"}, recent)

		require.NoError(t, a.handle(ctx, "/recent"))
		waitFor(t, out, "Recent searches:\n  1. Star Wars")
		require.NoError(t, a.handle(ctx, "/clear"))
		waitFor(t, out, "Recent searches cleared.")
	})

	t.Run("favorites by result number", func(t *testing.T) {
		a, lists, out := newTestApp(t)
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))
		waitFor(t, out, `Results for "Batman": 10 of 25`)

		require.NoError(t, a.handle(ctx, "/fav 2"))
		yes, err := lists.IsFavorite(ctx, "tt0000002")
		require.NoError(t, err)
		assert.True(t, yes)

		require.NoError(t, a.handle(ctx, "/favs"))
		waitFor(t, out, "Batman 2 (2001) tt0000002")

		require.NoError(t, a.handle(ctx, "/unfav tt0000002"))
		yes, _ = lists.IsFavorite(ctx, "tt0000002")
		assert.False(t, yes)
	})

	t.Run("unknown result number", func(t *testing.T) {
		a, _, _ := newTestApp(t)

		err := a.handle(ctx, "/fav 99")

		assert.Error(t, err)
	})

	t.Run("detail skips unavailable fields", func(t *testing.T) {
		a, _, out := newTestApp(t)

		require.NoError(t, a.handle(ctx, "/detail tt0372784"))

		waitFor(t, out, "Batman Begins (2005)")
		assert.Contains(t, out.String(), "Plot:")
		assert.NotContains(t, out.String(), "Rated:")
	})

	t.Run("picking a suggestion opens it and remembers its title", func(t *testing.T) {
		a, lists, out := newTestApp(t)
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))

		require.NoError(t, a.handle(ctx, "/suggest joker"))
		waitFor(t, out, "Suggestions: 1. JOKER")
		require.NoError(t, a.handle(ctx, "/pick 1"))

		waitFor(t, out, "Batman Begins (2005)")
		recent, err := lists.RecentSearches(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"JOKER"}, recent)

		assert.Error(t, a.handle(ctx, "/pick 2"))
	})

	t.Run("a recent search runs again by number", func(t *testing.T) {
		a, lists, out := newTestApp(t)
		require.NoError(t, lists.AddRecentSearch(ctx, "Alien"))
		require.NoError(t, lists.AddRecentSearch(ctx, "Heat"))
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))
		waitFor(t, out, `Results for "Batman"`)

		require.NoError(t, a.handle(ctx, "/recent 2"))

		waitFor(t, out, `Results for "Alien": 10 of 25`)
		recent, err := lists.RecentSearches(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alien", "Heat"}, recent)

		assert.Error(t, a.handle(ctx, "/recent 3"))
	})

	t.Run("fav toggles and marks results", func(t *testing.T) {
		a, lists, out := newTestApp(t)
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))
		waitFor(t, out, `Results for "Batman": 10 of 25`)

		require.NoError(t, a.handle(ctx, "/fav 3"))
		waitFor(t, out, "Saved Batman 3 to favorites.")
		waitFor(t, out, "3. Batman 3 (2001) tt0000003 *")

		require.NoError(t, a.handle(ctx, "/fav tt0000003"))
		waitFor(t, out, "Removed Batman 3 from favorites.")
		yes, err := lists.IsFavorite(ctx, "tt0000003")
		require.NoError(t, err)
		assert.False(t, yes)
	})

	t.Run("fav by an id outside the results", func(t *testing.T) {
		a, lists, out := newTestApp(t)

		require.NoError(t, a.handle(ctx, "/fav tt0372784"))

		waitFor(t, out, "Saved Batman Begins to favorites.")
		favs, err := lists.Favorites(ctx)
		require.NoError(t, err)
		assert.Equal(t, []movie.Summary{{ID: "tt0372784", Title: "Batman Begins", Year: "2005"}}, favs)
	})

	t.Run("fav from the detail view", func(t *testing.T) {
		a, lists, out := newTestApp(t)

		assert.Error(t, a.handle(ctx, "/fav"), "nothing shown yet")

		require.NoError(t, a.handle(ctx, "/detail tt0372784"))
		require.NoError(t, a.handle(ctx, "/fav"))
		waitFor(t, out, "Saved Batman Begins to favorites.")

		require.NoError(t, a.handle(ctx, "/detail tt0372784"))
		waitFor(t, out, "Batman Begins (2005) *")

		require.NoError(t, a.handle(ctx, "/fav"))
		yes, err := lists.IsFavorite(ctx, "tt0372784")
		require.NoError(t, err)
		assert.False(t, yes)
	})

	t.Run("search with no term submits what was typed", func(t *testing.T) {
		out := new(syncBuffer)
		lists := userlist.NewStore(filestore.New(filepath.Join(t.TempDir(), "movies.json")), userlist.Options{})
		a := newApp(fakeMovies{}, lists, out, appOptions{Debounce: time.Hour})
		t.Cleanup(a.Close)
		require.NoError(t, a.Run(ctx, strings.NewReader(""), "Batman"))

		require.NoError(t, a.handle(ctx, "Alien"))
		require.NoError(t, a.handle(ctx, "/search"))

		waitFor(t, out, `Results for "Alien"`)
		recent, err := lists.RecentSearches(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alien"}, recent)
	})

	t.Run("empty search term", func(t *testing.T) {
		a, _, _ := newTestApp(t)

		err := a.handle(ctx, "/search   ")

		assert.Equal(t, movie.ErrEmptyTerm, err)
	})
}
