package search_test

import (
	"errors"
	"testing"

	"moviesearch/movie"
	"moviesearch/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movies(ids ...string) []movie.Summary {
	out := make([]movie.Summary, len(ids))
	for i, id := range ids {
		out[i] = movie.Summary{ID: id, Title: "Movie " + id}
	}
	return out
}

func ids(list []movie.Summary) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.ID
	}
	return out
}

func TestAccumulator_MergesPagesWithoutDuplicates(t *testing.T) {
	acc := search.NewAccumulator()
	acc.Reset("batman")
	assert.True(t, acc.Loading())

	require.True(t, acc.Apply("batman", 1, movie.SearchPage{Movies: movies("a", "b"), TotalResults: 3}))
	assert.False(t, acc.Loading())
	assert.True(t, acc.HasMore())

	page, ok := acc.Advance()
	require.True(t, ok)
	assert.Equal(t, 2, page)
	require.True(t, acc.Apply("batman", 2, movie.SearchPage{Movies: movies("b", "c"), TotalResults: 3}))

	assert.Equal(t, []string{"a", "b", "c"}, ids(acc.Items()))
	assert.False(t, acc.HasMore())
	_, ok = acc.Advance()
	assert.False(t, ok, "no further page once every result is loaded")
}

func TestAccumulator_FirstPageReplacesItems(t *testing.T) {
	acc := search.NewAccumulator()
	acc.Reset("batman")
	acc.Apply("batman", 1, movie.SearchPage{Movies: movies("a", "b"), TotalResults: 20})
	acc.Reset("superman")

	assert.Empty(t, acc.Items())
	assert.Equal(t, 1, acc.Page())
	assert.Equal(t, 0, acc.Total())

	acc.Apply("superman", 1, movie.SearchPage{Movies: movies("x"), TotalResults: 1})
	assert.Equal(t, []string{"x"}, ids(acc.Items()))
}

func TestAccumulator_DiscardsStaleResults(t *testing.T) {
	acc := search.NewAccumulator()
	acc.Reset("batman")
	acc.Apply("batman", 1, movie.SearchPage{Movies: movies("a"), TotalResults: 20})
	_, _ = acc.Advance()

	acc.Reset("superman")

	assert.False(t, acc.Apply("batman", 2, movie.SearchPage{Movies: movies("b")}))
	assert.False(t, acc.Fail("batman", 2, errors.New("boom")))
	assert.False(t, acc.Apply("superman", 2, movie.SearchPage{Movies: movies("s2")}), "page was never requested")
	assert.Empty(t, acc.Items())
	assert.True(t, acc.Loading())
	assert.NoError(t, acc.Err())
}

func TestAccumulator_CapsItemsAtTheReportedTotal(t *testing.T) {
	acc := search.NewAccumulator()
	acc.Reset("batman")
	acc.Apply("batman", 1, movie.SearchPage{Movies: movies("a", "b", "c"), TotalResults: 2})

	assert.Equal(t, []string{"a", "b"}, ids(acc.Items()))
	assert.False(t, acc.HasMore())
}

func TestAccumulator_FailureKeepsItemsAndCanBeRetried(t *testing.T) {
	acc := search.NewAccumulator()
	acc.Reset("batman")
	acc.Apply("batman", 1, movie.SearchPage{Movies: movies("a", "b"), TotalResults: 4})
	_, _ = acc.Advance()

	boom := errors.New("offline")
	require.True(t, acc.Fail("batman", 2, boom))
	assert.Equal(t, boom, acc.Err())
	assert.Equal(t, []string{"a", "b"}, ids(acc.Items()))
	assert.False(t, acc.Loading())

	_, ok := acc.Advance()
	assert.False(t, ok, "load more waits for the failed page to be retried")

	term, page, ok := acc.Retry()
	require.True(t, ok)
	assert.Equal(t, "batman", term)
	assert.Equal(t, 2, page)
	assert.NoError(t, acc.Err())
	assert.True(t, acc.Loading())

	_, _, ok = acc.Retry()
	assert.False(t, ok, "nothing to retry while the fetch is in flight")
}

func TestAccumulator_AdvanceWhileLoading(t *testing.T) {
	acc := search.NewAccumulator()

	_, ok := acc.Advance()
	assert.False(t, ok, "no term committed")

	acc.Reset("batman")
	_, ok = acc.Advance()
	assert.False(t, ok, "first page still in flight")
}

func TestAccumulator_ItemsIsACopy(t *testing.T) {
	acc := search.NewAccumulator()
	acc.Reset("batman")
	acc.Apply("batman", 1, movie.SearchPage{Movies: movies("a"), TotalResults: 1})

	items := acc.Items()
	items[0].ID = "changed"

	assert.Equal(t, []string{"a"}, ids(acc.Items()))
}
