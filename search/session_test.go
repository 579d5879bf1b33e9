package search_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"moviesearch/errs"
	"moviesearch/movie"
	"moviesearch/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu          sync.Mutex
	pages       map[string]movie.SearchPage
	failures    map[string]error
	holds       map[string]chan struct{}
	suggestions map[string][]movie.Summary
	calls       []string
	suggested   []string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		pages:       make(map[string]movie.SearchPage),
		failures:    make(map[string]error),
		holds:       make(map[string]chan struct{}),
		suggestions: make(map[string][]movie.Summary),
	}
}

func key(term string, page int) string {
	return fmt.Sprintf("%s|%d", term, page)
}

func (f *fakeSearcher) page(term string, page int, total int, list ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[key(term, page)] = movie.SearchPage{Term: term, Page: page, Movies: movies(list...), TotalResults: total}
}

func (f *fakeSearcher) fail(term string, page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key(term, page)] = err
}

func (f *fakeSearcher) hold(term string, page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.holds[key(term, page)] = ch
	return ch
}

func (f *fakeSearcher) Search(ctx context.Context, term string, page int) (movie.SearchPage, error) {
	k := key(term, page)
	f.mu.Lock()
	f.calls = append(f.calls, k)
	hold := f.holds[k]
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return movie.SearchPage{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[k]; err != nil {
		return movie.SearchPage{}, err
	}
	return f.pages[k], nil
}

func (f *fakeSearcher) Suggestions(_ context.Context, term string) ([]movie.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggested = append(f.suggested, term)
	return f.suggestions[term], nil
}

func (f *fakeSearcher) searchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSearcher) suggestCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.suggested...)
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) AddRecentSearch(ctx context.Context, term string) error {
	return m.Called(ctx, term).Error(0)
}

func idle(s *search.Session) func() bool {
	return func() bool {
		v := s.Snapshot()
		return !v.Loading && !v.LoadingMore
	}
}

const wait = time.Second
const tick = 5 * time.Millisecond

func TestSession_StartSearchesAPopularTermWhenBlank(t *testing.T) {
	f := newFakeSearcher()
	f.page("Batman", 1, 1, "tt0372784")
	s := search.NewSession(f, search.Options{Popular: func() string { return "Batman" }})
	defer s.Close()

	term := s.Start("  ")

	assert.Equal(t, "Batman", term)
	require.Eventually(t, idle(s), wait, tick)
	v := s.Snapshot()
	assert.Equal(t, "Batman", v.Term)
	assert.Equal(t, []string{"tt0372784"}, ids(v.Movies))
	assert.False(t, v.HasMore)
}

func TestSession_LoadMoreAccumulatesPages(t *testing.T) {
	f := newFakeSearcher()
	f.page("batman", 1, 3, "a", "b")
	f.page("batman", 2, 3, "b", "c")
	s := search.NewSession(f, search.Options{})
	defer s.Close()

	s.Start("batman")
	require.Eventually(t, idle(s), wait, tick)
	assert.True(t, s.Snapshot().HasMore)

	require.True(t, s.LoadMore())
	require.Eventually(t, idle(s), wait, tick)

	v := s.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, ids(v.Movies))
	assert.Equal(t, 2, v.Page)
	assert.False(t, v.HasMore)
	assert.False(t, s.LoadMore())
}

func TestSession_NewTermDiscardsTheInFlightPage(t *testing.T) {
	f := newFakeSearcher()
	f.page("batman", 1, 20, "a", "b")
	f.page("batman", 2, 20, "c", "d")
	f.page("superman", 1, 1, "s")
	release := f.hold("batman", 2)
	s := search.NewSession(f, search.Options{})
	defer s.Close()

	s.Start("batman")
	require.Eventually(t, idle(s), wait, tick)
	require.True(t, s.LoadMore())
	assert.True(t, s.Snapshot().LoadingMore)

	require.NoError(t, s.Submit("superman"))
	require.Eventually(t, idle(s), wait, tick)
	close(release)

	assert.Eventually(t, func() bool {
		return len(f.searchCalls()) == 3
	}, wait, tick)
	time.Sleep(20 * time.Millisecond)

	v := s.Snapshot()
	assert.Equal(t, "superman", v.Term)
	assert.Equal(t, []string{"s"}, ids(v.Movies))
	assert.Equal(t, 1, v.Page)
}

func TestSession_RetryAfterFailure(t *testing.T) {
	f := newFakeSearcher()
	unavailable := errs.Errorf(errs.EUNAVAILABLE, "Failed to fetch movies")
	f.fail("batman", 1, unavailable)
	s := search.NewSession(f, search.Options{})
	defer s.Close()

	s.Start("batman")
	require.Eventually(t, idle(s), wait, tick)
	assert.Equal(t, unavailable, s.Snapshot().Err)
	assert.False(t, s.LoadMore())

	f.fail("batman", 1, nil)
	f.page("batman", 1, 1, "a")
	require.True(t, s.Retry())
	require.Eventually(t, idle(s), wait, tick)

	v := s.Snapshot()
	assert.NoError(t, v.Err)
	assert.Equal(t, []string{"a"}, ids(v.Movies))
	assert.False(t, s.Retry(), "nothing left to retry")
}

func TestSession_TypedInputIsDebounced(t *testing.T) {
	f := newFakeSearcher()
	f.page("bat", 1, 1, "a")
	f.suggestions["bat"] = movies("a")
	s := search.NewSession(f, search.Options{Debounce: 30 * time.Millisecond})
	defer s.Close()

	for _, raw := range []string{"b", "ba", "bat"} {
		s.Type(raw)
	}
	assert.Equal(t, "bat", s.Snapshot().Input)

	require.Eventually(t, func() bool {
		v := s.Snapshot()
		return v.Term == "bat" && !v.Loading && len(v.Suggestions) == 1
	}, wait, tick)
	assert.Equal(t, []string{"bat|1"}, f.searchCalls())
	assert.Equal(t, []string{"bat"}, f.suggestCalls())
}

func TestSession_Submit(t *testing.T) {
	t.Run("records the trimmed term and skips the debounce", func(t *testing.T) {
		f := newFakeSearcher()
		f.page("batman", 1, 1, "a")
		history := new(MockHistory)
		history.On("AddRecentSearch", mock.Anything, "batman").Return(nil).Once()
		s := search.NewSession(f, search.Options{Debounce: time.Hour, History: history})
		defer s.Close()

		s.Type("batm")
		require.NoError(t, s.Submit("  batman "))
		require.Eventually(t, idle(s), wait, tick)

		assert.Equal(t, "batman", s.Snapshot().Term)
		assert.Empty(t, s.Snapshot().Suggestions)
		assert.Equal(t, []string{"batman|1"}, f.searchCalls())
		history.AssertExpectations(t)
	})

	t.Run("blank input is rejected", func(t *testing.T) {
		f := newFakeSearcher()
		history := new(MockHistory)
		s := search.NewSession(f, search.Options{History: history})
		defer s.Close()

		err := s.Submit("   ")

		assert.Equal(t, movie.ErrEmptyTerm, err)
		assert.Empty(t, f.searchCalls())
		history.AssertNotCalled(t, "AddRecentSearch")
	})

	t.Run("resubmitting the current term does not refetch", func(t *testing.T) {
		f := newFakeSearcher()
		f.page("batman", 1, 1, "a")
		s := search.NewSession(f, search.Options{})
		defer s.Close()

		require.NoError(t, s.Submit("batman"))
		require.Eventually(t, idle(s), wait, tick)
		require.NoError(t, s.Submit("batman"))

		assert.Equal(t, []string{"batman|1"}, f.searchCalls())
	})
}

func TestSession_SubmitInput(t *testing.T) {
	t.Run("commits typed input without waiting", func(t *testing.T) {
		f := newFakeSearcher()
		f.page("joker", 1, 1, "a")
		history := new(MockHistory)
		history.On("AddRecentSearch", mock.Anything, "joker").Return(nil).Once()
		s := search.NewSession(f, search.Options{Debounce: time.Hour, History: history})
		defer s.Close()

		s.Type("jok")
		s.Type(" joker")
		require.NoError(t, s.SubmitInput())
		require.Eventually(t, idle(s), wait, tick)

		v := s.Snapshot()
		assert.Equal(t, "joker", v.Term)
		assert.Empty(t, v.Suggestions)
		assert.Equal(t, []string{"joker|1"}, f.searchCalls())
		history.AssertExpectations(t)
	})

	t.Run("settled input is recorded without a refetch", func(t *testing.T) {
		f := newFakeSearcher()
		f.page("batman", 1, 1, "a")
		history := new(MockHistory)
		history.On("AddRecentSearch", mock.Anything, "batman").Return(nil).Once()
		s := search.NewSession(f, search.Options{History: history})
		defer s.Close()

		s.Start("batman")
		require.Eventually(t, idle(s), wait, tick)
		require.NoError(t, s.SubmitInput())

		assert.Equal(t, []string{"batman|1"}, f.searchCalls())
		history.AssertExpectations(t)
	})

	t.Run("nothing typed", func(t *testing.T) {
		f := newFakeSearcher()
		history := new(MockHistory)
		s := search.NewSession(f, search.Options{Debounce: time.Hour, History: history})
		defer s.Close()

		s.Type("   ")
		err := s.SubmitInput()

		assert.Equal(t, movie.ErrEmptyTerm, err)
		assert.Empty(t, f.searchCalls())
		history.AssertNotCalled(t, "AddRecentSearch")
	})
}

func TestSession_OnChangeSeesEveryTransition(t *testing.T) {
	f := newFakeSearcher()
	f.page("batman", 1, 1, "a")
	var (
		mu    sync.Mutex
		views []search.View
	)
	s := search.NewSession(f, search.Options{OnChange: func(v search.View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, v)
	}})
	defer s.Close()

	s.Start("batman")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(views) == 2
	}, wait, tick)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, views[0].Loading)
	assert.Empty(t, views[0].Movies)
	assert.False(t, views[1].Loading)
	assert.Equal(t, []string{"a"}, ids(views[1].Movies))
}

func TestSession_CloseCancelsInFlightFetches(t *testing.T) {
	f := newFakeSearcher()
	f.hold("batman", 1)
	s := search.NewSession(f, search.Options{})

	s.Start("batman")
	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(wait):
		t.Fatal("close did not return")
	}
	assert.True(t, s.Snapshot().Loading, "the cancelled answer is never applied")
}
