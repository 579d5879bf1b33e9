package search

import (
	"context"
	"sync"
	"time"

	"moviesearch/debounce"
	"moviesearch/movie"
	"moviesearch/pkg/logger"

	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

// Searcher is what a session needs from the movie usecase.
type Searcher interface {
	Search(ctx context.Context, term string, page int) (movie.SearchPage, error)
	Suggestions(ctx context.Context, term string) ([]movie.Summary, error)
}

// History records submitted terms.
type History interface {
	AddRecentSearch(ctx context.Context, term string) error
}

type Options struct {
	Debounce time.Duration
	History  History
	Logger   *zap.SugaredLogger
	// OnChange receives a snapshot after every state change. It may be
	// called from several goroutines.
	OnChange func(View)
	// Popular picks the term searched by Start when none is given.
	Popular func() string
}

// View is an immutable snapshot of a session.
type View struct {
	Input        string
	Term         string
	Page         int
	Movies       []movie.Summary
	TotalResults int
	HasMore      bool
	// Loading is set while the first page is in flight, LoadingMore while a
	// later one is.
	Loading     bool
	LoadingMore bool
	Err         error
	Suggestions []movie.Summary
}

// Session is one user's search screen: typed input goes through a debouncer,
// committed terms are fetched page by page into an Accumulator, and answers
// for terms or pages the user has moved away from are dropped.
type Session struct {
	searcher Searcher
	opts     Options
	input    *debounce.Debouncer[string]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	acc         *Accumulator
	raw         string
	suggestions []movie.Summary
	suggestGen  uint64
	closed      bool
}

func NewSession(searcher Searcher, opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logger.NOOPLogger
	}
	if opts.Popular == nil {
		opts.Popular = RandomPopular
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		searcher: searcher,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		acc:      NewAccumulator(),
	}
	s.input = debounce.New("", opts.Debounce, s.settle)
	return s
}

// Start runs the first search for term, or for a popular term when term is
// blank, and returns the term searched.
func (s *Session) Start(term string) string {
	term = movie.NormalizeTerm(term)
	if term == "" {
		term = s.opts.Popular()
	}
	s.input.Set(term)

	s.mu.Lock()
	s.raw = term
	s.mu.Unlock()

	s.commit(term)
	return term
}

// Type feeds raw keyboard input. Once it settles for the debounce delay it
// refreshes the suggestions and becomes the committed search term.
func (s *Session) Type(raw string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.raw = raw
	s.mu.Unlock()

	s.input.Push(raw)
	s.notify()
}

// Submit commits raw immediately, clears the suggestions and records the term
// in the history.
func (s *Session) Submit(raw string) error {
	term := movie.NormalizeTerm(raw)
	if term == "" {
		return movie.ErrEmptyTerm
	}
	s.input.Set(raw)

	s.mu.Lock()
	s.raw = raw
	s.suggestGen++
	s.suggestions = nil
	s.mu.Unlock()

	s.record(term)

	if !s.commit(term) {
		s.notify()
	}
	return nil
}

// SubmitInput submits what has been typed so far, committing it now when it
// is still waiting out the debounce delay.
func (s *Session) SubmitInput() error {
	if s.input.Pending() {
		s.input.Flush()
	}
	term := movie.NormalizeTerm(s.input.Committed())
	if term == "" {
		return movie.ErrEmptyTerm
	}

	s.mu.Lock()
	s.suggestGen++
	s.suggestions = nil
	s.mu.Unlock()

	s.record(term)
	s.notify()
	return nil
}

func (s *Session) record(term string) {
	if s.opts.History == nil {
		return
	}
	if err := s.opts.History.AddRecentSearch(s.ctx, term); err != nil {
		s.opts.Logger.Warnw("record recent search", "term", term, "error", err)
	}
}

// LoadMore fetches the next page. It reports false when there is nothing more
// to load or a fetch is already in flight.
func (s *Session) LoadMore() bool {
	s.mu.Lock()
	page, ok := s.acc.Advance()
	term := s.acc.Term()
	if ok {
		s.wg.Add(1)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.notify()
	go s.fetch(term, page)
	return true
}

// Retry re-issues the last failed fetch.
func (s *Session) Retry() bool {
	s.mu.Lock()
	term, page, ok := s.acc.Retry()
	if ok {
		s.wg.Add(1)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	s.notify()
	go s.fetch(term, page)
	return true
}

// Suggest looks up suggestions for raw right away. Answers for anything but
// the latest request are dropped.
func (s *Session) Suggest(raw string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.suggestGen++
	gen := s.suggestGen
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		list, err := s.searcher.Suggestions(s.ctx, raw)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			s.opts.Logger.Warnw("fetch suggestions", "input", raw, "error", err)
			list = nil
		}

		s.mu.Lock()
		if gen != s.suggestGen {
			s.mu.Unlock()
			return
		}
		s.suggestions = list
		s.mu.Unlock()
		s.notify()
	}()
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	loading := s.acc.Loading()
	suggestions := make([]movie.Summary, len(s.suggestions))
	copy(suggestions, s.suggestions)

	return View{
		Input:        s.raw,
		Term:         s.acc.Term(),
		Page:         s.acc.Page(),
		Movies:       s.acc.Items(),
		TotalResults: s.acc.Total(),
		HasMore:      s.acc.HasMore(),
		Loading:      loading && s.acc.Page() == 1,
		LoadingMore:  loading && s.acc.Page() > 1,
		Err:          s.acc.Err(),
		Suggestions:  suggestions,
	}
}

// Close drops pending input, cancels in-flight fetches and waits for them.
func (s *Session) Close() {
	s.input.Stop()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Session) settle(raw string) {
	s.Suggest(raw)
	if term := movie.NormalizeTerm(raw); term != "" {
		s.commit(term)
	}
}

// commit resets the accumulator to term and fetches its first page. Committing
// the current term again does nothing.
func (s *Session) commit(term string) bool {
	s.mu.Lock()
	if s.closed || term == s.acc.Term() {
		s.mu.Unlock()
		return false
	}
	s.acc.Reset(term)
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify()
	go s.fetch(term, 1)
	return true
}

func (s *Session) fetch(term string, page int) {
	defer s.wg.Done()

	res, err := s.searcher.Search(s.ctx, term, page)
	if s.ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	var applied bool
	if err != nil {
		applied = s.acc.Fail(term, page, err)
	} else {
		applied = s.acc.Apply(term, page, res)
	}
	s.mu.Unlock()

	if !applied {
		s.opts.Logger.Debugw("discard stale results", "term", term, "page", page)
		return
	}
	if err != nil {
		s.opts.Logger.Warnw("search failed", "term", term, "page", page, "error", err)
	}
	s.notify()
}

func (s *Session) notify() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.Snapshot())
	}
}
