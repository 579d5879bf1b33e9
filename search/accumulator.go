package search

import (
	"moviesearch/movie"
)

// Accumulator merges successive result pages of one committed term into a
// single list, deduplicated by catalog ID and in fetch order. It does no I/O
// and is not safe for concurrent use; Session serialises access to it.
type Accumulator struct {
	term    string
	page    int
	items   []movie.Summary
	ids     map[string]struct{}
	total   int
	loading bool
	err     error
}

func NewAccumulator() *Accumulator {
	return &Accumulator{page: 1, ids: make(map[string]struct{})}
}

// Reset starts over for a newly committed term: page 1, no items, and a first
// page fetch considered in flight.
func (a *Accumulator) Reset(term string) {
	a.term = term
	a.page = 1
	a.items = nil
	a.ids = make(map[string]struct{})
	a.total = 0
	a.err = nil
	a.loading = term != ""
}

// Apply merges a successful fetch issued for (term, page). It returns false
// and changes nothing when the tag no longer matches the current state.
func (a *Accumulator) Apply(term string, page int, res movie.SearchPage) bool {
	if !a.current(term, page) {
		return false
	}

	if page == 1 {
		a.items = nil
		a.ids = make(map[string]struct{})
	}
	for _, m := range res.Movies {
		if _, seen := a.ids[m.ID]; seen {
			continue
		}
		a.ids[m.ID] = struct{}{}
		a.items = append(a.items, m)
	}

	a.total = res.TotalResults
	if a.total > 0 && len(a.items) > a.total {
		for _, m := range a.items[a.total:] {
			delete(a.ids, m.ID)
		}
		a.items = a.items[:a.total]
	}
	a.loading = false
	a.err = nil
	return true
}

// Fail records a failed fetch issued for (term, page). Items are left as they
// were. It returns false when the tag is stale.
func (a *Accumulator) Fail(term string, page int, err error) bool {
	if !a.current(term, page) {
		return false
	}
	a.loading = false
	a.err = err
	return true
}

// Advance moves to the next page when more results remain and nothing is in
// flight. The returned page is the one to fetch.
func (a *Accumulator) Advance() (int, bool) {
	if a.term == "" || a.loading || a.err != nil || !a.HasMore() {
		return 0, false
	}
	a.page++
	a.loading = true
	return a.page, true
}

// Retry re-arms the last failed fetch.
func (a *Accumulator) Retry() (string, int, bool) {
	if a.term == "" || a.loading || a.err == nil {
		return "", 0, false
	}
	a.err = nil
	a.loading = true
	return a.term, a.page, true
}

func (a *Accumulator) HasMore() bool {
	return len(a.items) < a.total
}

func (a *Accumulator) current(term string, page int) bool {
	return a.term != "" && term == a.term && page == a.page
}

func (a *Accumulator) Term() string {
	return a.term
}

func (a *Accumulator) Page() int {
	return a.page
}

// Items returns a copy of the accumulated list.
func (a *Accumulator) Items() []movie.Summary {
	out := make([]movie.Summary, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Accumulator) Total() int {
	return a.total
}

func (a *Accumulator) Loading() bool {
	return a.loading
}

func (a *Accumulator) Err() error {
	return a.err
}
