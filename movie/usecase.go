package movie

import (
	"context"
	"strconv"
	"strings"
	"time"

	"moviesearch/errs"
	"moviesearch/querycache"
)

const (
	DefaultSearchTTL     = 5 * time.Minute
	DefaultSuggestionTTL = 2 * time.Minute
	DefaultDetailTTL     = 10 * time.Minute

	// MinSuggestionLength is the shortest trimmed input that is worth a
	// suggestion lookup; anything up to and including it is ignored.
	MinSuggestionLength = 2
	MaxSuggestions      = 5
)

type Service interface {
	Search(ctx context.Context, term string, page int) (SearchPage, error)
	Suggestions(ctx context.Context, term string) ([]Summary, error)
	Detail(ctx context.Context, id string) (Detail, error)
}

// Catalog is the remote movie database.
type Catalog interface {
	SearchByTitle(ctx context.Context, term string, page int) (SearchPage, error)
	GetDetail(ctx context.Context, id string) (Detail, error)
}

type CacheOptions struct {
	SearchTTL     time.Duration
	SuggestionTTL time.Duration
	DetailTTL     time.Duration
	// Extra options applied to every namespace, e.g. a shared tier or clock.
	Options []querycache.Option
}

func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		SearchTTL:     DefaultSearchTTL,
		SuggestionTTL: DefaultSuggestionTTL,
		DetailTTL:     DefaultDetailTTL,
	}
}

// Usecase puts the catalog behind three independently expiring caches.
type Usecase struct {
	catalog     Catalog
	searches    *querycache.Cache[SearchPage]
	suggestions *querycache.Cache[SearchPage]
	details     *querycache.Cache[Detail]
}

func NewUsecase(c Catalog, opts CacheOptions) *Usecase {
	// Upstream "no results" answers are as good as data for the window;
	// transport failures are not kept so a retry goes back to the network.
	options := append([]querycache.Option{
		querycache.WithErrorCaching(func(err error) bool {
			return errs.ErrorCode(err) == errs.ENOTFOUND
		}),
	}, opts.Options...)

	return &Usecase{
		catalog:     c,
		searches:    querycache.New[SearchPage]("movies", opts.SearchTTL, options...),
		suggestions: querycache.New[SearchPage]("suggestions", opts.SuggestionTTL, options...),
		details:     querycache.New[Detail]("movie", opts.DetailTTL, options...),
	}
}

func (uc *Usecase) Search(ctx context.Context, term string, page int) (SearchPage, error) {
	term = NormalizeTerm(term)
	if term == "" {
		return SearchPage{}, ErrEmptyTerm
	}
	if page < 1 {
		page = 1
	}

	return uc.searches.Get(ctx, searchKey(term, page), func(ctx context.Context) (SearchPage, error) {
		return uc.catalog.SearchByTitle(ctx, term, page)
	})
}

// Suggestions returns up to MaxSuggestions titles for a partially typed term.
// Short input yields no suggestions and no lookup.
func (uc *Usecase) Suggestions(ctx context.Context, term string) ([]Summary, error) {
	term = NormalizeTerm(term)
	if len([]rune(term)) <= MinSuggestionLength {
		return []Summary{}, nil
	}

	page, err := uc.suggestions.Get(ctx, term, func(ctx context.Context) (SearchPage, error) {
		return uc.catalog.SearchByTitle(ctx, term, 1)
	})
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return []Summary{}, nil
		}
		return nil, err
	}

	n := len(page.Movies)
	if n > MaxSuggestions {
		n = MaxSuggestions
	}
	out := make([]Summary, n)
	copy(out, page.Movies[:n])
	return out, nil
}

func (uc *Usecase) Detail(ctx context.Context, id string) (Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Detail{}, ErrEmptyID
	}

	return uc.details.Get(ctx, id, func(ctx context.Context) (Detail, error) {
		return uc.catalog.GetDetail(ctx, id)
	})
}

// Sweep drops stale entries from every namespace.
func (uc *Usecase) Sweep() int {
	return uc.searches.Sweep() + uc.suggestions.Sweep() + uc.details.Sweep()
}

// Len counts the entries held across every namespace.
func (uc *Usecase) Len() int {
	return uc.searches.Len() + uc.suggestions.Len() + uc.details.Len()
}

func searchKey(term string, page int) string {
	return term + "|" + strconv.Itoa(page)
}
