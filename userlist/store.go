package userlist

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"moviesearch/errs"
	"moviesearch/movie"
	"moviesearch/pkg/logger"

	"go.uber.org/zap"
)

type Options struct {
	// Namespace prefixes every key as "<namespace>:<key>".
	Namespace string
	Logger    *zap.SugaredLogger
}

// Store keeps the recent searches and favorite movies of one user. Both lists
// are read from storage on first use and written back on every change.
type Store struct {
	storage Storage
	prefix  string
	logger  *zap.SugaredLogger

	mu              sync.Mutex
	recent          []string
	recentLoaded    bool
	favorites       []movie.Summary
	favoritesLoaded bool
}

func NewStore(s Storage, opts Options) *Store {
	st := &Store{
		storage: s,
		logger:  opts.Logger,
	}
	if opts.Namespace != "" {
		st.prefix = opts.Namespace + ":"
	}
	if st.logger == nil {
		st.logger = logger.NOOPLogger
	}
	return st
}

// AddRecentSearch moves term to the front of the recent searches. Blank terms
// are ignored.
func (s *Store) AddRecentSearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.loadRecent(ctx)
	if !ok {
		return loadFailed(RecentSearchesKey)
	}
	next := pushRecent(list, term)
	if err := s.save(ctx, RecentSearchesKey, next); err != nil {
		return err
	}
	s.recent = next
	return nil
}

func (s *Store) RecentSearches(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _ := s.loadRecent(ctx)
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// ClearRecentSearches removes the stored key entirely.
func (s *Store) ClearRecentSearches(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key(RecentSearchesKey)); err != nil {
		s.logger.Errorw("clear recent searches", "error", err)
		return errs.Errorf(errs.EINTERNAL, "failed to clear recent searches")
	}
	s.recent = []string{}
	s.recentLoaded = true
	return nil
}

// AddFavorite appends m unless a favorite with the same ID already exists.
func (s *Store) AddFavorite(ctx context.Context, m movie.Summary) error {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return ErrInvalidFavorite
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.loadFavorites(ctx)
	if !ok {
		return loadFailed(FavoritesKey)
	}
	if indexOf(list, m.ID) >= 0 {
		return nil
	}

	next := make([]movie.Summary, 0, len(list)+1)
	next = append(next, list...)
	next = append(next, m)
	if err := s.save(ctx, FavoritesKey, next); err != nil {
		return err
	}
	s.favorites = next
	return nil
}

// RemoveFavorite drops the favorite with the given ID, if any.
func (s *Store) RemoveFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.loadFavorites(ctx)
	if !ok {
		return loadFailed(FavoritesKey)
	}
	i := indexOf(list, id)
	if i < 0 {
		return nil
	}

	next := make([]movie.Summary, 0, len(list)-1)
	next = append(next, list[:i]...)
	next = append(next, list[i+1:]...)
	if err := s.save(ctx, FavoritesKey, next); err != nil {
		return err
	}
	s.favorites = next
	return nil
}

func (s *Store) IsFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _ := s.loadFavorites(ctx)
	return indexOf(list, id) >= 0, nil
}

func (s *Store) Favorites(ctx context.Context) ([]movie.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, _ := s.loadFavorites(ctx)
	out := make([]movie.Summary, len(list))
	copy(out, list)
	return out, nil
}

// loadRecent reports false when storage could not be read. The empty list
// it returns then is not cached, so the next call reads again.
func (s *Store) loadRecent(ctx context.Context) ([]string, bool) {
	if s.recentLoaded {
		return s.recent, true
	}
	list, ok := loadList[string](ctx, s, RecentSearchesKey)
	if ok {
		s.recent = list
		s.recentLoaded = true
	}
	return list, ok
}

func (s *Store) loadFavorites(ctx context.Context) ([]movie.Summary, bool) {
	if s.favoritesLoaded {
		return s.favorites, true
	}
	list, ok := loadList[movie.Summary](ctx, s, FavoritesKey)
	if ok {
		s.favorites = list
		s.favoritesLoaded = true
	}
	return list, ok
}

// loadList returns an empty list when the key is absent or corrupt. A read
// error also yields an empty list but reports false.
func loadList[T any](ctx context.Context, s *Store, name string) ([]T, bool) {
	raw, ok, err := s.storage.Get(ctx, s.key(name))
	if err != nil {
		s.logger.Warnw("load user list", "key", name, "error", err)
		return []T{}, false
	}
	if !ok {
		return []T{}, true
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warnw("discard corrupt user list", "key", name, "error", err)
		return []T{}, true
	}
	if list == nil {
		list = []T{}
	}
	return list, true
}

// loadFailed refuses a mutation whose list could not be read, so the stored
// list is never overwritten from an empty stand-in.
func loadFailed(name string) error {
	return errs.Errorf(errs.EINTERNAL, "failed to load %s", name)
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errs.Errorf(errs.EINTERNAL, "failed to encode %s", name)
	}
	if err := s.storage.Put(ctx, s.key(name), raw); err != nil {
		s.logger.Errorw("save user list", "key", name, "error", err)
		return errs.Errorf(errs.EINTERNAL, "failed to save %s", name)
	}
	return nil
}

func (s *Store) key(name string) string {
	return s.prefix + name
}
