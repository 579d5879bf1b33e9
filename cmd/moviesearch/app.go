package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"moviesearch/errs"
	"moviesearch/movie"
	"moviesearch/search"
	"moviesearch/userlist"

	"go.uber.org/zap"
)

const helpText = `Type to search (results follow once you stop typing), or:
  /search [term]   search right away, for what was typed when no term is given
  /more            load the next page
  /retry           retry the last failed page
  /suggest <text>  show suggestions
  /pick <n>        open suggestion n and remember it as a recent search
  /detail <n|id>   show the details of result n or an IMDb id
  /fav [n|id]      toggle the favorite for result n, an IMDb id or the movie shown last
  /unfav <id>      remove a favorite
  /favs            list favorites
  /recent [n]      list recent searches, or search recent search n again
  /clear           clear recent searches
  /quit            exit`

var errQuit = errors.New("quit")

type appOptions struct {
	Debounce time.Duration
	Logger   *zap.SugaredLogger
}

type app struct {
	movies  movie.Service
	lists   userlist.Service
	session *search.Session

	mu    sync.Mutex
	out   io.Writer
	last  string
	shown *movie.Summary
}

func newApp(movies movie.Service, lists userlist.Service, out io.Writer, opts appOptions) *app {
	a := &app{movies: movies, lists: lists, out: out}
	a.session = search.NewSession(movies, search.Options{
		Debounce: opts.Debounce,
		History:  lists,
		Logger:   opts.Logger,
		OnChange: a.render,
	})
	return a
}

func (a *app) Close() {
	a.session.Close()
}

// Run starts the first search and reads commands from in until it is
// exhausted or /quit is entered.
func (a *app) Run(ctx context.Context, in io.Reader, term string) error {
	term = a.session.Start(term)
	a.printf("Searching for %q. Type /help for commands.\n", term)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := a.handle(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			a.printf("%s\n", errs.ErrorMessage(err))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (a *app) handle(ctx context.Context, line string) error {
	if !strings.HasPrefix(line, "/") {
		a.session.Type(line)
		return nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/search":
		if arg == "" {
			return a.session.SubmitInput()
		}
		return a.session.Submit(arg)
	case "/more":
		if !a.session.LoadMore() {
			a.printf("No more results to load.\n")
		}
	case "/retry":
		if !a.session.Retry() {
			a.printf("Nothing to retry.\n")
		}
	case "/suggest":
		a.session.Suggest(arg)
	case "/pick":
		return a.pick(ctx, arg)
	case "/detail":
		return a.detail(ctx, arg)
	case "/fav":
		m, err := a.favoriteTarget(ctx, arg)
		if err != nil {
			return err
		}
		return a.toggleFavorite(ctx, m)
	case "/unfav":
		if arg == "" {
			return movie.ErrEmptyID
		}
		if err := a.lists.RemoveFavorite(ctx, arg); err != nil {
			return err
		}
		a.printf("Removed %s from favorites.\n", arg)
		a.render(a.session.Snapshot())
	case "/favs":
		favs, err := a.lists.Favorites(ctx)
		if err != nil {
			return err
		}
		if len(favs) == 0 {
			a.printf("No favorites yet.\n")
			return nil
		}
		a.printMovies("Favorites", favs)
	case "/recent":
		terms, err := a.lists.RecentSearches(ctx)
		if err != nil {
			return err
		}
		if arg != "" {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 || n > len(terms) {
				return errs.Errorf(errs.EINVALID, "No recent search %q", arg)
			}
			return a.session.Submit(terms[n-1])
		}
		if len(terms) == 0 {
			a.printf("No recent searches.\n")
			return nil
		}
		a.printf("Recent searches:\n%s", numbered(terms))
	case "/clear":
		if err := a.lists.ClearRecentSearches(ctx); err != nil {
			return err
		}
		a.printf("Recent searches cleared.\n")
	case "/help":
		a.printf("%s\n", helpText)
	case "/quit", "/exit":
		return errQuit
	default:
		a.printf("Unknown command %s. Type /help for commands.\n", cmd)
	}
	return nil
}

// result resolves a 1-based index into the current results.
func (a *app) result(arg string) (movie.Summary, error) {
	n, err := strconv.Atoi(arg)
	movies := a.session.Snapshot().Movies
	if err != nil || n < 1 || n > len(movies) {
		return movie.Summary{}, errs.Errorf(errs.EINVALID, "No result %q", arg)
	}
	return movies[n-1], nil
}

// pick opens a suggestion the way selecting it from the dropdown does: its
// title becomes a recent search and its details are shown.
func (a *app) pick(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)
	suggestions := a.session.Snapshot().Suggestions
	if err != nil || n < 1 || n > len(suggestions) {
		return errs.Errorf(errs.EINVALID, "No suggestion %q", arg)
	}
	m := suggestions[n-1]

	if err := a.lists.AddRecentSearch(ctx, m.Title); err != nil {
		return err
	}
	return a.detail(ctx, m.ID)
}

// favoriteTarget resolves /fav's argument: a result number, an IMDb id, or
// nothing for the movie whose details were shown last.
func (a *app) favoriteTarget(ctx context.Context, arg string) (movie.Summary, error) {
	if arg == "" {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.shown == nil {
			return movie.Summary{}, errs.Errorf(errs.EINVALID, "No movie shown yet")
		}
		return *a.shown, nil
	}
	if m, err := a.result(arg); err == nil {
		return m, nil
	}
	if _, err := strconv.Atoi(arg); err == nil {
		return movie.Summary{}, errs.Errorf(errs.EINVALID, "No result %q", arg)
	}

	for _, m := range a.session.Snapshot().Movies {
		if m.ID == arg {
			return m, nil
		}
	}
	favs, err := a.lists.Favorites(ctx)
	if err != nil {
		return movie.Summary{}, err
	}
	for _, m := range favs {
		if m.ID == arg {
			return m, nil
		}
	}
	d, err := a.movies.Detail(ctx, arg)
	if err != nil {
		return movie.Summary{}, err
	}
	return d.Summary, nil
}

func (a *app) toggleFavorite(ctx context.Context, m movie.Summary) error {
	fav, err := a.lists.IsFavorite(ctx, m.ID)
	if err != nil {
		return err
	}
	if fav {
		if err := a.lists.RemoveFavorite(ctx, m.ID); err != nil {
			return err
		}
		a.printf("Removed %s from favorites.\n", m.Title)
	} else {
		if err := a.lists.AddFavorite(ctx, m); err != nil {
			return err
		}
		a.printf("Saved %s to favorites.\n", m.Title)
	}
	a.render(a.session.Snapshot())
	return nil
}

func (a *app) detail(ctx context.Context, arg string) error {
	id := arg
	if m, err := a.result(arg); err == nil {
		id = m.ID
	}

	d, err := a.movies.Detail(ctx, id)
	if err != nil {
		return err
	}
	fav, _ := a.lists.IsFavorite(ctx, d.ID)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.shown = &d.Summary
	star := ""
	if fav {
		star = " *"
	}
	fmt.Fprintf(a.out, "%s (%s)%s\n", d.Title, d.Year, star)
	for _, f := range [][2]string{
		{"Rated", d.Rated}, {"Runtime", d.Runtime}, {"Genre", d.Genre},
		{"Director", d.Director}, {"Actors", d.Actors}, {"Plot", d.Plot},
		{"IMDb", d.IMDbRating},
	} {
		if movie.Available(f[1]) {
			fmt.Fprintf(a.out, "  %-9s %s\n", f[0]+":", f[1])
		}
	}
	for _, r := range d.Ratings {
		fmt.Fprintf(a.out, "  %s: %s\n", r.Source, r.Value)
	}
	return nil
}

// render prints a view unless it shows nothing new. Favorites are marked
// with a star.
func (a *app) render(v search.View) {
	favs := a.favoriteIDs()
	var b strings.Builder
	switch {
	case v.Loading:
		fmt.Fprintf(&b, "Searching for %q...\n", v.Term)
	case v.Err != nil && len(v.Movies) == 0:
		fmt.Fprintf(&b, "%s\n", errs.ErrorMessage(v.Err))
	default:
		fmt.Fprintf(&b, "Results for %q: %d of %d\n", v.Term, len(v.Movies), v.TotalResults)
		for i, m := range v.Movies {
			star := ""
			if favs[m.ID] {
				star = " *"
			}
			fmt.Fprintf(&b, "%3d. %s (%s) %s%s\n", i+1, m.Title, m.Year, m.ID, star)
		}
		switch {
		case v.LoadingMore:
			b.WriteString("Loading more...\n")
		case v.Err != nil:
			fmt.Fprintf(&b, "%s Type /retry to try again.\n", errs.ErrorMessage(v.Err))
		case v.HasMore:
			b.WriteString("Type /more for the next page.\n")
		}
	}
	if len(v.Suggestions) > 0 {
		titles := make([]string, len(v.Suggestions))
		for i, m := range v.Suggestions {
			titles[i] = strconv.Itoa(i+1) + ". " + m.Title
		}
		fmt.Fprintf(&b, "Suggestions: %s\n", strings.Join(titles, " | "))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if out := b.String(); out != a.last {
		a.last = out
		io.WriteString(a.out, out)
	}
}

// favoriteIDs is empty when the favorites cannot be read; the store has
// already logged why.
func (a *app) favoriteIDs() map[string]bool {
	favs, _ := a.lists.Favorites(context.Background())
	ids := make(map[string]bool, len(favs))
	for _, m := range favs {
		ids[m.ID] = true
	}
	return ids
}

func numbered(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, item)
	}
	return b.String()
}

func (a *app) printMovies(title string, movies []movie.Summary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, "%s:\n", title)
	for _, m := range movies {
		fmt.Fprintf(a.out, "  %s (%s) %s\n", m.Title, m.Year, m.ID)
	}
}

func (a *app) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
