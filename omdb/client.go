package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"moviesearch/errs"
	"moviesearch/movie"
	"moviesearch/pkg/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://www.omdbapi.com"
	defaultTimeout = 10 * time.Second
	defaultPlot    = "full"

	defaultNotFound = "Movie not found!"
)

var (
	ErrSearchFailed = errs.Errorf(errs.EUNAVAILABLE, "Failed to fetch movies")
	ErrDetailFailed = errs.Errorf(errs.EUNAVAILABLE, "Failed to fetch movie details")
)

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Plot is "short" or "full".
	Plot   string
	Logger *zap.SugaredLogger
}

// Client talks to the OMDb API. It performs a single attempt per call and
// never retries.
type Client struct {
	http   *resty.Client
	apiKey string
	plot   string
	logger *zap.SugaredLogger
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	plot := opts.Plot
	if plot == "" {
		plot = defaultPlot
	}
	log := opts.Logger
	if log == nil {
		log = logger.NOOPLogger
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   rc,
		apiKey: opts.APIKey,
		plot:   plot,
		logger: log,
	}
}

type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

func (e envelope) ok() bool {
	return e.Response == "True"
}

func (e envelope) failure() error {
	msg := strings.TrimSpace(e.Error)
	if msg == "" {
		msg = defaultNotFound
	}
	return errs.Errorf(errs.ENOTFOUND, "%s", msg)
}

type summaryJSON struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

func (s summaryJSON) toSummary() movie.Summary {
	return movie.Summary{
		ID:     s.ImdbID,
		Title:  s.Title,
		Year:   s.Year,
		Type:   movie.MediaType(strings.ToLower(s.Type)),
		Poster: s.Poster,
	}
}

type searchResponse struct {
	envelope
	Search       []summaryJSON `json:"Search"`
	TotalResults string        `json:"totalResults"`
}

type ratingJSON struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

type detailResponse struct {
	envelope
	summaryJSON
	Rated      string       `json:"Rated"`
	Released   string       `json:"Released"`
	Runtime    string       `json:"Runtime"`
	Genre      string       `json:"Genre"`
	Director   string       `json:"Director"`
	Writer     string       `json:"Writer"`
	Actors     string       `json:"Actors"`
	Plot       string       `json:"Plot"`
	Language   string       `json:"Language"`
	Country    string       `json:"Country"`
	Awards     string       `json:"Awards"`
	Ratings    []ratingJSON `json:"Ratings"`
	Metascore  string       `json:"Metascore"`
	IMDbRating string       `json:"imdbRating"`
	IMDbVotes  string       `json:"imdbVotes"`
	DVD        string       `json:"DVD"`
	BoxOffice  string       `json:"BoxOffice"`
	Production string       `json:"Production"`
	Website    string       `json:"Website"`
}

func (d detailResponse) toDetail() movie.Detail {
	ratings := make([]movie.Rating, len(d.Ratings))
	for i, r := range d.Ratings {
		ratings[i] = movie.Rating{Source: r.Source, Value: r.Value}
	}
	return movie.Detail{
		Summary:    d.summaryJSON.toSummary(),
		Rated:      d.Rated,
		Released:   d.Released,
		Runtime:    d.Runtime,
		Genre:      d.Genre,
		Director:   d.Director,
		Writer:     d.Writer,
		Actors:     d.Actors,
		Plot:       d.Plot,
		Language:   d.Language,
		Country:    d.Country,
		Awards:     d.Awards,
		Ratings:    ratings,
		Metascore:  d.Metascore,
		IMDbRating: d.IMDbRating,
		IMDbVotes:  d.IMDbVotes,
		DVD:        d.DVD,
		BoxOffice:  d.BoxOffice,
		Production: d.Production,
		Website:    d.Website,
	}
}

// SearchByTitle fetches one page of title matches. A blank term fails with
// movie.ErrEmptyTerm without touching the network.
func (c *Client) SearchByTitle(ctx context.Context, term string, page int) (movie.SearchPage, error) {
	term = movie.NormalizeTerm(term)
	if term == "" {
		return movie.SearchPage{}, movie.ErrEmptyTerm
	}
	if page < 1 {
		page = 1
	}

	var out searchResponse
	err := c.get(ctx, map[string]string{
		"s":    term,
		"page": strconv.Itoa(page),
	}, &out)
	if err != nil {
		c.logger.Errorw("omdb search failed", "term", term, "page", page, "error", err)
		return movie.SearchPage{}, ErrSearchFailed
	}
	if !out.ok() {
		return movie.SearchPage{}, out.failure()
	}

	movies := make([]movie.Summary, len(out.Search))
	for i, s := range out.Search {
		movies[i] = s.toSummary()
	}

	return movie.SearchPage{
		Term:         term,
		Page:         page,
		Movies:       movies,
		TotalResults: parseTotal(out.TotalResults),
	}, nil
}

// GetDetail fetches the full record for one catalog identifier.
func (c *Client) GetDetail(ctx context.Context, id string) (movie.Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return movie.Detail{}, movie.ErrEmptyID
	}

	var out detailResponse
	err := c.get(ctx, map[string]string{
		"i":    id,
		"plot": c.plot,
	}, &out)
	if err != nil {
		c.logger.Errorw("omdb detail lookup failed", "id", id, "error", err)
		return movie.Detail{}, ErrDetailFailed
	}
	if !out.ok() {
		return movie.Detail{}, out.failure()
	}

	return out.toDetail(), nil
}

// get decodes the body whatever the status so upstream error messages are
// kept; a non-2xx status only counts as a transport failure when the body is
// not a catalog envelope.
func (c *Client) get(ctx context.Context, params map[string]string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("apikey", c.apiKey).
		SetQueryParams(params).
		Get("/")
	if err != nil {
		return fmt.Errorf("omdb: request: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil || env.Response == "" {
		if resp.IsError() {
			return fmt.Errorf("omdb: unexpected status %d", resp.StatusCode())
		}
		if err == nil {
			return fmt.Errorf("omdb: response without Response field")
		}
		return fmt.Errorf("omdb: decode response: %w", err)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("omdb: decode response: %w", err)
	}
	return nil
}

func parseTotal(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
