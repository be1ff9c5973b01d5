package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned without contacting TMDB while the circuit
// breaker is open after repeated failures.
var ErrUnavailable = errors.New("tmdb temporarily unavailable")

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// Movie is a single entry from a TMDB movie list.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
}

// Page models a TMDB paginated movie response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is a TMDB genre table entry.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

// Lister defines the TMDB operations used by the catalog fetcher.
type Lister interface {
	MovieList(ctx context.Context, category string, page int) (*Page, error)
	DiscoverByGenre(ctx context.Context, genreID, page int) (*Page, error)
	Genres(ctx context.Context) ([]Genre, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey      string
	accessToken string
	baseURL     string
	language    string
	httpClient  *http.Client
	limiter     *rate.Limiter

	failureThreshold uint32
	cooldown         time.Duration
	breaker          *gobreaker.CircuitBreaker[struct{}]
}

var _ Lister = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAccessToken authenticates with a v4 read access token sent as a bearer
// header instead of the api_key query parameter.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = strings.TrimSpace(token)
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithRateLimit caps outgoing requests at perSecond with the given burst.
// A non-positive rate disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithCircuitBreaker opens the breaker after threshold consecutive failures
// and keeps it open for cooldown.
func WithCircuitBreaker(threshold uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		if threshold > 0 {
			c.failureThreshold = threshold
		}
		if cooldown > 0 {
			c.cooldown = cooldown
		}
	}
}

// New creates a TMDB client. Either apiKey or an access token option is
// required.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},

		failureThreshold: defaultFailureThreshold,
		cooldown:         defaultCooldown,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.apiKey == "" && client.accessToken == "" {
		return nil, errors.New("tmdb api key or access token required")
	}
	client.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "tmdb",
		Timeout: client.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= client.failureThreshold
		},
		IsSuccessful: func(err error) bool {
			var status *StatusError
			switch {
			case err == nil:
				return true
			case errors.Is(err, context.Canceled):
				return true
			case errors.As(err, &status):
				return status.Code < http.StatusInternalServerError && status.Code != http.StatusTooManyRequests
			default:
				return false
			}
		},
	})
	return client, nil
}

// BreakerState reports the circuit breaker state: closed, half-open, or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// StatusError is a non-200 TMDB response.
type StatusError struct {
	Path    string
	Code    int
	Latency time.Duration
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d (latency=%v): %s", e.Path, e.Code, e.Latency, e.Body)
}

// MovieList returns one page of a movie category such as popular or top_rated.
func (c *Client) MovieList(ctx context.Context, category string, page int) (*Page, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errors.New("category must not be empty")
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(page, 1)))
	var payload Page
	if err := c.get(ctx, "/movie/"+url.PathEscape(category), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DiscoverByGenre returns one page of movies tagged with genreID, most
// popular first.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID, page int) (*Page, error) {
	if genreID <= 0 {
		return nil, fmt.Errorf("invalid genre id %d", genreID)
	}
	params := url.Values{}
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(max(page, 1)))
	var payload Page
	if err := c.get(ctx, "/discover/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Genres returns the TMDB movie genre table.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var payload genreList
	if err := c.get(ctx, "/genre/movie/list", url.Values{}, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limit: %w", err)
		}
	}
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.do(ctx, path, params, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if c.accessToken == "" {
		params.Set("api_key", c.apiKey)
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Code: resp.StatusCode, Latency: latency, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
