package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"genreclf/internal/catalog/tmdb"
)

func TestMovieListUsesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/popular" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" || q.Get("page") != "2" || q.Get("language") != "en-US" {
			t.Fatalf("unexpected query %v", q)
		}
		if r.Header.Get("Authorization") != "" {
			t.Fatal("did not expect bearer header with api key auth")
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":5,"results":[{"id":7,"title":"Heat","overview":"Cops and robbers.","genre_ids":[28,80],"original_language":"en","vote_count":12}]}`))
	}))
	defer srv.Close()

	client, err := tmdb.New("key", srv.URL, "en-US", tmdb.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	page, err := client.MovieList(context.Background(), "popular", 2)
	if err != nil {
		t.Fatalf("MovieList returned error: %v", err)
	}
	if page.TotalPages != 5 || len(page.Results) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	movie := page.Results[0]
	if movie.ID != 7 || len(movie.GenreIDs) != 2 || movie.GenreIDs[1] != 80 || movie.VoteCount != 12 {
		t.Fatalf("unexpected movie: %+v", movie)
	}
}

func TestDiscoverUsesBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Fatalf("expected bearer header, got %q", r.Header.Get("Authorization"))
		}
		q := r.URL.Query()
		if q.Get("api_key") != "" {
			t.Fatal("did not expect api_key with bearer auth")
		}
		if q.Get("with_genres") != "18" || q.Get("sort_by") != "popularity.desc" {
			t.Fatalf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[]}`))
	}))
	defer srv.Close()

	client, err := tmdb.New("", srv.URL, "", tmdb.WithAccessToken("token"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.DiscoverByGenre(context.Background(), 18, 1); err != nil {
		t.Fatalf("DiscoverByGenre returned error: %v", err)
	}
}

func TestGenresAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genre/movie/list":
			_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`))
		default:
			http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	client, err := tmdb.New("key", srv.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	genres, err := client.Genres(context.Background())
	if err != nil {
		t.Fatalf("Genres returned error: %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Action" {
		t.Fatalf("unexpected genres: %+v", genres)
	}

	_, err = client.MovieList(context.Background(), "popular", 1)
	if err == nil || !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Invalid API key") {
		t.Fatalf("expected 401 error with body, got %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := tmdb.New("", "https://api.themoviedb.org/3", ""); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := tmdb.New("key", "", ""); err == nil {
		t.Fatal("expected error without base url")
	}
}

func TestCircuitBreakerOpensAfterServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := tmdb.New("key", srv.URL, "", tmdb.WithCircuitBreaker(2, time.Minute))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := 0; i < 2; i++ {
		_, err := client.MovieList(context.Background(), "popular", 1)
		var status *tmdb.StatusError
		if !errors.As(err, &status) || status.Code != http.StatusBadGateway {
			t.Fatalf("call %d: expected 502 status error, got %v", i, err)
		}
	}
	if client.BreakerState() != "open" {
		t.Fatalf("expected open breaker, got %s", client.BreakerState())
	}
	_, err = client.MovieList(context.Background(), "popular", 1)
	if !errors.Is(err, tmdb.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected open breaker to skip the server, got %d hits", hits.Load())
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := tmdb.New("key", srv.URL, "", tmdb.WithCircuitBreaker(1, time.Minute))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := client.MovieList(context.Background(), "missing", 1); errors.Is(err, tmdb.ErrUnavailable) {
			t.Fatalf("call %d: 404 must not open the breaker", i)
		}
	}
	if client.BreakerState() != "closed" {
		t.Fatalf("expected closed breaker, got %s", client.BreakerState())
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"genres":[]}`))
	}))
	defer srv.Close()

	client, err := tmdb.New("key", srv.URL, "", tmdb.WithRateLimit(0.001, 1))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Genres(context.Background()); err != nil {
		t.Fatalf("first call should use the burst token: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Genres(ctx); err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("expected rate limit wait to fail on deadline, got %v", err)
	}
}
