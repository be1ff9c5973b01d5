package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"genreclf/internal/catalog/tmdb"
	"genreclf/internal/config"
	"genreclf/internal/dataset"
	"genreclf/internal/genres"
	"genreclf/internal/language"
	"genreclf/internal/logging"
	"genreclf/internal/services"
)

// Options controls what the fetcher requests.
type Options struct {
	Mode          string
	Categories    []string
	Pages         int
	MaxPages      int
	PerGenreLimit int
	// Language filters rows on original_language. Empty keeps every language.
	Language string
}

// OptionsFromConfig maps the tmdb config section onto fetch options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:          cfg.TMDB.Mode,
		Categories:    append([]string(nil), cfg.TMDB.Categories...),
		Pages:         cfg.TMDB.Pages,
		MaxPages:      cfg.TMDB.MaxPages,
		PerGenreLimit: cfg.TMDB.PerGenreLimit,
		Language:      cfg.TMDB.OriginalLanguage,
	}
}

// Stats summarizes one fetch.
type Stats struct {
	Requests   int
	Fetched    int
	Duplicates int
	Filtered   int
	Kept       int
	Duration   time.Duration
}

// Fetcher pulls movie records from TMDB.
type Fetcher struct {
	client  tmdb.Lister
	catalog genres.Catalog
	opts    Options
	logger  *slog.Logger
}

// NewFetcher constructs a fetcher.
func NewFetcher(client tmdb.Lister, catalog genres.Catalog, opts Options, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:  client,
		catalog: catalog,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "catalog"),
	}
}

// NewClient builds a TMDB client from configuration.
func NewClient(cfg *config.Config) (*tmdb.Client, error) {
	if err := cfg.ValidateFetch(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "credentials", "", err)
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithAccessToken(cfg.TMDB.AccessToken),
		tmdb.WithTimeout(time.Duration(cfg.TMDB.RequestTimeout)*time.Second),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond, int(math.Ceil(cfg.TMDB.RequestsPerSecond))),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "tmdb client", "", err)
	}
	return client, nil
}

// Fetch collects, deduplicates, and filters records.
func (f *Fetcher) Fetch(ctx context.Context) ([]dataset.MovieRecord, Stats, error) {
	ctx = services.WithStage(ctx, "fetch")
	logger := logging.WithContext(ctx, f.logger)
	start := time.Now()

	var (
		raw   []dataset.MovieRecord
		stats Stats
		err   error
	)
	switch f.opts.Mode {
	case config.FetchModeGenres:
		raw, stats.Requests, err = f.fetchGenres(ctx, logger)
	case config.FetchModeCategories, "":
		raw, stats.Requests, err = f.fetchCategories(ctx, logger)
	default:
		return nil, Stats{}, services.Wrap(services.ErrConfiguration, "fetch", "mode", f.opts.Mode, nil)
	}
	if err != nil {
		return nil, Stats{}, err
	}

	stats.Fetched = len(raw)
	deduped := Dedupe(raw)
	stats.Duplicates = len(raw) - len(deduped)
	kept := Filter(deduped, f.opts.Language)
	stats.Filtered = len(deduped) - len(kept)
	stats.Kept = len(kept)
	stats.Duration = time.Since(start)

	logger.Info("catalog fetched",
		logging.String("mode", f.opts.Mode),
		logging.Int("requests", stats.Requests),
		logging.Int("fetched", stats.Fetched),
		logging.Int("duplicates", stats.Duplicates),
		logging.Int("filtered", stats.Filtered),
		logging.Int("kept", stats.Kept),
		logging.Duration("duration", stats.Duration),
	)
	return kept, stats, nil
}

// FetchToFile fetches and writes the dataset to path.
func (f *Fetcher) FetchToFile(ctx context.Context, path string) (Stats, error) {
	records, stats, err := f.Fetch(ctx)
	if err != nil {
		return stats, err
	}
	if len(records) == 0 {
		return stats, services.Wrap(services.ErrDataFormat, "fetch", "filter", "no records survived filtering", nil)
	}
	if err := dataset.Write(path, records); err != nil {
		return stats, err
	}
	return stats, nil
}

func (f *Fetcher) fetchCategories(ctx context.Context, logger *slog.Logger) ([]dataset.MovieRecord, int, error) {
	var (
		records  []dataset.MovieRecord
		requests int
	)
	for _, category := range f.opts.Categories {
		for page := 1; page <= max(f.opts.Pages, 1); page++ {
			resp, err := f.client.MovieList(ctx, category, page)
			requests++
			if err != nil {
				return nil, requests, services.Wrap(services.ErrExternal, "fetch", "movie list", fmt.Sprintf("%s page %d", category, page), err)
			}
			for _, movie := range resp.Results {
				records = append(records, toRecord(movie, ""))
			}
			logger.Debug("page fetched",
				logging.String("category", category),
				logging.Int("page", page),
				logging.Int("results", len(resp.Results)),
			)
			if resp.TotalPages > 0 && page >= resp.TotalPages {
				break
			}
		}
	}
	return records, requests, nil
}

func (f *Fetcher) fetchGenres(ctx context.Context, logger *slog.Logger) ([]dataset.MovieRecord, int, error) {
	var (
		records  []dataset.MovieRecord
		requests int
	)
	limit := f.opts.PerGenreLimit
	for _, id := range f.catalog.IDs() {
		name, _ := f.catalog.CanonicalName(id)
		collected := 0
		for page := 1; page <= max(f.opts.MaxPages, 1) && (limit <= 0 || collected < limit); page++ {
			resp, err := f.client.DiscoverByGenre(ctx, id, page)
			requests++
			if err != nil {
				return nil, requests, services.Wrap(services.ErrExternal, "fetch", "discover", fmt.Sprintf("%s page %d", name, page), err)
			}
			for _, movie := range resp.Results {
				if limit > 0 && collected >= limit {
					break
				}
				records = append(records, toRecord(movie, name))
				collected++
			}
			if len(resp.Results) == 0 || (resp.TotalPages > 0 && page >= resp.TotalPages) {
				break
			}
		}
		logger.Debug("genre fetched", logging.String("genre", name), logging.Int("rows", collected))
	}
	return records, requests, nil
}

func toRecord(movie tmdb.Movie, sourceGenre string) dataset.MovieRecord {
	return dataset.MovieRecord{
		ID:          movie.ID,
		Title:       movie.Title,
		Overview:    movie.Overview,
		GenreIDs:    append([]int(nil), movie.GenreIDs...),
		Language:    movie.OriginalLanguage,
		ReleaseDate: movie.ReleaseDate,
		VoteAverage: movie.VoteAverage,
		VoteCount:   movie.VoteCount,
		Popularity:  movie.Popularity,
		SourceGenre: sourceGenre,
	}
}

// Dedupe drops records whose id was already seen, keeping the first.
func Dedupe(records []dataset.MovieRecord) []dataset.MovieRecord {
	seen := make(map[int64]struct{}, len(records))
	out := make([]dataset.MovieRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// Filter keeps records with a non-empty overview in language. An empty
// language keeps every language.
func Filter(records []dataset.MovieRecord, want string) []dataset.MovieRecord {
	out := make([]dataset.MovieRecord, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Overview) == "" {
			continue
		}
		if want != "" && !language.Equal(rec.Language, want) {
			continue
		}
		out = append(out, rec)
	}
	return out
}
