package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

// ValidateFetch checks the settings only the fetch stage needs, so training
// and publishing work without TMDB credentials.
func (c *Config) ValidateFetch() error {
	if c.TMDB.APIKey == "" && c.TMDB.AccessToken == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/genreclf/config.toml"
		}
		return fmt.Errorf("tmdb.api_key or tmdb.access_token is required. Set TMDB_API_KEY or TMDB_API_ACCESS_TOKEN, or edit %s (create with 'genreclf config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTMDB() error {
	switch c.TMDB.Mode {
	case FetchModeCategories, FetchModeGenres:
	default:
		return fmt.Errorf("tmdb.mode must be %q or %q, got %q", FetchModeCategories, FetchModeGenres, c.TMDB.Mode)
	}
	if c.TMDB.RequestsPerSecond < 0 {
		return fmt.Errorf("tmdb.requests_per_second must not be negative, got %v", c.TMDB.RequestsPerSecond)
	}
	return ensurePositiveMap(map[string]int{
		"tmdb.pages":           c.TMDB.Pages,
		"tmdb.max_pages":       c.TMDB.MaxPages,
		"tmdb.per_genre_limit": c.TMDB.PerGenreLimit,
	})
}

func (c *Config) validateTraining() error {
	t := c.Training
	if t.TestSize <= 0 || t.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %v", t.TestSize)
	}
	if t.MaxFeatures <= 0 {
		return fmt.Errorf("training.max_features must be positive, got %d", t.MaxFeatures)
	}
	if t.MinDF < 1 {
		return fmt.Errorf("training.min_df must be >= 1, got %d", t.MinDF)
	}
	if t.C <= 0 {
		return fmt.Errorf("training.c must be positive, got %v", t.C)
	}
	if t.MaxIter <= 0 {
		return fmt.Errorf("training.max_iter must be positive, got %d", t.MaxIter)
	}
	switch t.Classifier {
	case ClassifierLinearSVC, ClassifierLogistic:
	default:
		return fmt.Errorf("training.classifier must be %q or %q, got %q", ClassifierLinearSVC, ClassifierLogistic, t.Classifier)
	}
	switch t.PredictionPolicy {
	case PolicyThreshold, PolicyDirect:
	default:
		return fmt.Errorf("training.prediction_policy must be %q or %q, got %q", PolicyThreshold, PolicyDirect, t.PredictionPolicy)
	}
	if t.Threshold <= 0 || t.Threshold >= 1 {
		return fmt.Errorf("training.threshold must be in (0, 1), got %v", t.Threshold)
	}
	return nil
}

func (c *Config) validateRegistry() error {
	switch c.Registry.Backend {
	case RegistryBackendFile:
		if strings.TrimSpace(c.Registry.Dir) == "" {
			return errors.New("registry.dir must be set when registry.backend is \"file\"")
		}
	case RegistryBackendHTTP:
		if c.Registry.URL == "" {
			return errors.New("registry.url must be set when registry.backend is \"http\"")
		}
		if !strings.HasPrefix(c.Registry.URL, "http://") && !strings.HasPrefix(c.Registry.URL, "https://") {
			return fmt.Errorf("registry.url must be an http(s) URL, got %q", c.Registry.URL)
		}
	case RegistryBackendSQLite:
		if strings.TrimSpace(c.Registry.SQLitePath) == "" {
			return errors.New("registry.sqlite_path must be set when registry.backend is \"sqlite\"")
		}
	default:
		return fmt.Errorf("registry.backend must be one of file, http, sqlite, got %q", c.Registry.Backend)
	}
	if c.Registry.ModelKey == c.Registry.MetaKey {
		return errors.New("registry.model_key and registry.meta_key must differ")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !slices.Contains(PublishMetrics, c.Publish.Metric) {
		return fmt.Errorf("publish.metric must be one of %s, got %q", strings.Join(PublishMetrics, ", "), c.Publish.Metric)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
