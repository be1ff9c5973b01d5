package config

import (
	"fmt"
	"os"
	"strings"

	"genreclf/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	c.normalizeTraining()
	if err := c.normalizeRegistry(); err != nil {
		return err
	}
	c.normalizePublish()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataFile) == "" {
		c.Paths.DataFile = defaultDataFile
	}
	if c.Paths.DataFile, err = expandPath(c.Paths.DataFile); err != nil {
		return fmt.Errorf("paths.data_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.ArtifactDir) == "" {
		c.Paths.ArtifactDir = defaultArtifactDir
	}
	if c.Paths.ArtifactDir, err = expandPath(c.Paths.ArtifactDir); err != nil {
		return fmt.Errorf("paths.artifact_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.AccessToken = strings.TrimSpace(c.TMDB.AccessToken)
	if c.TMDB.AccessToken == "" {
		if value, ok := os.LookupEnv("TMDB_API_ACCESS_TOKEN"); ok {
			c.TMDB.AccessToken = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	c.TMDB.OriginalLanguage = strings.ToLower(strings.TrimSpace(c.TMDB.OriginalLanguage))
	if iso := language.ToISO2(c.TMDB.OriginalLanguage); iso != "" {
		c.TMDB.OriginalLanguage = iso
	}
	c.TMDB.Mode = strings.ToLower(strings.TrimSpace(c.TMDB.Mode))
	if c.TMDB.Mode == "" {
		c.TMDB.Mode = FetchModeCategories
	}
	categories := make([]string, 0, len(c.TMDB.Categories))
	seen := make(map[string]struct{}, len(c.TMDB.Categories))
	for _, category := range c.TMDB.Categories {
		normalized := strings.ToLower(strings.TrimSpace(category))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		categories = append(categories, normalized)
	}
	if len(categories) == 0 {
		categories = []string{defaultTMDBCategoriesPopular, defaultTMDBCategoriesTop}
	}
	c.TMDB.Categories = categories
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
}

func (c *Config) normalizeCatalog() error {
	var err error
	c.Catalog.GenresPath = strings.TrimSpace(c.Catalog.GenresPath)
	if c.Catalog.GenresPath, err = expandPath(c.Catalog.GenresPath); err != nil {
		return fmt.Errorf("catalog.genres_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTraining() {
	c.Training.Classifier = strings.ToLower(strings.TrimSpace(c.Training.Classifier))
	if c.Training.Classifier == "" {
		c.Training.Classifier = ClassifierLinearSVC
	}
	c.Training.PredictionPolicy = strings.ToLower(strings.TrimSpace(c.Training.PredictionPolicy))
	if c.Training.PredictionPolicy == "" {
		c.Training.PredictionPolicy = PolicyThreshold
	}
}

func (c *Config) normalizeRegistry() error {
	var err error
	c.Registry.Backend = strings.ToLower(strings.TrimSpace(c.Registry.Backend))
	if c.Registry.Backend == "" {
		c.Registry.Backend = RegistryBackendFile
	}
	if strings.TrimSpace(c.Registry.Dir) == "" {
		c.Registry.Dir = defaultRegistryDir
	}
	if c.Registry.Dir, err = expandPath(c.Registry.Dir); err != nil {
		return fmt.Errorf("registry.dir: %w", err)
	}
	if strings.TrimSpace(c.Registry.SQLitePath) == "" {
		c.Registry.SQLitePath = defaultRegistrySQLitePath
	}
	if c.Registry.SQLitePath, err = expandPath(c.Registry.SQLitePath); err != nil {
		return fmt.Errorf("registry.sqlite_path: %w", err)
	}
	c.Registry.URL = strings.TrimRight(strings.TrimSpace(c.Registry.URL), "/")
	c.Registry.Token = strings.TrimSpace(c.Registry.Token)
	if c.Registry.Token == "" {
		if value, ok := os.LookupEnv("GENRECLF_REGISTRY_TOKEN"); ok {
			c.Registry.Token = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Registry.Token = strings.TrimSpace(value)
		}
	}
	c.Registry.ModelKey = strings.TrimSpace(c.Registry.ModelKey)
	if c.Registry.ModelKey == "" {
		c.Registry.ModelKey = defaultModelKey
	}
	c.Registry.MetaKey = strings.TrimSpace(c.Registry.MetaKey)
	if c.Registry.MetaKey == "" {
		c.Registry.MetaKey = defaultMetaKey
	}
	if c.Registry.TimeoutSeconds <= 0 {
		c.Registry.TimeoutSeconds = defaultRegistryTimeout
	}
	return nil
}

func (c *Config) normalizePublish() {
	c.Publish.Metric = strings.ToLower(strings.TrimSpace(c.Publish.Metric))
	if c.Publish.Metric == "" {
		c.Publish.Metric = defaultPublishMetric
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
