package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"genreclf/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	DataFile    string `toml:"data_file"`
	ArtifactDir string `toml:"artifact_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API and the fetch stage.
type TMDB struct {
	APIKey           string   `toml:"api_key"`
	AccessToken      string   `toml:"access_token"`
	BaseURL          string   `toml:"base_url"`
	Language         string   `toml:"language"`
	OriginalLanguage string   `toml:"original_language"`
	Mode             string   `toml:"mode"`
	Categories       []string `toml:"categories"`
	Pages            int      `toml:"pages"`
	MaxPages         int      `toml:"max_pages"`
	PerGenreLimit    int      `toml:"per_genre_limit"`
	RequestTimeout   int      `toml:"request_timeout"`

	// RequestsPerSecond paces TMDB calls; zero disables pacing.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Catalog configures the genre table used to build label columns.
type Catalog struct {
	// GenresPath optionally points at a JSON object {"<id>": "<name>"} that
	// replaces the built-in TMDB movie genre table.
	GenresPath string `toml:"genres_path"`
}

// Training contains the model and split hyperparameters.
type Training struct {
	TestSize         float64 `toml:"test_size"`
	RandomState      int64   `toml:"random_state"`
	MaxFeatures      int     `toml:"max_features"`
	MinDF            int     `toml:"min_df"`
	Classifier       string  `toml:"classifier"`
	C                float64 `toml:"c"`
	MaxIter          int     `toml:"max_iter"`
	PredictionPolicy string  `toml:"prediction_policy"`
	Threshold        float64 `toml:"threshold"`
}

// Registry selects and configures the model registry backend.
type Registry struct {
	Backend        string `toml:"backend"`
	Dir            string `toml:"dir"`
	URL            string `toml:"url"`
	Token          string `toml:"token"`
	SQLitePath     string `toml:"sqlite_path"`
	ModelKey       string `toml:"model_key"`
	MetaKey        string `toml:"meta_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Publish controls the metric gate in front of the registry.
type Publish struct {
	// Enabled makes `genreclf run` publish after training.
	Enabled bool   `toml:"enabled"`
	Metric  string `toml:"metric"`
	// StrictPrior turns an unreachable registry during the prior-metric lookup
	// into an error instead of a first publish.
	StrictPrior bool `toml:"strict_prior"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Published      bool   `toml:"published"`
	Skipped        bool   `toml:"skipped"`
	Errors         bool   `toml:"errors"`
}

// Metrics configures the Prometheus textfile written after each run.
type Metrics struct {
	// Textfile is the .prom file to rewrite; empty disables the export.
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for genreclf.
//
// Configuration sections by subsystem:
//   - Paths: dataset, artifact, state, and log locations
//   - TMDB: catalog fetch credentials and paging
//   - Catalog: optional genre table override
//   - Training: split and model hyperparameters
//   - Registry: where published artifacts live
//   - Publish: metric gate settings
//   - Notifications: ntfy push notification settings
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Catalog       Catalog       `toml:"catalog"`
	Training      Training      `toml:"training"`
	Registry      Registry      `toml:"registry"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/genreclf/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Validation failures carry services.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "normalize", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("genreclf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the artifact, state, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ArtifactDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Registry.Backend == RegistryBackendFile && strings.TrimSpace(c.Registry.Dir) != "" {
		if err := os.MkdirAll(c.Registry.Dir, 0o755); err != nil {
			return fmt.Errorf("create registry directory %q: %w", c.Registry.Dir, err)
		}
	}
	return nil
}

// ModelPath is the local location of the serialized model artifact.
func (c *Config) ModelPath() string {
	return filepath.Join(c.Paths.ArtifactDir, ModelFileName)
}

// MetaPath is the local location of the metadata record.
func (c *Config) MetaPath() string {
	return filepath.Join(c.Paths.ArtifactDir, MetaFileName)
}

// LedgerPath is the SQLite database recording pipeline runs.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// LockPath is the file locked for the duration of a training run.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.ArtifactDir, ".genreclf.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
