package registry

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"genreclf/internal/config"
	"genreclf/internal/services"
)

// ErrNotFound reports that no blob exists under the requested key.
var ErrNotFound = services.ErrNotFound

// Registry is a key-value blob store for published artifacts.
type Registry interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateKey rejects keys that could escape a directory or URL path segment.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return services.Wrap(services.ErrRegistry, "registry", "validate key", fmt.Sprintf("invalid key %q", key), nil)
	}
	return nil
}

// Open constructs the backend selected by cfg.Registry.Backend. The returned
// closer releases backend resources and is never nil.
func Open(cfg *config.Config) (Registry, io.Closer, error) {
	if cfg == nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "registry", "open", "config is nil", nil)
	}
	switch cfg.Registry.Backend {
	case config.RegistryBackendFile:
		store, err := NewFileStore(cfg.Registry.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case config.RegistryBackendHTTP:
		timeout := time.Duration(cfg.Registry.TimeoutSeconds) * time.Second
		store, err := NewHTTPStore(cfg.Registry.URL, cfg.Registry.Token, WithTimeout(timeout))
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case config.RegistryBackendSQLite:
		store, err := OpenSQLiteStore(context.Background(), cfg.Registry.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, services.Wrap(services.ErrConfiguration, "registry", "open", fmt.Sprintf("unknown backend %q", cfg.Registry.Backend), nil)
	}
}

// Describe returns a short human-readable location for the configured backend.
func Describe(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	switch cfg.Registry.Backend {
	case config.RegistryBackendHTTP:
		return cfg.Registry.URL
	case config.RegistryBackendSQLite:
		return cfg.Registry.SQLitePath
	default:
		return cfg.Registry.Dir
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
