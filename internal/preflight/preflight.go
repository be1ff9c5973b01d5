package preflight

import (
	"context"

	"genreclf/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Remote checks are skipped when their credentials or URL are not configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Artifact directory", cfg.Paths.ArtifactDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDataset(cfg.Paths.DataFile),
	}

	if cfg.TMDB.APIKey != "" || cfg.TMDB.AccessToken != "" {
		results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey, cfg.TMDB.AccessToken))
	}

	switch cfg.Registry.Backend {
	case config.RegistryBackendHTTP:
		results = append(results, CheckRegistryHTTP(ctx, cfg.Registry.URL, cfg.Registry.MetaKey, cfg.Registry.Token))
	case config.RegistryBackendSQLite:
		results = append(results, CheckParentWritable("Registry database", cfg.Registry.SQLitePath))
	default:
		results = append(results, CheckDirectoryAccess("Registry directory", cfg.Registry.Dir))
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
