package config

// Registry backends.
const (
	RegistryBackendFile   = "file"
	RegistryBackendHTTP   = "http"
	RegistryBackendSQLite = "sqlite"
)

// Classifier strategies.
const (
	ClassifierLinearSVC = "linear_svc"
	ClassifierLogistic  = "logistic"
)

// Prediction policies.
const (
	PolicyThreshold = "threshold"
	PolicyDirect    = "direct"
)

// Fetch modes.
const (
	FetchModeCategories = "categories"
	FetchModeGenres     = "genres"
)

// Local artifact file names. The registry keys are configured separately.
const (
	ModelFileName = "genre_model.gob.gz"
	MetaFileName  = "genre_meta.json"
)

const (
	defaultDataFile              = "~/.local/share/genreclf/data/raw/movies.csv"
	defaultArtifactDir           = "~/.local/share/genreclf/artifacts"
	defaultStateDir              = "~/.local/share/genreclf"
	defaultLogDir                = "~/.local/share/genreclf/logs"
	defaultRegistryDir           = "~/.local/share/genreclf/registry"
	defaultRegistrySQLitePath    = "~/.local/share/genreclf/registry.db"
	defaultTMDBLanguage          = "en-US"
	defaultTMDBOriginalLanguage  = "en"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBPages             = 5
	defaultTMDBMaxPages          = 10
	defaultTMDBPerGenreLimit     = 150
	defaultTMDBRequestTimeout    = 10
	defaultTMDBRequestsPerSecond = 20
	defaultTestSize              = 0.2
	defaultRandomState           = 42
	defaultMaxFeatures           = 30000
	defaultMinDF                 = 2
	defaultC                     = 1.0
	defaultMaxIter               = 1000
	defaultThreshold             = 0.25
	defaultModelKey              = "genre_model"
	defaultMetaKey               = "genre_meta"
	defaultRegistryTimeout       = 30
	defaultPublishMetric         = "f1_micro"
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultTMDBCategoriesPopular = "popular"
	defaultTMDBCategoriesTop     = "top_rated"
)

// PublishMetrics lists the scalar metrics the publish gate can compare.
var PublishMetrics = []string{
	"f1_micro",
	"f1_macro",
	"precision_micro",
	"recall_micro",
	"precision_macro",
	"recall_macro",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataFile:    defaultDataFile,
			ArtifactDir: defaultArtifactDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:          defaultTMDBBaseURL,
			Language:         defaultTMDBLanguage,
			OriginalLanguage: defaultTMDBOriginalLanguage,
			Mode:             FetchModeCategories,
			Categories:       []string{defaultTMDBCategoriesPopular, defaultTMDBCategoriesTop},
			Pages:            defaultTMDBPages,
			MaxPages:         defaultTMDBMaxPages,
			PerGenreLimit:    defaultTMDBPerGenreLimit,
			RequestTimeout:   defaultTMDBRequestTimeout,

			RequestsPerSecond: defaultTMDBRequestsPerSecond,
		},
		Training: Training{
			TestSize:         defaultTestSize,
			RandomState:      defaultRandomState,
			MaxFeatures:      defaultMaxFeatures,
			MinDF:            defaultMinDF,
			Classifier:       ClassifierLinearSVC,
			C:                defaultC,
			MaxIter:          defaultMaxIter,
			PredictionPolicy: PolicyThreshold,
			Threshold:        defaultThreshold,
		},
		Registry: Registry{
			Backend:        RegistryBackendFile,
			Dir:            defaultRegistryDir,
			SQLitePath:     defaultRegistrySQLitePath,
			ModelKey:       defaultModelKey,
			MetaKey:        defaultMetaKey,
			TimeoutSeconds: defaultRegistryTimeout,
		},
		Publish: Publish{
			Enabled: true,
			Metric:  defaultPublishMetric,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Published:      true,
			Skipped:        false,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
