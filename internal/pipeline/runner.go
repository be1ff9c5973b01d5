package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"genreclf/internal/config"
	"genreclf/internal/dataset"
	"genreclf/internal/genres"
	"genreclf/internal/labels"
	"genreclf/internal/ledger"
	"genreclf/internal/logging"
	"genreclf/internal/metrics"
	"genreclf/internal/model"
	"genreclf/internal/notifications"
	"genreclf/internal/preflight"
	"genreclf/internal/publish"
	"genreclf/internal/services"
	"genreclf/internal/services/registry"
	"genreclf/internal/split"
	"genreclf/internal/training"
)

// ErrLocked reports that another run holds the artifact lock.
var ErrLocked = errors.New("another genreclf run is in progress")

// Commands recorded in the ledger.
const (
	CommandTrain   = "train"
	CommandRun     = "run"
	CommandPublish = "publish"
)

// Report summarizes a run for the CLI.
type Report struct {
	RunID      string
	Records    int
	Vocabulary []string
	Training   training.Result
	// Outcome is nil when publishing was not attempted.
	Outcome  *publish.Outcome
	Duration time.Duration
}

// Runner executes pipeline runs for one configuration.
type Runner struct {
	cfg      *config.Config
	registry registry.Registry
	ledger   *ledger.Store
	notifier notifications.Service
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRegistry sets the registry used by the publish gate.
func WithRegistry(reg registry.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithLedger records runs in store.
func WithLedger(store *ledger.Store) Option {
	return func(r *Runner) { r.ledger = store }
}

// WithNotifier overrides the notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(r *Runner) {
		if svc != nil {
			r.notifier = svc
		}
	}
}

// NewRunner constructs a runner. Without WithRegistry, publishing fails with
// a configuration error.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		notifier: notifications.NewService(nil),
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Train fits and persists a model without publishing.
func (r *Runner) Train(ctx context.Context) (Report, error) {
	return r.execute(ctx, CommandTrain, false)
}

// Run trains and, when publish is true, passes the artifact through the gate.
func (r *Runner) Run(ctx context.Context, publishAfter bool) (Report, error) {
	return r.execute(ctx, CommandRun, publishAfter)
}

// Publish sends the artifact already on disk through the gate.
func (r *Runner) Publish(ctx context.Context) (publish.Outcome, error) {
	var (
		report  Report
		outcome publish.Outcome
	)
	err := r.withLock(func() error {
		return r.recorded(ctx, CommandPublish, &report, func(ctx context.Context, run *ledger.Run) error {
			artifact, err := training.LoadArtifact(r.cfg.ModelPath(), r.cfg.MetaPath())
			if err != nil {
				return services.Wrap(services.ErrNotFound, "publish", "load artifact", r.cfg.Paths.ArtifactDir, err)
			}
			run.NTrain = artifact.Metadata.Metrics.NTrain
			run.NTest = artifact.Metadata.Metrics.NTest
			recordMetrics(run, artifact.Metadata)
			outcome, err = r.publish(ctx, run, artifact)
			return err
		})
	})
	return outcome, err
}

func (r *Runner) execute(ctx context.Context, command string, publishAfter bool) (Report, error) {
	var report Report
	err := r.withLock(func() error {
		return r.recorded(ctx, command, &report, func(ctx context.Context, run *ledger.Run) error {
			if err := r.train(ctx, run, &report); err != nil {
				return err
			}
			if !publishAfter {
				return nil
			}
			outcome, err := r.publish(ctx, run, report.Training.Artifact)
			report.Outcome = &outcome
			return err
		})
	})
	return report, err
}

func (r *Runner) train(ctx context.Context, run *ledger.Run, report *Report) error {
	logger := logging.WithContext(ctx, r.logger)

	if check := preflight.CheckDirectoryAccess("Artifact directory", r.cfg.Paths.ArtifactDir); !check.Passed {
		return services.Wrap(services.ErrConfiguration, "train", "preflight", check.Detail, nil)
	}

	catalog, err := LoadCatalog(r.cfg)
	if err != nil {
		return err
	}

	records, err := dataset.Load(r.cfg.Paths.DataFile)
	if err != nil {
		return err
	}
	report.Records = len(records)
	run.Records = len(records)

	matrix, vocabulary := labels.Build(records, catalog)
	report.Vocabulary = vocabulary
	logger.Info("label matrix built",
		logging.Int("records", matrix.Rows),
		logging.Int("labels", matrix.Cols),
	)

	tcfg := training.FromConfig(r.cfg)
	partition, err := split.Split(dataset.Overviews(records), matrix, tcfg.TestSize, tcfg.RandomState)
	if err != nil {
		return err
	}

	m, err := model.Build(tcfg.ModelConfig())
	if err != nil {
		return err
	}

	result, err := training.New(tcfg, r.cfg.Paths.ArtifactDir, r.logger).Run(ctx, partition, vocabulary, m)
	if err != nil {
		return err
	}
	report.Training = result
	run.Classifier = tcfg.Classifier
	run.NTrain = result.Metrics.NTrain
	run.NTest = result.Metrics.NTest
	recordMetrics(run, result.Artifact.Metadata)
	return nil
}

func (r *Runner) publish(ctx context.Context, run *ledger.Run, artifact training.Artifact) (publish.Outcome, error) {
	if r.registry == nil {
		return publish.Outcome{}, services.Wrap(services.ErrConfiguration, "publish", "gate", "no registry configured", nil)
	}
	gate := publish.NewGate(r.registry, publish.Options{
		Metric:      r.cfg.Publish.Metric,
		ModelKey:    r.cfg.Registry.ModelKey,
		MetaKey:     r.cfg.Registry.MetaKey,
		StrictPrior: r.cfg.Publish.StrictPrior,
	}, r.logger)

	value, ok := artifact.Metadata.Metrics.Value(gate.Metric())
	if !ok {
		return publish.Outcome{}, services.Wrap(services.ErrConfiguration, "publish", "metric", gate.Metric(), nil)
	}
	run.Metric = gate.Metric()
	run.MetricValue = &value

	outcome, err := gate.MaybePublish(ctx, value, artifact)
	if outcome.HasPrior() {
		prior := outcome.PriorValue
		run.PriorValue = &prior
	}
	if err != nil {
		return outcome, err
	}
	run.Decision = string(outcome.Decision)

	var notifyErr error
	switch outcome.Decision {
	case publish.Published:
		notifyErr = r.notifier.NotifyPublished(ctx, outcome.Metric, outcome.NewValue, run.PriorValue)
	case publish.Skipped:
		notifyErr = r.notifier.NotifySkipped(ctx, outcome.Metric, outcome.NewValue, outcome.PriorValue)
	}
	if notifyErr != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "notification failed", "notification_failed",
			logging.Error(notifyErr),
			logging.String(logging.FieldImpact, "publish decision was not pushed"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
	return outcome, nil
}

// recorded wraps fn with a ledger row, run id context, and failure
// notification.
func (r *Runner) recorded(ctx context.Context, command string, report *Report, fn func(context.Context, *ledger.Run) error) error {
	started := time.Now()

	run := &ledger.Run{Command: command, DatasetPath: r.cfg.Paths.DataFile}
	if r.ledger != nil {
		row, err := r.ledger.Start(ctx, command, r.cfg.Paths.DataFile)
		if err != nil {
			logging.WarnWithContext(r.logger, "run ledger unavailable", "ledger_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in 'genreclf runs'"),
				logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
			)
		} else {
			run = row
		}
	}
	report.RunID = run.ID
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started", logging.String("command", command))

	err := fn(ctx, run)
	report.Duration = time.Since(started)

	if err != nil {
		run.Fail(services.Kind(err), err)
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.String("command", command),
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		if notifyErr := r.notifier.NotifyError(ctx, err, command); notifyErr != nil {
			logger.Debug("error notification failed", logging.Error(notifyErr))
		}
	} else {
		logger.Info("run finished",
			logging.String("command", command),
			logging.Duration("duration", report.Duration),
		)
	}

	if r.ledger != nil && run.ID != "" {
		if finishErr := r.ledger.Finish(context.WithoutCancel(ctx), run); finishErr != nil {
			logger.Warn("failed to record run", logging.Error(finishErr))
		}
	}
	r.exportMetrics(context.WithoutCancel(ctx), logger, run, report)
	return err
}

// exportMetrics rewrites the Prometheus textfile when one is configured.
func (r *Runner) exportMetrics(ctx context.Context, logger *slog.Logger, run *ledger.Run, report *Report) {
	path := r.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	snap := metrics.Snapshot{Last: *run, Labels: len(report.Vocabulary)}
	if snap.Last.StartedAt.IsZero() {
		snap.Last.StartedAt = time.Now().Add(-report.Duration)
	}
	if snap.Last.Status == "" || snap.Last.Status == ledger.StatusRunning {
		snap.Last.Status = ledger.StatusSucceeded
	}
	if r.ledger != nil {
		if summary, err := r.ledger.Summarize(ctx); err == nil {
			snap.Summary = &summary
		}
	}
	if err := metrics.WriteTextfile(path, snap); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_export_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "textfile collector will report stale values"),
		)
	}
}

func (r *Runner) withLock(fn func() error) error {
	lock := flock.New(r.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", r.cfg.LockPath(), err)
	}
	if !ok {
		return fmt.Errorf("%w (lock held on %s)", ErrLocked, r.cfg.LockPath())
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			r.logger.Warn("failed to release lock", logging.Error(unlockErr))
		}
	}()
	return fn()
}

// LoadCatalog returns the configured genre catalog, falling back to the
// built-in TMDB table.
func LoadCatalog(cfg *config.Config) (genres.Catalog, error) {
	if cfg.Catalog.GenresPath == "" {
		return genres.Default(), nil
	}
	catalog, err := genres.LoadFile(cfg.Catalog.GenresPath)
	if err != nil {
		return genres.Catalog{}, services.Wrap(services.ErrConfiguration, "catalog", "load genres", cfg.Catalog.GenresPath, err)
	}
	return catalog, nil
}

func recordMetrics(run *ledger.Run, meta training.Metadata) {
	f1Micro := meta.Metrics.F1Micro
	f1Macro := meta.Metrics.F1Macro
	run.F1Micro = &f1Micro
	run.F1Macro = &f1Macro
}
