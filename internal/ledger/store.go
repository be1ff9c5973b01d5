package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"genreclf/internal/services"
	"genreclf/internal/sqlstore"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, command, status, started_at, finished_at, dataset_path, records,
    n_train, n_test, classifier, f1_micro, f1_macro, metric, metric_value, prior_value,
    decision, error_kind, error_message`

// Store manages the run ledger database.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlstore.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.InitSchema(ctx, db, schemaSQL, schemaVersion); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Start inserts a running row with a fresh id.
func (s *Store) Start(ctx context.Context, command, datasetPath string) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		Command:     command,
		Status:      StatusRunning,
		StartedAt:   time.Now().UTC(),
		DatasetPath: datasetPath,
	}
	err := sqlstore.RetryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO runs (id, command, status, started_at, dataset_path) VALUES (?, ?, ?, ?, ?)`,
			run.ID, run.Command, run.Status, run.StartedAt.Format(timeLayout), nullableString(run.DatasetPath),
		)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stamps the finish time and persists every field of run. A run still
// marked running is recorded as succeeded.
func (s *Store) Finish(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("finish run: nil run")
	}
	if run.Status == StatusRunning || run.Status == "" {
		run.Status = StatusSucceeded
	}
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	err := sqlstore.RetryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, `UPDATE runs SET
            status = ?, finished_at = ?, dataset_path = ?, records = ?, n_train = ?, n_test = ?,
            classifier = ?, f1_micro = ?, f1_macro = ?, metric = ?, metric_value = ?,
            prior_value = ?, decision = ?, error_kind = ?, error_message = ?
        WHERE id = ?`,
			run.Status,
			finished.Format(timeLayout),
			nullableString(run.DatasetPath),
			run.Records,
			run.NTrain,
			run.NTest,
			nullableString(run.Classifier),
			nullableFloat(run.F1Micro),
			nullableFloat(run.F1Macro),
			nullableString(run.Metric),
			nullableFloat(run.MetricValue),
			nullableFloat(run.PriorValue),
			nullableString(run.Decision),
			nullableString(run.ErrorKind),
			nullableString(run.ErrorMessage),
			run.ID,
		)
		if execErr != nil {
			return execErr
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s: %w", run.ID, services.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, services.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Summarize counts runs by status.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1), SUM(CASE WHEN decision = 'published' THEN 1 ELSE 0 END) FROM runs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize runs: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			status    Status
			count     int
			published int
		)
		if err := rows.Scan(&status, &count, &published); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		summary.Published += published
		switch status {
		case StatusRunning:
			summary.Running += count
		case StatusSucceeded:
			summary.Succeeded += count
		case StatusFailed:
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// Prune deletes finished runs older than cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := sqlstore.RetryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`DELETE FROM runs WHERE status != ? AND started_at < ?`,
			StatusRunning, cutoff.UTC().Format(timeLayout))
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		command      string
		status       string
		startedRaw   string
		finishedRaw  sql.NullString
		datasetPath  sql.NullString
		records      int
		nTrain       int
		nTest        int
		classifier   sql.NullString
		f1Micro      sql.NullFloat64
		f1Macro      sql.NullFloat64
		metric       sql.NullString
		metricValue  sql.NullFloat64
		priorValue   sql.NullFloat64
		decision     sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
	)
	if err := scanner.Scan(
		&id, &command, &status, &startedRaw, &finishedRaw, &datasetPath, &records,
		&nTrain, &nTest, &classifier, &f1Micro, &f1Macro, &metric, &metricValue, &priorValue,
		&decision, &errorKind, &errorMessage,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		Command:      command,
		Status:       Status(status),
		DatasetPath:  datasetPath.String,
		Records:      records,
		NTrain:       nTrain,
		NTest:        nTest,
		Classifier:   classifier.String,
		F1Micro:      floatPtr(f1Micro),
		F1Macro:      floatPtr(f1Macro),
		Metric:       metric.String,
		MetricValue:  floatPtr(metricValue),
		PriorValue:   floatPtr(priorValue),
		Decision:     decision.String,
		ErrorKind:    errorKind.String,
		ErrorMessage: errorMessage.String,
	}
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
