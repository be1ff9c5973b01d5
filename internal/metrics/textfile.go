package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"genreclf/internal/ledger"
)

const namespace = "genreclf"

// Snapshot is the state written to the textfile.
type Snapshot struct {
	// Last is the run that just finished.
	Last ledger.Run
	// Summary holds ledger totals; nil when no ledger is configured.
	Summary *ledger.Summary
	// Labels is the number of genre columns of the trained model, zero when
	// the run did not train.
	Labels int
}

// Gatherer builds a registry describing snap.
func Gatherer(snap Snapshot) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the latest run finished.",
	}, []string{"command", "status"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the latest run.",
	})
	records := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_records",
		Help:      "Dataset rows loaded by the latest run.",
	})
	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_score",
		Help:      "Evaluation scores of the latest trained model.",
	}, []string{"metric"})
	decision := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "publish_decision",
		Help:      "1 for the publish gate decision of the latest run.",
	}, []string{"decision"})
	labels := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "model_labels",
		Help:      "Genre columns predicted by the latest trained model.",
	})
	collectors := []prometheus.Collector{lastRun, duration, records, score, decision, labels}

	run := snap.Last
	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	lastRun.WithLabelValues(run.Command, string(run.Status)).Set(float64(finished.Unix()))
	duration.Set(finished.Sub(run.StartedAt).Seconds())
	records.Set(float64(run.Records))
	if run.F1Micro != nil {
		score.WithLabelValues("f1_micro").Set(*run.F1Micro)
	}
	if run.F1Macro != nil {
		score.WithLabelValues("f1_macro").Set(*run.F1Macro)
	}
	if run.Decision != "" {
		decision.WithLabelValues(run.Decision).Set(1)
	}
	if snap.Labels > 0 {
		labels.Set(float64(snap.Labels))
	}

	if s := snap.Summary; s != nil {
		runs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs",
			Help:      "Runs recorded in the ledger by status.",
		}, []string{"status"})
		runs.WithLabelValues(string(ledger.StatusSucceeded)).Set(float64(s.Succeeded))
		runs.WithLabelValues(string(ledger.StatusFailed)).Set(float64(s.Failed))
		runs.WithLabelValues(string(ledger.StatusRunning)).Set(float64(s.Running))
		published := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_models",
			Help:      "Runs whose model passed the publish gate.",
		})
		published.Set(float64(s.Published))
		collectors = append(collectors, runs, published)
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return reg, nil
}

// WriteTextfile atomically replaces path with the metrics for snap.
func WriteTextfile(path string, snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	reg, err := Gatherer(snap)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
