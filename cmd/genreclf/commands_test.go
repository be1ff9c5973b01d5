package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genreclf/internal/services"
	"genreclf/internal/testsupport"
)

func TestTrainThenPredict(t *testing.T) {
	env := setupCLITestEnv(t, 40)

	out, _, err := runCLI(t, []string{"train"}, env.configPath)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	requireContains(t, out, "40 records, 32 train / 8 test")
	requireContains(t, out, "precision")
	requireContains(t, out, "Model: "+env.cfg.ModelPath())
	if strings.Contains(out, "published") {
		t.Fatalf("train must not publish:\n%s", out)
	}
	if _, err := os.Stat(env.cfg.ModelPath()); err != nil {
		t.Fatalf("expected model artifact: %v", err)
	}

	out, _, err = runCLI(t, []string{"predict", "--all", "--json", "A haunted house terrifies a family as the ghost hunts them at night."}, env.configPath)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	var scores []predictionView
	if err := json.Unmarshal([]byte(out), &scores); err != nil {
		t.Fatalf("decode predict output: %v\n%s", err, out)
	}
	if len(scores) == 0 {
		t.Fatal("expected every genre with --all")
	}
	for i := 1; i < len(scores); i++ {
		if scores[i].Score > scores[i-1].Score {
			t.Fatalf("scores not sorted descending: %+v", scores)
		}
	}
	if scores[0].Label != "Horror" {
		t.Fatalf("expected Horror to rank first, got %+v", scores[0])
	}
}

func TestPredictWithoutModelIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	_, _, err := runCLI(t, []string{"predict", "anything"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRunPublishesThenSkipsAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t, 40)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	requireContains(t, out, "published:")
	requireContains(t, out, "(prior none)")

	out, _, err = runCLI(t, []string{"run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	var report reportView
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode run report: %v\n%s", err, out)
	}
	if report.Decision != "skipped" || report.PriorValue == nil {
		t.Fatalf("expected skipped decision with prior, got %+v", report)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "published")
	requireContains(t, out, "skipped")

	out, _, err = runCLI(t, []string{"runs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs --json: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Decision != "skipped" || runs[1].Decision != "published" {
		t.Fatalf("expected newest first, got %q then %q", runs[0].Decision, runs[1].Decision)
	}
}

func TestRunNoPublishOnlyTrains(t *testing.T) {
	env := setupCLITestEnv(t, 40)

	out, _, err := runCLI(t, []string{"run", "--no-publish", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("run --no-publish: %v", err)
	}
	var report reportView
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode run report: %v", err)
	}
	if report.Decision != "" {
		t.Fatalf("expected no publish decision, got %q", report.Decision)
	}

	out, _, err = runCLI(t, []string{"publish"}, env.configPath)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	requireContains(t, out, "published:")
}

func TestPublishWithoutArtifactIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	_, _, err := runCLI(t, []string{"publish"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if services.ExitCode(err) != 1 {
		t.Fatalf("expected generic exit code, got %d", services.ExitCode(err))
	}
}

func TestTrainWithoutDatasetIsDataFormatError(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	_, _, err := runCLI(t, []string{"train"}, env.configPath)
	if !errors.Is(err, services.ErrDataFormat) {
		t.Fatalf("expected data format error, got %v", err)
	}
	if services.ExitCode(err) != 3 {
		t.Fatalf("expected exit code 3, got %d", services.ExitCode(err))
	}

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "failed")
	requireContains(t, out, "data_format")
}

func TestGenresListsLocalCatalog(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	out, _, err := runCLI(t, []string{"genres"}, env.configPath)
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	requireContains(t, out, "878")
	requireContains(t, out, "Science Fiction")
	requireContains(t, out, "Western")
}

func TestGenresRemoteRequiresCredentials(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	_, _, err := runCLI(t, []string{"genres", "--remote"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStatusShowsSections(t *testing.T) {
	env := setupCLITestEnv(t, 40)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Environment ==")
	requireContains(t, out, "Artifact directory:")
	requireContains(t, out, "[WARN] Not trained")
	requireContains(t, out, "0 total")
	requireContains(t, out, "English (en)")

	if _, _, err := runCLI(t, []string{"train"}, env.configPath); err != nil {
		t.Fatalf("train: %v", err)
	}
	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status after train: %v", err)
	}
	requireContains(t, out, "f1_micro")
	requireContains(t, out, "train succeeded")
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t, 0)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications not configured")
}

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t, 0)
	env.cfg.Paths.LogDir = filepath.Join(testsupport.BaseDir(env.cfg), "logs")
	writeTestConfig(t, env.configPath, env.cfg)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := "run=aaa started\nrun=bbb started\nrun=aaa finished\n"
	if err := os.WriteFile(filepath.Join(env.cfg.Paths.LogDir, "genreclf.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "aaa started") {
		t.Fatalf("expected only the last two lines:\n%s", out)
	}
	requireContains(t, out, "bbb started")
	requireContains(t, out, "aaa finished")

	out, _, err = runCLI(t, []string{"logs", "--run", "aaa"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --run: %v", err)
	}
	if strings.Contains(out, "bbb") {
		t.Fatalf("expected run filter to drop other runs:\n%s", out)
	}
	requireContains(t, out, "aaa started")
}
