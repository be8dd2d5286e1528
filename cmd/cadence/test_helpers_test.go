package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/assign"
	"cadence/internal/config"
	"cadence/internal/dataset"
	"cadence/internal/session"
	"cadence/internal/snapshot"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	datasetPath string
	cfg         *config.Config
}

const testDatasetCSV = "id,dancer,video,media\n" +
	"a1,alpha,v1,clips/a1.mp4\n" +
	"b1,bravo,v1,clips/b1.mp4\n" +
	"a2,alpha,v2,clips/a2.mp4\n" +
	"c1,charlie,v2,clips/c1.mp4\n" +
	"b2,bravo,v3,clips/b2.mp4\n" +
	"c2,charlie,v3,clips/c2.mp4\n"

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	datasetPath := filepath.Join(base, "clips.csv")
	if err := os.WriteFile(datasetPath, []byte(testDatasetCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[dataset]
path = %q
id = "showcase"
mode = "battle"

[assignment]
pool_size = 2
overlap_rate = 0.5

[paths]
log_dir = %q
export_dir = %q
journal_path = %q
api_bind = "127.0.0.1:0"

[[annotators]]
id = "ann-1"
name = "casey"
passcode = "step"
slot = 0

[[annotators]]
id = "ann-2"
name = "riley"
passcode = "spin"
slot = 1

[[annotators]]
id = "gt-1"
name = "jordan"
passcode = "truth"
slot = 0
role = "groundtruth"
`,
		datasetPath,
		filepath.Join(base, "logs"),
		filepath.Join(base, "exports"),
		filepath.Join(base, "journal.db"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}
	return &cliTestEnv{
		baseDir:     base,
		configPath:  configPath,
		datasetPath: datasetPath,
		cfg:         cfg,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

// writeFullSnapshot labels every battle the identity owns with its left
// side's dancer and writes the exported snapshot next to the test data.
func writeFullSnapshot(t *testing.T, env *cliTestEnv, annotatorID string) string {
	t.Helper()
	var annotator config.Annotator
	found := false
	for _, a := range env.cfg.Annotators {
		if a.ID == annotatorID {
			annotator = a
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("annotator %q not in test roster", annotatorID)
	}

	col, err := dataset.LoadFile(env.datasetPath, env.cfg.Dataset.ID)
	if err != nil {
		t.Fatalf("load collection: %v", err)
	}
	identity := annotator.Identity()
	oracle := assign.New(assign.Params{
		PoolSize:    env.cfg.Assignment.PoolSize,
		OverlapRate: env.cfg.Assignment.OverlapRate,
	})
	if annotator.Role == config.RoleGroundTruth {
		oracle = assign.New(assign.Params{PoolSize: 1})
		identity.Slot = 0
	}

	store, err := session.New(session.Config{
		Mode:       snapshot.ModeBattle,
		Identity:   identity,
		Collection: col,
		Oracle:     oracle,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Bootstrap(); err != nil && !errors.Is(err, session.ErrNoWork) {
		t.Fatalf("bootstrap: %v", err)
	}
	for i := 0; i < store.Len(); i++ {
		entry, _ := store.EntryAt(i)
		if err := store.SubmitAt(i, session.Submission{Winner: entry.Battle.Left.Dancer}); err != nil {
			t.Fatalf("submit battle %d: %v", i, err)
		}
	}
	data, err := store.Export().Encode()
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	path := filepath.Join(env.baseDir, annotatorID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}
