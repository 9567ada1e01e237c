package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/mpcsqp/internal/config"
	"github.com/san-kum/mpcsqp/internal/dynamo"
)

func testResult() *dynamo.Result {
	return &dynamo.Result{
		States: []dynamo.State{
			{1.0, 0.0},
			{0.9, -0.1},
		},
		Controls: []dynamo.Control{
			{0.25},
		},
		Times: []float64{0.0, 0.01},
		Metrics: map[string]float64{
			"tracking_error": 1.5,
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	task := config.DefaultConfig()
	runID, err := st.Save(task, testResult(), 20, 1)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Model != "pendulum" {
		t.Errorf("expected model 'pendulum', got '%s'", meta.Model)
	}

	if meta.Updates != 20 || meta.Failures != 1 {
		t.Errorf("expected 20 updates and 1 failure, got %d and %d", meta.Updates, meta.Failures)
	}

	if meta.Metrics["tracking_error"] != 1.5 {
		t.Errorf("expected tracking error 1.5, got %f", meta.Metrics["tracking_error"])
	}

	rows, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}

	want := [][]float64{{1.0, 0.0, 0.25}, {0.9, -0.1, 0}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.01}, times); diff != "" {
		t.Errorf("times (-want +got):\n%s", diff)
	}

	loaded, err := st.LoadTask(runID)
	if err != nil {
		t.Fatalf("load task failed: %v", err)
	}
	if diff := cmp.Diff(task, loaded); diff != "" {
		t.Errorf("task (-want +got):\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	first, err := st.Save(config.DefaultConfig(), testResult(), 1, 0)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(config.GetPreset("drone", "hover"), testResult(), 1, 0)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	ids := map[string]bool{runs[0].ID: true, runs[1].ID: true}
	if !ids[first] || !ids[second] {
		t.Errorf("expected runs %s and %s, got %v", first, second, ids)
	}
	if runs[1].Timestamp.Before(runs[0].Timestamp) {
		t.Error("runs not sorted by timestamp")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(config.DefaultConfig(), testResult(), 1, 0)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, statesFile, taskFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}
