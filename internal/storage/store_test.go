package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/spheresim/internal/dynamo"
)

func testResult(t *testing.T) *dynamo.Result {
	t.Helper()
	a, err := dynamo.NewBody(dynamo.Vec3{0.1, 0.2, 0.3}, dynamo.Vec3{0.01, 0, -0.01}, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := dynamo.NewBody(dynamo.Vec3{-0.5, 0, 0.5}, dynamo.Vec3{0, 0.02, 0}, 0.3)

	first := dynamo.NewSnapshot(0, []dynamo.Body{a, b})
	a.Position = a.Position.Add(a.Velocity)
	b.Position = b.Position.Add(b.Velocity)
	second := dynamo.NewSnapshot(1, []dynamo.Body{a, b})

	return &dynamo.Result{
		Snapshots: []dynamo.Snapshot{first, second},
		Metrics:   map[string]float64{"energy": 1.5},
		Resolved:  3,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := testResult(t)
	info := RunInfo{Seed: 42, Params: dynamo.Params{Gravity: 1, Restitution: 0.5}, Ticks: 1, RecordEvery: 1}

	runID, err := st.Save(info, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Bodies != 2 || len(meta.Radii) != 2 {
		t.Errorf("expected 2 bodies, got %d (radii %v)", meta.Bodies, meta.Radii)
	}
	if meta.Restitution != 0.5 {
		t.Errorf("expected restitution 0.5, got %f", meta.Restitution)
	}
	if meta.Contacts != 3 {
		t.Errorf("expected 3 contacts, got %d", meta.Contacts)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}

	snaps, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(snaps) != len(result.Snapshots) {
		t.Fatalf("expected %d snapshots, got %d", len(result.Snapshots), len(snaps))
	}
	for i := range snaps {
		if snaps[i].Tick != result.Snapshots[i].Tick {
			t.Errorf("snapshot %d: tick %d, want %d", i, snaps[i].Tick, result.Snapshots[i].Tick)
		}
		for j, b := range snaps[i].Bodies {
			want := result.Snapshots[i].Bodies[j]
			if b != want {
				t.Errorf("snapshot %d body %d: got %+v, want %+v", i, j, b, want)
			}
		}
	}
}

func TestStoreSaveEmpty(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Save(RunInfo{}, &dynamo.Result{})
	if !errors.Is(err, ErrMalformedRun) {
		t.Errorf("expected ErrMalformedRun, got %v", err)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		st.now = func() time.Time { return ts }
		if _, err := st.Save(RunInfo{Seed: int64(i)}, testResult(t)); err != nil {
			t.Fatalf("save %d failed: %v", i, err)
		}
	}

	if err := os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Seed != 2 || runs[2].Seed != 0 {
		t.Errorf("expected newest first, got seeds %d..%d", runs[0].Seed, runs[2].Seed)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadStatesMalformed(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunInfo{}, testResult(t))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(st.Dir(), runID, statesFile)
	if err := os.WriteFile(path, []byte("tick,x0\n0,abc\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := st.LoadStates(runID); !errors.Is(err, ErrMalformedRun) {
		t.Errorf("expected ErrMalformedRun, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	result := testResult(t)
	var buf bytes.Buffer

	if err := ExportJSON(&buf, RunMetadata{ID: "run"}, result.Snapshots); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != "run" || len(data.Frames) != 2 {
		t.Fatalf("unexpected export %+v", data)
	}
	if data.Frames[1].Bodies[1].Radius != 0.3 {
		t.Errorf("expected radius 0.3, got %f", data.Frames[1].Bodies[1].Radius)
	}
	if data.Frames[0].KineticEnergy <= 0 {
		t.Error("expected positive kinetic energy")
	}
}

func TestSeries(t *testing.T) {
	snaps := testResult(t).Snapshots

	energy := EnergySeries(snaps)
	if len(energy) != 2 || energy[0] != energy[1] {
		t.Errorf("expected constant energy, got %v", energy)
	}

	ys := CoordinateSeries(snaps, 1, 1)
	if len(ys) != 2 || ys[1] != 0.02 {
		t.Errorf("unexpected y series %v", ys)
	}
	if got := CoordinateSeries(snaps, 5, 0); len(got) != 0 {
		t.Errorf("expected empty series for missing body, got %v", got)
	}
}
