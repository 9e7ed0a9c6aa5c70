package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/spheresim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"

	// fields per body in a states.csv row
	bodyColumns = 6
)

var ErrMalformedRun = errors.New("storage: malformed run data")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Bodies      int                `json:"bodies"`
	Gravity     float64            `json:"gravity"`
	Restitution float64            `json:"restitution"`
	Ticks       int                `json:"ticks"`
	RecordEvery int                `json:"record_every"`
	Radii       []float64          `json:"radii"`
	Contacts    int                `json:"contacts"`
	Degenerate  int                `json:"degenerate"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

// RunInfo is what the caller knows about a run before it is saved.
type RunInfo struct {
	Seed        int64
	Params      dynamo.Params
	Ticks       int
	RecordEvery int
}

// Save writes metadata.json and states.csv under a new run directory and
// returns the run ID.
func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	if len(result.Snapshots) == 0 {
		return "", fmt.Errorf("%w: no snapshots", ErrMalformedRun)
	}

	now := s.now()
	runID := fmt.Sprintf("spheres_%d", now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	first := result.Snapshots[0]
	radii := make([]float64, len(first.Bodies))
	for i, b := range first.Bodies {
		radii[i] = b.Radius
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   now,
		Seed:        info.Seed,
		Bodies:      len(first.Bodies),
		Gravity:     info.Params.Gravity,
		Restitution: info.Params.Restitution,
		Ticks:       info.Ticks,
		RecordEvery: info.RecordEvery,
		Radii:       radii,
		Contacts:    result.Resolved,
		Degenerate:  result.Degenerate,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := []string{"tick"}
	for i := range first.Bodies {
		for _, c := range []string{"x", "y", "z", "vx", "vy", "vz"} {
			header = append(header, fmt.Sprintf("%s%d", c, i))
		}
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, snap := range result.Snapshots {
		row := make([]string, 0, 1+len(snap.Bodies)*bodyColumns)
		row = append(row, strconv.Itoa(snap.Tick))
		for _, b := range snap.Bodies {
			for _, v := range []float64{b.Position[0], b.Position[1], b.Position[2], b.Velocity[0], b.Velocity[1], b.Velocity[2]} {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return runID, w.Error()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates rebuilds the recorded snapshots of a run. Radii come from the
// metadata, so masses are recomputed exactly as at spawn.
func (s *Store) LoadStates(runID string) ([]dynamo.Snapshot, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 1 + len(meta.Radii)*bodyColumns

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRun, err)
	}

	if len(records) < 2 {
		return []dynamo.Snapshot{}, nil
	}

	snaps := make([]dynamo.Snapshot, 0, len(records)-1)
	for row, record := range records[1:] {
		tick, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d tick: %v", ErrMalformedRun, row+1, err)
		}

		bodies := make([]dynamo.Body, len(meta.Radii))
		for i, radius := range meta.Radii {
			var vals [bodyColumns]float64
			for k := range vals {
				vals[k], err = strconv.ParseFloat(record[1+i*bodyColumns+k], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d body %d: %v", ErrMalformedRun, row+1, i, err)
				}
			}
			bodies[i], err = dynamo.NewBody(
				dynamo.Vec3{vals[0], vals[1], vals[2]},
				dynamo.Vec3{vals[3], vals[4], vals[5]},
				radius,
			)
			if err != nil {
				return nil, err
			}
		}
		snaps = append(snaps, dynamo.Snapshot{Tick: tick, Bodies: bodies})
	}

	return snaps, nil
}
