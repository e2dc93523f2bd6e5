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

	"github.com/google/uuid"
	"github.com/san-kum/shapesim/internal/sim"
)

var ErrNoFrames = errors.New("run has no recorded frames")

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var framesHeader = []string{"tick", "time", "entity", "kind", "x", "y", "vx", "vy"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Timestamp   time.Time           `json:"timestamp"`
	Seed        int64               `json:"seed"`
	Dt          float64             `json:"dt"`
	Duration    float64             `json:"duration"`
	Arena       sim.Arena           `json:"arena"`
	Entities    int                 `json:"entities"`
	Steps       int                 `json:"steps"`
	Fires       int                 `json:"fires"`
	Reflections int                 `json:"reflections"`
	Fingerprint string              `json:"fingerprint"`
	Colliders   *sim.ColliderReport `json:"colliders,omitempty"`
	Metrics     map[string]float64  `json:"metrics"`
}

// NewRunID returns name_unix_xxxxxxxx; the uuid suffix separates runs started
// in the same second.
func NewRunID(name string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", name, now.Unix(), uuid.NewString()[:8])
}

// Save writes meta and the recorded frames of result under a new run directory.
// ID, Timestamp and the result counters in meta are filled in here.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.ID = NewRunID(meta.Name, now)
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.Fires = result.Fires
	meta.Reflections = result.Reflections
	meta.Fingerprint = strconv.FormatUint(result.Fingerprint, 16)
	meta.Metrics = result.Metrics
	if len(result.Frames) > 0 {
		meta.Entities = len(result.Frames[0].Bodies)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeFrames(path string, frames []sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(framesHeader); err != nil {
		return err
	}

	row := make([]string, len(framesHeader))
	for _, fr := range frames {
		for _, b := range fr.Bodies {
			row[0] = strconv.Itoa(fr.Tick)
			row[1] = strconv.FormatFloat(fr.Time, 'f', 6, 64)
			row[2] = strconv.FormatUint(uint64(b.ID), 10)
			row[3] = b.Kind.String()
			row[4] = formatFloat(b.Position[0])
			row[5] = formatFloat(b.Position[1])
			row[6] = formatFloat(b.Velocity[0])
			row[7] = formatFloat(b.Velocity[1])
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
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

// LoadFrames rebuilds the recorded frames of a run from frames.csv.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(framesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Frame{}, nil
	}

	frames := make([]sim.Frame, 0)
	for i, rec := range records[1:] {
		tick, t, body, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", framesFile, i+2, err)
		}
		if n := len(frames); n == 0 || frames[n-1].Tick != tick {
			frames = append(frames, sim.Frame{Tick: tick, Time: t})
		}
		last := &frames[len(frames)-1]
		last.Bodies = append(last.Bodies, body)
	}
	return frames, nil
}

// Series extracts one value per recorded frame for the entity, for plotting.
// field is one of x, y, vx, vy, speed.
func Series(frames []sim.Frame, id sim.EntityID, field string) ([]float64, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	out := make([]float64, 0, len(frames))
	for _, fr := range frames {
		for _, b := range fr.Bodies {
			if b.ID != id {
				continue
			}
			v, err := bodyField(b, field)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("entity %d not found in run", id)
	}
	return out, nil
}

func bodyField(b sim.Body, field string) (float64, error) {
	switch field {
	case "x":
		return float64(b.Position[0]), nil
	case "y":
		return float64(b.Position[1]), nil
	case "vx":
		return float64(b.Velocity[0]), nil
	case "vy":
		return float64(b.Velocity[1]), nil
	case "speed":
		return float64(b.Velocity.Len()), nil
	default:
		return 0, fmt.Errorf("unknown field %q", field)
	}
}

func parseRow(rec []string) (int, float64, sim.Body, error) {
	var b sim.Body

	tick, err := strconv.Atoi(rec[0])
	if err != nil {
		return 0, 0, b, err
	}
	t, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return 0, 0, b, err
	}
	id, err := strconv.ParseUint(rec[2], 10, 32)
	if err != nil {
		return 0, 0, b, err
	}
	b.ID = sim.EntityID(id)
	if err := b.Kind.UnmarshalText([]byte(rec[3])); err != nil {
		return 0, 0, b, err
	}

	var vals [4]float32
	for j := range vals {
		v, err := strconv.ParseFloat(rec[4+j], 32)
		if err != nil {
			return 0, 0, b, err
		}
		vals[j] = float32(v)
	}
	b.Position = sim.Vec2{vals[0], vals[1]}
	b.Velocity = sim.Vec2{vals[2], vals[3]}
	return tick, t, b, nil
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
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
