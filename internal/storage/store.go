package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	configFile   = "config.yaml"
)

// ErrRunNotFound indicates no stored run has the requested ID.
var ErrRunNotFound = errors.New("storage: run not found")

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
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Strategy  string             `json:"strategy"`
	Host      string             `json:"host"`
	Particles int                `json:"particles"`
	Frames    int                `json:"frames"`
	Dt        float64            `json:"dt"`
	SubSteps  int                `json:"sub_steps"`
	Seed      int64              `json:"seed"`
	Elapsed   float64            `json:"elapsed_seconds"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the frame telemetry and
// the configuration that produced it. meta.ID and meta.Timestamp are filled
// in when empty.
func (s *Store) Save(meta RunMetadata, cfg *config.Config, frames []metrics.Frame) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = s.now()
	}
	if meta.ID == "" {
		name := meta.Scene
		if name == "" {
			name = "run"
		}
		meta.ID = fmt.Sprintf("%s_%s_%d", name, meta.Strategy, meta.Timestamp.UnixMilli())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("writing %s: %w", metadataFile, err)
	}

	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", fmt.Errorf("writing %s: %w", configFile, err)
		}
	}

	f, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if len(frames) > 0 {
		if err := gocsv.Marshal(frames, f); err != nil {
			return "", fmt.Errorf("writing %s: %w", framesFile, err)
		}
	}
	return meta.ID, nil
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadConfig returns the configuration stored with a run.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadFrames(runID string) ([]metrics.Frame, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	frames := []metrics.Frame{}
	if err := gocsv.UnmarshalFile(f, &frames); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return frames, nil
		}
		return nil, fmt.Errorf("parsing %s frames: %w", runID, err)
	}
	return frames, nil
}

// Delete removes a stored run.
func (s *Store) Delete(runID string) error {
	dir := filepath.Join(s.baseDir, runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return os.RemoveAll(dir)
}
