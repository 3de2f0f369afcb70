package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/metrics"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	configFile   = "config.yaml"
)

// ErrRunNotFound is returned when a run id has no metadata on disk.
var ErrRunNotFound = errors.New("storage: run not found")

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
	clock   clock.Clock
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, clock: clock.New()}
}

// WithClock replaces the clock used to stamp and name runs.
func (s *Store) WithClock(clk clock.Clock) *Store {
	s.clock = clk
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Drive      string             `json:"drive"`
	Scenario   string             `json:"scenario,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	TickPeriod string             `json:"tick_period"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Run is everything persisted for one simulated run.
type Run struct {
	Config   *config.Config
	Scenario string
	Samples  []metrics.Sample
	Metrics  map[string]float64
}

func (s *Store) Save(run *Run) (string, error) {
	if run.Config == nil {
		return "", errors.New("storage: run has no config")
	}
	now := s.clock.Now()
	runID, runDir, err := s.allocate(run.Config.Name, now)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       run.Config.Name,
		Drive:      run.Config.Drive,
		Scenario:   run.Scenario,
		Timestamp:  now,
		TickPeriod: run.Config.Chassis.TickPeriod.String(),
		Steps:      len(run.Samples),
		Metrics:    run.Metrics,
	}
	if n := len(run.Samples); n > 0 {
		meta.Duration = run.Samples[n-1].Time
	}

	if err := writeRun(runDir, meta, run); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

// writeRun writes the metadata last so a run only lists once it is whole.
func writeRun(runDir string, meta RunMetadata, run *Run) error {
	if err := config.Save(filepath.Join(runDir, configFile), run.Config); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return errors.Wrap(err, "create samples")
	}
	if err := ExportCSV(f, run.Samples); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close samples")
	}
	return writeJSON(filepath.Join(runDir, metadataFile), meta)
}

func (s *Store) allocate(name string, now time.Time) (string, string, error) {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = "run"
	}
	base := fmt.Sprintf("%s_%d", name, now.Unix())
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			if err := os.MkdirAll(runDir, 0755); err != nil {
				return "", "", errors.Wrap(err, "create run dir")
			}
			return runID, runDir, nil
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

// List returns every readable run, oldest first.
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
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "parse metadata for %s", runID)
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadSamples(runID string) ([]metrics.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ExportCSV writes samples with a header row in metrics.Columns order.
func ExportCSV(w io.Writer, samples []metrics.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(metrics.Columns()); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, s := range samples {
		vals := s.Values()
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write sample")
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses what ExportCSV writes. Unparseable rows are an error.
func ReadCSV(r io.Reader) ([]metrics.Sample, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read samples")
	}
	if len(records) < 2 {
		return []metrics.Sample{}, nil
	}

	samples := make([]metrics.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %d", i+1, j)
			}
			vals[j] = v
		}
		s, err := metrics.FromValues(vals)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+1)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", filepath.Base(path))
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(v), "write %s", filepath.Base(path))
}
