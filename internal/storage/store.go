package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/takosim/internal/ball"
	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/lifecycle"
	"github.com/san-kum/takosim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	eventsFile   = "events.json"
	snapshotFile = "snapshot.json"
)

var ErrNoSnapshot = errors.New("storage: run has no snapshot")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was produced.
type RunInfo struct {
	Name   string  `json:"name"`
	Shaper string  `json:"shaper"`
	Seed   uint64  `json:"seed"`
	Dt     float64 `json:"dt"`
	Source string  `json:"source"`
}

type RunMetadata struct {
	RunInfo
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Final     lifecycle.State    `json:"final_state"`
	Score     *lifecycle.Score   `json:"score,omitempty"`
	Comment   string             `json:"comment,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding metadata, samples, events and, when
// snap is non-nil, the closing snapshot.
func (s *Store) Save(info RunInfo, result *sim.Result, snap *sim.Snapshot) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", info.Name, now.UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		RunInfo:   info,
		ID:        runID,
		Timestamp: now,
		Duration:  result.Duration,
		Steps:     result.StepsTaken,
		Final:     result.Final,
		Score:     result.Score,
		Comment:   result.Comment,
		Metrics:   result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, eventsFile), result.Events); err != nil {
		return "", err
	}
	if snap != nil {
		if err := writeJSON(filepath.Join(runDir, snapshotFile), snap); err != nil {
			return "", err
		}
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSamplesCSV(csvFile, result.Samples); err != nil {
		return "", err
	}
	return runID, nil
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

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// List returns every stored run, oldest first. Unreadable runs are skipped.
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

		var meta RunMetadata
		if err := readJSON(filepath.Join(s.baseDir, entry.Name(), metadataFile), &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
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
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.baseDir, runID, metadataFile), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadEvents(runID string) ([]feedback.Event, error) {
	var events []feedback.Event
	if err := readJSON(filepath.Join(s.baseDir, runID, eventsFile), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) LoadSnapshot(runID string) (*sim.Snapshot, error) {
	var snap sim.Snapshot
	err := readJSON(filepath.Join(s.baseDir, runID, snapshotFile), &snap)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, runID)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadSamplesCSV(file)
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("storage: no runs")
	}
	return runs[len(runs)-1].ID, nil
}

var csvHeader = func() []string {
	h := []string{"step", "time", "state", "spin", "cook"}
	for f := ball.Facet(0); f < ball.NumFacets; f++ {
		h = append(h, "facet_"+f.String())
	}
	return append(h, "progress", "mastery", "pulse", "combo", "harmony",
		"pressure", "quality", "p", "i", "d", "deformation")
}()

func WriteSamplesCSV(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, s := range samples {
		row := []string{strconv.Itoa(s.Step), ff(s.Time), s.State.String(), ff(s.Spin), ff(s.Cook)}
		for _, v := range s.Facets {
			row = append(row, ff(v))
		}
		row = append(row,
			ff(s.Progress), ff(s.Mastery), ff(s.Pulse), strconv.Itoa(s.Combo),
			ff(s.Harmony), ff(s.Pressure), ff(s.Quality),
			ff(s.P), ff(s.I), ff(s.D), ff(s.Deformation))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadSamplesCSV(r io.Reader) ([]sim.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("samples row %d: %w", i+1, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(rec []string) (sim.Sample, error) {
	var s sim.Sample
	var err error
	col := 0
	next := func() string { v := rec[col]; col++; return v }
	num := func() float64 {
		if err != nil {
			return 0
		}
		var v float64
		v, err = strconv.ParseFloat(next(), 64)
		return v
	}
	integer := func() int {
		if err != nil {
			return 0
		}
		var v int
		v, err = strconv.Atoi(next())
		return v
	}

	s.Step = integer()
	s.Time = num()
	if err == nil {
		err = s.State.UnmarshalText([]byte(next()))
	}
	s.Spin = num()
	s.Cook = num()
	for f := range s.Facets {
		s.Facets[f] = num()
	}
	s.Progress = num()
	s.Mastery = num()
	s.Pulse = num()
	s.Combo = integer()
	s.Harmony = num()
	s.Pressure = num()
	s.Quality = num()
	s.P = num()
	s.I = num()
	s.D = num()
	s.Deformation = num()
	return s, err
}
