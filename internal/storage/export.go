package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/takosim/internal/feedback"
	"github.com/san-kum/takosim/internal/sim"
)

type ExportData struct {
	Meta    *RunMetadata     `json:"meta"`
	Steps   int              `json:"steps"`
	Samples []sim.Sample     `json:"samples"`
	Events  []feedback.Event `json:"events"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample, events []feedback.Event) error {
	data := ExportData{
		Meta:    meta,
		Steps:   len(samples),
		Samples: samples,
		Events:  events,
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportRun writes a stored run as one JSON document to path, or to stdout
// when path is empty.
func (s *Store) ExportRun(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	events, err := s.LoadEvents(runID)
	if err != nil {
		return err
	}

	if path == "" {
		return ExportJSON(os.Stdout, meta, samples, events)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, samples, events)
}
