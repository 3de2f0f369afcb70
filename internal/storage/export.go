package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/actuate/internal/metrics"
)

type ExportData struct {
	Run     RunMetadata      `json:"run"`
	Samples []metrics.Sample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []metrics.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Samples: samples})
}

// Export loads a stored run and writes it to w as JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	return ExportJSON(w, *meta, samples)
}
