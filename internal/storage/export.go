package storage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/partsim/internal/metrics"
)

type ExportData struct {
	Run    RunMetadata     `json:"run"`
	Frames []metrics.Frame `json:"frames"`
}

// ExportJSON writes a run and its frames as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, frames []metrics.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Frames: frames})
}

// ExportCSV writes the frames with a header row.
func ExportCSV(w io.Writer, frames []metrics.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	return gocsv.Marshal(frames, w)
}

// Export writes a stored run in the given format ("json" or "csv").
func (s *Store) Export(w io.Writer, runID, format string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return ExportJSON(w, *meta, frames)
	case "csv":
		return ExportCSV(w, frames)
	}
	return fmt.Errorf("unknown export format %q", format)
}
