// Package report writes batch results as CSV tables and JSON.
//
// Areas are rounded to two decimals here and nowhere else.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ironsheep/leaf-area-tools/internal/measure"
)

// Column headers of the two CSV tables.
var (
	SummaryHeader = []string{"Image Name", "Total Leaf Area (cm²)", "Number of Leaves", "Average Leaf Area (cm²)"}
	DetailHeader  = []string{"Image Name", "Leaf #", "Leaf Area (cm²)"}
)

// FormatArea renders an area in cm² with two decimals.
func FormatArea(v float64) string {
	return strconv.FormatFloat(measure.Round2(v), 'f', 2, 64)
}

// WriteSummary writes one row per image.
func WriteSummary(w io.Writer, summaries []measure.ImageSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		row := []string{s.Image, FormatArea(s.TotalCm2), strconv.Itoa(s.Count), FormatArea(s.AverageCm2)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDetail writes one row per leaf.
func WriteDetail(w io.Writer, records []measure.LeafRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DetailHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{r.Image, strconv.Itoa(r.Index), FormatArea(r.AreaCm2)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON form of a batch.
type Document struct {
	RatioPxPerCm float64                `json:"ratio_px_per_cm"`
	Images       []measure.ImageSummary `json:"images"`
	Leaves       []measure.LeafRecord   `json:"leaves"`
	Failures     []string               `json:"failures,omitempty"`
}

// NewDocument builds a Document with areas rounded for output.
func NewDocument(ratio float64, summaries []measure.ImageSummary, records []measure.LeafRecord, failures []error) Document {
	doc := Document{
		RatioPxPerCm: measure.Round2(ratio),
		Images:       make([]measure.ImageSummary, len(summaries)),
		Leaves:       make([]measure.LeafRecord, len(records)),
	}
	for i, s := range summaries {
		s.TotalCm2 = measure.Round2(s.TotalCm2)
		s.AverageCm2 = measure.Round2(s.AverageCm2)
		doc.Images[i] = s
	}
	for i, r := range records {
		r.AreaCm2 = measure.Round2(r.AreaCm2)
		doc.Leaves[i] = r
	}
	for _, err := range failures {
		doc.Failures = append(doc.Failures, err.Error())
	}
	return doc
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteFile creates path and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
