// Package measure converts accepted leaf regions into physical areas and
// per-image summaries.
//
// Values are kept at full precision throughout; Round2 is applied only when
// a report is written.
package measure

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/leaf-area-tools/internal/calibration"
	"github.com/ironsheep/leaf-area-tools/internal/detection"
)

// DefaultMinLeafAreaCm2 is the smallest region, in cm², counted as a leaf.
const DefaultMinLeafAreaCm2 = 0.5

// LeafRecord is the measurement of one accepted region.
type LeafRecord struct {
	Image     string  `json:"image"`
	Index     int     `json:"index"` // 1-based, in acceptance order
	AreaCm2   float64 `json:"area_cm2"`
	PixelArea float64 `json:"pixel_area"`
}

// ImageSummary aggregates the records of one image.
type ImageSummary struct {
	Image      string  `json:"image"`
	Count      int     `json:"count"`
	TotalCm2   float64 `json:"total_cm2"`
	AverageCm2 float64 `json:"average_cm2"` // 0 when Count is 0
}

// Result holds everything measured for one image.
type Result struct {
	Records []LeafRecord `json:"records"`
	Summary ImageSummary `json:"summary"`
}

// PhysicalArea converts an area in square pixels to cm².
func PhysicalArea(pixelArea float64, ratio calibration.Ratio) float64 {
	r := float64(ratio)
	return pixelArea / (r * r)
}

// MinPixelArea converts a minimum leaf area in cm² to square pixels.
func MinPixelArea(minCm2 float64, ratio calibration.Ratio) float64 {
	r := float64(ratio)
	return minCm2 * r * r
}

// Aggregate measures the regions of one image. Regions must already be
// filtered; each becomes a LeafRecord numbered from 1 in slice order.
func Aggregate(image string, regions []detection.Region, ratio calibration.Ratio) Result {
	records := make([]LeafRecord, len(regions))
	for i, r := range regions {
		records[i] = LeafRecord{
			Image:     image,
			Index:     i + 1,
			AreaCm2:   PhysicalArea(r.Area, ratio),
			PixelArea: r.Area,
		}
	}
	return Result{Records: records, Summary: Summarize(image, records)}
}

// Summarize totals records. The average is 0 when there are no records.
func Summarize(image string, records []LeafRecord) ImageSummary {
	areas := make([]float64, len(records))
	for i, rec := range records {
		areas[i] = rec.AreaCm2
	}

	s := ImageSummary{Image: image, Count: len(records)}
	if s.Count == 0 {
		return s
	}
	s.TotalCm2 = floats.Sum(areas)
	s.AverageCm2 = s.TotalCm2 / float64(s.Count)
	return s
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
