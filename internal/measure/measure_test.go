package measure

import (
	"math"
	"testing"

	"github.com/ironsheep/leaf-area-tools/internal/calibration"
	"github.com/ironsheep/leaf-area-tools/internal/detection"
)

func regionsWithAreas(areas ...float64) []detection.Region {
	rs := make([]detection.Region, len(areas))
	for i, a := range areas {
		rs[i] = detection.Region{ID: i, Parent: -1, Area: a}
	}
	return rs
}

func TestPhysicalArea(t *testing.T) {
	tests := []struct {
		pixels float64
		ratio  calibration.Ratio
		want   float64
	}{
		{50000, 100, 5},
		{10000, 100, 1},
		{0, 100, 0},
		{900, 30, 1},
		{1, 2, 0.25},
	}
	for _, tt := range tests {
		if got := PhysicalArea(tt.pixels, tt.ratio); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PhysicalArea(%v, %v) = %v, want %v", tt.pixels, float64(tt.ratio), got, tt.want)
		}
	}
}

func TestPhysicalArea_Monotonic(t *testing.T) {
	prev := -1.0
	for px := 0.0; px <= 5000; px += 37 {
		got := PhysicalArea(px, 42.5)
		if got <= prev {
			t.Fatalf("PhysicalArea(%v) = %v not above %v", px, got, prev)
		}
		prev = got
	}
}

func TestMinPixelArea(t *testing.T) {
	if got := MinPixelArea(0.01, 100); math.Abs(got-100) > 1e-9 {
		t.Errorf("MinPixelArea(0.01, 100) = %v, want 100", got)
	}
	if got := MinPixelArea(DefaultMinLeafAreaCm2, 100); got != 5000 {
		t.Errorf("default threshold at 100 px/cm = %v, want 5000", got)
	}
	// Round trip through PhysicalArea.
	if got := PhysicalArea(MinPixelArea(0.37, 58), 58); math.Abs(got-0.37) > 1e-12 {
		t.Errorf("round trip = %v, want 0.37", got)
	}
}

func TestAggregate(t *testing.T) {
	res := Aggregate("leaf.jpg", regionsWithAreas(50000, 20000, 10000), 100)

	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	for i, rec := range res.Records {
		if rec.Index != i+1 {
			t.Errorf("record %d: Index %d", i, rec.Index)
		}
		if rec.Image != "leaf.jpg" {
			t.Errorf("record %d: Image %q", i, rec.Image)
		}
	}
	if res.Records[0].AreaCm2 != 5 || res.Records[0].PixelArea != 50000 {
		t.Errorf("record 1: %+v", res.Records[0])
	}

	s := res.Summary
	if s.Count != 3 || math.Abs(s.TotalCm2-8) > 1e-12 {
		t.Errorf("summary: %+v", s)
	}
	if math.Abs(s.AverageCm2-8.0/3) > 1e-12 {
		t.Errorf("AverageCm2 = %v, want %v", s.AverageCm2, 8.0/3)
	}
}

func TestAggregate_SummaryConsistency(t *testing.T) {
	res := Aggregate("x.png", regionsWithAreas(123.4, 5678.9, 42, 99999.5, 1), 37.3)

	var total float64
	for _, rec := range res.Records {
		total += rec.AreaCm2
	}
	if math.Abs(res.Summary.TotalCm2-total) > 1e-9 {
		t.Errorf("TotalCm2 = %v, sum of records = %v", res.Summary.TotalCm2, total)
	}
	if math.Abs(res.Summary.AverageCm2*float64(res.Summary.Count)-res.Summary.TotalCm2) > 1e-9 {
		t.Errorf("AverageCm2 x Count != TotalCm2: %+v", res.Summary)
	}
}

func TestAggregate_NoRegions(t *testing.T) {
	res := Aggregate("bare.png", nil, 100)

	if len(res.Records) != 0 {
		t.Errorf("got %d records", len(res.Records))
	}
	want := ImageSummary{Image: "bare.png"}
	if res.Summary != want {
		t.Errorf("summary = %+v, want %+v", res.Summary, want)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{5, 5},
		{2.344, 2.34},
		{2.346, 2.35},
		{0.125, 0.13},
		{-1.005, -1},
		{2.0 / 3, 0.67},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
