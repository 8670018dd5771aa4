//go:build gocv

package detection

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ironsheep/leaf-area-tools/internal/segment"
)

func newOpenCVExtractor() (Extractor, error) {
	return ExtractorFunc(extractOpenCV), nil
}

// extractOpenCV traces m with cv::findContours in tree mode. Areas and
// perimeters come from OpenCV as well; holes are inferred from odd depth.
func extractOpenCV(m *segment.Mask) (*Hierarchy, error) {
	if m.Width == 0 || m.Height == 0 {
		return &Hierarchy{}, nil
	}

	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to wrap mask: %w", err)
	}
	defer mat.Close()

	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(mat, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	out := &Hierarchy{Regions: make([]Region, contours.Size())}
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		pts := pv.ToPoints()
		parent := int(hierarchy.GetVeciAt(0, i)[3])
		if parent < 0 {
			parent = -1
		}
		out.Regions[i] = Region{
			ID:        i,
			Parent:    parent,
			Contour:   pts,
			Area:      gocv.ContourArea(pv),
			Perimeter: gocv.ArcLength(pv, true),
			Bounds:    BoundingBox(pts),
		}
	}
	for i := range out.Regions {
		out.Regions[i].Hole = out.Depth(i)%2 == 1
	}
	return out, nil
}
