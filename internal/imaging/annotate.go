package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Shape is one outline to draw on an annotated image.
type Shape struct {
	// Polygon is the closed outline; the first vertex is not repeated.
	Polygon []image.Point

	// Label is drawn at the polygon centroid. Empty labels are skipped.
	Label string
}

// AnnotateStyle controls how outlines and labels are rendered.
type AnnotateStyle struct {
	// Outline is the color of polygon edges.
	Outline color.NRGBA

	// Thickness is the edge width in pixels. Values below 1 are treated as 1.
	Thickness int

	// LabelColor is the color of label text.
	LabelColor color.NRGBA

	// LabelScale is the integer magnification of the 7x13 bitmap font.
	// Values below 1 are treated as 1.
	LabelScale int
}

// DefaultAnnotateStyle returns red 2px outlines with blue labels at 3x scale.
func DefaultAnnotateStyle() AnnotateStyle {
	return AnnotateStyle{
		Outline:    color.NRGBA{R: 255, A: 255},
		Thickness:  2,
		LabelColor: color.NRGBA{B: 255, A: 255},
		LabelScale: 3,
	}
}

// Annotate returns a copy of src with every shape outlined and labeled.
//
// Outlines are drawn first, then labels, so a label is never overdrawn by a
// neighboring outline. A label's baseline-left corner is placed at the
// polygon's centroid; shapes whose centroid is undefined (zero area) get an
// outline but no label.
func Annotate(src image.Image, shapes []Shape, style AnnotateStyle) *image.NRGBA {
	dst := imaging.Clone(src)

	if style.Thickness < 1 {
		style.Thickness = 1
	}
	if style.LabelScale < 1 {
		style.LabelScale = 1
	}

	for _, s := range shapes {
		drawPolygon(dst, s.Polygon, style.Outline, style.Thickness)
	}
	for _, s := range shapes {
		if s.Label == "" {
			continue
		}
		c, ok := Centroid(s.Polygon)
		if !ok {
			continue
		}
		drawLabel(dst, c, s.Label, style.LabelColor, style.LabelScale)
	}
	return dst
}

// drawPolygon strokes every edge of a closed polygon, including the closing
// edge from the last vertex back to the first.
func drawPolygon(img *image.NRGBA, poly []image.Point, c color.NRGBA, thickness int) {
	switch len(poly) {
	case 0:
		return
	case 1:
		stamp(img, poly[0].X, poly[0].Y, c, thickness)
		return
	}
	for i := range poly {
		drawLine(img, poly[i], poly[(i+1)%len(poly)], c, thickness)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm, stamping a square
// brush of the given thickness at every step.
func drawLine(img *image.NRGBA, a, b image.Point, c color.NRGBA, thickness int) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		stamp(img, x, y, c, thickness)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// stamp fills a thickness×thickness square anchored so that the center pixel
// is (x, y) for odd sizes and the lower-right of center for even sizes.
func stamp(img *image.NRGBA, x, y int, c color.NRGBA, thickness int) {
	bounds := img.Bounds()
	lo := -(thickness - 1) / 2
	hi := thickness / 2
	for dy := lo; dy <= hi; dy++ {
		for dx := lo; dx <= hi; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(bounds) {
				img.SetNRGBA(p.X, p.Y, c)
			}
		}
	}
}

// drawLabel renders text with the 7x13 bitmap face, magnifies it with
// nearest-neighbor scaling so glyph edges stay crisp, and composites it
// with its baseline-left corner at origin.
func drawLabel(img *image.NRGBA, origin image.Point, text string, c color.NRGBA, scale int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		return
	}

	glyphs := image.NewNRGBA(image.Rect(0, 0, width, face.Height))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	scaled := imaging.Resize(glyphs, width*scale, face.Height*scale, imaging.NearestNeighbor)
	top := origin.Y - face.Ascent*scale
	r := scaled.Bounds().Add(image.Pt(origin.X, top))
	draw.Draw(img, r, scaled, image.Point{}, draw.Over)
}

// EncodePNGBase64 encodes img as PNG and returns it base64-encoded, the form
// in which the MCP server returns image results.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
