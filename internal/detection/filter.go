package detection

import (
	"fmt"
	"sort"
)

// DefaultSimplifyFraction is the polygon simplification tolerance as a
// fraction of each region's perimeter.
const DefaultSimplifyFraction = 0.0025

// Order selects how accepted regions are sequenced.
type Order string

const (
	// OrderDiscovery keeps the border tracing order.
	OrderDiscovery Order = "discovery"

	// OrderPosition sorts by the top-left corner of each region's bounding
	// box, top to bottom then left to right. It does not depend on the
	// tracing implementation.
	OrderPosition Order = "position"
)

// ParseOrder converts a configuration string to an Order. The empty string
// means OrderDiscovery.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderDiscovery:
		return OrderDiscovery, nil
	case OrderPosition:
		return OrderPosition, nil
	default:
		return "", fmt.Errorf("unknown region order %q (want %q or %q)", s, OrderDiscovery, OrderPosition)
	}
}

// FilterOptions controls which regions are accepted as leaves.
type FilterOptions struct {
	// MinPixelArea is the exclusive lower bound on region area in square
	// pixels. A region whose area equals it is rejected.
	MinPixelArea float64

	// SimplifyFraction scales each region's perimeter into the polygon
	// simplification tolerance. Zero disables simplification.
	SimplifyFraction float64

	// Order sequences the accepted regions. Empty means OrderDiscovery.
	Order Order
}

// Filter returns the regions of h that qualify as leaves: top-level and with
// Area strictly greater than opts.MinPixelArea.
//
// Nested regions (holes and anything inside them) are rejected whatever
// their size. Accepted regions are copies with Simplified and Holes filled
// in; h is not modified.
func Filter(h *Hierarchy, opts FilterOptions) []Region {
	accepted := make([]Region, 0)
	for _, r := range h.Regions {
		if !r.TopLevel() {
			continue
		}
		if r.Area <= opts.MinPixelArea {
			continue
		}
		r.Simplified = Simplify(r.Contour, opts.SimplifyFraction*r.Perimeter)
		r.Holes = len(h.Children(r.ID))
		accepted = append(accepted, r)
	}

	if opts.Order == OrderPosition {
		sort.SliceStable(accepted, func(i, j int) bool {
			a, b := accepted[i].Bounds.Min, accepted[j].Bounds.Min
			if a.Y != b.Y {
				return a.Y < b.Y
			}
			return a.X < b.X
		})
	}
	return accepted
}
