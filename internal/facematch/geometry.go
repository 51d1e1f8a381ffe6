package facematch

import (
	"image"
	"math"
)

// BBox is a face bounding box [x1, y1, x2, y2] in pixel coordinates.
type BBox [4]float64

// BBoxFromSlice converts the detection service's [x1, y1, x2, y2] slice to a BBox.
// The second return value is false when the slice does not have four values.
func BBoxFromSlice(v []float64) (BBox, bool) {
	if len(v) != 4 {
		return BBox{}, false
	}
	return BBox{v[0], v[1], v[2], v[3]}, true
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 { return b[2] - b[0] }

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b[3] - b[1] }

// Empty reports whether the box has no area.
func (b BBox) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Scale multiplies every coordinate by factor, e.g. to map a box found on a
// downscaled frame back to the full frame.
func (b BBox) Scale(factor float64) BBox {
	return BBox{b[0] * factor, b[1] * factor, b[2] * factor, b[3] * factor}
}

// Expand grows the box by margin pixels on every side and clamps it to a
// width x height frame.
func (b BBox) Expand(margin float64, width, height int) BBox {
	return BBox{
		max(0, b[0]-margin),
		max(0, b[1]-margin),
		min(float64(width), b[2]+margin),
		min(float64(height), b[3]+margin),
	}
}

// Rect converts the box to an integer rectangle, rounding outward.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(b[0])),
		int(math.Floor(b[1])),
		int(math.Ceil(b[2])),
		int(math.Ceil(b[3])),
	)
}
