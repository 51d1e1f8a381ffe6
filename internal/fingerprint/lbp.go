package fingerprint

import (
	"image"
	"math"
)

const (
	// HistogramBins is the length of an LBP feature vector.
	HistogramBins = 256

	lbpRadius    = 3.0
	lbpNeighbors = 8
	lbpCropSize  = 100
)

// LBPHistogram computes the face feature used by the histogram strategy: the face
// region is cropped, resized to a fixed size, converted to grayscale and described
// by an L2-normalised histogram of circular local binary pattern codes.
func LBPHistogram(img image.Image, rect image.Rectangle) ([]float32, error) {
	crop, err := CropImage(img, rect)
	if err != nil {
		return nil, err
	}
	gray := toGrayscale(resizeImage(crop, lbpCropSize, lbpCropSize))
	return normalizeL2(lbpCounts(gray)), nil
}

// lbpCounts builds the raw code histogram. Each pixel is compared with
// lbpNeighbors points on a circle of lbpRadius, sampled with bilinear interpolation.
// Samples outside the image are clamped to the border.
func lbpCounts(gray [][]float64) []float64 {
	hist := make([]float64, HistogramBins)
	height := len(gray)
	if height == 0 {
		return hist
	}
	width := len(gray[0])

	dx := make([]float64, lbpNeighbors)
	dy := make([]float64, lbpNeighbors)
	for n := range lbpNeighbors {
		angle := 2 * math.Pi * float64(n) / lbpNeighbors
		dx[n] = lbpRadius * math.Cos(angle)
		dy[n] = -lbpRadius * math.Sin(angle)
	}

	for y := range height {
		for x := range width {
			center := gray[y][x]
			code := 0
			for n := range lbpNeighbors {
				if sample(gray, float64(x)+dx[n], float64(y)+dy[n]) >= center {
					code |= 1 << n
				}
			}
			hist[code]++
		}
	}
	return hist
}

// sample reads gray at a fractional position using bilinear interpolation.
func sample(gray [][]float64, x, y float64) float64 {
	height := len(gray)
	width := len(gray[0])

	x = math.Max(0, math.Min(x, float64(width-1)))
	y = math.Max(0, math.Min(y, float64(height-1)))

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, width-1), min(y0+1, height-1)
	wx, wy := x-float64(x0), y-float64(y0)

	top := gray[y0][x0]*(1-wx) + gray[y0][x1]*wx
	bottom := gray[y1][x0]*(1-wx) + gray[y1][x1]*wx
	return top*(1-wy) + bottom*wy
}

func normalizeL2(v []float64) []float32 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
