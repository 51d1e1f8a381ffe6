package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"golang.org/x/image/draw"
)

var (
	knownColor   = color.RGBA{0, 255, 0, 255}
	unknownColor = color.RGBA{255, 0, 0, 255}
)

const annotateLineWidth = 2

// AnnotateSink writes every processed frame as a JPEG with a box drawn around
// each face: green for known people, red for unknown.
type AnnotateSink struct {
	dir string
}

// NewAnnotateSink creates the output directory.
func NewAnnotateSink(dir string) (*AnnotateSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create annotation directory: %w", err)
	}
	return &AnnotateSink{dir: dir}, nil
}

// Frame implements Sink. Write failures are logged.
func (s *AnnotateSink) Frame(res *FrameResult, img image.Image) {
	if img == nil {
		return
	}
	dst := Annotate(img, res.Faces)
	data, err := fingerprint.EncodeJPEG(dst, detectJPEGQuality)
	if err != nil {
		log.Printf("Warning: failed to encode annotated frame %d: %v", res.Index, err)
		return
	}
	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.jpg", res.Index))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		log.Printf("Warning: failed to write annotated frame: %v", err)
	}
}

// Annotate returns a copy of img with a rectangle around every face.
func Annotate(img image.Image, faces []Face) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	for _, f := range faces {
		c := unknownColor
		if f.Known {
			c = knownColor
		}
		drawBoundingBox(dst, f.BBox, annotateLineWidth, c)
	}
	return dst
}

// drawBoundingBox draws a rectangle of the given line width inside box.
func drawBoundingBox(dst *image.RGBA, box facematch.BBox, lineWidth int, c color.RGBA) {
	r := box.Rect()
	x1, y1, x2, y2 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1

	for w := range lineWidth {
		drawHLine(dst, x1, x2, y1+w, c)
		drawHLine(dst, x1, x2, y2-w, c)
		drawVLine(dst, y1, y2, x1+w, c)
		drawVLine(dst, y1, y2, x2-w, c)
	}
}

// drawHLine draws a horizontal line on the image.
func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < 0 || y >= bounds.Dy() {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= 0 && x < bounds.Dx() {
			dst.SetRGBA(x, y, c)
		}
	}
}

// drawVLine draws a vertical line on the image.
func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < 0 || x >= bounds.Dx() {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= 0 && y < bounds.Dy() {
			dst.SetRGBA(x, y, c)
		}
	}
}
