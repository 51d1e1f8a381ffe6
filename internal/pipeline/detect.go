package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
)

// detectedFace is a detection mapped onto the full frame and expanded by the margin.
type detectedFace struct {
	box       facematch.BBox
	score     float64
	embedding []float32
}

// detect runs the detector on a downscaled copy of img and returns the accepted
// faces in full-frame coordinates, in detector order.
func (p *Processor) detect(ctx context.Context, img image.Image, data []byte) ([]detectedFace, error) {
	scaled := p.opts.FrameScale > 0 && p.opts.FrameScale < 1
	small := fingerprint.ScaleImage(img, p.opts.FrameScale)

	payload := data
	if scaled || len(payload) == 0 {
		encoded, err := fingerprint.EncodeJPEG(small, detectJPEGQuality)
		if err != nil {
			return nil, err
		}
		payload = encoded
	}

	detections, err := p.detector.Detect(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	bounds := img.Bounds()
	ratio := 1.0
	if w := small.Bounds().Dx(); w > 0 {
		ratio = float64(bounds.Dx()) / float64(w)
	}

	faces := make([]detectedFace, 0, len(detections))
	for _, d := range detections {
		if d.DetScore <= p.opts.MinConfidence {
			continue
		}
		box, ok := facematch.BBoxFromSlice(d.BBox)
		if !ok {
			continue
		}
		box = box.Scale(ratio).Expand(float64(p.opts.FaceMargin), bounds.Dx(), bounds.Dy())
		if box.Empty() {
			continue
		}
		faces = append(faces, detectedFace{box: box, score: d.DetScore, embedding: d.Embedding})
	}
	return faces, nil
}

// feature returns the strategy's feature vector for a face.
func (p *Processor) feature(img image.Image, f detectedFace) ([]float32, error) {
	switch p.matcher.Strategy.Extractor {
	case facematch.ExtractorLBP:
		return fingerprint.LBPHistogram(img, f.box.Rect().Add(img.Bounds().Min))
	case facematch.ExtractorService:
		if len(f.embedding) == 0 {
			return nil, fmt.Errorf("detector returned no embedding for strategy %s", p.matcher.Strategy.Name)
		}
		return f.embedding, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", p.matcher.Strategy.Extractor)
	}
}
