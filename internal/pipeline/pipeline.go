// Package pipeline runs the per-frame recognition loop: detect faces, extract a
// feature per face, match it against the gallery and update attendance and counts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/capture"
	"github.com/kozaktomas/face-attendance/internal/counter"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/gallery"
)

var (
	// ErrNoFaceDetected is returned by enrollment when the image holds no usable face.
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrFeatureMismatch is returned by enrollment when the extracted feature does not
	// fit the active strategy.
	ErrFeatureMismatch = errors.New("feature does not fit strategy")
)

const detectJPEGQuality = 90

// Detector finds faces in an encoded image. Bounding boxes are in the pixel
// coordinates of the image it was given.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) ([]fingerprint.FaceDetection, error)
}

// Sink receives the outcome of every processed frame.
type Sink interface {
	Frame(res *FrameResult, img image.Image)
}

// Face is one recognised (or unknown) face in a frame.
type Face struct {
	BBox     facematch.BBox `json:"bbox"`
	Label    string         `json:"label"`
	Known    bool           `json:"known"`
	Distance float64        `json:"distance"`
	Score    float64        `json:"score"`
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Index   int       `json:"index"`
	Time    time.Time `json:"time"`
	Faces   []Face    `json:"faces"`
	Count   int       `json:"count"`
	Visible []string  `json:"visible"`
}

// Options configures a Processor.
type Options struct {
	Strategy      facematch.Strategy
	MinConfidence float64       // detections must score above this
	ProcessEveryN int           // Run processes every N-th frame, <= 1 means every frame
	FrameScale    float64       // downscale factor applied before detection, 0 or >= 1 disables
	FaceMargin    int           // pixels added around each detected box
	StaleAfter    time.Duration // presence window
	UseIndex      bool          // HNSW candidate search for euclidean/cosine strategies
	KnownFacesDir string        // enrollment crops are written here when set
	CountLog      *counter.CountLog
	Sinks         []Sink
	Locker        sync.Locker // held by Run around each processed frame when set
}

// Stats summarises a Run.
type Stats struct {
	Frames    int
	Processed int
	Failed    int
}

// Processor owns the recognition state. It is not safe for concurrent use; callers
// that share it between goroutines must serialise access.
type Processor struct {
	detector Detector
	gallery  *gallery.Gallery
	matcher  *facematch.Matcher
	index    *database.GalleryIndex
	tracker  *attendance.Tracker
	presence *attendance.Presence
	counter  *counter.Counter
	opts     Options
	now      func() time.Time
}

// NewProcessor validates opts and builds the candidate index for the loaded gallery.
func NewProcessor(detector Detector, g *gallery.Gallery, opts Options) (*Processor, error) {
	if detector == nil {
		return nil, errors.New("detector is required")
	}
	if g == nil {
		return nil, errors.New("gallery is required")
	}
	if err := opts.Strategy.Validate(); err != nil {
		return nil, err
	}
	if opts.MinConfidence < 0 || opts.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence must be within [0, 1], got %v", opts.MinConfidence)
	}
	if opts.ProcessEveryN < 1 {
		opts.ProcessEveryN = 1
	}

	p := &Processor{
		detector: detector,
		gallery:  g,
		matcher:  facematch.NewMatcher(opts.Strategy),
		tracker:  attendance.NewTracker(),
		presence: attendance.NewPresence(opts.StaleAfter),
		counter:  counter.New(),
		opts:     opts,
		now:      time.Now,
	}

	if opts.UseIndex {
		if !database.Supports(opts.Strategy.Metric) {
			log.Printf("Warning: HNSW index does not support %s distance, matching exhaustively", opts.Strategy.Metric)
		} else {
			idx, err := database.NewGalleryIndex(opts.Strategy.Metric)
			if err != nil {
				return nil, err
			}
			p.index = idx
		}
	}
	if err := p.reindex(); err != nil {
		return nil, err
	}
	return p, nil
}

// reindex rebuilds the candidate index after the gallery changed.
func (p *Processor) reindex() error {
	if p.index == nil {
		return nil
	}
	if err := p.index.Build(p.gallery.Entries(), p.opts.Strategy.Dim); err != nil {
		return fmt.Errorf("build gallery index: %w", err)
	}
	return nil
}

// Gallery returns the face gallery.
func (p *Processor) Gallery() *gallery.Gallery { return p.gallery }

// Tracker returns the attendance tracker.
func (p *Processor) Tracker() *attendance.Tracker { return p.tracker }

// Presence returns the currently-visible tracker.
func (p *Processor) Presence() *attendance.Presence { return p.presence }

// Counter returns the people counter.
func (p *Processor) Counter() *counter.Counter { return p.counter }

// Strategy returns the active strategy including any tolerance change.
func (p *Processor) Strategy() facematch.Strategy { return p.matcher.Strategy }

// ProcessFrame detects, recognises and records every face in frame.
func (p *Processor) ProcessFrame(ctx context.Context, frame *capture.Frame) (*FrameResult, error) {
	img, err := frameImage(frame)
	if err != nil {
		return nil, err
	}
	now := frame.Time
	if now.IsZero() {
		now = p.now()
	}

	faces, err := p.detect(ctx, img, frame.Data)
	if err != nil {
		return nil, err
	}

	res := &FrameResult{Index: frame.Index, Time: now, Faces: make([]Face, 0, len(faces))}
	boxes := make([]facematch.BBox, 0, len(faces))
	names := make([]string, 0, len(faces))

	for _, f := range faces {
		feature, err := p.feature(img, f)
		if err != nil {
			log.Printf("Warning: frame %d: skipping face feature: %v", frame.Index, err)
		}

		face := Face{BBox: f.box, Score: f.score, Label: facematch.Unknown}
		if len(feature) > 0 {
			match, found := p.match(feature)
			face.Label = facematch.Label(match, found)
			face.Known = found
			if match.Index >= 0 {
				face.Distance = match.Distance
			}
		}

		if face.Known {
			p.tracker.Record(face.Label, now)
		}
		res.Faces = append(res.Faces, face)
		boxes = append(boxes, face.BBox)
		names = append(names, face.Label)
	}

	p.presence.Observe(names, now)
	res.Count = p.counter.Update(boxes)
	res.Visible = p.presence.Visible()

	if p.opts.CountLog != nil {
		if err := p.opts.CountLog.Append(now, res.Count); err != nil {
			log.Printf("Warning: failed to write count log: %v", err)
		}
	}

	for _, s := range p.opts.Sinks {
		s.Frame(res, img)
	}
	return res, nil
}

// Run pulls frames from src and processes every N-th one. It stops at the end of
// the stream, on a read failure or when ctx is cancelled. Detection failures skip
// the frame.
func (p *Processor) Run(ctx context.Context, src capture.Source) Stats {
	var stats Stats
	for n := 0; ; n++ {
		if ctx.Err() != nil {
			return stats
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats
		}
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("Warning: failed to read frame, stopping: %v", err)
			}
			return stats
		}
		stats.Frames++

		if n%p.opts.ProcessEveryN != 0 {
			continue
		}

		if _, err := p.processLocked(ctx, frame); err != nil {
			if ctx.Err() != nil {
				return stats
			}
			log.Printf("Warning: frame %d: %v", frame.Index, err)
			stats.Failed++
			continue
		}
		stats.Processed++
	}
}

// processLocked runs ProcessFrame holding Options.Locker when one is set.
func (p *Processor) processLocked(ctx context.Context, frame *capture.Frame) (*FrameResult, error) {
	if p.opts.Locker != nil {
		p.opts.Locker.Lock()
		defer p.opts.Locker.Unlock()
	}
	return p.ProcessFrame(ctx, frame)
}

// match compares a feature against the gallery, narrowing the search through the
// HNSW index when it is enabled and holds features of the query's length.
// A candidate set made only of ties falls back to the exhaustive pass so the
// earliest enrolled entry still wins.
func (p *Processor) match(feature []float32) (facematch.Result, bool) {
	entries := p.gallery.Entries()
	if p.index != nil && !p.index.IsEmpty() {
		if candidates := p.index.Candidates(feature, 1); len(candidates) > 0 {
			res, ok := p.matcher.MatchCandidates(feature, entries, candidates)
			if res.Index >= 0 && !p.saturatedByTies(feature, entries, candidates, res.Distance) {
				return res, ok
			}
		}
	}
	return p.matcher.Match(feature, entries)
}

// saturatedByTies reports whether every candidate sits at the best distance while
// the gallery holds entries outside the candidate set.
func (p *Processor) saturatedByTies(feature []float32, entries []facematch.Entry, candidates []int, best float64) bool {
	if len(candidates) >= len(entries) {
		return false
	}
	metric := p.matcher.Strategy.Metric
	for _, c := range candidates {
		if c < 0 || c >= len(entries) || len(entries[c].Feature) != len(feature) {
			continue
		}
		if metric.Distance(feature, entries[c].Feature) > best {
			return false
		}
	}
	return true
}

func frameImage(frame *capture.Frame) (image.Image, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	if frame.Image != nil {
		return frame.Image, nil
	}
	if len(frame.Data) == 0 {
		return nil, errors.New("frame has no image data")
	}
	return fingerprint.DecodeImage(frame.Data)
}
