// Package capture provides pull-based frame sources for the recognition loop.
package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

// ErrUnavailable is returned when a source cannot be opened.
var ErrUnavailable = errors.New("frame source unavailable")

// Frame is a single captured image. Data holds the encoded bytes, Image the decoded pixels.
type Frame struct {
	Index int
	Data  []byte
	Image image.Image
	Time  time.Time
}

// Source produces frames until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}
