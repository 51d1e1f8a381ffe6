package pipeline

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ConsoleSink prints one line per processed frame: known faces in green,
// unknown in red, followed by the people count and the currently visible names.
type ConsoleSink struct {
	w       io.Writer
	known   func(a ...any) string
	unknown func(a ...any) string
	dim     func(a ...any) string
}

// NewConsoleSink creates a sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{
		w:       w,
		known:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		unknown: color.New(color.FgRed).SprintFunc(),
		dim:     color.New(color.Faint).SprintFunc(),
	}
}

// Frame implements Sink.
func (s *ConsoleSink) Frame(res *FrameResult, _ image.Image) {
	labels := make([]string, 0, len(res.Faces))
	for _, f := range res.Faces {
		if f.Known {
			labels = append(labels, s.known(f.Label)+s.dim(fmt.Sprintf(" (%.2f)", f.Distance)))
		} else {
			labels = append(labels, s.unknown(f.Label))
		}
	}

	faces := "-"
	if len(labels) > 0 {
		faces = strings.Join(labels, ", ")
	}
	visible := "-"
	if len(res.Visible) > 0 {
		visible = strings.Join(res.Visible, ", ")
	}

	fmt.Fprintf(s.w, "%s frame %d  people: %d  faces: %s  visible: %s\n",
		s.dim(res.Time.Format("15:04:05")), res.Index, res.Count, faces, visible)
}
