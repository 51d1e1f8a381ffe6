// Package counter counts the people visible in each processed frame.
package counter

import (
	"slices"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Counter keeps the per-frame detection counts in arrival order.
type Counter struct {
	history []int
}

// New creates an empty counter.
func New() *Counter {
	return &Counter{}
}

// Update records the number of detections in a frame and returns it.
func (c *Counter) Update(detections []facematch.BBox) int {
	n := len(detections)
	c.history = append(c.history, n)
	return n
}

// Average returns the mean count over the history, or 0 if there is none.
func (c *Counter) Average() float64 {
	if len(c.history) == 0 {
		return 0
	}
	sum := 0
	for _, n := range c.history {
		sum += n
	}
	return float64(sum) / float64(len(c.history))
}

// Last returns the most recent count, or 0 if there is none.
func (c *Counter) Last() int {
	if len(c.history) == 0 {
		return 0
	}
	return c.history[len(c.history)-1]
}

// History returns a copy of all counts.
func (c *Counter) History() []int {
	return slices.Clone(c.history)
}

// Len returns the number of samples.
func (c *Counter) Len() int {
	return len(c.history)
}

// Reset clears the history.
func (c *Counter) Reset() {
	c.history = nil
}
