package capture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/fingerprint"
)

// SnapshotSource fetches a still image from an HTTP endpoint (IP camera snapshot URL) per frame.
type SnapshotSource struct {
	url      string
	interval time.Duration
	client   *http.Client
	index    int
	last     time.Time
}

// NewSnapshotSource creates the source and performs one probe request so an
// unreachable camera fails at startup rather than mid-run.
func NewSnapshotSource(ctx context.Context, url string, interval time.Duration) (*SnapshotSource, error) {
	s := &SnapshotSource{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	if _, err := s.fetch(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return s, nil
}

// Next waits for the polling interval and fetches a frame.
func (s *SnapshotSource) Next(ctx context.Context) (*Frame, error) {
	if s.interval > 0 && !s.last.IsZero() {
		wait := time.Until(s.last.Add(s.interval))
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	data, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		return nil, err
	}

	s.last = time.Now()
	frame := &Frame{Index: s.index, Data: data, Image: img, Time: s.last}
	s.index++
	return frame, nil
}

func (s *SnapshotSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot error (status %d)", resp.StatusCode)
	}
	return body, nil
}

// Close releases idle connections.
func (s *SnapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
