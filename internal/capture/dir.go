package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kozaktomas/face-attendance/internal/fingerprint"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// IsImageFile reports whether a path has a supported image extension.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// DirSource replays the images of a directory in lexical order.
type DirSource struct {
	files []string
	loop  bool
	pos   int
	index int
	now   func() time.Time
}

// NewDirSource lists the image files of dir. It fails when the directory cannot be
// read or holds no images.
func NewDirSource(dir string, loop bool) (*DirSource, error) {
	files, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrUnavailable, dir)
	}
	return &DirSource{files: files, loop: loop, now: time.Now}, nil
}

// ListImages returns the image files of dir sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Next reads and decodes the next image. Undecodable files are reported as errors.
func (s *DirSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.files) {
		if !s.loop {
			return nil, io.EOF
		}
		s.pos = 0
	}
	path := s.files[s.pos]
	s.pos++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", path, err)
	}

	frame := &Frame{Index: s.index, Data: data, Image: img, Time: s.now()}
	s.index++
	return frame, nil
}

// Close is a no-op.
func (s *DirSource) Close() error {
	return nil
}
