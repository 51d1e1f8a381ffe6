package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/kozaktomas/face-attendance/internal/capture"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/schollz/progressbar/v3"
)

const (
	cropJPEGQuality = 95
	cropTimeLayout  = "20060102150405"
)

// EnrollResult describes a successful enrollment.
type EnrollResult struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Entries  int     `json:"entries"`
	CropPath string  `json:"crop_path,omitempty"`
}

// Enroll adds the first detected face of frame to the gallery under name and
// stores its crop in the known-faces directory when one is configured.
func (p *Processor) Enroll(ctx context.Context, frame *capture.Frame, name string) (*EnrollResult, error) {
	return p.enroll(ctx, frame, name, p.opts.KnownFacesDir != "")
}

// EnrollImage is Enroll for an encoded image.
func (p *Processor) EnrollImage(ctx context.Context, data []byte, name string) (*EnrollResult, error) {
	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return p.Enroll(ctx, &capture.Frame{Data: data, Image: img, Time: p.now()}, name)
}

func (p *Processor) enroll(ctx context.Context, frame *capture.Frame, name string, saveCrop bool) (*EnrollResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, gallery.ErrEmptyName
	}

	img, err := frameImage(frame)
	if err != nil {
		return nil, err
	}
	faces, err := p.detect(ctx, img, frame.Data)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	face := faces[0]
	feature, err := p.feature(img, face)
	if err != nil {
		return nil, err
	}
	if !p.matcher.Strategy.Accepts(feature) {
		return nil, fmt.Errorf("%w: length %d, strategy %s expects %d",
			ErrFeatureMismatch, len(feature), p.matcher.Strategy.Name, p.matcher.Strategy.Dim)
	}

	if err := p.gallery.Enroll(ctx, name, feature); err != nil {
		return nil, err
	}
	if err := p.reindex(); err != nil {
		return nil, err
	}

	res := &EnrollResult{Name: name, Score: face.score, Entries: p.gallery.Count(name)}
	if saveCrop {
		path, err := p.saveCrop(frame, face, name)
		if err != nil {
			log.Printf("Warning: face of %s enrolled but crop not saved: %v", name, err)
		} else {
			res.CropPath = path
		}
	}
	return res, nil
}

// Remove deletes every gallery entry for name and returns how many were removed.
func (p *Processor) Remove(ctx context.Context, name string) (int, error) {
	removed, err := p.gallery.Remove(ctx, name)
	if err != nil || removed == 0 {
		return removed, err
	}
	return removed, p.reindex()
}

func (p *Processor) saveCrop(frame *capture.Frame, face detectedFace, name string) (string, error) {
	img, err := frameImage(frame)
	if err != nil {
		return "", err
	}
	crop, err := fingerprint.CropImage(img, face.box.Rect().Add(img.Bounds().Min))
	if err != nil {
		return "", err
	}
	data, err := fingerprint.EncodeJPEG(crop, cropJPEGQuality)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.opts.KnownFacesDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create known faces directory: %w", err)
	}
	at := frame.Time
	if at.IsZero() {
		at = p.now()
	}
	path := filepath.Join(p.opts.KnownFacesDir, fmt.Sprintf("%s_%s.jpg", fileSafeName(name), at.Format(cropTimeLayout)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write crop: %w", err)
	}
	return path, nil
}

// BulkResult summarises a directory enrollment.
type BulkResult struct {
	Enrolled int
	Failed   map[string]error
}

// EnrollDir enrolls every image of dir under the name encoded in its file name
// ("alice.jpg", "Jan_Novak_20240301090000.jpg"). Files without a face are reported
// in Failed and do not stop the run.
func (p *Processor) EnrollDir(ctx context.Context, dir string, showProgress bool) (*BulkResult, error) {
	files, err := capture.ListImages(dir)
	if err != nil {
		return nil, err
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Enrolling faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	res := &BulkResult{Failed: make(map[string]error)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		err := p.enrollFile(ctx, path)
		if err != nil {
			res.Failed[path] = err
		} else {
			res.Enrolled++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return res, nil
}

func (p *Processor) enrollFile(ctx context.Context, path string) error {
	name := NameFromFile(path)
	if name == "" {
		return fmt.Errorf("cannot derive a name from %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := fingerprint.DecodeImage(data)
	if err != nil {
		return err
	}
	_, err = p.enroll(ctx, &capture.Frame{Data: data, Image: img, Time: p.now()}, name, false)
	if errors.Is(err, ErrNoFaceDetected) {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return err
}

// NameFromFile derives a person name from an enrollment image file name.
// A trailing "_<digits>" timestamp is dropped and underscores become spaces.
func NameFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.LastIndex(stem, "_"); i > 0 && isDigits(stem[i+1:]) {
		stem = stem[:i]
	}
	return strings.TrimSpace(strings.ReplaceAll(stem, "_", " "))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// fileSafeName turns a person name into a file name stem NameFromFile maps back.
func fileSafeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
			return -1
		}
		return r
	}, name)
}
