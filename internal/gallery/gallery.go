// Package gallery holds the enrolled faces and keeps their persisted copy in sync.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

var (
	// ErrEmptyName is returned when enrolling without a name.
	ErrEmptyName = errors.New("name is required")
	// ErrEmptyFeature is returned when enrolling without a feature vector.
	ErrEmptyFeature = errors.New("feature vector is empty")
	// ErrInvalidFeature is returned when a feature vector holds NaN or infinite values.
	ErrInvalidFeature = errors.New("feature vector is not finite")
)

// Gallery is the ordered list of enrolled faces. Order is enrollment order and is
// what the matcher uses to break ties. Not safe for concurrent use.
type Gallery struct {
	store   Store
	entries []facematch.Entry
}

// New creates an empty gallery persisted through store.
func New(store Store) *Gallery {
	return &Gallery{store: store}
}

// Load replaces the in-memory entries with the persisted ones.
// Missing or corrupt state is logged and treated as an empty gallery.
func (g *Gallery) Load(ctx context.Context) error {
	entries, err := g.store.Load(ctx)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt) {
		log.Printf("Warning: %v; starting with an empty gallery", err)
		g.entries = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("load gallery: %w", err)
	}
	g.entries = entries
	return nil
}

// Save persists the current entries.
func (g *Gallery) Save(ctx context.Context) error {
	if err := g.store.Save(ctx, g.entries); err != nil {
		return fmt.Errorf("save gallery: %w", err)
	}
	return nil
}

// Enroll appends a feature for name and persists the whole gallery.
// If persisting fails the entry is not kept.
func (g *Gallery) Enroll(ctx context.Context, name string, feature []float32) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(feature) == 0 {
		return ErrEmptyFeature
	}
	if !facematch.Finite(feature) {
		return ErrInvalidFeature
	}

	g.entries = append(g.entries, facematch.Entry{Name: name, Feature: slices.Clone(feature)})
	if err := g.Save(ctx); err != nil {
		g.entries = g.entries[:len(g.entries)-1]
		return err
	}
	return nil
}

// Remove deletes every entry for name and persists the result.
// Returns the number of entries removed.
func (g *Gallery) Remove(ctx context.Context, name string) (int, error) {
	before := len(g.entries)
	kept := slices.DeleteFunc(slices.Clone(g.entries), func(e facematch.Entry) bool {
		return e.Name == name
	})
	removed := before - len(kept)
	if removed == 0 {
		return 0, nil
	}

	previous := g.entries
	g.entries = kept
	if err := g.Save(ctx); err != nil {
		g.entries = previous
		return 0, err
	}
	return removed, nil
}

// Entries returns the entries in gallery order. The slice must not be modified.
func (g *Gallery) Entries() []facematch.Entry {
	return g.entries
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	return len(g.entries)
}

// Names returns the distinct enrolled names in first-enrollment order.
func (g *Gallery) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, e := range g.entries {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

// Count returns how many entries are enrolled for name.
func (g *Gallery) Count(name string) int {
	n := 0
	for _, e := range g.entries {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Resolve finds the stored name matching name after normalization
// (case, diacritics, dashes), e.g. "jan-novak" resolves to "Jan Novák".
func (g *Gallery) Resolve(name string) (string, bool) {
	for _, e := range g.entries {
		if e.Name == name {
			return e.Name, true
		}
	}
	want := facematch.NormalizePersonName(name)
	if want == "" {
		return "", false
	}
	for _, e := range g.entries {
		if facematch.NormalizePersonName(e.Name) == want {
			return e.Name, true
		}
	}
	return "", false
}
