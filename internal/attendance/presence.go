package attendance

import (
	"slices"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// DefaultStaleAfter is how long a name stays visible after it was last detected.
const DefaultStaleAfter = 5 * time.Second

type sighting struct {
	hits     int
	lastSeen time.Time
}

// Presence tracks which people are currently in view across frames.
// Unknown faces are tracked too, under facematch.Unknown.
type Presence struct {
	staleAfter time.Duration
	seen       map[string]*sighting
}

// NewPresence creates a tracker that forgets names not seen for staleAfter.
// A non-positive staleAfter uses DefaultStaleAfter.
func NewPresence(staleAfter time.Duration) *Presence {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Presence{staleAfter: staleAfter, seen: make(map[string]*sighting)}
}

// Observe records the names detected in one frame and evicts stale names.
func (p *Presence) Observe(names []string, now time.Time) {
	for _, name := range names {
		if name == "" {
			name = facematch.Unknown
		}
		s, ok := p.seen[name]
		if !ok {
			s = &sighting{}
			p.seen[name] = s
		}
		s.hits++
		s.lastSeen = now
	}

	for name, s := range p.seen {
		if now.Sub(s.lastSeen) > p.staleAfter {
			delete(p.seen, name)
		}
	}
}

// Visible returns the names currently in view, sorted.
func (p *Presence) Visible() []string {
	names := make([]string, 0, len(p.seen))
	for name := range p.seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Hits returns how many frames name was detected in since it became visible.
func (p *Presence) Hits(name string) int {
	if s, ok := p.seen[name]; ok {
		return s.hits
	}
	return 0
}
