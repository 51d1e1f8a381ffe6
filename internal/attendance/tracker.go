// Package attendance keeps first-seen / last-seen times for recognized people.
package attendance

import (
	"slices"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Record is the attendance of one person within a session.
type Record struct {
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Tracker holds at most one Record per name. Not safe for concurrent use.
type Tracker struct {
	records []Record
	index   map[string]int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{index: make(map[string]int)}
}

// Record notes that name was seen at now. Unknown faces are ignored.
// FirstSeen only moves earlier and LastSeen only moves later, so
// LastSeen >= FirstSeen holds even when timestamps arrive out of order.
func (t *Tracker) Record(name string, now time.Time) {
	if name == "" || name == facematch.Unknown {
		return
	}

	i, ok := t.index[name]
	if !ok {
		t.index[name] = len(t.records)
		t.records = append(t.records, Record{Name: name, FirstSeen: now, LastSeen: now})
		return
	}

	r := &t.records[i]
	if now.After(r.LastSeen) {
		r.LastSeen = now
	}
	if now.Before(r.FirstSeen) {
		r.FirstSeen = now
	}
}

// Seed merges previously stored records, e.g. an attendance file from an earlier run.
// Duplicate names collapse into one record spanning all of them.
func (t *Tracker) Seed(records []Record) {
	for _, r := range records {
		if r.Name == "" || r.Name == facematch.Unknown {
			continue
		}
		if r.LastSeen.Before(r.FirstSeen) {
			r.FirstSeen, r.LastSeen = r.LastSeen, r.FirstSeen
		}
		t.Record(r.Name, r.FirstSeen)
		t.Record(r.Name, r.LastSeen)
	}
}

// Get returns the record for name.
func (t *Tracker) Get(name string) (Record, bool) {
	i, ok := t.index[name]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// Records returns a copy of all records in first-seen order.
func (t *Tracker) Records() []Record {
	out := slices.Clone(t.records)
	slices.SortStableFunc(out, func(a, b Record) int {
		return a.FirstSeen.Compare(b.FirstSeen)
	})
	return out
}

// Len returns the number of people recorded.
func (t *Tracker) Len() int {
	return len(t.records)
}
