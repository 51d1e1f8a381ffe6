package attendance

import (
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestTracker_IgnoresUnknown(t *testing.T) {
	tr := NewTracker()
	tr.Record(facematch.Unknown, base)
	tr.Record("", base)
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_FirstRecordSetsBothTimes(t *testing.T) {
	tr := NewTracker()
	tr.Record("alice", base)

	r, ok := tr.Get("alice")
	require.True(t, ok)
	assert.Equal(t, base, r.FirstSeen)
	assert.Equal(t, base, r.LastSeen)
}

func TestTracker_UpdatesLastSeen(t *testing.T) {
	tr := NewTracker()
	t2 := base.Add(time.Minute)
	tr.Record("alice", base)
	tr.Record("alice", t2)

	r, _ := tr.Get("alice")
	assert.Equal(t, base, r.FirstSeen)
	assert.Equal(t, t2, r.LastSeen)
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_OutOfOrderKeepsSpan(t *testing.T) {
	tr := NewTracker()
	tr.Record("alice", base)
	tr.Record("alice", base.Add(-time.Minute))

	r, _ := tr.Get("alice")
	assert.Equal(t, base.Add(-time.Minute), r.FirstSeen)
	assert.Equal(t, base, r.LastSeen)
	assert.False(t, r.LastSeen.Before(r.FirstSeen))
}

func TestTracker_RecordsInFirstSeenOrder(t *testing.T) {
	tr := NewTracker()
	tr.Record("carol", base.Add(2*time.Second))
	tr.Record("alice", base)
	tr.Record("bob", base.Add(time.Second))
	tr.Record("alice", base.Add(time.Hour))

	var names []string
	for _, r := range tr.Records() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
}

func TestTracker_RecordsReturnsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Record("alice", base)
	recs := tr.Records()
	recs[0].Name = "mallory"

	_, ok := tr.Get("alice")
	assert.True(t, ok)
}

func TestTracker_SeedMergesDuplicates(t *testing.T) {
	tr := NewTracker()
	tr.Seed([]Record{
		{Name: "alice", FirstSeen: base, LastSeen: base.Add(time.Minute)},
		{Name: "bob", FirstSeen: base.Add(time.Second), LastSeen: base.Add(time.Second)},
		{Name: "alice", FirstSeen: base.Add(-time.Hour), LastSeen: base.Add(-time.Minute)},
		{Name: facematch.Unknown, FirstSeen: base, LastSeen: base},
	})

	require.Equal(t, 2, tr.Len())
	r, _ := tr.Get("alice")
	assert.Equal(t, base.Add(-time.Hour), r.FirstSeen)
	assert.Equal(t, base.Add(time.Minute), r.LastSeen)
}

func TestTracker_SeedSwapsInvertedRecord(t *testing.T) {
	tr := NewTracker()
	tr.Seed([]Record{{Name: "alice", FirstSeen: base.Add(time.Minute), LastSeen: base}})

	r, _ := tr.Get("alice")
	assert.Equal(t, base, r.FirstSeen)
	assert.Equal(t, base.Add(time.Minute), r.LastSeen)
}
