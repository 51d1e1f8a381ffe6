package attendance

import (
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/stretchr/testify/assert"
)

func TestPresence_ObserveAndEvict(t *testing.T) {
	p := NewPresence(5 * time.Second)

	p.Observe([]string{"bob", "alice", ""}, base)
	assert.Equal(t, []string{facematch.Unknown, "alice", "bob"}, p.Visible())

	p.Observe([]string{"alice"}, base.Add(3*time.Second))
	assert.Equal(t, 2, p.Hits("alice"))
	assert.Equal(t, 1, p.Hits("bob"))

	// bob was last seen 6s ago, alice 3s ago.
	p.Observe(nil, base.Add(6*time.Second))
	assert.Equal(t, []string{"alice"}, p.Visible())
	assert.Equal(t, 0, p.Hits("bob"))
}

func TestPresence_DefaultStaleWindow(t *testing.T) {
	p := NewPresence(0)
	p.Observe([]string{"alice"}, base)
	p.Observe(nil, base.Add(DefaultStaleAfter))
	assert.Equal(t, []string{"alice"}, p.Visible())

	p.Observe(nil, base.Add(DefaultStaleAfter+time.Millisecond))
	assert.Empty(t, p.Visible())
}
