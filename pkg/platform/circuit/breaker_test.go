package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	fail     bool
	wantOpen bool
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name  string
		opts  []Option
		steps []step
	}{
		{
			name:  "stays closed below threshold",
			opts:  []Option{WithFailureThreshold(3)},
			steps: []step{{fail: true}, {fail: true}},
		},
		{
			name:  "opens at threshold",
			opts:  []Option{WithFailureThreshold(2)},
			steps: []step{{fail: true}, {fail: true, wantOpen: true}},
		},
		{
			name: "success between failures restarts the count",
			opts: []Option{WithFailureThreshold(2)},
			steps: []step{
				{fail: true}, {fail: false}, {fail: true}, {fail: true, wantOpen: true},
			},
		},
		{
			name: "needs consecutive successes to close",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			steps: []step{
				{fail: true, wantOpen: true},
				{fail: false, wantOpen: true},
				{fail: true, wantOpen: true},
				{fail: false, wantOpen: true},
				{fail: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("whatsapp", tt.opts...)
			for i, s := range tt.steps {
				if s.fail {
					b.RecordFailure()
				} else {
					b.RecordSuccess()
				}
				assert.Equal(t, s.wantOpen, b.IsOpen(), "step %d", i)
			}
		})
	}
}

func TestBreaker_ReportsTransitionsOnce(t *testing.T) {
	b := New("smtp", WithFailureThreshold(1))

	unavailable, change := b.RecordFailure()
	require.True(t, unavailable)
	assert.True(t, change.Opened)

	unavailable, change = b.RecordFailure()
	assert.True(t, unavailable)
	assert.False(t, change.Opened)

	healthy, change := b.RecordSuccess()
	assert.True(t, healthy)
	assert.True(t, change.Closed)
	assert.Equal(t, "closed", b.State().String())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("smtp", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "smtp", b.Name())
}

func TestBreaker_AllowsOneTrialAfterCooldown(t *testing.T) {
	now := time.Date(2026, 1, 24, 9, 0, 0, 0, time.UTC)
	b := New("smtp", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(func() time.Time { return now }))

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow(), "first call after cooldown is a trial")
	assert.False(t, b.Allow(), "only one trial per cooldown window")

	_, change := b.RecordSuccess()
	assert.True(t, change.Closed)
	assert.True(t, b.Allow())
}
