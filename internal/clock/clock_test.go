package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMidnight(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "Afternoon instant truncates to its date",
			in:   time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Midnight stays unchanged",
			in:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Non-UTC instant converts before truncating",
			in:   time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600)),
			want: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(Midnight(tt.in)))
		})
	}
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 7, 1, 10, 30, 0, 0, time.UTC)
	fake := NewFake(start)

	require.True(t, start.Equal(fake.Now()))
	assert.True(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Equal(fake.Today()))

	got := fake.Advance(14 * time.Hour)
	assert.True(t, start.Add(14*time.Hour).Equal(got))
	assert.True(t, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC).Equal(fake.Today()))

	later := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fake.Set(later)
	assert.True(t, later.Equal(fake.Now()))
}

func TestSystemClockIsUTC(t *testing.T) {
	now := System().Now()
	_, offset := now.Zone()
	assert.Equal(t, 0, offset)
	assert.True(t, System().Today().Before(now.Add(time.Second)))
}
