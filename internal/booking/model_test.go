package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                   string
		aIn, aOut, bIn, bOut   time.Time
		want                   bool
	}{
		{
			name: "Disjoint intervals do not overlap",
			aIn:  date(2026, 9, 1), aOut: date(2026, 9, 3),
			bIn: date(2026, 9, 5), bOut: date(2026, 9, 7),
			want: false,
		},
		{
			name: "Touching intervals do not overlap",
			aIn:  date(2026, 9, 1), aOut: date(2026, 9, 3),
			bIn: date(2026, 9, 3), bOut: date(2026, 9, 5),
			want: false,
		},
		{
			name: "One shared night overlaps",
			aIn:  date(2026, 9, 1), aOut: date(2026, 9, 4),
			bIn: date(2026, 9, 3), bOut: date(2026, 9, 5),
			want: true,
		},
		{
			name: "Contained interval overlaps",
			aIn:  date(2026, 9, 1), aOut: date(2026, 9, 10),
			bIn: date(2026, 9, 4), bOut: date(2026, 9, 5),
			want: true,
		},
		{
			name: "Identical intervals overlap",
			aIn:  date(2026, 9, 1), aOut: date(2026, 9, 3),
			bIn: date(2026, 9, 1), bOut: date(2026, 9, 3),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlap(tt.aIn, tt.aOut, tt.bIn, tt.bOut))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, Overlap(tt.bIn, tt.bOut, tt.aIn, tt.aOut))
		})
	}
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, Nights(date(2026, 9, 1), date(2026, 9, 2)))
	assert.Equal(t, 30, Nights(date(2026, 9, 1), date(2026, 10, 1)))
}

func TestPriceFor(t *testing.T) {
	nightly := decimal.RequireFromString("99.50")
	total := PriceFor(nightly, date(2026, 9, 1), date(2026, 9, 4))
	assert.Equal(t, "298.50", total.StringFixed(2))
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, validateDateRange(date(2026, 9, 1), date(2026, 9, 2)))
	assert.ErrorIs(t, validateDateRange(date(2026, 9, 2), date(2026, 9, 2)), ErrCheckInNotBefore)
	assert.ErrorIs(t, validateDateRange(date(2026, 9, 2), date(2026, 9, 1)), ErrCheckInNotBefore)
	assert.ErrorIs(t, validateDateRange(date(2026, 9, 1), date(2026, 10, 2)), ErrStayTooLong)
}

func TestStatusLifecycleFlags(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusApproved.Active())
	assert.False(t, StatusRejected.Active())

	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
}

func TestAppendNote(t *testing.T) {
	b := &Booking{}
	AppendNote(b, "first")
	assert.Equal(t, "first", b.SpecialRequests)

	AppendNote(b, "second")
	assert.Equal(t, "first\nsecond", b.SpecialRequests)
}

func TestAutoRejectNote(t *testing.T) {
	at := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	note := AutoRejectNote(at, "b-42")
	assert.Equal(t, "[auto-reject 2026-09-01T08:30:00Z] conflict with booking #b-42", note)
}
