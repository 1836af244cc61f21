package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year, month int) time.Time {
	return time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name   string
		months int
		now    time.Time
		want   []Range
	}{
		{
			name:   "fourteen months split 12+2",
			months: 14,
			now:    date(2025, 3),
			want: []Range{
				{Start: "202404", End: "202503"},
				{Start: "202402", End: "202403"},
			},
		},
		{
			name:   "single month",
			months: 1,
			now:    date(2025, 3),
			want:   []Range{{Start: "202503", End: "202503"}},
		},
		{
			name:   "exactly twelve months",
			months: 12,
			now:    date(2025, 12),
			want:   []Range{{Start: "202501", End: "202512"}},
		},
		{
			name:   "year rollover inside chunk",
			months: 3,
			now:    date(2025, 1),
			want:   []Range{{Start: "202411", End: "202501"}},
		},
		{
			name:   "thirty months split 12+12+6",
			months: 30,
			now:    date(2025, 6),
			want: []Range{
				{Start: "202407", End: "202506"},
				{Start: "202307", End: "202406"},
				{Start: "202301", End: "202306"},
			},
		},
		{
			name:   "zero months",
			months: 0,
			now:    date(2025, 3),
			want:   nil,
		},
		{
			name:   "negative months",
			months: -5,
			now:    date(2025, 3),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.months, tt.now))
		})
	}
}

func TestChunksCoverage(t *testing.T) {
	// Every trailing month appears in exactly one chunk.
	for _, months := range []int{1, 5, 12, 13, 14, 24, 25, 37} {
		now := date(2025, 3)
		ranges := Chunks(months, now)
		trailing := TrailingMonths(months, now)
		require.NotEmpty(t, ranges)

		covered := make(map[string]int)
		for _, r := range ranges {
			require.LessOrEqual(t, r.Start, r.End)
			for _, m := range trailing {
				if m >= r.Start && m <= r.End {
					covered[m]++
				}
			}
		}
		for _, m := range trailing {
			assert.Equal(t, 1, covered[m], "months=%d ym=%s", months, m)
		}
	}
}

func TestTrailingMonths(t *testing.T) {
	got := TrailingMonths(4, date(2025, 2))
	assert.Equal(t, []string{"202502", "202501", "202412", "202411"}, got)
	assert.Nil(t, TrailingMonths(0, date(2025, 2)))
}

func TestMissing(t *testing.T) {
	have := map[string]struct{}{
		"202502": {},
		"202501": {},
	}
	got := Missing(4, date(2025, 2), have)
	assert.Equal(t, []string{"202411", "202412"}, got)

	all := map[string]struct{}{
		"202502": {}, "202501": {}, "202412": {}, "202411": {},
	}
	assert.Empty(t, Missing(4, date(2025, 2), all))
}

func TestFromMonths(t *testing.T) {
	months := []string{"202501", "202403", "202404"}
	got := FromMonths(months)
	assert.Equal(t, []Range{{Start: "202403", End: "202501"}}, got)

	long := TrailingMonths(15, date(2025, 3))
	ranges := FromMonths(long)
	require.Len(t, ranges, 2)
	assert.Equal(t, "202401", ranges[0].Start)
	assert.Nil(t, FromMonths(nil))
}
