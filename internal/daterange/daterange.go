// Package daterange splits trailing-month collection windows into the
// ≤12-month query ranges the customs API accepts.
package daterange

import (
	"fmt"
	"sort"
	"time"
)

// maxChunkMonths is the API-side bound on one query's period length.
const maxChunkMonths = 12

// Range is a closed, inclusive month range in YYYYMM form.
type Range struct {
	Start string
	End   string
}

func (r Range) String() string {
	return r.Start + "~" + r.End
}

// Chunks splits the months trailing window (inclusive of the month of now)
// into ranges of at most 12 months, most recent chunk first. Each chunk's
// predecessor ends exactly one month before the chunk starts, so the ranges
// cover the window with no gaps and no overlaps. months <= 0 yields nil.
func Chunks(months int, now time.Time) []Range {
	if months <= 0 {
		return nil
	}

	var ranges []Range
	endYear, endMonth := now.Year(), int(now.Month())

	remaining := months
	for remaining > 0 {
		chunk := remaining
		if chunk > maxChunkMonths {
			chunk = maxChunkMonths
		}

		startYear := endYear
		startMonth := endMonth - chunk + 1
		for startMonth < 1 {
			startMonth += 12
			startYear--
		}

		ranges = append(ranges, Range{
			Start: ym(startYear, startMonth),
			End:   ym(endYear, endMonth),
		})

		endYear = startYear
		endMonth = startMonth - 1
		if endMonth < 1 {
			endMonth += 12
			endYear--
		}
		remaining -= chunk
	}

	return ranges
}

// TrailingMonths lists the months most recent YYYYMM keys, newest first,
// inclusive of the month of now.
func TrailingMonths(months int, now time.Time) []string {
	if months <= 0 {
		return nil
	}
	out := make([]string, 0, months)
	year, month := now.Year(), int(now.Month())
	for i := 0; i < months; i++ {
		out = append(out, ym(year, month))
		month--
		if month < 1 {
			month = 12
			year--
		}
	}
	return out
}

// Missing returns the trailing months absent from have, sorted ascending.
// Incremental collectors query only these.
func Missing(months int, now time.Time, have map[string]struct{}) []string {
	var missing []string
	for _, m := range TrailingMonths(months, now) {
		if _, ok := have[m]; !ok {
			missing = append(missing, m)
		}
	}
	sort.Strings(missing)
	return missing
}

// FromMonths packs a sorted month list into query ranges of at most 12
// consecutive list entries each. Used for incremental collection where the
// missing months are already known.
func FromMonths(months []string) []Range {
	if len(months) == 0 {
		return nil
	}
	sorted := make([]string, len(months))
	copy(sorted, months)
	sort.Strings(sorted)

	var ranges []Range
	for i := 0; i < len(sorted); i += maxChunkMonths {
		j := i + maxChunkMonths
		if j > len(sorted) {
			j = len(sorted)
		}
		ranges = append(ranges, Range{Start: sorted[i], End: sorted[j-1]})
	}
	return ranges
}

func ym(year, month int) string {
	return fmt.Sprintf("%04d%02d", year, month)
}
