// Package aggregate folds raw API rows into per-entity monthly sums and
// derives roll-up totals bottom-up from them.
package aggregate

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"tradelens/internal/model"
)

// totalSentinel marks the upstream period-aggregate row. Such rows are
// skipped: totals are derived from monthly per-entity rows instead, since
// the upstream figure spans the whole query period rather than one month.
const totalSentinel = "총계"

// ParseYM normalizes a month token from dotted ("2025.01") or compact
// ("202501") form to YYYYMM. Sentinel and unparsable tokens report false.
func ParseYM(raw string) (string, bool) {
	token := strings.TrimSpace(raw)
	if token == "" || token == totalSentinel {
		return "", false
	}
	if dot := strings.IndexByte(token, '.'); dot >= 0 {
		year, month := token[:dot], token[dot+1:]
		if len(year) != 4 || !isDigits(year) {
			return "", false
		}
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return "", false
		}
		return year + pad2(m), true
	}
	if len(token) == 6 && isDigits(token) {
		return token, true
	}
	return "", false
}

// Amount coerces a numeric value string to an integer. Grouping commas are
// tolerated, fractional values are rounded, and anything unparsable is
// zero: a bad field never aborts a batch.
func Amount(raw string) int64 {
	token := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if token == "" {
		return 0
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}

// Accumulator sums export/import/weight values per (entity, month). Totals
// are always computed over every accumulated entity, so the roll-up
// invariant holds by construction.
type Accumulator struct {
	exp map[string]model.MonthlySeries
	imp map[string]model.MonthlySeries
	wgt map[string]model.MonthlySeries
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		exp: make(map[string]model.MonthlySeries),
		imp: make(map[string]model.MonthlySeries),
		wgt: make(map[string]model.MonthlySeries),
	}
}

// Add accumulates one row's values under (entity, ym).
func (a *Accumulator) Add(entity, ym string, exp, imp, wgt int64) {
	add(a.exp, entity, ym, exp)
	add(a.imp, entity, ym, imp)
	add(a.wgt, entity, ym, wgt)
}

func add(byEntity map[string]model.MonthlySeries, entity, ym string, v int64) {
	series, ok := byEntity[entity]
	if !ok {
		series = model.MonthlySeries{}
		byEntity[entity] = series
	}
	series[ym] += v
}

// Months returns the sorted union of months seen across all entities'
// export series.
func (a *Accumulator) Months() []string {
	seen := make(map[string]struct{})
	for _, series := range a.exp {
		for ym := range series {
			seen[ym] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Strings(months)
	return months
}

// Totals derives the monthly roll-up over all accumulated entities.
func (a *Accumulator) Totals() (exp, imp, wgt model.MonthlySeries) {
	exp = model.MonthlySeries{}
	imp = model.MonthlySeries{}
	wgt = model.MonthlySeries{}
	for _, ym := range a.Months() {
		var e, i, w int64
		for entity := range a.exp {
			e += a.exp[entity][ym]
			i += a.imp[entity][ym]
			w += a.wgt[entity][ym]
		}
		exp[ym] = e
		imp[ym] = i
		wgt[ym] = w
	}
	return exp, imp, wgt
}

// ExpSeries returns one entity's accumulated export series, or nil.
func (a *Accumulator) ExpSeries(entity string) model.MonthlySeries {
	return a.exp[entity]
}

// Countries extracts per-country series for the wanted allow-list. An entity
// survives only if it is on the list and has at least one non-zero export
// month; names resolve through the dictionary with the code as fallback.
// Weight series are attached when includeWgt is set.
func (a *Accumulator) Countries(wanted []string, names map[string]string, includeWgt bool) map[string]*model.CountrySeries {
	out := make(map[string]*model.CountrySeries)
	for _, code := range wanted {
		series, ok := a.exp[code]
		if !ok || !anyPositive(series) {
			continue
		}
		cs := &model.CountrySeries{
			Name: nameOr(names, code),
			Exp:  series.Clone(),
		}
		if includeWgt {
			cs.Wgt = a.wgt[code].Clone()
		}
		out[code] = cs
	}
	return out
}

// MergeInto adds src's values into dst month by month.
func MergeInto(dst, src model.MonthlySeries) {
	for ym, v := range src {
		dst[ym] += v
	}
}

func anyPositive(series model.MonthlySeries) bool {
	for _, v := range series {
		if v > 0 {
			return true
		}
	}
	return false
}

func nameOr(names map[string]string, code string) string {
	if name, ok := names[code]; ok {
		return name
	}
	return code
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
