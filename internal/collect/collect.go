// Package collect runs the ingestion pipeline: it walks the tracked
// commodity vocabulary, queries the customs endpoints chunk by chunk, folds
// the rows into the nested document, and hands the result to the store.
package collect

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tradelens/internal/aggregate"
	"tradelens/internal/config"
	"tradelens/internal/daterange"
	"tradelens/internal/kcsapi"
	"tradelens/internal/model"
	"tradelens/internal/store"
)

// topHS6Count bounds the district sweep per item to the highest-export
// 6-digit codes of the most recent chunk.
const topHS6Count = 3

// thousandUSD scales the district endpoint's thousand-USD amounts to USD.
const thousandUSD = 1000

// Fetcher is the query surface of the customs client. It never fails;
// unrecoverable queries yield no rows.
type Fetcher interface {
	Query(ctx context.Context, path string, params map[string]string) []kcsapi.Row
}

// Runner drives one ingestion cycle over a fixed dataset.
type Runner struct {
	Fetcher  Fetcher
	Store    store.Store
	Dataset  *config.Dataset
	Months   int
	Now      func() time.Time
	Log      *slog.Logger
	Progress bool
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Run collects the full document for the trailing window and writes it to
// the store in one transaction.
func (r *Runner) Run(ctx context.Context) error {
	ranges := daterange.Chunks(r.Months, r.now())
	if len(ranges) == 0 {
		r.log().Warn("collect: empty window, nothing to do")
		return nil
	}

	doc := r.assemble(ctx, ranges)
	if err := r.Store.WriteDocument(ctx, doc); err != nil {
		return err
	}
	r.log().Info("collect: document written",
		"items", len(doc.Items),
		"period_start", doc.Period.Start,
		"period_end", doc.Period.End)
	return nil
}

// assemble runs every collector and returns the document. Queries that fail
// contribute nothing; the document stays structurally complete.
func (r *Runner) assemble(ctx context.Context, ranges []daterange.Range) *model.Document {
	ds := r.Dataset

	doc := model.NewDocument()
	doc.GeneratedAt = r.now().UTC().Format(time.RFC3339)
	doc.Period = model.Period{Start: ranges[len(ranges)-1].Start, End: ranges[0].End}
	doc.MainItems = append([]string(nil), ds.MainItems...)
	for hs, subs := range ds.SubItems {
		def := make(map[string]string, len(subs))
		for code, name := range subs {
			def[code] = name
		}
		doc.SubItemsDef[hs] = def
	}
	for code, name := range ds.CountryNames {
		doc.AllCountries[code] = name
	}
	for code, name := range ds.RegionNames {
		doc.AllRegions[code] = name
	}

	for _, hs := range r.itemOrder() {
		spec := ds.Items[hs]
		r.log().Info("collect: item", "hs", hs, "name", spec.Name)

		var item *model.Item
		var rows int
		if spec.SubsOnly {
			item, rows = r.collectSubsOnlyItem(ctx, hs, spec, ranges)
		} else {
			item, rows = r.collectItem(ctx, hs, spec, ranges)

			if subs := ds.SubItems[hs]; len(subs) > 0 {
				want := countryCodes(item.Countries)
				item.SubItems = r.collectSubItems(ctx, subs, want, ranges)
			}

			// Grand totals sum the directly queried items; pseudo-codes
			// would double-count their sub-item commodities.
			aggregate.MergeInto(doc.Total.Exp, item.TotalExp)
			aggregate.MergeInto(doc.Total.Imp, item.TotalImp)

			if hs6 := r.topHS6(ctx, hs, ranges[0]); len(hs6) > 0 {
				item.Regions = r.collectRegions(ctx, hs6, ranges)
			}
		}

		if companies := ds.Companies[hs]; len(companies) > 0 {
			item.Companies = r.collectCompanies(ctx, companies, ranges)
		}
		if hs == ds.Samyang.OwnerItem {
			item.Samyang = r.collectSamyang(ctx, ranges)
		}

		if isHS4(hs) {
			doc.HS4Names[hs] = spec.Name
		}
		doc.Items[hs] = item

		r.appendLog(ctx, "item", hs, ranges, rows)
	}

	return doc
}

// itemOrder yields main items in declared order, then the rest sorted by code.
func (r *Runner) itemOrder() []string {
	seen := make(map[string]struct{}, len(r.Dataset.MainItems))
	order := make([]string, 0, len(r.Dataset.Items))
	for _, hs := range r.Dataset.MainItems {
		if _, ok := r.Dataset.Items[hs]; ok {
			order = append(order, hs)
			seen[hs] = struct{}{}
		}
	}
	var rest []string
	for hs := range r.Dataset.Items {
		if _, ok := seen[hs]; !ok {
			rest = append(rest, hs)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// collectItem queries the per-country endpoint for one commodity and derives
// its totals bottom-up from the country sums.
func (r *Runner) collectItem(ctx context.Context, hs string, spec config.ItemSpec, ranges []daterange.Range) (*model.Item, int) {
	acc, rows := r.accumulateCountryRows(ctx, hs, ranges)

	exp, imp, _ := acc.Totals()
	item := model.NewItem(spec.Name)
	item.TotalExp = exp
	item.TotalImp = imp
	item.Countries = acc.Countries(spec.Countries, r.Dataset.CountryNames, false)
	return item, rows
}

// collectSubsOnlyItem builds a pseudo-commodity entirely from its sub-item
// collections: totals and the country map are sums over the subs.
func (r *Runner) collectSubsOnlyItem(ctx context.Context, hs string, spec config.ItemSpec, ranges []daterange.Range) (*model.Item, int) {
	item := model.NewItem(spec.Name)
	item.SubItems = r.collectSubItems(ctx, r.Dataset.SubItems[hs], spec.Countries, ranges)

	totalExp := model.MonthlySeries{}
	totalWgt := model.MonthlySeries{}
	merged := make(map[string]*model.CountrySeries)
	for _, sub := range item.SubItems {
		aggregate.MergeInto(totalExp, sub.Exp)
		aggregate.MergeInto(totalWgt, sub.Wgt)
		for code, series := range sub.Countries {
			dst := merged[code]
			if dst == nil {
				dst = &model.CountrySeries{
					Name: series.Name,
					Exp:  model.MonthlySeries{},
					Wgt:  model.MonthlySeries{},
				}
				merged[code] = dst
			}
			aggregate.MergeInto(dst.Exp, series.Exp)
			aggregate.MergeInto(dst.Wgt, series.Wgt)
		}
	}
	item.TotalExp = totalExp
	item.TotalWgt = totalWgt
	item.Countries = merged
	return item, 0
}

// collectSubItems collects each detail code with per-country weight series.
// Codes that return no data are omitted.
func (r *Runner) collectSubItems(ctx context.Context, subs map[string]string, want []string, ranges []daterange.Range) map[string]*model.SubItem {
	out := make(map[string]*model.SubItem, len(subs))
	for _, scode := range sortedKeys(subs) {
		acc, _ := r.accumulateCountryRows(ctx, scode, ranges)
		exp, _, wgt := acc.Totals()
		if len(exp) == 0 {
			continue
		}
		out[scode] = &model.SubItem{
			Name:      subs[scode],
			Exp:       exp,
			Wgt:       wgt,
			Countries: acc.Countries(want, r.Dataset.CountryNames, true),
		}
	}
	return out
}

// accumulateCountryRows folds per-country endpoint rows for one HS filter
// across all ranges. Rows without a country code carry period aggregates and
// are skipped; monthly sums rebuild the totals instead.
func (r *Runner) accumulateCountryRows(ctx context.Context, hs string, ranges []daterange.Range) (*aggregate.Accumulator, int) {
	acc := aggregate.NewAccumulator()
	rows := 0
	for _, rg := range ranges {
		for _, row := range r.queryItemRows(ctx, hs, rg) {
			ym, ok := aggregate.ParseYM(row["year"])
			if !ok {
				continue
			}
			code := strings.TrimSpace(row["statCd"])
			if code == "" || code == "-" {
				continue
			}
			acc.Add(code, ym,
				aggregate.Amount(row["expDlr"]),
				aggregate.Amount(row["impDlr"]),
				aggregate.Amount(row["expWgt"]))
			rows++
		}
	}
	return acc, rows
}

// topHS6 ranks the 6-digit codes of the most recent chunk by export value.
// Ties break on code so the selection is stable across runs.
func (r *Runner) topHS6(ctx context.Context, hs string, rg daterange.Range) []string {
	tally := make(map[string]int64)
	for _, row := range r.queryItemRows(ctx, hs, rg) {
		if _, ok := aggregate.ParseYM(row["year"]); !ok {
			continue
		}
		code := strings.TrimSpace(row["hsCd"])
		if len(code) != 6 || code == "-" {
			continue
		}
		tally[code] += aggregate.Amount(row["expDlr"])
	}

	codes := make([]string, 0, len(tally))
	for code := range tally {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if tally[codes[i]] != tally[codes[j]] {
			return tally[codes[i]] > tally[codes[j]]
		}
		return codes[i] < codes[j]
	})
	if len(codes) > topHS6Count {
		codes = codes[:topHS6Count]
	}
	return codes
}

// collectRegions sweeps the configured provinces for the given 6-digit codes
// and folds district rows into tracked region series. District names outside
// the vocabulary are dropped.
func (r *Runner) collectRegions(ctx context.Context, hs6Codes []string, ranges []daterange.Range) map[string]*model.RegionSeries {
	byDistrict := make(map[string]model.MonthlySeries)
	for _, hs6 := range hs6Codes {
		for _, sido := range r.Dataset.SidoCodes {
			for _, rg := range ranges {
				for _, row := range r.queryDistrictRows(ctx, hs6, sido, rg) {
					ym, ok := aggregate.ParseYM(row["priodTitle"])
					if !ok {
						continue
					}
					name := strings.TrimSpace(row["sggNm"])
					exp := aggregate.Amount(row["expUsdAmt"]) * thousandUSD
					if name == "" || exp <= 0 {
						continue
					}
					series := byDistrict[name]
					if series == nil {
						series = model.MonthlySeries{}
						byDistrict[name] = series
					}
					series[ym] += exp
				}
			}
		}
	}

	regions := make(map[string]*model.RegionSeries)
	for name, months := range byDistrict {
		code, ok := r.Dataset.RegionCodeFor(name)
		if !ok || !r.Dataset.RegionTracked(code) {
			continue
		}
		dst := regions[code]
		if dst == nil {
			displayName := r.Dataset.RegionNames[code]
			if displayName == "" {
				displayName = name
			}
			dst = &model.RegionSeries{Name: displayName, Exp: model.MonthlySeries{}}
			regions[code] = dst
		}
		aggregate.MergeInto(dst.Exp, months)
	}
	return regions
}

// collectCompanies collects each company's per-track district series.
func (r *Runner) collectCompanies(ctx context.Context, specs map[string]config.CompanySpec, ranges []daterange.Range) map[string]*model.Company {
	out := make(map[string]*model.Company, len(specs))
	for _, ck := range sortedCompanyKeys(specs) {
		spec := specs[ck]
		company := &model.Company{
			Name:      spec.Name,
			Locations: make(map[string]*model.LocationSeries, len(spec.Tracks)),
		}
		for _, track := range spec.Tracks {
			company.Locations[track.Key] = &model.LocationSeries{
				Name: track.Name,
				Exp:  r.collectDistrictSeries(ctx, track.HS6, spec.SidoCode, spec.DistrictName, ranges),
			}
		}
		out[ck] = company
	}
	return out
}

// collectSamyang collects the designated company's per-site series under its
// single 6-digit code.
func (r *Runner) collectSamyang(ctx context.Context, ranges []daterange.Range) map[string]*model.LocationSeries {
	s := r.Dataset.Samyang
	out := make(map[string]*model.LocationSeries, len(s.Locations))
	for _, key := range sortedLocationKeys(s.Locations) {
		loc := s.Locations[key]
		out[key] = &model.LocationSeries{
			Name: loc.Name,
			Exp:  r.collectDistrictSeries(ctx, s.HS6, loc.SidoCode, loc.DistrictName, ranges),
		}
	}
	return out
}

// collectDistrictSeries sums district rows matching one exact district name.
func (r *Runner) collectDistrictSeries(ctx context.Context, hs6, sido, districtName string, ranges []daterange.Range) model.MonthlySeries {
	monthly := model.MonthlySeries{}
	for _, rg := range ranges {
		for _, row := range r.queryDistrictRows(ctx, hs6, sido, rg) {
			ym, ok := aggregate.ParseYM(row["priodTitle"])
			if !ok {
				continue
			}
			if strings.TrimSpace(row["sggNm"]) != districtName {
				continue
			}
			exp := aggregate.Amount(row["expUsdAmt"]) * thousandUSD
			if exp > 0 {
				monthly[ym] += exp
			}
		}
	}
	return monthly
}

func (r *Runner) queryItemRows(ctx context.Context, hs string, rg daterange.Range) []kcsapi.Row {
	return r.Fetcher.Query(ctx, kcsapi.PathItemTrade, map[string]string{
		"strtYymm": rg.Start,
		"endYymm":  rg.End,
		"hsSgn":    hs,
	})
}

func (r *Runner) queryDistrictRows(ctx context.Context, hs6, sido string, rg daterange.Range) []kcsapi.Row {
	// The district endpoint capitalizes the HS filter parameter.
	return r.Fetcher.Query(ctx, kcsapi.PathDistrictTrade, map[string]string{
		"strtYymm": rg.Start,
		"endYymm":  rg.End,
		"HsSgn":    hs6,
		"sidoCd":   sido,
	})
}

func (r *Runner) appendLog(ctx context.Context, collector, hs string, ranges []daterange.Range, rows int) {
	entry := store.LogEntry{
		Collector:   collector,
		HSCode:      hs,
		YMStart:     ranges[len(ranges)-1].Start,
		YMEnd:       ranges[0].End,
		CollectedAt: r.now(),
		RowCount:    rows,
	}
	if err := r.Store.AppendLog(ctx, entry); err != nil {
		r.log().Warn("collect: log entry failed", "collector", collector, "hs", hs, "err", err)
	}
}

func countryCodes(countries map[string]*model.CountrySeries) []string {
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCompanyKeys(m map[string]config.CompanySpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedLocationKeys(m map[string]config.SamyangLocation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isHS4(code string) bool {
	if len(code) != 4 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
