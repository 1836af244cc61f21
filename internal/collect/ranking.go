package collect

import (
	"context"
	"fmt"
	"strings"

	"github.com/cheggaaa/pb/v3"

	"tradelens/internal/aggregate"
	"tradelens/internal/daterange"
	"tradelens/internal/model"
)

// AllHS4 enumerates the 4-digit heading space of the harmonized system,
// chapters 01 through 97. Headings that do not exist simply return no rows.
func AllHS4() []string {
	codes := make([]string, 0, 97*99)
	for chapter := 1; chapter <= 97; chapter++ {
		for heading := 1; heading <= 99; heading++ {
			codes = append(codes, fmt.Sprintf("%02d%02d", chapter, heading))
		}
	}
	return codes
}

// RunRanking sweeps every 4-digit heading and folds the returned 6-digit
// rows into ranking entries. Collection is incremental: only trailing months
// missing from the store are queried. Names follow first-non-empty-wins.
func (r *Runner) RunRanking(ctx context.Context) error {
	have, err := r.Store.RankingMonths(ctx)
	if err != nil {
		return err
	}
	missing := daterange.Missing(r.Months, r.now(), have)
	if len(missing) == 0 {
		r.log().Info("ranking: all months present, nothing to collect")
		return nil
	}
	ranges := daterange.FromMonths(missing)
	r.log().Info("ranking: collecting", "months", missing)

	hs4List := AllHS4()
	var bar *pb.ProgressBar
	if r.Progress {
		bar = pb.StartNew(len(hs4List))
		defer bar.Finish()
	}

	entries := make(map[string]*model.RankingEntry)
	for _, hs4 := range hs4List {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.sweepHeading(ctx, hs4, ranges, entries)
		if bar != nil {
			bar.Increment()
		}
	}

	if err := r.Store.WriteRanking(ctx, entries); err != nil {
		return err
	}
	r.appendLog(ctx, "ranking", "", ranges, len(entries))
	r.log().Info("ranking: written", "codes", len(entries))
	return nil
}

// sweepHeading queries one 4-digit heading and accumulates its 6-digit rows.
func (r *Runner) sweepHeading(ctx context.Context, hs4 string, ranges []daterange.Range, entries map[string]*model.RankingEntry) {
	for _, rg := range ranges {
		for _, row := range r.queryItemRows(ctx, hs4, rg) {
			ym, ok := aggregate.ParseYM(row["year"])
			if !ok {
				continue
			}
			code := strings.TrimSpace(row["hsCd"])
			if len(code) != 6 || code == "-" {
				continue
			}
			entry := entries[code]
			if entry == nil {
				entry = &model.RankingEntry{Exp: model.MonthlySeries{}}
				entries[code] = entry
			}
			entry.Exp[ym] += aggregate.Amount(row["expDlr"])
			if entry.Name == "" {
				if name := strings.TrimSpace(row["statKor"]); name != "" && name != "-" {
					entry.Name = name
				}
			}
		}
	}
}
