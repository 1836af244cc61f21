// Package view reconstructs the nested trade document from the normalized
// store and caches it against the store's version marker.
package view

import (
	"encoding/json"

	"tradelens/internal/model"
	"tradelens/internal/store"
)

// Build regroups one store snapshot into the nested document shape. It walks
// the fact slices once; nothing here queries the store again.
func Build(snap *store.Snapshot) (*model.Document, error) {
	doc := model.NewDocument()
	doc.GeneratedAt = snap.Meta["generated_at"]
	doc.Period = model.Period{
		Start: snap.Meta["period_start"],
		End:   snap.Meta["period_end"],
	}

	if raw := snap.Meta["main_items"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.MainItems); err != nil {
			return nil, err
		}
	}
	if raw := snap.Meta["sub_items_def"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.SubItemsDef); err != nil {
			return nil, err
		}
	}

	for code, name := range snap.Countries {
		doc.AllCountries[code] = name
	}
	for code, name := range snap.Regions {
		doc.AllRegions[code] = name
	}
	for code, name := range snap.HSNames[4] {
		doc.HS4Names[code] = name
	}
	for code, name := range snap.HSNames[2] {
		doc.HS2Names[code] = name
	}

	for _, f := range snap.Totals {
		doc.Total.Exp[f.YM] = f.ExpUSD
		doc.Total.Imp[f.YM] = f.ImpUSD
	}

	for _, def := range snap.Items {
		doc.Items[def.HSCode] = model.NewItem(def.Name)
	}

	// Declared sub-trees surface even when their series are empty: a
	// location whose district queries degraded to no rows still has its
	// dimension rows, and the document must keep the empty entry rather
	// than drop it.
	for _, def := range snap.Items {
		item := doc.Items[def.HSCode]
		for sub := range snap.SubItems[def.HSCode] {
			subItemFor(item, snap, def.HSCode, sub)
		}
		for ck := range snap.Companies[def.HSCode] {
			if ck == model.SamyangKey {
				for lk := range snap.CompanyLocs[def.HSCode][ck] {
					samyangFor(item, snap, def.HSCode, lk)
				}
				continue
			}
			companyFor(item, snap, def.HSCode, ck)
			for lk := range snap.CompanyLocs[def.HSCode][ck] {
				companyLocFor(item, snap, def.HSCode, ck, lk)
			}
		}
	}

	for _, f := range snap.Facts {
		item, ok := doc.Items[f.HSCode]
		if !ok {
			// Fact without an item dimension row; skip rather than invent
			// a nameless item.
			continue
		}
		switch f.DataType {
		case model.TypeItem:
			item.TotalExp[f.YM] = f.ExpUSD
			item.TotalImp[f.YM] = f.ImpUSD
			if f.Wgt != 0 {
				if item.TotalWgt == nil {
					item.TotalWgt = model.MonthlySeries{}
				}
				item.TotalWgt[f.YM] = f.Wgt
			}

		case model.TypeItemCountry:
			series := item.Countries[f.EntityCode]
			if series == nil {
				series = &model.CountrySeries{
					Name: nameOr(snap.Countries, f.EntityCode),
					Exp:  model.MonthlySeries{},
				}
				item.Countries[f.EntityCode] = series
			}
			series.Exp[f.YM] = f.ExpUSD
			if f.Wgt != 0 {
				if series.Wgt == nil {
					series.Wgt = model.MonthlySeries{}
				}
				series.Wgt[f.YM] = f.Wgt
			}

		case model.TypeItemRegion:
			series := item.Regions[f.EntityCode]
			if series == nil {
				series = &model.RegionSeries{
					Name: nameOr(snap.Regions, f.EntityCode),
					Exp:  model.MonthlySeries{},
				}
				item.Regions[f.EntityCode] = series
			}
			series.Exp[f.YM] = f.ExpUSD

		case model.TypeSubItem:
			sub := subItemFor(item, snap, f.HSCode, f.SubCode)
			sub.Exp[f.YM] = f.ExpUSD
			sub.Wgt[f.YM] = f.Wgt

		case model.TypeSubCountry:
			sub := subItemFor(item, snap, f.HSCode, f.SubCode)
			series := sub.Countries[f.EntityCode]
			if series == nil {
				series = &model.CountrySeries{
					Name: nameOr(snap.Countries, f.EntityCode),
					Exp:  model.MonthlySeries{},
				}
				sub.Countries[f.EntityCode] = series
			}
			series.Exp[f.YM] = f.ExpUSD
			if f.Wgt != 0 {
				if series.Wgt == nil {
					series.Wgt = model.MonthlySeries{}
				}
				series.Wgt[f.YM] = f.Wgt
			}

		case model.TypeCompanyLoc:
			if f.SubCode == model.SamyangKey {
				loc := samyangFor(item, snap, f.HSCode, f.EntityCode)
				loc.Exp[f.YM] = f.ExpUSD
				break
			}
			loc := companyLocFor(item, snap, f.HSCode, f.SubCode, f.EntityCode)
			loc.Exp[f.YM] = f.ExpUSD
		}
	}

	hs6 := snap.HSNames[6]
	for _, f := range snap.Ranking {
		entry := doc.Ranking6D[f.SubCode]
		if entry == nil {
			entry = &model.RankingEntry{Name: hs6[f.SubCode], Exp: model.MonthlySeries{}}
			doc.Ranking6D[f.SubCode] = entry
		}
		entry.Exp[f.YM] = f.ExpUSD
	}

	return doc, nil
}

func subItemFor(item *model.Item, snap *store.Snapshot, hs, sub string) *model.SubItem {
	if item.SubItems == nil {
		item.SubItems = make(map[string]*model.SubItem)
	}
	s := item.SubItems[sub]
	if s == nil {
		s = &model.SubItem{
			Name:      nameOr(snap.SubItems[hs], sub),
			Exp:       model.MonthlySeries{},
			Wgt:       model.MonthlySeries{},
			Countries: make(map[string]*model.CountrySeries),
		}
		item.SubItems[sub] = s
	}
	return s
}

func companyFor(item *model.Item, snap *store.Snapshot, hs, ck string) *model.Company {
	if item.Companies == nil {
		item.Companies = make(map[string]*model.Company)
	}
	company := item.Companies[ck]
	if company == nil {
		company = &model.Company{
			Name:      nameOr(snap.Companies[hs], ck),
			Locations: make(map[string]*model.LocationSeries),
		}
		item.Companies[ck] = company
	}
	return company
}

func companyLocFor(item *model.Item, snap *store.Snapshot, hs, ck, lk string) *model.LocationSeries {
	company := companyFor(item, snap, hs, ck)
	loc := company.Locations[lk]
	if loc == nil {
		loc = &model.LocationSeries{
			Name: nameOr(snap.CompanyLocs[hs][ck], lk),
			Exp:  model.MonthlySeries{},
		}
		company.Locations[lk] = loc
	}
	return loc
}

func samyangFor(item *model.Item, snap *store.Snapshot, hs, lk string) *model.LocationSeries {
	if item.Samyang == nil {
		item.Samyang = make(map[string]*model.LocationSeries)
	}
	loc := item.Samyang[lk]
	if loc == nil {
		loc = &model.LocationSeries{
			Name: nameOr(snap.CompanyLocs[hs][model.SamyangKey], lk),
			Exp:  model.MonthlySeries{},
		}
		item.Samyang[lk] = loc
	}
	return loc
}

// nameOr resolves a display name, falling back to the code itself when the
// dimension row is missing.
func nameOr(names map[string]string, code string) string {
	if name, ok := names[code]; ok && name != "" {
		return name
	}
	return code
}
