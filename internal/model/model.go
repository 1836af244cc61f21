package model

// DataType tags which nesting level of the trade document a fact row represents.
// The set is closed: the store schema and the view builder both key off it.
type DataType string

const (
	TypeTotal       DataType = "total"
	TypeItem        DataType = "item"
	TypeItemCountry DataType = "item_country"
	TypeItemRegion  DataType = "item_region"
	TypeSubItem     DataType = "sub_item"
	TypeSubCountry  DataType = "sub_country"
	TypeCompanyLoc  DataType = "company_loc"
	TypeRanking     DataType = "ranking"
)

// Fact is one (data_type, hs_code, sub_code, entity_code, ym) row of the
// normalized time-series table. The five key columns form the primary key;
// writes replace on conflict.
//
// Column roles by DataType:
//
//	total        hs=sub=entity=""                     grand total
//	item         hs=item code                         item total
//	item_country hs=item code, entity=country code
//	item_region  hs=item code, entity=region code
//	sub_item     hs=item code, sub=detail code
//	sub_country  hs=item code, sub=detail code, entity=country code
//	company_loc  hs=item code, sub=company key, entity=location key
//	ranking      sub=6-digit HS code
type Fact struct {
	DataType   DataType
	HSCode     string
	SubCode    string
	EntityCode string
	YM         string
	ExpUSD     int64
	ImpUSD     int64
	Wgt        int64
}

// SamyangKey is the designated company key whose location series surface on
// the owning item's samyang field instead of its companies map.
const SamyangKey = "samyang"

// MonthlySeries maps YYYYMM keys to integer values. Lexicographic key order
// is chronological order.
type MonthlySeries map[string]int64

// Clone returns a shallow copy, or nil for a nil series.
func (s MonthlySeries) Clone() MonthlySeries {
	if s == nil {
		return nil
	}
	out := make(MonthlySeries, len(s))
	for ym, v := range s {
		out[ym] = v
	}
	return out
}

// Period is the closed month range covered by a collection run.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CountrySeries is one country's monthly exports (and optional weight)
// under an item or a sub-item.
type CountrySeries struct {
	Name string        `json:"name"`
	Exp  MonthlySeries `json:"exp"`
	Wgt  MonthlySeries `json:"wgt,omitempty"`
}

// RegionSeries is one administrative district's monthly exports under an item.
type RegionSeries struct {
	Name string        `json:"name"`
	Exp  MonthlySeries `json:"exp"`
}

// SubItem is a detail commodity code nested under an item, with its own
// per-country decomposition.
type SubItem struct {
	Name      string                    `json:"name"`
	Exp       MonthlySeries             `json:"exp"`
	Wgt       MonthlySeries             `json:"wgt"`
	Countries map[string]*CountrySeries `json:"countries"`
}

// LocationSeries is one company production site's monthly exports.
type LocationSeries struct {
	Name string        `json:"name"`
	Exp  MonthlySeries `json:"exp"`
}

// Company groups the per-site export series of one tracked company.
type Company struct {
	Name      string                     `json:"name"`
	Locations map[string]*LocationSeries `json:"locations"`
}

// Item is one top-level commodity of the document. Totals are always the
// sum of the finest decomposition collected for the item, never read from
// an upstream aggregate field.
type Item struct {
	Name      string                     `json:"name"`
	TotalExp  MonthlySeries              `json:"total_exp"`
	TotalImp  MonthlySeries              `json:"total_imp"`
	TotalWgt  MonthlySeries              `json:"total_wgt,omitempty"`
	Countries map[string]*CountrySeries  `json:"countries"`
	Regions   map[string]*RegionSeries   `json:"regions"`
	SubItems  map[string]*SubItem        `json:"sub_items,omitempty"`
	Companies map[string]*Company        `json:"companies,omitempty"`
	Samyang   map[string]*LocationSeries `json:"samyang,omitempty"`
}

// RankingEntry is one 6-digit HS code in the full-classification export sweep.
// The name is learned from the first row that carries one and kept as-is after.
type RankingEntry struct {
	Name string        `json:"name"`
	Exp  MonthlySeries `json:"exp"`
}

// Totals carries the grand total export/import series across all items.
type Totals struct {
	Exp MonthlySeries `json:"exp"`
	Imp MonthlySeries `json:"imp"`
}

// Document is the nested shape the front end consumes. Field names and
// nesting are a compatibility contract; the store normalizes a Document
// into facts and the view builder reconstructs one from them.
type Document struct {
	GeneratedAt  string                       `json:"generated_at"`
	Period       Period                       `json:"period"`
	MainItems    []string                     `json:"main_items"`
	SubItemsDef  map[string]map[string]string `json:"sub_items_def"`
	AllCountries map[string]string            `json:"all_countries"`
	AllRegions   map[string]string            `json:"all_regions"`
	HS4Names     map[string]string            `json:"hs4_names"`
	HS2Names     map[string]string            `json:"hs2_names"`
	Total        Totals                       `json:"total"`
	Items        map[string]*Item             `json:"items"`
	Ranking6D    map[string]*RankingEntry     `json:"ranking_6d"`
}

// NewDocument returns a Document with all maps allocated.
func NewDocument() *Document {
	return &Document{
		SubItemsDef:  make(map[string]map[string]string),
		AllCountries: make(map[string]string),
		AllRegions:   make(map[string]string),
		HS4Names:     make(map[string]string),
		HS2Names:     make(map[string]string),
		Total:        Totals{Exp: MonthlySeries{}, Imp: MonthlySeries{}},
		Items:        make(map[string]*Item),
		Ranking6D:    make(map[string]*RankingEntry),
	}
}

// NewItem returns an Item with the always-present maps allocated.
func NewItem(name string) *Item {
	return &Item{
		Name:      name,
		TotalExp:  MonthlySeries{},
		TotalImp:  MonthlySeries{},
		Countries: make(map[string]*CountrySeries),
		Regions:   make(map[string]*RegionSeries),
	}
}
