package collect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelens/internal/config"
	"tradelens/internal/daterange"
	"tradelens/internal/kcsapi"
	"tradelens/internal/model"
	"tradelens/internal/store"
)

// fakeFetcher serves canned rows per HS filter, ignoring date ranges. Keys
// for the district endpoint are "hs6|sido".
type fakeFetcher struct {
	itemRows     map[string][]kcsapi.Row
	districtRows map[string][]kcsapi.Row
}

func (f *fakeFetcher) Query(_ context.Context, path string, params map[string]string) []kcsapi.Row {
	switch path {
	case kcsapi.PathItemTrade:
		return f.itemRows[params["hsSgn"]]
	case kcsapi.PathDistrictTrade:
		return f.districtRows[params["HsSgn"]+"|"+params["sidoCd"]]
	}
	return nil
}

// memStore captures writes for assertions.
type memStore struct {
	doc     *model.Document
	ranking map[string]*model.RankingEntry
	logs    []store.LogEntry
	months  map[string]struct{}
}

func (m *memStore) WriteDocument(_ context.Context, doc *model.Document) error {
	m.doc = doc
	return nil
}

func (m *memStore) WriteRanking(_ context.Context, entries map[string]*model.RankingEntry) error {
	m.ranking = entries
	return nil
}

func (m *memStore) Snapshot(context.Context) (*store.Snapshot, error) { return nil, nil }

func (m *memStore) RankingMonths(context.Context) (map[string]struct{}, error) {
	return m.months, nil
}

func (m *memStore) AppendLog(_ context.Context, entry store.LogEntry) error {
	m.logs = append(m.logs, entry)
	return nil
}

func (m *memStore) Version(context.Context) (int64, error) { return 0, nil }
func (m *memStore) Close() error                           { return nil }

func testDataset() *config.Dataset {
	d := &config.Dataset{
		Items: map[string]config.ItemSpec{
			"1111": {Name: "테스트품목", Countries: []string{"US", "CN"}},
			"PSE":  {Name: "가상품목", SubsOnly: true, Countries: []string{"US"}},
		},
		MainItems: []string{"1111", "PSE"},
		SubItems: map[string]map[string]string{
			"PSE": {"222222": "세부품목"},
		},
		Companies: map[string]map[string]config.CompanySpec{
			"1111": {
				"acme": {
					Name:         "에이크미",
					SidoCode:     "11",
					DistrictName: "서울특별시 강남구",
					Tracks: []config.Track{
						{Key: "acme_main", Name: "에이크미 (서울 강남구)", HS6: "111111"},
					},
				},
			},
		},
		Samyang: config.SamyangSpec{
			Key:       "samyang",
			Name:      "삼양식품",
			OwnerItem: "1111",
			HS6:       "111190",
			Locations: map[string]config.SamyangLocation{
				"site": {Name: "서울 성북구", SidoCode: "11", DistrictName: "서울특별시 성북구"},
			},
		},
		CountryNames: map[string]string{"US": "미국", "CN": "중국"},
		RegionNames:  map[string]string{"1120": "서울 강남구"},
		RegionCodes:  []string{"1120"},
		SidoCodes:    []string{"11"},
	}
	d.IndexDistricts()
	return d
}

func testFetcher() *fakeFetcher {
	return &fakeFetcher{
		itemRows: map[string][]kcsapi.Row{
			"1111": {
				{"year": "2025.02", "statCd": "US", "expDlr": "60", "impDlr": "5", "hsCd": "111111", "statKor": "테스트품목"},
				{"year": "2025.02", "statCd": "CN", "expDlr": "40", "impDlr": "5", "hsCd": "111190"},
				{"year": "2025.03", "statCd": "US", "expDlr": "80", "impDlr": "10", "hsCd": "111111"},
				// Period aggregate and placeholder rows are skipped.
				{"year": "총계", "statCd": "US", "expDlr": "9999"},
				{"year": "2025.02", "statCd": "-", "expDlr": "7"},
			},
			"222222": {
				{"year": "2025.02", "statCd": "US", "expDlr": "30", "expWgt": "7"},
			},
		},
		districtRows: map[string][]kcsapi.Row{
			"111111|11": {
				{"priodTitle": "2025.02", "sggNm": "서울특별시 강남구", "expUsdAmt": "2"},
				{"priodTitle": "2025.02", "sggNm": "서울특별시 노원구", "expUsdAmt": "5"},
			},
			"111190|11": {
				{"priodTitle": "2025.02", "sggNm": "서울특별시 성북구", "expUsdAmt": "3"},
			},
		},
	}
}

func testRunner(s store.Store) *Runner {
	return &Runner{
		Fetcher: testFetcher(),
		Store:   s,
		Dataset: testDataset(),
		Months:  2,
		Now: func() time.Time {
			return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
		},
	}
}

func TestRunBuildsDocument(t *testing.T) {
	ms := &memStore{}
	r := testRunner(ms)

	require.NoError(t, r.Run(context.Background()))
	require.NotNil(t, ms.doc)
	doc := ms.doc

	assert.Equal(t, model.Period{Start: "202502", End: "202503"}, doc.Period)
	assert.Equal(t, []string{"1111", "PSE"}, doc.MainItems)
	assert.Equal(t, "테스트품목", doc.HS4Names["1111"])
	_, ok := doc.HS4Names["PSE"]
	assert.False(t, ok)

	item := doc.Items["1111"]
	require.NotNil(t, item)
	assert.Equal(t, model.MonthlySeries{"202502": 100, "202503": 80}, item.TotalExp)
	assert.Equal(t, model.MonthlySeries{"202502": 10, "202503": 10}, item.TotalImp)

	require.Contains(t, item.Countries, "US")
	assert.Equal(t, "미국", item.Countries["US"].Name)
	assert.Equal(t, model.MonthlySeries{"202502": 60, "202503": 80}, item.Countries["US"].Exp)
	assert.Equal(t, model.MonthlySeries{"202502": 40}, item.Countries["CN"].Exp)
}

func TestRunDerivesGrandTotalFromDirectItems(t *testing.T) {
	ms := &memStore{}
	r := testRunner(ms)

	require.NoError(t, r.Run(context.Background()))

	// The pseudo item contributes nothing; its commodities would be
	// double-counted otherwise.
	assert.Equal(t, model.MonthlySeries{"202502": 100, "202503": 80}, ms.doc.Total.Exp)
	assert.Equal(t, model.MonthlySeries{"202502": 10, "202503": 10}, ms.doc.Total.Imp)
}

func TestRunRebuildsPseudoItemFromSubs(t *testing.T) {
	ms := &memStore{}
	r := testRunner(ms)

	require.NoError(t, r.Run(context.Background()))

	item := ms.doc.Items["PSE"]
	require.NotNil(t, item)
	require.Contains(t, item.SubItems, "222222")
	sub := item.SubItems["222222"]
	assert.Equal(t, "세부품목", sub.Name)
	assert.Equal(t, model.MonthlySeries{"202502": 30}, sub.Exp)
	assert.Equal(t, model.MonthlySeries{"202502": 7}, sub.Wgt)
	require.Contains(t, sub.Countries, "US")
	assert.Equal(t, model.MonthlySeries{"202502": 7}, sub.Countries["US"].Wgt)

	assert.Equal(t, model.MonthlySeries{"202502": 30}, item.TotalExp)
	assert.Equal(t, model.MonthlySeries{"202502": 7}, item.TotalWgt)
	require.Contains(t, item.Countries, "US")
	assert.Equal(t, model.MonthlySeries{"202502": 30}, item.Countries["US"].Exp)
}

func TestRunCollectsRegions(t *testing.T) {
	ms := &memStore{}
	r := testRunner(ms)

	require.NoError(t, r.Run(context.Background()))

	regions := ms.doc.Items["1111"].Regions
	require.Contains(t, regions, "1120")
	assert.Equal(t, "서울 강남구", regions["1120"].Name)
	// Thousand-USD amounts are scaled to USD.
	assert.Equal(t, model.MonthlySeries{"202502": 2000}, regions["1120"].Exp)
	// Districts outside the vocabulary are dropped.
	assert.Len(t, regions, 1)
}

func TestRunCollectsCompaniesAndSamyang(t *testing.T) {
	ms := &memStore{}
	r := testRunner(ms)

	require.NoError(t, r.Run(context.Background()))
	item := ms.doc.Items["1111"]

	require.Contains(t, item.Companies, "acme")
	acme := item.Companies["acme"]
	assert.Equal(t, "에이크미", acme.Name)
	require.Contains(t, acme.Locations, "acme_main")
	assert.Equal(t, model.MonthlySeries{"202502": 2000}, acme.Locations["acme_main"].Exp)

	require.Contains(t, item.Samyang, "site")
	assert.Equal(t, "서울 성북구", item.Samyang["site"].Name)
	assert.Equal(t, model.MonthlySeries{"202502": 3000}, item.Samyang["site"].Exp)
}

func TestRunAppendsCollectionLog(t *testing.T) {
	ms := &memStore{}
	r := testRunner(ms)

	require.NoError(t, r.Run(context.Background()))

	var items []string
	for _, entry := range ms.logs {
		if entry.Collector == "item" {
			items = append(items, entry.HSCode)
			assert.Equal(t, "202502", entry.YMStart)
			assert.Equal(t, "202503", entry.YMEnd)
		}
	}
	assert.Equal(t, []string{"1111", "PSE"}, items)
}

func TestTopHS6StableOrder(t *testing.T) {
	r := testRunner(&memStore{})
	r.Fetcher = &fakeFetcher{itemRows: map[string][]kcsapi.Row{
		"1111": {
			{"year": "2025.03", "statCd": "US", "hsCd": "111130", "expDlr": "10"},
			{"year": "2025.03", "statCd": "US", "hsCd": "111110", "expDlr": "10"},
			{"year": "2025.03", "statCd": "US", "hsCd": "111120", "expDlr": "50"},
			{"year": "2025.03", "statCd": "US", "hsCd": "111140", "expDlr": "5"},
		},
	}}

	codes := r.topHS6(context.Background(), "1111",
		daterange.Range{Start: "202502", End: "202503"})
	assert.Equal(t, []string{"111120", "111110", "111130"}, codes)
}

func TestRunRankingIncremental(t *testing.T) {
	ms := &memStore{months: map[string]struct{}{"202502": {}}}
	r := testRunner(ms)

	require.NoError(t, r.RunRanking(context.Background()))
	require.NotNil(t, ms.ranking)

	entry := ms.ranking["111111"]
	require.NotNil(t, entry)
	assert.Equal(t, "테스트품목", entry.Name)
	assert.Equal(t, int64(80), entry.Exp["202503"])

	// Nameless rows leave the name empty for a later sweep to fill.
	assert.Equal(t, "", ms.ranking["111190"].Name)
}

func TestRunRankingSkipsWhenComplete(t *testing.T) {
	ms := &memStore{months: map[string]struct{}{"202502": {}, "202503": {}}}
	r := testRunner(ms)

	require.NoError(t, r.RunRanking(context.Background()))
	assert.Nil(t, ms.ranking)
}

func TestAllHS4Shape(t *testing.T) {
	codes := AllHS4()
	assert.Equal(t, "0101", codes[0])
	assert.Equal(t, "9799", codes[len(codes)-1])
	assert.Len(t, codes, 97*99)
}
