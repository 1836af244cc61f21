package config

// ItemSpec declares one tracked commodity: its display name and the
// allow-list of countries kept in the aggregated output. Items whose code
// is not a real HS prefix (BTX, ELK, HFS) set SubsOnly: their totals and
// country maps are rebuilt bottom-up from sub-item collections instead of
// a direct item query.
type ItemSpec struct {
	Name      string
	Countries []string
	SubsOnly  bool
}

// Track is one (location, commodity) export series of a company: the
// 6-digit HS code collected for the company's district.
type Track struct {
	Key  string
	Name string
	HS6  string
}

// CompanySpec locates a company for district-level collection. The
// DistrictName must match the sggNm field the district endpoint returns.
type CompanySpec struct {
	Name         string
	SidoCode     string
	DistrictName string
	Tracks       []Track
}

// SamyangLocation is one production site of the designated company.
type SamyangLocation struct {
	Name         string
	SidoCode     string
	DistrictName string
}

// SamyangSpec configures the company that is stored through the regular
// company_loc facts but surfaces as the document's dedicated samyang field
// under its owning item.
type SamyangSpec struct {
	Key       string
	Name      string
	OwnerItem string
	HS6       string
	Locations map[string]SamyangLocation
}

// Dataset is the immutable collection vocabulary. Collectors receive it
// explicitly so ingestion runs are reproducible; nothing here changes at
// runtime.
type Dataset struct {
	Items     map[string]ItemSpec
	MainItems []string
	// SubItems maps item code -> detail code -> name.
	SubItems map[string]map[string]string
	// Companies maps item code -> company key -> spec.
	Companies map[string]map[string]CompanySpec
	Samyang   SamyangSpec

	CountryNames map[string]string
	RegionNames  map[string]string
	// RegionCodes is the allow-list of district codes kept in item
	// region maps.
	RegionCodes []string
	// SidoCodes are the provinces swept for item-level district data.
	SidoCodes []string

	districtCode map[string]string
}

// IndexDistricts rebuilds the district-name lookup from RegionNames. Call
// it after constructing a Dataset by hand; DefaultDataset does it for you.
func (d *Dataset) IndexDistricts() {
	d.districtCode = buildDistrictIndex(d.RegionNames)
}

// RegionCodeFor resolves a district name as returned by the API (long
// province form, e.g. "경기도 화성시") to its region code. Reports false
// for districts outside the vocabulary.
func (d *Dataset) RegionCodeFor(districtName string) (string, bool) {
	code, ok := d.districtCode[districtName]
	return code, ok
}

// RegionTracked reports whether a region code is on the allow-list.
func (d *Dataset) RegionTracked(code string) bool {
	for _, c := range d.RegionCodes {
		if c == code {
			return true
		}
	}
	return false
}

// sidoLongNames expands the short province prefix used in region display
// names to the official form the district endpoint returns.
var sidoLongNames = map[string]string{
	"서울": "서울특별시",
	"부산": "부산광역시",
	"대구": "대구광역시",
	"인천": "인천광역시",
	"대전": "대전광역시",
	"울산": "울산광역시",
	"세종": "세종특별자치시",
	"경기": "경기도",
	"강원": "강원특별자치도",
	"충북": "충청북도",
	"충남": "충청남도",
	"전북": "전북특별자치도",
	"전남": "전라남도",
	"경북": "경상북도",
	"경남": "경상남도",
	"제주": "제주특별자치도",
}

// buildDistrictIndex derives the API-name -> region-code lookup from the
// display-name dictionary. Both the short ("경기 화성시") and the official
// ("경기도 화성시") spellings resolve; the capital-sejong special case has
// no district component.
func buildDistrictIndex(regionNames map[string]string) map[string]string {
	index := make(map[string]string, len(regionNames)*2)
	for code, name := range regionNames {
		parts := splitTwo(name)
		if parts == nil {
			continue
		}
		index[name] = code
		if long, ok := sidoLongNames[parts[0]]; ok {
			index[long+" "+parts[1]] = code
		}
	}
	index["세종특별자치시"] = "3611"
	return index
}

func splitTwo(name string) []string {
	var parts []string
	start := 0
	for i, r := range name {
		if r == ' ' {
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}
	parts = append(parts, name[start:])
	if len(parts) != 2 {
		return nil
	}
	return parts
}
