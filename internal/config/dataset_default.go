package config

// DefaultDataset returns the tracked-commodity vocabulary of the export
// dashboard. The data is reference configuration, not runtime state.
func DefaultDataset() *Dataset {
	d := &Dataset{
		Items: map[string]ItemSpec{
			"8541": {Name: "반도체", Countries: []string{
				"US", "CN", "JP", "TW", "VN", "DE", "HK", "SG", "MY", "IN",
				"NL", "PH", "TH", "IE", "HU", "PL", "MX", "GB"}},
			"8542": {Name: "집적회로", Countries: []string{"US", "CN", "JP", "TW", "SG"}},
			"8703": {Name: "승용차", Countries: []string{"US", "DE", "AU", "SA", "CA"}},
			"8507": {Name: "2차전지", Countries: []string{"US", "DE", "HU", "PL", "CN"}},
			"3304": {Name: "화장품", Countries: []string{
				"US", "CN", "JP", "VN", "TH", "RU", "HK", "MY", "SG", "AU", "TW", "ID", "CA"}},
			"1902": {Name: "라면", Countries: []string{
				"CN", "US", "JP", "VN", "PH", "TH", "AU", "MY", "ID", "CA",
				"GB", "RU", "DE", "HK", "SG", "TW", "NL", "AE"}},
			"9018": {Name: "미용의료기기", Countries: []string{
				"US", "CN", "JP", "DE", "VN", "IN", "BR", "RU", "TH", "MY",
				"AU", "TR", "ID", "GB", "SA", "AE", "MX", "IT", "NL", "FR"}},
			"2710": {Name: "석유제품", Countries: []string{"CN", "JP", "SG", "AU", "IN"}},
			"7208": {Name: "열연강판", Countries: []string{"CN", "VN", "IN", "JP", "TH"}},
			"8901": {Name: "선박", Countries: []string{"SG", "PA", "MH", "LR", "GR"}},
			"8517": {Name: "통신기기", Countries: []string{"US", "CN", "VN", "IN", "JP"}},
			"8486": {Name: "반도체장비", Countries: []string{"CN", "TW", "US", "JP", "SG"}},
			"8471": {Name: "컴퓨터", Countries: []string{"US", "CN", "JP", "VN", "DE"}},
			"BTX": {Name: "보톡스/필러", SubsOnly: true, Countries: []string{
				"US", "CN", "JP", "DE", "VN", "IN", "BR", "RU", "TH", "MY",
				"AU", "TR", "ID", "GB", "SA", "AE", "MX", "IT", "NL", "FR",
				"KW", "SG", "HK", "TW", "CA", "PL", "ES"}},
			"ELK": {Name: "전력", SubsOnly: true, Countries: []string{
				"US", "CN", "JP", "DE", "VN", "IN", "BR", "RU", "TH", "MY",
				"AU", "TR", "ID", "GB", "SA", "AE", "MX", "IT", "NL", "FR",
				"SG", "PH", "EG", "IQ", "KW", "QA"}},
			"HFS": {Name: "건기식", SubsOnly: true, Countries: []string{
				"US", "CN", "JP", "VN", "TH", "AU", "MY", "HK", "SG", "TW",
				"PH", "ID", "CA", "RU", "DE", "AE", "GB"}},
		},

		MainItems: []string{"8541", "ELK", "1902", "3304", "9018", "BTX", "HFS"},

		SubItems: map[string]map[string]string{
			"8541": {
				"8542321010": "디램",
				"8542321030": "낸드",
				"8542323000": "복합구조칩",
				"7410211000": "CCL",
				"8532240000": "MLCC",
				"8534002000": "기판",
				"3701991000": "블랭크마스크",
				"8536691000": "테스트소켓",
				"3707901010": "감광액",
			},
			"BTX": {
				"3002491000": "보톡스",
				"3304999000": "필러",
			},
			"ELK": {
				"854460": "전선",
				"850423": "대형변압기",
				"850422": "중형변압기",
				"850421": "소형변압기",
				"853620": "차단기",
			},
			"9018": {
				"9018908110": "레이저장비",
				"9018908190": "RF/HIFU 장비",
				"9018908900": "기타장비",
				"9018909000": "소모품",
			},
		},

		Companies: map[string]map[string]CompanySpec{
			"BTX": {
				"pharmaresearch": {
					Name:         "파마리서치",
					SidoCode:     "51",
					DistrictName: "강원특별자치도 강릉시",
					Tracks: []Track{
						{Key: "pharma_med", Name: "의료기기 (강원 강릉시)", HS6: "901890"},
						{Key: "pharma_cosm", Name: "화장품 (강원 강릉시)", HS6: "330499"},
					},
				},
				"hugel": {
					Name:         "휴젤",
					SidoCode:     "51",
					DistrictName: "강원특별자치도 춘천시",
					Tracks: []Track{
						{Key: "hugel_btx", Name: "보톡스 (강원 춘천시)", HS6: "300249"},
						{Key: "hugel_filler", Name: "필러 (강원 춘천시)", HS6: "330499"},
					},
				},
				"medytox": {
					Name:         "메디톡스",
					SidoCode:     "43",
					DistrictName: "충청북도 청주시",
					Tracks: []Track{
						{Key: "medytox_btx", Name: "보톡스 (충북 청주시)", HS6: "300249"},
						{Key: "medytox_filler", Name: "필러 (충북 청주시)", HS6: "330499"},
					},
				},
				"daewoong": {
					Name:         "대웅제약",
					SidoCode:     "41",
					DistrictName: "경기도 화성시",
					Tracks: []Track{
						{Key: "daewoong_btx", Name: "보톡스 (경기 화성시)", HS6: "300249"},
					},
				},
			},
			"9018": {
				"clasys": {
					Name:         "클래시스",
					SidoCode:     "11",
					DistrictName: "서울특별시 강남구",
					Tracks: []Track{
						{Key: "clasys", Name: "클래시스 (서울 강남구)", HS6: "901890"},
					},
				},
				"wontech": {
					Name:         "원텍",
					SidoCode:     "30",
					DistrictName: "대전광역시 유성구",
					Tracks: []Track{
						{Key: "wontech", Name: "원텍 (대전 유성구)", HS6: "901890"},
					},
				},
				"asterasys": {
					Name:         "아스테라시스",
					SidoCode:     "11",
					DistrictName: "서울특별시 성동구",
					Tracks: []Track{
						{Key: "asterasys", Name: "아스테라시스 (서울 성동구)", HS6: "901890"},
					},
				},
			},
		},

		Samyang: SamyangSpec{
			Key:       "samyang",
			Name:      "삼양식품",
			OwnerItem: "1902",
			HS6:       "190230",
			Locations: map[string]SamyangLocation{
				"seongbuk": {Name: "서울 성북구", SidoCode: "11", DistrictName: "서울특별시 성북구"},
				"wonju":    {Name: "강원 원주시", SidoCode: "51", DistrictName: "강원특별자치도 원주시"},
				"iksan":    {Name: "전북 익산시", SidoCode: "52", DistrictName: "전북특별자치도 익산시"},
				"miryang":  {Name: "경남 밀양시", SidoCode: "48", DistrictName: "경상남도 밀양시"},
			},
		},

		CountryNames: map[string]string{
			"US": "미국", "CN": "중국", "JP": "일본", "DE": "독일", "VN": "베트남",
			"TW": "대만", "IN": "인도", "SG": "싱가포르", "AU": "호주", "SA": "사우디",
			"TH": "태국", "MY": "말레이시아", "HK": "홍콩", "GB": "영국", "NL": "네덜란드",
			"HU": "헝가리", "PL": "폴란드", "CA": "캐나다", "FR": "프랑스", "PH": "필리핀",
			"ID": "인도네시아", "RU": "러시아", "MX": "멕시코", "BR": "브라질", "AE": "UAE",
			"TR": "튀르키예", "IT": "이탈리아", "ES": "스페인", "CZ": "체코", "IE": "아일랜드",
			"PA": "파나마", "MH": "마셜제도", "LR": "라이베리아", "GR": "그리스",
			"QA": "카타르", "IL": "이스라엘", "KW": "쿠웨이트", "EG": "이집트",
			"IQ": "이라크", "AR": "아르헨티나", "CL": "칠레", "CO": "콜롬비아", "PE": "페루",
		},

		RegionNames: map[string]string{
			"4145": "경기 화성시", "4113": "경기 성남시", "4139": "경기 이천시",
			"4131": "경기 평택시", "4111": "경기 수원시", "4115": "경기 용인시",
			"4121": "경기 안산시", "4155": "경기 시흥시", "4143": "경기 파주시",
			"2817": "인천 남동구", "2826": "인천 서구", "2811": "인천 중구",
			"2871": "인천 연수구", "1120": "서울 강남구", "1121": "서울 송파구",
			"1114": "서울 중구", "1111": "서울 종로구", "1123": "서울 서초구",
			"2611": "부산 중구", "2644": "부산 강서구", "2617": "부산 사하구",
			"3114": "울산 남구", "3111": "울산 중구", "4411": "충남 천안시",
			"4413": "충남 아산시", "4311": "충북 청주시", "4717": "경북 구미시",
			"4811": "경남 창원시", "2711": "대구 중구", "3014": "대전 유성구",
			"4619": "전남 광양시", "5011": "제주 제주시", "3611": "세종 세종시",
			"1118": "서울 성동구",
		},

		RegionCodes: []string{
			"4145", "4113", "4139", "4131", "4111", "4115", "4121", "4155", "4143",
			"2817", "2826", "2811", "2871",
			"1120", "1121", "1114", "1111", "1123",
			"2611", "2644", "2617",
			"3114", "3111",
			"4411", "4413", "4311", "4717", "4811",
			"2711", "3014", "4619", "5011", "1118",
		},

		SidoCodes: []string{"41", "28", "11"},
	}

	d.IndexDistricts()
	return d
}
