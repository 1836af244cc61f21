package kcsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xmlEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <header>
    <resultCode>00</resultCode>
    <resultMsg>NORMAL SERVICE.</resultMsg>
  </header>
  <body>
    <items>
      <item>
        <year>2025.01</year>
        <statCd>US</statCd>
        <expDlr>1200</expDlr>
        <impDlr>300</impDlr>
      </item>
      <item>
        <year>2025.01</year>
        <statCd>CN</statCd>
        <expDlr>800</expDlr>
        <impDlr>0</impDlr>
      </item>
    </items>
  </body>
</response>`

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:    baseURL,
		ServiceKey: "test-key",
		RetryDelay: -1,
		CallDelay:  -1,
	})
}

func TestQueryParsesXML(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(xmlEnvelope))
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade,
		map[string]string{"strtYymm": "202402", "endYymm": "202503", "hsSgn": "1902"})

	require.Len(t, rows, 2)
	assert.Equal(t, "US", rows[0]["statCd"])
	assert.Equal(t, "1200", rows[0]["expDlr"])
	assert.Equal(t, "2025.01", rows[1]["year"])

	assert.Equal(t, "test-key", gotQuery["serviceKey"][0])
	assert.Equal(t, "10000", gotQuery["numOfRows"][0])
	assert.Equal(t, "1902", gotQuery["hsSgn"][0])
}

func TestQueryJSONFallback(t *testing.T) {
	payload := `{"response":{"body":{"items":{"item":[
		{"year":"2025.01","statCd":"US","expDlr":1200},
		{"year":"2025.01","statCd":"CN","expDlr":800}
	]}}}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "1200", rows[0]["expDlr"])
}

func TestQueryJSONSingleItem(t *testing.T) {
	payload := `{"response":{"body":{"items":{"item":{"year":"2025.01","statCd":"US","expDlr":5}}}}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "US", rows[0]["statCd"])
}

func TestQueryExhaustsAttemptsThenEmpty(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	assert.Empty(t, rows)
	assert.Equal(t, defaultMaxAttempts, attempts)
}

func TestQueryGarbageIsRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte("not xml and not json"))
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	assert.Empty(t, rows)
	assert.Equal(t, defaultMaxAttempts, attempts)
}

func TestQueryServiceKeyShortCircuits(t *testing.T) {
	attempts := 0
	envelope := `<response><header>
		<resultCode>30</resultCode>
		<resultMsg>SERVICE_KEY_IS_NOT_REGISTERED_ERROR</resultMsg>
	</header></response>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(envelope))
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	assert.Empty(t, rows)
	assert.Equal(t, 1, attempts, "bad credential must not burn the retry budget")
}

func TestQueryForbiddenShortCircuits(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	assert.Empty(t, rows)
	assert.Equal(t, 1, attempts)
}

func TestQueryNonFatalResultCodeReturnsRows(t *testing.T) {
	envelope := `<response><header>
		<resultCode>03</resultCode>
		<resultMsg>NODATA_ERROR</resultMsg>
	</header><body><items></items></body></response>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(envelope))
	}))
	defer srv.Close()

	rows := testClient(srv.URL).Query(context.Background(), PathItemTrade, nil)
	assert.Empty(t, rows)
}
