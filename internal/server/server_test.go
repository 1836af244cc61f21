package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelens/internal/model"
	"tradelens/internal/store/sqlite"
)

func newTestServer(t *testing.T) (*Server, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st), st
}

func seedDocument(t *testing.T, st *sqlite.Store) {
	t.Helper()
	doc := model.NewDocument()
	doc.GeneratedAt = "2025-03-15T09:00:00Z"
	doc.Period = model.Period{Start: "202402", End: "202503"}
	doc.MainItems = []string{"8541"}
	doc.HS4Names["8541"] = "반도체"
	doc.Total.Exp = model.MonthlySeries{"202503": 100}
	doc.Total.Imp = model.MonthlySeries{"202503": 20}
	item := model.NewItem("반도체")
	item.TotalExp = model.MonthlySeries{"202503": 100}
	item.TotalImp = model.MonthlySeries{"202503": 20}
	doc.Items["8541"] = item
	require.NoError(t, st.WriteDocument(context.Background(), doc))
}

func TestTradeDataEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedDocument(t, st)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/trade-data")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var doc model.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "202503", doc.Period.End)
	assert.Equal(t, []string{"8541"}, doc.MainItems)
	assert.Equal(t, int64(100), doc.Items["8541"].TotalExp["202503"])
}

func TestTradeDataServedFromCacheUntilWrite(t *testing.T) {
	srv, st := newTestServer(t)
	seedDocument(t, st)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	get := func() model.Document {
		resp, err := http.Get(ts.URL + "/api/trade-data")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var doc model.Document
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
		return doc
	}

	first := get()
	assert.Equal(t, int64(100), first.Items["8541"].TotalExp["202503"])

	// New ingestion advances the version; the next read reflects it.
	doc := model.NewDocument()
	doc.Period = model.Period{Start: "202402", End: "202504"}
	doc.MainItems = []string{"8541"}
	item := model.NewItem("반도체")
	item.TotalExp = model.MonthlySeries{"202504": 500}
	item.TotalImp = model.MonthlySeries{}
	doc.Items["8541"] = item
	require.NoError(t, st.WriteDocument(context.Background(), doc))

	second := get()
	assert.Equal(t, "202504", second.Period.End)
	assert.Equal(t, int64(500), second.Items["8541"].TotalExp["202504"])
}

func TestHealthEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seedDocument(t, st)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["version"])
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/trade-data", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
