// Package kcsapi queries the Korea Customs Service OpenAPI tabular endpoints.
//
// The client owns the resilience contract of the ingestion pipeline: bounded
// retries with linear backoff, fatal short-circuit on credential rejection,
// and degradation to an empty row set on anything unrecoverable. Callers
// always receive rows, never an error.
package kcsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// PathItemTrade returns per-country, per-6-digit-code monthly rows for
	// one HS commodity filter.
	PathItemTrade = "/nitemtrade/getNitemtradeList"
	// PathDistrictTrade returns per-district monthly export rows for a
	// 6-digit HS code within one province.
	PathDistrictTrade = "/sigunguperprlstperacrs/getSigunguPerPrlstPerAcrs"
)

const (
	defaultBaseURL     = "https://apis.data.go.kr/1220000"
	defaultNumRows     = 10000
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 2 * time.Second
	defaultCallDelay   = 300 * time.Millisecond
	defaultUserAgent   = "tradelens/0.1"
)

// resultOK is the application-level success code of the OpenAPI envelope.
const resultOK = "00"

// Row is one flat result record: element tag (or JSON field) to text value.
type Row map[string]string

// Config holds client settings. Zero values are replaced with defaults;
// CallDelay and RetryDelay may be set negative to disable pacing in tests.
type Config struct {
	BaseURL     string
	ServiceKey  string
	NumRows     int
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	CallDelay   time.Duration
	UserAgent   string
}

func (cfg Config) withDefaults() Config {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.NumRows <= 0 {
		cfg.NumRows = defaultNumRows
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.CallDelay == 0 {
		cfg.CallDelay = defaultCallDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return cfg
}

// Client is a resilient fetcher for one service key. Safe for sequential
// reuse across endpoints; the ingestion pipeline is single-threaded.
type Client struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
}

// New builds a Client, filling config defaults.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    slog.Default(),
	}
}

// Query performs one logical query and returns its rows. Transient transport
// or parse failures are retried up to the attempt bound with linearly
// increasing backoff; credential rejections (SERVICE_KEY result message,
// HTTP 401/403) short-circuit. All failure modes degrade to an empty slice.
// A courtesy delay runs after every attempt unless disabled.
func (c *Client) Query(ctx context.Context, path string, params map[string]string) []Row {
	endpoint, err := c.buildURL(path, params)
	if err != nil {
		c.log.Error("kcsapi: bad query", "path", path, "err", err)
		return nil
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		rows, fatal, err := c.attempt(ctx, endpoint)
		c.pause(ctx, c.cfg.CallDelay)
		if err == nil {
			return rows
		}
		if fatal || ctx.Err() != nil {
			return nil
		}
		c.log.Warn("kcsapi: attempt failed",
			"path", path, "attempt", attempt, "err", err)
		if attempt < c.cfg.MaxAttempts {
			c.pause(ctx, c.cfg.RetryDelay*time.Duration(attempt))
		}
	}
	return nil
}

// attempt runs one HTTP round trip and parse. fatal=true means further
// attempts are pointless (doomed credential).
func (c *Client) attempt(ctx context.Context, endpoint string) (rows []Row, fatal bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, true, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode != http.StatusOK {
		err := errors.New("http status " + resp.Status)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.log.Error("kcsapi: rejected", "status", resp.Status)
			return nil, true, err
		}
		return nil, false, err
	}

	rows, code, msg, xmlErr := parseXMLRows(body)
	if xmlErr == nil {
		if code != "" && code != resultOK {
			c.log.Warn("kcsapi: result code", "code", code, "msg", msg)
			if strings.Contains(msg, "SERVICE_KEY") {
				return nil, true, errors.New("service key rejected")
			}
		}
		return rows, false, nil
	}

	if rows, jsonErr := parseJSONRows(body); jsonErr == nil {
		return rows, false, nil
	}

	return nil, false, xmlErr
}

func (c *Client) buildURL(path string, params map[string]string) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + path)
	if err != nil {
		return "", err
	}
	query := url.Values{}
	query.Set("serviceKey", c.cfg.ServiceKey)
	query.Set("numOfRows", strconv.Itoa(c.cfg.NumRows))
	for key, value := range params {
		query.Set(key, value)
	}
	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (c *Client) pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// parseXMLRows decodes the OpenAPI XML envelope: a result code/message pair
// plus repeated <item> elements whose child tags vary by endpoint.
func parseXMLRows(raw []byte) (rows []Row, code, msg string, err error) {
	decoder := xml.NewDecoder(bytes.NewReader(raw))
	var row Row
	var text strings.Builder
	sawRoot := false

	for {
		token, tokErr := decoder.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return nil, "", "", tokErr
		}
		switch t := token.(type) {
		case xml.StartElement:
			sawRoot = true
			if t.Name.Local == "item" {
				row = Row{}
			}
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			value := strings.TrimSpace(text.String())
			switch t.Name.Local {
			case "item":
				if row != nil {
					rows = append(rows, row)
					row = nil
				}
			case "resultCode":
				code = value
			case "resultMsg":
				msg = value
			}
			if row != nil && t.Name.Local != "item" {
				row[t.Name.Local] = value
			}
			text.Reset()
		}
	}
	if !sawRoot {
		return nil, "", "", errors.New("not xml")
	}
	return rows, code, msg, nil
}

// parseJSONRows handles the JSON rendering of the same envelope:
// response.body.items.item is a list of records, or a single record when
// exactly one row matched.
func parseJSONRows(raw []byte) ([]Row, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	node := payload["response"]
	for _, key := range []string{"body", "items"} {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, errors.New("unexpected response shape")
		}
		node = m[key]
	}
	if m, ok := node.(map[string]any); ok {
		node = m["item"]
	}

	switch typed := node.(type) {
	case []any:
		rows := make([]Row, 0, len(typed))
		for _, entry := range typed {
			if m, ok := entry.(map[string]any); ok {
				rows = append(rows, jsonRow(m))
			}
		}
		return rows, nil
	case map[string]any:
		return []Row{jsonRow(typed)}, nil
	case nil:
		return nil, nil
	default:
		return nil, errors.New("unexpected items type")
	}
}

func jsonRow(m map[string]any) Row {
	row := make(Row, len(m))
	for key, value := range m {
		switch typed := value.(type) {
		case string:
			row[key] = strings.TrimSpace(typed)
		case float64:
			row[key] = strconv.FormatFloat(typed, 'f', -1, 64)
		case bool:
			row[key] = strconv.FormatBool(typed)
		case nil:
			row[key] = ""
		}
	}
	return row
}
