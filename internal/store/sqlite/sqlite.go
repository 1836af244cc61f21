// Package sqlite implements the fact store on an embedded SQLite database.
//
// One ingestion run commits as one transaction: dimension rows first, fact
// rows after, so a concurrent reader never observes a fact whose key
// components lack their dimension rows. Fact writes replace on conflict;
// re-running ingestion for overlapping months overwrites without
// duplication.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"tradelens/internal/model"
	"tradelens/internal/store"
)

const versionKey = "version"

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS hs_names (
			hs_code TEXT PRIMARY KEY,
			name    TEXT NOT NULL,
			digits  INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS countries (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS regions (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			hs_code    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			is_main    INTEGER DEFAULT 0,
			sort_order INTEGER DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS item_countries (
			hs_code      TEXT NOT NULL,
			country_code TEXT NOT NULL,
			PRIMARY KEY (hs_code, country_code)
		);`,
		`CREATE TABLE IF NOT EXISTS sub_items (
			hs_code  TEXT NOT NULL,
			sub_code TEXT NOT NULL,
			name     TEXT NOT NULL,
			PRIMARY KEY (hs_code, sub_code)
		);`,
		`CREATE TABLE IF NOT EXISTS companies (
			hs_code     TEXT NOT NULL,
			company_key TEXT NOT NULL,
			name        TEXT NOT NULL,
			PRIMARY KEY (hs_code, company_key)
		);`,
		`CREATE TABLE IF NOT EXISTS company_locations (
			hs_code      TEXT NOT NULL,
			company_key  TEXT NOT NULL,
			location_key TEXT NOT NULL,
			name         TEXT NOT NULL,
			PRIMARY KEY (hs_code, company_key, location_key)
		);`,
		`CREATE TABLE IF NOT EXISTS trade_data (
			data_type   TEXT NOT NULL,
			hs_code     TEXT NOT NULL DEFAULT '',
			sub_code    TEXT NOT NULL DEFAULT '',
			entity_code TEXT NOT NULL DEFAULT '',
			ym          TEXT NOT NULL,
			exp_usd     INTEGER DEFAULT 0,
			imp_usd     INTEGER DEFAULT 0,
			wgt         INTEGER DEFAULT 0,
			PRIMARY KEY (data_type, hs_code, sub_code, entity_code, ym)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trade_ym ON trade_data(ym);`,
		`CREATE INDEX IF NOT EXISTS idx_trade_type_hs ON trade_data(data_type, hs_code);`,
		`CREATE INDEX IF NOT EXISTS idx_trade_type_hs_sub ON trade_data(data_type, hs_code, sub_code);`,
		`CREATE INDEX IF NOT EXISTS idx_hs_names_digits ON hs_names(digits);`,
		`CREATE TABLE IF NOT EXISTS collection_log (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			collector    TEXT NOT NULL,
			hs_code      TEXT NOT NULL DEFAULT '',
			ym_start     TEXT NOT NULL,
			ym_end       TEXT NOT NULL,
			collected_at TEXT NOT NULL,
			row_count    INTEGER DEFAULT 0
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return nil
}

// factWriter upserts fact rows through one prepared statement per
// transaction and counts them.
type factWriter struct {
	stmt  *sql.Stmt
	count int
}

func newFactWriter(ctx context.Context, tx *sql.Tx) (*factWriter, error) {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade_data (data_type, hs_code, sub_code, entity_code, ym, exp_usd, imp_usd, wgt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(data_type, hs_code, sub_code, entity_code, ym)
		DO UPDATE SET
			exp_usd = excluded.exp_usd,
			imp_usd = excluded.imp_usd,
			wgt = excluded.wgt
	`)
	if err != nil {
		return nil, err
	}
	return &factWriter{stmt: stmt}, nil
}

func (w *factWriter) write(ctx context.Context, f model.Fact) error {
	_, err := w.stmt.ExecContext(ctx,
		string(f.DataType), f.HSCode, f.SubCode, f.EntityCode, f.YM,
		f.ExpUSD, f.ImpUSD, f.Wgt)
	if err == nil {
		w.count++
	}
	return err
}

// WriteDocument flattens the nested document into dimension and fact rows.
// Everything commits in one transaction and bumps the version marker.
func (s *Store) WriteDocument(ctx context.Context, doc *model.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.writeMeta(ctx, tx, doc); err != nil {
		return err
	}
	if err = s.writeDimensions(ctx, tx, doc); err != nil {
		return err
	}

	writer, err := newFactWriter(ctx, tx)
	if err != nil {
		return err
	}
	defer writer.stmt.Close()

	if err = s.writeFacts(ctx, writer, doc); err != nil {
		return err
	}
	if err = bumpVersion(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) writeMeta(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	mainItems, err := json.Marshal(doc.MainItems)
	if err != nil {
		return err
	}
	subDefs, err := json.Marshal(doc.SubItemsDef)
	if err != nil {
		return err
	}
	entries := [][2]string{
		{"generated_at", doc.GeneratedAt},
		{"period_start", doc.Period.Start},
		{"period_end", doc.Period.End},
		{"main_items", string(mainItems)},
		{"sub_items_def", string(subDefs)},
	}
	for _, kv := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeDimensions(ctx context.Context, tx *sql.Tx, doc *model.Document) error {
	for code, name := range doc.AllCountries {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO countries (code, name) VALUES (?, ?)`, code, name); err != nil {
			return err
		}
	}
	for code, name := range doc.AllRegions {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO regions (code, name) VALUES (?, ?)`, code, name); err != nil {
			return err
		}
	}
	for code, name := range doc.HS2Names {
		if err := upsertHSName(ctx, tx, code, name, 2); err != nil {
			return err
		}
	}
	for code, name := range doc.HS4Names {
		if err := upsertHSName(ctx, tx, code, name, 4); err != nil {
			return err
		}
	}

	order := make(map[string]int, len(doc.MainItems))
	for i, hs := range doc.MainItems {
		order[hs] = i
	}
	for hs, item := range doc.Items {
		sortOrder, isMain := order[hs]
		if !isMain {
			sortOrder = 999
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO items (hs_code, name, is_main, sort_order) VALUES (?, ?, ?, ?)`,
			hs, item.Name, boolInt(isMain), sortOrder); err != nil {
			return err
		}

		for code := range item.Countries {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO item_countries (hs_code, country_code) VALUES (?, ?)`,
				hs, code); err != nil {
				return err
			}
		}
		for scode, sub := range item.SubItems {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO sub_items (hs_code, sub_code, name) VALUES (?, ?, ?)`,
				hs, scode, sub.Name); err != nil {
				return err
			}
			if err := upsertHSName(ctx, tx, scode, sub.Name, len(scode)); err != nil {
				return err
			}
		}
		for ck, company := range item.Companies {
			if err := writeCompany(ctx, tx, hs, ck, company.Name, company.Locations); err != nil {
				return err
			}
		}
		if len(item.Samyang) > 0 {
			if err := writeCompany(ctx, tx, hs, model.SamyangKey, model.SamyangKey, item.Samyang); err != nil {
				return err
			}
		}
	}

	for hs6, entry := range doc.Ranking6D {
		if entry.Name == "" {
			continue
		}
		if err := upsertRankingName(ctx, tx, hs6, entry.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeCompany(ctx context.Context, tx *sql.Tx, hs, key, name string, locations map[string]*model.LocationSeries) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO companies (hs_code, company_key, name) VALUES (?, ?, ?)`,
		hs, key, name); err != nil {
		return err
	}
	for lk, loc := range locations {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO company_locations (hs_code, company_key, location_key, name) VALUES (?, ?, ?, ?)`,
			hs, key, lk, loc.Name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeFacts(ctx context.Context, w *factWriter, doc *model.Document) error {
	for _, ym := range unionMonths(doc.Total.Exp, doc.Total.Imp) {
		err := w.write(ctx, model.Fact{
			DataType: model.TypeTotal, YM: ym,
			ExpUSD: doc.Total.Exp[ym], ImpUSD: doc.Total.Imp[ym],
		})
		if err != nil {
			return err
		}
	}

	for hs, item := range doc.Items {
		for _, ym := range unionMonths(item.TotalExp, item.TotalImp) {
			err := w.write(ctx, model.Fact{
				DataType: model.TypeItem, HSCode: hs, YM: ym,
				ExpUSD: item.TotalExp[ym], ImpUSD: item.TotalImp[ym], Wgt: item.TotalWgt[ym],
			})
			if err != nil {
				return err
			}
		}

		for code, series := range item.Countries {
			for ym, v := range series.Exp {
				err := w.write(ctx, model.Fact{
					DataType: model.TypeItemCountry, HSCode: hs, EntityCode: code, YM: ym,
					ExpUSD: v, Wgt: series.Wgt[ym],
				})
				if err != nil {
					return err
				}
			}
		}

		for code, series := range item.Regions {
			for ym, v := range series.Exp {
				err := w.write(ctx, model.Fact{
					DataType: model.TypeItemRegion, HSCode: hs, EntityCode: code, YM: ym,
					ExpUSD: v,
				})
				if err != nil {
					return err
				}
			}
		}

		for scode, sub := range item.SubItems {
			for ym, v := range sub.Exp {
				err := w.write(ctx, model.Fact{
					DataType: model.TypeSubItem, HSCode: hs, SubCode: scode, YM: ym,
					ExpUSD: v, Wgt: sub.Wgt[ym],
				})
				if err != nil {
					return err
				}
			}
			for code, series := range sub.Countries {
				for ym, v := range series.Exp {
					err := w.write(ctx, model.Fact{
						DataType: model.TypeSubCountry, HSCode: hs, SubCode: scode, EntityCode: code, YM: ym,
						ExpUSD: v, Wgt: series.Wgt[ym],
					})
					if err != nil {
						return err
					}
				}
			}
		}

		for ck, company := range item.Companies {
			for lk, loc := range company.Locations {
				if err := writeLocationFacts(ctx, w, hs, ck, lk, loc); err != nil {
					return err
				}
			}
		}
		for lk, loc := range item.Samyang {
			if err := writeLocationFacts(ctx, w, hs, model.SamyangKey, lk, loc); err != nil {
				return err
			}
		}
	}

	for hs6, entry := range doc.Ranking6D {
		for ym, v := range entry.Exp {
			err := w.write(ctx, model.Fact{
				DataType: model.TypeRanking, SubCode: hs6, YM: ym, ExpUSD: v,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func writeLocationFacts(ctx context.Context, w *factWriter, hs, ck, lk string, loc *model.LocationSeries) error {
	for ym, v := range loc.Exp {
		err := w.write(ctx, model.Fact{
			DataType: model.TypeCompanyLoc, HSCode: hs, SubCode: ck, EntityCode: lk, YM: ym,
			ExpUSD: v,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteRanking upserts the 6-digit sweep results. Names follow
// first-non-empty-wins: a name already recorded is never overwritten.
func (s *Store) WriteRanking(ctx context.Context, entries map[string]*model.RankingEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for hs6, entry := range entries {
		if entry.Name != "" {
			if err = upsertRankingName(ctx, tx, hs6, entry.Name); err != nil {
				return err
			}
		}
	}

	writer, err := newFactWriter(ctx, tx)
	if err != nil {
		return err
	}
	defer writer.stmt.Close()

	for hs6, entry := range entries {
		for ym, v := range entry.Exp {
			err = writer.write(ctx, model.Fact{
				DataType: model.TypeRanking, SubCode: hs6, YM: ym, ExpUSD: v,
			})
			if err != nil {
				return err
			}
		}
	}

	if err = bumpVersion(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertHSName(ctx context.Context, tx *sql.Tx, code, name string, digits int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO hs_names (hs_code, name, digits) VALUES (?, ?, ?)
		ON CONFLICT(hs_code) DO UPDATE SET name = excluded.name, digits = excluded.digits
	`, code, name, digits)
	return err
}

func upsertRankingName(ctx context.Context, tx *sql.Tx, code, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO hs_names (hs_code, name, digits) VALUES (?, ?, ?)
		ON CONFLICT(hs_code) DO UPDATE SET name = excluded.name
		WHERE hs_names.name = ''
	`, code, name, len(code))
	return err
}

func bumpVersion(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, '1')
		ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(meta.value AS INTEGER) + 1 AS TEXT)
	`, versionKey)
	return err
}

// Version returns the monotonic modification marker; zero before the
// first committed write.
func (s *Store) Version(ctx context.Context) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT CAST(value AS INTEGER) FROM meta WHERE key = ?`, versionKey).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

// AppendLog records one collection run in the ingestion history.
func (s *Store) AppendLog(ctx context.Context, entry store.LogEntry) error {
	at := entry.CollectedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collection_log (collector, hs_code, ym_start, ym_end, collected_at, row_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Collector, entry.HSCode, entry.YMStart, entry.YMEnd,
		at.UTC().Format(time.RFC3339), entry.RowCount)
	return err
}

// RankingMonths lists months already covered by ranking facts, for
// incremental collection.
func (s *Store) RankingMonths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT ym FROM trade_data WHERE data_type = ?`, string(model.TypeRanking))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	months := make(map[string]struct{})
	for rows.Next() {
		var ym string
		if err := rows.Scan(&ym); err != nil {
			return nil, err
		}
		months[ym] = struct{}{}
	}
	return months, rows.Err()
}

// Snapshot reads every dimension table and the fact table in full. The
// builder regroups the result in memory; nothing re-queries per item.
func (s *Store) Snapshot(ctx context.Context) (*store.Snapshot, error) {
	snap := &store.Snapshot{
		Meta:        make(map[string]string),
		HSNames:     make(map[int]map[string]string),
		Countries:   make(map[string]string),
		Regions:     make(map[string]string),
		SubItems:    make(map[string]map[string]string),
		Companies:   make(map[string]map[string]string),
		CompanyLocs: make(map[string]map[string]map[string]string),
	}

	if err := s.scanKV(ctx, `SELECT key, value FROM meta`, snap.Meta); err != nil {
		return nil, fmt.Errorf("sqlite: snapshot meta: %w", err)
	}
	if err := s.scanKV(ctx, `SELECT code, name FROM countries`, snap.Countries); err != nil {
		return nil, fmt.Errorf("sqlite: snapshot countries: %w", err)
	}
	if err := s.scanKV(ctx, `SELECT code, name FROM regions`, snap.Regions); err != nil {
		return nil, fmt.Errorf("sqlite: snapshot regions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT hs_code, name, digits FROM hs_names`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var code, name string
		var digits int
		if err := rows.Scan(&code, &name, &digits); err != nil {
			rows.Close()
			return nil, err
		}
		if snap.HSNames[digits] == nil {
			snap.HSNames[digits] = make(map[string]string)
		}
		snap.HSNames[digits][code] = name
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT hs_code, name, is_main, sort_order FROM items ORDER BY sort_order, hs_code`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var def store.ItemDef
		var isMain int
		if err := rows.Scan(&def.HSCode, &def.Name, &isMain, &def.SortOrder); err != nil {
			rows.Close()
			return nil, err
		}
		def.IsMain = isMain != 0
		snap.Items = append(snap.Items, def)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT hs_code, sub_code, name FROM sub_items`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var hs, sub, name string
		if err := rows.Scan(&hs, &sub, &name); err != nil {
			rows.Close()
			return nil, err
		}
		if snap.SubItems[hs] == nil {
			snap.SubItems[hs] = make(map[string]string)
		}
		snap.SubItems[hs][sub] = name
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT hs_code, company_key, name FROM companies`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var hs, key, name string
		if err := rows.Scan(&hs, &key, &name); err != nil {
			rows.Close()
			return nil, err
		}
		if snap.Companies[hs] == nil {
			snap.Companies[hs] = make(map[string]string)
		}
		snap.Companies[hs][key] = name
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT hs_code, company_key, location_key, name FROM company_locations`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var hs, key, lk, name string
		if err := rows.Scan(&hs, &key, &lk, &name); err != nil {
			rows.Close()
			return nil, err
		}
		if snap.CompanyLocs[hs] == nil {
			snap.CompanyLocs[hs] = make(map[string]map[string]string)
		}
		if snap.CompanyLocs[hs][key] == nil {
			snap.CompanyLocs[hs][key] = make(map[string]string)
		}
		snap.CompanyLocs[hs][key][lk] = name
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	snap.Totals, err = s.scanFacts(ctx,
		`SELECT data_type, hs_code, sub_code, entity_code, ym, exp_usd, imp_usd, wgt
		 FROM trade_data WHERE data_type = 'total'`)
	if err != nil {
		return nil, err
	}
	snap.Facts, err = s.scanFacts(ctx,
		`SELECT data_type, hs_code, sub_code, entity_code, ym, exp_usd, imp_usd, wgt
		 FROM trade_data WHERE data_type != 'total' AND data_type != 'ranking'`)
	if err != nil {
		return nil, err
	}
	snap.Ranking, err = s.scanFacts(ctx,
		`SELECT data_type, hs_code, sub_code, entity_code, ym, exp_usd, imp_usd, wgt
		 FROM trade_data WHERE data_type = 'ranking'`)
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Store) scanKV(ctx context.Context, query string, dst map[string]string) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		dst[k] = v
	}
	return rows.Err()
}

func (s *Store) scanFacts(ctx context.Context, query string) ([]model.Fact, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []model.Fact
	for rows.Next() {
		var f model.Fact
		var dataType string
		if err := rows.Scan(&dataType, &f.HSCode, &f.SubCode, &f.EntityCode, &f.YM,
			&f.ExpUSD, &f.ImpUSD, &f.Wgt); err != nil {
			return nil, err
		}
		f.DataType = model.DataType(dataType)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func unionMonths(series ...model.MonthlySeries) []string {
	seen := make(map[string]struct{})
	for _, s := range series {
		for ym := range s {
			seen[ym] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for ym := range seen {
		months = append(months, ym)
	}
	sort.Strings(months)
	return months
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ store.Store = (*Store)(nil)
