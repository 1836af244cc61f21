// Package store defines the persistence boundary of the fact table and
// dimension tables.
package store

import (
	"context"
	"time"

	"tradelens/internal/model"
)

// ItemDef is one row of the item dimension.
type ItemDef struct {
	HSCode    string
	Name      string
	IsMain    bool
	SortOrder int
}

// Snapshot is one consistent read of everything the view builder needs:
// all dimension tables plus the fact table split the way reconstruction
// consumes it. Facts excludes total and ranking rows.
type Snapshot struct {
	Meta map[string]string

	HSNames   map[int]map[string]string // digits -> code -> name
	Countries map[string]string
	Regions   map[string]string

	Items       []ItemDef // ordered by sort_order
	SubItems    map[string]map[string]string
	Companies   map[string]map[string]string
	CompanyLocs map[string]map[string]map[string]string

	Totals  []model.Fact
	Facts   []model.Fact
	Ranking []model.Fact
}

// LogEntry records one collection run in the ingestion history.
type LogEntry struct {
	Collector   string
	HSCode      string
	YMStart     string
	YMEnd       string
	CollectedAt time.Time
	RowCount    int
}

// Store is the fact/dimension persistence contract. Writes are transactional
// and idempotent per primary key; Version advances monotonically on every
// committed write and serves as the staleness marker.
type Store interface {
	// WriteDocument normalizes a nested document into dimension and fact
	// rows in a single transaction, dimensions before facts.
	WriteDocument(ctx context.Context, doc *model.Document) error

	// WriteRanking upserts 6-digit ranking facts and their names. A name
	// already recorded is kept; only empty names are filled in.
	WriteRanking(ctx context.Context, entries map[string]*model.RankingEntry) error

	// Snapshot performs the full scan reconstruction reads from.
	Snapshot(ctx context.Context) (*Snapshot, error)

	// RankingMonths lists the months already present among ranking facts.
	RankingMonths(ctx context.Context) (map[string]struct{}, error)

	// AppendLog records one collection run.
	AppendLog(ctx context.Context, entry LogEntry) error

	// Version returns the store's modification marker.
	Version(ctx context.Context) (int64, error)

	Close() error
}
