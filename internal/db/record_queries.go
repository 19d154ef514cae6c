package db

import (
	"context"
	"fmt"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/globaltime"
)

// Filter scopes record reads and canonical-name writes to a report window.
// Zero values leave the corresponding dimension unbounded. From/To describe
// a half-open [From, To) interval on the report date.
type Filter struct {
	OwnerID int64
	Store   string
	From    *time.Time
	To      *time.Time
}

// FetchLineRecords returns every product line record in the filter window,
// ordered by report date then record id. Consumers rely on this order being
// stable: resolution scans records in exactly this sequence.
func (p *Pool) FetchLineRecords(ctx context.Context, filter Filter) ([]ProductLineRecord, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	const q = `
SELECT
	plr.record_id,
	plr.record_uuid::text,
	plr.report_id,
	plr.raw_name,
	plr.canonical_name,
	plr.external_id,
	plr.price,
	plr.clicks,
	plr.add_to_cart,
	plr.orders,
	plr.items_sold,
	plr.revenue
FROM reports.product_line_records plr
JOIN reports.broadcast_reports r
	ON r.report_id = plr.report_id
WHERE r.deleted_at IS NULL
  AND ($1 = 0 OR r.owner_id = $1)
  AND ($2 = '' OR r.store = $2)
  AND ($3::timestamptz IS NULL OR r.report_date >= $3)
  AND ($4::timestamptz IS NULL OR r.report_date < $4)
ORDER BY r.report_date, plr.record_id
`

	rows, err := p.Query(ctx, q, filter.OwnerID, filter.Store, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("query line records: %w", err)
	}
	defer rows.Close()

	records := make([]ProductLineRecord, 0, 64)
	for rows.Next() {
		var rec ProductLineRecord
		if err := rows.Scan(
			&rec.RecordID,
			&rec.RecordUUID,
			&rec.ReportID,
			&rec.RawName,
			&rec.CanonicalName,
			&rec.ExternalID,
			&rec.Price,
			&rec.Clicks,
			&rec.AddToCart,
			&rec.Orders,
			&rec.ItemsSold,
			&rec.Revenue,
		); err != nil {
			return nil, fmt.Errorf("scan line record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line records: %w", err)
	}
	return records, nil
}

// StampCanonicalNames durably sets canonical_name on the given records.
// Last write wins; there is no concurrency token, so callers should scope
// canonicalization runs to narrow windows.
func (p *Pool) StampCanonicalNames(ctx context.Context, recordIDs []int64, canonicalName string) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}
	if len(recordIDs) == 0 {
		return 0, nil
	}

	const q = `
UPDATE reports.product_line_records
SET canonical_name = ?, updated_at = ?
WHERE record_id IN (?)
`

	tag, err := p.Exec(ctx, q, canonicalName, globaltime.UTC(), recordIDs)
	if err != nil {
		return 0, fmt.Errorf("stamp canonical name %q on %d records: %w", canonicalName, len(recordIDs), err)
	}
	return tag.RowsAffected(), nil
}

// ClearCanonicalNames clears canonical_name on every record in the filter
// window that currently has one. Idempotent: clearing an already-null field
// affects no rows.
func (p *Pool) ClearCanonicalNames(ctx context.Context, filter Filter) (int64, error) {
	if p == nil || p.gdb == nil {
		return 0, fmt.Errorf("database pool is not initialized")
	}

	const q = `
UPDATE reports.product_line_records plr
SET canonical_name = NULL, updated_at = $5
FROM reports.broadcast_reports r
WHERE r.report_id = plr.report_id
  AND plr.canonical_name IS NOT NULL
  AND r.deleted_at IS NULL
  AND ($1 = 0 OR r.owner_id = $1)
  AND ($2 = '' OR r.store = $2)
  AND ($3::timestamptz IS NULL OR r.report_date >= $3)
  AND ($4::timestamptz IS NULL OR r.report_date < $4)
`

	tag, err := p.Exec(ctx, q, filter.OwnerID, filter.Store, filter.From, filter.To, globaltime.UTC())
	if err != nil {
		return 0, fmt.Errorf("clear canonical names: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EngineStats summarizes stored reporting data for the stats endpoint.
type EngineStats struct {
	Reports              int64      `json:"reports"`
	LineRecords          int64      `json:"line_records"`
	CanonicalizedRecords int64      `json:"canonicalized_records"`
	CanonicalNames       int64      `json:"canonical_names"`
	LastReportDate       *time.Time `json:"last_report_date,omitempty"`
}

func (p *Pool) QueryEngineStats(ctx context.Context) (*EngineStats, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	const q = `
SELECT
	(SELECT COUNT(*) FROM reports.broadcast_reports WHERE deleted_at IS NULL) AS reports,
	(SELECT COUNT(*) FROM reports.product_line_records) AS line_records,
	(SELECT COUNT(*) FROM reports.product_line_records WHERE canonical_name IS NOT NULL) AS canonicalized_records,
	(SELECT COUNT(DISTINCT canonical_name) FROM reports.product_line_records WHERE canonical_name IS NOT NULL) AS canonical_names,
	(SELECT MAX(report_date) FROM reports.broadcast_reports WHERE deleted_at IS NULL) AS last_report_date
`

	var stats EngineStats
	if err := p.QueryRow(ctx, q).Scan(
		&stats.Reports,
		&stats.LineRecords,
		&stats.CanonicalizedRecords,
		&stats.CanonicalNames,
		&stats.LastReportDate,
	); err != nil {
		return nil, fmt.Errorf("query engine stats: %w", err)
	}
	return &stats, nil
}
