package db

import "time"

// BroadcastReport maps reports.broadcast_reports: one performance snapshot
// submitted for one live-commerce broadcast.
type BroadcastReport struct {
	ReportID   int64      `gorm:"column:report_id;primaryKey;autoIncrement"`
	ReportUUID string     `gorm:"column:report_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	OwnerID    int64      `gorm:"column:owner_id;type:bigint;not null"`
	Store      string     `gorm:"column:store;type:text;not null"`
	ReportDate time.Time  `gorm:"column:report_date;type:timestamptz;not null"`
	DeletedAt  *time.Time `gorm:"column:deleted_at;type:timestamptz"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (BroadcastReport) TableName() string { return "reports.broadcast_reports" }

// ProductLineRecord maps reports.product_line_records: one product entry
// within one broadcast report. Immutable after ingestion except for
// canonical_name, which is set by canonicalization and cleared by undo.
type ProductLineRecord struct {
	RecordID      int64     `gorm:"column:record_id;primaryKey;autoIncrement"`
	RecordUUID    string    `gorm:"column:record_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	ReportID      int64     `gorm:"column:report_id;type:bigint;not null;index"`
	RawName       string    `gorm:"column:raw_name;type:text;not null"`
	CanonicalName *string   `gorm:"column:canonical_name;type:text;index"`
	ExternalID    *string   `gorm:"column:external_id;type:text;index"`
	Price         float64   `gorm:"column:price;type:numeric;not null;default:0"`
	Clicks        int       `gorm:"column:clicks;type:integer;not null;default:0"`
	AddToCart     int       `gorm:"column:add_to_cart;type:integer;not null;default:0"`
	Orders        int       `gorm:"column:orders;type:integer;not null;default:0"`
	ItemsSold     int       `gorm:"column:items_sold;type:integer;not null;default:0"`
	Revenue       float64   `gorm:"column:revenue;type:numeric;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ProductLineRecord) TableName() string { return "reports.product_line_records" }

func autoMigrateModels() []any {
	return []any{
		&BroadcastReport{},
		&ProductLineRecord{},
	}
}
