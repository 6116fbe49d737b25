// Package domain defines the persistence models for click tracking and the
// retry queue. These types are mapped with GORM and form the core data layer
// of the affiliate backend.
package domain

import (
	"time"
)

// ClickEvent is one recorded affiliate-link click with attribution and
// context metadata. Rows are append-only: they are created exactly once by
// the tracking service (or replayed by the retry processor) and never
// updated afterwards.
//
// Fields:
//   - ID: stable UUID primary key (char(36)); caller-suppliable so a replay
//     of the same logical click cannot create a duplicate row.
//   - LinkID / ProductID: required attribution identifiers (> 0).
//   - ContentID / PickID / VariantID: optional attribution refinements.
//   - PagePath, Referrer, Utm*, Device, Browser, Country: optional context;
//     empty strings are normalized to NULL before insert.
//   - RedirectMs: redirect duration in milliseconds (>= 0 when present).
//   - Success: whether the redirect completed (defaults true).
//   - CreatedAt: stamped at ingestion time.
type ClickEvent struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	LinkID      int64     `json:"link_id"      gorm:"not null;index:idx_clicks_link"`
	ProductID   int64     `json:"product_id"   gorm:"not null;index:idx_clicks_product"`
	ContentID   *int64    `json:"content_id,omitempty"`
	PickID      *int64    `json:"pick_id,omitempty"`
	VariantID   *int64    `json:"variant_id,omitempty"`
	PagePath    *string   `json:"page_path,omitempty"    gorm:"type:varchar(500)"`
	Referrer    *string   `json:"referrer,omitempty"     gorm:"type:varchar(2048)"`
	UtmSource   *string   `json:"utm_source,omitempty"   gorm:"type:varchar(255);index:idx_clicks_utm_source"`
	UtmMedium   *string   `json:"utm_medium,omitempty"   gorm:"type:varchar(255)"`
	UtmCampaign *string   `json:"utm_campaign,omitempty" gorm:"type:varchar(255)"`
	UtmTerm     *string   `json:"utm_term,omitempty"     gorm:"type:varchar(255)"`
	UtmContent  *string   `json:"utm_content,omitempty"  gorm:"type:varchar(255)"`
	Device      *string   `json:"device,omitempty"       gorm:"type:varchar(64)"`
	Browser     *string   `json:"browser,omitempty"      gorm:"type:varchar(64)"`
	Country     *string   `json:"country,omitempty"      gorm:"type:varchar(64)"`
	RedirectMs  *int64    `json:"redirect_ms,omitempty"`
	Success     bool      `json:"success"      gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"   gorm:"index:idx_clicks_created"`
}

// TableName returns the database table name for ClickEvent.
func (ClickEvent) TableName() string { return "click_events" }

// RetryQueueItem is a durable record of a failed ingestion attempt awaiting
// replay. The payload mirrors the validated ClickEvent fields (plus the
// generated event id), so the processor can reconstruct the event without
// touching the primary store. No foreign key links the two tables: the queue
// must survive even when the event store is unreachable.
//
// An item is eligible for processing iff
// processed_at IS NULL AND next_retry_at <= now AND retry_count < max_retries.
// Items that exhaust their budget stay in the table ("dead") for operator
// inspection; processed items are compacted after a retention window.
type RetryQueueItem struct {
	ID          int64      `json:"id"            gorm:"primaryKey;autoIncrement"`
	EventType   string     `json:"event_type"    gorm:"type:varchar(64);not null;index:idx_retry_type"`
	EventData   []byte     `json:"event_data"    gorm:"not null"`
	RetryCount  int        `json:"retry_count"   gorm:"not null;default:0"`
	MaxRetries  int        `json:"max_retries"   gorm:"not null;default:3"`
	NextRetryAt time.Time  `json:"next_retry_at" gorm:"not null;index:idx_retry_due"`
	CreatedAt   time.Time  `json:"created_at"    gorm:"index:idx_retry_created"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" gorm:"index:idx_retry_processed"`
}

// TableName returns the database table name for RetryQueueItem.
func (RetryQueueItem) TableName() string { return "retry_queue" }

// AffiliateLink is the minimal link metadata the reporting queries join
// against. Link CRUD lives in another service; this table is read-mostly
// here and only needs the fields dashboards display.
type AffiliateLink struct {
	ID        int64     `json:"id"         gorm:"primaryKey"`
	ProductID int64     `json:"product_id" gorm:"not null;index"`
	Slug      string    `json:"slug"       gorm:"type:varchar(255);not null;uniqueIndex"`
	TargetURL string    `json:"target_url" gorm:"type:varchar(2048);not null"`
	Active    bool      `json:"active"     gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for AffiliateLink.
func (AffiliateLink) TableName() string { return "affiliate_links" }

// Product is the minimal product metadata surfaced in analytics responses.
type Product struct {
	ID        int64     `json:"id"    gorm:"primaryKey"`
	Name      string    `json:"name"  gorm:"type:varchar(255);not null"`
	Brand     string    `json:"brand" gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }
