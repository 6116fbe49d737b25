// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the retry
// queue: enqueueing failed ingestion attempts, selecting due items, retry
// bookkeeping, and compaction.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
)

// EnqueueRetry inserts a new retry queue item with zeroed bookkeeping.
func EnqueueRetry(ctx context.Context, db *gorm.DB, eventType string, eventData []byte, maxRetries int, now, nextRetryAt time.Time) (*domain.RetryQueueItem, error) {
	item := &domain.RetryQueueItem{
		EventType:   eventType,
		EventData:   eventData,
		RetryCount:  0,
		MaxRetries:  maxRetries,
		NextRetryAt: nextRetryAt,
		CreatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ListDueRetries returns up to limit eligible items ordered oldest first
// (FIFO fairness, not priority). Eligibility is the canonical predicate:
// not yet processed, due, and under the retry cap.
func ListDueRetries(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.RetryQueueItem, error) {
	var out []domain.RetryQueueItem
	q := db.WithContext(ctx).
		Where("processed_at IS NULL AND next_retry_at <= ? AND retry_count < max_retries", now).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// MarkRetryProcessed stamps processed_at on an item, but only when it is
// still unprocessed. The WHERE guard is the optimistic check that keeps two
// overlapping processor runs from double-claiming the same item; the boolean
// result reports whether this caller won the claim.
func MarkRetryProcessed(ctx context.Context, db *gorm.DB, id int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.RetryQueueItem{}).
		Where("id = ? AND processed_at IS NULL", id).
		Update("processed_at", now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RescheduleRetry increments retry_count and pushes next_retry_at out. The
// caller computes the new timestamp from the incremented count so the backoff
// formula lives in one place (the service layer).
func RescheduleRetry(ctx context.Context, db *gorm.DB, id int64, retryCount int, nextRetryAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.RetryQueueItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count":   retryCount,
			"next_retry_at": nextRetryAt,
		}).Error
}

// DeleteProcessedBefore removes processed items older than the cutoff
// (routine compaction). Failed/dead items are never touched here.
func DeleteProcessedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&domain.RetryQueueItem{})
	return res.RowsAffected, res.Error
}

// DeleteDeadBefore removes permanently-failed items created before the
// cutoff. Only invoked when a dead-item retention is configured; by default
// dead rows are kept for manual remediation.
func DeleteDeadBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("processed_at IS NULL AND retry_count >= max_retries AND created_at < ?", cutoff).
		Delete(&domain.RetryQueueItem{})
	return res.RowsAffected, res.Error
}

// RetryQueueStatus holds the per-bucket row counts reported to operators.
// The three predicates partition the table: every row falls in exactly one
// bucket.
type RetryQueueStatus struct {
	PendingItems   int64 `json:"pendingItems"`
	ProcessedItems int64 `json:"processedItems"`
	FailedItems    int64 `json:"failedItems"`
}

// CountRetryStatus computes the pending/processed/failed buckets.
func CountRetryStatus(ctx context.Context, db *gorm.DB) (*RetryQueueStatus, error) {
	var st RetryQueueStatus

	if err := db.WithContext(ctx).Model(&domain.RetryQueueItem{}).
		Where("processed_at IS NULL AND retry_count < max_retries").
		Count(&st.PendingItems).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.RetryQueueItem{}).
		Where("processed_at IS NOT NULL").
		Count(&st.ProcessedItems).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.RetryQueueItem{}).
		Where("processed_at IS NULL AND retry_count >= max_retries").
		Count(&st.FailedItems).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
