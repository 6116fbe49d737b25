// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ClickEvent
// model (the append-only event store).
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-affiliate-backend/internal/domain"
)

// ErrNotFound indicates a row does not exist.
var ErrNotFound = errors.New("not found")

// CreateClickEvent inserts a new click event row. The caller is responsible
// for having validated and normalized all fields; this function only persists.
func CreateClickEvent(ctx context.Context, db *gorm.DB, ev *domain.ClickEvent) error {
	return db.WithContext(ctx).Create(ev).Error
}

// UpsertClickEvent inserts a click event, silently ignoring the insert when a
// row with the same id already exists. Used by the retry processor so that
// replaying a queue item whose original write partially succeeded does not
// create a duplicate event.
func UpsertClickEvent(ctx context.Context, db *gorm.DB, ev *domain.ClickEvent) error {
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(ev).Error
	if err != nil && isDuplicate(err) {
		// Driver did not honor ON CONFLICT (older SQLite builds); the row is
		// already there, which is exactly the outcome we want.
		return nil
	}
	return err
}

// GetClickEvent fetches a click event by id, returning ErrNotFound when the
// row does not exist.
func GetClickEvent(ctx context.Context, db *gorm.DB, id string) (*domain.ClickEvent, error) {
	var ev domain.ClickEvent
	err := db.WithContext(ctx).Where("id = ?", id).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// CountClickEvents uses a raw COUNT so a missing table surfaces as an error.
func CountClickEvents(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM click_events").Scan(&total).Error
	return total, err
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
