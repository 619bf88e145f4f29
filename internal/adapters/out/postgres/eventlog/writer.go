// Package eventlog keeps the append-only event log in the "events" table and
// streams new entries to listeners through LISTEN/NOTIFY.
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// DefaultChannel is the NOTIFY channel new events are announced on.
const DefaultChannel = "dispatch_events"

type EventDTO struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Type      string         `gorm:"not null;index"`
	OrderID   string         `gorm:"index"`
	Payload   map[string]any `gorm:"type:jsonb;serializer:json"`
	Timestamp time.Time      `gorm:"not null;index"`
}

func (EventDTO) TableName() string {
	return "events"
}

// Writer appends events and notifies listeners in the same transaction, so a
// listener never hears about an event that was not stored.
type Writer struct {
	db      *gorm.DB
	channel string
}

func NewWriter(db *gorm.DB, channel string) *Writer {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Writer{db: db, channel: channel}
}

func (w *Writer) Publish(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, EventDTO{
			Type:      string(e.Type),
			OrderID:   e.OrderID(),
			Payload:   e.Payload,
			Timestamp: e.Timestamp,
		})
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dtos).Error; err != nil {
			return err
		}
		for _, e := range events {
			body, err := json.Marshal(e)
			if err != nil {
				return err
			}
			if err = tx.Exec("SELECT pg_notify(?, ?)", w.channel, string(body)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errs.NewStoreError("append events", err)
	}
	return nil
}

// Since returns stored events with an id greater than afterID, oldest first.
func (w *Writer) Since(ctx context.Context, afterID uint64, limit int) ([]EventDTO, error) {
	var dtos []EventDTO
	q := w.db.WithContext(ctx).Where("id > ?", afterID).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&dtos).Error; err != nil {
		return nil, errs.NewStoreError("read events", err)
	}
	return dtos, nil
}
