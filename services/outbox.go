package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// Topic event yang dikirim ke terminal dan broker
const (
	TopicOrderCreated   = "order.created"
	TopicOrderUpdated   = "order.updated"
	TopicOrderSettled   = "order.settled"
	TopicInvoiceCreated = "invoice.created"
)

// recordEvent menulis event ke outbox di transaksi yang sama dengan perubahan data.
// Kalau transaksi rollback, event ikut hilang.
func recordEvent(tx *gorm.DB, topic string, aggregateID uint, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}
	event := models.OutboxEvent{
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     string(body),
		CreatedAt:   time.Now(),
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", topic, err)
	}
	return nil
}
