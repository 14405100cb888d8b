package models

import "time"

// OutboxEvent ditulis di transaksi yang sama dengan perubahan data, lalu dikirim oleh relay.
type OutboxEvent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Topic       string     `gorm:"type:varchar(50);not null" json:"topic"`
	AggregateID uint       `gorm:"not null" json:"aggregate_id"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Attempts    int        `gorm:"not null;default:0" json:"attempts"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}
