package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// Event adalah isi outbox yang dikirim ke sink (terminal websocket, broker)
type Event struct {
	ID          uint            `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID uint            `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

type EventSink interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

// OutboxRelay mem-poll outbox_events dan meneruskannya ke semua sink.
// Pengiriman at-least-once: event baru ditandai terkirim setelah semua sink sukses.
type OutboxRelay struct {
	DB          *gorm.DB
	Sinks       []EventSink
	StopChan    chan struct{}
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

func NewOutboxRelay(db *gorm.DB, interval time.Duration, sinks ...EventSink) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{
		DB:          db,
		Sinks:       sinks,
		StopChan:    make(chan struct{}),
		Interval:    interval,
		BatchSize:   100,
		MaxAttempts: 10,
	}
}

// Run berjalan sampai ctx selesai atau Stop dipanggil
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				utils.ErrorLogger.Printf("Error relaying outbox events: %v", err)
			}
		case <-r.StopChan:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *OutboxRelay) Stop() {
	close(r.StopChan)
}

// ProcessBatch mengirim satu batch event yang belum terkirim, mengembalikan jumlah yang sukses
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	var pending []models.OutboxEvent
	err := r.DB.WithContext(ctx).
		Where("published_at IS NULL AND attempts < ?", r.MaxAttempts).
		Order("id ASC").
		Limit(r.BatchSize).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	published := 0
	for _, row := range pending {
		event := Event{
			ID:          row.ID,
			Topic:       row.Topic,
			AggregateID: row.AggregateID,
			Payload:     json.RawMessage(row.Payload),
			CreatedAt:   row.CreatedAt,
		}

		if failed := r.publish(ctx, event); failed != nil {
			utils.ErrorLogger.Printf("Outbox event %d (%s) not delivered to %s: %v", row.ID, row.Topic, failed.sink, failed.err)
			if err := r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
				Where("id = ?", row.ID).
				Update("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
				return published, err
			}
			continue
		}

		now := time.Now()
		if err := r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"published_at": now,
				"attempts":     gorm.Expr("attempts + 1"),
			}).Error; err != nil {
			return published, err
		}
		published++
	}

	if published > 0 {
		utils.InfoLogger.Debugf("Relayed %d outbox events", published)
	}
	return published, nil
}

type sinkFailure struct {
	sink string
	err  error
}

func (r *OutboxRelay) publish(ctx context.Context, event Event) *sinkFailure {
	for _, sink := range r.Sinks {
		if err := sink.Publish(ctx, event); err != nil {
			return &sinkFailure{sink: sink.Name(), err: err}
		}
	}
	return nil
}
