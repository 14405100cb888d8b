package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// ItemInput adalah satu baris pada daftar item lengkap yang dikirim terminal.
// LineID kosong berarti baris baru.
type ItemInput struct {
	LineID              string `json:"line_id"`
	ServiceID           uint   `json:"service_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
	EmployeeID          *uint  `json:"employee_id"`
}

// ItemEdit adalah perubahan per-baris yang bersifat komutatif (add/update/remove)
type ItemEdit struct {
	Kind                string `json:"kind"`
	LineID              string `json:"line_id"`
	ServiceID           uint   `json:"service_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions"`
	EmployeeID          *uint  `json:"employee_id"`
}

// itemLedger menulis event item lalu mem-fold ulang proyeksi order_items
type itemLedger struct {
	ctx     context.Context
	tx      *gorm.DB
	catalog CatalogReader
	actor   uint
	now     time.Time
}

func newItemLedger(ctx context.Context, tx *gorm.DB, catalog CatalogReader, actor uint) *itemLedger {
	return &itemLedger{ctx: ctx, tx: tx, catalog: catalog, actor: actor, now: time.Now()}
}

func (l *itemLedger) current(orderID uint) ([]models.OrderItem, error) {
	var events []models.OrderItemEvent
	if err := l.tx.Where("order_id = ?", orderID).Order("id asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to read item ledger: %w", err)
	}
	return foldItemEvents(events), nil
}

// addEvent membuat event add dengan harga & nama dari katalog (snapshot)
func (l *itemLedger) addEvent(orderID uint, lineID string, in ItemInput) (models.OrderItemEvent, error) {
	if in.ServiceID == 0 {
		return models.OrderItemEvent{}, invalid("service_id", "is required")
	}
	if in.Quantity <= 0 {
		return models.OrderItemEvent{}, invalid("quantity", "must be greater than zero for service %d", in.ServiceID)
	}
	svc, err := l.catalog.GetService(l.ctx, in.ServiceID)
	if errors.Is(err, ErrNotFound) {
		return models.OrderItemEvent{}, invalid("service_id", "unknown service %d", in.ServiceID)
	}
	if err != nil {
		return models.OrderItemEvent{}, err
	}
	if !svc.Active {
		return models.OrderItemEvent{}, invalid("service_id", "service %q is not active", svc.Name)
	}
	if lineID == "" {
		lineID = uuid.NewString()
	}
	return models.OrderItemEvent{
		OrderID:             orderID,
		Kind:                models.ItemEventAdd,
		LineID:              lineID,
		ServiceID:           svc.ID,
		Name:                svc.Name,
		Quantity:            in.Quantity,
		UnitPrice:           svc.Price,
		CommissionRate:      svc.CommissionRate,
		EmployeeID:          in.EmployeeID,
		SpecialInstructions: in.SpecialInstructions,
		RecordedBy:          l.actor,
		CreatedAt:           l.now,
	}, nil
}

// Replace menghitung diff antara daftar saat ini dan daftar baru. Hasil akhirnya
// sama persis dengan daftar baru (replace, bukan merge).
func (l *itemLedger) Replace(orderID uint, desired []ItemInput) error {
	current, err := l.current(orderID)
	if err != nil {
		return err
	}
	byLine := make(map[string]models.OrderItem, len(current))
	for _, item := range current {
		byLine[item.LineID] = item
	}

	var events []models.OrderItemEvent
	kept := make(map[string]bool, len(desired))
	for _, in := range desired {
		if in.LineID != "" {
			if kept[in.LineID] {
				return invalid("line_id", "duplicate line %s", in.LineID)
			}
			kept[in.LineID] = true
		}

		existing, ok := byLine[in.LineID]
		if in.LineID == "" || !ok || existing.ServiceID != in.ServiceID {
			lineID := in.LineID
			if ok {
				// layanan berubah pada line yang sama: hapus lalu tambah sebagai baris baru
				events = append(events, l.removeEvent(orderID, existing.LineID))
				lineID = ""
			}
			ev, err := l.addEvent(orderID, lineID, in)
			if err != nil {
				return err
			}
			events = append(events, ev)
			continue
		}

		if in.Quantity <= 0 {
			return invalid("quantity", "must be greater than zero for service %d", in.ServiceID)
		}
		if existing.Quantity != in.Quantity ||
			existing.SpecialInstructions != in.SpecialInstructions ||
			!sameEmployee(existing.EmployeeID, in.EmployeeID) {
			events = append(events, l.updateEvent(orderID, in.LineID, in.Quantity, in.SpecialInstructions, in.EmployeeID))
		}
	}

	for _, item := range current {
		if !kept[item.LineID] {
			events = append(events, l.removeEvent(orderID, item.LineID))
		}
	}

	return l.apply(orderID, events)
}

// Edit menerapkan perubahan per-baris. Dua terminal yang mengedit baris berbeda tidak saling menimpa.
func (l *itemLedger) Edit(orderID uint, edits []ItemEdit) error {
	current, err := l.current(orderID)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(current))
	for _, item := range current {
		present[item.LineID] = true
	}

	var events []models.OrderItemEvent
	for _, edit := range edits {
		switch edit.Kind {
		case models.ItemEventAdd:
			ev, err := l.addEvent(orderID, "", ItemInput{
				ServiceID:           edit.ServiceID,
				Quantity:            edit.Quantity,
				SpecialInstructions: edit.SpecialInstructions,
				EmployeeID:          edit.EmployeeID,
			})
			if err != nil {
				return err
			}
			present[ev.LineID] = true
			events = append(events, ev)
		case models.ItemEventUpdate:
			if edit.Quantity <= 0 {
				return invalid("quantity", "must be greater than zero, use remove to drop a line")
			}
			if !present[edit.LineID] {
				return &ConflictError{Kind: ConflictStaleOrder, Message: fmt.Sprintf("line %s no longer exists", edit.LineID)}
			}
			events = append(events, l.updateEvent(orderID, edit.LineID, edit.Quantity, edit.SpecialInstructions, edit.EmployeeID))
		case models.ItemEventRemove:
			// remove bersifat idempotent
			if present[edit.LineID] {
				events = append(events, l.removeEvent(orderID, edit.LineID))
				delete(present, edit.LineID)
			}
		default:
			return invalid("kind", "unknown item edit %q", edit.Kind)
		}
	}

	return l.apply(orderID, events)
}

func (l *itemLedger) updateEvent(orderID uint, lineID string, qty int, notes string, employeeID *uint) models.OrderItemEvent {
	return models.OrderItemEvent{
		OrderID:             orderID,
		Kind:                models.ItemEventUpdate,
		LineID:              lineID,
		Quantity:            qty,
		SpecialInstructions: notes,
		EmployeeID:          employeeID,
		RecordedBy:          l.actor,
		CreatedAt:           l.now,
	}
}

func (l *itemLedger) removeEvent(orderID uint, lineID string) models.OrderItemEvent {
	return models.OrderItemEvent{
		OrderID:    orderID,
		Kind:       models.ItemEventRemove,
		LineID:     lineID,
		RecordedBy: l.actor,
		CreatedAt:  l.now,
	}
}

// apply menyimpan event lalu menulis ulang proyeksi order_items dari hasil fold
func (l *itemLedger) apply(orderID uint, events []models.OrderItemEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := l.tx.Create(&events).Error; err != nil {
		return fmt.Errorf("failed to append item events: %w", err)
	}

	items, err := l.current(orderID)
	if err != nil {
		return err
	}
	if err := l.tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear order items: %w", err)
	}
	for i := range items {
		items[i].CreatedAt = l.now
	}
	if len(items) > 0 {
		if err := l.tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to write order items: %w", err)
		}
	}
	return nil
}

// foldItemEvents menghasilkan daftar item saat ini, urut sesuai waktu line ditambahkan
func foldItemEvents(events []models.OrderItemEvent) []models.OrderItem {
	lines := make(map[string]*models.OrderItem)
	var order []string
	for _, ev := range events {
		switch ev.Kind {
		case models.ItemEventAdd:
			if _, exists := lines[ev.LineID]; !exists {
				order = append(order, ev.LineID)
			}
			lines[ev.LineID] = &models.OrderItem{
				OrderID:             ev.OrderID,
				LineID:              ev.LineID,
				ServiceID:           ev.ServiceID,
				Name:                ev.Name,
				Quantity:            ev.Quantity,
				UnitPrice:           ev.UnitPrice,
				CommissionRate:      ev.CommissionRate,
				EmployeeID:          ev.EmployeeID,
				SpecialInstructions: ev.SpecialInstructions,
			}
		case models.ItemEventUpdate:
			if item, ok := lines[ev.LineID]; ok {
				item.Quantity = ev.Quantity
				item.SpecialInstructions = ev.SpecialInstructions
				item.EmployeeID = ev.EmployeeID
			}
		case models.ItemEventRemove:
			delete(lines, ev.LineID)
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, lineID := range order {
		if item, ok := lines[lineID]; ok {
			items = append(items, *item)
			delete(lines, lineID)
		}
	}
	return items
}

func itemRevenue(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func sameEmployee(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
