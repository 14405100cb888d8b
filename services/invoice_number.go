package services

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceNumberer menghasilkan nomor invoice unik dan kira-kira urut waktu.
// Setiap instance aplikasi wajib memakai node id berbeda.
type InvoiceNumberer struct {
	node *snowflake.Node
}

func NewInvoiceNumberer(nodeID int64) (*InvoiceNumberer, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid snowflake node %d: %w", nodeID, err)
	}
	return &InvoiceNumberer{node: node}, nil
}

// Next mengembalikan nomor seperti INV/20240115/1747368953071284224
func (n *InvoiceNumberer) Next(now time.Time) string {
	return fmt.Sprintf("INV/%s/%s", now.Format("20060102"), n.node.Generate().String())
}
