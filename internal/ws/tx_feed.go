package ws

import (
	"time"

	"growvest/internal/models"
)

// TxEvent is the wire shape of a transaction lifecycle event on the admin feed.
type TxEvent struct {
	EventType string `json:"event_type"` // always "transaction"
	TxID      uint   `json:"tx_id"`
	TxRef     string `json:"tx_ref"`
	UserID    uint   `json:"user_id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	At        int64  `json:"at"`
}

// TxFeed streams transaction status changes to connected admin dashboards.
// It satisfies the ledger service's publisher interface.
type TxFeed struct {
	*Hub
}

func NewTxFeed() *TxFeed {
	return &TxFeed{Hub: NewHub()}
}

func (f *TxFeed) PublishTx(t *models.Transaction) {
	f.BroadcastAll(TxEvent{
		EventType: "transaction",
		TxID:      t.ID,
		TxRef:     t.TxRef,
		UserID:    t.UserID,
		Type:      t.Type,
		Status:    t.Status,
		Amount:    t.Amount.String(),
		Currency:  t.Currency,
		At:        time.Now().Unix(),
	})
}
