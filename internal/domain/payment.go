package domain

import "time"

const (
	PaymentStatusInitialized = "initialized"
	PaymentStatusSuccessful  = "successful"
	PaymentStatusFailed      = "failed"
)

type Payment struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	TxRef     string    `json:"tx_ref"`
	FlwTxID   string    `json:"flw_tx_id,omitempty"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	RawJSON   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
