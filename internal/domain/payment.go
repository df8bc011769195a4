package domain

import (
	"encoding/json"
	"time"

	"gopkg.in/guregu/null.v4"
)

type PaymentIntentStatus string

const (
	IntentPending PaymentIntentStatus = "PENDING"
	IntentPaid    PaymentIntentStatus = "PAID"
)

// PaymentIntent là ý định thanh toán Pix cho một phiên đỗ xe, khóa theo txid
// (không phân biệt hoa thường). Trạng thái chỉ đi một chiều PENDING -> PAID;
// ghi PAID lặp lại là hợp lệ và ghi đè paid_at/raw_payload (last write wins).
type PaymentIntent struct {
	TxID       string              `json:"txid"`
	Amount     float64             `json:"amount"`
	Status     PaymentIntentStatus `json:"status"`
	PaidAt     null.Time           `json:"paid_at,omitempty"`
	RawPayload json.RawMessage     `json:"raw_payload,omitempty"` // Body gốc từ ngân hàng, lưu để đối soát
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type CreatePaymentIntentDTO struct {
	TxID   string  `json:"txid" binding:"required"`
	Amount float64 `json:"amount"`
}

type GeneratePixCodeDTO struct {
	RecordID string `json:"record_id" binding:"required"`
}

// PixCharge là kết quả tạo mã thanh toán: payload EMV để render QR (việc
// render là của collaborator bên ngoài) cùng txid và số tiền đã chốt.
type PixCharge struct {
	TxID    string  `json:"txid"`
	Amount  float64 `json:"amount"`
	Payload string  `json:"payload"`
}

// PixNotification là dạng chuẩn của một thông báo thanh toán sau khi đã
// phân giải shape của từng ngân hàng; logic đối soát chỉ làm việc trên kiểu này.
type PixNotification struct {
	TxID string
	Raw  json.RawMessage
}
