package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
)

type pgPaymentIntentRepository struct {
	db *sql.DB
}

func NewPgPaymentIntentRepository(db *sql.DB) repository.PaymentIntentRepository {
	return &pgPaymentIntentRepository{db: db}
}

// CreatePending upsert theo lower(txid). Câu lệnh cố ý không đụng đến cột
// status khi xung đột: intent đã PAID thì giữ nguyên PAID, chỉ amount được
// làm mới. Trạng thái vì vậy không bao giờ đi ngược.
func (r *pgPaymentIntentRepository) CreatePending(ctx context.Context, txid string, amount float64) error {
	query := `INSERT INTO payment_intents (txid, amount, status, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           ON CONFLICT ((lower(txid))) DO UPDATE
	           SET amount = EXCLUDED.amount, updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.ExecContext(ctx, query, txid, amount, domain.IntentPending)
	if err != nil {
		return fmt.Errorf("PaymentIntentRepository.CreatePending: %w", err)
	}
	return nil
}

// MarkPaid là bước chuyển một chiều sang PAID. Webhook có thể tới trước cả
// CreatePending nên txid chưa có vẫn được chèn mới với status PAID luôn.
func (r *pgPaymentIntentRepository) MarkPaid(ctx context.Context, txid string, paidAt time.Time, rawPayload []byte) error {
	query := `INSERT INTO payment_intents (txid, status, paid_at, raw_payload, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           ON CONFLICT ((lower(txid))) DO UPDATE
	           SET status = EXCLUDED.status, paid_at = EXCLUDED.paid_at,
	               raw_payload = EXCLUDED.raw_payload, updated_at = CURRENT_TIMESTAMP`

	var rawVal interface{}
	if len(rawPayload) > 0 {
		rawVal = rawPayload
	}
	_, err := r.db.ExecContext(ctx, query, txid, domain.IntentPaid, paidAt, rawVal)
	if err != nil {
		return fmt.Errorf("PaymentIntentRepository.MarkPaid: %w", err)
	}
	return nil
}

func (r *pgPaymentIntentRepository) IsPaid(ctx context.Context, txid string) (bool, error) {
	query := `SELECT EXISTS (
	           SELECT 1 FROM payment_intents WHERE lower(txid) = lower($1) AND status = $2)`

	var paid bool
	err := r.db.QueryRowContext(ctx, query, txid, domain.IntentPaid).Scan(&paid)
	if err != nil {
		return false, fmt.Errorf("PaymentIntentRepository.IsPaid: %w", err)
	}
	return paid, nil
}

func (r *pgPaymentIntentRepository) FindByTxID(ctx context.Context, txid string) (*domain.PaymentIntent, error) {
	query := `SELECT txid, amount, status, paid_at, raw_payload, created_at, updated_at
	           FROM payment_intents WHERE lower(txid) = lower($1)`

	intent := &domain.PaymentIntent{}
	var rawVal []byte
	err := r.db.QueryRowContext(ctx, query, txid).Scan(
		&intent.TxID, &intent.Amount, &intent.Status, &intent.PaidAt, &rawVal,
		&intent.CreatedAt, &intent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("PaymentIntentRepository.FindByTxID: %w", err)
	}
	intent.RawPayload = rawVal
	if intent.PaidAt.Valid {
		intent.PaidAt.Time = intent.PaidAt.Time.In(time.UTC)
	}
	intent.CreatedAt = intent.CreatedAt.In(time.UTC)
	intent.UpdatedAt = intent.UpdatedAt.In(time.UTC)
	return intent, nil
}
