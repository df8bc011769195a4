package postgresql

import (
	"context"
	"database/sql"
	"fmt"
)

// RunMigrations tạo schema nếu chưa có. Hai unique index một phần trên tập
// ACTIVE biến phép kiểm-tra-rồi-chèn của check-in thành thao tác nguyên tử ở
// tầng lưu trữ: hai request chen nhau cho cùng biển số hoặc cùng (loại xe,
// chỗ đỗ) thì request thua nhận unique_violation.
func RunMigrations(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'operator',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Tài liệu cấu hình duy nhất: bảng chỉ giữ một hàng, Replace xóa hết
		// rồi chèn lại (ghi đè, không merge).
		`CREATE TABLE IF NOT EXISTS settings (
			id SERIAL PRIMARY KEY,
			tariffs JSONB NOT NULL,
			capacities JSONB NOT NULL,
			pix_key TEXT NOT NULL DEFAULT '',
			pix_key_type VARCHAR(10) NOT NULL DEFAULT 'CPF',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS parking_sessions (
			id TEXT PRIMARY KEY,
			plate VARCHAR(10) NOT NULL,
			vehicle_class VARCHAR(15) NOT NULL,
			spot_number INT NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			exit_time TIMESTAMPTZ,
			status VARCHAR(15) NOT NULL,
			total_cost DOUBLE PRECISION,
			payment_method VARCHAR(10),
			entry_image TEXT,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE UNIQUE INDEX IF NOT EXISTS parking_sessions_active_plate_key
			ON parking_sessions (plate) WHERE status = 'ACTIVE';`,

		`CREATE UNIQUE INDEX IF NOT EXISTS parking_sessions_active_spot_key
			ON parking_sessions (vehicle_class, spot_number) WHERE status = 'ACTIVE';`,

		`CREATE TABLE IF NOT EXISTS payment_intents (
			txid TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			status VARCHAR(10) NOT NULL DEFAULT 'PENDING',
			paid_at TIMESTAMPTZ,
			raw_payload JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Txid không phân biệt hoa thường: mọi truy cập đều qua lower(txid)
		`CREATE UNIQUE INDEX IF NOT EXISTS payment_intents_txid_key
			ON payment_intents (lower(txid));`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("lỗi chạy migration: %w", err)
		}
	}
	return nil
}

// SeedDefaultSettings chèn cấu hình mặc định nếu bảng settings còn trống,
// tương đương bước khởi tạo của collaborator cấu hình.
func SeedDefaultSettings(ctx context.Context, db *sql.DB) error {
	repo := NewPgSettingsRepository(db)
	return repo.EnsureDefault(ctx)
}
