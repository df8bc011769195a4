package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
)

type pgSettingsRepository struct {
	db *sql.DB
}

func NewPgSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &pgSettingsRepository{db: db}
}

func (r *pgSettingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	query := `SELECT tariffs, capacities, pix_key, pix_key_type, updated_at
	           FROM settings ORDER BY id DESC LIMIT 1`

	var tariffsJSON, capacitiesJSON []byte
	settings := &domain.Settings{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&tariffsJSON, &capacitiesJSON, &settings.Pix.Key, &settings.Pix.KeyType, &settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SettingsRepository.Get: %w", err)
	}

	if err := json.Unmarshal(tariffsJSON, &settings.Tariffs); err != nil {
		return nil, fmt.Errorf("SettingsRepository.Get (đọc tariffs): %w", err)
	}
	if err := json.Unmarshal(capacitiesJSON, &settings.Capacities); err != nil {
		return nil, fmt.Errorf("SettingsRepository.Get (đọc capacities): %w", err)
	}
	settings.UpdatedAt = settings.UpdatedAt.In(time.UTC)
	return settings, nil
}

// Replace ghi đè tài liệu cấu hình duy nhất: xóa toàn bộ rồi chèn bản mới
// trong cùng một transaction.
func (r *pgSettingsRepository) Replace(ctx context.Context, settings *domain.Settings) error {
	tariffsJSON, err := json.Marshal(settings.Tariffs)
	if err != nil {
		return fmt.Errorf("SettingsRepository.Replace (ghi tariffs): %w", err)
	}
	capacitiesJSON, err := json.Marshal(settings.Capacities)
	if err != nil {
		return fmt.Errorf("SettingsRepository.Replace (ghi capacities): %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SettingsRepository.Replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
		return fmt.Errorf("SettingsRepository.Replace (xóa bản cũ): %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (tariffs, capacities, pix_key, pix_key_type, updated_at)
		  VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)`,
		tariffsJSON, capacitiesJSON, settings.Pix.Key, settings.Pix.KeyType,
	)
	if err != nil {
		return fmt.Errorf("SettingsRepository.Replace (chèn bản mới): %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("SettingsRepository.Replace (commit): %w", err)
	}
	return nil
}

func (r *pgSettingsRepository) EnsureDefault(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&count); err != nil {
		return fmt.Errorf("SettingsRepository.EnsureDefault: %w", err)
	}
	if count > 0 {
		return nil
	}
	return r.Replace(ctx, domain.DefaultSettings())
}
