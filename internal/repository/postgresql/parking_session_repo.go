package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
)

type pgParkingSessionRepository struct {
	db *sql.DB
}

func NewPgParkingSessionRepository(db *sql.DB) repository.ParkingSessionRepository {
	return &pgParkingSessionRepository{db: db}
}

const sessionColumns = `id, plate, vehicle_class, spot_number, entry_time, exit_time,
	status, total_cost, payment_method, entry_image, notes, created_at, updated_at`

func (r *pgParkingSessionRepository) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `INSERT INTO parking_sessions
	           (id, plate, vehicle_class, spot_number, entry_time, status, entry_image, notes, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING created_at, updated_at`

	var entryImageVal sql.NullString
	if session.EntryImage.Valid {
		entryImageVal = sql.NullString{String: session.EntryImage.String, Valid: true}
	}
	var notesVal sql.NullString
	if session.Notes.Valid {
		notesVal = sql.NullString{String: session.Notes.String, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		session.ID, session.Plate, session.VehicleClass, session.SpotNumber,
		session.EntryTime, session.Status, entryImageVal, notesVal,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Thua race trên một trong các unique index của tập ACTIVE
			if pgErr.ConstraintName == "parking_sessions_active_plate_key" {
				return nil, fmt.Errorf("%w: biển số '%s' đã có phiên đang hoạt động", repository.ErrDuplicateEntry, session.Plate)
			}
			if pgErr.ConstraintName == "parking_sessions_active_spot_key" {
				return nil, fmt.Errorf("%w: chỗ đỗ %d (%s) đang có xe", repository.ErrDuplicateEntry, session.SpotNumber, session.VehicleClass)
			}
			return nil, fmt.Errorf("%w: phiên '%s' đã tồn tại", repository.ErrDuplicateEntry, session.ID)
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Create: %w", err)
	}
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (r *pgParkingSessionRepository) FindByID(ctx context.Context, id string) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions WHERE id = $1`
	session, err := scanSessionRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindByID: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE plate = $1 AND status = $2
	           ORDER BY entry_time DESC LIMIT 1`
	session, err := scanSessionRow(r.db.QueryRowContext(ctx, query, plate, domain.SessionActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindActiveByPlate: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindActive(ctx context.Context) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           WHERE status = $1
	           ORDER BY entry_time DESC`
	rows, err := r.db.QueryContext(ctx, query, domain.SessionActive)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindActive: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows, "FindActive")
}

func (r *pgParkingSessionRepository) FindRecent(ctx context.Context, limit int) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM parking_sessions
	           ORDER BY entry_time DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindRecent: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows, "FindRecent")
}

func (r *pgParkingSessionRepository) Update(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `UPDATE parking_sessions
	           SET plate = $1, vehicle_class = $2, spot_number = $3, entry_time = $4,
	               exit_time = $5, status = $6, total_cost = $7, payment_method = $8,
	               entry_image = $9, notes = $10, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $11
	           RETURNING updated_at`

	var exitTimeVal sql.NullTime
	if session.ExitTime.Valid {
		exitTimeVal = sql.NullTime{Time: session.ExitTime.Time, Valid: true}
	}
	var costVal sql.NullFloat64
	if session.TotalCost.Valid {
		costVal = sql.NullFloat64{Float64: session.TotalCost.Float64, Valid: true}
	}
	var methodVal sql.NullString
	if session.PaymentMethod.Valid {
		methodVal = sql.NullString{String: session.PaymentMethod.String, Valid: true}
	}
	var entryImageVal sql.NullString
	if session.EntryImage.Valid {
		entryImageVal = sql.NullString{String: session.EntryImage.String, Valid: true}
	}
	var notesVal sql.NullString
	if session.Notes.Valid {
		notesVal = sql.NullString{String: session.Notes.String, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		session.Plate, session.VehicleClass, session.SpotNumber, session.EntryTime,
		exitTimeVal, session.Status, costVal, methodVal, entryImageVal, notesVal,
		session.ID,
	).Scan(&session.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Update: %w", err)
	}
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (r *pgParkingSessionRepository) Stats(ctx context.Context, since time.Time) (*domain.DashboardStats, error) {
	query := `SELECT
	           COUNT(*) FILTER (WHERE status = $1),
	           COALESCE(SUM(total_cost) FILTER (WHERE status = $2 AND exit_time >= $3), 0),
	           COUNT(*) FILTER (WHERE entry_time >= $3)
	           FROM parking_sessions`

	stats := &domain.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query, domain.SessionActive, domain.SessionCompleted, since).
		Scan(&stats.ActiveVehicles, &stats.TodayRevenue, &stats.TodayEntries)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSessionRow(row rowScanner) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	err := row.Scan(
		&session.ID, &session.Plate, &session.VehicleClass, &session.SpotNumber,
		&session.EntryTime, &session.ExitTime, &session.Status, &session.TotalCost,
		&session.PaymentMethod, &session.EntryImage, &session.Notes,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.EntryTime = session.EntryTime.In(time.UTC)
	if session.ExitTime.Valid {
		session.ExitTime.Time = session.ExitTime.Time.In(time.UTC)
	}
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func collectSessions(rows *sql.Rows, op string) ([]domain.ParkingSession, error) {
	var sessions []domain.ParkingSession
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.%s (scanning row): %w", op, err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.%s (rows error): %w", op, err)
	}
	return sessions, nil
}
