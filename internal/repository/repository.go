package repository

import (
	"context"
	"errors"
	"time"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrNoActiveSession = errors.New("không tìm thấy phiên đỗ xe đang hoạt động cho thông tin cung cấp")
var ErrStoreUnavailable = errors.New("không kết nối được với kho dữ liệu")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type ParkingSessionRepository interface {
	// Create chèn phiên mới; thua race trên unique index (biển số hoặc chỗ đỗ
	// đang ACTIVE) trả về ErrDuplicateEntry.
	Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	FindByID(ctx context.Context, id string) (*domain.ParkingSession, error)
	FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error)
	// FindActive trả về toàn bộ phiên ACTIVE; occupancy luôn được chiếu từ
	// tập này, không bao giờ lưu riêng.
	FindActive(ctx context.Context) ([]domain.ParkingSession, error)
	FindRecent(ctx context.Context, limit int) ([]domain.ParkingSession, error)
	Update(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	// Stats tổng hợp số liệu dashboard từ mốc thời gian 'since' (nửa đêm local).
	Stats(ctx context.Context, since time.Time) (*domain.DashboardStats, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	// Replace ghi đè tài liệu cấu hình duy nhất (xóa bản cũ, không merge).
	Replace(ctx context.Context, settings *domain.Settings) error
	// EnsureDefault chèn cấu hình mặc định nếu chưa có tài liệu nào.
	EnsureDefault(ctx context.Context) error
}

type PaymentIntentRepository interface {
	// CreatePending upsert intent theo lower(txid): tạo PENDING nếu chưa có,
	// ghi đè amount nếu đã có; không bao giờ hạ cấp trạng thái PAID.
	CreatePending(ctx context.Context, txid string, amount float64) error
	// MarkPaid là CAS một chiều PENDING -> PAID; ghi lặp lại hợp lệ và ghi đè
	// paid_at/raw_payload. Txid chưa tồn tại vẫn được upsert (webhook có thể
	// đến trước khi intent kịp tạo).
	MarkPaid(ctx context.Context, txid string, paidAt time.Time, rawPayload []byte) error
	IsPaid(ctx context.Context, txid string) (bool, error)
	FindByTxID(ctx context.Context, txid string) (*domain.PaymentIntent, error)
}
