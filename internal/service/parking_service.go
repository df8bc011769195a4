package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
)

var ErrInvalidPlate = errors.New("biển số không hợp lệ")
var ErrInvalidVehicleClass = errors.New("loại xe không hợp lệ")
var ErrInvalidPaymentMethod = errors.New("phương thức thanh toán không hợp lệ")
var ErrSpotOutOfRange = errors.New("số chỗ đỗ nằm ngoài phạm vi của loại xe")
var ErrSpotOccupied = errors.New("chỗ đỗ đang có xe")
var ErrDuplicateSession = errors.New("biển số này đã có phiên đỗ xe đang hoạt động")
var ErrSessionNotActive = errors.New("phiên đỗ xe không ở trạng thái ACTIVE")
var ErrInvalidPixKeyType = errors.New("loại khóa Pix không hợp lệ")

const defaultRecentLimit = 100

// ParkingService sở hữu máy trạng thái của phiên đỗ xe (ACTIVE -> COMPLETED),
// phép chiếu occupancy và việc tính phí. Cấu hình (giá, sức chứa) được đọc lại
// từ store ở mỗi thao tác thay vì giữ trong bộ nhớ process.
type ParkingService struct {
	sessionRepo  repository.ParkingSessionRepository
	settingsRepo repository.SettingsRepository

	nowFn func() time.Time
}

func NewParkingService(sessionRepo repository.ParkingSessionRepository, settingsRepo repository.SettingsRepository) *ParkingService {
	return &ParkingService{
		sessionRepo:  sessionRepo,
		settingsRepo: settingsRepo,
		nowFn:        time.Now,
	}
}

// VehicleCheckIn mở phiên mới ở trạng thái ACTIVE. Kiểm tra trùng biển số và
// chỗ đỗ được thực hiện trên tập phiên ACTIVE tại thời điểm gọi; unique index
// một phần trong DB là chốt chặn cuối cho hai request chen nhau.
func (s *ParkingService) VehicleCheckIn(ctx context.Context, dto domain.VehicleCheckInDTO) (*domain.ParkingSession, error) {
	if !domain.ValidPlate(dto.Plate) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPlate, dto.Plate)
	}
	plate := domain.NormalizePlate(dto.Plate)

	class := domain.VehicleClass(dto.VehicleClass)
	if !class.Valid() {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidVehicleClass, dto.VehicleClass)
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc cấu hình: %w", err)
	}
	capacity := settings.Capacities[class]
	if dto.SpotNumber < 1 || dto.SpotNumber > capacity {
		return nil, fmt.Errorf("%w: chỗ %d, phạm vi hợp lệ [1, %d]", ErrSpotOutOfRange, dto.SpotNumber, capacity)
	}

	existing, err := s.sessionRepo.FindActiveByPlate(ctx, plate)
	if err != nil && !errors.Is(err, repository.ErrNoActiveSession) {
		return nil, fmt.Errorf("lỗi kiểm tra biển số: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicateSession, plate)
	}

	occupied, err := s.OccupiedSpots(ctx, class)
	if err != nil {
		return nil, err
	}
	for _, spot := range occupied {
		if spot == dto.SpotNumber {
			return nil, fmt.Errorf("%w: chỗ %d (%s)", ErrSpotOccupied, dto.SpotNumber, class)
		}
	}

	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}

	session := &domain.ParkingSession{
		ID:           id,
		Plate:        plate,
		VehicleClass: class,
		SpotNumber:   dto.SpotNumber,
		EntryTime:    s.nowFn().UTC(),
		Status:       domain.SessionActive,
	}
	if dto.EntryImage != "" {
		session.EntryImage = null.StringFrom(dto.EntryImage)
	}
	if dto.Notes != "" {
		session.Notes = null.StringFrom(dto.Notes)
	}

	created, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// Thua race: một request khác vừa chiếm biển số hoặc chỗ đỗ
			return nil, fmt.Errorf("%w (%v)", ErrDuplicateSession, err)
		}
		return nil, fmt.Errorf("lỗi tạo phiên đỗ xe: %w", err)
	}
	return created, nil
}

// Quote tính phí của phiên tại thời điểm asOf: số giờ lẻ (không làm tròn,
// không phí tối thiểu, không thời gian ân hạn) nhân giá theo giờ của loại xe.
// Thời lượng âm do lệch đồng hồ cho phí 0, không bao giờ âm.
func (s *ParkingService) Quote(ctx context.Context, session *domain.ParkingSession, asOf time.Time) (float64, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("lỗi đọc cấu hình: %w", err)
	}
	return fee(session.EntryTime, asOf, settings.Tariffs[session.VehicleClass]), nil
}

func fee(entryTime, asOf time.Time, hourlyRate float64) float64 {
	hours := asOf.Sub(entryTime).Hours()
	if hours <= 0 {
		return 0
	}
	return hours * hourlyRate
}

// VehicleCheckOut đóng phiên: đúng một lần, ACTIVE -> COMPLETED. Đóng phiên
// đã COMPLETED là lỗi của caller.
func (s *ParkingService) VehicleCheckOut(ctx context.Context, id string, exitTime time.Time, method domain.PaymentMethod) (*domain.ParkingSession, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPaymentMethod, method)
	}

	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, fmt.Errorf("%w: phiên '%s' có trạng thái %s", ErrSessionNotActive, id, session.Status)
	}

	exitTime = exitTime.UTC()
	if exitTime.Before(session.EntryTime) {
		// Lệch đồng hồ: giữ bất biến entry_time <= exit_time, phí bằng 0
		exitTime = session.EntryTime
	}

	cost, err := s.Quote(ctx, session, exitTime)
	if err != nil {
		return nil, err
	}

	session.ExitTime = null.TimeFrom(exitTime)
	session.TotalCost = null.FloatFrom(cost)
	session.PaymentMethod = null.StringFrom(string(method))
	session.Status = domain.SessionCompleted

	updated, err := s.sessionRepo.Update(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("lỗi đóng phiên đỗ xe: %w", err)
	}
	return updated, nil
}

// OccupiedSpots là phép chiếu thuần túy từ các phiên ACTIVE của một loại xe;
// không bao giờ lưu riêng nên không thể lệch với dữ liệu phiên.
func (s *ParkingService) OccupiedSpots(ctx context.Context, class domain.VehicleClass) ([]int, error) {
	active, err := s.sessionRepo.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc các phiên đang hoạt động: %w", err)
	}
	var spots []int
	for _, session := range active {
		if session.VehicleClass == class {
			spots = append(spots, session.SpotNumber)
		}
	}
	return spots, nil
}

func (s *ParkingService) GetSessionByID(ctx context.Context, id string) (*domain.ParkingSession, error) {
	return s.sessionRepo.FindByID(ctx, id)
}

// RecentSessions trả về các phiên gần nhất (mới nhất trước), giới hạn số lượng.
func (s *ParkingService) RecentSessions(ctx context.Context, limit int) ([]domain.ParkingSession, error) {
	if limit <= 0 || limit > defaultRecentLimit {
		limit = defaultRecentLimit
	}
	return s.sessionRepo.FindRecent(ctx, limit)
}

// DashboardStats tổng hợp số liệu trong ngày (tính từ nửa đêm giờ local).
func (s *ParkingService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	now := s.nowFn()
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return s.sessionRepo.Stats(ctx, midnight)
}

// GetSettings đọc tài liệu cấu hình hiện hành.
func (s *ParkingService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	return s.settingsRepo.Get(ctx)
}

// ReplaceSettings ghi đè toàn bộ tài liệu cấu hình (không merge với bản cũ).
func (s *ParkingService) ReplaceSettings(ctx context.Context, dto domain.ReplaceSettingsDTO) (*domain.Settings, error) {
	settings := &domain.Settings{
		Tariffs:    domain.TariffTable{},
		Capacities: domain.CapacityTable{},
	}
	for _, class := range domain.VehicleClasses() {
		rate, ok := dto.Tariffs[string(class)]
		if !ok || rate < 0 {
			return nil, fmt.Errorf("%w: thiếu hoặc âm giá cho loại %s", ErrInvalidVehicleClass, class)
		}
		capacity, ok := dto.Capacities[string(class)]
		if !ok || capacity < 0 {
			return nil, fmt.Errorf("%w: thiếu hoặc âm sức chứa cho loại %s", ErrInvalidVehicleClass, class)
		}
		settings.Tariffs[class] = rate
		settings.Capacities[class] = capacity
	}

	keyType := domain.PixKeyType(dto.PixKeyType)
	if dto.PixKeyType == "" {
		keyType = domain.KeyCPF
	}
	if !keyType.Valid() {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidPixKeyType, dto.PixKeyType)
	}
	settings.Pix = domain.PixIdentity{Key: dto.PixKey, KeyType: keyType}

	if err := s.settingsRepo.Replace(ctx, settings); err != nil {
		return nil, fmt.Errorf("lỗi ghi cấu hình: %w", err)
	}
	return settings, nil
}
