package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
)

// Fake in-memory mô phỏng đúng hợp đồng của tầng postgresql, kể cả hai unique
// index một phần trên tập phiên ACTIVE.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.ParkingSession

	failAll bool // Mô phỏng kho dữ liệu mất kết nối
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.ParkingSession{}}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	for _, existing := range r.sessions {
		if existing.Status != domain.SessionActive {
			continue
		}
		if existing.Plate == session.Plate {
			return nil, fmt.Errorf("%w: plate", repository.ErrDuplicateEntry)
		}
		if existing.VehicleClass == session.VehicleClass && existing.SpotNumber == session.SpotNumber {
			return nil, fmt.Errorf("%w: spot", repository.ErrDuplicateEntry)
		}
	}
	copied := *session
	copied.CreatedAt = time.Now().UTC()
	copied.UpdatedAt = copied.CreatedAt
	r.sessions[session.ID] = &copied
	out := copied
	return &out, nil
}

func (r *fakeSessionRepo) FindByID(ctx context.Context, id string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *session
	return &out, nil
}

func (r *fakeSessionRepo) FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	for _, session := range r.sessions {
		if session.Status == domain.SessionActive && session.Plate == plate {
			out := *session
			return &out, nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r *fakeSessionRepo) FindActive(ctx context.Context) ([]domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	var out []domain.ParkingSession
	for _, session := range r.sessions {
		if session.Status == domain.SessionActive {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) FindRecent(ctx context.Context, limit int) ([]domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	var out []domain.ParkingSession
	for _, session := range r.sessions {
		out = append(out, *session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.After(out[j].EntryTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	if _, ok := r.sessions[session.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	copied := *session
	copied.UpdatedAt = time.Now().UTC()
	r.sessions[session.ID] = &copied
	out := copied
	return &out, nil
}

func (r *fakeSessionRepo) Stats(ctx context.Context, since time.Time) (*domain.DashboardStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	stats := &domain.DashboardStats{}
	for _, session := range r.sessions {
		if session.Status == domain.SessionActive {
			stats.ActiveVehicles++
		}
		if !session.EntryTime.Before(since) {
			stats.TodayEntries++
		}
		if session.ExitTime.Valid && !session.ExitTime.Time.Before(since) {
			stats.TodayRevenue += session.TotalCost.Float64
		}
	}
	return stats, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings *domain.Settings
	failAll  bool
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: domain.DefaultSettings()}
}

func (r *fakeSettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	if r.settings == nil {
		return nil, repository.ErrNotFound
	}
	out := *r.settings
	return &out, nil
}

func (r *fakeSettingsRepo) Replace(ctx context.Context, settings *domain.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return repository.ErrStoreUnavailable
	}
	copied := *settings
	r.settings = &copied
	return nil
}

func (r *fakeSettingsRepo) EnsureDefault(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		r.settings = domain.DefaultSettings()
	}
	return nil
}

type fakeIntentRepo struct {
	mu      sync.Mutex
	intents map[string]*domain.PaymentIntent
	failAll bool
}

func newFakeIntentRepo() *fakeIntentRepo {
	return &fakeIntentRepo{intents: map[string]*domain.PaymentIntent{}}
}

func (r *fakeIntentRepo) key(txid string) string { return strings.ToLower(txid) }

func (r *fakeIntentRepo) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAll = fail
}

func (r *fakeIntentRepo) CreatePending(ctx context.Context, txid string, amount float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return repository.ErrStoreUnavailable
	}
	if existing, ok := r.intents[r.key(txid)]; ok {
		existing.Amount = amount // Không bao giờ hạ cấp trạng thái
		return nil
	}
	r.intents[r.key(txid)] = &domain.PaymentIntent{
		TxID:   txid,
		Amount: amount,
		Status: domain.IntentPending,
	}
	return nil
}

func (r *fakeIntentRepo) MarkPaid(ctx context.Context, txid string, paidAt time.Time, rawPayload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return repository.ErrStoreUnavailable
	}
	intent, ok := r.intents[r.key(txid)]
	if !ok {
		intent = &domain.PaymentIntent{TxID: txid}
		r.intents[r.key(txid)] = intent
	}
	intent.Status = domain.IntentPaid
	intent.PaidAt.SetValid(paidAt)
	intent.RawPayload = rawPayload
	return nil
}

func (r *fakeIntentRepo) IsPaid(ctx context.Context, txid string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return false, repository.ErrStoreUnavailable
	}
	intent, ok := r.intents[r.key(txid)]
	return ok && intent.Status == domain.IntentPaid, nil
}

func (r *fakeIntentRepo) FindByTxID(ctx context.Context, txid string) (*domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, repository.ErrStoreUnavailable
	}
	intent, ok := r.intents[r.key(txid)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *intent
	return &out, nil
}
