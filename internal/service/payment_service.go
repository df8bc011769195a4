package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/pix"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
)

var ErrEmptyTxID = errors.New("txid không được để trống")
var ErrPixKeyNotConfigured = errors.New("chưa cấu hình khóa Pix trong Settings")
var ErrUnrecognizedWebhook = errors.New("không nhận dạng được shape của webhook payload")

// Txid hiển thị cho ngân hàng: tiền tố nhà + 8 ký tự đầu của id phiên
const txidPrefix = "AGC"

// PaymentService sở hữu vòng đời payment intent và việc đối soát xác nhận từ
// ba kênh độc lập: webhook của ngân hàng, polling của client và xác nhận tay
// của operator. Cả ba đua nhau an toàn vì bước chuyển sang PAID là idempotent
// và một chiều.
type PaymentService struct {
	intentRepo   repository.PaymentIntentRepository
	settingsRepo repository.SettingsRepository
	parking      *ParkingService

	merchantName string
	merchantCity string
	pollInterval time.Duration

	nowFn func() time.Time
}

func NewPaymentService(
	intentRepo repository.PaymentIntentRepository,
	settingsRepo repository.SettingsRepository,
	parking *ParkingService,
	merchantName, merchantCity string,
	pollInterval time.Duration,
) *PaymentService {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &PaymentService{
		intentRepo:   intentRepo,
		settingsRepo: settingsRepo,
		parking:      parking,
		merchantName: merchantName,
		merchantCity: merchantCity,
		pollInterval: pollInterval,
		nowFn:        time.Now,
	}
}

// CreateIntent upsert intent PENDING cho txid; gọi lại trước khi thanh toán
// chỉ làm mới amount, không đổi trạng thái.
func (s *PaymentService) CreateIntent(ctx context.Context, txid string, amount float64) error {
	if strings.TrimSpace(txid) == "" {
		return ErrEmptyTxID
	}
	return s.intentRepo.CreatePending(ctx, txid, amount)
}

// QueryStatus: true khi intent của txid (không phân biệt hoa thường) đã PAID.
func (s *PaymentService) QueryStatus(ctx context.Context, txid string) (bool, error) {
	if strings.TrimSpace(txid) == "" {
		return false, ErrEmptyTxID
	}
	return s.intentRepo.IsPaid(ctx, txid)
}

// GeneratePixCharge chốt phí hiện tại của một phiên ACTIVE, sinh payload EMV
// và tạo intent PENDING cho txid dẫn xuất từ id phiên. Việc render QR từ
// payload là của collaborator hiển thị.
func (s *PaymentService) GeneratePixCharge(ctx context.Context, recordID string) (*domain.PixCharge, error) {
	session, err := s.parking.GetSessionByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, fmt.Errorf("%w: phiên '%s' có trạng thái %s", ErrSessionNotActive, recordID, session.Status)
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc cấu hình: %w", err)
	}
	if settings.Pix.Key == "" {
		return nil, ErrPixKeyNotConfigured
	}

	amount, err := s.parking.Quote(ctx, session, s.nowFn().UTC())
	if err != nil {
		return nil, err
	}

	txid := DeriveTxID(session.ID)
	payload := pix.Encode(settings.Pix, s.merchantName, s.merchantCity, amount, txid)

	if err := s.CreateIntent(ctx, txid, amount); err != nil {
		return nil, fmt.Errorf("lỗi tạo payment intent: %w", err)
	}
	return &domain.PixCharge{TxID: txid, Amount: amount, Payload: payload}, nil
}

// DeriveTxID sinh txid từ id phiên: 8 ký tự chữ-số đầu tiên, viết hoa, kèm
// tiền tố nhà. Đủ ngắn cho trường 62-05 và đủ phân biệt để đối soát.
func DeriveTxID(sessionID string) string {
	clean := pix.SanitizeTxID(sessionID)
	if len(clean) > 8 {
		clean = clean[:8]
	}
	return txidPrefix + strings.ToUpper(clean)
}

// IngestWebhook xử lý thông báo thanh toán từ ngân hàng. Hàm không bao giờ
// báo lỗi cho caller: đối tác là hệ thống ngân hàng sẽ retry dồn dập nếu nhận
// mã lỗi, nên mọi vấn đề chỉ được log rồi bỏ qua.
func (s *PaymentService) IngestWebhook(ctx context.Context, body []byte) {
	log.Printf("Webhook Pix nhận được: %s", body)

	notifications, err := normalizeWebhookBody(body)
	if err != nil {
		log.Printf("Bỏ qua webhook: %v", err)
		return
	}

	for _, n := range notifications {
		if err := s.intentRepo.MarkPaid(ctx, n.TxID, s.nowFn().UTC(), n.Raw); err != nil {
			log.Printf("Lỗi ghi nhận thanh toán cho txid '%s': %v", n.TxID, err)
			continue
		}
		log.Printf("Thanh toán được xác nhận: %s", n.TxID)
	}
}

// ConfirmManually: operator xác nhận tay, tương đương một entry webhook.
func (s *PaymentService) ConfirmManually(ctx context.Context, txid string) error {
	if strings.TrimSpace(txid) == "" {
		return ErrEmptyTxID
	}
	raw, _ := json.Marshal(map[string]string{"source": "manual", "txid": txid})
	return s.intentRepo.MarkPaid(ctx, txid, s.nowFn().UTC(), raw)
}

// Mỗi ngân hàng gửi webhook một kiểu. Hai shape được nhận dạng bằng probe cấu
// trúc: chuẩn Bacen với danh sách entry dưới khóa "pix", hoặc object đơn mang
// thẳng txid/endToEndId. Mọi shape đều được quy về []PixNotification trước
// khi chạm vào logic đối soát.
type webhookEntry struct {
	TxID       string `json:"txid"`
	EndToEndID string `json:"endToEndId"`
}

func normalizeWebhookBody(body []byte) ([]domain.PixNotification, error) {
	var probe struct {
		Pix []json.RawMessage `json:"pix"`
		webhookEntry
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedWebhook, err)
	}

	var entries []json.RawMessage
	if len(probe.Pix) > 0 {
		entries = probe.Pix
	} else if probe.TxID != "" || probe.EndToEndID != "" {
		entries = []json.RawMessage{json.RawMessage(body)}
	} else {
		return nil, fmt.Errorf("%w: không có danh sách 'pix' lẫn txid", ErrUnrecognizedWebhook)
	}

	var notifications []domain.PixNotification
	for _, raw := range entries {
		var entry webhookEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			log.Printf("Bỏ qua entry webhook không đọc được: %v", err)
			continue
		}
		id := entry.TxID
		if id == "" {
			id = entry.EndToEndID // Fallback khi ngân hàng không gửi txid
		}
		if id == "" {
			log.Printf("Bỏ qua entry webhook không có định danh: %s", raw)
			continue
		}
		notifications = append(notifications, domain.PixNotification{TxID: id, Raw: raw})
	}
	return notifications, nil
}

// PaymentWatcher là kênh pull: lặp QueryStatus theo chu kỳ cố định cho tới khi
// PAID hoặc caller dừng. Engine không tự giữ vòng lặp nào — watcher gắn với
// context của caller và caller phải gọi Stop.
type PaymentWatcher struct {
	// Paid đóng lại khi thanh toán được xác nhận
	Paid   <-chan struct{}
	cancel context.CancelFunc
}

// Stop dừng vòng polling. An toàn khi gọi nhiều lần.
func (w *PaymentWatcher) Stop() {
	w.cancel()
}

// WatchPayment bắt đầu polling trạng thái của txid. Lỗi truy vấn (kho dữ liệu
// tạm mất kết nối) được coi là "chưa thanh toán" và thử lại ở chu kỳ sau.
func (s *PaymentService) WatchPayment(ctx context.Context, txid string) *PaymentWatcher {
	watchCtx, cancel := context.WithCancel(ctx)
	paid := make(chan struct{})

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				ok, err := s.QueryStatus(watchCtx, txid)
				if err != nil {
					log.Printf("Lỗi kiểm tra trạng thái thanh toán '%s': %v", txid, err)
					continue
				}
				if ok {
					close(paid)
					return
				}
			}
		}
	}()

	return &PaymentWatcher{Paid: paid, cancel: cancel}
}
