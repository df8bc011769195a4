package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/pix"
)

func newTestPaymentService() (*PaymentService, *ParkingService, *fakeIntentRepo, *fakeSettingsRepo, *fakeSessionRepo) {
	sessionRepo := newFakeSessionRepo()
	settingsRepo := newFakeSettingsRepo()
	intentRepo := newFakeIntentRepo()
	parking := NewParkingService(sessionRepo, settingsRepo)
	payment := NewPaymentService(intentRepo, settingsRepo, parking, "AGC PARKING", "BRASIL", 10*time.Millisecond)
	return payment, parking, intentRepo, settingsRepo, sessionRepo
}

func withPixKey(settingsRepo *fakeSettingsRepo) {
	settingsRepo.settings.Pix = domain.PixIdentity{Key: "(99) 98191-6389", KeyType: domain.KeyPhone}
}

func TestCreateIntentAndQueryStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC12345678", 15.0))

	paid, err := svc.QueryStatus(ctx, "AGC12345678")
	require.NoError(t, err)
	assert.False(t, paid)

	// Txid đối chiếu không phân biệt hoa thường
	paid, err = svc.QueryStatus(ctx, "agc12345678")
	require.NoError(t, err)
	assert.False(t, paid)

	assert.ErrorIs(t, svc.CreateIntent(ctx, "  ", 1), ErrEmptyTxID)
	_, err = svc.QueryStatus(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyTxID)
}

func TestDeriveTxID(t *testing.T) {
	assert.Equal(t, "AGC480F35B3", DeriveTxID("480f35b3-1c2d-4e5f-8a9b-000000000000"))
	assert.Equal(t, "AGCABC", DeriveTxID("abc"))
	// Id rỗng vẫn cho txid dùng được nhờ placeholder
	assert.Equal(t, "AGC***", DeriveTxID(""))
}

func TestGeneratePixCharge(t *testing.T) {
	ctx := context.Background()
	svc, parking, intentRepo, settingsRepo, _ := newTestPaymentService()
	withPixKey(settingsRepo)

	entry := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	parking.nowFn = func() time.Time { return entry }
	svc.nowFn = func() time.Time { return entry.Add(90 * time.Minute) }

	session, err := parking.VehicleCheckIn(ctx, domain.VehicleCheckInDTO{Plate: "ABC1234", VehicleClass: "CAR", SpotNumber: 3})
	require.NoError(t, err)

	charge, err := svc.GeneratePixCharge(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, DeriveTxID(session.ID), charge.TxID)
	assert.InDelta(t, 15.0, charge.Amount, 1e-9)

	// Payload phải giải mã được và mang đúng số tiền + txid đã chốt
	fields, crc, err := pix.Decode(charge.Payload)
	require.NoError(t, err)
	assert.Equal(t, pix.ChecksumCCITT(charge.Payload[:len(charge.Payload)-4]), crc)
	for _, f := range fields {
		switch f.Tag {
		case "54":
			assert.Equal(t, "15.00", f.Value)
		case "62":
			require.NotEmpty(t, f.Sub)
			assert.Equal(t, charge.TxID, f.Sub[0].Value)
		}
	}

	// Intent PENDING được tạo với số tiền vừa chốt
	intent, err := intentRepo.FindByTxID(ctx, charge.TxID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPending, intent.Status)
	assert.InDelta(t, 15.0, intent.Amount, 1e-9)
}

func TestGeneratePixChargeErrors(t *testing.T) {
	ctx := context.Background()
	svc, parking, _, settingsRepo, _ := newTestPaymentService()

	// Chưa cấu hình khóa Pix
	session, err := parking.VehicleCheckIn(ctx, domain.VehicleCheckInDTO{Plate: "ABC1234", VehicleClass: "CAR", SpotNumber: 1})
	require.NoError(t, err)
	_, err = svc.GeneratePixCharge(ctx, session.ID)
	assert.ErrorIs(t, err, ErrPixKeyNotConfigured)

	// Phiên đã đóng
	withPixKey(settingsRepo)
	_, err = parking.VehicleCheckOut(ctx, session.ID, time.Now(), domain.MethodCash)
	require.NoError(t, err)
	_, err = svc.GeneratePixCharge(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestIngestWebhookBacenShape(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC11111111", 10))
	require.NoError(t, svc.CreateIntent(ctx, "AGC22222222", 20))

	body := []byte(`{"pix":[{"txid":"AGC11111111","valor":"10.00"},{"txid":"AGC22222222","valor":"20.00"}]}`)
	svc.IngestWebhook(ctx, body)

	for _, txid := range []string{"AGC11111111", "AGC22222222"} {
		paid, err := svc.QueryStatus(ctx, txid)
		require.NoError(t, err)
		assert.True(t, paid, "txid %s", txid)
	}
}

func TestIngestWebhookSingleObjectShape(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC33333333", 5))
	svc.IngestWebhook(ctx, []byte(`{"txid":"AGC33333333"}`))

	paid, err := svc.QueryStatus(ctx, "AGC33333333")
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestIngestWebhookEndToEndIDFallback(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "E12345678202608281000ABCDEF", 5))
	svc.IngestWebhook(ctx, []byte(`{"pix":[{"endToEndId":"E12345678202608281000ABCDEF"}]}`))

	paid, err := svc.QueryStatus(ctx, "E12345678202608281000ABCDEF")
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestIngestWebhookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, intentRepo, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC44444444", 30))

	body := []byte(`{"txid":"AGC44444444"}`)
	svc.IngestWebhook(ctx, body)
	svc.IngestWebhook(ctx, body) // ngân hàng retry

	intent, err := intentRepo.FindByTxID(ctx, "AGC44444444")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPaid, intent.Status)
}

func TestIngestWebhookUnrecognizedShapes(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC55555555", 30))

	// Không shape nào dưới đây được phép đánh dấu PAID hay gây panic
	for _, body := range [][]byte{
		[]byte(`không phải json`),
		[]byte(`{}`),
		[]byte(`{"evento":"outro"}`),
		[]byte(`{"pix":[{"valor":"10.00"}]}`), // entry không có định danh
		[]byte(``),
	} {
		svc.IngestWebhook(ctx, body)
	}

	paid, err := svc.QueryStatus(ctx, "AGC55555555")
	require.NoError(t, err)
	assert.False(t, paid)
}

func TestIngestWebhookBeforeIntentExists(t *testing.T) {
	ctx := context.Background()
	svc, _, intentRepo, _, _ := newTestPaymentService()

	// Webhook đến trước khi intent kịp tạo: vẫn upsert bản ghi PAID
	svc.IngestWebhook(ctx, []byte(`{"txid":"AGC66666666"}`))

	intent, err := intentRepo.FindByTxID(ctx, "AGC66666666")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPaid, intent.Status)

	// CreateIntent đến sau chỉ làm mới amount, không hạ cấp về PENDING
	require.NoError(t, svc.CreateIntent(ctx, "AGC66666666", 12))
	paid, err := svc.QueryStatus(ctx, "AGC66666666")
	require.NoError(t, err)
	assert.True(t, paid)
}

func TestConfirmManually(t *testing.T) {
	ctx := context.Background()
	svc, _, intentRepo, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC77777777", 8))
	require.NoError(t, svc.ConfirmManually(ctx, "AGC77777777"))

	intent, err := intentRepo.FindByTxID(ctx, "AGC77777777")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPaid, intent.Status)
	assert.Contains(t, string(intent.RawPayload), `"source":"manual"`)

	assert.ErrorIs(t, svc.ConfirmManually(ctx, ""), ErrEmptyTxID)
}

func TestWatchPayment(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC88888888", 15))

	watcher := svc.WatchPayment(ctx, "AGC88888888")
	defer watcher.Stop()

	select {
	case <-watcher.Paid:
		t.Fatal("chưa thanh toán mà kênh Paid đã đóng")
	case <-time.After(50 * time.Millisecond):
	}

	svc.IngestWebhook(ctx, []byte(`{"txid":"AGC88888888"}`))

	select {
	case <-watcher.Paid:
	case <-time.After(2 * time.Second):
		t.Fatal("kênh Paid không đóng sau khi thanh toán được xác nhận")
	}
}

func TestWatchPaymentStop(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newTestPaymentService()

	watcher := svc.WatchPayment(ctx, "AGC99999999")
	watcher.Stop()
	watcher.Stop() // gọi lặp lại phải an toàn

	select {
	case <-watcher.Paid:
		t.Fatal("kênh Paid không được đóng sau khi Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchPaymentSurvivesStoreErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, intentRepo, _, _ := newTestPaymentService()

	require.NoError(t, svc.CreateIntent(ctx, "AGC00000000", 15))

	// Kho dữ liệu chập chờn: watcher coi lỗi là "chưa thanh toán" và thử lại
	intentRepo.setFail(true)
	watcher := svc.WatchPayment(ctx, "AGC00000000")
	defer watcher.Stop()

	time.Sleep(50 * time.Millisecond)
	intentRepo.setFail(false)
	svc.IngestWebhook(ctx, []byte(`{"txid":"AGC00000000"}`))

	select {
	case <-watcher.Paid:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher không hồi phục sau khi kho dữ liệu trở lại")
	}
}
