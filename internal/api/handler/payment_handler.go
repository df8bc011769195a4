package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(ps *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// POST /payments/create — tạo/làm mới intent PENDING cho txid
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var dto domain.CreatePaymentIntentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	if err := h.paymentService.CreateIntent(c.Request.Context(), dto.TxID, dto.Amount); err != nil {
		if errors.Is(err, service.ErrEmptyTxID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể tạo payment intent", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /payments/status/:txid — kênh polling của client. Kho dữ liệu lỗi thì
// trả paid=false để client thử lại ở chu kỳ sau thay vì nhận lỗi.
func (h *PaymentHandler) QueryStatus(c *gin.Context) {
	paid, err := h.paymentService.QueryStatus(c.Request.Context(), c.Param("txid"))
	if err != nil {
		log.Printf("Lỗi kiểm tra trạng thái thanh toán, trả về false: %v", err)
		c.JSON(http.StatusOK, gin.H{"paid": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid": paid})
}

// POST /payments/pix-code — chốt phí của phiên, sinh payload EMV và intent
func (h *PaymentHandler) GeneratePixCode(c *gin.Context) {
	var dto domain.GeneratePixCodeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	charge, err := h.paymentService.GeneratePixCharge(c.Request.Context(), dto.RecordID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
		case errors.Is(err, service.ErrSessionNotActive),
			errors.Is(err, service.ErrPixKeyNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể sinh mã Pix", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, charge)
}

// POST /payments/:txid/confirm — operator xác nhận tay
func (h *PaymentHandler) ConfirmManually(c *gin.Context) {
	if err := h.paymentService.ConfirmManually(c.Request.Context(), c.Param("txid")); err != nil {
		if errors.Is(err, service.ErrEmptyTxID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể xác nhận thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /webhook/pix — luôn trả 200 bất kể kết quả xử lý: trả mã lỗi sẽ khiến
// ngân hàng retry dồn dập hoặc khóa webhook.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("Lỗi đọc body webhook: %v", err)
		c.String(http.StatusOK, "OK")
		return
	}

	h.paymentService.IngestWebhook(c.Request.Context(), body)
	c.String(http.StatusOK, "OK")
}
