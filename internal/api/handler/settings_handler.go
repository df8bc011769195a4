package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/service"
)

type SettingsHandler struct {
	parkingService *service.ParkingService
}

func NewSettingsHandler(ps *service.ParkingService) *SettingsHandler {
	return &SettingsHandler{parkingService: ps}
}

// GET /sync — tài liệu cấu hình hiện hành để client đồng bộ lúc khởi động
func (h *SettingsHandler) Sync(c *gin.Context) {
	settings, err := h.parkingService.GetSettings(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusOK, domain.DefaultSettings())
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Lỗi đọc cấu hình", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// PUT /settings — ghi đè toàn bộ tài liệu cấu hình (không merge)
func (h *SettingsHandler) Replace(c *gin.Context) {
	var dto domain.ReplaceSettingsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	settings, err := h.parkingService.ReplaceSettings(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidVehicleClass) || errors.Is(err, service.ErrInvalidPixKeyType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể lưu cấu hình", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}
