package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/service"
)

type VisionHandler struct {
	visionService *service.VisionService
}

func NewVisionHandler(vs *service.VisionService) *VisionHandler {
	return &VisionHandler{visionService: vs}
}

// POST /vision/analyze — nhận ảnh base64, trả biển số + loại xe đoán được.
// Chấp nhận cả dạng data URL "data:image/jpeg;base64,...".
func (h *VisionHandler) Analyze(c *gin.Context) {
	var dto domain.AnalyzeImageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	raw := dto.ImageBase64
	if idx := strings.Index(raw, ","); idx >= 0 && strings.HasPrefix(raw, "data:") {
		raw = raw[idx+1:]
	}
	imageBytes, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ảnh base64 không hợp lệ"})
		return
	}

	result, err := h.visionService.AnalyzeVehicleImage(c.Request.Context(), imageBytes)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể phân tích ảnh", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
