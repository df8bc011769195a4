package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/service"
)

type ParkingSessionHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSessionHandler(ps *service.ParkingService) *ParkingSessionHandler {
	return &ParkingSessionHandler{parkingService: ps}
}

// POST /records/check-in
func (h *ParkingSessionHandler) CheckIn(c *gin.Context) {
	var dto domain.VehicleCheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	session, err := h.parkingService.VehicleCheckIn(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateSession):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidPlate),
			errors.Is(err, service.ErrInvalidVehicleClass),
			errors.Is(err, service.ErrSpotOutOfRange),
			errors.Is(err, service.ErrSpotOccupied):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể ghi nhận xe vào", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, session)
}

// POST /records/:id/check-out
func (h *ParkingSessionHandler) CheckOut(c *gin.Context) {
	var dto domain.VehicleCheckOutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	session, err := h.parkingService.VehicleCheckOut(
		c.Request.Context(), c.Param("id"), time.Now(), domain.PaymentMethod(dto.PaymentMethod))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
		case errors.Is(err, service.ErrSessionNotActive),
			errors.Is(err, service.ErrInvalidPaymentMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Không thể ghi nhận xe ra", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, session)
}

// GET /records — lịch sử gần nhất, mới nhất trước. Kho dữ liệu lỗi thì trả
// danh sách rỗng để client render chế độ read-only thay vì crash.
func (h *ParkingSessionHandler) ListRecent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	sessions, err := h.parkingService.RecentSessions(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Lỗi đọc danh sách phiên, trả về rỗng: %v", err)
		c.JSON(http.StatusOK, []domain.ParkingSession{})
		return
	}
	if sessions == nil {
		sessions = []domain.ParkingSession{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GET /records/occupied-spots?type=CAR
func (h *ParkingSessionHandler) OccupiedSpots(c *gin.Context) {
	class := domain.VehicleClass(c.Query("type"))
	if !class.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Loại xe không hợp lệ"})
		return
	}

	spots, err := h.parkingService.OccupiedSpots(c.Request.Context(), class)
	if err != nil {
		log.Printf("Lỗi chiếu occupancy, trả về rỗng: %v", err)
		c.JSON(http.StatusOK, gin.H{"type": class, "occupied": []int{}})
		return
	}
	if spots == nil {
		spots = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"type": class, "occupied": spots})
}

// GET /records/:id/quote — phí hiện tại của một phiên ACTIVE
func (h *ParkingSessionHandler) Quote(c *gin.Context) {
	session, err := h.parkingService.GetSessionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Lỗi đọc phiên đỗ xe", "details": err.Error()})
		return
	}
	if session.Status != domain.SessionActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phiên đỗ xe đã kết thúc"})
		return
	}

	amount, err := h.parkingService.Quote(c.Request.Context(), session, time.Now())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Lỗi tính phí", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": session.ID, "amount": amount})
}

// GET /dashboard/stats
func (h *ParkingSessionHandler) DashboardStats(c *gin.Context) {
	stats, err := h.parkingService.DashboardStats(c.Request.Context())
	if err != nil {
		log.Printf("Lỗi tổng hợp dashboard, trả về rỗng: %v", err)
		c.JSON(http.StatusOK, domain.DashboardStats{})
		return
	}
	c.JSON(http.StatusOK, stats)
}
