package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ParkingSessionStatus string

const (
	SessionActive    ParkingSessionStatus = "ACTIVE"
	SessionCompleted ParkingSessionStatus = "COMPLETED"
)

type PaymentMethod string

const (
	MethodPix  PaymentMethod = "PIX"
	MethodCash PaymentMethod = "CASH"
	MethodCard PaymentMethod = "CARD"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCash, MethodCard:
		return true
	}
	return false
}

// ParkingSession là một lượt đỗ xe. Phiên được tạo ở trạng thái ACTIVE khi xe
// vào và chuyển đúng một lần sang COMPLETED khi xe ra; không bao giờ bị xóa mà
// được giữ lại làm lịch sử.
type ParkingSession struct {
	ID            string               `json:"id"`
	Plate         string               `json:"plate"` // Biển số đã chuẩn hóa, không có dấu phân cách
	VehicleClass  VehicleClass         `json:"type"`
	SpotNumber    int                  `json:"spot_number"`
	EntryTime     time.Time            `json:"entry_time"`
	ExitTime      null.Time            `json:"exit_time,omitempty"`
	Status        ParkingSessionStatus `json:"status"`
	TotalCost     null.Float           `json:"total_cost,omitempty"`
	PaymentMethod null.String          `json:"payment_method,omitempty"`
	EntryImage    null.String          `json:"entry_image,omitempty"`
	Notes         null.String          `json:"notes,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// DTO cho API check-in (xe vào)
type VehicleCheckInDTO struct {
	ID           string `json:"id,omitempty"` // Tùy chọn; server tự sinh UUID nếu trống
	Plate        string `json:"plate" binding:"required"`
	VehicleClass string `json:"type" binding:"required"`
	SpotNumber   int    `json:"spot_number" binding:"required"`
	EntryImage   string `json:"entry_image,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// DTO cho API check-out (xe ra)
type VehicleCheckOutDTO struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// Số liệu tổng hợp cho màn hình dashboard
type DashboardStats struct {
	ActiveVehicles int     `json:"active_vehicles"`
	TodayRevenue   float64 `json:"today_revenue"`
	TodayEntries   int     `json:"today_entries"`
}
