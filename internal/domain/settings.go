package domain

import "time"

type PixKeyType string

const (
	KeyCPF    PixKeyType = "CPF"
	KeyCNPJ   PixKeyType = "CNPJ"
	KeyPhone  PixKeyType = "PHONE"
	KeyEmail  PixKeyType = "EMAIL"
	KeyRandom PixKeyType = "RANDOM" // Chave aleatória (EVP), thường là chuỗi dạng UUID
)

func (t PixKeyType) Valid() bool {
	switch t {
	case KeyCPF, KeyCNPJ, KeyPhone, KeyEmail, KeyRandom:
		return true
	}
	return false
}

// PixIdentity là khóa Pix nhận tiền của bãi xe.
type PixIdentity struct {
	Key     string     `json:"key"`
	KeyType PixKeyType `json:"key_type"`
}

// TariffTable: giá theo giờ cho từng loại xe.
type TariffTable map[VehicleClass]float64

// CapacityTable: tổng số chỗ đỗ cho từng loại xe. Số chỗ hợp lệ là [1, capacity].
type CapacityTable map[VehicleClass]int

// Settings là tài liệu cấu hình duy nhất của hệ thống. Chỉ collaborator cấu
// hình được ghi; engine chỉ đọc, và đọc lại từ store ở mỗi thao tác thay vì
// cache trong process.
type Settings struct {
	Tariffs    TariffTable   `json:"rates"`
	Capacities CapacityTable `json:"total_spots"`
	Pix        PixIdentity   `json:"pix"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Tariffs: TariffTable{
			ClassCar:        10,
			ClassMotorcycle: 5,
			ClassTruck:      20,
		},
		Capacities: CapacityTable{
			ClassCar:        50,
			ClassMotorcycle: 20,
			ClassTruck:      10,
		},
		Pix: PixIdentity{Key: "", KeyType: KeyCPF},
	}
}

type ReplaceSettingsDTO struct {
	Tariffs    map[string]float64 `json:"rates" binding:"required"`
	Capacities map[string]int     `json:"total_spots" binding:"required"`
	PixKey     string             `json:"pix_key"`
	PixKeyType string             `json:"pix_key_type"`
}
