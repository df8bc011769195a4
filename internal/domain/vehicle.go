package domain

import (
	"regexp"
	"strings"
)

type VehicleClass string

const (
	ClassCar        VehicleClass = "CAR"
	ClassMotorcycle VehicleClass = "MOTORCYCLE"
	ClassTruck      VehicleClass = "TRUCK"
)

func (c VehicleClass) Valid() bool {
	switch c {
	case ClassCar, ClassMotorcycle, ClassTruck:
		return true
	}
	return false
}

func VehicleClasses() []VehicleClass {
	return []VehicleClass{ClassCar, ClassMotorcycle, ClassTruck}
}

// Hai định dạng biển số được chấp nhận:
// - định dạng cũ: 3 chữ cái + 4 chữ số (ABC1234)
// - định dạng Mercosul: 3 chữ cái + 1 số + 1 chữ cái + 2 số (ABC1D23)
var (
	oldPlatePattern      = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)
	mercosulPlatePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z][0-9]{2}$`)

	nonPlateChars = regexp.MustCompile(`[^A-Z0-9]`)
)

// NormalizePlate đưa biển số về dạng chuẩn: viết hoa, chỉ giữ A-Z0-9.
func NormalizePlate(raw string) string {
	return nonPlateChars.ReplaceAllString(strings.ToUpper(raw), "")
}

// ValidPlate kiểm tra biển số (sau khi chuẩn hóa) theo đúng độ dài của từng
// định dạng, không chấp nhận khớp một phần.
func ValidPlate(raw string) bool {
	clean := NormalizePlate(raw)
	return oldPlatePattern.MatchString(clean) || mercosulPlatePattern.MatchString(clean)
}

// FormatPlateDisplay chèn dấu gạch ngang sau ký tự thứ 3 để hiển thị (ABC-1234).
// Biển Mercosul không dùng dấu gạch: nếu ký tự thứ 5 (index 4) là chữ cái thì
// giữ nguyên chuỗi, kể cả khi người dùng đang gõ dở.
func FormatPlateDisplay(raw string) string {
	clean := NormalizePlate(raw)
	if len(clean) > 7 {
		clean = clean[:7]
	}
	if len(clean) <= 3 {
		return clean
	}
	if len(clean) >= 5 && clean[4] >= 'A' && clean[4] <= 'Z' {
		return clean
	}
	return clean[:3] + "-" + clean[3:]
}
