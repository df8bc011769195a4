package pix

import (
	"strings"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
)

// NormalizeKey đưa khóa Pix về dạng chuẩn theo từng loại khóa trước khi đưa
// vào trường 26-01 của payload.
func NormalizeKey(key string, keyType domain.PixKeyType) string {
	switch keyType {
	case domain.KeyCPF, domain.KeyCNPJ:
		return stripNonDigits(key)
	case domain.KeyPhone:
		return normalizePhoneKey(key)
	case domain.KeyEmail:
		return strings.ToLower(strings.TrimSpace(key))
	case domain.KeyRandom:
		return strings.ToLower(strings.TrimSpace(key))
	}
	return strings.TrimSpace(key)
}

// Dạng chuẩn của khóa điện thoại luôn là +55 theo sau bởi 11 chữ số.
// Chấp nhận input đã có mã quốc gia (có hoặc không có dấu +) lẫn số nội địa
// 11 chữ số kiểu "(99) 98191-6389".
func normalizePhoneKey(key string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(key) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	s := b.String()

	switch {
	case strings.HasPrefix(s, "+55"):
		return s
	case strings.HasPrefix(s, "55") && len(s) == 13:
		return "+" + s
	case len(s) == 11 && !strings.HasPrefix(s, "+"):
		return "+55" + s
	}
	return s
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
