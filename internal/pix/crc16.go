package pix

import "fmt"

// ChecksumCCITT tính CRC-16/CCITT-FALSE của payload: đa thức 0x1021, thanh
// ghi khởi tạo 0xFFFF, xử lý bit MSB-first, không reflect input/output, không
// XOR cuối. Kết quả là 4 ký tự hex viết hoa. App ngân hàng kiểm tra checksum
// này trước khi chuyển tiền nên thuật toán phải khớp từng bit.
func ChecksumCCITT(data string) string {
	var crc uint16 = 0xFFFF
	const polynomial uint16 = 0x1021

	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
