package pix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumCCITT(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "vector chuẩn 123456789",
			data: "123456789",
			want: "29B1",
		},
		{
			name: "chuỗi rỗng trả về giá trị init",
			data: "",
			want: "FFFF",
		},
		{
			name: "payload pix thật, CRC tính cả tiền tố 6304",
			data: "00020126360014BR.GOV.BCB.PIX0114+5599981916389520400005303986540549.005802BR5910AGCPARKING6006BRASIL62150511AGC480F35B36304",
			want: "1A95",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChecksumCCITT(tt.data))
		})
	}
}

func TestChecksumCCITTAlwaysFourUppercaseHex(t *testing.T) {
	for _, data := range []string{"a", "ab", "abc", "\x00", "zzzz"} {
		got := ChecksumCCITT(data)
		assert.Len(t, got, 4, "input %q", data)
		assert.Equal(t, got, ChecksumCCITT(data), "phải deterministic")
	}
}
