// Package pix sinh và đọc payload "Pix copia e cola" (BR Code) theo chuẩn
// EMV-QRCPS của Banco Central: chuỗi các trường TLV với tag 2 chữ số, độ dài
// 2 chữ số và CRC16 ở cuối. Package này thuần túy, không I/O.
package pix

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
)

const (
	tagPayloadFormat    = "00"
	tagMerchantAccount  = "26"
	tagMerchantCategory = "52"
	tagCurrency         = "53"
	tagAmount           = "54"
	tagCountryCode      = "58"
	tagMerchantName     = "59"
	tagMerchantCity     = "60"
	tagAdditionalData   = "62"
	tagCRC              = "63"

	// Sub-tags của template 26 (Merchant Account Information)
	subTagGUI = "00"
	subTagKey = "01"
	// Sub-tag của template 62 (Additional Data Field)
	subTagTxID = "05"

	pixGUI       = "BR.GOV.BCB.PIX"
	currencyBRL  = "986"
	countryBR    = "BR"
	categoryNone = "0000" // MCC 0000 = chưa phân loại

	maxMerchantNameLen = 25
	maxMerchantCityLen = 15
	maxTxIDLen         = 25

	// Txid rỗng không được phép tạo trường độ dài 0 trong template 62
	emptyTxIDPlaceholder = "***"
)

var ErrInvalidPayload = errors.New("payload pix không hợp lệ")

// Field là một trường TLV đã giải mã. Các template lồng nhau (26 và 62) có
// danh sách Sub; các trường còn lại chỉ có Value.
type Field struct {
	Tag    string
	Length int
	Value  string
	Sub    []Field
}

// EncodeField là primitive duy nhất của codec: tag 2 chữ số + độ dài 2 chữ số
// (zero-pad, 0-99) + giá trị. Mọi trường khác, kể cả template lồng nhau, đều
// được ghép từ hàm này.
func EncodeField(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

// Encode sinh payload Pix tĩnh hoàn chỉnh, kể cả CRC16 ở cuối.
// Khóa phải được chuẩn hóa trước bằng NormalizeKey.
func Encode(identity domain.PixIdentity, merchantName, merchantCity string, amount float64, txid string) string {
	var b strings.Builder

	b.WriteString(EncodeField(tagPayloadFormat, "01"))

	account := EncodeField(subTagGUI, pixGUI) + EncodeField(subTagKey, NormalizeKey(identity.Key, identity.KeyType))
	b.WriteString(EncodeField(tagMerchantAccount, account))

	b.WriteString(EncodeField(tagMerchantCategory, categoryNone))
	b.WriteString(EncodeField(tagCurrency, currencyBRL))
	b.WriteString(EncodeField(tagAmount, FormatAmount(amount)))
	b.WriteString(EncodeField(tagCountryCode, countryBR))
	b.WriteString(EncodeField(tagMerchantName, NormalizeMerchantField(merchantName, maxMerchantNameLen)))
	b.WriteString(EncodeField(tagMerchantCity, NormalizeMerchantField(merchantCity, maxMerchantCityLen)))
	b.WriteString(EncodeField(tagAdditionalData, EncodeField(subTagTxID, SanitizeTxID(txid))))

	// Tag 63 khai báo độ dài 04 rồi mới tính CRC trên toàn bộ payload,
	// bao gồm cả 4 ký tự "6304" vừa ghi.
	b.WriteString(tagCRC + "04")
	payload := b.String()
	return payload + ChecksumCCITT(payload)
}

// Decode tách payload thành danh sách trường theo thứ tự xuất hiện, dừng khi
// còn lại đúng 4 ký tự CRC (trả riêng, không giải mã tiếp). Template 26 và 62
// được giải mã đệ quy theo cùng quy tắc.
func Decode(payload string) ([]Field, string, error) {
	if len(payload) < 4 {
		return nil, "", fmt.Errorf("%w: quá ngắn (%d ký tự)", ErrInvalidPayload, len(payload))
	}
	body, crc := payload[:len(payload)-4], payload[len(payload)-4:]

	fields, err := decodeFields(body, true)
	if err != nil {
		return nil, "", err
	}
	return fields, crc, nil
}

func decodeFields(data string, nested bool) ([]Field, error) {
	var fields []Field
	pos := 0
	for pos < len(data) {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%w: trường bị cắt cụt tại vị trí %d", ErrInvalidPayload, pos)
		}
		tag := data[pos : pos+2]
		length, err := strconv.Atoi(data[pos+2 : pos+4])
		if err != nil {
			return nil, fmt.Errorf("%w: độ dài không phải số tại vị trí %d", ErrInvalidPayload, pos+2)
		}
		if pos+4+length > len(data) {
			return nil, fmt.Errorf("%w: trường %s khai báo %d ký tự nhưng payload không đủ", ErrInvalidPayload, tag, length)
		}
		value := data[pos+4 : pos+4+length]

		field := Field{Tag: tag, Length: length, Value: value}
		if nested && (tag == tagMerchantAccount || tag == tagAdditionalData) {
			sub, err := decodeFields(value, false)
			if err != nil {
				return nil, err
			}
			field.Sub = sub
		}
		fields = append(fields, field)
		pos += 4 + length
	}
	return fields, nil
}

// FormatAmount: đúng hai chữ số thập phân, dấu chấm, không ký hiệu tiền tệ.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeMerchantField chuẩn hóa tên/thành phố của merchant: bỏ dấu, bỏ mọi
// khoảng trắng, viết hoa và cắt về tối đa max ký tự.
func NormalizeMerchantField(s string, max int) string {
	out, _, err := transform.String(stripDiacritics, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, out)
	out = strings.ToUpper(out)
	if len(out) > max {
		out = out[:max]
	}
	return out
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeTxID giữ lại ký tự chữ-số, cắt về 25 ký tự; txid rỗng được thay
// bằng placeholder thay vì sinh trường độ dài 0.
func SanitizeTxID(txid string) string {
	clean := nonAlphanumeric.ReplaceAllString(txid, "")
	if len(clean) > maxTxIDLen {
		clean = clean[:maxTxIDLen]
	}
	if clean == "" {
		return emptyTxIDPlaceholder
	}
	return clean
}
