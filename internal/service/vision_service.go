package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/domain"
)

// VisionService đọc biển số và đoán loại xe từ ảnh chụp ở cổng bằng
// Rekognition. Kết quả chỉ dùng để điền sẵn form check-in; check-in không bao
// giờ phụ thuộc vào dịch vụ này.
type VisionService struct {
	rekognitionClient *rekognition.Client
}

func NewVisionService(rekClient *rekognition.Client) *VisionService {
	return &VisionService{rekognitionClient: rekClient}
}

// Nhãn Rekognition -> loại xe của hệ thống
var labelToClass = map[string]domain.VehicleClass{
	"Car":        domain.ClassCar,
	"Automobile": domain.ClassCar,
	"Motorcycle": domain.ClassMotorcycle,
	"Moped":      domain.ClassMotorcycle,
	"Truck":      domain.ClassTruck,
}

// AnalyzeVehicleImage gọi DetectText để tìm biển số (ưu tiên text khớp một
// trong hai định dạng biển hợp lệ, confidence cao nhất thắng) và DetectLabels
// để đoán loại xe.
func (s *VisionService) AnalyzeVehicleImage(ctx context.Context, imageBytes []byte) (*domain.VisionResult, error) {
	if s.rekognitionClient == nil {
		return nil, fmt.Errorf("Rekognition client chưa được khởi tạo")
	}

	textOut, err := s.rekognitionClient.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	})
	if err != nil {
		return nil, fmt.Errorf("lỗi Rekognition DetectText: %w", err)
	}

	result := &domain.VisionResult{}
	for _, detection := range textOut.TextDetections {
		if detection.Type != types.TextTypesLine && detection.Type != types.TextTypesWord {
			continue
		}
		if detection.DetectedText == nil || detection.Confidence == nil {
			continue
		}
		candidate := domain.NormalizePlate(*detection.DetectedText)
		if !domain.ValidPlate(candidate) {
			continue
		}
		if *detection.Confidence > result.Confidence {
			result.Plate = candidate
			result.Confidence = *detection.Confidence
		}
	}
	if result.Plate == "" {
		log.Println("VisionService: Không tìm thấy biển số hợp lệ trong ảnh.")
	}

	labelOut, err := s.rekognitionClient.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &types.Image{Bytes: imageBytes},
	})
	if err != nil {
		// Biển số vẫn dùng được dù bước đoán loại xe thất bại
		log.Printf("VisionService: Lỗi Rekognition DetectLabels: %v", err)
		return result, nil
	}

	var bestLabelConfidence float32
	for _, label := range labelOut.Labels {
		if label.Name == nil || label.Confidence == nil {
			continue
		}
		class, ok := labelToClass[strings.TrimSpace(*label.Name)]
		if !ok {
			continue
		}
		if *label.Confidence > bestLabelConfidence {
			bestLabelConfidence = *label.Confidence
			result.VehicleTypeGuess = class
		}
	}
	return result, nil
}
