package domain

// AnalyzeImageDTO dùng khi frontend gửi ảnh xe vào cổng lên để nhận dạng.
type AnalyzeImageDTO struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

// VisionResult là kết quả nhận dạng ảnh: biển số đọc được và loại xe đoán
// được. Engine chỉ dùng kết quả này để điền sẵn form check-in, không bao giờ
// tự xử lý ảnh.
type VisionResult struct {
	Plate            string       `json:"plate,omitempty"`
	VehicleTypeGuess VehicleClass `json:"vehicle_type_guess,omitempty"`
	Confidence       float32      `json:"confidence,omitempty"`
}
