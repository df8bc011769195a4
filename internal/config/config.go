package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion string // Để trống nếu không dùng dịch vụ nhận dạng ảnh

	JWTSecret          string
	JWTExpirationHours time.Duration

	// Thông tin hiển thị trên mã Pix (trường 59 và 60 của payload EMV)
	MerchantName string
	MerchantCity string

	// Chu kỳ polling khi chờ xác nhận thanh toán Pix
	PixPollInterval time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	pollSeconds, _ := strconv.Atoi(getEnv("PIX_POLL_INTERVAL_SECONDS", "5"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "youruser"),
		DBPassword: getEnv("DB_PASSWORD", "yourpassword"),
		DBName:     getEnv("DB_NAME", "agc_parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion: getEnv("AWS_REGION", ""),

		JWTSecret:          getEnv("JWT_SECRET", "your-very-secret-key-for-jwt-!@#$"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		MerchantName: getEnv("MERCHANT_NAME", "AGC PARKING"),
		MerchantCity: getEnv("MERCHANT_CITY", "BRASIL"),

		PixPollInterval: time.Duration(pollSeconds) * time.Second,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
