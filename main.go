package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsgo_config "github.com/aws/aws-sdk-go-v2/config" // Alias để tránh trùng tên
	"github.com/aws/aws-sdk-go-v2/service/rekognition"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/api"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/api/middleware"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/config"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/repository/postgresql"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Migrations + seed cấu hình mặc định
	if err := postgresql.RunMigrations(db); err != nil {
		log.Fatalf("Không thể chạy migrations: %v", err)
	}
	if err := postgresql.SeedDefaultSettings(context.Background(), db); err != nil {
		log.Fatalf("Không thể seed cấu hình mặc định: %v", err)
	}
	log.Println("Schema và cấu hình mặc định đã sẵn sàng.")

	// 4. Vision service là tùy chọn: chỉ bật khi có AWS_REGION
	var visionService *service.VisionService
	if cfg.AWSRegion != "" {
		awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Không thể tải AWS SDK config: %v", err)
		}
		rekognitionClient := rekognition.NewFromConfig(awsSDKCfg)
		visionService = service.NewVisionService(rekognitionClient)
		log.Println("Đã khởi tạo Rekognition client cho region:", cfg.AWSRegion)
	} else {
		log.Println("CẢNH BÁO: AWS_REGION chưa được cấu hình. API nhận dạng ảnh sẽ không chạy.")
	}

	// 5. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	sessionRepo := postgresql.NewPgParkingSessionRepository(db)
	settingsRepo := postgresql.NewPgSettingsRepository(db)
	intentRepo := postgresql.NewPgPaymentIntentRepository(db)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	parkingService := service.NewParkingService(sessionRepo, settingsRepo)
	paymentService := service.NewPaymentService(intentRepo, settingsRepo, parkingService,
		cfg.MerchantName, cfg.MerchantCity, cfg.PixPollInterval)

	// 7. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 8. Setup HTTP Router
	router := api.SetupRouter(db, authService, parkingService, paymentService, visionService, authMiddleware)

	// 9. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
