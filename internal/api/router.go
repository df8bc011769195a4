package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/api/handler"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/api/middleware"
	"github.com/acaciogalvao/Parking-System-AGC-24h/internal/service"
)

func SetupRouter(db *sql.DB, as *service.AuthService, ps *service.ParkingService,
	pay *service.PaymentService, vs *service.VisionService, authMw *middleware.AuthMiddleware) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	healthHandler := handler.NewHealthHandler(db)
	r.GET("/health", healthHandler.Check)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	paymentHandler := handler.NewPaymentHandler(pay)
	// Webhook từ ngân hàng không mang token của mình nên để ngoài nhóm auth
	r.POST("/webhook/pix", paymentHandler.Webhook)

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		sessionHandler := handler.NewParkingSessionHandler(ps)
		recordRoutes := v1.Group("/records")
		{
			recordRoutes.POST("/check-in", sessionHandler.CheckIn)
			recordRoutes.POST("/:id/check-out", sessionHandler.CheckOut)
			recordRoutes.GET("", sessionHandler.ListRecent)
			recordRoutes.GET("/occupied-spots", sessionHandler.OccupiedSpots)
			recordRoutes.GET("/:id/quote", sessionHandler.Quote)
		}
		v1.GET("/dashboard/stats", sessionHandler.DashboardStats)

		settingsHandler := handler.NewSettingsHandler(ps)
		v1.GET("/sync", settingsHandler.Sync)
		v1.PUT("/settings", authMw.AuthorizeRole("admin"), settingsHandler.Replace)

		paymentRoutes := v1.Group("/payments")
		{
			paymentRoutes.POST("/create", paymentHandler.CreateIntent)
			paymentRoutes.GET("/status/:txid", paymentHandler.QueryStatus)
			paymentRoutes.POST("/pix-code", paymentHandler.GeneratePixCode)
			paymentRoutes.POST("/:txid/confirm", authMw.AuthorizeRole("admin", "operator"), paymentHandler.ConfirmManually)
		}

		if vs != nil { // Kiểm tra nếu visionService được cấu hình
			visionHandler := handler.NewVisionHandler(vs)
			visionRoutes := v1.Group("/vision")
			visionRoutes.Use(authMw.AuthorizeRole("admin", "operator"))
			{
				visionRoutes.POST("/analyze", visionHandler.Analyze)
			}
		}
	}
	return r
}
