package routes

import (
	"net/http"
	"time"

	"symptomwise-backend/config"
	"symptomwise-backend/controllers"
	"symptomwise-backend/database"
	"symptomwise-backend/middleware"
	"symptomwise-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the long-lived services the handlers share.
type Dependencies struct {
	Chatbot  *services.ChatbotService
	WhatsApp *services.WhatsAppService
	Metrics  *services.Metrics
	Logger   *zap.Logger
}

func SetupRoutes(router *gin.Engine, cfg *config.Config, deps Dependencies) {
	chatbotController := controllers.NewChatbotController(deps.Chatbot, deps.Logger)
	wsController := controllers.NewWebSocketController(deps.Chatbot, cfg.Security.AllowedOrigins, deps.Logger)
	whatsappController := controllers.NewWhatsAppController(deps.WhatsApp, deps.Chatbot, deps.Logger)

	router.GET("/health", func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if err := database.HealthCheck(c.Request.Context()); err != nil {
			deps.Logger.Warn("Health check failed", zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":              status,
			"timestamp":           time.Now(),
			"whatsapp_configured": deps.WhatsApp.Enabled(),
		})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	public := router.Group("/api/v1")
	{
		public.POST("/chat", chatbotController.HandleChat)
		public.POST("/chat/stream", chatbotController.HandleChatStream)
		public.POST("/chat/location", chatbotController.SetLocation)
		public.GET("/hospitals", chatbotController.ListHospitals)

		// WebSocket for real-time chat
		public.GET("/ws", wsController.HandleWebSocket)
	}

	whatsapp := router.Group("/api/whatsapp")
	{
		whatsapp.GET("/webhook", whatsappController.VerifyWebhook)
		if cfg.WhatsApp.AppSecret != "" {
			whatsapp.POST("/webhook", middleware.VerifyWhatsAppSignature(cfg.WhatsApp.AppSecret), whatsappController.HandleWebhook)
		} else {
			whatsapp.POST("/webhook", whatsappController.HandleWebhook)
		}

		if cfg.Security.AdminToken != "" {
			admin := whatsapp.Group("/admin", middleware.RequireAdminToken(cfg.Security.AdminToken))
			admin.POST("/send", whatsappController.SendMessage)
			admin.GET("/status", whatsappController.GetStatus)
		} else {
			deps.Logger.Info("ADMIN_API_TOKEN not set, WhatsApp admin endpoints disabled")
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})
}
