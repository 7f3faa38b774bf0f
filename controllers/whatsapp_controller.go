package controllers

import (
	"context"
	"net/http"
	"time"

	"symptomwise-backend/models"
	"symptomwise-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// webhookTimeout bounds the background handling of one webhook delivery.
const webhookTimeout = 2 * time.Minute

const (
	unsupportedMessageText = "Sorry, I can only process text messages and button replies at the moment."
	emptyMessageText       = "Please describe your symptoms or type 'hi' to start a consultation."
)

type WhatsAppController struct {
	whatsappService *services.WhatsAppService
	chatbotService  *services.ChatbotService
	logger          *zap.Logger
}

func NewWhatsAppController(whatsappService *services.WhatsAppService, chatbotService *services.ChatbotService, logger *zap.Logger) *WhatsAppController {
	return &WhatsAppController{
		whatsappService: whatsappService,
		chatbotService:  chatbotService,
		logger:          logger,
	}
}

// VerifyWebhook handles the webhook verification request from WhatsApp
func (wc *WhatsAppController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == wc.whatsappService.GetVerifyToken() {
		wc.logger.Info("WhatsApp webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}

	wc.logger.Warn("WhatsApp webhook verification failed", zap.String("mode", mode))
	c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
}

// HandleWebhook acknowledges the delivery at once and processes it in the
// background, detached from the request's cancellation.
func (wc *WhatsAppController) HandleWebhook(c *gin.Context) {
	var webhookData models.WhatsAppWebhookData
	if err := c.ShouldBindJSON(&webhookData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
		defer cancel()
		wc.processWebhookData(ctx, webhookData)
	}()

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

func (wc *WhatsAppController) processWebhookData(ctx context.Context, webhookData models.WhatsAppWebhookData) {
	for _, entry := range webhookData.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, message := range change.Value.Messages {
				wc.handleIncomingMessage(ctx, message)
			}
			for _, status := range change.Value.Statuses {
				wc.handleStatusUpdate(status)
			}
		}
	}
}

func (wc *WhatsAppController) handleIncomingMessage(ctx context.Context, message models.WhatsAppMessage) {
	wc.whatsappService.RecordReceived()
	log := wc.logger.With(zap.String("from", message.From), zap.String("type", message.Type))

	if err := wc.whatsappService.MarkMessageAsRead(ctx, message.ID); err != nil {
		log.Debug("Failed to mark message as read", zap.Error(err))
	}

	text := message.Body()
	if text == "" {
		wc.reply(ctx, log, message.From, unsupportedMessageText)
		return
	}

	response, err := wc.chatbotService.ProcessMessage(ctx, services.MessageInput{
		Identity: services.WhatsAppIdentity(message.From),
		Channel:  models.ChannelWhatsApp,
		Text:     text,
	})
	if errors.Is(err, services.ErrMalformedInput) {
		wc.reply(ctx, log, message.From, emptyMessageText)
		return
	}

	wc.reply(ctx, log, message.From, services.RenderWhatsApp(response))
	if buttons := services.DecisionButtons(response); buttons != nil {
		if err := wc.whatsappService.SendInteractiveMessage(ctx, message.From, buttons); err != nil {
			log.Warn("Failed to send decision buttons", zap.Error(err))
		}
	}
}

// reply sends text and only logs failures, so a broken sender never loops
// back into another message.
func (wc *WhatsAppController) reply(ctx context.Context, log *zap.Logger, to, text string) {
	if err := wc.whatsappService.SendTextMessage(ctx, to, text); err != nil {
		log.Error("Failed to send WhatsApp reply", zap.Error(err))
	}
}

func (wc *WhatsAppController) handleStatusUpdate(status models.WhatsAppStatus) {
	wc.logger.Debug("WhatsApp message status",
		zap.String("id", status.ID),
		zap.String("recipient", status.RecipientID),
		zap.String("status", status.Status))

	for _, e := range status.Errors {
		wc.logger.Warn("WhatsApp delivery error",
			zap.String("id", status.ID),
			zap.Int("code", e.Code),
			zap.String("title", e.Title),
			zap.String("message", e.Message))
	}
}

// SendMessage sends a message to a specific WhatsApp number (for notifications)
func (wc *WhatsAppController) SendMessage(c *gin.Context) {
	var req struct {
		To      string `json:"to" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	to := services.CleanPhoneNumber(req.To)
	if err := wc.whatsappService.SendTextMessage(c.Request.Context(), to, req.Message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send message",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "sent",
		"to":     to,
	})
}

// GetStatus returns WhatsApp service status
func (wc *WhatsAppController) GetStatus(c *gin.Context) {
	count, err := wc.chatbotService.SessionCount(c.Request.Context())
	if err != nil {
		wc.logger.Warn("Failed to count sessions", zap.Error(err))
	}
	c.JSON(http.StatusOK, wc.whatsappService.GetStatus(int(count)))
}
