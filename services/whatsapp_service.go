package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"symptomwise-backend/config"
	"symptomwise-backend/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WhatsAppService sends messages through the WhatsApp Cloud API.
type WhatsAppService struct {
	apiURL        string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	verifyToken   string
	httpClient    *http.Client
	logger        *zap.Logger

	// Status tracking
	statusMu         sync.RWMutex
	lastSentTime     time.Time
	lastReceivedTime time.Time
	dailyCount       map[string]int
}

func NewWhatsAppService(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppService {
	return &WhatsAppService{
		apiURL:        strings.TrimRight(cfg.APIURL, "/"),
		apiVersion:    cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		verifyToken:   cfg.VerifyToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		dailyCount: make(map[string]int),
	}
}

// GetVerifyToken returns the webhook verification token
func (ws *WhatsAppService) GetVerifyToken() string {
	return ws.verifyToken
}

func (ws *WhatsAppService) Enabled() bool {
	return ws.accessToken != "" && ws.phoneNumberID != ""
}

// SendTextMessage sends a simple text message
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to string, message string) error {
	payload := models.WhatsAppSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               CleanPhoneNumber(to),
		Type:             "text",
		Text: &models.WhatsAppText{
			Body: message,
		},
	}
	return ws.send(ctx, payload)
}

// SendInteractiveMessage sends an interactive message
func (ws *WhatsAppService) SendInteractiveMessage(ctx context.Context, to string, interactive *models.InteractiveMessage) error {
	payload := models.WhatsAppSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               CleanPhoneNumber(to),
		Type:             "interactive",
		Interactive:      interactive,
	}
	return ws.send(ctx, payload)
}

// MarkMessageAsRead marks a message as read
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	return ws.sendRequest(ctx, payload)
}

// send delivers a user-visible message and counts it.
func (ws *WhatsAppService) send(ctx context.Context, payload models.WhatsAppSendMessage) error {
	if err := ws.sendRequest(ctx, payload); err != nil {
		return err
	}
	ws.recordSent()
	return nil
}

func (ws *WhatsAppService) sendRequest(ctx context.Context, payload interface{}) error {
	if !ws.Enabled() {
		return errors.New("whatsapp sending is not configured")
	}

	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Authorization", "Bearer "+ws.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorResp struct {
			Error models.Error `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			ws.logger.Warn("WhatsApp API error",
				zap.Int("status", resp.StatusCode),
				zap.Int("code", errorResp.Error.Code),
				zap.String("message", errorResp.Error.Message))
			return errors.Errorf("WhatsApp API error %d: %s", errorResp.Error.Code, errorResp.Error.Message)
		}
		return errors.Errorf("WhatsApp API error: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// CleanPhoneNumber strips everything but digits and prefixes bare 10-digit
// numbers with India's country code.
func CleanPhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) == 10 {
		cleaned = "91" + cleaned
	}
	return cleaned
}

func (ws *WhatsAppService) recordSent() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()

	now := time.Now()
	ws.lastSentTime = now
	ws.dailyCount[now.Format("2006-01-02")]++
}

// RecordReceived notes an inbound webhook message.
func (ws *WhatsAppService) RecordReceived() {
	ws.statusMu.Lock()
	ws.lastReceivedTime = time.Now()
	ws.statusMu.Unlock()
}

// GetStatus returns the service status
func (ws *WhatsAppService) GetStatus(activeSessions int) models.WhatsAppServiceStatus {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	return models.WhatsAppServiceStatus{
		Enabled:             ws.Enabled(),
		LastMessageSent:     ws.lastSentTime,
		LastMessageReceived: ws.lastReceivedTime,
		MessageCountToday:   ws.dailyCount[time.Now().Format("2006-01-02")],
		ActiveSessions:      activeSessions,
	}
}
