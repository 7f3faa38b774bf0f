package controllers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"symptomwise-backend/models"
	"symptomwise-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type ChatbotController struct {
	chatbotService *services.ChatbotService
	logger         *zap.Logger
}

func NewChatbotController(chatbotService *services.ChatbotService, logger *zap.Logger) *ChatbotController {
	return &ChatbotController{
		chatbotService: chatbotService,
		logger:         logger,
	}
}

// chatResponse echoes the session id so guests can keep their conversation.
type chatResponse struct {
	*models.TriageResponse
	SessionID string `json:"session_id"`
}

// resolveIdentity keys the turn by the authenticated user when there is one
// and by the browser session id otherwise. A missing session id is minted.
func resolveIdentity(c *gin.Context, userID, sessionID string, isGuest *bool) (identity, sid string) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(string); ok && id != "" {
			userID = id
		}
	}
	if isGuest != nil && *isGuest {
		userID = ""
	}
	sid = strings.TrimSpace(sessionID)
	if sid == "" {
		sid = uuid.NewString()
	}
	return services.WebIdentity(userID, sid), sid
}

// HandleChat processes one chat message and returns the whole reply.
func (cc *ChatbotController) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	identity, sid := resolveIdentity(c, req.UserID, req.SessionID, req.IsGuest)
	response, err := cc.chatbotService.ProcessMessage(c.Request.Context(), services.MessageInput{
		Identity: identity,
		Channel:  models.ChannelWeb,
		Text:     req.Message,
		Location: req.Location,
	})
	if errors.Is(err, services.ErrMalformedInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{TriageResponse: response, SessionID: sid})
}

// HandleChatStream answers with server-sent events: token frames while the
// completion is generated, then one frame carrying the structured reply.
func (cc *ChatbotController) HandleChatStream(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	identity, sid := resolveIdentity(c, req.UserID, req.SessionID, req.IsGuest)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Session-ID", sid)
	c.Status(http.StatusOK)

	send := func(frame models.StreamFrame) {
		payload, err := json.Marshal(frame)
		if err != nil {
			cc.logger.Error("Failed to encode stream frame", zap.Error(err))
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		c.Writer.Flush()
	}

	response, err := cc.chatbotService.ProcessMessage(c.Request.Context(), services.MessageInput{
		Identity: identity,
		Channel:  models.ChannelWeb,
		Text:     req.Message,
		Location: req.Location,
		OnToken:  func(token string) { send(models.StreamFrame{Token: token}) },
	})
	if err != nil {
		send(models.StreamFrame{Error: "Message is required", Done: true})
		return
	}

	for _, frame := range replyFrames(response) {
		send(frame)
	}
}

// replyFrames lists the frames still owed to the client once a turn has
// finished: whatever part of the message was not streamed, then the
// structured payload.
func replyFrames(r *models.TriageResponse) []models.StreamFrame {
	var frames []models.StreamFrame
	rest := r.Message
	if r.Streamed {
		rest = strings.TrimPrefix(r.Message, r.Generated)
	}
	if rest != "" {
		frames = append(frames, models.StreamFrame{Token: rest, Fallback: r.Fallback})
	}
	return append(frames, models.StreamFrame{Recommendations: r, Done: true})
}

// SetLocation stores browser coordinates for the session.
func (cc *ChatbotController) SetLocation(c *gin.Context) {
	var req models.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location data"})
		return
	}

	coords := models.Coordinates{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Accuracy:  req.Accuracy,
	}
	if req.Timestamp != nil {
		sec, frac := math.Modf(*req.Timestamp)
		coords.Timestamp = time.Unix(int64(sec), int64(frac*1e9))
	}

	identity, sid := resolveIdentity(c, req.UserID, req.SessionID, req.IsGuest)
	if err := cc.chatbotService.SetLocation(c.Request.Context(), identity, models.ChannelWeb, coords); err != nil {
		cc.logger.Error("Failed to store location", zap.String("identity", identity), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Location stored successfully",
		"session_id": sid,
	})
}

// ListHospitals returns every active hospital, nearest city first.
func (cc *ChatbotController) ListHospitals(c *gin.Context) {
	hospitals := cc.chatbotService.Hospitals(c.Request.Context(), c.Query("city"))
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}
