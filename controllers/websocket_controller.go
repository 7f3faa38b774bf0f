package controllers

import (
	"net/http"

	"symptomwise-backend/middleware"
	"symptomwise-backend/models"
	"symptomwise-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type wsMessage struct {
	Message  string                `json:"message"`
	UserID   string                `json:"user_id,omitempty"`
	Location *models.LocationInput `json:"location,omitempty"`
}

type WebSocketController struct {
	chatbotService *services.ChatbotService
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

func NewWebSocketController(chatbotService *services.ChatbotService, allowedOrigins []string, logger *zap.Logger) *WebSocketController {
	return &WebSocketController{
		chatbotService: chatbotService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// HandleWebSocket runs a chat over one connection. Each inbound message
// yields token frames followed by a done frame.
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	conn, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	identity, sid := resolveIdentity(c, c.Query("user_id"), c.Query("session_id"), nil)
	wc.logger.Debug("WebSocket chat opened", zap.String("session_id", sid))

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wc.logger.Warn("WebSocket read failed", zap.Error(err))
			}
			return
		}

		turnIdentity := identity
		if msg.UserID != "" {
			turnIdentity = services.WebIdentity(msg.UserID, sid)
		}

		var writeErr error
		write := func(frame models.StreamFrame) {
			if writeErr == nil {
				writeErr = conn.WriteJSON(frame)
			}
		}

		response, err := wc.chatbotService.ProcessMessage(c.Request.Context(), services.MessageInput{
			Identity: turnIdentity,
			Channel:  models.ChannelWeb,
			Text:     msg.Message,
			Location: msg.Location,
			OnToken:  func(token string) { write(models.StreamFrame{Token: token}) },
		})
		if err != nil {
			write(models.StreamFrame{Error: "Message is required", Done: true})
		} else {
			for _, frame := range replyFrames(response) {
				write(frame)
			}
		}

		if writeErr != nil {
			wc.logger.Warn("WebSocket write failed", zap.Error(writeErr))
			return
		}
	}
}
