package models

import (
	"time"
)

// ChatRequest is the inbound web chat message.
type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id,omitempty"`
	IsGuest   *bool          `json:"is_guest,omitempty"`
	Location  *LocationInput `json:"location,omitempty"`
}

// LocationInput is the optional location attached to a chat message. City
// feeds the conversational location; coordinates go to session preferences.
type LocationInput struct {
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// LocationRequest is the location-set call.
type LocationRequest struct {
	SessionID string   `json:"session_id"`
	UserID    string   `json:"user_id,omitempty"`
	IsGuest   *bool    `json:"is_guest,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// StreamFrame is one server-sent event or websocket frame of a web turn.
type StreamFrame struct {
	Token           string          `json:"token,omitempty"`
	Fallback        bool            `json:"fallback,omitempty"`
	Recommendations *TriageResponse `json:"recommendations,omitempty"`
	Error           string          `json:"error,omitempty"`
	Done            bool            `json:"done,omitempty"`
}

// WhatsApp Webhook Models
type WhatsAppWebhookData struct {
	Object string          `json:"object"`
	Entry  []WhatsAppEntry `json:"entry"`
}

type WhatsAppEntry struct {
	ID      string           `json:"id"`
	Changes []WhatsAppChange `json:"changes"`
}

type WhatsAppChange struct {
	Field string        `json:"field"`
	Value WhatsAppValue `json:"value"`
}

type WhatsAppValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         WhatsAppMetadata  `json:"metadata"`
	Messages         []WhatsAppMessage `json:"messages,omitempty"`
	Statuses         []WhatsAppStatus  `json:"statuses,omitempty"`
	Contacts         []WhatsAppContact `json:"contacts,omitempty"`
}

type WhatsAppMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WhatsAppMessage struct {
	From        string                    `json:"from"`
	ID          string                    `json:"id"`
	Timestamp   string                    `json:"timestamp"`
	Type        string                    `json:"type"`
	Text        *WhatsAppText             `json:"text,omitempty"`
	Interactive *WhatsAppInteractiveReply `json:"interactive,omitempty"`
	Button      *WhatsAppQuickReply       `json:"button,omitempty"`
}

// Body extracts the text the triage engine should see. Button replies map
// to their reply id, which is chosen to be the keyword phrase itself.
func (m WhatsAppMessage) Body() string {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return m.Text.Body
		}
	case "interactive":
		if m.Interactive != nil {
			if m.Interactive.ButtonReply != nil {
				return m.Interactive.ButtonReply.ID
			}
			if m.Interactive.ListReply != nil {
				return m.Interactive.ListReply.ID
			}
		}
	case "button":
		if m.Button != nil {
			return m.Button.Payload
		}
	}
	return ""
}

type WhatsAppText struct {
	Body string `json:"body"`
}

type WhatsAppInteractiveReply struct {
	Type        string               `json:"type"`
	ListReply   *WhatsAppListReply   `json:"list_reply,omitempty"`
	ButtonReply *WhatsAppButtonReply `json:"button_reply,omitempty"`
}

type WhatsAppListReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WhatsAppButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// WhatsAppQuickReply is a template quick-reply button press.
type WhatsAppQuickReply struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

type WhatsAppContact struct {
	Profile WhatsAppProfile `json:"profile"`
	WaID    string          `json:"wa_id"`
}

type WhatsAppProfile struct {
	Name string `json:"name"`
}

type WhatsAppStatus struct {
	ID          string  `json:"id"`
	RecipientID string  `json:"recipient_id"`
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Errors      []Error `json:"errors,omitempty"`
}

type Error struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// WhatsApp Send Message Models
type WhatsAppSendMessage struct {
	MessagingProduct string              `json:"messaging_product"`
	RecipientType    string              `json:"recipient_type"`
	To               string              `json:"to"`
	Type             string              `json:"type"`
	Text             *WhatsAppText       `json:"text,omitempty"`
	Interactive      *InteractiveMessage `json:"interactive,omitempty"`
}

// InteractiveMessage for WhatsApp interactive messages
type InteractiveMessage struct {
	Type   string             `json:"type"` // "list" or "button"
	Header *MessageHeader     `json:"header,omitempty"`
	Body   *InteractiveBody   `json:"body"`
	Footer *InteractiveFooter `json:"footer,omitempty"`
	Action *InteractiveAction `json:"action"`
}

type MessageHeader struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type InteractiveBody struct {
	Text string `json:"text"`
}

type InteractiveFooter struct {
	Text string `json:"text"`
}

type InteractiveAction struct {
	Buttons []InteractiveButton `json:"buttons,omitempty"`
}

type InteractiveButton struct {
	Type  string       `json:"type"` // "reply"
	Reply *ButtonReply `json:"reply"`
}

type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Service Status Model
type WhatsAppServiceStatus struct {
	Enabled             bool      `json:"enabled"`
	LastMessageSent     time.Time `json:"last_message_sent"`
	LastMessageReceived time.Time `json:"last_message_received"`
	MessageCountToday   int       `json:"message_count_today"`
	ActiveSessions      int       `json:"active_sessions"`
}
