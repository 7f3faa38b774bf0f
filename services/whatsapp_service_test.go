package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"symptomwise-backend/config"
	"symptomwise-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestWhatsApp(t *testing.T, handler http.HandlerFunc) *WhatsAppService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWhatsAppService(config.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		VerifyToken:   "verify",
		APIURL:        srv.URL + "/",
		APIVersion:    "v18.0",
	}, zap.NewNop())
}

func TestWhatsAppService_SendTextMessage(t *testing.T) {
	var got models.WhatsAppSendMessage
	ws := newTestWhatsApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v18.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	})

	require.NoError(t, ws.SendTextMessage(context.Background(), "+91 98765-43210", "hello"))

	assert.Equal(t, "919876543210", got.To)
	assert.Equal(t, "text", got.Type)
	require.NotNil(t, got.Text)
	assert.Equal(t, "hello", got.Text.Body)

	status := ws.GetStatus(3)
	assert.True(t, status.Enabled)
	assert.Equal(t, 1, status.MessageCountToday)
	assert.Equal(t, 3, status.ActiveSessions)
	assert.False(t, status.LastMessageSent.IsZero())
}

func TestWhatsAppService_APIError(t *testing.T) {
	ws := newTestWhatsApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":131030,"message":"Recipient not in allowed list"}}`))
	})

	err := ws.SendTextMessage(context.Background(), "919876543210", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "131030")
	assert.Zero(t, ws.GetStatus(0).MessageCountToday)
}

func TestWhatsAppService_SendInteractiveMessage(t *testing.T) {
	var got models.WhatsAppSendMessage
	ws := newTestWhatsApp(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	resp := &models.TriageResponse{
		State:            models.StateAwaitingAppointmentDecision,
		AwaitingDecision: true,
		EmergencyNumber:  "108",
	}
	require.NoError(t, ws.SendInteractiveMessage(context.Background(), "919876543210", DecisionButtons(resp)))

	assert.Equal(t, "interactive", got.Type)
	require.NotNil(t, got.Interactive)
	assert.Equal(t, "button", got.Interactive.Type)
	assert.Len(t, got.Interactive.Action.Buttons, 2)
}

func TestWhatsAppService_Disabled(t *testing.T) {
	ws := NewWhatsAppService(config.WhatsAppConfig{VerifyToken: "verify"}, zap.NewNop())

	assert.False(t, ws.Enabled())
	assert.Equal(t, "verify", ws.GetVerifyToken())
	assert.Error(t, ws.SendTextMessage(context.Background(), "919876543210", "hello"))
}

func TestCleanPhoneNumber(t *testing.T) {
	assert.Equal(t, "919876543210", CleanPhoneNumber("98765 43210"))
	assert.Equal(t, "919876543210", CleanPhoneNumber("+91-98765-43210"))
	assert.Equal(t, "4412345678901", CleanPhoneNumber("+44 1234 5678901"))
}
