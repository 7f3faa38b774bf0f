package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"symptomwise-backend/models"
	"symptomwise-backend/services"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cannedCompletion string

func (c cannedCompletion) Generate(context.Context, string) (string, error) {
	return string(c), nil
}

func (c cannedCompletion) Stream(_ context.Context, _ string, onChunk func(string)) (string, error) {
	onChunk(string(c))
	return string(c), nil
}

func newConsoleChatbot() *services.ChatbotService {
	dir := services.NewStaticDirectory(nil, []services.StaticHospital{{Name: "JP Hospital", City: "Gorakhpur"}})
	recommender := services.NewRecommendationService(dir, dir, "jp", zap.NewNop(), nil)
	return services.NewChatbotService(
		services.NewMemorySessionStore(time.Hour),
		cannedCompletion("Likely a mild headache."),
		recommender,
		services.ChatbotSettings{
			Triage:          services.TriageSettings{DefaultCity: "Gorakhpur", EmergencyNumber: "108"},
			HistoryLimit:    10,
			WebTimeout:      time.Second,
			WhatsAppTimeout: time.Second,
		},
		zap.NewNop(), nil)
}

func runConsole(t *testing.T, ch models.MessageChannel, input string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)

	identity := services.WebIdentity("", "console")
	if ch == models.ChannelWhatsApp {
		identity = services.WhatsAppIdentity("919876543210")
	}
	require.NoError(t, runChat(cmd, newConsoleChatbot(), ch, identity, false))
	return out.String()
}

func TestRunChat_Web(t *testing.T) {
	out := runConsole(t, models.ChannelWeb, "headache\n\ndone\n")

	assert.Contains(t, out, "fever")
	assert.Contains(t, out, "Likely a mild headache.")
	assert.Equal(t, 1, strings.Count(out, "Likely a mild headache."), "streamed text must not be printed twice")
	assert.Contains(t, out, "ROUTINE")
}

func TestRunChat_WhatsAppRendering(t *testing.T) {
	out := runConsole(t, models.ChannelWhatsApp, "chest pain\n")

	assert.Contains(t, out, "EMERGENCY DETECTED")
	assert.Contains(t, out, "JP Hospital")
}

func TestChatCommand_RejectsUnknownChannel(t *testing.T) {
	cmd := NewChatCommand()
	cmd.SetArgs([]string{"--channel", "sms"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.ErrorContains(t, cmd.Execute(), "unknown channel")
}
