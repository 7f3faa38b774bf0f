package controllers

import (
	"context"
	"time"

	"symptomwise-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompletion struct {
	chunks []string
}

func (s stubCompletion) Generate(context.Context, string) (string, error) {
	out := ""
	for _, c := range s.chunks {
		out += c
	}
	return out, nil
}

func (s stubCompletion) Stream(_ context.Context, _ string, onChunk func(string)) (string, error) {
	out := ""
	for _, c := range s.chunks {
		out += c
		onChunk(c)
	}
	return out, nil
}

func newTestChatbot(store services.SessionStore) *services.ChatbotService {
	dir := services.NewStaticDirectory(
		[]services.StaticDoctor{
			{Name: "Ravi Nair", Specialty: "Neurologist", Experience: 20, Hospital: "JP Hospital", City: "Delhi"},
		},
		[]services.StaticHospital{
			{ID: "1", Name: "City Care", City: "Delhi"},
			{ID: "2", Name: "JP Hospital", City: "Gorakhpur"},
		},
	)
	recommender := services.NewRecommendationService(dir, dir, "jp", zap.NewNop(), nil)
	settings := services.ChatbotSettings{
		Triage: services.TriageSettings{
			DefaultCity:     "Gorakhpur",
			EmergencyNumber: "108",
			AppointmentURL:  "https://example.test/appointment/",
		},
		HistoryLimit:       10,
		PromptHistoryTurns: 3,
		WebTimeout:         time.Second,
		WhatsAppTimeout:    time.Second,
	}
	completion := stubCompletion{chunks: []string{"Likely ", "a mild headache."}}
	return services.NewChatbotService(store, completion, recommender, settings, zap.NewNop(), nil)
}
