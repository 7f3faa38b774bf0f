package cmd

import (
	"symptomwise-backend/config"
	"symptomwise-backend/database"
	"symptomwise-backend/services"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type directory interface {
	services.DoctorDirectory
	services.HospitalDirectory
}

// buildChatbot assembles the chatbot from the configured backends. Database
// connections must already be open.
func buildChatbot(cfg *config.Config, logger *zap.Logger, metrics *services.Metrics) (*services.ChatbotService, error) {
	completion, err := newCompletion(cfg, logger)
	if err != nil {
		return nil, err
	}

	dir, err := newDirectory(cfg)
	if err != nil {
		return nil, err
	}

	recommender := services.NewRecommendationService(dir, dir, cfg.Triage.PreferredHospitalKeyword, logger, metrics)
	settings := services.ChatbotSettings{
		Triage: services.TriageSettings{
			DefaultCity:     cfg.Triage.DefaultCity,
			EmergencyNumber: cfg.Triage.EmergencyNumber,
			AppointmentURL:  cfg.Triage.AppointmentURL,
		},
		HistoryLimit:       cfg.Sessions.HistoryLimit,
		PromptHistoryTurns: cfg.Sessions.PromptHistoryTurns,
		WebTimeout:         cfg.AI.WebTimeout,
		WhatsAppTimeout:    cfg.AI.WhatsAppTimeout,
	}

	return services.NewChatbotService(newSessionStore(cfg), completion, recommender, settings, logger, metrics), nil
}

func newCompletion(cfg *config.Config, logger *zap.Logger) (services.CompletionService, error) {
	switch cfg.AI.Provider {
	case "openai":
		return services.NewOpenAICompletion(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, logger), nil
	default:
		c, err := services.NewOllamaCompletion(cfg.AI.OllamaURL, cfg.AI.Model, logger)
		if err != nil {
			return nil, errors.Wrap(err, "create ollama client")
		}
		return c, nil
	}
}

// newSessionStore routes authenticated users to the persistent backend and
// everyone else to the expiring guest store.
func newSessionStore(cfg *config.Config) services.SessionStore {
	var guest services.SessionStore
	if cfg.Sessions.Backend == "redis" {
		guest = services.NewRedisSessionStore(database.GetRedis(), cfg.Sessions.GuestTTL)
	} else {
		guest = services.NewMemorySessionStore(cfg.Sessions.GuestTTL)
	}

	var persistent services.SessionStore
	if cfg.Sessions.UserBackend == "mongodb" {
		persistent = services.NewMongoSessionStore(database.GetMongoDB())
	}
	return services.NewRoutingSessionStore(guest, persistent)
}

func newDirectory(cfg *config.Config) (directory, error) {
	switch cfg.Directory.Backend {
	case "mongodb":
		return services.NewMongoDirectory(database.GetMongoDB()), nil
	case "postgresql":
		return services.NewPostgresDirectory(database.GetPostgresDB()), nil
	default:
		dir, err := services.LoadStaticDirectory(cfg.Directory.SeedFile)
		if err != nil {
			return nil, errors.Wrap(err, "load static directory")
		}
		return dir, nil
	}
}
