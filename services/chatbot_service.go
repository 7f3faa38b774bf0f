package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"symptomwise-backend/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxSaveAttempts = 3

// ChatbotSettings configures the orchestration around the state machine.
type ChatbotSettings struct {
	Triage             TriageSettings
	HistoryLimit       int
	PromptHistoryTurns int
	WebTimeout         time.Duration
	WhatsAppTimeout    time.Duration
}

// MessageInput is one inbound message, independent of transport.
type MessageInput struct {
	Identity string
	Channel  models.MessageChannel
	Text     string
	Location *models.LocationInput
	// OnToken, when set, receives completion text as it is generated.
	OnToken func(string)
}

// ChatbotService runs conversation turns: it loads the session, steps the
// channel's state machine and persists the result. Turns for one identity
// are serialised; the completion call runs without holding the lock.
type ChatbotService struct {
	store       SessionStore
	locks       *KeyedMutex
	completion  CompletionService
	recommender *RecommendationService
	engines     map[models.MessageChannel]*TriageEngine
	settings    ChatbotSettings
	logger      *zap.Logger
	metrics     *Metrics
	now         func() time.Time
}

func NewChatbotService(store SessionStore, completion CompletionService, recommender *RecommendationService, settings ChatbotSettings, logger *zap.Logger, metrics *Metrics) *ChatbotService {
	return &ChatbotService{
		store:       store,
		locks:       NewKeyedMutex(),
		completion:  completion,
		recommender: recommender,
		engines: map[models.MessageChannel]*TriageEngine{
			models.ChannelWeb:      NewTriageEngine(WebPolicy(settings.WebTimeout), recommender, settings.Triage),
			models.ChannelWhatsApp: NewTriageEngine(WhatsAppPolicy(settings.WhatsAppTimeout), recommender, settings.Triage),
		},
		settings: settings,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// ProcessMessage handles one turn. The only error returned is
// ErrMalformedInput, in which case no session was touched. Every other
// failure, panics included, becomes an apology reply.
func (s *ChatbotService) ProcessMessage(ctx context.Context, in MessageInput) (resp *models.TriageResponse, err error) {
	text := strings.TrimSpace(in.Text)
	engine, ok := s.engines[in.Channel]
	if text == "" || in.Identity == "" || !ok {
		return nil, ErrMalformedInput
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while processing message",
				zap.String("identity", in.Identity),
				zap.Any("panic", r))
			resp, err = s.apology(in.Channel), nil
		}
		s.metrics.recordTurn(string(in.Channel), string(resp.Kind))
	}()

	resp, err = s.processTurn(ctx, engine, in, text)
	if err != nil {
		s.logger.Error("Failed to process message",
			zap.String("identity", in.Identity),
			zap.String("channel", string(in.Channel)),
			zap.Error(err))
		return s.apology(in.Channel), nil
	}
	return resp, nil
}

func (s *ChatbotService) processTurn(ctx context.Context, engine *TriageEngine, in MessageInput, text string) (*models.TriageResponse, error) {
	unlock := s.locks.Lock(in.Identity)
	locked := true
	defer func() {
		if locked {
			unlock()
		}
	}()

	var completion *Completion
	for attempt := 1; ; attempt++ {
		session, version, err := s.load(ctx, in)
		if err != nil {
			return nil, err
		}
		s.applyLocation(session, in.Location)

		if completion == nil && engine.NeedsDiagnosis(session, text) {
			prompt, combined := engine.DiagnosisPrompt(session, text, s.settings.PromptHistoryTurns)

			unlock()
			locked = false
			completion = s.complete(ctx, engine, prompt, combined, in.OnToken)
			unlock = s.locks.Lock(in.Identity)
			locked = true

			// Re-read: another turn may have moved the session meanwhile.
			session, version, err = s.load(ctx, in)
			if err != nil {
				return nil, err
			}
			s.applyLocation(session, in.Location)
		}

		resp := engine.Step(ctx, session, text, completion)

		session.LastActivityAt = s.now()
		session.AppendHistory(models.RoleUser, text, s.settings.HistoryLimit)
		session.AppendHistory(models.RoleAssistant, resp.Message, s.settings.HistoryLimit)

		err = s.store.Save(ctx, session, version)
		if errors.Is(err, ErrSessionConflict) && attempt < maxSaveAttempts {
			s.logger.Debug("Session changed concurrently, retrying turn",
				zap.String("identity", in.Identity),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "save session")
		}

		if resp.Kind == models.KindDiagnosis {
			s.metrics.recordTriage(string(in.Channel), string(resp.Classification.Urgency))
			if resp.Fallback {
				s.metrics.recordFallback(string(in.Channel))
			}
		}
		return resp, nil
	}
}

// load returns the identity's session and the version it was stored with.
// Absent or expired sessions start fresh at version 0; sessions in an
// unknown state restart at WELCOME keeping their location.
func (s *ChatbotService) load(ctx context.Context, in MessageInput) (*models.Session, int64, error) {
	session, err := s.store.Get(ctx, in.Identity)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return models.NewSession(in.Identity, in.Channel, s.now()), 0, nil
	case errors.Is(err, ErrSessionCorrupt):
		s.logger.Warn("Discarding undecodable session", zap.String("identity", in.Identity), zap.Error(err))
		// The bad record must go or a version-0 save cannot replace it.
		if err := s.store.Delete(ctx, in.Identity); err != nil {
			return nil, 0, errors.Wrap(err, "discard corrupt session")
		}
		return models.NewSession(in.Identity, in.Channel, s.now()), 0, nil
	case err != nil:
		return nil, 0, errors.Wrap(err, "load session")
	}

	if !session.State.Valid() {
		s.logger.Warn("Resetting session with invalid state",
			zap.String("identity", in.Identity),
			zap.String("state", string(session.State)),
			zap.Error(ErrSessionCorrupt))
		session.State = models.StateWelcome
		session.ClearSymptoms()
		session.AwaitingDecision = false
	}
	return session, session.Version, nil
}

func (s *ChatbotService) applyLocation(session *models.Session, loc *models.LocationInput) {
	if loc == nil {
		return
	}
	if city := strings.TrimSpace(loc.City); city != "" {
		session.Location = titleCase(city)
	}
	if loc.Latitude != nil && loc.Longitude != nil {
		session.Preferences.Coordinates = &models.Coordinates{
			Latitude:  *loc.Latitude,
			Longitude: *loc.Longitude,
			Timestamp: s.now(),
		}
	}
}

// complete calls the backend within the channel timeout. A stream that
// fails before its first chunk falls back entirely; one that fails later
// keeps what was already delivered.
func (s *ChatbotService) complete(ctx context.Context, engine *TriageEngine, prompt, combined string, onToken func(string)) *Completion {
	ctx, cancel := context.WithTimeout(ctx, engine.Policy().CompletionTimeout)
	defer cancel()

	if onToken != nil {
		streamed := false
		text, err := s.completion.Stream(ctx, prompt, func(chunk string) {
			streamed = true
			onToken(chunk)
		})
		if err == nil || (streamed && text != "") {
			return &Completion{Text: text, Streamed: streamed}
		}
		s.logger.Info("Completion unavailable, using fallback", zap.Error(err))
		return engine.FallbackCompletion(combined)
	}

	text, err := s.completion.Generate(ctx, prompt)
	if err != nil {
		s.logger.Info("Completion unavailable, using fallback", zap.Error(err))
		return engine.FallbackCompletion(combined)
	}
	return &Completion{Text: text}
}

func (s *ChatbotService) apology(channel models.MessageChannel) *models.TriageResponse {
	number := s.settings.Triage.EmergencyNumber
	return &models.TriageResponse{
		Kind:    models.KindApology,
		Channel: channel,
		Message: fmt.Sprintf("Sorry, I encountered an internal error. Please try again later. "+
			"If this is an emergency, call %s immediately.", number),
		EmergencyNumber: number,
	}
}

// SetLocation stores browser coordinates in the session preferences. It
// does not change the conversational city.
func (s *ChatbotService) SetLocation(ctx context.Context, identity string, channel models.MessageChannel, coords models.Coordinates) error {
	if identity == "" {
		return ErrMalformedInput
	}
	if coords.Timestamp.IsZero() {
		coords.Timestamp = s.now()
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	in := MessageInput{Identity: identity, Channel: channel}
	for attempt := 1; ; attempt++ {
		session, version, err := s.load(ctx, in)
		if err != nil {
			return err
		}
		c := coords
		session.Preferences.Coordinates = &c
		session.LastActivityAt = s.now()

		err = s.store.Save(ctx, session, version)
		if errors.Is(err, ErrSessionConflict) && attempt < maxSaveAttempts {
			continue
		}
		return errors.Wrap(err, "save location")
	}
}

// Hospitals lists active hospitals for browsing, ranked for city.
func (s *ChatbotService) Hospitals(ctx context.Context, city string) []models.HospitalSummary {
	return s.recommender.ListHospitals(ctx, city)
}

// Session returns a copy of the stored session, for the console client.
func (s *ChatbotService) Session(ctx context.Context, identity string) (*models.Session, error) {
	return s.store.Get(ctx, identity)
}

func (s *ChatbotService) SessionCount(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}
