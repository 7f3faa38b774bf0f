package services

import (
	"context"
	"fmt"
	"strings"

	"symptomwise-backend/models"
	"symptomwise-backend/utils"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TriageSettings are the deployment constants quoted in replies.
type TriageSettings struct {
	DefaultCity     string
	EmergencyNumber string
	AppointmentURL  string
}

// Completion is the outcome of the completion call made for a diagnosis.
type Completion struct {
	Text     string
	Fallback bool
	// Streamed is set when the text already reached the client as tokens.
	Streamed bool
}

// turn is what one inbound message does to a session, decided before any
// side effect so that the orchestrator and the machine agree on it.
type turn int

const (
	turnReset turn = iota
	turnGreeting
	turnEmergency
	turnFeelingBetter
	turnWelcomeSymptom
	turnLocation
	turnInitialSymptom
	turnFollowup1
	turnFollowup2
	turnDone
	turnAppointment
	turnDecisionBetter
	turnDecisionReprompt
	turnClosing
)

func (t turn) diagnoses() bool {
	return t == turnFollowup2 || t == turnDone
}

// TriageEngine is the conversation state machine for one channel.
type TriageEngine struct {
	policy      ChannelPolicy
	recommender *RecommendationService
	settings    TriageSettings
}

func NewTriageEngine(policy ChannelPolicy, recommender *RecommendationService, settings TriageSettings) *TriageEngine {
	return &TriageEngine{
		policy:      policy,
		recommender: recommender,
		settings:    settings,
	}
}

// titleCase capitalises each word like a city name. Casers keep state, so
// one is made per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

func (e *TriageEngine) Policy() ChannelPolicy {
	return e.policy
}

func (e *TriageEngine) classify(s *models.Session, text string) turn {
	kc := e.policy.Classifier

	switch {
	case utils.IsReset(text):
		return turnReset
	case utils.IsGreeting(text):
		return turnGreeting
	case kc.DetectEmergency(text):
		return turnEmergency
	case s.State != models.StateAwaitingAppointmentDecision && kc.DetectFeelingBetter(text):
		return turnFeelingBetter
	}

	switch s.State {
	case models.StateAskingLocation:
		return turnLocation
	case models.StateCollectingSymptoms1:
		if s.InitialSymptom == "" {
			return turnInitialSymptom
		}
		if utils.IsDone(text) {
			return turnDone
		}
		return turnFollowup1
	case models.StateCollectingSymptoms2:
		if utils.IsDone(text) {
			return turnDone
		}
		return turnFollowup2
	case models.StateAwaitingAppointmentDecision:
		switch {
		case kc.ExtractAppointmentIntent(text):
			return turnAppointment
		case kc.DetectFeelingBetter(text),
			e.policy.DecisionAcceptsBareBetter && strings.Contains(strings.ToLower(text), "better"):
			return turnDecisionBetter
		}
		return turnDecisionReprompt
	case models.StateTerminal:
		if e.policy.TerminalRechecksAppointment && kc.ExtractAppointmentIntent(text) {
			return turnAppointment
		}
		return turnClosing
	}
	return turnWelcomeSymptom
}

// NeedsDiagnosis reports whether text, applied to s, completes symptom
// collection and so needs a completion call.
func (e *TriageEngine) NeedsDiagnosis(s *models.Session, text string) bool {
	return e.classify(s, text).diagnoses()
}

// DiagnosisPrompt returns the completion prompt for the diagnosis that text
// triggers, and the combined symptom text it covers.
func (e *TriageEngine) DiagnosisPrompt(s *models.Session, text string, historyTurns int) (prompt, combined string) {
	preview := s.Clone()
	if e.classify(preview, text) == turnFollowup2 {
		preview.Followup2 = text
	}
	combined = preview.CombinedSymptoms()

	location := preview.Location
	if location == "" {
		location = "Not set"
	}
	prompt = fmt.Sprintf(
		"Role: SymptomWise AI (concise, non-diagnostic). Location: %s. "+
			"Prior Context: %s. "+
			"User's symptoms: %s. "+
			"Analyze and provide ONLY: 1. Brief, cautious summary (max 3 sentences). "+
			"2. Triage (URGENT/SEMI-URGENT/ROUTINE). 3. Suggested medical specialty.",
		location, strings.Join(preview.RecentUserTurns(historyTurns), " "), combined)
	return prompt, combined
}

// FallbackCompletion is used whenever the completion backend is unavailable.
func (e *TriageEngine) FallbackCompletion(combined string) *Completion {
	return &Completion{
		Text:     utils.FallbackText(combined, e.settings.EmergencyNumber),
		Fallback: true,
	}
}

// Step applies text to s and returns the reply. s is mutated in place.
// completion is consulted only when the turn runs a diagnosis; nil means
// the fallback text.
func (e *TriageEngine) Step(ctx context.Context, s *models.Session, text string, completion *Completion) *models.TriageResponse {
	switch e.classify(s, text) {
	case turnReset:
		s.State = models.StateWelcome
		s.ClearSymptoms()
		s.AwaitingDecision = false
		return e.respond(s, models.KindWelcome, "Session reset. "+welcomeText)

	case turnGreeting:
		s.ClearSymptoms()
		s.AwaitingDecision = false
		if s.Location != "" {
			s.State = models.StateCollectingSymptoms1
			return e.respond(s, models.KindSymptomPrompt, fmt.Sprintf(
				"Hello again! I'm SymptomWise AI. I remember your location: %s. "+
					"How can I help you today? Please describe your symptoms or health concerns.", s.Location))
		}
		s.State = models.StateAskingLocation
		return e.respond(s, models.KindLocationPrompt, askLocationText)

	case turnEmergency:
		s.AwaitingDecision = false
		return e.emergency(ctx, s)

	case turnFeelingBetter:
		s.State = models.StateWelcome
		s.ClearSymptoms()
		s.AwaitingDecision = false
		resp := e.respond(s, models.KindFeelingBetter, feelingBetterResetText)
		resp.Classification.ResetConversation = true
		return resp

	case turnWelcomeSymptom:
		if s.Location == "" {
			s.Location = e.settings.DefaultCity
		}
		s.InitialSymptom = text
		s.State = models.StateCollectingSymptoms1
		return e.respond(s, models.KindFollowupPrompt, firstFollowupText)

	case turnLocation:
		if utils.IsSkip(text) {
			s.Location = e.settings.DefaultCity
		} else {
			s.Location = titleCase(text)
		}
		s.State = models.StateCollectingSymptoms1
		return e.respond(s, models.KindSymptomPrompt, fmt.Sprintf(
			"Great! Location set to: %s. Now, please describe your symptoms or health concerns.", s.Location))

	case turnInitialSymptom:
		s.InitialSymptom = text
		return e.respond(s, models.KindFollowupPrompt, firstFollowupText)

	case turnFollowup1:
		s.Followup1 = text
		s.State = models.StateCollectingSymptoms2
		return e.respond(s, models.KindFollowupPrompt, secondFollowupText)

	case turnFollowup2:
		s.Followup2 = text
		return e.diagnose(ctx, s, completion)

	case turnDone:
		return e.diagnose(ctx, s, completion)

	case turnAppointment:
		return e.appointment(ctx, s)

	case turnDecisionBetter:
		s.AwaitingDecision = false
		s.State = models.StateTerminal
		return e.respond(s, models.KindFeelingBetter, feelingBetterDecisionText)

	case turnDecisionReprompt:
		resp := e.respond(s, models.KindDecisionReprompt, decisionRepromptText)
		resp.Classification.Remedies = e.policy.Classifier.ExtractRemedies(s.CombinedSymptoms())
		return resp
	}

	return e.respond(s, models.KindClosing, closingText)
}

func (e *TriageEngine) respond(s *models.Session, kind models.ResponseKind, message string) *models.TriageResponse {
	return &models.TriageResponse{
		Kind:             kind,
		Channel:          e.policy.Channel,
		State:            s.State,
		Message:          message,
		Location:         s.Location,
		EmergencyNumber:  e.settings.EmergencyNumber,
		AppointmentURL:   e.settings.AppointmentURL,
		AwaitingDecision: s.AwaitingDecision,
	}
}

func (e *TriageEngine) emergency(ctx context.Context, s *models.Session) *models.TriageResponse {
	rec := e.recommender.Recommend(ctx, RecommendationQuery{
		City:          s.Location,
		FilterByCity:  e.policy.FilterHospitalsByCity,
		Emergency:     true,
		HospitalsOnly: true,
	})

	message := fmt.Sprintf("EMERGENCY DETECTED. Call %s (India) or your local emergency number IMMEDIATELY! "+
		"Do not wait for a chat response.", e.settings.EmergencyNumber)
	if len(rec.Hospitals) == 0 {
		message += "\n\nPlease seek the nearest hospital immediately."
	}

	resp := e.respond(s, models.KindEmergency, message)
	resp.Classification = models.Classification{Urgency: models.UrgencyUrgent, IsEmergency: true}
	resp.Recommendations = rec
	return resp
}

func (e *TriageEngine) diagnose(ctx context.Context, s *models.Session, completion *Completion) *models.TriageResponse {
	combined := s.CombinedSymptoms()
	if completion == nil || completion.Text == "" {
		completion = e.FallbackCompletion(combined)
	}

	kc := e.policy.Classifier
	urgency := kc.ClassifyUrgency(combined + " " + completion.Text)

	var (
		advisory string
		rec      *models.Recommendation
		cls      = models.Classification{Urgency: urgency}
	)

	switch urgency {
	case models.UrgencyUrgent:
		rec = e.recommender.Recommend(ctx, RecommendationQuery{
			City:          s.Location,
			FilterByCity:  e.policy.FilterHospitalsByCity,
			Emergency:     true,
			HospitalsOnly: true,
		})
		advisory = fmt.Sprintf("URGENT: Your symptoms require IMMEDIATE medical attention! "+
			"Call %s for emergency services or go to the nearest emergency room NOW.", e.settings.EmergencyNumber)
		if len(rec.Hospitals) == 0 {
			advisory += "\n\nPlease seek the nearest hospital immediately."
		}
		s.AwaitingDecision = false
		s.State = models.StateTerminal

	case models.UrgencySemiUrgent:
		specialty, _ := kc.ExtractSpecialty(completion.Text + " " + combined)
		cls.Specialty = specialty
		rec = e.recommender.Recommend(ctx, RecommendationQuery{
			Specialty:    specialty,
			City:         s.Location,
			DoctorLimit:  e.policy.DoctorLimit,
			FilterByCity: e.policy.FilterHospitalsByCity,
		})
		advisory = "SEMI-URGENT: Please seek professional care within 24-48 hours."
		s.AwaitingDecision = false
		s.State = models.StateTerminal

	default:
		cls.Remedies = kc.ExtractRemedies(combined)
		advisory = "ROUTINE: These symptoms can typically be managed with home care. " +
			"If symptoms persist or worsen, reply with 'book appointment' or 'feeling better'."
		s.AwaitingDecision = true
		s.State = models.StateAwaitingAppointmentDecision
	}

	resp := e.respond(s, models.KindDiagnosis, completion.Text+"\n\n"+advisory)
	resp.Generated = completion.Text
	resp.Streamed = completion.Streamed
	resp.Fallback = completion.Fallback
	resp.Classification = cls
	resp.Recommendations = rec
	if urgency == models.UrgencySemiUrgent {
		resp.ShowAppointmentOption = e.policy.SemiUrgentShowsAppointmentOption
		e.noMatch(resp)
	}
	return resp
}

func (e *TriageEngine) appointment(ctx context.Context, s *models.Session) *models.TriageResponse {
	combined := s.CombinedSymptoms()
	specialty, ok := e.policy.Classifier.ExtractSpecialty(combined)
	if !ok {
		specialty = utils.GeneralPractitioner
	}

	rec := e.recommender.Recommend(ctx, RecommendationQuery{
		Specialty:    specialty,
		City:         s.Location,
		DoctorLimit:  e.policy.DoctorLimit,
		FilterByCity: e.policy.FilterHospitalsByCity,
	})

	s.AwaitingDecision = false
	s.State = models.StateTerminal

	resp := e.respond(s, models.KindRecommendations, "Here are your healthcare options:")
	resp.Classification = models.Classification{
		Urgency:   e.policy.Classifier.ClassifyUrgency(combined),
		Specialty: specialty,
	}
	resp.Recommendations = rec
	e.noMatch(resp)
	return resp
}

// noMatch appends the booking link when the directories found nothing.
func (e *TriageEngine) noMatch(resp *models.TriageResponse) {
	if !resp.Recommendations.Empty() {
		return
	}
	resp.NoMatch = true
	resp.Message += "\n\nNo specific match found. Please visit our appointment page to find doctors and book appointments: " +
		e.settings.AppointmentURL
}

const (
	welcomeText = "Hello! I'm SymptomWise AI, your healthcare assistant. " +
		"Please describe your symptoms or health concerns and I'll guide you to appropriate care."

	askLocationText = "Hello! I'm SymptomWise AI, your healthcare assistant. " +
		"I'm here to help you understand your symptoms and guide you to appropriate healthcare. " +
		"To provide better recommendations, please share your city name (e.g., Gorakhpur, Delhi, Mumbai). " +
		"Or type 'skip' to continue without location."

	firstFollowupText = "Thank you. To help me triage your symptoms better, please tell me: " +
		"Do you have a fever, how would you rate your pain (1-10), or any specific local discomfort? " +
		"(If done, just type 'done')"

	secondFollowupText = "Understood. Can you tell me how long you've had these symptoms, " +
		"and if they are constant or intermittent? (If done, just type 'done')"

	feelingBetterResetText = "That's wonderful to hear! I'm glad you're feeling better. " +
		"If anything changes, just describe your symptoms and I'll help."

	feelingBetterDecisionText = "Great to hear you're feeling better! " +
		"Remember to keep following the remedies, stay hydrated and get adequate rest. " +
		"If symptoms return or worsen, don't hesitate to seek medical care. Type 'hi' for a new consultation."

	decisionRepromptText = "Please reply with 'book appointment' if you need medical care, " +
		"or 'feeling better' if the remedies are helping."

	closingText = "Thank you for the information. Type 'hi' to start a new consultation or 'reset' to clear our history."
)
