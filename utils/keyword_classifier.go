package utils

import (
	"fmt"
	"strings"

	"symptomwise-backend/models"
)

// KeywordClassifier maps free text to triage signals by case-insensitive
// substring containment against static tables. "pain" inside "painting"
// matches; that is accepted behavior.
type KeywordClassifier struct {
	tables KeywordTables
}

func NewKeywordClassifier(tables KeywordTables) *KeywordClassifier {
	return &KeywordClassifier{tables: tables}
}

// ClassifyUrgency checks URGENT keywords first, then SEMI_URGENT, else
// ROUTINE. Co-occurring milder language never downgrades the result.
func (kc *KeywordClassifier) ClassifyUrgency(text string) models.Urgency {
	text = strings.ToLower(text)
	if containsAnyKeyword(text, kc.tables.Urgent) {
		return models.UrgencyUrgent
	}
	if containsAnyKeyword(text, kc.tables.SemiUrgent) {
		return models.UrgencySemiUrgent
	}
	return models.UrgencyRoutine
}

func (kc *KeywordClassifier) DetectEmergency(text string) bool {
	return containsAnyKeyword(strings.ToLower(text), kc.tables.Emergency)
}

func (kc *KeywordClassifier) DetectFeelingBetter(text string) bool {
	return containsAnyKeyword(strings.ToLower(text), kc.tables.FeelingBetter)
}

func (kc *KeywordClassifier) ExtractAppointmentIntent(text string) bool {
	return containsAnyKeyword(strings.ToLower(text), kc.tables.Appointment)
}

// ExtractSpecialty returns the first specialty, in table order, whose
// keyword occurs in text. Without a match it returns the table's default,
// and ok is false only when the table has none.
func (kc *KeywordClassifier) ExtractSpecialty(text string) (specialty string, ok bool) {
	text = strings.ToLower(text)
	for _, m := range kc.tables.Specialties {
		if strings.Contains(text, m.Keyword) {
			return m.Value, true
		}
	}
	return kc.tables.DefaultSpecialty, kc.tables.DefaultSpecialty != ""
}

// ExtractRemedies never returns an empty list.
func (kc *KeywordClassifier) ExtractRemedies(text string) []string {
	text = strings.ToLower(text)
	remedies := kc.tables.GenericRemedies
	for _, entry := range kc.tables.Remedies {
		if strings.Contains(text, entry.Symptom) {
			remedies = entry.Remedies
			break
		}
	}
	if len(remedies) == 0 {
		remedies = genericRemedies
	}
	limit := kc.tables.RemedyLimit
	if limit <= 0 || limit > len(remedies) {
		limit = len(remedies)
	}
	out := make([]string, limit)
	copy(out, remedies[:limit])
	return out
}

// IsReset matches the whole message against the reset commands.
func IsReset(text string) bool {
	return matchesExactly(text, resetKeywords)
}

func IsGreeting(text string) bool {
	return matchesExactly(text, greetingKeywords)
}

func IsDone(text string) bool {
	return matchesExactly(text, doneKeywords)
}

func IsSkip(text string) bool {
	return matchesExactly(text, []string{"skip"})
}

// FallbackText is the deterministic reply used when the completion backend
// is unavailable.
func FallbackText(userMessage, emergencyNumber string) string {
	lower := strings.ToLower(userMessage)

	switch {
	case containsAnyKeyword(lower, []string{
		"chest pain", "heart attack", "stroke", "difficulty breathing",
		"severe pain", "bleeding", "unconscious", "emergency",
	}):
		return fmt.Sprintf("EMERGENCY DETECTED: Please call %s immediately for emergency medical services. "+
			"If you're experiencing severe symptoms, don't wait - seek immediate medical attention at the nearest hospital emergency room.",
			emergencyNumber)
	case strings.Contains(lower, "headache"):
		return "I understand you're experiencing a headache. Here's what I can suggest:"
	case strings.Contains(lower, "fever"):
		return "I see you have a fever. Let me provide some guidance:"
	case strings.Contains(lower, "cough"):
		return "I understand you have a cough. Here are some recommendations:"
	case strings.Contains(lower, "dizzy"), strings.Contains(lower, "dizziness"):
		return "I'm sorry to hear that. It's possible you have low blood pressure or a problem with your inner ear. " +
			"To help you better, could you please tell me what other symptoms you are feeling along with this?"
	case containsAnyKeyword(lower, []string{"stomach", "nausea", "vomiting"}):
		return "I understand you're having stomach issues. Here's what might help:"
	case strings.Contains(lower, "appointment"), strings.Contains(lower, "book"):
		return "I can help you book an appointment with our healthcare professionals. Let me show you available options:"
	case containsAnyKeyword(lower, []string{"better", "fine", "okay", "good"}):
		return "That's wonderful to hear! I'm glad you're feeling better."
	}
	return "I'm here to help with your health concerns. Please describe your symptoms and I'll provide appropriate guidance and recommendations."
}

func containsAnyKeyword(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}

func matchesExactly(text string, keywords []string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range keywords {
		if text == keyword {
			return true
		}
	}
	return false
}
