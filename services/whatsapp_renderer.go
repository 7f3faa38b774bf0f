package services

import (
	"fmt"
	"strings"

	"symptomwise-backend/models"
)

// whatsappListLimit is how many doctors or hospitals fit in one message.
const whatsappListLimit = 2

// RenderWhatsApp turns a turn's response into WhatsApp markdown.
func RenderWhatsApp(r *models.TriageResponse) string {
	var b strings.Builder

	switch r.Kind {
	case models.KindEmergency:
		b.WriteString("*🚨 EMERGENCY DETECTED 🚨*\n\n")
		fmt.Fprintf(&b, "🛑 *Call %s (India) or your local emergency number IMMEDIATELY!* 🛑\n", r.EmergencyNumber)
		b.WriteString("Do not wait for a chat response.\n\n---")
		writeEmergencyHospitals(&b, r.Recommendations, EmergencyHospitalLimit)
		b.WriteString("\n\n*🚨 THIS IS A MEDICAL EMERGENCY - SEEK IMMEDIATE HELP! 🚨*")

	case models.KindDiagnosis:
		b.WriteString(r.Generated)
		b.WriteString("\n\n")
		switch r.Classification.Urgency {
		case models.UrgencyUrgent:
			b.WriteString("*🚨 URGENT: Your symptoms require IMMEDIATE medical attention!*\n\n")
			fmt.Fprintf(&b, "*📞 Call %s for emergency services or go to the nearest emergency room NOW.*\n", r.EmergencyNumber)
			writeEmergencyHospitals(&b, r.Recommendations, whatsappListLimit)
			b.WriteString("\n\n*🚨 THIS IS A MEDICAL EMERGENCY - SEEK IMMEDIATE HELP! 🚨*")
		case models.UrgencySemiUrgent:
			b.WriteString("*⚠️ SEMI-URGENT: Please seek professional care within 24-48 hours.*\n\n")
			writeRecommendations(&b, r)
		default:
			b.WriteString("*ℹ️ ROUTINE: These symptoms can typically be managed with home care.*\n\n")
			writeRemedies(&b, r.Classification.Remedies)
			b.WriteString("*💊 Need Professional Care?*\n")
			b.WriteString("If symptoms persist or worsen, reply with '*book appointment*' or '*feeling better*'.")
		}

	case models.KindRecommendations:
		b.WriteString("*👩‍⚕️ Here are your healthcare options:*\n\n")
		writeRecommendations(&b, r)

	case models.KindDecisionReprompt:
		b.WriteString("Please reply with '*book appointment*' if you need medical care, ")
		b.WriteString("or '*feeling better*' if the remedies are helping.")

	default:
		b.WriteString(r.Message)
	}

	return b.String()
}

// DecisionButtons offers the two post-diagnosis choices as reply buttons.
// It returns nil unless the conversation is waiting for that decision.
func DecisionButtons(r *models.TriageResponse) *models.InteractiveMessage {
	if !r.AwaitingDecision || r.State != models.StateAwaitingAppointmentDecision {
		return nil
	}
	return &models.InteractiveMessage{
		Type: "button",
		Body: &models.InteractiveBody{Text: "Would you like to book an appointment?"},
		Footer: &models.InteractiveFooter{
			Text: fmt.Sprintf("In an emergency call %s", r.EmergencyNumber),
		},
		Action: &models.InteractiveAction{
			Buttons: []models.InteractiveButton{
				{Type: "reply", Reply: &models.ButtonReply{ID: "book appointment", Title: "Book appointment"}},
				{Type: "reply", Reply: &models.ButtonReply{ID: "feeling better", Title: "Feeling better"}},
			},
		},
	}
}

func writeEmergencyHospitals(b *strings.Builder, rec *models.Recommendation, limit int) {
	if rec == nil || len(rec.Hospitals) == 0 {
		b.WriteString("\n*Please seek the nearest hospital immediately.*")
		return
	}
	b.WriteString("\n*🏥 Nearest Emergency Hospitals:*\n")
	for i, h := range rec.Hospitals {
		if i == limit {
			break
		}
		fmt.Fprintf(b, "\n*🏥 %s*\n", h.Name)
		fmt.Fprintf(b, "📞 Phone: %s\n", orDefault(h.Phone, "Contact directly"))
		fmt.Fprintf(b, "📍 %s, %s", h.Address, h.City)
	}
}

func writeRecommendations(b *strings.Builder, r *models.TriageResponse) {
	rec := r.Recommendations
	if rec.Empty() {
		b.WriteString("No specific match found. Please visit our appointment page to find doctors and book appointments:\n")
		b.WriteString(r.AppointmentURL)
		return
	}

	if len(rec.Doctors) > 0 {
		b.WriteString("*🩺 Recommended Doctors (Top 2):*\n")
		for i, d := range rec.Doctors {
			if i == whatsappListLimit {
				break
			}
			fmt.Fprintf(b, "\n*Dr. %s* (%s)\n", d.Name, d.Specialty)
			fmt.Fprintf(b, "🏢 %s\n", orDefault(d.Hospital, "Unknown Hospital"))
			fmt.Fprintf(b, "⏳ Exp: %s\n", experience(d.Experience))
			if d.Phone != "" {
				fmt.Fprintf(b, "📞 Call: %s\n", d.Phone)
			}
		}
	} else {
		b.WriteString("*🏥 Nearby Hospitals (Top 2):*\n")
		for i, h := range rec.Hospitals {
			if i == whatsappListLimit {
				break
			}
			fmt.Fprintf(b, "\n*%s*\n", h.Name)
			fmt.Fprintf(b, "📍 %s, %s\n", h.Address, h.City)
			if h.Phone != "" {
				fmt.Fprintf(b, "📞 Phone: %s\n", h.Phone)
			}
		}
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(b, "*📅 Book Appointment:* %s\n", r.AppointmentURL)
	if len(rec.Doctors) > 0 {
		b.WriteString("_Click the link above to book with recommended doctors_")
	} else {
		b.WriteString("_Click the link above to book at nearby hospitals_")
	}
}

func writeRemedies(b *strings.Builder, remedies []string) {
	if len(remedies) == 0 {
		return
	}
	b.WriteString("*🏠 Home Remedies & Self-Care:*\n")
	for _, remedy := range remedies {
		fmt.Fprintf(b, "• %s\n", remedy)
	}
	b.WriteString("\n")
}

func experience(years int) string {
	if years <= 0 {
		return "Experienced"
	}
	return fmt.Sprintf("%d Years", years)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
