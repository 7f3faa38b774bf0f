package services

import (
	"time"

	"symptomwise-backend/models"
	"symptomwise-backend/utils"
)

// ChannelPolicy holds the behaviour that differs between the web chat and
// WhatsApp. The state machine is shared; only these knobs change.
type ChannelPolicy struct {
	Channel    models.MessageChannel
	Classifier *utils.KeywordClassifier

	DoctorLimit           int
	FilterHospitalsByCity bool

	// SemiUrgentShowsAppointmentOption flags the response for the web UI's
	// booking button. WhatsApp puts the booking link in the text instead.
	SemiUrgentShowsAppointmentOption bool
	TerminalRechecksAppointment      bool
	DecisionAcceptsBareBetter        bool

	CompletionTimeout time.Duration
}

func WebPolicy(timeout time.Duration) ChannelPolicy {
	return ChannelPolicy{
		Channel:                          models.ChannelWeb,
		Classifier:                       utils.NewKeywordClassifier(utils.WebKeywordTables),
		DoctorLimit:                      5,
		FilterHospitalsByCity:            false,
		SemiUrgentShowsAppointmentOption: true,
		CompletionTimeout:                timeout,
	}
}

func WhatsAppPolicy(timeout time.Duration) ChannelPolicy {
	return ChannelPolicy{
		Channel:                     models.ChannelWhatsApp,
		Classifier:                  utils.NewKeywordClassifier(utils.WhatsAppKeywordTables),
		DoctorLimit:                 3,
		FilterHospitalsByCity:       true,
		TerminalRechecksAppointment: true,
		DecisionAcceptsBareBetter:   true,
		CompletionTimeout:           timeout,
	}
}
