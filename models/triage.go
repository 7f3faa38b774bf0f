package models

// Urgency is the triage band of a set of symptoms.
type Urgency string

const (
	UrgencyUrgent     Urgency = "URGENT"
	UrgencySemiUrgent Urgency = "SEMI_URGENT"
	UrgencyRoutine    Urgency = "ROUTINE"
)

// Classification is produced fresh for every turn and never persisted.
type Classification struct {
	Urgency           Urgency  `json:"urgency,omitempty"`
	Specialty         string   `json:"specialty,omitempty"`
	IsEmergency       bool     `json:"is_emergency"`
	Remedies          []string `json:"remedies,omitempty"`
	ResetConversation bool     `json:"reset_conversation"`
}

type DoctorSummary struct {
	Name       string  `bson:"full_name" json:"name"`
	Specialty  string  `bson:"specialty" json:"specialty"`
	Experience int     `bson:"experience_years" json:"experience_years"`
	Hospital   string  `bson:"hospital_name" json:"hospital"`
	City       string  `bson:"hospital_city" json:"city,omitempty"`
	Phone      string  `bson:"phone" json:"phone,omitempty"`
	Fee        float64 `bson:"consultation_fee" json:"consultation_fee,omitempty"`
}

type HospitalSummary struct {
	ID        string `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string `bson:"name" json:"name"`
	Address   string `bson:"address" json:"address"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state,omitempty"`
	Phone     string `bson:"phone" json:"phone,omitempty"`
	Website   string `bson:"website" json:"website,omitempty"`
	Emergency bool   `bson:"-" json:"emergency,omitempty"`
	// SortKey is the relevance rank used for ordering; lower sorts first.
	SortKey int `bson:"-" json:"distance"`
}

// Recommendation is the doctors/hospitals payload of a turn.
type Recommendation struct {
	Specialty string            `json:"specialty,omitempty"`
	Doctors   []DoctorSummary   `json:"doctors"`
	Hospitals []HospitalSummary `json:"hospitals"`
}

// Empty reports whether neither doctors nor hospitals were found.
func (r *Recommendation) Empty() bool {
	return r == nil || (len(r.Doctors) == 0 && len(r.Hospitals) == 0)
}

// ResponseKind tells renderers which branch of the dialogue produced a reply.
type ResponseKind string

const (
	KindWelcome          ResponseKind = "welcome"
	KindLocationPrompt   ResponseKind = "location_prompt"
	KindSymptomPrompt    ResponseKind = "symptom_prompt"
	KindFollowupPrompt   ResponseKind = "followup_prompt"
	KindEmergency        ResponseKind = "emergency"
	KindDiagnosis        ResponseKind = "diagnosis"
	KindRecommendations  ResponseKind = "recommendations"
	KindFeelingBetter    ResponseKind = "feeling_better"
	KindDecisionReprompt ResponseKind = "decision_reprompt"
	KindClosing          ResponseKind = "closing"
	KindApology          ResponseKind = "apology"
)

// TriageResponse is the channel-neutral result of one turn. Channel
// renderers turn it into markdown (WhatsApp) or token frames (web).
type TriageResponse struct {
	Kind    ResponseKind   `json:"kind"`
	Channel MessageChannel `json:"channel"`
	State   SessionState   `json:"state"`

	// Message is the full reply text. When Generated is non-empty it is the
	// prefix of Message produced by the completion backend.
	Message   string `json:"message"`
	Generated string `json:"-"`
	Streamed  bool   `json:"-"`
	Fallback  bool   `json:"fallback,omitempty"`

	Classification  Classification  `json:"classification"`
	Recommendations *Recommendation `json:"recommendations,omitempty"`

	Location              string `json:"location,omitempty"`
	EmergencyNumber       string `json:"emergency_number,omitempty"`
	AppointmentURL        string `json:"appointment_url,omitempty"`
	ShowAppointmentOption bool   `json:"show_appointment_option"`
	AwaitingDecision      bool   `json:"awaiting_decision"`
	NoMatch               bool   `json:"no_match,omitempty"`
}
