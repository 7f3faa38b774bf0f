package utils

// KeywordMapping maps a keyword to a value. Tables are ordered slices so
// that "first match wins" follows declaration order.
type KeywordMapping struct {
	Keyword string
	Value   string
}

// RemedyEntry associates a symptom keyword with its self-care list.
type RemedyEntry struct {
	Symptom  string
	Remedies []string
}

// KeywordTables is the static keyword configuration of one channel.
type KeywordTables struct {
	Urgent        []string
	SemiUrgent    []string
	Emergency     []string
	FeelingBetter []string
	Appointment   []string
	Specialties   []KeywordMapping
	// DefaultSpecialty is returned when no specialty keyword matches.
	// Empty means "absent".
	DefaultSpecialty string
	Remedies         []RemedyEntry
	GenericRemedies  []string
	RemedyLimit      int
}

const GeneralPractitioner = "General Practitioner"

var (
	resetKeywords    = []string{"reset", "menu"}
	greetingKeywords = []string{"hi", "hello", "hey", "start"}
	doneKeywords     = []string{"done", "finish", "that's all"}
)

var feelingBetterKeywords = []string{
	"feel better", "feeling better", "i'm better", "better now", "i feel better",
	"feeling fine", "i'm fine", "fine now", "okay now", "i am okay",
	"resolved", "no longer", "not anymore", "symptoms gone", "much better",
	"all good", "recovered", "back to normal", "no more symptoms",
}

var appointmentKeywords = []string{
	"book appointment", "schedule appointment", "see doctor", "visit doctor",
	"appointment", "yes book", "yes schedule",
}

var genericRemedies = []string{
	"Stay well hydrated throughout the day",
	"Ensure adequate rest and sleep",
	"Maintain a balanced, nutritious diet",
	"Light exercise if feeling up to it",
}

var (
	headacheRemedies = []string{
		"Stay hydrated - drink plenty of water",
		"Get adequate rest in a dark, quiet room",
		"Apply cold compress to forehead",
		"Try herbal teas like peppermint or ginger",
	}
	feverRemedies = []string{
		"Monitor temperature regularly",
		"Increase fluid intake",
		"Get plenty of rest",
		"Use lukewarm sponge baths to cool down",
	}
	coughRemedies = []string{
		"Honey and warm water can soothe throat",
		"Use a humidifier or steam inhalation",
		"Drink warm herbal teas",
		"Avoid irritants like smoke",
	}
	coldRemedies = []string{
		"Stay well hydrated",
		"Gargle with warm salt water",
		"Get extra sleep and rest",
		"Eat warm, nutritious soups",
	}
	stomachRemedies = []string{
		"Try ginger tea for nausea",
		"Eat bland foods like bananas and rice",
		"Stay hydrated with small sips",
		"Rest and avoid heavy meals",
	}
)

var webEmergencyKeywords = []string{
	"bleeding", "blood", "chest pain", "heart attack", "stroke", "unconscious",
	"difficulty breathing", "severe pain", "accident", "injury", "broken bone",
	"head injury", "poisoning", "overdose", "suicide", "emergency", "urgent",
	"severe", "critical", "dying", "death", "ambulance", "hospital now",
}

// WebKeywordTables holds the lists used by the browser chat.
var WebKeywordTables = KeywordTables{
	Urgent: []string{
		// cardiovascular
		"chest pain", "heart attack", "cardiac arrest", "severe chest pressure",
		"crushing chest pain", "radiating arm pain", "jaw pain with chest",
		// respiratory
		"difficulty breathing", "can't breathe", "choking", "gasping for air",
		"severe shortness of breath", "blue lips", "blue fingernails",
		// neurological
		"stroke", "sudden weakness", "facial drooping", "slurred speech",
		"severe headache", "worst headache ever", "sudden confusion",
		"loss of consciousness", "unconscious", "seizure", "convulsions",
		// trauma and bleeding
		"severe bleeding", "heavy bleeding", "bleeding heavily", "hemorrhage",
		"head injury", "broken bone", "compound fracture", "severe trauma",
		// poisoning
		"poisoning", "overdose", "toxic", "swallowed poison",
		// pain
		"severe pain", "excruciating pain", "unbearable pain", "10/10 pain",
		"severe abdominal pain", "appendicitis symptoms",
		// other
		"suicide", "suicidal thoughts", "want to die", "emergency",
		"critical", "dying", "life threatening", "ambulance needed",
		"vomiting blood", "coughing blood", "blood in stool",
		"severe allergic reaction", "anaphylaxis", "swollen throat",
	},
	SemiUrgent: []string{
		"persistent fever", "fever for days", "high fever", "fever above 102",
		"persistent vomiting", "vomiting for hours", "severe nausea",
		"persistent diarrhea", "severe diarrhea", "dehydration",
		"severe cough", "coughing for weeks", "shortness of breath",
		"wheezing", "chest tightness",
		"moderate pain", "persistent headache", "severe headache",
		"migraine", "back pain severe", "joint pain severe",
		"infection", "infected wound", "rash spreading", "severe rash",
		"swelling", "inflammation", "red streaks", "pus",
		"severe stomach pain", "abdominal pain", "difficulty swallowing",
		"blood in urine", "painful urination",
		"severe depression", "panic attacks", "severe anxiety",
		"dizziness severe", "fainting", "irregular heartbeat",
		"vision problems", "sudden vision loss", "eye injury",
		"worsening", "getting worse", "not improving",
		"need to see doctor", "should see doctor", "24-48 hours",
	},
	Emergency:     webEmergencyKeywords,
	FeelingBetter: feelingBetterKeywords,
	Appointment:   appointmentKeywords,
	Specialties: []KeywordMapping{
		{"cardiologist", "Cardiologist"},
		{"cardiology", "Cardiologist"},
		{"heart", "Cardiologist"},
		{"cardiac", "Cardiologist"},
		{"chest pain", "Cardiologist"},
		{"neurologist", "Neurologist"},
		{"neurology", "Neurologist"},
		{"brain", "Neurologist"},
		{"nervous", "Neurologist"},
		{"headache", "Neurologist"},
		{"migraine", "Neurologist"},
		{"dizziness", "Neurologist"},
		{"seizure", "Neurologist"},
		{"orthopedic", "Orthopedic Surgeon"},
		{"orthopedist", "Orthopedic Surgeon"},
		{"bone", "Orthopedic Surgeon"},
		{"joint", "Orthopedic Surgeon"},
		{"fracture", "Orthopedic Surgeon"},
		{"back pain", "Orthopedic Surgeon"},
		{"knee pain", "Orthopedic Surgeon"},
		{"dermatologist", "Dermatologist"},
		{"dermatology", "Dermatologist"},
		{"skin", "Dermatologist"},
		{"rash", "Dermatologist"},
		{"acne", "Dermatologist"},
		{"eczema", "Dermatologist"},
		{"psychiatrist", "Psychiatrist"},
		{"psychiatry", "Psychiatrist"},
		{"mental", "Psychiatrist"},
		{"depression", "Psychiatrist"},
		{"anxiety", "Psychiatrist"},
		{"stress", "Psychiatrist"},
		{"ophthalmologist", "Ophthalmologist"},
		{"ophthalmology", "Ophthalmologist"},
		{"eye", "Ophthalmologist"},
		{"vision", "Ophthalmologist"},
		{"blurred vision", "Ophthalmologist"},
		{"general practitioner", GeneralPractitioner},
		{"gp", GeneralPractitioner},
		{"family doctor", GeneralPractitioner},
		{"fever", GeneralPractitioner},
		{"cold", GeneralPractitioner},
		{"flu", GeneralPractitioner},
		{"cough", GeneralPractitioner},
	},
	Remedies: []RemedyEntry{
		{"headache", headacheRemedies},
		{"fever", feverRemedies},
		{"cough", coughRemedies},
		{"cold", coldRemedies},
		{"stomach", stomachRemedies},
		{"dizzy", genericRemedies},
		{"dizziness", genericRemedies},
	},
	GenericRemedies: genericRemedies,
	RemedyLimit:     4,
}

// WhatsAppKeywordTables holds the lists used by the WhatsApp bot. They are
// shorter than the web lists and the specialty lookup never comes back empty.
var WhatsAppKeywordTables = KeywordTables{
	Urgent: []string{
		"chest pain", "heart attack", "severe chest pressure", "difficulty breathing", "can't breathe", "choking",
		"stroke", "sudden weakness", "facial drooping", "slurred speech", "severe headache", "loss of consciousness",
		"unconscious", "seizure", "severe bleeding", "heavy bleeding", "broken bone", "poisoning", "overdose",
		"suicide", "critical", "dying", "ambulance needed", "vomiting blood", "coughing blood", "severe allergic reaction",
	},
	SemiUrgent: []string{
		"persistent fever", "fever for days", "high fever", "severe cough", "wheezing", "chest tightness",
		"persistent vomiting", "severe diarrhea", "dehydration", "moderate pain", "persistent headache",
		"migraine", "infection", "rash spreading", "swelling", "dizziness severe", "fainting", "irregular heartbeat",
		"vision problems", "worsening", "not improving", "should see doctor", "24-48 hours",
	},
	Emergency: append(append([]string(nil), webEmergencyKeywords...),
		"can't breathe", "choking", "seizure", "convulsion", "paralysis",
		"severe bleeding", "heavy bleeding", "vomiting blood", "coughing blood",
		"severe headache", "worst headache", "sudden headache", "blurred vision",
		"loss of consciousness", "fainting", "collapsed", "not responding",
	),
	FeelingBetter: feelingBetterKeywords,
	Appointment:   appointmentKeywords,
	Specialties: []KeywordMapping{
		{"cardiologist", "Cardiologist"}, {"heart", "Cardiologist"},
		{"neurologist", "Neurologist"}, {"brain", "Neurologist"}, {"stroke", "Neurologist"},
		{"orthopedic", "Orthopedic Surgeon"}, {"bone", "Orthopedic Surgeon"},
		{"dermatologist", "Dermatologist"}, {"skin", "Dermatologist"},
		{"psychiatrist", "Psychiatrist"}, {"mental", "Psychiatrist"},
		{"ophthalmologist", "Ophthalmologist"}, {"eye", "Ophthalmologist"},
		{"gastroenterologist", "Gastroenterologist"}, {"stomach", "Gastroenterologist"},
		{"dentist", "Dentist"},
		{"general practitioner", GeneralPractitioner}, {"fever", GeneralPractitioner}, {"cold", GeneralPractitioner},
	},
	DefaultSpecialty: GeneralPractitioner,
	Remedies: []RemedyEntry{
		{"headache", headacheRemedies},
		{"fever", feverRemedies},
		{"cough", coughRemedies},
		{"cold", coldRemedies},
		{"stomach", stomachRemedies},
	},
	GenericRemedies: genericRemedies,
	RemedyLimit:     3,
}
