package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"symptomwise-backend/models"

	"go.uber.org/zap"
)

var testTriageSettings = TriageSettings{
	DefaultCity:     "Gorakhpur",
	EmergencyNumber: "108",
	AppointmentURL:  "https://example.test/appointment/",
}

// fakeCompletion returns canned text. chunks, when set, are streamed one by
// one; streamErr is returned after them.
type fakeCompletion struct {
	mu        sync.Mutex
	text      string
	err       error
	chunks    []string
	streamErr error
	prompts   []string

	started chan struct{}
	release chan struct{}
}

func (f *fakeCompletion) wait(ctx context.Context) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeCompletion) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeCompletion) Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return "", err
	}
	var full strings.Builder
	for _, c := range f.chunks {
		full.WriteString(c)
		onChunk(c)
	}
	return full.String(), f.streamErr
}

type failingDirectory struct{}

func (failingDirectory) FindDoctors(context.Context, string, string, int) ([]models.DoctorSummary, error) {
	return nil, ErrDirectoryLookup
}

func (failingDirectory) FindHospitals(context.Context, string, int) ([]models.HospitalSummary, error) {
	return nil, ErrDirectoryLookup
}

func seedDirectory() *StaticDirectory {
	return NewStaticDirectory(
		[]StaticDoctor{
			{Name: "Asha Verma", Specialty: "Neurologist", Experience: 12, Hospital: "City Care", City: "Delhi", Phone: "011-1111"},
			{Name: "Ravi Nair", Specialty: "Neurologist", Experience: 20, Hospital: "JP Hospital", City: "Delhi"},
			{Name: "Meera Rao", Specialty: "General Practitioner", Experience: 8, Hospital: "JP Hospital", City: "Gorakhpur"},
			{Name: "Karan Singh", Specialty: "Cardiologist", Experience: 15, Hospital: "Heart Centre", City: "Delhi"},
		},
		[]StaticHospital{
			{ID: "1", Name: "City Care", Address: "1 Ring Road", City: "Delhi", Phone: "011-100"},
			{ID: "2", Name: "Apollo", Address: "2 Marine Drive", City: "Mumbai"},
			{ID: "3", Name: "JP Hospital", Address: "3 Station Road", City: "Gorakhpur"},
			{ID: "4", Name: "Heart Centre", Address: "4 Park Street", City: "Delhi"},
			{ID: "5", Name: "Fortis", Address: "5 Lake View", City: "Delhi"},
			{ID: "6", Name: "Max", Address: "6 Hill Road", City: "Delhi"},
		},
	)
}

func newTestRecommender(dir *StaticDirectory) *RecommendationService {
	return NewRecommendationService(dir, dir, "jp", zap.NewNop(), nil)
}

func newTestEngine(policy ChannelPolicy) *TriageEngine {
	return NewTriageEngine(policy, newTestRecommender(seedDirectory()), testTriageSettings)
}

func newTestChatbot(store SessionStore, completion CompletionService) *ChatbotService {
	settings := ChatbotSettings{
		Triage:             testTriageSettings,
		HistoryLimit:       100,
		PromptHistoryTurns: 3,
		WebTimeout:         time.Second,
		WhatsAppTimeout:    time.Second,
	}
	return NewChatbotService(store, completion, newTestRecommender(seedDirectory()), settings, zap.NewNop(), NewMetrics())
}
