package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "ollama", c.AI.Provider)
	assert.Equal(t, 10*time.Second, c.AI.WebTimeout)
	assert.Equal(t, 30*time.Second, c.AI.WhatsAppTimeout)
	assert.Equal(t, "memory", c.Sessions.Backend)
	assert.Equal(t, 240*time.Hour, c.Sessions.GuestTTL)
	assert.Equal(t, "Gorakhpur", c.Triage.DefaultCity)
	assert.Equal(t, "108", c.Triage.EmergencyNumber)
	assert.False(t, c.UsesMongo())
	assert.Empty(t, c.Security.AdminToken)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("EMERGENCY_NUMBER", "112")
	t.Setenv("AI_WEB_TIMEOUT", "15s")
	t.Setenv("HISTORY_LIMIT", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "112", c.Triage.EmergencyNumber)
	assert.Equal(t, 15*time.Second, c.AI.WebTimeout)
	assert.Equal(t, 10, c.Sessions.HistoryLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Security.AllowedOrigins)
}

func TestFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"openai without key", map[string]string{"AI_PROVIDER": "openai"}},
		{"unknown provider", map[string]string{"AI_PROVIDER": "gemini"}},
		{"redis without address", map[string]string{"SESSION_BACKEND": "redis"}},
		{"unknown directory", map[string]string{"DIRECTORY_BACKEND": "csv"}},
		{"postgres without credentials", map[string]string{"DIRECTORY_BACKEND": "postgresql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestBuildDatabaseURI(t *testing.T) {
	c := &Config{Database: DatabaseConfig{Host: "db", Port: "5432", Name: "clinic", Username: "u", Password: "p"}}
	assert.Equal(t, "postgres://u:p@db:5432/clinic?sslmode=disable", c.BuildDatabaseURI("postgresql"))
	assert.Equal(t, "mongodb://u:p@db:5432/clinic", c.BuildDatabaseURI("mongodb"))

	c.Database.URI = "mongodb://override"
	assert.Equal(t, "mongodb://override", c.BuildDatabaseURI("mongodb"))
}
