package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
doctors:
  - name: Asha Verma
    specialty: Dermatologist
    bio: Skin and hair specialist
    experience_years: 9
    hospital: City Care
    city: Delhi
  - name: Vikram Das
    specialty: General Practitioner
    bio: Family medicine, treats skin infections too
    experience_years: 25
    hospital: JP Hospital
    city: Gorakhpur
  - name: Off Duty
    specialty: Dermatologist
    experience_years: 30
    city: Delhi
    available: false
hospitals:
  - id: "1"
    name: City Care
    city: Delhi
  - id: "2"
    name: Closed Clinic
    city: Delhi
    active: false
  - id: "3"
    name: JP Hospital
    city: Gorakhpur
`

func TestParseStaticDirectory(t *testing.T) {
	dir, err := ParseStaticDirectory([]byte(seedYAML))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("specialty match skips unavailable doctors", func(t *testing.T) {
		docs, err := dir.FindDoctors(ctx, "dermatologist", "", 5)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Asha Verma", docs[0].Name)
	})

	t.Run("bio fallback when no category matches", func(t *testing.T) {
		docs, err := dir.FindDoctors(ctx, "infections", "", 5)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Vikram Das", docs[0].Name)
	})

	t.Run("city filter is case insensitive", func(t *testing.T) {
		docs, err := dir.FindDoctors(ctx, "Dermatologist", "DELHI", 5)
		require.NoError(t, err)
		assert.Len(t, docs, 1)

		docs, err = dir.FindDoctors(ctx, "Dermatologist", "Mumbai", 5)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("inactive hospitals are hidden", func(t *testing.T) {
		hs, err := dir.FindHospitals(ctx, "delhi", 0)
		require.NoError(t, err)
		require.Len(t, hs, 1)
		assert.Equal(t, "City Care", hs[0].Name)

		hs, err = dir.FindHospitals(ctx, "", 1)
		require.NoError(t, err)
		assert.Len(t, hs, 1)
	})
}

func TestLoadStaticDirectory(t *testing.T) {
	empty, err := LoadStaticDirectory("")
	require.NoError(t, err)
	hs, err := empty.FindHospitals(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, hs)

	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	dir, err := LoadStaticDirectory(path)
	require.NoError(t, err)
	hs, err = dir.FindHospitals(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, hs, 2)

	_, err = LoadStaticDirectory(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseStaticDirectory([]byte("doctors: [unterminated"))
	assert.Error(t, err)
}
