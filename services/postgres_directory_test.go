package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var doctorRowColumns = []string{"full_name", "name", "experience_years", "hospital", "city", "phone", "fee"}

func newMockDirectory(t *testing.T) (*PostgresDirectory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDirectory(db), mock
}

func TestPostgresDirectory_FindDoctors(t *testing.T) {
	ctx := context.Background()
	byCategory := regexp.QuoteMeta(doctorsByCategoryQuery)
	byBio := regexp.QuoteMeta(doctorsByBioQuery)

	t.Run("category match", func(t *testing.T) {
		dir, mock := newMockDirectory(t)
		mock.ExpectQuery(byCategory).
			WithArgs("Dermatologist", "Delhi", int64(2)).
			WillReturnRows(sqlmock.NewRows(doctorRowColumns).
				AddRow("Asha Verma", "Dermatologist", 9, "City Care", "Delhi", "011-1111", 500.0))

		docs, err := dir.FindDoctors(ctx, "Dermatologist", "Delhi", 2)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Asha Verma", docs[0].Name)
		assert.Equal(t, 9, docs[0].Experience)
		assert.Equal(t, 500.0, docs[0].Fee)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bio fallback", func(t *testing.T) {
		dir, mock := newMockDirectory(t)
		mock.ExpectQuery(byCategory).
			WithArgs("skin", "", int64(2)).
			WillReturnRows(sqlmock.NewRows(doctorRowColumns))
		mock.ExpectQuery(byBio).
			WithArgs("skin", "", int64(2)).
			WillReturnRows(sqlmock.NewRows(doctorRowColumns).
				AddRow("Vikram Das", "General Practitioner", 25, "JP Hospital", "Gorakhpur", "", 0.0))

		docs, err := dir.FindDoctors(ctx, "skin", "", 2)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "Vikram Das", docs[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no match", func(t *testing.T) {
		dir, mock := newMockDirectory(t)
		mock.ExpectQuery(byCategory).WillReturnRows(sqlmock.NewRows(doctorRowColumns))
		mock.ExpectQuery(byBio).WillReturnRows(sqlmock.NewRows(doctorRowColumns))

		docs, err := dir.FindDoctors(ctx, "podiatrist", "", 2)
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dir, mock := newMockDirectory(t)
		mock.ExpectQuery(byCategory).WillReturnError(errors.New("connection reset"))

		_, err := dir.FindDoctors(ctx, "Dermatologist", "", 2)
		assert.ErrorIs(t, err, ErrDirectoryLookup)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresDirectory_FindHospitals(t *testing.T) {
	dir, mock := newMockDirectory(t)
	mock.ExpectQuery(regexp.QuoteMeta(hospitalsQuery)).
		WithArgs("Delhi", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "city", "state", "phone", "website"}).
			AddRow("1", "City Care", "1 Ring Road", "Delhi", "DL", "011-100", "").
			AddRow("4", "Heart Centre", "4 Park Street", "Delhi", "DL", "", ""))

	hospitals, err := dir.FindHospitals(context.Background(), "Delhi", 0)
	require.NoError(t, err)
	require.Len(t, hospitals, 2)
	assert.Equal(t, "1", hospitals[0].ID)
	assert.Equal(t, "Heart Centre", hospitals[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
