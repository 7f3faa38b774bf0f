package services

import (
	"context"
	"database/sql"

	"symptomwise-backend/models"

	"github.com/pkg/errors"
)

// PostgresDirectory reads the appointment site's doctors, categories and
// hospitals tables.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const doctorColumns = `
	SELECT d.full_name, c.name, COALESCE(d.experience_years, 0),
	       COALESCE(h.name, ''), COALESCE(h.city, ''), COALESCE(h.phone, ''),
	       COALESCE(d.consultation_fee, 0)
	FROM doctors d
	JOIN categories c ON c.id = d.category_id
	LEFT JOIN hospitals h ON h.id = d.hospital_id`

const doctorsByCategoryQuery = doctorColumns + `
	WHERE LOWER(c.name) = LOWER($1)
	  AND d.is_available
	  AND ($2 = '' OR LOWER(h.city) = LOWER($2))
	ORDER BY d.experience_years DESC
	LIMIT $3`

const doctorsByBioQuery = doctorColumns + `
	WHERE d.bio ILIKE '%' || $1 || '%'
	  AND d.is_available
	  AND ($2 = '' OR LOWER(h.city) = LOWER($2))
	ORDER BY d.experience_years DESC
	LIMIT $3`

const hospitalsQuery = `
	SELECT id::text, name, COALESCE(address, ''), city, COALESCE(state, ''),
	       COALESCE(phone, ''), COALESCE(website, '')
	FROM hospitals
	WHERE is_active
	  AND ($1 = '' OR LOWER(city) = LOWER($1))
	ORDER BY id
	LIMIT $2`

// sqlLimit maps a non-positive limit to NULL, which Postgres treats as
// LIMIT ALL.
func sqlLimit(limit int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
}

func (p *PostgresDirectory) FindDoctors(ctx context.Context, specialty, city string, limit int) ([]models.DoctorSummary, error) {
	if specialty == "" {
		return []models.DoctorSummary{}, nil
	}

	doctors, err := p.queryDoctors(ctx, doctorsByCategoryQuery, specialty, city, limit)
	if err != nil || len(doctors) > 0 {
		return doctors, err
	}
	return p.queryDoctors(ctx, doctorsByBioQuery, specialty, city, limit)
}

func (p *PostgresDirectory) queryDoctors(ctx context.Context, query, specialty, city string, limit int) ([]models.DoctorSummary, error) {
	rows, err := p.db.QueryContext(ctx, query, specialty, city, sqlLimit(limit))
	if err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	defer rows.Close()

	doctors := []models.DoctorSummary{}
	for rows.Next() {
		var d models.DoctorSummary
		if err := rows.Scan(&d.Name, &d.Specialty, &d.Experience, &d.Hospital, &d.City, &d.Phone, &d.Fee); err != nil {
			return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	return doctors, nil
}

func (p *PostgresDirectory) FindHospitals(ctx context.Context, city string, limit int) ([]models.HospitalSummary, error) {
	rows, err := p.db.QueryContext(ctx, hospitalsQuery, city, sqlLimit(limit))
	if err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	defer rows.Close()

	hospitals := []models.HospitalSummary{}
	for rows.Next() {
		var h models.HospitalSummary
		if err := rows.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.State, &h.Phone, &h.Website); err != nil {
			return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	return hospitals, nil
}
