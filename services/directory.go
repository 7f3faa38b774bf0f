package services

import (
	"context"
	"os"
	"sort"
	"strings"

	"symptomwise-backend/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DoctorDirectory finds available doctors. An empty city means any city and
// a non-positive limit means no limit. Results are ordered by descending
// experience.
type DoctorDirectory interface {
	FindDoctors(ctx context.Context, specialty, city string, limit int) ([]models.DoctorSummary, error)
}

// HospitalDirectory finds active hospitals in source order.
type HospitalDirectory interface {
	FindHospitals(ctx context.Context, city string, limit int) ([]models.HospitalSummary, error)
}

type StaticDoctor struct {
	Name       string  `yaml:"name"`
	Specialty  string  `yaml:"specialty"`
	Bio        string  `yaml:"bio"`
	Experience int     `yaml:"experience_years"`
	Hospital   string  `yaml:"hospital"`
	City       string  `yaml:"city"`
	Phone      string  `yaml:"phone"`
	Fee        float64 `yaml:"consultation_fee"`
	Available  *bool   `yaml:"available"`
}

type StaticHospital struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Phone   string `yaml:"phone"`
	Website string `yaml:"website"`
	Active  *bool  `yaml:"active"`
}

type staticSeed struct {
	Doctors   []StaticDoctor   `yaml:"doctors"`
	Hospitals []StaticHospital `yaml:"hospitals"`
}

// StaticDirectory serves both directories from a fixed list. With no seed
// it is the null directory and always returns empty results.
type StaticDirectory struct {
	doctors   []StaticDoctor
	hospitals []StaticHospital
}

func NewStaticDirectory(doctors []StaticDoctor, hospitals []StaticHospital) *StaticDirectory {
	return &StaticDirectory{doctors: doctors, hospitals: hospitals}
}

// LoadStaticDirectory reads a YAML seed file. An empty path yields the null
// directory.
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	if path == "" {
		return NewStaticDirectory(nil, nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory seed %s", path)
	}
	return ParseStaticDirectory(data)
}

func ParseStaticDirectory(data []byte) (*StaticDirectory, error) {
	var seed staticSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "parse directory seed")
	}
	return NewStaticDirectory(seed.Doctors, seed.Hospitals), nil
}

// FindDoctors matches the specialty first and falls back to the bio text.
func (d *StaticDirectory) FindDoctors(_ context.Context, specialty, city string, limit int) ([]models.DoctorSummary, error) {
	if specialty == "" {
		return []models.DoctorSummary{}, nil
	}

	match := func(doc StaticDoctor) bool { return strings.EqualFold(doc.Specialty, specialty) }
	found := d.filterDoctors(match, city)
	if len(found) == 0 {
		needle := strings.ToLower(specialty)
		found = d.filterDoctors(func(doc StaticDoctor) bool {
			return strings.Contains(strings.ToLower(doc.Bio), needle)
		}, city)
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Experience > found[j].Experience })
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (d *StaticDirectory) filterDoctors(match func(StaticDoctor) bool, city string) []models.DoctorSummary {
	out := []models.DoctorSummary{}
	for _, doc := range d.doctors {
		if doc.Available != nil && !*doc.Available {
			continue
		}
		if city != "" && !strings.EqualFold(doc.City, city) {
			continue
		}
		if !match(doc) {
			continue
		}
		out = append(out, models.DoctorSummary{
			Name:       doc.Name,
			Specialty:  doc.Specialty,
			Experience: doc.Experience,
			Hospital:   doc.Hospital,
			City:       doc.City,
			Phone:      doc.Phone,
			Fee:        doc.Fee,
		})
	}
	return out
}

func (d *StaticDirectory) FindHospitals(_ context.Context, city string, limit int) ([]models.HospitalSummary, error) {
	out := []models.HospitalSummary{}
	for _, h := range d.hospitals {
		if h.Active != nil && !*h.Active {
			continue
		}
		if city != "" && !strings.EqualFold(h.City, city) {
			continue
		}
		out = append(out, models.HospitalSummary{
			ID:      h.ID,
			Name:    h.Name,
			Address: h.Address,
			City:    h.City,
			State:   h.State,
			Phone:   h.Phone,
			Website: h.Website,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
