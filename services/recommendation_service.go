package services

import (
	"context"
	"sort"
	"strings"

	"symptomwise-backend/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	EmergencyHospitalLimit = 3
	GeneralHospitalLimit   = 5

	// hospitalScanLimit bounds how many rows are ranked before capping.
	hospitalScanLimit = 100
)

// RecommendationQuery describes one doctors/hospitals lookup.
type RecommendationQuery struct {
	Specialty    string
	City         string
	DoctorLimit  int
	FilterByCity bool
	Emergency    bool
	// HospitalsOnly skips doctor matching, as for urgent cases.
	HospitalsOnly bool
}

// RecommendationService queries the directories and ranks the results.
// Lookup failures are logged and degrade to empty lists.
type RecommendationService struct {
	doctors          DoctorDirectory
	hospitals        HospitalDirectory
	preferredKeyword string
	logger           *zap.Logger
	metrics          *Metrics
}

func NewRecommendationService(doctors DoctorDirectory, hospitals HospitalDirectory, preferredKeyword string, logger *zap.Logger, metrics *Metrics) *RecommendationService {
	return &RecommendationService{
		doctors:          doctors,
		hospitals:        hospitals,
		preferredKeyword: strings.ToLower(preferredKeyword),
		logger:           logger,
		metrics:          metrics,
	}
}

// Recommend runs the doctor and hospital lookups concurrently.
func (r *RecommendationService) Recommend(ctx context.Context, q RecommendationQuery) *models.Recommendation {
	rec := &models.Recommendation{
		Specialty: q.Specialty,
		Doctors:   []models.DoctorSummary{},
		Hospitals: []models.HospitalSummary{},
	}

	var g errgroup.Group
	if !q.HospitalsOnly && q.Specialty != "" {
		g.Go(func() error {
			rec.Doctors = r.FindDoctors(ctx, q.Specialty, q.City, q.DoctorLimit)
			return nil
		})
	}
	g.Go(func() error {
		rec.Hospitals = r.FindHospitals(ctx, q.City, q.Emergency, q.FilterByCity)
		return nil
	})
	_ = g.Wait()

	return rec
}

func (r *RecommendationService) FindDoctors(ctx context.Context, specialty, city string, limit int) []models.DoctorSummary {
	if specialty == "" {
		return []models.DoctorSummary{}
	}
	doctors, err := r.doctors.FindDoctors(ctx, specialty, usableCity(city), limit)
	if err != nil {
		r.logger.Warn("Doctor lookup failed",
			zap.String("specialty", specialty),
			zap.String("city", city),
			zap.Error(err))
		r.metrics.recordDirectoryError("doctors")
		return []models.DoctorSummary{}
	}
	if limit > 0 && len(doctors) > limit {
		doctors = doctors[:limit]
	}
	return doctors
}

// FindHospitals returns up to 3 (emergency) or 5 hospitals. Hospitals whose
// name carries the preferred keyword come first, then those in city; ties
// keep directory order. With filterByCity only hospitals in city are
// considered.
func (r *RecommendationService) FindHospitals(ctx context.Context, city string, emergency, filterByCity bool) []models.HospitalSummary {
	limit := GeneralHospitalLimit
	if emergency {
		limit = EmergencyHospitalLimit
	}

	query := ""
	if filterByCity {
		query = usableCity(city)
	}

	hospitals, err := r.hospitals.FindHospitals(ctx, query, hospitalScanLimit)
	if err != nil {
		r.logger.Warn("Hospital lookup failed", zap.String("city", city), zap.Error(err))
		r.metrics.recordDirectoryError("hospitals")
		return []models.HospitalSummary{}
	}

	r.rank(hospitals, usableCity(city))
	if len(hospitals) > limit {
		hospitals = hospitals[:limit]
	}
	for i := range hospitals {
		hospitals[i].Emergency = emergency
	}
	return hospitals
}

// ListHospitals returns every active hospital, ranked like FindHospitals,
// for the browsing endpoint.
func (r *RecommendationService) ListHospitals(ctx context.Context, city string) []models.HospitalSummary {
	hospitals, err := r.hospitals.FindHospitals(ctx, usableCity(city), 0)
	if err != nil {
		r.logger.Warn("Hospital listing failed", zap.String("city", city), zap.Error(err))
		r.metrics.recordDirectoryError("hospitals")
		return []models.HospitalSummary{}
	}
	r.rank(hospitals, usableCity(city))
	return hospitals
}

func (r *RecommendationService) rank(hospitals []models.HospitalSummary, city string) {
	for i := range hospitals {
		h := &hospitals[i]
		switch {
		case r.preferredKeyword != "" && strings.Contains(strings.ToLower(h.Name), r.preferredKeyword):
			h.SortKey = -1
		case city != "" && strings.EqualFold(h.City, city):
			h.SortKey = 0
		default:
			h.SortKey = 1
		}
	}
	sort.SliceStable(hospitals, func(i, j int) bool { return hospitals[i].SortKey < hospitals[j].SortKey })
}

// usableCity drops placeholder locations that must not filter lookups.
func usableCity(city string) string {
	switch strings.ToLower(strings.TrimSpace(city)) {
	case "", "skip", "unknown":
		return ""
	}
	return strings.TrimSpace(city)
}
