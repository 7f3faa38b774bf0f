package services

import (
	"context"
	"regexp"

	"symptomwise-backend/database"
	"symptomwise-backend/models"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDirectory reads the doctors and hospitals collections.
type MongoDirectory struct {
	doctors   *mongo.Collection
	hospitals *mongo.Collection
}

func NewMongoDirectory(db *mongo.Database) *MongoDirectory {
	return &MongoDirectory{
		doctors:   db.Collection(database.DoctorsCollection),
		hospitals: db.Collection(database.HospitalsCollection),
	}
}

func exactFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func (m *MongoDirectory) FindDoctors(ctx context.Context, specialty, city string, limit int) ([]models.DoctorSummary, error) {
	if specialty == "" {
		return []models.DoctorSummary{}, nil
	}

	doctors, err := m.queryDoctors(ctx, bson.M{"specialty": exactFold(specialty)}, city, limit)
	if err != nil || len(doctors) > 0 {
		return doctors, err
	}

	bio := primitive.Regex{Pattern: regexp.QuoteMeta(specialty), Options: "i"}
	return m.queryDoctors(ctx, bson.M{"bio": bio}, city, limit)
}

func (m *MongoDirectory) queryDoctors(ctx context.Context, filter bson.M, city string, limit int) ([]models.DoctorSummary, error) {
	filter["is_available"] = true
	if city != "" {
		filter["hospital_city"] = exactFold(city)
	}

	opts := options.Find().SetSort(bson.D{{Key: "experience_years", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.doctors.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	defer cursor.Close(ctx)

	doctors := []models.DoctorSummary{}
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	return doctors, nil
}

func (m *MongoDirectory) FindHospitals(ctx context.Context, city string, limit int) ([]models.HospitalSummary, error) {
	filter := bson.M{"is_active": true}
	if city != "" {
		filter["city"] = exactFold(city)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.hospitals.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	defer cursor.Close(ctx)

	hospitals := []models.HospitalSummary{}
	if err := cursor.All(ctx, &hospitals); err != nil {
		return nil, errors.Wrap(ErrDirectoryLookup, err.Error())
	}
	return hospitals, nil
}
