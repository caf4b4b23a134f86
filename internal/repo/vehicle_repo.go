package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoparc/autoparc-api/internal/models"
)

type VehicleRepository struct {
	coll *mongo.Collection
}

func NewVehicleRepository(database *mongo.Database) *VehicleRepository {
	return &VehicleRepository{coll: database.Collection("vehicles")}
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	now := time.Now()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	vehicle.Version = 1
	_, err := r.coll.InsertOne(ctx, vehicle)
	return err
}

func (r *VehicleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return &vehicle, nil
}

// Update replaces the document guarded by the optimistic version check. A
// concurrent writer bumps the version first and the replace matches nothing;
// that surfaces as ErrVersionConflict instead of silently losing the write.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	currentVersion := vehicle.Version
	vehicle.Version = currentVersion + 1
	vehicle.UpdatedAt = time.Now()

	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": vehicle.ID, "version": currentVersion},
		vehicle,
	)
	if err != nil {
		vehicle.Version = currentVersion
		return fmt.Errorf("update vehicle: %w", err)
	}
	if res.MatchedCount == 0 {
		vehicle.Version = currentVersion
		return ErrVersionConflict
	}
	return nil
}

func (r *VehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]models.Vehicle, int64, error) {
	query := buildVehicleQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	opts := options.Find().
		SetSort(sortSpec(filter.Sort, vehicleSortFields)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, 0, fmt.Errorf("decode vehicles: %w", err)
	}
	return vehicles, total, nil
}

// Search matches the term against brand, model, description, engine and
// color. Soft-deleted vehicles never show up.
func (r *VehicleRepository) Search(ctx context.Context, q string, page, limit int) ([]models.Vehicle, int64, error) {
	regex := bson.M{"$regex": q, "$options": "i"}
	query := bson.M{
		"is_active": true,
		"$or": bson.A{
			bson.M{"brand": regex},
			bson.M{"model": regex},
			bson.M{"description": regex},
			bson.M{"specifications.engine": regex},
			bson.M{"specifications.color": regex},
		},
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("search vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, 0, fmt.Errorf("decode vehicles: %w", err)
	}
	return vehicles, total, nil
}

func (r *VehicleRepository) Stats(ctx context.Context) (VehicleStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_active": true}}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"total_vehicles": bson.M{"$sum": 1},
			"total_value":    bson.M{"$sum": "$price"},
			"avg_price":      bson.M{"$avg": "$price"},
			"min_price":      bson.M{"$min": "$price"},
			"max_price":      bson.M{"$max": "$price"},
			"by_category":    bson.M{"$push": "$category"},
			"by_status":      bson.M{"$push": "$status"},
			"by_fuel_type":   bson.M{"$push": "$specifications.fuel_type"},
			"by_year":        bson.M{"$push": bson.M{"$toString": "$year"}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return VehicleStats{}, fmt.Errorf("vehicle stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalVehicles int64    `bson:"total_vehicles"`
		TotalValue    float64  `bson:"total_value"`
		AvgPrice      float64  `bson:"avg_price"`
		MinPrice      float64  `bson:"min_price"`
		MaxPrice      float64  `bson:"max_price"`
		ByCategory    []string `bson:"by_category"`
		ByStatus      []string `bson:"by_status"`
		ByFuelType    []string `bson:"by_fuel_type"`
		ByYear        []string `bson:"by_year"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return VehicleStats{}, fmt.Errorf("decode vehicle stats: %w", err)
	}
	if len(rows) == 0 {
		return VehicleStats{
			ByCategory: map[string]int{},
			ByStatus:   map[string]int{},
			ByFuelType: map[string]int{},
			ByYear:     map[string]int{},
		}, nil
	}

	row := rows[0]
	return VehicleStats{
		TotalVehicles: row.TotalVehicles,
		TotalValue:    row.TotalValue,
		AvgPrice:      row.AvgPrice,
		MinPrice:      row.MinPrice,
		MaxPrice:      row.MaxPrice,
		ByCategory:    countOccurrences(row.ByCategory),
		ByStatus:      countOccurrences(row.ByStatus),
		ByFuelType:    countOccurrences(row.ByFuelType),
		ByYear:        countOccurrences(row.ByYear),
	}, nil
}

func buildVehicleQuery(filter VehicleFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["is_active"] = true
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Brand != "" {
		query["brand"] = bson.M{"$regex": filter.Brand, "$options": "i"}
	}
	if filter.FuelType != "" {
		query["specifications.fuel_type"] = filter.FuelType
	}
	if filter.MinPrice != nil || filter.MaxPrice != nil {
		price := bson.M{}
		if filter.MinPrice != nil {
			price["$gte"] = *filter.MinPrice
		}
		if filter.MaxPrice != nil {
			price["$lte"] = *filter.MaxPrice
		}
		query["price"] = price
	}
	if filter.MinYear != nil || filter.MaxYear != nil {
		year := bson.M{}
		if filter.MinYear != nil {
			year["$gte"] = *filter.MinYear
		}
		if filter.MaxYear != nil {
			year["$lte"] = *filter.MaxYear
		}
		query["year"] = year
	}
	return query
}

var vehicleSortFields = map[string]string{
	"price":     "price",
	"year":      "year",
	"brand":     "brand",
	"createdAt": "created_at",
}
