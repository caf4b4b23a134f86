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

type ContactRepository struct {
	coll *mongo.Collection
}

func NewContactRepository(database *mongo.Database) *ContactRepository {
	return &ContactRepository{coll: database.Collection("contacts")}
}

func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID.IsZero() {
		contact.ID = primitive.NewObjectID()
	}
	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, contact)
	return err
}

func (r *ContactRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	var contact models.Contact
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": contact.ID}, contact)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context, filter ContactFilter) ([]models.Contact, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	opts := options.Find().
		SetSort(sortSpec(filter.Sort, contactSortFields)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []models.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, 0, fmt.Errorf("decode contacts: %w", err)
	}
	return contacts, total, nil
}

func (r *ContactRepository) ByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Contact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"assigned_to": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("contacts by assignee: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []models.Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return contacts, nil
}

func (r *ContactRepository) Stats(ctx context.Context) (ContactStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"total":       bson.M{"$sum": 1},
			"unread":      bson.M{"$sum": bson.M{"$cond": bson.A{"$is_read", 0, 1}}},
			"by_status":   bson.M{"$push": "$status"},
			"by_priority": bson.M{"$push": "$priority"},
			"by_type":     bson.M{"$push": "$type"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return ContactStats{}, fmt.Errorf("contact stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total      int64    `bson:"total"`
		Unread     int64    `bson:"unread"`
		ByStatus   []string `bson:"by_status"`
		ByPriority []string `bson:"by_priority"`
		ByType     []string `bson:"by_type"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return ContactStats{}, fmt.Errorf("decode contact stats: %w", err)
	}
	if len(rows) == 0 {
		return ContactStats{
			ByStatus:   map[string]int{},
			ByPriority: map[string]int{},
			ByType:     map[string]int{},
		}, nil
	}

	row := rows[0]
	return ContactStats{
		Total:      row.Total,
		Unread:     row.Unread,
		ByStatus:   countOccurrences(row.ByStatus),
		ByPriority: countOccurrences(row.ByPriority),
		ByType:     countOccurrences(row.ByType),
	}, nil
}

func (r *ContactRepository) CountOverdueFollowUps(ctx context.Context, now time.Time) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"follow_up_date": bson.M{"$lt": now}})
}

func (r *ContactRepository) CountUnread(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"is_read": false})
}

var contactSortFields = map[string]string{
	"createdAt": "created_at",
	"priority":  "priority",
	"status":    "status",
}
