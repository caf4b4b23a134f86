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

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{coll: database.Collection("users")}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, user)
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByResetToken looks up a user holding the given reset-token hash with an
// expiry still in the future.
func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{
		"password_reset_token":   tokenHash,
		"password_reset_expires": bson.M{"$gt": now},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by reset token: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(sortSpec(filter.Sort, userSortFields)).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	return users, total, nil
}

// Search matches the term against name, email and company.
func (r *UserRepository) Search(ctx context.Context, q string, page, limit int) ([]models.User, int64, error) {
	query := bson.M{"$or": bson.A{
		bson.M{"name": bson.M{"$regex": q, "$options": "i"}},
		bson.M{"email": bson.M{"$regex": q, "$options": "i"}},
		bson.M{"company": bson.M{"$regex": q, "$options": "i"}},
	}}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("search users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) Stats(ctx context.Context) (UserStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":             nil,
			"total_users":     bson.M{"$sum": 1},
			"active_users":    bson.M{"$sum": bson.M{"$cond": bson.A{"$is_active", 1, 0}}},
			"verified_emails": bson.M{"$sum": bson.M{"$cond": bson.A{"$email_verified", 1, 0}}},
			"by_role":         bson.M{"$push": "$role"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TotalUsers     int64    `bson:"total_users"`
		ActiveUsers    int64    `bson:"active_users"`
		VerifiedEmails int64    `bson:"verified_emails"`
		ByRole         []string `bson:"by_role"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return UserStats{}, fmt.Errorf("decode user stats: %w", err)
	}
	if len(rows) == 0 {
		return UserStats{ByRole: map[string]int{}}, nil
	}

	row := rows[0]
	return UserStats{
		TotalUsers:     row.TotalUsers,
		ActiveUsers:    row.ActiveUsers,
		VerifiedEmails: row.VerifiedEmails,
		ByRole:         countOccurrences(row.ByRole),
	}, nil
}

var userSortFields = map[string]string{
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
	"lastLogin": "last_login",
}

// sortSpec turns an API sort key ("-createdAt") into a bson sort document,
// defaulting to newest first.
func sortSpec(sort string, fields map[string]string) bson.D {
	dir := 1
	if len(sort) > 0 && sort[0] == '-' {
		dir = -1
		sort = sort[1:]
	}
	field, ok := fields[sort]
	if !ok {
		return bson.D{{Key: "created_at", Value: -1}}
	}
	return bson.D{{Key: field, Value: dir}}
}
