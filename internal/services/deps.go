package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/autoparc/autoparc-api/internal/models"
	"github.com/autoparc/autoparc-api/internal/repo"
)

// Store interfaces the services depend on. The Mongo repositories satisfy
// them in production; tests plug in in-memory fakes.

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter repo.UserFilter) ([]models.User, int64, error)
	Search(ctx context.Context, q string, page, limit int) ([]models.User, int64, error)
	Stats(ctx context.Context) (repo.UserStats, error)
}

type VehicleStore interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Vehicle, error)
	Update(ctx context.Context, vehicle *models.Vehicle) error
	List(ctx context.Context, filter repo.VehicleFilter) ([]models.Vehicle, int64, error)
	Search(ctx context.Context, q string, page, limit int) ([]models.Vehicle, int64, error)
	Stats(ctx context.Context) (repo.VehicleStats, error)
}

type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	List(ctx context.Context, filter repo.ContactFilter) ([]models.Contact, int64, error)
	ByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Contact, error)
	Stats(ctx context.Context) (repo.ContactStats, error)
	CountOverdueFollowUps(ctx context.Context, now time.Time) (int64, error)
	CountUnread(ctx context.Context) (int64, error)
}

// Notifier is the best-effort email surface. No method returns an error:
// delivery failures are logged inside the mailer and never reach a request.
type Notifier interface {
	Welcome(email, name string)
	PasswordReset(email, name, token string)
	ContactReceived(name, email, subject, message string)
	ContactReply(name, email, subject, reply string)
}
