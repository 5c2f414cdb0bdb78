package services

import (
	"context"
	"errors"
	"time"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BootcampStore interface {
	Create(ctx context.Context, b *models.Bootcamp) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bootcamp, error)
	List(ctx context.Context, q repositories.ListQuery) ([]models.Bootcamp, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Bootcamp, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	WithinRadius(ctx context.Context, lng, lat, radius float64) ([]models.Bootcamp, error)
	SetAverage(ctx context.Context, id primitive.ObjectID, field string, value *float64) error
}

type CourseStore interface {
	Create(ctx context.Context, c *models.Course) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	List(ctx context.Context, q repositories.ListQuery) ([]models.Course, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Course, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error)
	AverageTuition(ctx context.Context, bootcampID primitive.ObjectID) (*float64, error)
}

type ReviewStore interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	List(ctx context.Context, q repositories.ListQuery) ([]models.Review, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error)
	AverageRating(ctx context.Context, bootcampID primitive.ObjectID) (*float64, error)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q repositories.ListQuery) ([]models.User, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, hashed string, expire time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	RedeemResetToken(ctx context.Context, hashed, passwordHash string, now time.Time) (*models.User, error)
}

// storeError translates repository errors into domain errors. what names
// the entity for not-found messages, e.g. "Bootcamp".
func storeError(err error, what string, id primitive.ObjectID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound("%s not found with id of %s", what, id.Hex())
	case errors.Is(err, repositories.ErrDuplicateKey):
		return apperr.Wrap(apperr.KindConflict, "Duplicate field value entered", err)
	default:
		return apperr.Internal("database operation failed", err)
	}
}

func listResults[T any](items []T, total int64, q repositories.ListQuery) *models.Results {
	return &models.Results{
		Success:    true,
		Count:      len(items),
		Total:      total,
		Pagination: q.Paginate(total),
		Data:       items,
	}
}

func listError(err error) error {
	if errors.Is(err, repositories.ErrInvalidQuery) {
		return apperr.Wrap(apperr.KindBadRequest, "Invalid query", err)
	}
	return apperr.Internal("listing failed", err)
}
