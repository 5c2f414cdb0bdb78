package handlers

import (
	"context"
	"strings"

	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthAPI interface {
	Register(ctx context.Context, in services.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, ident models.Identity) (*models.User, error)
	UpdateDetails(ctx context.Context, ident models.Identity, upd services.DetailsUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, ident models.Identity, currentPassword, newPassword string) (string, error)
	ForgotPassword(ctx context.Context, email, baseURL string) error
	ResetPassword(ctx context.Context, token, password string) (string, error)
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

type BootcampAPI interface {
	List(ctx context.Context, q repositories.ListQuery) (*models.Results, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Bootcamp, error)
	Create(ctx context.Context, ident models.Identity, in models.Bootcamp) (*models.Bootcamp, error)
	Update(ctx context.Context, ident models.Identity, id primitive.ObjectID, upd services.BootcampUpdate) (*models.Bootcamp, error)
	Delete(ctx context.Context, ident models.Identity, id primitive.ObjectID) error
	WithinRadius(ctx context.Context, zipcode, distance string) ([]models.Bootcamp, error)
}

type CourseAPI interface {
	List(ctx context.Context, bootcampID *primitive.ObjectID, q repositories.ListQuery) (*models.Results, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
	Create(ctx context.Context, ident models.Identity, bootcampID primitive.ObjectID, in models.Course) (*models.Course, error)
	Update(ctx context.Context, ident models.Identity, id primitive.ObjectID, upd services.CourseUpdate) (*models.Course, error)
	Delete(ctx context.Context, ident models.Identity, id primitive.ObjectID) error
}

type ReviewAPI interface {
	List(ctx context.Context, bootcampID *primitive.ObjectID, q repositories.ListQuery) (*models.Results, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Create(ctx context.Context, ident models.Identity, bootcampID primitive.ObjectID, in models.Review) (*models.Review, error)
	Update(ctx context.Context, ident models.Identity, id primitive.ObjectID, upd services.ReviewUpdate) (*models.Review, error)
	Delete(ctx context.Context, ident models.Identity, id primitive.ObjectID) error
}

type UserAPI interface {
	List(ctx context.Context, q repositories.ListQuery) (*models.Results, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, in services.UserInput) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, upd services.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Handler holds the services behind every route.
type Handler struct {
	Auth      AuthAPI
	Bootcamps BootcampAPI
	Courses   CourseAPI
	Reviews   ReviewAPI
	Users     UserAPI
	Cookie    CookieConfig
	// PublicURL overrides the request host in emailed links when set.
	PublicURL string
}

func (h *Handler) ctx(req Request) context.Context {
	return req.http.Context()
}

func (h *Handler) baseURL(req Request) string {
	if h.PublicURL != "" {
		return strings.TrimRight(h.PublicURL, "/")
	}
	return req.BaseURL()
}
