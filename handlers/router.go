package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/httpkit"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/middleware"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RouterOptions struct {
	CORSOrigin      string
	RateLimitWindow time.Duration
	RateLimitMax    int
	TrustedProxies  []string
	// Health reports whether the backing stores are reachable. Nil means
	// always healthy.
	Health func(ctx context.Context) error
}

type middlewareFunc = func(http.Handler) http.Handler

func chain(h http.Handler, mws ...middlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// NewRouter mounts every route under /api/v1 and wraps the router with the
// request logging, recovery, security header, CORS and rate limiting layers.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	notFound := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httpkit.Error(w, http.StatusNotFound, "Route not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		httpkit.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r := mux.NewRouter()
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notAllowed

	api := r.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = notAllowed
	api.HandleFunc("/health", healthHandler(opts.Health)).Methods(http.MethodGet)

	protect := middleware.Protect(h.Auth)
	publishers := middleware.AuthorizeRoles(models.RolePublisher, models.RoleAdmin)
	reviewers := middleware.AuthorizeRoles(models.RoleUser, models.RoleAdmin)
	admins := middleware.AuthorizeRoles(models.RoleAdmin)

	listBootcamps := middleware.AdvancedResults(func(ctx context.Context, _ *http.Request, q repositories.ListQuery) (*models.Results, error) {
		return h.Bootcamps.List(ctx, q)
	})
	listCourses := middleware.AdvancedResults(func(ctx context.Context, req *http.Request, q repositories.ListQuery) (*models.Results, error) {
		bootcampID, err := nestedBootcamp(req)
		if err != nil {
			return nil, err
		}
		return h.Courses.List(ctx, bootcampID, q)
	})
	listReviews := middleware.AdvancedResults(func(ctx context.Context, req *http.Request, q repositories.ListQuery) (*models.Results, error) {
		bootcampID, err := nestedBootcamp(req)
		if err != nil {
			return nil, err
		}
		return h.Reviews.List(ctx, bootcampID, q)
	})
	listUsers := middleware.AdvancedResults(func(ctx context.Context, _ *http.Request, q repositories.ListQuery) (*models.Results, error) {
		return h.Users.List(ctx, q)
	})

	// Bootcamps
	api.Handle("/bootcamps", chain(Adapt(h.GetBootcamps), listBootcamps)).Methods(http.MethodGet)
	api.Handle("/bootcamps", chain(Adapt(h.CreateBootcamp), protect, publishers)).Methods(http.MethodPost)
	api.Handle("/bootcamps/radius/{zipcode}/{distance}", Adapt(h.GetBootcampsInRadius)).Methods(http.MethodGet)
	api.Handle("/bootcamps/{id}", Adapt(h.GetBootcamp)).Methods(http.MethodGet)
	api.Handle("/bootcamps/{id}", chain(Adapt(h.UpdateBootcamp), protect, publishers)).Methods(http.MethodPut)
	api.Handle("/bootcamps/{id}", chain(Adapt(h.DeleteBootcamp), protect, publishers)).Methods(http.MethodDelete)

	// Courses
	api.Handle("/bootcamps/{bootcampId}/courses", chain(Adapt(h.GetCourses), listCourses)).Methods(http.MethodGet)
	api.Handle("/bootcamps/{bootcampId}/courses", chain(Adapt(h.AddCourse), protect, publishers)).Methods(http.MethodPost)
	api.Handle("/courses", chain(Adapt(h.GetCourses), listCourses)).Methods(http.MethodGet)
	api.Handle("/courses/{id}", Adapt(h.GetCourse)).Methods(http.MethodGet)
	api.Handle("/courses/{id}", chain(Adapt(h.UpdateCourse), protect, publishers)).Methods(http.MethodPut)
	api.Handle("/courses/{id}", chain(Adapt(h.DeleteCourse), protect, publishers)).Methods(http.MethodDelete)

	// Reviews
	api.Handle("/bootcamps/{bootcampId}/reviews", chain(Adapt(h.GetReviews), listReviews)).Methods(http.MethodGet)
	api.Handle("/bootcamps/{bootcampId}/reviews", chain(Adapt(h.AddReview), protect, reviewers)).Methods(http.MethodPost)
	api.Handle("/reviews", chain(Adapt(h.GetReviews), listReviews)).Methods(http.MethodGet)
	api.Handle("/reviews/{id}", Adapt(h.GetReview)).Methods(http.MethodGet)
	api.Handle("/reviews/{id}", chain(Adapt(h.UpdateReview), protect, reviewers)).Methods(http.MethodPut)
	api.Handle("/reviews/{id}", chain(Adapt(h.DeleteReview), protect, reviewers)).Methods(http.MethodDelete)

	// Auth
	api.Handle("/auth/register", Adapt(h.Register)).Methods(http.MethodPost)
	api.Handle("/auth/login", Adapt(h.Login)).Methods(http.MethodPost)
	api.Handle("/auth/logout", Adapt(h.Logout)).Methods(http.MethodGet)
	api.Handle("/auth/me", chain(Adapt(h.GetMe), protect)).Methods(http.MethodGet)
	api.Handle("/auth/updatedetails", chain(Adapt(h.UpdateDetails), protect)).Methods(http.MethodPut)
	api.Handle("/auth/updatepassword", chain(Adapt(h.UpdatePassword), protect)).Methods(http.MethodPut)
	api.Handle("/auth/forgotpassword", Adapt(h.ForgotPassword)).Methods(http.MethodPost)
	api.Handle("/auth/resetpassword/{resettoken}", Adapt(h.ResetPassword)).Methods(http.MethodPut)

	// Users
	api.Handle("/users", chain(Adapt(h.GetUsers), protect, admins, listUsers)).Methods(http.MethodGet)
	api.Handle("/users", chain(Adapt(h.CreateUser), protect, admins)).Methods(http.MethodPost)
	api.Handle("/users/{id}", chain(Adapt(h.GetUser), protect, admins)).Methods(http.MethodGet)
	api.Handle("/users/{id}", chain(Adapt(h.UpdateUser), protect, admins)).Methods(http.MethodPut)
	api.Handle("/users/{id}", chain(Adapt(h.DeleteUser), protect, admins)).Methods(http.MethodDelete)

	limiter := middleware.NewIPRateLimiter(opts.RateLimitWindow, opts.RateLimitMax, opts.TrustedProxies...)
	return chain(r,
		middleware.RequestLogger,
		middleware.Recover,
		middleware.SecurityHeaders,
		middleware.CORS(opts.CORSOrigin),
		limiter.Middleware,
	)
}

// nestedBootcamp returns the bootcamp a nested listing is scoped to, or nil
// for the top-level listing.
func nestedBootcamp(r *http.Request) (*primitive.ObjectID, error) {
	raw, nested := mux.Vars(r)["bootcampId"]
	if !nested {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.NotFound("Resource not found")
	}
	return &id, nil
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logging.WithRequest(httpkit.RequestID(r)).Errorf("Event ID: HEALTH_CHECK_FAILED, Description: %v", err)
				httpkit.Error(w, http.StatusServiceUnavailable, "Service unavailable")
				return
			}
		}
		httpkit.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	}
}
