package httpkit

import (
	"context"
	"net/http"

	"github.com/prashant564/Courses24-API/models"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	identityKey
	resultsKey
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id assigned by the request logger, or "".
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

func WithIdentity(ctx context.Context, ident models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(models.Identity)
	return ident, ok
}

func WithResults(ctx context.Context, res *models.Results) context.Context {
	return context.WithValue(ctx, resultsKey, res)
}

func ResultsFrom(ctx context.Context) (*models.Results, bool) {
	res, ok := ctx.Value(resultsKey).(*models.Results)
	return res, ok && res != nil
}
