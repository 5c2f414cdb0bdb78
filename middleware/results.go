package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/prashant564/Courses24-API/httpkit"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
)

// Lister runs a parsed listing query for one resource. The request is passed
// along so nested routes can scope the query by path parameters.
type Lister func(ctx context.Context, r *http.Request, q repositories.ListQuery) (*models.Results, error)

// AdvancedResults parses filter, select, sort and paging parameters from
// the query string, runs list and stores the page in the request context
// for the handler to write.
func AdvancedResults(list Lister) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q, err := repositories.ParseListQuery(r.URL.Query())
			if err != nil {
				if errors.Is(err, repositories.ErrInvalidQuery) {
					httpkit.Error(w, http.StatusBadRequest, err.Error())
					return
				}
				httpkit.HandleError(w, r, err)
				return
			}

			res, err := list(r.Context(), r, q)
			if err != nil {
				httpkit.HandleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(httpkit.WithResults(r.Context(), res)))
		})
	}
}
