package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/httpkit"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/models"
)

// TokenCookie is the cookie carrying the session token.
const TokenCookie = "token"

const notAuthorized = "Not authorized to access this route"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Identity, error)
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "none" {
		return c.Value
	}
	return ""
}

// Protect requires a valid token from the Authorization header or the token
// cookie and stores the requester's identity in the request context.
func Protect(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logging.WithRequest(httpkit.RequestID(r))
			token := tokenFromRequest(r)
			if token == "" {
				log.Warnf("Event ID: AUTH_TOKEN_MISSING, Description: No token on request to %s %s", r.Method, r.URL.Path)
				httpkit.Error(w, http.StatusUnauthorized, notAuthorized)
				return
			}

			ident, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if apperr.Is(err, apperr.KindUnauthorized) {
					log.Warnf("Event ID: AUTH_TOKEN_INVALID, Description: Rejected token on request to %s %s", r.Method, r.URL.Path)
				}
				httpkit.HandleError(w, r, err)
				return
			}

			log.Debugf("Event ID: AUTH_SUCCESS, Description: User %s authenticated for %s %s", ident.UserID.Hex(), r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(httpkit.WithIdentity(r.Context(), ident)))
		})
	}
}

// AuthorizeRoles lets the request through only when the identity stored by
// Protect has one of roles.
func AuthorizeRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := httpkit.IdentityFrom(r.Context())
			if !ok {
				httpkit.Error(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			if !allowed[ident.Role] {
				logging.WithRequest(httpkit.RequestID(r)).Warnf("Event ID: ROLE_FORBIDDEN, Description: Role '%s' denied for %s %s", ident.Role, r.Method, r.URL.Path)
				httpkit.Error(w, http.StatusForbidden, "User role "+ident.Role+" is not authorized to access this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
